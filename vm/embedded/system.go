package embedded

import (
	"encoding/binary"
	"math"
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/config"
	"github.com/aggregion/agrio.contracts/vm/env"
	"github.com/aggregion/agrio.contracts/vm/helpers"
	"github.com/pkg/errors"
)

const (
	globalKey = "global"
	marketKey = "rammarket"
)

// System is the governance contract: RAM market, staking, voting, producer
// schedule, rewards and name auctions.
type System struct {
	*BaseContract
	conf *config.SystemConf

	global *GlobalState

	producers  *env.Table
	producers2 *env.Table
	voters     *env.Table
	delband    *env.Table
	refunds    *env.Table
	userres    *env.Table
	namebids   *env.Table
	bidrefunds *env.Table
	abihash    *env.Table
}

func NewSystemContract(ctx env.CallContext, e env.Env, conf *config.SystemConf) *System {
	return &System{
		BaseContract: &BaseContract{ctx: ctx, env: e},
		conf:         conf,
		producers:    env.NewTable([]byte("prod"), e, ctx, producerRankKey),
		producers2:   env.NewTable([]byte("prod2"), e, ctx, nil),
		voters:       env.NewTable([]byte("voter"), e, ctx, nil),
		delband:      env.NewTable([]byte("delband"), e, ctx, nil),
		refunds:      env.NewTable([]byte("refund"), e, ctx, nil),
		userres:      env.NewTable([]byte("userres"), e, ctx, nil),
		namebids:     env.NewTable([]byte("namebid"), e, ctx, nameBidKey),
		bidrefunds:   env.NewTable([]byte("bidrefund"), e, ctx, nil),
		abihash:      env.NewTable([]byte("abihash"), e, ctx, nil),
	}
}

// producerRankKey orders active producers first, then by descending votes, then by
// registration order.
func producerRankKey(_ []byte, row []byte) []byte {
	p := decodeRow[ProducerInfo](row)
	key := make([]byte, 17)
	if !p.IsActive {
		key[0] = 1
	}
	votes := float64(p.TotalVotes)
	if votes < 0 || math.IsNaN(votes) {
		votes = 0
	}
	binary.BigEndian.PutUint64(key[1:], ^math.Float64bits(votes))
	binary.BigEndian.PutUint64(key[9:], p.Seq)
	return key
}

func nameBidKey(_ []byte, row []byte) []byte {
	return helpers.DescBigIntKey(decodeRow[NameBid](row).HighBid)
}

func (s *System) Call(method string) error {
	if err := s.call(method); err != nil {
		return err
	}
	if s.global != nil {
		s.SetValue(globalKey, encodeRow(s.global))
	}
	return nil
}

func (s *System) call(method string) error {
	switch method {
	case "init":
		return s.init()
	case "buyram":
		return s.buyram()
	case "buyrambytes":
		return s.buyrambytes()
	case "sellram":
		return s.sellram()
	case "setram":
		return s.setram()
	case "setramrate":
		return s.setramrate()
	case "delegatebw":
		return s.delegatebw()
	case "undelegatebw":
		return s.undelegatebw()
	case "refund":
		return s.refund()
	case "voteproducer":
		return s.voteproducer()
	case "regproxy":
		return s.regproxy()
	case "regproducer":
		return s.regproducer()
	case "unregprod":
		return s.unregprod()
	case "rmvproducer":
		return s.rmvproducer()
	case "onblock":
		return s.onblock()
	case "claimrewards":
		return s.claimrewards()
	case "updtrevision":
		return s.updtrevision()
	case "bidname":
		return s.bidname()
	case "bidrefund":
		return s.bidrefund()
	case "setalimits":
		return s.setalimits()
	case "setacctram":
		return s.setacctram()
	case "setacctnet":
		return s.setacctnet()
	case "setacctcpu":
		return s.setacctcpu()
	case "setparams":
		return s.setparams()
	case "setpriv":
		return s.setpriv()
	case "newaccount":
		return s.newaccount()
	case "updateauth":
		return s.updateauth()
	case "deleteauth":
		return s.deleteauth()
	case "linkauth":
		return s.linkauth()
	case "unlinkauth":
		return s.unlinkauth()
	case "canceldelay":
		return s.canceldelay()
	case "onerror":
		return s.onerror()
	case "setcode":
		return s.setcode()
	case "setabi":
		return s.setabi()
	default:
		return errUnknownMethod
	}
}

func newGlobalState() *GlobalState {
	return &GlobalState{
		TotalRamStake:       new(big.Int),
		PervoteBucket:       new(big.Int),
		PerblockBucket:      new(big.Int),
		TotalActivatedStake: new(big.Int),
	}
}

// getGlobal loads the singleton once per action; Call stores it back on success.
func (s *System) getGlobal() *GlobalState {
	if s.global == nil {
		if g := decodeRow[GlobalState](s.GetValue(globalKey)); g != nil {
			s.global = g
		} else {
			s.global = newGlobalState()
			s.global.Params = s.env.BlockchainParameters()
		}
	}
	return s.global
}

func (s *System) checkAsset(asset attachments.Asset) error {
	if asset.Amount == nil {
		return errBadArguments
	}
	if asset.Symbol != s.env.CoreSymbol() {
		return NewContractError("asset must be system token", false)
	}
	return nil
}

func (s *System) getMarket() *RamMarket {
	return decodeRow[RamMarket](s.GetValue(marketKey))
}

func (s *System) setMarket(m *RamMarket) {
	s.SetValue(marketKey, encodeRow(m))
}

func (s *System) getProducer(owner common.Name) *ProducerInfo {
	return getRow[ProducerInfo](s.producers, owner.Bytes())
}

func (s *System) setProducer(p *ProducerInfo) {
	setRow(s.producers, p.Owner.Bytes(), p)
}

func (s *System) getProducer2(owner common.Name) *ProducerInfo2 {
	return getRow[ProducerInfo2](s.producers2, owner.Bytes())
}

func (s *System) setProducer2(p *ProducerInfo2) {
	setRow(s.producers2, p.Owner.Bytes(), p)
}

func newVoterInfo(owner common.Name) *VoterInfo {
	return &VoterInfo{Owner: owner, Staked: new(big.Int)}
}

func (s *System) getVoter(owner common.Name) *VoterInfo {
	return getRow[VoterInfo](s.voters, owner.Bytes())
}

func (s *System) setVoter(v *VoterInfo) {
	setRow(s.voters, v.Owner.Bytes(), v)
}

func delegationKey(from, to common.Name) []byte {
	return helpers.JoinNames(from, to)
}

func (s *System) getDelegation(from, to common.Name) *DelegatedBandwidth {
	return getRow[DelegatedBandwidth](s.delband, delegationKey(from, to))
}

func (s *System) getRefund(owner common.Name) *RefundRequest {
	return getRow[RefundRequest](s.refunds, owner.Bytes())
}

func newUserResources(owner common.Name) *UserResources {
	return &UserResources{Owner: owner, NetWeight: new(big.Int), CpuWeight: new(big.Int)}
}

func (s *System) getUserResources(owner common.Name) *UserResources {
	return getRow[UserResources](s.userres, owner.Bytes())
}

func (s *System) setUserResources(res *UserResources) {
	setRow(s.userres, res.Owner.Bytes(), res)
}

func (s *System) getNameBid(name common.Name) *NameBid {
	return getRow[NameBid](s.namebids, name.Bytes())
}

func bidRefundKey(newName, bidder common.Name) []byte {
	return helpers.JoinNames(newName, bidder)
}

func (s *System) getBidRefund(newName, bidder common.Name) *BidRefund {
	return getRow[BidRefund](s.bidrefunds, bidRefundKey(newName, bidder))
}

// read API

func (s *System) GetGlobal() *GlobalState {
	return s.getGlobal()
}

func (s *System) GetMarket() *RamMarket {
	return s.getMarket()
}

func (s *System) GetProducer(owner common.Name) *ProducerInfo {
	return s.getProducer(owner)
}

func (s *System) GetProducer2(owner common.Name) *ProducerInfo2 {
	return s.getProducer2(owner)
}

func (s *System) GetVoter(owner common.Name) *VoterInfo {
	return s.getVoter(owner)
}

func (s *System) GetDelegation(from, to common.Name) *DelegatedBandwidth {
	return s.getDelegation(from, to)
}

func (s *System) GetRefund(owner common.Name) *RefundRequest {
	return s.getRefund(owner)
}

func (s *System) GetUserResources(owner common.Name) *UserResources {
	return s.getUserResources(owner)
}

func (s *System) GetNameBid(name common.Name) *NameBid {
	return s.getNameBid(name)
}

func (s *System) GetBidRefund(newName, bidder common.Name) *BidRefund {
	return s.getBidRefund(newName, bidder)
}

func (s *System) GetAbiHash(owner common.Name) *AbiHash {
	return getRow[AbiHash](s.abihash, owner.Bytes())
}

// RankedProducers returns up to limit producers in schedule order: active first, then by
// descending votes, then by registration order. A non-positive limit returns all.
func (s *System) RankedProducers(limit int) []*ProducerInfo {
	var res []*ProducerInfo
	s.producers.IterateIndex(func(_ []byte, row []byte) bool {
		res = append(res, decodeRow[ProducerInfo](row))
		return limit > 0 && len(res) >= limit
	})
	return res
}

// NameBids returns open and closed auctions ordered by descending high bid.
func (s *System) NameBids() []*NameBid {
	var res []*NameBid
	s.namebids.IterateIndex(func(_ []byte, row []byte) bool {
		res = append(res, decodeRow[NameBid](row))
		return false
	})
	return res
}

func (s *System) Voters() []*VoterInfo {
	var res []*VoterInfo
	s.voters.Iterate(func(_ []byte, row []byte) bool {
		res = append(res, decodeRow[VoterInfo](row))
		return false
	})
	return res
}

func parseError(method string) error {
	return errors.Wrap(errBadArguments, method)
}
