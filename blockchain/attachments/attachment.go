package attachments

import (
	"bytes"
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/moznion/go-optional"
)

// Asset is a token quantity in the smallest units of the symbol.
type Asset struct {
	Amount *big.Int
	Symbol string
}

func NewAsset(amount *big.Int, symbol string) Asset {
	return Asset{Amount: amount, Symbol: symbol}
}

func decode(action *types.Action, attachment interface{}) bool {
	if action == nil {
		return false
	}
	return rlp.Decode(bytes.NewReader(action.Data), attachment) == nil
}

func encode(attachment interface{}) []byte {
	payload, _ := rlp.EncodeToBytes(attachment)
	return payload
}

type InitAttachment struct {
	Version uint64
	Symbol  string
}

func CreateInitAttachment(version uint64, symbol string) []byte {
	return encode(&InitAttachment{Version: version, Symbol: symbol})
}

func ParseInitAttachment(action *types.Action) *InitAttachment {
	var attachment InitAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type BuyRamAttachment struct {
	Payer    common.Name
	Receiver common.Name
	Quant    Asset
}

func CreateBuyRamAttachment(payer, receiver common.Name, quant Asset) []byte {
	return encode(&BuyRamAttachment{Payer: payer, Receiver: receiver, Quant: quant})
}

func ParseBuyRamAttachment(action *types.Action) *BuyRamAttachment {
	var attachment BuyRamAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type BuyRamBytesAttachment struct {
	Payer    common.Name
	Receiver common.Name
	Bytes    uint64
}

func CreateBuyRamBytesAttachment(payer, receiver common.Name, bytes uint64) []byte {
	return encode(&BuyRamBytesAttachment{Payer: payer, Receiver: receiver, Bytes: bytes})
}

func ParseBuyRamBytesAttachment(action *types.Action) *BuyRamBytesAttachment {
	var attachment BuyRamBytesAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type SellRamAttachment struct {
	Account common.Name
	Bytes   uint64
}

func CreateSellRamAttachment(account common.Name, bytes uint64) []byte {
	return encode(&SellRamAttachment{Account: account, Bytes: bytes})
}

func ParseSellRamAttachment(action *types.Action) *SellRamAttachment {
	var attachment SellRamAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type DelegateBwAttachment struct {
	From     common.Name
	Receiver common.Name
	StakeNet Asset
	StakeCpu Asset
	Transfer bool
}

func CreateDelegateBwAttachment(from, receiver common.Name, stakeNet, stakeCpu Asset, transfer bool) []byte {
	return encode(&DelegateBwAttachment{From: from, Receiver: receiver, StakeNet: stakeNet, StakeCpu: stakeCpu, Transfer: transfer})
}

func ParseDelegateBwAttachment(action *types.Action) *DelegateBwAttachment {
	var attachment DelegateBwAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type UndelegateBwAttachment struct {
	From       common.Name
	Receiver   common.Name
	UnstakeNet Asset
	UnstakeCpu Asset
}

func CreateUndelegateBwAttachment(from, receiver common.Name, unstakeNet, unstakeCpu Asset) []byte {
	return encode(&UndelegateBwAttachment{From: from, Receiver: receiver, UnstakeNet: unstakeNet, UnstakeCpu: unstakeCpu})
}

func ParseUndelegateBwAttachment(action *types.Action) *UndelegateBwAttachment {
	var attachment UndelegateBwAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

// OwnerAttachment is the argument of actions taking a single account: refund,
// claimrewards, unregprod and rmvproducer.
type OwnerAttachment struct {
	Owner common.Name
}

func CreateOwnerAttachment(owner common.Name) []byte {
	return encode(&OwnerAttachment{Owner: owner})
}

func ParseOwnerAttachment(action *types.Action) *OwnerAttachment {
	var attachment OwnerAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type VoteProducerAttachment struct {
	Voter     common.Name
	Proxy     common.Name
	Producers []common.Name
}

func CreateVoteProducerAttachment(voter, proxy common.Name, producers ...common.Name) []byte {
	return encode(&VoteProducerAttachment{Voter: voter, Proxy: proxy, Producers: producers})
}

func ParseVoteProducerAttachment(action *types.Action) *VoteProducerAttachment {
	var attachment VoteProducerAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type RegProxyAttachment struct {
	Proxy   common.Name
	IsProxy bool
}

func CreateRegProxyAttachment(proxy common.Name, isProxy bool) []byte {
	return encode(&RegProxyAttachment{Proxy: proxy, IsProxy: isProxy})
}

func ParseRegProxyAttachment(action *types.Action) *RegProxyAttachment {
	var attachment RegProxyAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type RegProducerAttachment struct {
	Producer    common.Name
	ProducerKey string
	Url         string
	Location    uint16
}

func CreateRegProducerAttachment(producer common.Name, key string, url string, location uint16) []byte {
	return encode(&RegProducerAttachment{Producer: producer, ProducerKey: key, Url: url, Location: location})
}

func ParseRegProducerAttachment(action *types.Action) *RegProducerAttachment {
	var attachment RegProducerAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

// OnBlockAttachment is the block header digest passed to the block callback.
type OnBlockAttachment struct {
	Producer        common.Name
	Timestamp       uint64
	ScheduleVersion uint64
}

func CreateOnBlockAttachment(producer common.Name, timestamp uint64, scheduleVersion uint64) []byte {
	return encode(&OnBlockAttachment{Producer: producer, Timestamp: timestamp, ScheduleVersion: scheduleVersion})
}

func ParseOnBlockAttachment(action *types.Action) *OnBlockAttachment {
	var attachment OnBlockAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type BidNameAttachment struct {
	Bidder  common.Name
	NewName common.Name
	Bid     Asset
}

func CreateBidNameAttachment(bidder, newName common.Name, bid Asset) []byte {
	return encode(&BidNameAttachment{Bidder: bidder, NewName: newName, Bid: bid})
}

func ParseBidNameAttachment(action *types.Action) *BidNameAttachment {
	var attachment BidNameAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type BidRefundAttachment struct {
	Bidder  common.Name
	NewName common.Name
}

func CreateBidRefundAttachment(bidder, newName common.Name) []byte {
	return encode(&BidRefundAttachment{Bidder: bidder, NewName: newName})
}

func ParseBidRefundAttachment(action *types.Action) *BidRefundAttachment {
	var attachment BidRefundAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type SetRamAttachment struct {
	MaxRamSize uint64
}

func CreateSetRamAttachment(maxRamSize uint64) []byte {
	return encode(&SetRamAttachment{MaxRamSize: maxRamSize})
}

func ParseSetRamAttachment(action *types.Action) *SetRamAttachment {
	var attachment SetRamAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type SetRamRateAttachment struct {
	BytesPerBlock uint16
}

func CreateSetRamRateAttachment(bytesPerBlock uint16) []byte {
	return encode(&SetRamRateAttachment{BytesPerBlock: bytesPerBlock})
}

func ParseSetRamRateAttachment(action *types.Action) *SetRamRateAttachment {
	var attachment SetRamRateAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

// SetALimitsAttachment sets host resource limits directly; a missing value means unlimited.
type SetALimitsAttachment struct {
	Account   common.Name
	RamBytes  optional.Option[uint64]
	NetWeight optional.Option[uint64]
	CpuWeight optional.Option[uint64]
}

func CreateSetALimitsAttachment(account common.Name, ramBytes, netWeight, cpuWeight optional.Option[uint64]) []byte {
	return encode(&SetALimitsAttachment{Account: account, RamBytes: ramBytes, NetWeight: netWeight, CpuWeight: cpuWeight})
}

func ParseSetALimitsAttachment(action *types.Action) *SetALimitsAttachment {
	var attachment SetALimitsAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

// SetAcctLimitAttachment is shared by setacctram, setacctnet and setacctcpu.
// Some(value) pins the limit and marks it managed; None returns it to stake-derived.
type SetAcctLimitAttachment struct {
	Account common.Name
	Value   optional.Option[uint64]
}

func CreateSetAcctLimitAttachment(account common.Name, value optional.Option[uint64]) []byte {
	return encode(&SetAcctLimitAttachment{Account: account, Value: value})
}

func ParseSetAcctLimitAttachment(action *types.Action) *SetAcctLimitAttachment {
	var attachment SetAcctLimitAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type SetParamsAttachment struct {
	Params types.ChainParams
}

func CreateSetParamsAttachment(params types.ChainParams) []byte {
	return encode(&SetParamsAttachment{Params: params})
}

func ParseSetParamsAttachment(action *types.Action) *SetParamsAttachment {
	var attachment SetParamsAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type SetPrivAttachment struct {
	Account common.Name
	IsPriv  bool
}

func CreateSetPrivAttachment(account common.Name, isPriv bool) []byte {
	return encode(&SetPrivAttachment{Account: account, IsPriv: isPriv})
}

func ParseSetPrivAttachment(action *types.Action) *SetPrivAttachment {
	var attachment SetPrivAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type UpdtRevisionAttachment struct {
	Revision uint8
}

func CreateUpdtRevisionAttachment(revision uint8) []byte {
	return encode(&UpdtRevisionAttachment{Revision: revision})
}

func ParseUpdtRevisionAttachment(action *types.Action) *UpdtRevisionAttachment {
	var attachment UpdtRevisionAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type SetAbiAttachment struct {
	Account common.Name
	Abi     []byte
}

func CreateSetAbiAttachment(account common.Name, abi []byte) []byte {
	return encode(&SetAbiAttachment{Account: account, Abi: abi})
}

func ParseSetAbiAttachment(action *types.Action) *SetAbiAttachment {
	var attachment SetAbiAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type TransferAttachment struct {
	From     common.Name
	To       common.Name
	Quantity Asset
	Memo     string
}

func CreateTransferAttachment(from, to common.Name, quantity Asset, memo string) []byte {
	return encode(&TransferAttachment{From: from, To: to, Quantity: quantity, Memo: memo})
}

func ParseTransferAttachment(action *types.Action) *TransferAttachment {
	var attachment TransferAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type IssueAttachment struct {
	To       common.Name
	Quantity Asset
	Memo     string
}

func CreateIssueAttachment(to common.Name, quantity Asset, memo string) []byte {
	return encode(&IssueAttachment{To: to, Quantity: quantity, Memo: memo})
}

func ParseIssueAttachment(action *types.Action) *IssueAttachment {
	var attachment IssueAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type CreateTokenAttachment struct {
	Issuer    common.Name
	MaxSupply Asset
	Precision uint8
}

func CreateCreateTokenAttachment(issuer common.Name, maxSupply Asset, precision uint8) []byte {
	return encode(&CreateTokenAttachment{Issuer: issuer, MaxSupply: maxSupply, Precision: precision})
}

func ParseCreateTokenAttachment(action *types.Action) *CreateTokenAttachment {
	var attachment CreateTokenAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}

type RetireAttachment struct {
	Quantity Asset
	Memo     string
}

func CreateRetireAttachment(quantity Asset, memo string) []byte {
	return encode(&RetireAttachment{Quantity: quantity, Memo: memo})
}

func ParseRetireAttachment(action *types.Action) *RetireAttachment {
	var attachment RetireAttachment
	if !decode(action, &attachment) {
		return nil
	}
	return &attachment
}
