package embedded

import (
	"io"
	"math"
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// Float64 is a float64 stored by its IEEE 754 bits.
type Float64 float64

func (f Float64) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, math.Float64bits(float64(f)))
}

func (f *Float64) DecodeRLP(s *rlp.Stream) error {
	bits, err := s.Uint64()
	if err != nil {
		return err
	}
	*f = Float64(math.Float64frombits(bits))
	return nil
}

// GlobalState is the system contract singleton.
type GlobalState struct {
	Params types.ChainParams

	MaxRamSize                 uint64
	TotalRamBytesReserved      uint64
	TotalRamStake              *big.Int
	LastProducerScheduleUpdate uint64
	LastPervoteBucketFill      uint64
	PervoteBucket              *big.Int
	PerblockBucket             *big.Int
	TotalUnpaidBlocks          uint64
	TotalActivatedStake        *big.Int
	ThreshActivatedStakeTime   uint64
	LastProducerScheduleSize   uint16
	TotalProducerVoteWeight    Float64
	LastNameClose              uint64

	NewRamPerBlock            uint16
	LastRamIncrease           uint64 // block height
	TotalProducerVotepayShare Float64
	Revision                  uint8

	LastVpayStateUpdate      uint64
	TotalVpayShareChangeRate Float64

	// registration counter, orders producers with equal votes
	ProducerSeq uint64
}

func (g *GlobalState) FreeRam() uint64 {
	return g.MaxRamSize - g.TotalRamBytesReserved
}

func (g *GlobalState) Activated() bool {
	return g.ThreshActivatedStakeTime != 0
}

type Connector struct {
	Balance *big.Int
	Weight  Float64
}

// RamMarket is the bonding curve market: Base holds RAM bytes, Quote holds tokens.
type RamMarket struct {
	Supply *big.Int
	Base   Connector
	Quote  Connector
	Symbol string
}

type ProducerInfo struct {
	Owner         common.Name
	TotalVotes    Float64
	ProducerKey   string
	IsActive      bool
	Url           string
	UnpaidBlocks  uint64
	LastClaimTime uint64
	Location      uint16
	Seq           uint64
}

func (p *ProducerInfo) deactivate() {
	p.ProducerKey = ""
	p.IsActive = false
}

type ProducerInfo2 struct {
	Owner                  common.Name
	VotepayShare           Float64
	LastVotepayShareUpdate uint64
}

const (
	ramManaged uint32 = 1 << iota
	netManaged
	cpuManaged
)

type VoterInfo struct {
	Owner             common.Name
	Proxy             common.Name
	Producers         []common.Name
	Staked            *big.Int
	LastVoteWeight    Float64
	ProxiedVoteWeight Float64
	IsProxy           bool
	Flags1            uint32
}

func (v *VoterInfo) hasFlag(flag uint32) bool {
	return v != nil && v.Flags1&flag != 0
}

func (v *VoterInfo) setFlag(flag uint32, value bool) {
	if value {
		v.Flags1 |= flag
	} else {
		v.Flags1 &^= flag
	}
}

type DelegatedBandwidth struct {
	From      common.Name
	To        common.Name
	NetWeight *big.Int
	CpuWeight *big.Int
}

func (d *DelegatedBandwidth) isEmpty() bool {
	return d.NetWeight.Sign() == 0 && d.CpuWeight.Sign() == 0
}

type RefundRequest struct {
	Owner       common.Name
	RequestTime uint64
	NetAmount   *big.Int
	CpuAmount   *big.Int
}

func (r *RefundRequest) isEmpty() bool {
	return r.NetAmount.Sign() == 0 && r.CpuAmount.Sign() == 0
}

type UserResources struct {
	Owner     common.Name
	NetWeight *big.Int
	CpuWeight *big.Int
	RamBytes  uint64
}

func (u *UserResources) isEmpty() bool {
	return u.NetWeight.Sign() == 0 && u.CpuWeight.Sign() == 0 && u.RamBytes == 0
}

type NameBid struct {
	NewName     common.Name
	HighBidder  common.Name
	HighBid     *big.Int
	LastBidTime uint64
}

type BidRefund struct {
	Bidder  common.Name
	NewName common.Name
	Amount  *big.Int
}

type AbiHash struct {
	Owner common.Name
	Hash  common.Hash
}
