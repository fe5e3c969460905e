package embedded

import (
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/common/math"
	"github.com/shopspring/decimal"
)

const (
	maxRevision     = 1
	payShareVersion = 1
)

func (s *System) claimrewards() error {
	attach := attachments.ParseOwnerAttachment(s.action())
	if attach == nil {
		return parseError("claimrewards")
	}
	owner := attach.Owner
	if err := s.requireAuth(owner); err != nil {
		return err
	}
	p := s.getProducer(owner)
	if p == nil {
		return NewContractError("producer not found", false)
	}
	if !p.IsActive {
		return NewContractError("producer does not have an active key", false)
	}
	g := s.getGlobal()
	if !g.Activated() {
		return NewContractError("cannot claim rewards until the chain is activated", false)
	}
	now := s.now()
	if now < p.LastClaimTime+s.conf.MinClaimIntervalSec {
		return NewContractError("already claimed rewards within past day", false)
	}

	if err := s.fillBuckets(now); err != nil {
		return err
	}

	perBlockPay := new(big.Int)
	if g.TotalUnpaidBlocks > 0 {
		perBlockPay = math.MulDiv(g.PerblockBucket, new(big.Int).SetUint64(p.UnpaidBlocks), new(big.Int).SetUint64(g.TotalUnpaidBlocks))
	}

	perVotePay := new(big.Int)
	if g.Revision >= payShareVersion {
		p2 := s.getProducer2(owner)
		if p2 == nil {
			p2 = &ProducerInfo2{Owner: owner, LastVotepayShareUpdate: now}
		}
		share := s.updateProducerVotepayShare(p2, now, float64(p.TotalVotes))
		total := s.updateTotalVotepayShare(now, 0, 0)
		if total > 0 && share > 0 {
			pay := decimal.NewFromFloat(float64(share)).
				Mul(decimal.NewFromBigInt(g.PervoteBucket, 0)).
				Div(decimal.NewFromFloat(total))
			perVotePay = math.MinBig(math.DecimalToInt(pay), g.PervoteBucket)
		}
		p2.VotepayShare = 0
		s.setProducer2(p2)
		s.updateTotalVotepayShare(now, -float64(share), 0)
	} else if g.TotalProducerVoteWeight > 0 && p.TotalVotes > 0 {
		pay := decimal.NewFromBigInt(g.PervoteBucket, 0).
			Mul(decimal.NewFromFloat(float64(p.TotalVotes))).
			Div(decimal.NewFromFloat(float64(g.TotalProducerVoteWeight)))
		perVotePay = math.MinBig(math.DecimalToInt(pay), g.PervoteBucket)
	}
	if s.conf.MinPervoteDailyPay != nil && perVotePay.Cmp(s.conf.MinPervoteDailyPay) < 0 {
		perVotePay = new(big.Int)
	}

	g.PervoteBucket.Sub(g.PervoteBucket, perVotePay)
	g.PerblockBucket.Sub(g.PerblockBucket, perBlockPay)
	assert(g.TotalUnpaidBlocks >= p.UnpaidBlocks, "unpaid blocks underflow")
	g.TotalUnpaidBlocks -= p.UnpaidBlocks

	p.LastClaimTime = now
	p.UnpaidBlocks = 0
	s.setProducer(p)

	if perBlockPay.Sign() > 0 {
		if err := s.env.Transfer(s.ctx, BpayAccount, owner, perBlockPay, "producer block pay"); err != nil {
			return err
		}
	}
	if perVotePay.Sign() > 0 {
		if err := s.env.Transfer(s.ctx, VpayAccount, owner, perVotePay, "producer vote pay"); err != nil {
			return err
		}
	}
	return nil
}

// fillBuckets mints the inflation accrued since the last fill and splits it between
// savings, the per-block bucket and the per-vote bucket.
func (s *System) fillBuckets(now uint64) error {
	g := s.getGlobal()
	if g.LastPervoteBucketFill == 0 || now <= g.LastPervoteBucketFill {
		return nil
	}
	elapsed := now - g.LastPervoteBucketFill
	newTokens := math.DecimalToInt(decimal.NewFromBigInt(s.env.Supply(), 0).
		Mul(decimal.NewFromFloat(s.conf.ContinuousRate)).
		Mul(decimal.NewFromInt(int64(elapsed))).
		Div(decimal.NewFromInt(common.SecondsPerYear)))

	toProducers := new(big.Int).Quo(newTokens, big.NewInt(s.conf.ProducerRateDivisor))
	toSavings := new(big.Int).Sub(newTokens, toProducers)
	toPerBlock := new(big.Int).Quo(toProducers, big.NewInt(s.conf.BlockRateDivisor))
	toPerVote := new(big.Int).Sub(toProducers, toPerBlock)

	if newTokens.Sign() > 0 {
		if err := s.env.Issue(s.ctx, s.self(), newTokens, "issue tokens for producer pay and savings"); err != nil {
			return err
		}
		transfers := []struct {
			to     common.Name
			amount *big.Int
			memo   string
		}{
			{SavingAccount, toSavings, "unallocated inflation"},
			{BpayAccount, toPerBlock, "fund per-block bucket"},
			{VpayAccount, toPerVote, "fund per-vote bucket"},
		}
		for _, t := range transfers {
			if t.amount.Sign() <= 0 {
				continue
			}
			if err := s.env.Transfer(s.ctx, s.self(), t.to, t.amount, t.memo); err != nil {
				return err
			}
		}
	}
	g.PervoteBucket.Add(g.PervoteBucket, toPerVote)
	g.PerblockBucket.Add(g.PerblockBucket, toPerBlock)
	g.LastPervoteBucketFill = now
	return nil
}

func (s *System) updtrevision() error {
	attach := attachments.ParseUpdtRevisionAttachment(s.action())
	if attach == nil {
		return parseError("updtrevision")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	g := s.getGlobal()
	if g.Revision >= maxRevision {
		return NewContractError("can not increment revision", false)
	}
	if attach.Revision != g.Revision+1 {
		return NewContractError("can only increment revision by one", false)
	}
	s.upgradeGlobal(attach.Revision)
	g.Revision = attach.Revision
	return nil
}

// upgradeGlobal runs the one-time migration of the given revision.
func (s *System) upgradeGlobal(revision uint8) {
	g := s.getGlobal()
	now := s.now()
	switch revision {
	case payShareVersion:
		g.LastVpayStateUpdate = now
		g.TotalProducerVotepayShare = 0
		g.TotalVpayShareChangeRate = g.TotalProducerVoteWeight
		if g.TotalVpayShareChangeRate < 0 {
			g.TotalVpayShareChangeRate = 0
		}
		var rows []*ProducerInfo2
		s.producers2.Iterate(func(_ []byte, row []byte) bool {
			rows = append(rows, decodeRow[ProducerInfo2](row))
			return false
		})
		for _, p2 := range rows {
			p2.VotepayShare = 0
			p2.LastVotepayShareUpdate = now
			s.setProducer2(p2)
		}
	}
}
