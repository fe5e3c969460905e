package embedded

import (
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
)

// stake2vote returns the vote weight of staked tokens at the current block time.
// The weight doubles every VoteHalfLifeDays after the vote weight epoch.
func (s *System) stake2vote(staked *big.Int) float64 {
	elapsed := s.env.BlockTimeStamp() - s.conf.VoteWeightEpoch
	if elapsed < 0 {
		elapsed = 0
	}
	days := float64(elapsed / common.SecondsPerDay)
	return toFloat(staked) * math.Pow(2, days/s.conf.VoteHalfLifeDays)
}

func (s *System) voteproducer() error {
	attach := attachments.ParseVoteProducerAttachment(s.action())
	if attach == nil {
		return parseError("voteproducer")
	}
	if err := s.requireAuth(attach.Voter); err != nil {
		return err
	}
	return s.updateVotes(attach.Voter, attach.Proxy, attach.Producers, true)
}

func (s *System) regproxy() error {
	attach := attachments.ParseRegProxyAttachment(s.action())
	if attach == nil {
		return parseError("regproxy")
	}
	if err := s.requireAuth(attach.Proxy); err != nil {
		return err
	}
	voter := s.getVoter(attach.Proxy)
	if voter == nil {
		voter = newVoterInfo(attach.Proxy)
		voter.IsProxy = attach.IsProxy
		s.setVoter(voter)
		return nil
	}
	if voter.IsProxy == attach.IsProxy {
		return NewContractError("action has no effect", false)
	}
	if attach.IsProxy && !voter.Proxy.IsEmpty() {
		return NewContractError("account that uses a proxy is not allowed to become a proxy", false)
	}
	voter.IsProxy = attach.IsProxy
	s.setVoter(voter)
	return s.propagateWeightChange(voter)
}

func (s *System) minActivatedStake() *big.Int {
	res := new(big.Int).Mul(s.env.MaxSupply(), big.NewInt(s.conf.ActivationPercent))
	return res.Quo(res, big.NewInt(100))
}

type producerDelta struct {
	weight float64
	// set when the producer is in the new vote set
	added bool
}

func (s *System) updateVotes(voterName, proxy common.Name, producers []common.Name, voting bool) error {
	if !proxy.IsEmpty() {
		if len(producers) > 0 {
			return NewContractError("cannot vote for producers and proxy at same time", false)
		}
		if proxy == voterName {
			return NewContractError("cannot proxy to self", false)
		}
	} else {
		if len(producers) > s.conf.MaxVotedProducers {
			return NewContractError("attempt to vote for too many producers", false)
		}
		for i := 1; i < len(producers); i++ {
			if producers[i-1] >= producers[i] {
				return NewContractError("producer votes must be unique and sorted", false)
			}
		}
	}

	voter := s.getVoter(voterName)
	if voter == nil {
		return NewContractError("user must stake before they can vote", false)
	}
	if !proxy.IsEmpty() && voter.IsProxy {
		return NewContractError("account registered as a proxy is not allowed to use a proxy", false)
	}

	g := s.getGlobal()
	// first vote of a voter activates its stake
	if voter.LastVoteWeight <= 0 {
		g.TotalActivatedStake.Add(g.TotalActivatedStake, voter.Staked)
		if !g.Activated() && g.TotalActivatedStake.Cmp(s.minActivatedStake()) >= 0 {
			g.ThreshActivatedStakeTime = s.now()
		}
	}

	newWeight := s.stake2vote(voter.Staked)
	if voter.IsProxy {
		newWeight += float64(voter.ProxiedVoteWeight)
	}

	deltas := make(map[common.Name]*producerDelta)
	delta := func(name common.Name) *producerDelta {
		d, ok := deltas[name]
		if !ok {
			d = new(producerDelta)
			deltas[name] = d
		}
		return d
	}

	if voter.LastVoteWeight > 0 {
		if !voter.Proxy.IsEmpty() {
			oldProxy := s.getVoter(voter.Proxy)
			assert(oldProxy != nil, "old proxy %v not found", voter.Proxy)
			oldProxy.ProxiedVoteWeight -= voter.LastVoteWeight
			s.setVoter(oldProxy)
			if err := s.propagateWeightChange(oldProxy); err != nil {
				return err
			}
		} else {
			for _, p := range voter.Producers {
				d := delta(p)
				d.weight -= float64(voter.LastVoteWeight)
				d.added = false
			}
		}
	}

	if !proxy.IsEmpty() {
		newProxy := s.getVoter(proxy)
		if newProxy == nil {
			return NewContractError("invalid proxy specified", false)
		}
		if voting && !newProxy.IsProxy {
			return NewContractError("proxy not found", false)
		}
		if newWeight >= 0 {
			newProxy.ProxiedVoteWeight += Float64(newWeight)
			s.setVoter(newProxy)
			if err := s.propagateWeightChange(newProxy); err != nil {
				return err
			}
		}
	} else if newWeight >= 0 {
		for _, p := range producers {
			d := delta(p)
			d.weight += newWeight
			d.added = true
		}
	}

	if err := s.applyProducerDeltas(deltas, voting); err != nil {
		return err
	}

	// re-read: propagation may have rewritten the row
	voter = s.getVoter(voterName)
	voter.LastVoteWeight = Float64(newWeight)
	voter.Producers = producers
	voter.Proxy = proxy
	s.setVoter(voter)
	return nil
}

func (s *System) applyProducerDeltas(deltas map[common.Name]*producerDelta, voting bool) error {
	names := make([]common.Name, 0, len(deltas))
	for name := range deltas {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})

	g := s.getGlobal()
	now := s.now()
	rateDelta := 0.0
	for _, name := range names {
		d := deltas[name]
		p := s.getProducer(name)
		if p == nil {
			if d.added {
				return NewContractError(fmt.Sprintf("producer %v is not registered", name), false)
			}
			continue
		}
		if voting && !p.IsActive && d.added {
			return NewContractError(fmt.Sprintf("producer %v is not currently registered", name), false)
		}
		initVotes := float64(p.TotalVotes)
		p.TotalVotes += Float64(d.weight)
		g.TotalProducerVoteWeight += Float64(d.weight)
		s.setProducer(p)

		if g.Revision >= 1 {
			if p2 := s.getProducer2(name); p2 != nil {
				s.updateProducerVotepayShare(p2, now, initVotes)
				rateDelta += d.weight
			}
		}
	}
	if g.Revision >= 1 {
		s.updateTotalVotepayShare(now, 0, rateDelta)
	}
	return nil
}

// propagateWeightChange recomputes the weight of voter and pushes the difference to
// its proxy or to the producers it votes for. A proxy never uses a proxy, so the
// recursion stops after one hop.
func (s *System) propagateWeightChange(voter *VoterInfo) error {
	assert(voter.Proxy.IsEmpty() || !voter.IsProxy, "proxy %v uses a proxy", voter.Owner)
	newWeight := s.stake2vote(voter.Staked)
	if voter.IsProxy {
		newWeight += float64(voter.ProxiedVoteWeight)
	}
	diff := newWeight - float64(voter.LastVoteWeight)
	if diff != 0 {
		if !voter.Proxy.IsEmpty() {
			proxy := s.getVoter(voter.Proxy)
			assert(proxy != nil, "proxy %v not found", voter.Proxy)
			proxy.ProxiedVoteWeight += Float64(diff)
			s.setVoter(proxy)
			if err := s.propagateWeightChange(proxy); err != nil {
				return err
			}
		} else {
			deltas := make(map[common.Name]*producerDelta, len(voter.Producers))
			for _, p := range voter.Producers {
				deltas[p] = &producerDelta{weight: diff}
			}
			for name := range deltas {
				assert(s.getProducer(name) != nil, "voted producer %v not found", name)
			}
			if err := s.applyProducerDeltas(deltas, false); err != nil {
				return err
			}
		}
	}
	voter = s.getVoter(voter.Owner)
	voter.LastVoteWeight = Float64(newWeight)
	s.setVoter(voter)
	return nil
}

// updateProducerVotepayShare accrues votes over the time since the producer's last update.
func (s *System) updateProducerVotepayShare(p2 *ProducerInfo2, now uint64, votes float64) Float64 {
	if now > p2.LastVotepayShareUpdate && votes > 0 {
		p2.VotepayShare += Float64(votes * float64(now-p2.LastVotepayShareUpdate))
	}
	p2.LastVotepayShareUpdate = now
	s.setProducer2(p2)
	return p2.VotepayShare
}

// updateTotalVotepayShare accrues the global pay-share at the current change rate,
// then applies the deltas. Neither the total nor the rate goes below zero.
func (s *System) updateTotalVotepayShare(now uint64, additionalShareDelta, shareChangeRateDelta float64) float64 {
	g := s.getGlobal()
	delta := additionalShareDelta
	if now > g.LastVpayStateUpdate {
		delta += float64(g.TotalVpayShareChangeRate) * float64(now-g.LastVpayStateUpdate)
	}
	g.TotalProducerVotepayShare = Float64(math.Max(float64(g.TotalProducerVotepayShare)+delta, 0))
	g.TotalVpayShareChangeRate = Float64(math.Max(float64(g.TotalVpayShareChangeRate)+shareChangeRateDelta, 0))
	g.LastVpayStateUpdate = now
	return float64(g.TotalProducerVotepayShare)
}
