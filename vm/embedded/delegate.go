package embedded

import (
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/vm/env"
)

func (s *System) delegatebw() error {
	attach := attachments.ParseDelegateBwAttachment(s.action())
	if attach == nil {
		return parseError("delegatebw")
	}
	if err := s.checkAsset(attach.StakeNet); err != nil {
		return err
	}
	if err := s.checkAsset(attach.StakeCpu); err != nil {
		return err
	}
	net, cpu := attach.StakeNet.Amount, attach.StakeCpu.Amount
	if net.Sign() < 0 || cpu.Sign() < 0 || new(big.Int).Add(net, cpu).Sign() <= 0 {
		return NewContractError("must stake a positive amount", false)
	}
	if attach.Transfer && attach.From == attach.Receiver {
		return NewContractError("cannot use transfer flag if delegating to self", false)
	}
	return s.changeBandwidth(attach.From, attach.Receiver, net, cpu, attach.Transfer)
}

func (s *System) undelegatebw() error {
	attach := attachments.ParseUndelegateBwAttachment(s.action())
	if attach == nil {
		return parseError("undelegatebw")
	}
	if err := s.checkAsset(attach.UnstakeNet); err != nil {
		return err
	}
	if err := s.checkAsset(attach.UnstakeCpu); err != nil {
		return err
	}
	net, cpu := attach.UnstakeNet.Amount, attach.UnstakeCpu.Amount
	if net.Sign() < 0 || cpu.Sign() < 0 || new(big.Int).Add(net, cpu).Sign() <= 0 {
		return NewContractError("must unstake a positive amount", false)
	}
	return s.changeBandwidth(attach.From, attach.Receiver, new(big.Int).Neg(net), new(big.Int).Neg(cpu), false)
}

// changeBandwidth moves stake between the liquid balance of from and the bandwidth
// delegated to receiver. Negative deltas release stake into a deferred refund.
func (s *System) changeBandwidth(from, receiver common.Name, netDelta, cpuDelta *big.Int, transfer bool) error {
	if err := s.requireAuth(from); err != nil {
		return err
	}
	if netDelta.Sign() == 0 && cpuDelta.Sign() == 0 {
		return NewContractError("should stake non-zero amount", false)
	}
	if netDelta.Sign()*cpuDelta.Sign() < 0 {
		return NewContractError("net and cpu deltas cannot be opposite signs", false)
	}
	if !s.env.IsAccount(receiver) {
		return NewContractError("receiver account does not exist", false)
	}

	source := from
	if transfer {
		from = receiver
	}

	if err := s.updateDelegation(from, receiver, netDelta, cpuDelta); err != nil {
		return err
	}
	if err := s.updateStakedResources(receiver, netDelta, cpuDelta); err != nil {
		return err
	}

	netBalance, cpuBalance := new(big.Int).Set(netDelta), new(big.Int).Set(cpuDelta)
	if source != StakeAccount {
		s.updateRefund(from, receiver, transfer, netBalance, cpuBalance)
	}
	if amount := new(big.Int).Add(netBalance, cpuBalance); amount.Sign() > 0 {
		if err := s.env.Transfer(s.ctx, source, StakeAccount, amount, "stake bandwidth"); err != nil {
			return err
		}
	}

	return s.updateVotingPower(from, new(big.Int).Add(netDelta, cpuDelta))
}

func (s *System) updateDelegation(from, receiver common.Name, netDelta, cpuDelta *big.Int) error {
	del := s.getDelegation(from, receiver)
	if del == nil {
		del = &DelegatedBandwidth{From: from, To: receiver, NetWeight: new(big.Int), CpuWeight: new(big.Int)}
	}
	del.NetWeight.Add(del.NetWeight, netDelta)
	del.CpuWeight.Add(del.CpuWeight, cpuDelta)
	if del.NetWeight.Sign() < 0 {
		return NewContractError("insufficient staked net bandwidth", false)
	}
	if del.CpuWeight.Sign() < 0 {
		return NewContractError("insufficient staked cpu bandwidth", false)
	}
	key := delegationKey(from, receiver)
	if del.isEmpty() {
		s.delband.Remove(key)
	} else {
		setRow(s.delband, key, del)
	}
	return nil
}

func (s *System) updateStakedResources(receiver common.Name, netDelta, cpuDelta *big.Int) error {
	res := s.getUserResources(receiver)
	if res == nil {
		res = newUserResources(receiver)
	}
	res.NetWeight.Add(res.NetWeight, netDelta)
	res.CpuWeight.Add(res.CpuWeight, cpuDelta)
	if res.NetWeight.Sign() < 0 {
		return NewContractError("insufficient staked total net bandwidth", false)
	}
	if res.CpuWeight.Sign() < 0 {
		return NewContractError("insufficient staked total cpu bandwidth", false)
	}

	voter := s.getVoter(receiver)
	ram, net, cpu := s.env.GetResourceLimits(receiver)
	if !voter.hasFlag(ramManaged) {
		if gifted := res.RamBytes + s.conf.RamGiftBytes; gifted > ram {
			ram = gifted
		}
	}
	if !voter.hasFlag(netManaged) {
		net = s.stakeToLimit(res.NetWeight, s.conf.NetPerStake)
	}
	if !voter.hasFlag(cpuManaged) {
		cpu = s.stakeToLimit(res.CpuWeight, s.conf.CpuPerStake)
	}
	s.env.SetResourceLimits(receiver, ram, net, cpu)

	if res.isEmpty() {
		s.userres.Remove(receiver.Bytes())
	} else {
		s.setUserResources(res)
	}
	return nil
}

func (s *System) stakeToLimit(weight *big.Int, perStake uint64) uint64 {
	limit := new(big.Int).Mul(weight, new(big.Int).SetUint64(perStake))
	if !limit.IsUint64() {
		return env.Unlimited - 1
	}
	return limit.Uint64()
}

// updateRefund merges the deltas into the refund row of from. Pending refunds are
// consumed first by self-delegation; what the row absorbs is removed from the balances.
func (s *System) updateRefund(from, receiver common.Name, transfer bool, netBalance, cpuBalance *big.Int) {
	undelegating := new(big.Int).Add(netBalance, cpuBalance).Sign() < 0
	toSelf := !transfer && from == receiver
	if !toSelf && !undelegating {
		return
	}
	req := s.getRefund(from)
	needDeferred := false
	switch {
	case req != nil:
		if netBalance.Sign() < 0 || cpuBalance.Sign() < 0 {
			req.RequestTime = s.now()
		}
		absorb := func(amount, balance *big.Int) {
			amount.Sub(amount, balance)
			if amount.Sign() < 0 {
				balance.Neg(amount)
				amount.SetInt64(0)
			} else {
				balance.SetInt64(0)
			}
		}
		absorb(req.NetAmount, netBalance)
		absorb(req.CpuAmount, cpuBalance)
		assert(req.NetAmount.Sign() >= 0 && req.CpuAmount.Sign() >= 0, "negative refund amount")
		if req.isEmpty() {
			s.refunds.Remove(from.Bytes())
		} else {
			setRow(s.refunds, from.Bytes(), req)
			needDeferred = true
		}
	case netBalance.Sign() < 0 || cpuBalance.Sign() < 0:
		req = &RefundRequest{Owner: from, RequestTime: s.now(), NetAmount: new(big.Int), CpuAmount: new(big.Int)}
		if netBalance.Sign() < 0 {
			req.NetAmount.Neg(netBalance)
			netBalance.SetInt64(0)
		}
		if cpuBalance.Sign() < 0 {
			req.CpuAmount.Neg(cpuBalance)
			cpuBalance.SetInt64(0)
		}
		setRow(s.refunds, from.Bytes(), req)
		needDeferred = true
	}

	if needDeferred {
		action := s.deferredAction("refund", attachments.CreateOwnerAttachment(from), from)
		s.env.ScheduleDeferred(s.ctx, s.self(), from.Bytes(), s.conf.RefundDelaySec, action)
	} else if req != nil {
		s.env.CancelDeferred(s.ctx, s.self(), from.Bytes())
	}
}

func (s *System) updateVotingPower(voterName common.Name, delta *big.Int) error {
	voter := s.getVoter(voterName)
	if voter == nil {
		voter = newVoterInfo(voterName)
	}
	voter.Staked.Add(voter.Staked, delta)
	assert(voter.Staked.Sign() >= 0, "stake for voting cannot be negative: %v", voterName)
	s.setVoter(voter)
	if len(voter.Producers) > 0 || !voter.Proxy.IsEmpty() {
		return s.updateVotes(voterName, voter.Proxy, voter.Producers, false)
	}
	return nil
}

func (s *System) refund() error {
	attach := attachments.ParseOwnerAttachment(s.action())
	if attach == nil {
		return parseError("refund")
	}
	if err := s.requireAuth(attach.Owner); err != nil {
		return err
	}
	req := s.getRefund(attach.Owner)
	if req == nil {
		return NewContractError("refund request not found", false)
	}
	if req.RequestTime+s.conf.RefundDelaySec > s.now() {
		return NewContractError("refund is not available yet", true)
	}
	amount := new(big.Int).Add(req.NetAmount, req.CpuAmount)
	if err := s.env.Transfer(s.ctx, StakeAccount, attach.Owner, amount, "unstake"); err != nil {
		return err
	}
	s.refunds.Remove(attach.Owner.Bytes())
	return nil
}
