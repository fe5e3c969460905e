package embedded

import (
	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/vm/env"
	"github.com/moznion/go-optional"
)

func orUnlimited(value optional.Option[uint64]) uint64 {
	if value.IsNone() {
		return env.Unlimited
	}
	return value.Unwrap()
}

func (s *System) setalimits() error {
	attach := attachments.ParseSetALimitsAttachment(s.action())
	if attach == nil {
		return parseError("setalimits")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	if !s.env.IsAccount(attach.Account) {
		return NewContractError("account does not exist", false)
	}
	if s.getUserResources(attach.Account) != nil {
		return NewContractError("only supports unlimited accounts", false)
	}
	if voter := s.getVoter(attach.Account); voter.hasFlag(ramManaged) || voter.hasFlag(netManaged) || voter.hasFlag(cpuManaged) {
		return NewContractError("cannot use setalimits on an account with managed resources", false)
	}
	s.env.SetResourceLimits(attach.Account, orUnlimited(attach.RamBytes), orUnlimited(attach.NetWeight), orUnlimited(attach.CpuWeight))
	return nil
}

type managedResource struct {
	flag         uint32
	name         string
	allowUnlimit bool
	// stakeLimit returns the limit the resource falls back to when unmanaged
	stakeLimit func(s *System, res *UserResources) uint64
	apply      func(ram, net, cpu *uint64, value uint64)
}

var (
	managedRam = managedResource{
		flag: ramManaged,
		name: "RAM",
		stakeLimit: func(s *System, res *UserResources) uint64 {
			return res.RamBytes + s.conf.RamGiftBytes
		},
		apply: func(ram, _, _ *uint64, value uint64) { *ram = value },
	}
	managedNet = managedResource{
		flag:         netManaged,
		name:         "Network bandwidth",
		allowUnlimit: true,
		stakeLimit: func(s *System, res *UserResources) uint64 {
			return s.stakeToLimit(res.NetWeight, s.conf.NetPerStake)
		},
		apply: func(_, net, _ *uint64, value uint64) { *net = value },
	}
	managedCpu = managedResource{
		flag:         cpuManaged,
		name:         "CPU bandwidth",
		allowUnlimit: true,
		stakeLimit: func(s *System, res *UserResources) uint64 {
			return s.stakeToLimit(res.CpuWeight, s.conf.CpuPerStake)
		},
		apply: func(_, _, cpu *uint64, value uint64) { *cpu = value },
	}
)

func (s *System) setacctram() error {
	return s.setAccountLimit("setacctram", managedRam)
}

func (s *System) setacctnet() error {
	return s.setAccountLimit("setacctnet", managedNet)
}

func (s *System) setacctcpu() error {
	return s.setAccountLimit("setacctcpu", managedCpu)
}

// setAccountLimit pins a resource limit of an account and marks it managed, or with
// no value returns it to the limit derived from the account's resources.
func (s *System) setAccountLimit(method string, resource managedResource) error {
	attach := attachments.ParseSetAcctLimitAttachment(s.action())
	if attach == nil {
		return parseError(method)
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	account := attach.Account
	if !s.env.IsAccount(account) {
		return NewContractError("account does not exist", false)
	}
	ram, net, cpu := s.env.GetResourceLimits(account)
	voter := s.getVoter(account)

	var value uint64
	if attach.Value.IsNone() {
		if !voter.hasFlag(resource.flag) {
			return NewContractError(resource.name+" of account is already unmanaged", false)
		}
		res := s.getUserResources(account)
		if res == nil {
			res = newUserResources(account)
		}
		value = resource.stakeLimit(s, res)
		voter.setFlag(resource.flag, false)
	} else {
		value = attach.Value.Unwrap()
		if value == env.Unlimited && !resource.allowUnlimit {
			return NewContractError("not allowed to set "+resource.name+" limit to unlimited", false)
		}
		if voter == nil {
			voter = newVoterInfo(account)
		}
		voter.setFlag(resource.flag, true)
	}
	s.setVoter(voter)
	resource.apply(&ram, &net, &cpu, value)
	s.env.SetResourceLimits(account, ram, net, cpu)
	return nil
}

func (s *System) setparams() error {
	attach := attachments.ParseSetParamsAttachment(s.action())
	if attach == nil {
		return parseError("setparams")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	if err := attach.Params.Validate(); err != nil {
		return NewContractError(err.Error(), false)
	}
	s.getGlobal().Params = attach.Params
	s.env.SetBlockchainParameters(attach.Params)
	return nil
}

func (s *System) setpriv() error {
	attach := attachments.ParseSetPrivAttachment(s.action())
	if attach == nil {
		return parseError("setpriv")
	}
	if err := s.requireAuth(s.self()); err != nil {
		return err
	}
	if !s.env.IsAccount(attach.Account) {
		return NewContractError("account does not exist", false)
	}
	s.env.SetPrivileged(attach.Account, attach.IsPriv)
	return nil
}

// IsManaged reports whether the given resource limits of account are pinned by setacct*.
func (s *System) IsManaged(account common.Name) (ram, net, cpu bool) {
	voter := s.getVoter(account)
	return voter.hasFlag(ramManaged), voter.hasFlag(netManaged), voter.hasFlag(cpuManaged)
}
