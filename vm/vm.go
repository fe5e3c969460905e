package vm

import (
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/config"
	"github.com/aggregion/agrio.contracts/core/state"
	"github.com/aggregion/agrio.contracts/deferredtx"
	"github.com/aggregion/agrio.contracts/log"
	"github.com/aggregion/agrio.contracts/vm/costs"
	"github.com/aggregion/agrio.contracts/vm/embedded"
	env2 "github.com/aggregion/agrio.contracts/vm/env"
	"github.com/pkg/errors"
)

var (
	UnknownContract = errors.New("unknown contract")
)

type VM interface {
	Run(action *types.Action) *types.ActionReceipt
	RunDeferred(tx *deferredtx.DeferredTx) *types.ActionReceipt
}

// VmImpl applies actions atomically: the writes of an action reach the state only if
// the action succeeds.
type VmImpl struct {
	env   *env2.EnvImp
	usage *env2.UsageCounter
	cfg   *config.Config
	log   log.Logger
}

func NewVmImpl(s *state.StateDB, block *types.Header, cfg *config.Config) *VmImpl {
	usage := new(env2.UsageCounter)
	usage.Reset(-1)
	return &VmImpl{
		env:   env2.NewEnvImp(s, block, usage, cfg.Genesis.TokenAccount),
		usage: usage,
		cfg:   cfg,
		log:   log.New("component", "vm"),
	}
}

func (vm *VmImpl) createContract(ctx env2.CallContext) embedded.Contract {
	switch ctx.Receiver() {
	case vm.cfg.Genesis.SystemAccount:
		return embedded.NewSystemContract(ctx, vm.env, vm.cfg.System)
	case vm.cfg.Genesis.TokenAccount:
		return embedded.NewTokenContract(ctx, vm.env)
	default:
		return nil
	}
}

func (vm *VmImpl) Run(action *types.Action) *types.ActionReceipt {
	return vm.run(action, nil, costs.MaxActionUsage)
}

// RunDeferred executes a due deferred transaction and removes it from the queue if
// the action succeeds.
func (vm *VmImpl) RunDeferred(tx *deferredtx.DeferredTx) *types.ActionReceipt {
	return vm.run(tx.Action, tx, costs.MaxDeferredUsage)
}

func (vm *VmImpl) run(action *types.Action, tx *deferredtx.DeferredTx, limit int) *types.ActionReceipt {
	vm.usage.Reset(limit)
	receipt := &types.ActionReceipt{
		ActionHash: action.Hash(),
		Account:    action.Account,
		Name:       action.Name,
		Deferred:   tx != nil,
	}
	err, fatal := vm.call(action, tx)
	receipt.UsedBytes = vm.usage.UsedBytes
	if err != nil {
		vm.env.Reset()
		receipt.Error = err
		receipt.Fatal = fatal
		if fatal {
			vm.log.Error("Action broke an invariant", "action", action, "err", err)
		} else {
			vm.log.Debug("Action failed", "action", action, "err", err)
		}
		return receipt
	}
	vm.env.Commit()
	receipt.Success = true
	vm.log.Trace("Action applied", "action", action, "used", receipt.UsedBytes)
	return receipt
}

func (vm *VmImpl) call(action *types.Action, tx *deferredtx.DeferredTx) (err error, fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			if usageErr, ok := r.(*env2.UsageExceededError); ok {
				err, fatal = usageErr, false
				return
			}
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "action aborted")
			} else {
				err = errors.Errorf("action aborted: %v", r)
			}
			fatal = true
		}
	}()
	ctx := env2.NewCallContextImpl(action)
	if tx != nil {
		vm.env.CancelDeferred(ctx, tx.Sender, tx.ID)
	}
	contract := vm.createContract(ctx)
	if contract == nil {
		return UnknownContract, false
	}
	return contract.Call(action.Name.String()), false
}

// System returns the system contract bound to a read-only context.
func (vm *VmImpl) System() *embedded.System {
	ctx := &env2.ReadContextImpl{Contract: vm.cfg.Genesis.SystemAccount}
	return embedded.NewSystemContract(ctx, vm.env, vm.cfg.System)
}

func (vm *VmImpl) Env() *env2.EnvImp {
	return vm.env
}
