package env

import (
	"math/big"

	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/common/maputil"
	"github.com/aggregion/agrio.contracts/core/state"
	"github.com/aggregion/agrio.contracts/core/token"
	"github.com/aggregion/agrio.contracts/crypto"
	"github.com/aggregion/agrio.contracts/deferredtx"
	"github.com/pkg/errors"
)

const (
	maxMemoLength = 256
	// Unlimited is the resource limit value meaning "no limit"
	Unlimited = ^uint64(0)
)

var (
	ErrMissingAuthority = errors.New("missing required authority")
	ErrAccountExists    = errors.New("account already exists")
	ErrUnknownAccount   = errors.New("account does not exist")
	ErrMemoTooLong      = errors.New("memo has more than 256 bytes")
	ErrNotIssuer        = errors.New("only the token issuer may issue")
)

// Env is the set of host services available to a contract.
type Env interface {
	BlockNumber() uint64
	BlockTimeStamp() int64
	BlockProducer() common.Name

	SetValue(ctx CallContext, key []byte, value []byte)
	GetValue(ctx CallContext, key []byte) []byte
	RemoveValue(ctx CallContext, key []byte)
	// Iterate walks [minKey, maxKey) in ascending key order; a nil maxKey means no upper bound.
	Iterate(ctx CallContext, minKey []byte, maxKey []byte, f func(key []byte, value []byte) bool)
	ReadContractData(contract common.Name, key []byte) []byte

	RequireAuth(ctx CallContext, account common.Name) error
	IsAccount(name common.Name) bool
	CreateAccount(ctx CallContext, name common.Name) error
	SetPrivileged(name common.Name, privileged bool)
	IsPrivileged(name common.Name) bool
	GetResourceLimits(name common.Name) (ram, net, cpu uint64)
	SetResourceLimits(name common.Name, ram, net, cpu uint64)

	Transfer(ctx CallContext, from, to common.Name, amount *big.Int, memo string) error
	Issue(ctx CallContext, to common.Name, amount *big.Int, memo string) error
	Supply() *big.Int
	MaxSupply() *big.Int
	Balance(name common.Name) *big.Int
	CoreSymbol() string

	Hash(data []byte) common.Hash

	// ScheduleDeferred replaces any deferred transaction with the same (sender, id).
	ScheduleDeferred(ctx CallContext, sender common.Name, id []byte, delaySec uint64, action *types.Action)
	CancelDeferred(ctx CallContext, sender common.Name, id []byte) bool

	// SetProposedProducers returns -1 if producers equal the current schedule, otherwise
	// the version of the new schedule.
	SetProposedProducers(producers []types.ProducerKey) int64
	SetBlockchainParameters(params types.ChainParams)
	BlockchainParameters() types.ChainParams
}

type EnvImp struct {
	state        *state.StateDB
	block        *types.Header
	usage        *UsageCounter
	tokenAccount common.Name

	contractStoreCache map[common.Name]map[string]*maputil.Value
	accountsCache      map[common.Name]*state.Account
	deferredCache      map[string]*maputil.Value
	chainGlobal        *state.ChainGlobal
}

func NewEnvImp(s *state.StateDB, block *types.Header, usage *UsageCounter, tokenAccount common.Name) *EnvImp {
	if usage == nil {
		usage = new(UsageCounter)
		usage.Reset(-1)
	}
	return &EnvImp{state: s, block: block, usage: usage, tokenAccount: tokenAccount,
		contractStoreCache: map[common.Name]map[string]*maputil.Value{},
		accountsCache:      map[common.Name]*state.Account{},
		deferredCache:      map[string]*maputil.Value{},
	}
}

func (e *EnvImp) BlockNumber() uint64 {
	return e.block.Height
}

func (e *EnvImp) BlockTimeStamp() int64 {
	return int64(e.block.Time)
}

func (e *EnvImp) BlockProducer() common.Name {
	return e.block.Producer
}

func (e *EnvImp) contractCache(contract common.Name) map[string]*maputil.Value {
	cache, ok := e.contractStoreCache[contract]
	if !ok {
		cache = make(map[string]*maputil.Value)
		e.contractStoreCache[contract] = cache
	}
	return cache
}

func (e *EnvImp) setContractValue(contract common.Name, key []byte, value []byte) {
	e.contractCache(contract)[string(key)] = &maputil.Value{Value: value}
	e.usage.AddWrittenBytes(len(key) + len(value))
}

func (e *EnvImp) removeContractValue(contract common.Name, key []byte) {
	e.contractCache(contract)[string(key)] = &maputil.Value{Removed: true}
}

func (e *EnvImp) SetValue(ctx CallContext, key []byte, value []byte) {
	e.setContractValue(ctx.Receiver(), key, value)
}

func (e *EnvImp) GetValue(ctx CallContext, key []byte) []byte {
	return e.ReadContractData(ctx.Receiver(), key)
}

func (e *EnvImp) RemoveValue(ctx CallContext, key []byte) {
	e.removeContractValue(ctx.Receiver(), key)
}

func (e *EnvImp) ReadContractData(contract common.Name, key []byte) []byte {
	if cache, ok := e.contractStoreCache[contract]; ok {
		if value, ok := cache[string(key)]; ok {
			if value.Removed {
				return nil
			}
			e.usage.AddReadBytes(len(value.Value))
			return value.Value
		}
	}
	value := e.state.GetContractValue(contract, key)
	e.usage.AddReadBytes(len(value))
	return value
}

func (e *EnvImp) Iterate(ctx CallContext, minKey []byte, maxKey []byte, f func(key []byte, value []byte) (stopped bool)) {
	contract := ctx.Receiver()
	maputil.MergeIterate(e.contractStoreCache[contract], minKey, maxKey, func(fn func(key, value []byte) bool) bool {
		stopped := false
		e.state.IterateContractStore(contract, minKey, maxKey, func(key []byte, value []byte) bool {
			e.usage.AddReadBytes(len(value))
			stopped = fn(key, value)
			return stopped
		})
		return stopped
	}, f)
}

func (e *EnvImp) RequireAuth(ctx CallContext, account common.Name) error {
	for _, actor := range ctx.Authorization() {
		if actor == account {
			return nil
		}
	}
	return errors.Wrapf(ErrMissingAuthority, "%v", account)
}

func (e *EnvImp) getAccount(name common.Name) *state.Account {
	if account, ok := e.accountsCache[name]; ok {
		return account
	}
	return e.state.GetAccount(name)
}

func (e *EnvImp) updateAccount(name common.Name, f func(account *state.Account)) {
	account := e.getAccount(name)
	if account == nil {
		panic(errors.Wrapf(ErrUnknownAccount, "%v", name))
	}
	updated := *account
	f(&updated)
	e.accountsCache[name] = &updated
}

func (e *EnvImp) IsAccount(name common.Name) bool {
	return e.getAccount(name) != nil
}

func (e *EnvImp) CreateAccount(ctx CallContext, name common.Name) error {
	if e.IsAccount(name) {
		return errors.Wrapf(ErrAccountExists, "%v", name)
	}
	e.accountsCache[name] = &state.Account{
		Name:      name,
		Created:   e.BlockNumber(),
		RamBytes:  0,
		NetWeight: 0,
		CpuWeight: 0,
	}
	return nil
}

func (e *EnvImp) SetPrivileged(name common.Name, privileged bool) {
	e.updateAccount(name, func(account *state.Account) {
		account.Privileged = privileged
	})
}

func (e *EnvImp) IsPrivileged(name common.Name) bool {
	account := e.getAccount(name)
	return account != nil && account.Privileged
}

func (e *EnvImp) GetResourceLimits(name common.Name) (ram, net, cpu uint64) {
	account := e.getAccount(name)
	if account == nil {
		return 0, 0, 0
	}
	return account.RamBytes, account.NetWeight, account.CpuWeight
}

func (e *EnvImp) SetResourceLimits(name common.Name, ram, net, cpu uint64) {
	e.updateAccount(name, func(account *state.Account) {
		account.RamBytes = ram
		account.NetWeight = net
		account.CpuWeight = cpu
	})
}

// contractStore exposes one contract's cached storage as a token.Store.
type contractStore struct {
	env      *EnvImp
	contract common.Name
}

func (s *contractStore) Get(key []byte) []byte {
	return s.env.ReadContractData(s.contract, key)
}

func (s *contractStore) Set(key []byte, value []byte) {
	s.env.setContractValue(s.contract, key, value)
}

func (s *contractStore) Remove(key []byte) {
	s.env.removeContractValue(s.contract, key)
}

func (e *EnvImp) ledger() *token.Ledger {
	return token.NewLedger(&contractStore{env: e, contract: e.tokenAccount})
}

// Transfer moves tokens from an account that authorized the action, or from any
// account when the calling contract is privileged.
func (e *EnvImp) Transfer(ctx CallContext, from, to common.Name, amount *big.Int, memo string) error {
	if len(memo) > maxMemoLength {
		return ErrMemoTooLong
	}
	if err := e.RequireAuth(ctx, from); err != nil && !e.IsPrivileged(ctx.Receiver()) {
		return err
	}
	if !e.IsAccount(to) {
		return errors.Wrapf(ErrUnknownAccount, "%v", to)
	}
	return e.ledger().Transfer(from, to, amount)
}

func (e *EnvImp) Issue(ctx CallContext, to common.Name, amount *big.Int, memo string) error {
	if len(memo) > maxMemoLength {
		return ErrMemoTooLong
	}
	stat := e.ledger().Stat()
	if stat == nil {
		return token.ErrNotCreated
	}
	if stat.Issuer != ctx.Receiver() {
		if err := e.RequireAuth(ctx, stat.Issuer); err != nil {
			return ErrNotIssuer
		}
	}
	if !e.IsAccount(to) {
		return errors.Wrapf(ErrUnknownAccount, "%v", to)
	}
	return e.ledger().Issue(to, amount)
}

func (e *EnvImp) Supply() *big.Int {
	return e.ledger().Supply()
}

func (e *EnvImp) MaxSupply() *big.Int {
	return e.ledger().MaxSupply()
}

func (e *EnvImp) Balance(name common.Name) *big.Int {
	return e.ledger().Balance(name)
}

func (e *EnvImp) CoreSymbol() string {
	return e.ledger().Symbol()
}

func (e *EnvImp) Hash(data []byte) common.Hash {
	return crypto.Hash(data)
}

func (e *EnvImp) ScheduleDeferred(ctx CallContext, sender common.Name, id []byte, delaySec uint64, action *types.Action) {
	tx := &deferredtx.DeferredTx{
		Sender:         sender,
		ID:             id,
		Action:         action,
		DueTime:        e.block.Time + delaySec,
		BroadcastBlock: e.BlockNumber() + 1,
	}
	data, err := tx.ToBytes()
	if err != nil {
		panic(err)
	}
	e.deferredCache[string(tx.Key())] = &maputil.Value{Value: data}
	e.usage.AddWrittenBytes(len(data))
}

func (e *EnvImp) getDeferred(key []byte) []byte {
	if v, ok := e.deferredCache[string(key)]; ok {
		if v.Removed {
			return nil
		}
		return v.Value
	}
	return e.state.GetDeferred(key)
}

func (e *EnvImp) CancelDeferred(ctx CallContext, sender common.Name, id []byte) bool {
	key := deferredtx.Key(sender, id)
	if e.getDeferred(key) == nil {
		return false
	}
	e.deferredCache[string(key)] = &maputil.Value{Removed: true}
	return true
}

// Deferred returns the pending deferred transaction with the given (sender, id), if any.
func (e *EnvImp) Deferred(sender common.Name, id []byte) *deferredtx.DeferredTx {
	data := e.getDeferred(deferredtx.Key(sender, id))
	if data == nil {
		return nil
	}
	tx := new(deferredtx.DeferredTx)
	if err := tx.FromBytes(data); err != nil {
		return nil
	}
	return tx
}

func (e *EnvImp) getChainGlobal() *state.ChainGlobal {
	if e.chainGlobal == nil {
		e.chainGlobal = e.state.GetChainGlobal()
	}
	return e.chainGlobal
}

func (e *EnvImp) SetProposedProducers(producers []types.ProducerKey) int64 {
	g := e.getChainGlobal()
	if g.Schedule.Equal(producers) {
		return -1
	}
	g.Schedule = types.ProducerSchedule{
		Version:   g.Schedule.Version + 1,
		Producers: append([]types.ProducerKey{}, producers...),
	}
	g.SchedulePending = true
	return int64(g.Schedule.Version)
}

func (e *EnvImp) SetBlockchainParameters(params types.ChainParams) {
	e.getChainGlobal().Params = params
}

func (e *EnvImp) BlockchainParameters() types.ChainParams {
	return e.getChainGlobal().Params
}

func (e *EnvImp) Commit() {
	for contract, cache := range e.contractStoreCache {
		for k, v := range cache {
			if v.Removed {
				e.state.RemoveContractValue(contract, []byte(k))
			} else {
				e.state.SetContractValue(contract, []byte(k), v.Value)
			}
		}
	}
	for _, account := range e.accountsCache {
		e.state.SetAccount(account)
	}
	for k, v := range e.deferredCache {
		if v.Removed {
			e.state.RemoveDeferred([]byte(k))
		} else {
			e.state.SetDeferred([]byte(k), v.Value)
		}
	}
	if e.chainGlobal != nil {
		e.state.SetChainGlobal(e.chainGlobal)
	}
	e.Reset()
}

func (e *EnvImp) Reset() {
	e.contractStoreCache = map[common.Name]map[string]*maputil.Value{}
	e.accountsCache = map[common.Name]*state.Account{}
	e.deferredCache = map[string]*maputil.Value{}
	e.chainGlobal = nil
}

type CallContext interface {
	// Receiver is the contract account whose code runs the action.
	Receiver() common.Name
	Action() *types.Action
	Authorization() []common.Name
}

type CallContextImpl struct {
	action *types.Action
}

func NewCallContextImpl(action *types.Action) *CallContextImpl {
	return &CallContextImpl{action: action}
}

func (c *CallContextImpl) Receiver() common.Name {
	return c.action.Account
}

func (c *CallContextImpl) Action() *types.Action {
	return c.action
}

func (c *CallContextImpl) Authorization() []common.Name {
	return c.action.Authorization
}

// ReadContextImpl is used for read-only queries outside of an action.
type ReadContextImpl struct {
	Contract common.Name
}

func (r *ReadContextImpl) Receiver() common.Name {
	return r.Contract
}

func (r *ReadContextImpl) Action() *types.Action {
	return nil
}

func (r *ReadContextImpl) Authorization() []common.Name {
	return nil
}
