package blockchain

import (
	"math/big"
	"sort"
	"sync"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/config"
	"github.com/aggregion/agrio.contracts/core/state"
	"github.com/aggregion/agrio.contracts/database"
	"github.com/aggregion/agrio.contracts/deferredtx"
	"github.com/aggregion/agrio.contracts/log"
	"github.com/aggregion/agrio.contracts/vm"
	"github.com/aggregion/agrio.contracts/vm/costs"
	"github.com/aggregion/agrio.contracts/vm/embedded"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	dbm "github.com/tendermint/tm-db"
)

var (
	BlockInsertionErr   = errors.New("can't insert block")
	TimestampIsInvalid  = errors.New("timestamp is invalid")
	ChainNotInitialized = errors.New("chain is not initialized")
)

var (
	appliedActions   = metrics.GetOrRegisterCounter("chain/actions/applied", nil)
	failedActions    = metrics.GetOrRegisterCounter("chain/actions/failed", nil)
	producedBlocks   = metrics.GetOrRegisterCounter("chain/blocks", nil)
	executedDeferred = metrics.GetOrRegisterCounter("chain/deferred/executed", nil)
	scheduleVersion  = metrics.GetOrRegisterGauge("chain/schedule/version", nil)
)

// Chain produces blocks on top of the local state: every block runs onblock, then the
// due deferred transactions, then the given actions, each of them atomically.
type Chain struct {
	repo     *database.Repo
	state    *state.StateDB
	deferred *deferredtx.Job
	config   *config.Config
	Head     *types.Header
	log      log.Logger
	lock     sync.Mutex
}

func NewChain(config *config.Config, db dbm.DB) (*Chain, error) {
	s, err := state.NewLazy(db)
	if err != nil {
		return nil, err
	}
	return &Chain{
		repo:     database.NewRepo(db),
		state:    s,
		deferred: deferredtx.NewJob(s),
		config:   config,
		log:      log.New("component", "chain"),
	}, nil
}

// InitializeChain loads the head block and its state, or generates the genesis block
// on an empty database.
func (chain *Chain) InitializeChain() error {
	head := chain.repo.ReadHead()
	if head != nil {
		if err := chain.state.Load(head.Height); err != nil {
			return errors.Wrapf(err, "failed to load state at height %v", head.Height)
		}
		chain.Head = head
	} else if _, err := chain.GenerateGenesis(); err != nil {
		return err
	}
	log.Info("Chain initialized", "block", chain.Head.Hash().Hex(), "height", chain.Head.Height)
	return nil
}

func (chain *Chain) genesisActions() []*types.Action {
	genesis := chain.config.Genesis
	system, tokenAccount := genesis.SystemAccount, genesis.TokenAccount
	asset := func(amount *big.Int) attachments.Asset {
		return attachments.NewAsset(amount, genesis.Symbol)
	}
	action := func(contract common.Name, name string, data []byte, auth common.Name) *types.Action {
		return types.NewAction(contract, common.StringToName(name), data, auth)
	}

	actions := []*types.Action{
		action(tokenAccount, "create", attachments.CreateCreateTokenAttachment(system, asset(genesis.MaxSupply), genesis.Precision), tokenAccount),
		action(tokenAccount, "issue", attachments.CreateIssueAttachment(system, asset(genesis.InitialIssue), "genesis"), system),
	}
	for _, name := range chain.allocNames() {
		if balance := genesis.Alloc[name].Balance; balance != nil && balance.Sign() > 0 {
			actions = append(actions, action(tokenAccount, "transfer",
				attachments.CreateTransferAttachment(system, name, asset(balance), "genesis"), system))
		}
	}
	return append(actions,
		action(system, "setram", attachments.CreateSetRamAttachment(genesis.MaxRamSize), system),
		action(system, "init", attachments.CreateInitAttachment(0, genesis.Symbol), system),
	)
}

func (chain *Chain) allocNames() []common.Name {
	names := make([]common.Name, 0, len(chain.config.Genesis.Alloc))
	for name := range chain.config.Genesis.Alloc {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return names[i] < names[j]
	})
	return names
}

// GenerateGenesis creates the host accounts, the core token, the genesis allocations
// and the RAM market, and commits them as block 1.
func (chain *Chain) GenerateGenesis() (*types.Block, error) {
	genesis := chain.config.Genesis
	header := &types.Header{
		Height: 1,
		Time:   uint64(genesis.GenesisTime),
	}
	machine := vm.NewVmImpl(chain.state, header, chain.config)
	e := machine.Env()

	accounts := append([]common.Name{genesis.SystemAccount, genesis.TokenAccount}, embedded.ServiceAccounts...)
	accounts = append(accounts, chain.allocNames()...)
	for _, name := range accounts {
		if err := e.CreateAccount(nil, name); err != nil {
			return nil, errors.Wrapf(err, "genesis account %v", name)
		}
	}
	e.SetPrivileged(genesis.SystemAccount, true)
	for name, alloc := range genesis.Alloc {
		if alloc.Privileged {
			e.SetPrivileged(name, true)
		}
	}
	e.SetBlockchainParameters(types.DefaultChainParams())
	e.Commit()

	actions := chain.genesisActions()
	for _, action := range actions {
		if receipt := machine.Run(action); !receipt.Success {
			return nil, errors.Wrapf(receipt.Error, "genesis action %v", action)
		}
	}

	root, _, err := chain.state.Commit()
	if err != nil {
		return nil, errors.Wrap(BlockInsertionErr, err.Error())
	}
	header.Root = root
	header.ActionHash = types.DeriveSha(types.Actions(actions))
	block := &types.Block{Header: header, Body: &types.Body{Actions: actions}}
	chain.insertHeader(header)
	log.Info("Genesis generated", "root", root.Hex(), "time", common.TimestampToTime(int64(header.Time)))
	return block, nil
}

func validateBlockTimestamp(timestamp uint64, prevBlock *types.Header) error {
	if timestamp <= prevBlock.Time {
		return errors.Wrapf(TimestampIsInvalid, "block time %v is not after %v", timestamp, prevBlock.Time)
	}
	return nil
}

// GenerateBlock applies a new block produced by producer at timestamp and returns it
// with the receipts of the deferred transactions and the given actions. Actions past
// the block usage limit are left out of the block.
func (chain *Chain) GenerateBlock(producer common.Name, timestamp uint64, actions []*types.Action) (*types.Block, []*types.ActionReceipt, error) {
	chain.lock.Lock()
	defer chain.lock.Unlock()

	prevBlock := chain.Head
	if prevBlock == nil {
		return nil, nil, ChainNotInitialized
	}
	if err := validateBlockTimestamp(timestamp, prevBlock); err != nil {
		return nil, nil, err
	}
	header := &types.Header{
		ParentHash:      prevBlock.Hash(),
		Height:          prevBlock.Height + 1,
		Time:            timestamp,
		Producer:        producer,
		ScheduleVersion: prevBlock.ScheduleVersion,
	}
	machine := vm.NewVmImpl(chain.state, header, chain.config)

	system := chain.config.Genesis.SystemAccount
	onblock := types.NewAction(system, common.StringToName("onblock"),
		attachments.CreateOnBlockAttachment(producer, timestamp, prevBlock.ScheduleVersion), system)
	if receipt := machine.Run(onblock); !receipt.Success {
		chain.log.Warn("onblock failed", "height", header.Height, "err", receipt.Error)
	}

	var receipts []*types.ActionReceipt
	for _, tx := range chain.deferred.Due(header.Height, timestamp) {
		receipt := machine.RunDeferred(tx)
		if receipt.Success {
			executedDeferred.Inc(1)
		} else {
			chain.deferred.HandleFailure(tx, header.Height, receipt.Error)
		}
		receipts = append(receipts, receipt)
	}
	included := make([]*types.Action, 0, len(actions))
	var usage int
	for _, action := range actions {
		if usage >= costs.MaxBlockUsage {
			chain.log.Warn("Block usage limit reached", "height", header.Height, "skipped", len(actions)-len(included))
			break
		}
		receipt := chain.ApplyAction(machine, action)
		usage += receipt.UsedBytes
		included = append(included, action)
		receipts = append(receipts, receipt)
	}

	if err := chain.emitSchedule(header); err != nil {
		chain.state.Reset()
		return nil, nil, err
	}

	root, _, err := chain.state.Commit()
	if err != nil {
		chain.state.Reset()
		return nil, nil, errors.Wrap(BlockInsertionErr, err.Error())
	}
	header.Root = root
	header.ActionHash = types.DeriveSha(types.Actions(included))
	block := &types.Block{Header: header, Body: &types.Body{Actions: included}}
	chain.insertHeader(header)
	producedBlocks.Inc(1)
	chain.log.Debug("Block generated", "height", header.Height, "hash", block.Hash().Hex(), "actions", len(included), "usage", usage)
	return block, receipts, nil
}

// emitSchedule attaches a schedule proposed during the block to its header.
func (chain *Chain) emitSchedule(header *types.Header) error {
	g := chain.state.GetChainGlobal()
	if !g.SchedulePending {
		return nil
	}
	if g.Schedule.Version <= header.ScheduleVersion {
		return errors.Errorf("schedule version %v does not advance %v", g.Schedule.Version, header.ScheduleVersion)
	}
	schedule := types.ProducerSchedule{
		Version:   g.Schedule.Version,
		Producers: append([]types.ProducerKey{}, g.Schedule.Producers...),
	}
	header.NewProducers = &schedule
	header.ScheduleVersion = schedule.Version
	g.SchedulePending = false
	chain.state.SetChainGlobal(g)
	chain.repo.WriteSchedule(&schedule)
	scheduleVersion.Update(int64(schedule.Version))
	chain.log.Info("New producer schedule", "version", schedule.Version, "producers", len(schedule.Producers))
	return nil
}

// ApplyAction runs one action on machine; a failed action leaves no writes behind.
func (chain *Chain) ApplyAction(machine vm.VM, action *types.Action) *types.ActionReceipt {
	receipt := machine.Run(action)
	if receipt.Success {
		appliedActions.Inc(1)
	} else {
		failedActions.Inc(1)
	}
	return receipt
}

// DryRun executes action on top of the head state as if it were included in the next
// block. The chain state is never modified.
func (chain *Chain) DryRun(action *types.Action) (*types.ActionReceipt, error) {
	chain.lock.Lock()
	defer chain.lock.Unlock()
	if chain.Head == nil {
		return nil, ChainNotInitialized
	}
	check, err := chain.state.ForCheck(chain.Head.Height)
	if err != nil {
		return nil, err
	}
	header := &types.Header{
		ParentHash: chain.Head.Hash(),
		Height:     chain.Head.Height + 1,
		Time:       chain.Head.Time + 1,
	}
	return vm.NewVmImpl(check, header, chain.config).Run(action), nil
}

// System returns the system contract over the head state for reading.
func (chain *Chain) System() *embedded.System {
	header := chain.Head
	if header == nil {
		header = &types.Header{}
	}
	return vm.NewVmImpl(chain.state, header, chain.config).System()
}

func (chain *Chain) Balance(name common.Name) *big.Int {
	return vm.NewVmImpl(chain.state, chain.Head, chain.config).Env().Balance(name)
}

func (chain *Chain) State() *state.StateDB {
	return chain.state
}

func (chain *Chain) Schedule() types.ProducerSchedule {
	return chain.state.GetChainGlobal().Schedule
}

func (chain *Chain) Config() *config.Config {
	return chain.config
}

func (chain *Chain) GetBlockHeaderByHeight(height uint64) *types.Header {
	return chain.repo.ReadHeaderByHeight(height)
}

func (chain *Chain) GetSchedule(version uint64) *types.ProducerSchedule {
	return chain.repo.ReadSchedule(version)
}

func (chain *Chain) insertHeader(header *types.Header) {
	chain.repo.WriteBlockHeader(header)
	chain.repo.WriteHead(header)
	chain.repo.WriteCanonicalHash(header.Height, header.Hash())
	chain.Head = header
}
