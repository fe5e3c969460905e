package embedded

import (
	"math/big"
	"testing"

	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/config"
	"github.com/aggregion/agrio.contracts/core/state"
	"github.com/aggregion/agrio.contracts/vm/env"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"
)

var (
	alice = common.StringToName("alice")
	bob   = common.StringToName("bob")
	carol = common.StringToName("carol")
	dave  = common.StringToName("dave")
	prod1 = common.StringToName("producer1")
	prod2 = common.StringToName("producer2")
	prod3 = common.StringToName("producer3")
	proxy = common.StringToName("proxy1")
)

const testSymbol = "AGR"

type contractTester struct {
	t     *testing.T
	state *state.StateDB
	conf  *config.Config

	height    uint64
	timestamp uint64
	producer  common.Name
	env       *env.EnvImp
}

type contractTesterBuilder struct {
	accounts   []common.Name
	balances   map[common.Name]*big.Int
	configure  []func(cfg *config.Config)
	skipMarket bool
}

func createTestContractBuilder() *contractTesterBuilder {
	return &contractTesterBuilder{balances: map[common.Name]*big.Int{}}
}

func (b *contractTesterBuilder) Account(name common.Name, balance int64) *contractTesterBuilder {
	b.accounts = append(b.accounts, name)
	b.balances[name] = big.NewInt(balance)
	return b
}

func (b *contractTesterBuilder) Configure(f func(cfg *config.Config)) *contractTesterBuilder {
	b.configure = append(b.configure, f)
	return b
}

func (b *contractTesterBuilder) SkipMarket() *contractTesterBuilder {
	b.skipMarket = true
	return b
}

func testConfig() *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Genesis.Symbol = testSymbol
	cfg.Genesis.MaxSupply = big.NewInt(1_000_000_000)
	cfg.Genesis.InitialIssue = big.NewInt(600_000_000)
	cfg.Genesis.MaxRamSize = 1024 * 1024 * 1024
	cfg.System.RefundDelaySec = 3 * 24 * 3600
	cfg.System.MinPervoteDailyPay = big.NewInt(0)
	return cfg
}

func (b *contractTesterBuilder) Build(t *testing.T) *contractTester {
	s, err := state.NewLazy(dbm.NewMemDB())
	require.NoError(t, err)
	cfg := testConfig()
	for _, f := range b.configure {
		f(cfg)
	}
	c := &contractTester{
		t:         t,
		state:     s,
		conf:      cfg,
		height:    1,
		timestamp: uint64(cfg.Genesis.GenesisTime),
	}
	system, tokenAccount := cfg.Genesis.SystemAccount, cfg.Genesis.TokenAccount

	e := c.newEnv()
	for _, name := range append([]common.Name{system, tokenAccount}, ServiceAccounts...) {
		require.NoError(t, e.CreateAccount(nil, name))
	}
	for _, name := range b.accounts {
		require.NoError(t, e.CreateAccount(nil, name))
	}
	e.SetPrivileged(system, true)
	e.Commit()

	require.NoError(t, c.Call(tokenAccount, "create", attachments.CreateCreateTokenAttachment(system,
		c.asset(cfg.Genesis.MaxSupply.Int64()), cfg.Genesis.Precision), tokenAccount))
	require.NoError(t, c.Call(tokenAccount, "issue", attachments.CreateIssueAttachment(system,
		c.asset(cfg.Genesis.InitialIssue.Int64()), "genesis"), system))
	for _, name := range b.accounts {
		if balance := b.balances[name]; balance.Sign() > 0 {
			require.NoError(t, c.Call(tokenAccount, "transfer", attachments.CreateTransferAttachment(system, name,
				attachments.NewAsset(balance, testSymbol), "genesis"), system))
		}
	}
	require.NoError(t, c.SystemCall("setram", attachments.CreateSetRamAttachment(cfg.Genesis.MaxRamSize), system))
	if !b.skipMarket {
		require.NoError(t, c.SystemCall("init", attachments.CreateInitAttachment(0, testSymbol), system))
	}
	return c
}

func (c *contractTester) asset(amount int64) attachments.Asset {
	return attachments.NewAsset(big.NewInt(amount), testSymbol)
}

func (c *contractTester) system() common.Name {
	return c.conf.Genesis.SystemAccount
}

func (c *contractTester) newEnv() *env.EnvImp {
	header := &types.Header{Height: c.height, Time: c.timestamp, Producer: c.producer}
	return env.NewEnvImp(c.state, header, nil, c.conf.Genesis.TokenAccount)
}

func (c *contractTester) createContract(ctx env.CallContext, e env.Env) Contract {
	switch ctx.Receiver() {
	case c.conf.Genesis.SystemAccount:
		return NewSystemContract(ctx, e, c.conf.System)
	case c.conf.Genesis.TokenAccount:
		return NewTokenContract(ctx, e)
	default:
		return nil
	}
}

// Call runs one action atomically.
func (c *contractTester) Call(contract common.Name, method string, data []byte, auth ...common.Name) error {
	action := types.NewAction(contract, common.StringToName(method), data, auth...)
	ctx := env.NewCallContextImpl(action)
	c.env = c.newEnv()
	err := c.createContract(ctx, c.env).Call(method)
	if err != nil {
		c.env.Reset()
		return err
	}
	c.env.Commit()
	return nil
}

func (c *contractTester) SystemCall(method string, data []byte, auth ...common.Name) error {
	return c.Call(c.system(), method, data, auth...)
}

func (c *contractTester) Commit() {
	_, _, err := c.state.Commit()
	require.NoError(c.t, err)
}

// Read returns the system contract over the committed state.
func (c *contractTester) Read() *System {
	return NewSystemContract(&env.ReadContextImpl{Contract: c.system()}, c.newEnv(), c.conf.System)
}

func (c *contractTester) Balance(name common.Name) *big.Int {
	return c.newEnv().Balance(name)
}

func (c *contractTester) Limits(name common.Name) (ram, net, cpu uint64) {
	return c.newEnv().GetResourceLimits(name)
}

func (c *contractTester) Deferred(sender common.Name, id []byte) *types.Action {
	tx := c.newEnv().Deferred(sender, id)
	if tx == nil {
		return nil
	}
	return tx.Action
}

func (c *contractTester) setTimestamp(timestamp uint64) {
	c.timestamp = timestamp
}

func (c *contractTester) advance(blocks uint64, seconds uint64) {
	c.height += blocks
	c.timestamp += seconds
}

// action helpers

func (c *contractTester) delegate(from, receiver common.Name, net, cpu int64) error {
	return c.SystemCall("delegatebw", attachments.CreateDelegateBwAttachment(from, receiver, c.asset(net), c.asset(cpu), false), from)
}

func (c *contractTester) undelegate(from, receiver common.Name, net, cpu int64) error {
	return c.SystemCall("undelegatebw", attachments.CreateUndelegateBwAttachment(from, receiver, c.asset(net), c.asset(cpu)), from)
}

func (c *contractTester) vote(voter common.Name, producers ...common.Name) error {
	return c.SystemCall("voteproducer", attachments.CreateVoteProducerAttachment(voter, 0, producers...), voter)
}

func (c *contractTester) voteProxy(voter, proxy common.Name) error {
	return c.SystemCall("voteproducer", attachments.CreateVoteProducerAttachment(voter, proxy), voter)
}

func (c *contractTester) register(producer common.Name) error {
	return c.SystemCall("regproducer", attachments.CreateRegProducerAttachment(producer, "PUB_"+producer.String(), "https://"+producer.String(), 0), producer)
}

func (c *contractTester) onblock(producer common.Name) error {
	c.producer = producer
	return c.SystemCall("onblock", attachments.CreateOnBlockAttachment(producer, c.timestamp, 0), c.system())
}

func (c *contractTester) requireVoteTotals() {
	sys := c.Read()
	var sum float64
	for _, p := range sys.RankedProducers(0) {
		sum += float64(p.TotalVotes)
	}
	require.InDelta(c.t, float64(sys.GetGlobal().TotalProducerVoteWeight), sum, 1e-3)
}

func requireContractError(t *testing.T, err error, msg string) {
	require.Error(t, err)
	require.IsType(t, &ContractError{}, err)
	require.Equal(t, msg, err.Error())
}
