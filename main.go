package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aggregion/agrio.contracts/blockchain"
	"github.com/aggregion/agrio.contracts/blockchain/attachments"
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/config"
	"github.com/aggregion/agrio.contracts/log"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	dbm "github.com/tendermint/tm-db"
	"gopkg.in/urfave/cli.v1"
)

const dbName = "agriochain"

// scriptBlock is one block of a run script. Time is the offset in seconds from the
// previous block, 1 when omitted.
type scriptBlock struct {
	Producer common.Name     `json:"producer"`
	Time     uint64          `json:"time"`
	Actions  []*scriptAction `json:"actions"`
}

type scriptAction struct {
	Account common.Name            `json:"account"`
	Name    string                 `json:"name"`
	Auth    []common.Name          `json:"auth"`
	Data    map[string]interface{} `json:"data"`
}

type receiptView struct {
	Account  common.Name `json:"account"`
	Name     common.Name `json:"name"`
	Success  bool        `json:"success"`
	Deferred bool        `json:"deferred,omitempty"`
	Error    string      `json:"error,omitempty"`
}

func main() {
	app := cli.NewApp()
	app.Name = "agrio"
	app.Usage = "system contracts chain simulator"
	app.Flags = []cli.Flag{
		config.CfgFileFlag,
		config.DataDirFlag,
		config.VerbosityFlag,
		config.GenesisTimeFlag,
	}
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "apply the blocks of a JSON script on top of the head block",
			ArgsUsage: "<script.json>",
			Action:    runScript,
		},
		{
			Name:   "state",
			Usage:  "print the system globals, top producers and the active schedule",
			Action: printState,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openChain(ctx *cli.Context) (*blockchain.Chain, dbm.DB, error) {
	cfg, err := config.MakeConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Setup(os.Stderr, cfg.Verbosity)

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, nil, err
	}
	db, err := OpenDatabase(filepath.Join(cfg.DataDir, "db"), dbName, 16, 16)
	if err != nil {
		return nil, nil, errors.Wrap(err, "cannot open database")
	}
	chain, err := blockchain.NewChain(cfg, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := chain.InitializeChain(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return chain, db, nil
}

func OpenDatabase(datadir string, name string, cache int, handles int) (dbm.DB, error) {
	return dbm.NewGoLevelDBWithOpts(name, datadir, &opt.Options{
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
}

func readScript(path string) ([]*scriptBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var blocks []*scriptBlock
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, errors.Wrapf(err, "cannot parse script %v", path)
	}
	return blocks, nil
}

func (a *scriptAction) toAction() (*types.Action, error) {
	name, err := common.NewName(a.Name)
	if err != nil {
		return nil, err
	}
	data, err := attachments.FromMap(a.Name, a.Data)
	if err != nil {
		return nil, err
	}
	return types.NewAction(a.Account, name, data, a.Auth...), nil
}

func runScript(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("script path is required")
	}
	blocks, err := readScript(ctx.Args().First())
	if err != nil {
		return err
	}
	chain, db, err := openChain(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	for i, b := range blocks {
		actions := make([]*types.Action, 0, len(b.Actions))
		for _, a := range b.Actions {
			action, err := a.toAction()
			if err != nil {
				return errors.Wrapf(err, "block %v", i)
			}
			actions = append(actions, action)
		}
		offset := b.Time
		if offset == 0 {
			offset = 1
		}
		block, receipts, err := chain.GenerateBlock(b.Producer, chain.Head.Time+offset, actions)
		if err != nil {
			return errors.Wrapf(err, "block %v", i)
		}
		views := make([]receiptView, 0, len(receipts))
		for _, r := range receipts {
			view := receiptView{Account: r.Account, Name: r.Name, Success: r.Success, Deferred: r.Deferred}
			if r.Error != nil {
				view.Error = r.Error.Error()
			}
			views = append(views, view)
		}
		if err := out.Encode(map[string]interface{}{
			"height":   block.Height(),
			"hash":     block.Hash().Hex(),
			"schedule": block.Header.NewProducers,
			"receipts": views,
		}); err != nil {
			return err
		}
	}
	return writeState(out, chain)
}

func printState(ctx *cli.Context) error {
	chain, db, err := openChain(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	return writeState(out, chain)
}

func writeState(out *json.Encoder, chain *blockchain.Chain) error {
	sys := chain.System()
	return out.Encode(map[string]interface{}{
		"height":    chain.Head.Height,
		"global":    sys.GetGlobal(),
		"market":    sys.GetMarket(),
		"producers": sys.RankedProducers(int(chain.Config().System.MaxProducers)),
		"schedule":  chain.Schedule(),
		"namebids":  sys.NameBids(),
	})
}
