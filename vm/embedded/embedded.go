package embedded

import (
	"github.com/aggregion/agrio.contracts/blockchain/types"
	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/vm/env"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var (
	StakeAccount  = common.StringToName("agrio.stake")
	RamAccount    = common.StringToName("agrio.ram")
	RamFeeAccount = common.StringToName("agrio.ramfee")
	SavingAccount = common.StringToName("agrio.saving")
	BpayAccount   = common.StringToName("agrio.bpay")
	VpayAccount   = common.StringToName("agrio.vpay")
	NamesAccount  = common.StringToName("agrio.names")

	// ServiceAccounts are created at genesis next to the system and token accounts.
	ServiceAccounts = []common.Name{StakeAccount, RamAccount, RamFeeAccount, SavingAccount, BpayAccount, VpayAccount, NamesAccount}

	errUnknownMethod = errors.New("unknown method")
	errBadArguments  = errors.New("malformed action arguments")
)

type Contract interface {
	Call(method string) error
}

// base contract with useful common methods

type BaseContract struct {
	ctx env.CallContext
	env env.Env
}

func (b *BaseContract) action() *types.Action {
	return b.ctx.Action()
}

func (b *BaseContract) self() common.Name {
	return b.ctx.Receiver()
}

func (b *BaseContract) now() uint64 {
	return uint64(b.env.BlockTimeStamp())
}

func (b *BaseContract) requireAuth(account common.Name) error {
	return b.env.RequireAuth(b.ctx, account)
}

func (b *BaseContract) deferredAction(name string, data []byte, authorization ...common.Name) *types.Action {
	return types.NewAction(b.self(), common.StringToName(name), data, authorization...)
}

func (b *BaseContract) SetValue(key string, value []byte) {
	b.env.SetValue(b.ctx, []byte(key), value)
}

func (b *BaseContract) GetValue(key string) []byte {
	return b.env.GetValue(b.ctx, []byte(key))
}

func encodeRow(row interface{}) []byte {
	data, err := rlp.EncodeToBytes(row)
	if err != nil {
		panic(err)
	}
	return data
}

func decodeRow[T any](data []byte) *T {
	if data == nil {
		return nil
	}
	row := new(T)
	if err := rlp.DecodeBytes(data, row); err != nil {
		assert(false, "corrupted row %T: %v", row, err)
	}
	return row
}

func getRow[T any](table *env.Table, pk []byte) *T {
	return decodeRow[T](table.Get(pk))
}

func setRow(table *env.Table, pk []byte, row interface{}) {
	table.Set(pk, encodeRow(row))
}
