package token

import (
	"math/big"

	"github.com/aggregion/agrio.contracts/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var (
	statKey       = []byte("s")
	balancePrefix = []byte("a")

	ErrNotCreated       = errors.New("token with symbol does not exist")
	ErrAlreadyCreated   = errors.New("token with symbol already exists")
	ErrNonPositive      = errors.New("must transfer positive quantity")
	ErrOverdrawn        = errors.New("overdrawn balance")
	ErrSupplyExceeded   = errors.New("quantity exceeds available supply")
	ErrSelfTransfer     = errors.New("cannot transfer to self")
	ErrInvalidMaxSupply = errors.New("max-supply must be positive")
)

// Store is the keyed storage the ledger keeps its rows in.
type Store interface {
	Get(key []byte) []byte
	Set(key []byte, value []byte)
	Remove(key []byte)
}

type Stat struct {
	Symbol    string
	Precision uint8
	Issuer    common.Name
	Supply    *big.Int
	MaxSupply *big.Int
}

// Ledger is a single-symbol fungible token ledger.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func balanceKey(owner common.Name) []byte {
	return append(append([]byte{}, balancePrefix...), owner.Bytes()...)
}

func (l *Ledger) Stat() *Stat {
	data := l.store.Get(statKey)
	if data == nil {
		return nil
	}
	stat := new(Stat)
	if err := rlp.DecodeBytes(data, stat); err != nil {
		panic(errors.Wrap(err, "corrupted token stat"))
	}
	return stat
}

func (l *Ledger) setStat(stat *Stat) {
	data, err := rlp.EncodeToBytes(stat)
	if err != nil {
		panic(err)
	}
	l.store.Set(statKey, data)
}

func (l *Ledger) Create(issuer common.Name, maxSupply *big.Int, symbol string, precision uint8) error {
	if maxSupply == nil || maxSupply.Sign() <= 0 {
		return ErrInvalidMaxSupply
	}
	if l.Stat() != nil {
		return ErrAlreadyCreated
	}
	l.setStat(&Stat{
		Symbol:    symbol,
		Precision: precision,
		Issuer:    issuer,
		Supply:    new(big.Int),
		MaxSupply: new(big.Int).Set(maxSupply),
	})
	return nil
}

func (l *Ledger) Balance(owner common.Name) *big.Int {
	data := l.store.Get(balanceKey(owner))
	return new(big.Int).SetBytes(data)
}

func (l *Ledger) setBalance(owner common.Name, balance *big.Int) {
	if balance.Sign() == 0 {
		l.store.Remove(balanceKey(owner))
		return
	}
	l.store.Set(balanceKey(owner), balance.Bytes())
}

func (l *Ledger) Supply() *big.Int {
	if stat := l.Stat(); stat != nil {
		return new(big.Int).Set(stat.Supply)
	}
	return new(big.Int)
}

func (l *Ledger) MaxSupply() *big.Int {
	if stat := l.Stat(); stat != nil {
		return new(big.Int).Set(stat.MaxSupply)
	}
	return new(big.Int)
}

func (l *Ledger) Symbol() string {
	if stat := l.Stat(); stat != nil {
		return stat.Symbol
	}
	return ""
}

// Issue mints amount and credits it to the receiver.
func (l *Ledger) Issue(to common.Name, amount *big.Int) error {
	stat := l.Stat()
	if stat == nil {
		return ErrNotCreated
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositive
	}
	supply := new(big.Int).Add(stat.Supply, amount)
	if supply.Cmp(stat.MaxSupply) > 0 {
		return ErrSupplyExceeded
	}
	stat.Supply = supply
	l.setStat(stat)
	l.setBalance(to, new(big.Int).Add(l.Balance(to), amount))
	return nil
}

// Retire burns amount from the owner's balance.
func (l *Ledger) Retire(from common.Name, amount *big.Int) error {
	stat := l.Stat()
	if stat == nil {
		return ErrNotCreated
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositive
	}
	balance := l.Balance(from)
	if balance.Cmp(amount) < 0 {
		return ErrOverdrawn
	}
	stat.Supply = new(big.Int).Sub(stat.Supply, amount)
	l.setStat(stat)
	l.setBalance(from, balance.Sub(balance, amount))
	return nil
}

func (l *Ledger) Transfer(from, to common.Name, amount *big.Int) error {
	if from == to {
		return ErrSelfTransfer
	}
	if l.Stat() == nil {
		return ErrNotCreated
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrNonPositive
	}
	balance := l.Balance(from)
	if balance.Cmp(amount) < 0 {
		return ErrOverdrawn
	}
	l.setBalance(from, balance.Sub(balance, amount))
	l.setBalance(to, new(big.Int).Add(l.Balance(to), amount))
	return nil
}
