package state

import (
	"sync"

	"github.com/aggregion/agrio.contracts/common"
	"github.com/aggregion/agrio.contracts/common/maputil"
	"github.com/aggregion/agrio.contracts/database"
	"github.com/aggregion/agrio.contracts/log"
	"github.com/pkg/errors"
	dbm "github.com/tendermint/tm-db"
)

const (
	MaxSavedStatesCount = 100
)

// StateDB is the versioned chain state: host accounts, chain globals, contract stores
// and deferred transactions, kept in one iavl tree.
type StateDB struct {
	db   dbm.DB
	tree Tree

	// writes not yet applied to the tree
	cache map[string]*maputil.Value

	log  log.Logger
	lock sync.Mutex
}

func NewLazy(db dbm.DB) (*StateDB, error) {
	prefix, err := StateDbKeys.LoadDbPrefix(db)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load db prefix")
	}
	pdb := dbm.NewPrefixDB(db, prefix)
	return newStateDB(pdb, NewMutableTree(pdb)), nil
}

func newStateDB(db dbm.DB, tree Tree) *StateDB {
	return &StateDB{
		db:    db,
		tree:  tree,
		cache: make(map[string]*maputil.Value),
		log:   log.New("component", "state"),
	}
}

// ForCheck returns a copy of the state at height whose writes never reach the underlying db.
func (s *StateDB) ForCheck(height uint64) (*StateDB, error) {
	db := database.NewBackedMemDb(s.db)
	tree := NewMutableTree(db)
	if _, err := tree.LoadVersion(int64(height)); err != nil {
		return nil, err
	}
	return newStateDB(db, tree), nil
}

func (s *StateDB) Load(height uint64) error {
	_, err := s.tree.LoadVersion(int64(height))
	return err
}

func (s *StateDB) Version() int64 {
	return s.tree.Version()
}

func (s *StateDB) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache = make(map[string]*maputil.Value)
}

// Precommit applies cached writes to the working tree in key order.
func (s *StateDB) Precommit() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, k := range maputil.SortedKeys(s.cache) {
		v := s.cache[k]
		if v.Removed {
			s.tree.Remove([]byte(k))
		} else {
			s.tree.Set([]byte(k), v.Value)
		}
	}
	s.cache = make(map[string]*maputil.Value)
}

// Commit writes the state as a new tree version.
func (s *StateDB) Commit() (root common.Hash, version int64, err error) {
	s.Precommit()
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return common.Hash{}, 0, err
	}
	if version > MaxSavedStatesCount {
		versions := s.tree.AvailableVersions()
		for i := 0; i < len(versions)-MaxSavedStatesCount; i++ {
			if s.tree.ExistVersion(int64(versions[i])) {
				if err := s.tree.DeleteVersion(int64(versions[i])); err != nil {
					s.log.Warn("Cannot delete state version", "version", versions[i], "err", err)
				}
			}
		}
	}
	return common.BytesToHash(hash), version, nil
}

// Reset drops everything written since the last commit.
func (s *StateDB) Reset() {
	s.Clear()
	s.tree.Rollback()
}

// Root returns the hash of the working tree; cached writes are not included until Precommit.
func (s *StateDB) Root() common.Hash {
	return s.tree.WorkingHash()
}

func (s *StateDB) get(key []byte) []byte {
	s.lock.Lock()
	v, ok := s.cache[string(key)]
	s.lock.Unlock()
	if ok {
		if v.Removed {
			return nil
		}
		return v.Value
	}
	_, value := s.tree.Get(key)
	return value
}

func (s *StateDB) set(key, value []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache[string(key)] = &maputil.Value{Value: value}
}

func (s *StateDB) remove(key []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.cache[string(key)] = &maputil.Value{Removed: true}
}

// iterate walks [start, end) in key order; a nil end means the end of the prefix space.
func (s *StateDB) iterate(prefix, start, end []byte, f func(key []byte, value []byte) bool) {
	if end == nil {
		end = common.PrefixEnd(prefix)
	}
	s.lock.Lock()
	overlay := make(map[string]*maputil.Value, len(s.cache))
	for k, v := range s.cache {
		overlay[k] = v
	}
	s.lock.Unlock()

	immutable := s.tree.GetImmutable()
	maputil.MergeIterate(overlay, start, end, func(fn func(key, value []byte) bool) bool {
		return immutable.IterateRange(start, end, true, fn)
	}, func(key, value []byte) bool {
		return f(key[len(prefix):], value)
	})
}

func (s *StateDB) GetAccount(name common.Name) *Account {
	data := s.get(StateDbKeys.AccountKey(name))
	if data == nil {
		return nil
	}
	account := new(Account)
	if err := account.FromBytes(data); err != nil {
		s.log.Error("Cannot decode account", "name", name, "err", err)
		return nil
	}
	return account
}

func (s *StateDB) AccountExists(name common.Name) bool {
	return s.get(StateDbKeys.AccountKey(name)) != nil
}

func (s *StateDB) SetAccount(account *Account) {
	data, err := account.ToBytes()
	if err != nil {
		panic(err)
	}
	s.set(StateDbKeys.AccountKey(account.Name), data)
}

func (s *StateDB) IterateAccounts(f func(account *Account) bool) {
	s.iterate(accountPrefix, accountPrefix, nil, func(key []byte, value []byte) bool {
		account := new(Account)
		if err := account.FromBytes(value); err != nil {
			s.log.Error("Cannot decode account", "key", key, "err", err)
			return false
		}
		return f(account)
	})
}

// GetChainGlobal never returns nil.
func (s *StateDB) GetChainGlobal() *ChainGlobal {
	g := new(ChainGlobal)
	data := s.get(StateDbKeys.GlobalKey())
	if data == nil {
		return g
	}
	if err := g.FromBytes(data); err != nil {
		s.log.Error("Cannot decode chain global", "err", err)
	}
	return g
}

func (s *StateDB) SetChainGlobal(g *ChainGlobal) {
	data, err := g.ToBytes()
	if err != nil {
		panic(err)
	}
	s.set(StateDbKeys.GlobalKey(), data)
}

func (s *StateDB) GetContractValue(contract common.Name, key []byte) []byte {
	return s.get(StateDbKeys.ContractStoreKey(contract, key))
}

func (s *StateDB) SetContractValue(contract common.Name, key []byte, value []byte) {
	s.set(StateDbKeys.ContractStoreKey(contract, key), value)
}

func (s *StateDB) RemoveContractValue(contract common.Name, key []byte) {
	s.remove(StateDbKeys.ContractStoreKey(contract, key))
}

// IterateContractStore walks the contract keys within [minKey, maxKey) in ascending order.
// A nil maxKey means no upper bound.
func (s *StateDB) IterateContractStore(contract common.Name, minKey []byte, maxKey []byte, f func(key []byte, value []byte) bool) {
	prefix := StateDbKeys.ContractStorePrefix(contract)
	var end []byte
	if maxKey != nil {
		end = StateDbKeys.ContractStoreKey(contract, maxKey)
	}
	s.iterate(prefix, StateDbKeys.ContractStoreKey(contract, minKey), end, f)
}

func (s *StateDB) GetDeferred(key []byte) []byte {
	return s.get(StateDbKeys.DeferredKey(key))
}

func (s *StateDB) SetDeferred(key []byte, value []byte) {
	s.set(StateDbKeys.DeferredKey(key), value)
}

func (s *StateDB) RemoveDeferred(key []byte) {
	s.remove(StateDbKeys.DeferredKey(key))
}

func (s *StateDB) IterateDeferred(f func(key []byte, value []byte) bool) {
	s.iterate(deferredPrefix, deferredPrefix, nil, f)
}
