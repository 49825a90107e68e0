// Package state implements the World State: a versioned, journaled
// overlay over a Modified Merkle-Patricia Trie mapping addresses to
// accounts, with a content-addressed code store and per-account storage
// sub-tries (§4.3).
package state

import (
	"fmt"
	"sort"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
	"github.com/eth2030/eth2030/trie"
)

// stateObject is the in-memory overlay entry for one address: the
// account record plus a lazily-opened storage trie and a dirty-write
// cache that is only merged into the trie at StateDB.Commit.
type stateObject struct {
	address types.Address
	account *types.Account

	code     []byte
	codeRead bool // whether code has been loaded from the code store yet

	storageTrie *trie.Trie

	originStorage map[types.Hash256]types.Hash256 // values as of transaction start
	dirtyStorage  map[types.Hash256]types.Hash256  // values written during this transaction

	deleted bool // marked by SelfDestruct or Kill
}

func newStateObject(addr types.Address, account *types.Account) *stateObject {
	return &stateObject{
		address:       addr,
		account:       account,
		originStorage: make(map[types.Hash256]types.Hash256),
		dirtyStorage:  make(map[types.Hash256]types.Hash256),
	}
}

// StateDB is the Executive's single mutable handle onto the World State
// for the duration of one transaction (§3 "the Executive exclusively
// owns a mutable World-State view"). It owns the account trie, the code
// store, the per-account storage tries, and the revert journal.
type StateDB struct {
	accountTrie *trie.Trie
	nodeStore   trie.NodeStore
	codeStore   map[types.Hash256][]byte

	objects map[types.Address]*stateObject

	journal *journal
	refund  uint64

	logs []*types.LogEntry
}

// NewMemoryStateDB returns a StateDB over a fresh, empty world state
// backed by an in-memory node store and code store.
func NewMemoryStateDB() *StateDB {
	store := trie.NewMemStore()
	return &StateDB{
		accountTrie: trie.New(store),
		nodeStore:   store,
		codeStore:   make(map[types.Hash256][]byte),
		objects:     make(map[types.Address]*stateObject),
		journal:     newJournal(),
	}
}

// Open resolves a StateDB against a previously committed state root.
func Open(root types.Hash256, store trie.NodeStore, codeStore map[types.Hash256][]byte) (*StateDB, error) {
	tr, err := trie.Open(root, store)
	if err != nil {
		return nil, fmt.Errorf("state: open account trie: %w", err)
	}
	return &StateDB{
		accountTrie: tr,
		nodeStore:   store,
		codeStore:   codeStore,
		objects:     make(map[types.Address]*stateObject),
		journal:     newJournal(),
	}, nil
}

func accountKey(addr types.Address) []byte {
	return crypto.Keccak256(addr.Bytes())
}

// getObject returns the overlay entry for addr, loading it from the
// account trie on first touch. It returns nil if the account does not
// exist and has not been created this transaction.
func (s *StateDB) getObject(addr types.Address) *stateObject {
	if obj, ok := s.objects[addr]; ok {
		if obj.deleted {
			return nil
		}
		return obj
	}
	enc, ok, err := s.accountTrie.Get(accountKey(addr))
	if err != nil || !ok {
		return nil
	}
	account, err := decodeAccount(enc)
	if err != nil {
		return nil
	}
	obj := newStateObject(addr, account)
	s.objects[addr] = obj
	return obj
}

func (s *StateDB) getOrCreateObject(addr types.Address) *stateObject {
	if obj, ok := s.objects[addr]; ok {
		return obj
	}
	if obj := s.getObject(addr); obj != nil {
		return obj
	}
	obj := newStateObject(addr, types.NewEmptyAccount())
	s.objects[addr] = obj
	return obj
}

// CreateAccount ensures addr has a (possibly fresh) account record,
// journaling the creation so a revert removes it entirely rather than
// merely resetting its fields. Per §3, an account is created on first
// write; calling CreateAccount on an address that already has a record
// resets its storage and code but preserves its balance, matching the
// Executive's handling of CREATE landing on a prior, empty account.
func (s *StateDB) CreateAccount(addr types.Address) {
	existing := s.getObject(addr)
	s.journal.append(createObjectChange{address: addr})
	var balance *types.Word
	if existing != nil {
		balance = existing.account.Balance
	} else {
		balance = new(types.Word)
	}
	obj := newStateObject(addr, types.NewEmptyAccount())
	obj.account.Balance = balance
	s.objects[addr] = obj
}

// Exists reports whether addr has any account record at all (fork-
// agnostic existence, distinct from Empty).
func (s *StateDB) Exists(addr types.Address) bool {
	return s.getObject(addr) != nil
}

// Empty reports the EIP-161/158 "empty account" condition for addr:
// zero nonce, zero balance, no code. A non-existent address is also
// considered empty by this predicate's callers (the creation/touch path
// checks Exists separately).
func (s *StateDB) Empty(addr types.Address) bool {
	obj := s.getObject(addr)
	if obj == nil {
		return true
	}
	return obj.account.IsEmpty()
}

func (s *StateDB) GetBalance(addr types.Address) *types.Word {
	obj := s.getObject(addr)
	if obj == nil {
		return new(types.Word)
	}
	return obj.account.Balance
}

func (s *StateDB) SetBalance(addr types.Address, amount *types.Word) {
	obj := s.getOrCreateObject(addr)
	s.journal.append(balanceChange{address: addr, prev: obj.account.Balance})
	obj.account.Balance = amount
}

func (s *StateDB) AddBalance(addr types.Address, amount *types.Word) {
	if amount.IsZero() {
		s.getOrCreateObject(addr) // touch, per EIP-161 zero-value transfer rule
		return
	}
	obj := s.getOrCreateObject(addr)
	s.journal.append(balanceChange{address: addr, prev: obj.account.Balance})
	obj.account.Balance = new(types.Word).Add(obj.account.Balance, amount)
}

// SubBalance subtracts amount from addr's balance. Per §3, the caller
// (the Executive) is responsible for checking sufficiency beforehand;
// SubBalance itself does not guard against underflow, matching the
// World State's role as a mechanical ledger rather than a policy layer.
func (s *StateDB) SubBalance(addr types.Address, amount *types.Word) {
	if amount.IsZero() {
		return
	}
	obj := s.getOrCreateObject(addr)
	s.journal.append(balanceChange{address: addr, prev: obj.account.Balance})
	obj.account.Balance = new(types.Word).Sub(obj.account.Balance, amount)
}

func (s *StateDB) GetNonce(addr types.Address) uint64 {
	obj := s.getObject(addr)
	if obj == nil {
		return 0
	}
	return obj.account.Nonce
}

func (s *StateDB) SetNonce(addr types.Address, nonce uint64) {
	obj := s.getOrCreateObject(addr)
	s.journal.append(nonceChange{address: addr, prev: obj.account.Nonce})
	obj.account.Nonce = nonce
}

func (s *StateDB) IncrementNonce(addr types.Address) {
	s.SetNonce(addr, s.GetNonce(addr)+1)
}

func (s *StateDB) GetCodeHash(addr types.Address) types.Hash256 {
	obj := s.getObject(addr)
	if obj == nil {
		return types.EmptyCodeHash
	}
	return obj.account.CodeHash
}

func (s *StateDB) GetCode(addr types.Address) []byte {
	obj := s.getObject(addr)
	if obj == nil {
		return nil
	}
	if !obj.codeRead {
		obj.code = s.codeStore[obj.account.CodeHash]
		obj.codeRead = true
	}
	return obj.code
}

func (s *StateDB) GetCodeSize(addr types.Address) int { return len(s.GetCode(addr)) }

func (s *StateDB) SetCode(addr types.Address, code []byte) {
	obj := s.getOrCreateObject(addr)
	s.journal.append(codeChange{address: addr, prevCode: obj.code, prevHash: obj.account.CodeHash})
	hash := types.BytesToHash(crypto.Keccak256(code))
	s.codeStore[hash] = code
	obj.code = code
	obj.codeRead = true
	obj.account.CodeHash = hash
}

func storageTrieKey(key types.Hash256) []byte {
	return crypto.Keccak256(key.Bytes())
}

func (s *StateDB) openStorageTrie(obj *stateObject) (*trie.Trie, error) {
	if obj.storageTrie != nil {
		return obj.storageTrie, nil
	}
	tr, err := trie.Open(obj.account.StorageRoot, s.nodeStore)
	if err != nil {
		return nil, err
	}
	obj.storageTrie = tr
	return tr, nil
}

// GetState returns the current value of addr's storage at key, including
// any write made earlier in this transaction. Per §3, an absent key
// reads as zero.
func (s *StateDB) GetState(addr types.Address, key types.Hash256) types.Hash256 {
	obj := s.getObject(addr)
	if obj == nil {
		return types.Hash256{}
	}
	if v, ok := obj.dirtyStorage[key]; ok {
		return v
	}
	return s.GetCommittedState(addr, key)
}

// GetCommittedState returns the value of addr's storage at key as of the
// start of this transaction, ignoring any dirty write made since — the
// "original value" EIP-2200's tri-state SSTORE accounting compares
// against.
func (s *StateDB) GetCommittedState(addr types.Address, key types.Hash256) types.Hash256 {
	obj := s.getObject(addr)
	if obj == nil {
		return types.Hash256{}
	}
	if v, ok := obj.originStorage[key]; ok {
		return v
	}
	tr, err := s.openStorageTrie(obj)
	if err != nil {
		return types.Hash256{}
	}
	enc, ok, err := tr.Get(storageTrieKey(key))
	var value types.Hash256
	if err == nil && ok {
		word, werr := wordFromRLP(enc)
		if werr == nil {
			value = types.BytesToHash(word.Bytes())
		}
	}
	obj.originStorage[key] = value
	return value
}

// SetState writes value to addr's storage at key. Writing the zero value
// is recorded the same as any other write here; it is only at Commit
// time that a zero value causes the trie entry to be removed (§3
// "writing zero to a key removes it").
func (s *StateDB) SetState(addr types.Address, key, value types.Hash256) {
	obj := s.getOrCreateObject(addr)
	s.GetCommittedState(addr, key) // ensure originStorage is warmed before the write
	prev, had := obj.dirtyStorage[key]
	s.journal.append(storageChange{address: addr, key: key, prevVal: prev, hadValue: had})
	obj.dirtyStorage[key] = value
}

// SelfDestruct marks addr for removal; Commit deletes it from the
// account trie. Per §4.2, the balance
// transfer to the beneficiary is the Executive's responsibility; this
// only flags the account.
func (s *StateDB) SelfDestruct(addr types.Address) {
	obj := s.getOrCreateObject(addr)
	if obj.deleted {
		return
	}
	s.journal.append(destructChange{address: addr, prevDeleted: obj.deleted})
	obj.deleted = true
}

func (s *StateDB) HasSelfDestructed(addr types.Address) bool {
	obj, ok := s.objects[addr]
	return ok && obj.deleted
}

// Kill marks addr's account record as deleted without loading it from
// the trie first (an absent account gets a fresh, already-deleted
// record); Commit then removes it from the account trie.
func (s *StateDB) Kill(addr types.Address) {
	if _, ok := s.objects[addr]; ok {
		s.journal.append(destructChange{address: addr, prevDeleted: s.objects[addr].deleted})
		s.objects[addr].deleted = true
	} else {
		s.journal.append(createObjectChange{address: addr})
		obj := newStateObject(addr, types.NewEmptyAccount())
		obj.deleted = true
		s.objects[addr] = obj
	}
}

// AddRefund increases the pending gas refund (SSTORE clearing,
// SELFDESTRUCT) by amount.
func (s *StateDB) AddRefund(amount uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += amount
}

// SubRefund decreases the pending gas refund by amount (reversing an
// earlier clear when a slot is subsequently re-dirtied, per EIP-2200).
func (s *StateDB) SubRefund(amount uint64) {
	s.journal.append(refundChange{prev: s.refund})
	if amount > s.refund {
		s.refund = 0
		return
	}
	s.refund -= amount
}

func (s *StateDB) Refund() uint64 { return s.refund }

// AddLog appends a log entry emitted by the currently executing frame.
// Per §4.2, logs from reverted frames are discarded via the journal
// (RevertToSnapshot truncates s.logs back to the mark).
func (s *StateDB) AddLog(log *types.LogEntry) {
	s.journal.append(addLogChange{txLogIndex: len(s.logs)})
	s.logs = append(s.logs, log)
}

func (s *StateDB) Logs() []*types.LogEntry { return s.logs }

// Snapshot marks the current journal position. Calling RevertToSnapshot
// with the returned value undoes every mutation made since.
func (s *StateDB) Snapshot() int { return s.journal.length() }

func (s *StateDB) RevertToSnapshot(id int) { s.journal.revertTo(s, id) }

// dirtyAddresses returns every address touched this transaction, in
// ascending byte order, for deterministic iteration during Commit.
func (s *StateDB) dirtyAddresses() []types.Address {
	addrs := make([]types.Address, 0, len(s.objects))
	for addr := range s.objects {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return bytesLess(addrs[i][:], addrs[j][:]) })
	return addrs
}

func bytesLess(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Commit flushes every dirty account to the account trie — merging
// dirty storage into each account's storage trie first — and returns
// the new state root (§4.3).
func (s *StateDB) Commit() (types.Hash256, error) {
	for _, addr := range s.dirtyAddresses() {
		obj := s.objects[addr]
		if obj.deleted {
			if err := s.accountTrie.Delete(accountKey(addr)); err != nil {
				return types.Hash256{}, fmt.Errorf("state: delete account %s: %w", addr, err)
			}
			continue
		}
		if len(obj.dirtyStorage) > 0 {
			tr, err := s.openStorageTrie(obj)
			if err != nil {
				return types.Hash256{}, err
			}
			for _, key := range sortedStorageKeys(obj.dirtyStorage) {
				val := obj.dirtyStorage[key]
				obj.originStorage[key] = val
				if val.IsZero() {
					if err := tr.Delete(storageTrieKey(key)); err != nil {
						return types.Hash256{}, err
					}
					continue
				}
				enc, err := wordToRLP(val)
				if err != nil {
					return types.Hash256{}, err
				}
				if err := tr.Update(storageTrieKey(key), enc); err != nil {
					return types.Hash256{}, err
				}
			}
			root, err := tr.Commit()
			if err != nil {
				return types.Hash256{}, err
			}
			obj.account.StorageRoot = root
			obj.dirtyStorage = make(map[types.Hash256]types.Hash256)
		}
		enc, err := encodeAccount(obj.account)
		if err != nil {
			return types.Hash256{}, err
		}
		if err := s.accountTrie.Update(accountKey(addr), enc); err != nil {
			return types.Hash256{}, fmt.Errorf("state: update account %s: %w", addr, err)
		}
	}
	return s.accountTrie.Commit()
}

func sortedStorageKeys(m map[types.Hash256]types.Hash256) []types.Hash256 {
	keys := make([]types.Hash256, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytesLess(keys[i][:], keys[j][:]) })
	return keys
}

// GetRoot commits every pending overlay entry (it calls Commit) and
// returns the resulting state root, or the zero hash if Commit fails.
func (s *StateDB) GetRoot() types.Hash256 {
	root, err := s.Commit()
	if err != nil {
		return types.Hash256{}
	}
	return root
}
