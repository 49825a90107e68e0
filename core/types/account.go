package types

import "github.com/holiman/uint256"

// Account is the state-trie value for one address: RLP([nonce, balance,
// storage_root, code_hash]). Storage and code are not inlined — storage
// lives in the account's own sub-trie (storage_root), code lives in the
// content-addressed code store (code_hash).
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	StorageRoot Hash256
	CodeHash    Hash256
}

// NewEmptyAccount returns the Account value for a freshly created address:
// zero nonce and balance, empty storage trie, no code.
func NewEmptyAccount() *Account {
	return &Account{
		Balance:     new(uint256.Int),
		StorageRoot: EmptyRootHash,
		CodeHash:    EmptyCodeHash,
	}
}

// IsEmpty reports the EIP-161/158 "empty account" condition: zero nonce,
// zero balance, and no code. An empty account is indistinguishable from a
// non-existent one under post-Spurious-Dragon rules.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && a.CodeHash == EmptyCodeHash
}

// Copy returns a deep copy, safe to mutate independently of the receiver.
func (a *Account) Copy() *Account {
	cp := *a
	cp.Balance = new(uint256.Int).Set(a.Balance)
	return &cp
}
