package core

import (
	"math/big"
	"testing"

	"github.com/eth2030/eth2030/core/types"
)

func TestGenesisCommitAppliesAlloc(t *testing.T) {
	addr := types.Address{0x01}
	storageKey := types.HexToHash("0x01")
	storageVal := types.HexToHash("0x2a")

	g := &Genesis{
		Config:   MainnetConfig(),
		GasLimit: 5000,
		Alloc: GenesisAlloc{
			addr: {
				Balance: big.NewInt(1_000_000),
				Nonce:   7,
				Code:    []byte{0x60, 0x00},
				Storage: map[types.Hash256]types.Hash256{storageKey: storageVal},
			},
		},
	}

	block, statedb, err := g.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if block.Header.StateRoot.IsZero() {
		t.Error("expected a non-zero state root after commit")
	}
	if statedb.GetBalance(addr).Uint64() != 1_000_000 {
		t.Errorf("balance = %d, want 1000000", statedb.GetBalance(addr).Uint64())
	}
	if statedb.GetNonce(addr) != 7 {
		t.Errorf("nonce = %d, want 7", statedb.GetNonce(addr))
	}
	if got := statedb.GetState(addr, storageKey); got != storageVal {
		t.Errorf("storage[%x] = %x, want %x", storageKey, got, storageVal)
	}
}

func TestGenesisCommitEmptyAllocHasEmptyRoot(t *testing.T) {
	g := MainnetGenesis()
	block, _, err := g.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if block.Header.StateRoot != types.EmptyRootHash {
		t.Errorf("state root = %x, want EmptyRootHash for an empty allocation", block.Header.StateRoot)
	}
}

func TestGenesisNonceEncodedBigEndian(t *testing.T) {
	g := &Genesis{Nonce: 0x0102030405060708, Alloc: GenesisAlloc{}}
	header := g.header()
	want := [8]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	if header.Nonce != want {
		t.Errorf("header.Nonce = %x, want %x", header.Nonce, want)
	}
}
