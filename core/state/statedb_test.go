package state

import (
	"testing"

	"github.com/eth2030/eth2030/core/types"
)

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func TestAddBalanceCreatesAccount(t *testing.T) {
	db := NewMemoryStateDB()
	a := addr(1)
	if db.Exists(a) {
		t.Fatal("account should not exist yet")
	}
	db.AddBalance(a, types.NewWord(100))
	if !db.Exists(a) {
		t.Fatal("account should exist after AddBalance")
	}
	if db.GetBalance(a).Uint64() != 100 {
		t.Errorf("balance = %d, want 100", db.GetBalance(a).Uint64())
	}
}

func TestSnapshotRevertUndoesBalanceChange(t *testing.T) {
	db := NewMemoryStateDB()
	a := addr(1)
	db.AddBalance(a, types.NewWord(100))

	snap := db.Snapshot()
	db.AddBalance(a, types.NewWord(50))
	if db.GetBalance(a).Uint64() != 150 {
		t.Fatalf("balance = %d, want 150", db.GetBalance(a).Uint64())
	}

	db.RevertToSnapshot(snap)
	if db.GetBalance(a).Uint64() != 100 {
		t.Errorf("balance after revert = %d, want 100", db.GetBalance(a).Uint64())
	}
}

func TestSnapshotRevertUndoesStorageAndLogs(t *testing.T) {
	db := NewMemoryStateDB()
	a := addr(1)
	key := types.HexToHash("0x01")
	val := types.HexToHash("0x2a")
	db.SetState(a, key, val)

	snap := db.Snapshot()
	db.SetState(a, key, types.HexToHash("0xff"))
	db.AddLog(&types.LogEntry{Address: a})
	if len(db.Logs()) != 1 {
		t.Fatalf("expected 1 log before revert, got %d", len(db.Logs()))
	}

	db.RevertToSnapshot(snap)
	if got := db.GetState(a, key); got != val {
		t.Errorf("storage after revert = %s, want %s", got, val)
	}
	if len(db.Logs()) != 0 {
		t.Errorf("expected 0 logs after revert, got %d", len(db.Logs()))
	}
}

func TestSetStateZeroRemovesOnCommit(t *testing.T) {
	db := NewMemoryStateDB()
	a := addr(1)
	key := types.HexToHash("0x01")
	db.SetState(a, key, types.HexToHash("0x2a"))
	if _, err := db.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	rootWithValue, _ := db.Commit()

	db.SetState(a, key, types.Hash256{})
	rootWithoutValue, err := db.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if rootWithValue == rootWithoutValue {
		t.Error("expected root to change after clearing storage slot")
	}
	if got := db.GetState(a, key); !got.IsZero() {
		t.Errorf("GetState after clearing = %s, want zero", got)
	}
}

func TestCommitRoundTripViaOpen(t *testing.T) {
	db := NewMemoryStateDB()
	a := addr(1)
	db.AddBalance(a, types.NewWord(1000))
	db.SetNonce(a, 7)
	db.SetCode(a, []byte{0x60, 0x00})
	db.SetState(a, types.HexToHash("0x01"), types.HexToHash("0x2a"))

	root, err := db.Commit()
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reopened, err := Open(root, db.nodeStore, db.codeStore)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.GetBalance(a).Uint64() != 1000 {
		t.Errorf("balance = %d, want 1000", reopened.GetBalance(a).Uint64())
	}
	if reopened.GetNonce(a) != 7 {
		t.Errorf("nonce = %d, want 7", reopened.GetNonce(a))
	}
	if len(reopened.GetCode(a)) != 2 {
		t.Errorf("code length = %d, want 2", len(reopened.GetCode(a)))
	}
	if got := reopened.GetState(a, types.HexToHash("0x01")); got != types.HexToHash("0x2a") {
		t.Errorf("storage = %s, want 0x2a", got)
	}
}

func TestSelfDestructFlagsAccount(t *testing.T) {
	db := NewMemoryStateDB()
	a := addr(1)
	db.AddBalance(a, types.NewWord(1))
	db.SelfDestruct(a)
	if !db.HasSelfDestructed(a) {
		t.Error("expected HasSelfDestructed to report true")
	}
	if db.Exists(a) {
		t.Error("a self-destructed account should read as non-existent")
	}
}

func TestEmptyAccountPredicate(t *testing.T) {
	db := NewMemoryStateDB()
	a := addr(1)
	if !db.Empty(a) {
		t.Error("non-existent account should be considered empty")
	}
	db.AddBalance(a, types.NewWord(0)) // touch with a zero-value transfer
	if !db.Empty(a) {
		t.Error("touched-but-zero account should still be empty")
	}
	db.AddBalance(a, types.NewWord(1))
	if db.Empty(a) {
		t.Error("account with nonzero balance should not be empty")
	}
}
