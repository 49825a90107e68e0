package core

import (
	"math/big"
	"testing"

	"github.com/eth2030/eth2030/core/state"
	"github.com/eth2030/eth2030/core/types"
)

func TestCallViewDoesNotPersistState(t *testing.T) {
	to := types.Address{0x55}
	// PUSH1 0x01 PUSH1 0x00 SSTORE — writes slot 0 during the call.
	code := []byte{0x60, 0x01, 0x60, 0x00, 0x55}

	st := state.NewMemoryStateDB()
	st.SetCode(to, code)

	header := testHeader(1)
	result, err := CallView(MainnetConfig(), st, header, types.Address{0x01}, to, nil, 100000, big.NewInt(1))
	if err != nil {
		t.Fatalf("CallView: %v", err)
	}
	if result.Status != types.ReceiptStatusSuccess {
		t.Errorf("status = %d, want success", result.Status)
	}
	if got := st.GetState(to, types.Hash256{}); !got.IsZero() {
		t.Errorf("storage slot 0 = %x, want zero (CallView must not persist writes)", got)
	}
}

func TestCallViewReportsRevert(t *testing.T) {
	to := types.Address{0x66}
	// PUSH1 0x00 PUSH1 0x00 REVERT
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xfd}

	st := state.NewMemoryStateDB()
	st.SetCode(to, code)

	header := testHeader(1)
	// REVERT exists only from Byzantium on, so activate it at genesis.
	config := &ChainConfig{ByzantiumBlock: big.NewInt(0)}
	result, err := CallView(config, st, header, types.Address{0x01}, to, nil, 100000, big.NewInt(1))
	if err != nil {
		t.Fatalf("CallView: %v", err)
	}
	if result.Status != types.ReceiptStatusFailed {
		t.Errorf("status = %d, want failed (reverted)", result.Status)
	}
}
