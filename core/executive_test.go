package core

import (
	"math/big"
	"testing"

	"github.com/eth2030/eth2030/core/state"
	"github.com/eth2030/eth2030/core/types"
)

func testHeader(number int64) *types.Header {
	return &types.Header{
		Author:   types.Address{0xc0, 0x1b, 0xa5},
		Number:   big.NewInt(number),
		GasLimit: 8_000_000,
	}
}

// TestPureValueTransferFrontierRules mirrors spec.md's worked example:
// a plain value transfer with no data, charged exactly the 21000-gas
// intrinsic cost and nothing more.
func TestPureValueTransferFrontierRules(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x11, 0x22}
	tx := &types.Transaction{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		GasLimit: 21000,
		To:       &to,
		Value:    big.NewInt(1000),
	}
	sender := signTx(t, tx, prv, nil)

	st := state.NewMemoryStateDB()
	st.AddBalance(sender, wordFromBig(big.NewInt(1_000_000_000_000_000_000)))

	config := &ChainConfig{ByzantiumBlock: big.NewInt(1 << 30)}
	header := testHeader(1)
	exec := NewExecutive(config, st, header)

	init, err := exec.Initialize(tx)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	gasLeft, contractAddr, vmErr := exec.Execute(tx, init)
	if vmErr != nil {
		t.Fatalf("Execute: %v", vmErr)
	}
	if contractAddr != nil {
		t.Fatalf("expected no contract address for a call, got %v", contractAddr)
	}
	if gasLeft != init.gasLimit-init.intrinsicGas {
		t.Errorf("gasLeft = %d, want %d", gasLeft, init.gasLimit-init.intrinsicGas)
	}

	receipt := exec.Finalize(tx, init, gasLeft, vmErr, 0)
	if receipt.Status != types.ReceiptStatusSuccess {
		t.Errorf("status = %d, want success", receipt.Status)
	}
	if receipt.CumulativeGasUsed != 21000 {
		t.Errorf("gas used = %d, want 21000", receipt.CumulativeGasUsed)
	}
	if len(receipt.Logs) != 0 {
		t.Errorf("expected no logs, got %d", len(receipt.Logs))
	}

	wantSenderBalance := new(big.Int).Sub(big.NewInt(1_000_000_000_000_000_000), big.NewInt(1000))
	wantSenderBalance.Sub(wantSenderBalance, big.NewInt(21000))
	if st.GetBalance(sender).ToBig().Cmp(wantSenderBalance) != 0 {
		t.Errorf("sender balance = %s, want %s", st.GetBalance(sender).ToBig(), wantSenderBalance)
	}
	if st.GetBalance(to).Uint64() != 1000 {
		t.Errorf("recipient balance = %d, want 1000", st.GetBalance(to).Uint64())
	}
	if st.GetNonce(sender) != 1 {
		t.Errorf("sender nonce = %d, want 1", st.GetNonce(sender))
	}
}

func TestInitializeRejectsNonceMismatch(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x11}
	tx := &types.Transaction{Nonce: 5, GasPrice: big.NewInt(1), GasLimit: 21000, To: &to, Value: big.NewInt(0)}
	sender := signTx(t, tx, prv, nil)

	st := state.NewMemoryStateDB()
	st.AddBalance(sender, wordFromBig(big.NewInt(1_000_000)))

	exec := NewExecutive(MainnetConfig(), st, testHeader(1))
	if _, err := exec.Initialize(tx); err != ErrNonceTooHigh {
		t.Errorf("Initialize error = %v, want ErrNonceTooHigh", err)
	}
}

func TestInitializeRejectsInsufficientFunds(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x11}
	tx := &types.Transaction{Nonce: 0, GasPrice: big.NewInt(1), GasLimit: 21000, To: &to, Value: big.NewInt(0)}
	signTx(t, tx, prv, nil)

	st := state.NewMemoryStateDB()
	exec := NewExecutive(MainnetConfig(), st, testHeader(1))
	if _, err := exec.Initialize(tx); err != ErrInsufficientFunds {
		t.Errorf("Initialize error = %v, want ErrInsufficientFunds", err)
	}
}

func TestInitializeRejectsGasBelowIntrinsic(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x11}
	tx := &types.Transaction{Nonce: 0, GasPrice: big.NewInt(1), GasLimit: 100, To: &to, Value: big.NewInt(0)}
	sender := signTx(t, tx, prv, nil)

	st := state.NewMemoryStateDB()
	st.AddBalance(sender, wordFromBig(big.NewInt(1_000_000)))

	exec := NewExecutive(MainnetConfig(), st, testHeader(1))
	if _, err := exec.Initialize(tx); err != ErrIntrinsicGas {
		t.Errorf("Initialize error = %v, want ErrIntrinsicGas", err)
	}
}
