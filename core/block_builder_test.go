package core

import (
	"math/big"
	"testing"

	"github.com/eth2030/eth2030/core/state"
	"github.com/eth2030/eth2030/core/types"
)

func TestBlockBuilderIncludesTransactionsAndPaysReward(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x22}
	tx := &types.Transaction{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		GasLimit: 21000,
		To:       &to,
		Value:    big.NewInt(500),
	}
	sender := signTx(t, tx, prv, nil)

	st := state.NewMemoryStateDB()
	st.AddBalance(sender, wordFromBig(big.NewInt(1_000_000)))

	header := testHeader(1)
	header.GasLimit = 100000
	builder := NewBlockBuilder(&ChainConfig{ByzantiumBlock: big.NewInt(1 << 30)}, st, header)

	result, err := builder.Build([]*types.Transaction{tx})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Block.Txs) != 1 {
		t.Fatalf("included %d transactions, want 1", len(result.Block.Txs))
	}
	if len(result.Receipts) != 1 {
		t.Fatalf("got %d receipts, want 1", len(result.Receipts))
	}
	if result.Block.Header.GasUsed != 21000 {
		t.Errorf("gas used = %d, want 21000", result.Block.Header.GasUsed)
	}
	if result.Block.Header.TxRoot.IsZero() {
		t.Error("expected a non-zero transactions root")
	}
	if result.Block.Header.ReceiptRoot.IsZero() {
		t.Error("expected a non-zero receipts root")
	}
	// The author receives the block reward plus the fee: 21000 gas at price 1.
	wantAuthor := new(big.Int).Add(BlockReward, big.NewInt(21000))
	if st.GetBalance(header.Author).ToBig().Cmp(wantAuthor) != 0 {
		t.Errorf("author balance = %s, want block reward plus fee %s", st.GetBalance(header.Author).ToBig(), wantAuthor)
	}
	if st.GetBalance(to).Uint64() != 500 {
		t.Errorf("recipient balance = %d, want 500", st.GetBalance(to).Uint64())
	}
}

func TestBlockBuilderSkipsTransactionsOverGasBudget(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x33}
	tx := &types.Transaction{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		GasLimit: 21000,
		To:       &to,
		Value:    big.NewInt(0),
	}
	sender := signTx(t, tx, prv, nil)

	st := state.NewMemoryStateDB()
	st.AddBalance(sender, wordFromBig(big.NewInt(1_000_000)))

	header := testHeader(1)
	header.GasLimit = 10000 // below the single transaction's gas_limit
	builder := NewBlockBuilder(MainnetConfig(), st, header)

	result, err := builder.Build([]*types.Transaction{tx})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Block.Txs) != 0 {
		t.Fatalf("included %d transactions, want 0", len(result.Block.Txs))
	}
	if result.Block.Header.GasUsed != 0 {
		t.Errorf("gas used = %d, want 0", result.Block.Header.GasUsed)
	}
}
