package core

import (
	"math/big"

	"github.com/eth2030/eth2030/core/state"
	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/log"
	"github.com/eth2030/eth2030/rlp"
	"github.com/eth2030/eth2030/trie"
)

var builderLog = log.Module("core/builder")

// BlockReward is the classical pre-merge static reward credited to a
// block's author, matching the teacher's own BlockReward helper (§
// FEATURE SUPPLEMENT — this implementation's fork range never reaches
// the Merge, so uncle rewards and the post-Merge zero reward don't
// apply).
var BlockReward = big.NewInt(2_000_000_000_000_000_000)

// BlockBuilder assembles one block on top of a parent header and
// world state: it runs each candidate transaction through an Executive
// in order, skipping any whose gas limit would exceed the block's
// remaining gas budget, then
// computes the transactions/receipts tries and log bloom and credits
// the static block reward (§2 Block Assembler, §4.2).
type BlockBuilder struct {
	config *ChainConfig
	state  *state.StateDB
	header *types.Header
}

// NewBlockBuilder starts assembly of the block described by header on
// top of st, which must already reflect the parent block's committed
// state.
func NewBlockBuilder(config *ChainConfig, st *state.StateDB, header *types.Header) *BlockBuilder {
	return &BlockBuilder{config: config, state: st, header: header}
}

// BuildResult carries the assembled block alongside the per-transaction
// receipts, in the same order the transactions were included.
type BuildResult struct {
	Block    *types.Block
	Receipts []*types.Receipt
}

// Build runs candidates in order through the Executive, skipping any
// whose gas_limit would overflow the block's remaining gas budget
// (§4.2 Initialize's block gas budget check), and returns the finished
// block with its header's roots, bloom, and gas_used populated.
func (b *BlockBuilder) Build(candidates []*types.Transaction) (*BuildResult, error) {
	exec := NewExecutive(b.config, b.state, b.header)

	var included []*types.Transaction
	var receipts []*types.Receipt
	var cumulativeGasUsed uint64
	bloom := types.Bloom{}

	for _, tx := range candidates {
		if cumulativeGasUsed+tx.GasLimit > b.header.GasLimit {
			builderLog.Debug("skipping transaction over block gas budget", "gas_limit", tx.GasLimit)
			continue
		}
		init, err := exec.Initialize(tx)
		if err != nil {
			builderLog.Debug("dropping transaction that failed initialization", "err", err)
			continue
		}
		gasLeft, _, vmErr := exec.Execute(tx, init)
		receipt := exec.Finalize(tx, init, gasLeft, vmErr, cumulativeGasUsed)
		cumulativeGasUsed = receipt.CumulativeGasUsed
		for i := range receipt.Bloom {
			bloom[i] |= receipt.Bloom[i]
		}
		included = append(included, tx)
		receipts = append(receipts, receipt)
	}

	txRoot, err := rootOf(included, func(tx *types.Transaction) ([]byte, error) { return tx.EncodeRLP() })
	if err != nil {
		return nil, err
	}
	receiptRoot, err := rootOf(receipts, func(r *types.Receipt) ([]byte, error) { return r.EncodeRLP() })
	if err != nil {
		return nil, err
	}

	b.state.AddBalance(b.header.Author, wordFromBig(BlockReward))
	if b.config.IsEIP158(b.header.Number) {
		exec.sweepEmptyAccounts()
	}
	stateRoot, err := b.state.Commit()
	if err != nil {
		return nil, err
	}

	b.header.TxRoot = txRoot
	b.header.ReceiptRoot = receiptRoot
	b.header.StateRoot = stateRoot
	b.header.LogsBloom = bloom
	b.header.GasUsed = cumulativeGasUsed

	return &BuildResult{Block: types.NewBlock(b.header, included), Receipts: receipts}, nil
}

// rootOf builds an ephemeral trie keyed by each item's RLP-encoded
// index (matching the transactions/receipts root convention named in
// §6's block header wire format) and returns its root hash.
func rootOf[T any](items []T, encode func(T) ([]byte, error)) (types.Hash256, error) {
	t := trie.New(trie.NewMemStore())
	for i, item := range items {
		key, err := rlp.Encode(big.NewInt(int64(i)))
		if err != nil {
			return types.Hash256{}, err
		}
		val, err := encode(item)
		if err != nil {
			return types.Hash256{}, err
		}
		if err := t.Update(key, val); err != nil {
			return types.Hash256{}, err
		}
	}
	return t.Commit()
}
