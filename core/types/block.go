package types

import (
	"math/big"

	"github.com/eth2030/eth2030/rlp"
)

// BloomLength is the byte length of a log bloom filter (2048 bits).
const BloomLength = 256

// Bloom is a 2048-bit log bloom filter. Each log entry contributes six
// bit insertions: three 11-bit indices each for the log's address and for
// every topic.
type Bloom [BloomLength]byte

// Header is a block header: parent_hash, uncles_hash, author, state_root,
// transactions_root, receipts_root, logs_bloom, difficulty, number,
// gas_limit, gas_used, timestamp, extra_data, mix_hash, nonce — in this
// fixed RLP field order.
type Header struct {
	ParentHash  Hash256
	UnclesHash  Hash256
	Author      Address
	StateRoot   Hash256
	TxRoot      Hash256
	ReceiptRoot Hash256
	LogsBloom   Bloom
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Timestamp   uint64
	ExtraData   []byte
	MixHash     Hash256
	Nonce       [8]byte
}

// EncodeRLP returns the canonical 15-field wire encoding of h.
func (h *Header) EncodeRLP() ([]byte, error) {
	return rlp.EncodeList(
		h.ParentHash.Bytes(), h.UnclesHash.Bytes(), h.Author.Bytes(),
		h.StateRoot.Bytes(), h.TxRoot.Bytes(), h.ReceiptRoot.Bytes(),
		h.LogsBloom[:], h.Difficulty, h.Number, h.GasLimit, h.GasUsed,
		h.Timestamp, h.ExtraData, h.MixHash.Bytes(), h.Nonce[:],
	)
}

// Hash returns Keccak256 of h's RLP encoding. Computed fresh every call;
// callers that need it repeatedly should cache it themselves.
func (h *Header) Hash() (Hash256, error) {
	enc, err := h.EncodeRLP()
	if err != nil {
		return Hash256{}, err
	}
	return keccak256Hash(enc), nil
}

// keccak256Hash avoids importing the crypto package here (which imports
// types for Address/Hash256) by reusing the same Keccak-256 primitive
// directly; header/body hashing is the only place core/types needs it.
func keccak256Hash(data []byte) Hash256 {
	return BytesToHash(keccak256(data))
}

// Block pairs a header with its body: the ordered transaction list. This
// implementation's fork range predates uncle blocks carrying any
// consensus weight beyond UnclesHash, so the body omits an uncle list.
type Block struct {
	Header *Header
	Txs    []*Transaction
}

// NewBlock constructs a Block from a header and transaction list. The
// header's TxRoot is NOT computed here — callers (the block assembler)
// compute it via the trie once the transaction list is final.
func NewBlock(header *Header, txs []*Transaction) *Block {
	return &Block{Header: header, Txs: txs}
}

func (b *Block) NumberU64() uint64 {
	if b.Header.Number == nil {
		return 0
	}
	return b.Header.Number.Uint64()
}
