package types

import (
	"github.com/eth2030/eth2030/rlp"
)

// LogEntry is one entry emitted by the LOG0..LOG4 opcodes: the emitting
// address, up to four 256-bit topics, and an opaque data payload.
type LogEntry struct {
	Address Address
	Topics  []Hash256
	Data    []byte
}

// EncodeRLP encodes a single log entry as [address, topics, data].
func (l *LogEntry) EncodeRLP() ([]byte, error) {
	topics := make([][]byte, len(l.Topics))
	for i, t := range l.Topics {
		topics[i] = t.Bytes()
	}
	return rlp.EncodeList(l.Address.Bytes(), topics, l.Data)
}

// ReceiptStatusFailed and ReceiptStatusSuccess are the values of the
// status byte introduced by EIP-658.
const (
	ReceiptStatusFailed  = 0
	ReceiptStatusSuccess = 1
)

// Receipt is the RLP-encoded transaction outcome: either a post-state
// root (pre-Byzantium) or a status byte (EIP-658), plus cumulative gas
// used, a log bloom, and the ordered log list.
type Receipt struct {
	// Exactly one of PostState or Status is meaningful, selected by
	// PostByzantium.
	PostByzantium bool
	PostState     Hash256
	Status        uint64

	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*LogEntry
}

// statusOrRoot returns the wire-format first field: the 32-byte post
// state root, or a 0/1-byte status encoded the same way a small uint is.
func (r *Receipt) statusOrRoot() any {
	if r.PostByzantium {
		return r.Status
	}
	return r.PostState.Bytes()
}

// EncodeRLP encodes the receipt as its canonical 4-field wire form.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	var logsBody []byte
	for _, l := range r.Logs {
		enc, err := l.EncodeRLP()
		if err != nil {
			return nil, err
		}
		logsBody = append(logsBody, enc...)
	}
	return rlp.EncodeList(r.statusOrRoot(), r.CumulativeGasUsed, r.Bloom[:], rlp.WrapRawList(logsBody))
}

// BloomAdd inserts the three-index contribution of b into bloom, matching
// the fixed bit-selection function every fork in this implementation's
// range shares: for each of the first three big-endian byte pairs of
// Keccak256(b) (bytes 0-1, 2-3 and 4-5), take the pair's low 11 bits as
// a bit index and set that bit.
func BloomAdd(bloom *Bloom, b []byte) {
	hash := keccak256(b)
	for i := 0; i < 6; i += 2 {
		bit := (uint(hash[i])<<8 | uint(hash[i+1])) & 0x7ff
		byteIdx := BloomLength - 1 - bit/8
		bloom[byteIdx] |= 1 << (bit % 8)
	}
}

// LogsBloom computes the bloom filter over a full log list: every log's
// address and every one of its topics contributes an insertion.
func LogsBloom(logs []*LogEntry) Bloom {
	var b Bloom
	for _, l := range logs {
		BloomAdd(&b, l.Address.Bytes())
		for _, t := range l.Topics {
			BloomAdd(&b, t.Bytes())
		}
	}
	return b
}
