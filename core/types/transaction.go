package types

import (
	"errors"
	"math/big"

	"github.com/eth2030/eth2030/rlp"
)

// Transaction is an externally signed call or contract-creation request.
// Canonical wire encoding is RLP of the nine fields in this declaration
// order: [nonce, gas_price, gas_limit, to, value, data, v, r, s].
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	GasLimit uint64
	To       *Address // nil marks contract creation
	Value    *big.Int
	Data     []byte

	V *big.Int
	R *big.Int
	S *big.Int
}

// IsCreation reports whether this transaction creates a contract (To is
// absent, i.e. the wire "to" field was the empty byte string).
func (tx *Transaction) IsCreation() bool { return tx.To == nil }

// legacyV and the EIP-155 offset used to recover the chain id (if any)
// from a signature's v value and to compute the recovery id for Ecrecover.
const (
	legacyVLow  = 27
	legacyVHigh = 28
	eip155Base  = 35
)

// ErrInvalidVValue reports a v field that is neither a legacy (27/28) nor
// an EIP-155 (chain_id*2+35 or +36) value.
var ErrInvalidVValue = errors.New("types: invalid transaction v value")

// ChainID extracts the chain id encoded in an EIP-155 signature's v field.
// ok is false for legacy (pre-155) signatures, which carry no chain id.
func (tx *Transaction) ChainID() (id *big.Int, ok bool) {
	if tx.V == nil {
		return nil, false
	}
	v := new(big.Int).Set(tx.V)
	if v.Cmp(big.NewInt(legacyVHigh)) <= 0 {
		return nil, false
	}
	v.Sub(v, big.NewInt(eip155Base))
	chainID := new(big.Int).Rsh(v, 0)
	chainID.Div(v, big.NewInt(2))
	return chainID, true
}

// RecoveryID returns the 0/1 ECDSA recovery identifier implied by v, given
// whether the signature is EIP-155-protected.
func (tx *Transaction) RecoveryID() (byte, error) {
	if tx.V == nil {
		return 0, ErrInvalidVValue
	}
	if chainID, ok := tx.ChainID(); ok {
		offset := new(big.Int).Add(new(big.Int).Mul(chainID, big.NewInt(2)), big.NewInt(eip155Base))
		recID := new(big.Int).Sub(tx.V, offset)
		if recID.Sign() != 0 && recID.Cmp(big.NewInt(1)) != 0 {
			return 0, ErrInvalidVValue
		}
		return byte(recID.Int64()), nil
	}
	switch tx.V.Int64() {
	case legacyVLow:
		return 0, nil
	case legacyVHigh:
		return 1, nil
	default:
		return 0, ErrInvalidVValue
	}
}

// SigningPreimage returns the RLP encoding that is Keccak-256 hashed to
// produce the digest a sender signs. With chainID == nil, it is the
// pre-EIP-155 six-field preimage; otherwise the nine-field EIP-155
// preimage with (chainID, 0, 0) appended in place of (v, r, s).
func (tx *Transaction) SigningPreimage(chainID *big.Int) ([]byte, error) {
	toBytes := []byte{}
	if tx.To != nil {
		toBytes = tx.To.Bytes()
	}
	fields := []any{tx.Nonce, tx.GasPrice, tx.GasLimit, toBytes, tx.Value, tx.Data}
	if chainID != nil {
		fields = append(fields, chainID, uint64(0), uint64(0))
	}
	return rlp.EncodeList(fields...)
}

// EncodeRLP returns the canonical signed wire encoding of tx.
func (tx *Transaction) EncodeRLP() ([]byte, error) {
	toBytes := []byte{}
	if tx.To != nil {
		toBytes = tx.To.Bytes()
	}
	return rlp.EncodeList(
		tx.Nonce, tx.GasPrice, tx.GasLimit, toBytes, tx.Value, tx.Data,
		tx.V, tx.R, tx.S,
	)
}

// Hash returns Keccak256 of tx's signed RLP encoding: the transaction's
// identity in the transactions trie and in receipts/logs.
func (tx *Transaction) Hash() (Hash256, error) {
	enc, err := tx.EncodeRLP()
	if err != nil {
		return Hash256{}, err
	}
	return keccak256Hash(enc), nil
}

// IntrinsicGas returns the fixed per-transaction base cost plus the
// per-byte cost of Data, deducted by Executive.Initialize before any VM
// work. Zero bytes and non-zero bytes are priced differently (the
// historical convention every fork in this implementation's range uses).
func (tx *Transaction) IntrinsicGas(isCreation bool) uint64 {
	const (
		txGas               = 21000
		txGasContractCreate = 53000
		txDataZeroGas       = 4
		txDataNonZeroGas    = 68
	)
	gas := uint64(txGas)
	if isCreation {
		gas = txGasContractCreate
	}
	for _, b := range tx.Data {
		if b == 0 {
			gas += txDataZeroGas
		} else {
			gas += txDataNonZeroGas
		}
	}
	return gas
}
