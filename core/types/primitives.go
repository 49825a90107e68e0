// Package types defines the wire and in-memory shapes shared by the VM,
// Executive, and World State: the fixed-width Word and Address primitives,
// accounts, transactions, blocks, and receipts.
package types

import (
	"fmt"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// keccak256 is a package-local Keccak-256 helper so that Header.Hash and
// similar methods don't need to import the crypto package (which itself
// imports types for Address/Hash256, and would create a cycle).
func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// Word is the fundamental datum of the stack and of storage: an unsigned
// 256-bit integer with wraparound arithmetic. Signed opcodes (SDIV, SMOD,
// SLT, SGT, SAR) reinterpret a Word's bits as two's-complement.
type Word = uint256.Int

// NewWord constructs a Word from a uint64.
func NewWord(v uint64) *Word { return uint256.NewInt(v) }

// AddressLength is the byte length of an Address (160 bits).
const AddressLength = 20

// Address is a 160-bit account identifier: the low 20 bytes of the
// Keccak-256 hash of a public key, or of RLP([sender, nonce]) / the CREATE2
// preimage for contract addresses.
type Address [AddressLength]byte

// BytesToAddress right-aligns b into an Address, truncating from the left
// if b is longer than AddressLength.
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// IsZero reports whether every byte of the address is zero.
func (a Address) IsZero() bool { return a == Address{} }

// Bytes returns a's bytes as a freshly-allocated slice.
func (a Address) Bytes() []byte { return a[:] }

func (a Address) String() string { return fmt.Sprintf("0x%x", a[:]) }

// Hex is an alias for String, matching the teacher's hex-printing idiom
// used across log call sites.
func (a Address) Hex() string { return a.String() }

// HashLength is the byte length of a Hash256 (256 bits).
const HashLength = 32

// Hash256 is the 256-bit output of Keccak-256: account keys in the state
// trie, storage keys, trie node references, transaction/block hashes.
type Hash256 [HashLength]byte

// BytesToHash right-aligns b into a Hash256, truncating from the left if b
// is longer than HashLength.
func BytesToHash(b []byte) Hash256 {
	var h Hash256
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash parses a "0x"-prefixed or bare hex string into a Hash256. It is
// lenient about malformed input (used mainly in tests and log fixtures):
// if the string does not decode as hex, the result is the zero hash.
func HexToHash(s string) Hash256 {
	b, err := decodeHex(s)
	if err != nil {
		return Hash256{}
	}
	return BytesToHash(b)
}

func decodeHex(s string) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, fmt.Errorf("types: invalid hex digit %q", c)
	}
}

// IsZero reports whether every byte of the hash is zero.
func (h Hash256) IsZero() bool { return h == Hash256{} }

// Bytes returns h's bytes as a freshly-allocated slice.
func (h Hash256) Bytes() []byte { return h[:] }

func (h Hash256) String() string { return fmt.Sprintf("0x%x", h[:]) }

func (h Hash256) Hex() string { return h.String() }

// EmptyCodeHash is Keccak256("") — the code_hash of an account with no
// code. Computed once via a known test vector to avoid an import cycle with
// the crypto package (which itself depends on types.Address/Hash256).
var EmptyCodeHash = Hash256{
	0xc5, 0xd2, 0x46, 0x01, 0x86, 0xf7, 0x23, 0x3c,
	0x92, 0x7e, 0x7d, 0xb2, 0xdc, 0xc7, 0x03, 0xc0,
	0xe5, 0x00, 0xb6, 0x53, 0xca, 0x82, 0x27, 0x3b,
	0x7b, 0xfa, 0xd8, 0x04, 0x5d, 0x85, 0xa4, 0x70,
}

// EmptyRootHash is the root hash of an empty Modified Merkle-Patricia
// Trie — Keccak256(RLP("")) — used as storage_root for accounts with no
// storage entries.
var EmptyRootHash = Hash256{
	0x56, 0xe8, 0x1f, 0x17, 0x1b, 0xcc, 0x55, 0xa6,
	0xff, 0x83, 0x45, 0xe6, 0x92, 0xc0, 0xf8, 0x6e,
	0x5b, 0x48, 0xe0, 0x1b, 0x99, 0x6c, 0xad, 0xc0,
	0x01, 0x62, 0x2f, 0xb5, 0xe3, 0x63, 0xb4, 0x21,
}
