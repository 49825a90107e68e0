// Package crypto provides the hash and signature primitives the Executive
// and World State need: Keccak-256 (the hash function behind account
// addresses, trie node references, and transaction hashes) and secp256k1
// ECDSA signing/recovery (transaction authentication).
package crypto

import (
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/eth2030/eth2030/core/types"
)

// Keccak256 hashes the concatenation of its arguments with Keccak-256 (the
// original, pre-NIST-padding variant — not SHA3-256).
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	return h.Sum(nil)
}

// Keccak256Hash is Keccak256 with the result packaged as a types.Hash256.
func Keccak256Hash(data ...[]byte) types.Hash256 {
	return types.BytesToHash(Keccak256(data...))
}

// SignatureLength is the byte length of a [R || S || V] signature, where V
// is the single-byte recovery identifier (0 or 1).
const SignatureLength = 65

var (
	ErrInvalidSignatureLen = errors.New("crypto: invalid signature length")
	ErrInvalidRecoveryID   = errors.New("crypto: invalid recovery id")
	ErrInvalidMessageLen   = errors.New("crypto: hash must be 32 bytes")
)

// Sign produces a 65-byte [R || S || V] signature over a 32-byte digest
// using a raw secp256k1 private key (32 bytes, big-endian).
func Sign(digest []byte, prv []byte) ([]byte, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidMessageLen
	}
	key := secp256k1.PrivKeyFromBytes(prv)
	sig, err := signRecoverable(key, digest)
	if err != nil {
		return nil, fmt.Errorf("crypto: sign: %w", err)
	}
	return sig, nil
}

// Ecrecover recovers the 65-byte uncompressed public key that produced sig
// over digest. sig must be 65 bytes [R || S || V] with V in {0, 1}.
func Ecrecover(digest, sig []byte) ([]byte, error) {
	pub, err := SigToPub(digest, sig)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// SigToPub recovers the secp256k1 public key from a digest and signature.
func SigToPub(digest, sig []byte) (*secp256k1.PublicKey, error) {
	if len(digest) != 32 {
		return nil, ErrInvalidMessageLen
	}
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignatureLen
	}
	if sig[64] > 1 {
		return nil, ErrInvalidRecoveryID
	}

	// the decred library's recoverable signature format is
	// [header-byte || R || S], header = 27 + recID (+4 if compressed).
	compact := make([]byte, SignatureLength)
	compact[0] = 27 + 4 + sig[64]
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pub, _, err := ecdsa.RecoverCompact(compact, digest)
	if err != nil {
		return nil, fmt.Errorf("crypto: recover: %w", err)
	}
	return pub, nil
}

// PubkeyToAddress derives the 20-byte account address from an uncompressed
// (65-byte, 0x04-prefixed) secp256k1 public key: the low 20 bytes of
// Keccak256 of the 64 non-prefix bytes.
func PubkeyToAddress(pub []byte) (types.Address, error) {
	if len(pub) != 65 || pub[0] != 4 {
		return types.Address{}, errors.New("crypto: invalid uncompressed public key")
	}
	var addr types.Address
	copy(addr[:], Keccak256(pub[1:])[12:])
	return addr, nil
}

func signRecoverable(key *secp256k1.PrivateKey, digest []byte) ([]byte, error) {
	compact := ecdsa.SignCompact(key, digest, false)
	if len(compact) != SignatureLength {
		return nil, errors.New("crypto: unexpected compact signature length")
	}
	header := compact[0]
	recID := (header - 27) & ^byte(4)

	out := make([]byte, SignatureLength)
	copy(out[0:32], compact[1:33])
	copy(out[32:64], compact[33:65])
	out[64] = recID
	return out, nil
}
