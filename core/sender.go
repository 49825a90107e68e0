package core

import (
	"errors"
	"math/big"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
)

var ErrInvalidSignature = errors.New("core: invalid transaction signature")

// Sender recovers the signing address of tx, applying EIP-155's chain-
// ID-aware signing preimage when tx.V encodes one, and falling back to
// the plain pre-155 preimage otherwise (§4.2 Initialize's signature
// recovery step).
func Sender(tx *types.Transaction) (types.Address, error) {
	var chainID *big.Int
	if id, ok := tx.ChainID(); ok {
		chainID = id
	}
	preimage, err := tx.SigningPreimage(chainID)
	if err != nil {
		return types.Address{}, err
	}
	digest := crypto.Keccak256(preimage)

	recID, err := tx.RecoveryID()
	if err != nil {
		return types.Address{}, err
	}
	sig := make([]byte, 65)
	rBytes := tx.R.Bytes()
	sBytes := tx.S.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = recID

	pub, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		return types.Address{}, ErrInvalidSignature
	}
	return crypto.PubkeyToAddress(pub)
}
