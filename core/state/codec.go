package state

import (
	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/rlp"
)

// encodeAccount returns the trie value for an account: RLP([nonce,
// balance, storage_root, code_hash]) per §4.3.
func encodeAccount(a *types.Account) ([]byte, error) {
	return rlp.EncodeList(a.Nonce, a.Balance, a.StorageRoot.Bytes(), a.CodeHash.Bytes())
}

func decodeAccount(enc []byte) (*types.Account, error) {
	items, err := rlp.SplitList(enc)
	if err != nil {
		return nil, err
	}
	nonce, err := rlp.Uint64(items[0])
	if err != nil {
		return nil, err
	}
	balance, err := rlp.Word(items[1])
	if err != nil {
		return nil, err
	}
	storageRootBytes, err := rlp.Bytes(items[2])
	if err != nil {
		return nil, err
	}
	codeHashBytes, err := rlp.Bytes(items[3])
	if err != nil {
		return nil, err
	}
	return &types.Account{
		Nonce:       nonce,
		Balance:     balance,
		StorageRoot: types.BytesToHash(storageRootBytes),
		CodeHash:    types.BytesToHash(codeHashBytes),
	}, nil
}

// wordToRLP encodes a single storage value with trailing zero bytes
// stripped, per §4.3 ("RLP(value_word) with trailing zeros stripped" —
// read as leading zeros in big-endian byte order, RLP's own convention).
func wordToRLP(h types.Hash256) ([]byte, error) {
	return rlp.Encode(new(types.Word).SetBytes(h.Bytes()))
}

func wordFromRLP(enc []byte) (*types.Word, error) {
	return rlp.Word(enc)
}
