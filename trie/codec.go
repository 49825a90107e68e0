package trie

import (
	"errors"
	"fmt"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
	"github.com/eth2030/eth2030/rlp"
)

// decodeNode parses the RLP encoding of a single trie node (a 2-item
// list for a shortNode, or a 17-item list for a fullNode).
func decodeNode(enc []byte) (node, error) {
	items, err := rlp.SplitList(enc)
	if err != nil {
		return nil, fmt.Errorf("trie: decode node: %w", err)
	}
	switch len(items) {
	case 2:
		return decodeShort(items)
	case 17:
		return decodeFull(items)
	default:
		return nil, fmt.Errorf("trie: node has %d items, want 2 or 17", len(items))
	}
}

func decodeShort(items [][]byte) (*shortNode, error) {
	compact, err := rlp.Bytes(items[0])
	if err != nil {
		return nil, err
	}
	leaf := len(compact) > 0 && (compact[0]>>5)&1 == 1
	key := compactToHex(compact)

	if leaf {
		val, err := rlp.Bytes(items[1])
		if err != nil {
			return nil, err
		}
		return &shortNode{key: key, val: valueNode(val)}, nil
	}
	child, err := decodeChild(items[1])
	if err != nil {
		return nil, err
	}
	return &shortNode{key: key, val: child}, nil
}

func decodeFull(items [][]byte) (*fullNode, error) {
	n := &fullNode{}
	for i := 0; i < 16; i++ {
		child, err := decodeChild(items[i])
		if err != nil {
			return nil, err
		}
		n.children[i] = child
	}
	val, err := rlp.Bytes(items[16])
	if err != nil {
		return nil, err
	}
	if len(val) > 0 {
		n.children[16] = valueNode(val)
	}
	return n, nil
}

// decodeChild parses one child slot of a shortNode (extension case) or
// fullNode: either an embedded node (the raw item is itself a list), a
// 32-byte hash reference, or an empty string meaning no child.
func decodeChild(raw []byte) (node, error) {
	h, err := rlp.ReadHeader(raw)
	if err != nil {
		return nil, err
	}
	if h.Kind == rlp.KindList {
		return decodeNode(raw)
	}
	b, err := rlp.Bytes(raw)
	if err != nil {
		return nil, err
	}
	switch len(b) {
	case 0:
		return nil, nil
	case HashLength:
		return hashNode(types.BytesToHash(b)), nil
	default:
		return nil, errors.New("trie: child slot is neither embedded node nor 32-byte hash")
	}
}

// HashLength mirrors types.HashLength to avoid importing it twice under a
// different name at call sites in this file.
const HashLength = types.HashLength

// encodeAndStore returns the RLP encoding of n, recursively resolving any
// dirty children (those without a cached hash) into either an inline
// embedding (<32 bytes) or a stored, hash-referenced child (>=32 bytes).
// When persist is true, every node whose encoding is stored rather than
// embedded is written to store.
func encodeAndStore(n node, store NodeStore, persist bool) ([]byte, error) {
	switch nd := n.(type) {
	case *shortNode:
		keyEnc, err := rlp.Encode(hexToCompact(nd.key))
		if err != nil {
			return nil, err
		}
		var valEnc []byte
		if hasTerm(nd.key) {
			valEnc, err = rlp.Encode([]byte(nd.val.(valueNode)))
		} else {
			valEnc, err = childRef(nd.val, store, persist)
		}
		if err != nil {
			return nil, err
		}
		return rlp.EncodeList(rlp.RawValue(keyEnc), rlp.RawValue(valEnc))

	case *fullNode:
		items := make([]any, 17)
		for i := 0; i < 16; i++ {
			ref, err := childRef(nd.children[i], store, persist)
			if err != nil {
				return nil, err
			}
			items[i] = rlp.RawValue(ref)
		}
		if nd.children[16] != nil {
			enc, err := rlp.Encode([]byte(nd.children[16].(valueNode)))
			if err != nil {
				return nil, err
			}
			items[16] = rlp.RawValue(enc)
		} else {
			items[16] = rlp.RawValue([]byte{0x80})
		}
		return rlp.EncodeList(items...)

	default:
		return nil, fmt.Errorf("trie: cannot encode node type %T", n)
	}
}

// childRef returns the RLP item to place in a parent's child slot for n:
// an empty string for nil, a re-encoded hash string for an already
// hashed reference, or the node's own encoding (embedded, or stored and
// replaced by a hash) for a live subtree.
func childRef(n node, store NodeStore, persist bool) ([]byte, error) {
	switch nd := n.(type) {
	case nil:
		return []byte{0x80}, nil
	case hashNode:
		return rlp.Encode(types.Hash256(nd).Bytes())
	case *shortNode, *fullNode:
		enc, err := encodeAndStore(nd, store, persist)
		if err != nil {
			return nil, err
		}
		if len(enc) < HashLength {
			return enc, nil
		}
		hash := types.BytesToHash(crypto.Keccak256(enc))
		if persist {
			store.Put(hash, enc)
		}
		return rlp.Encode(hash.Bytes())
	default:
		return nil, fmt.Errorf("trie: unexpected child node type %T", n)
	}
}

// hashNodeTree computes the full encoding of the subtree rooted at n,
// returning that encoding, its Keccak-256 hash, and the node to keep as
// the root: the hashNode form when persist is true (the encoding is then
// stored under that hash), or n itself otherwise.
//
// The top-level root is always hashed regardless of its encoded size
// (unlike interior nodes, which may be embedded below 32 bytes), matching
// this implementation's fork range's convention for the state and
// storage trie roots.
func hashNodeTree(n node, store NodeStore, persist bool) (enc []byte, hash types.Hash256, newRoot node, err error) {
	enc, err = encodeAndStore(n, store, persist)
	if err != nil {
		return nil, types.Hash256{}, nil, err
	}
	hash = types.BytesToHash(crypto.Keccak256(enc))
	if persist {
		store.Put(hash, enc)
		newRoot = hashNode(hash)
	} else {
		newRoot = n
	}
	return enc, hash, newRoot, nil
}
