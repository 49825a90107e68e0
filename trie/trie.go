package trie

import (
	"errors"
	"fmt"

	"github.com/eth2030/eth2030/core/types"
)

// NodeStore is the content-addressed node database a Trie resolves
// references against and flushes new nodes into on Commit: hash ->
// RLP-encoded node bytes. An in-memory map satisfies it directly; a
// disk-backed store is outside this repository's scope (§1 Non-goals).
type NodeStore interface {
	Get(hash types.Hash256) ([]byte, bool)
	Put(hash types.Hash256, enc []byte)
}

// MemStore is the in-memory NodeStore used throughout this implementation.
type MemStore struct{ nodes map[types.Hash256][]byte }

func NewMemStore() *MemStore { return &MemStore{nodes: make(map[types.Hash256][]byte)} }

func (s *MemStore) Get(hash types.Hash256) ([]byte, bool) { v, ok := s.nodes[hash]; return v, ok }
func (s *MemStore) Put(hash types.Hash256, enc []byte)    { s.nodes[hash] = enc }

// Trie is a Modified Merkle-Patricia Trie over RLP values, keyed by the
// raw bytes the caller supplies (the World State hashes addresses and
// storage keys with Keccak-256 before using them as trie keys).
type Trie struct {
	root  node
	store NodeStore
}

// New returns an empty trie backed by store.
func New(store NodeStore) *Trie {
	return &Trie{store: store}
}

// Open resolves an existing trie by its root hash. A zero root (or
// types.EmptyRootHash) yields an empty trie.
func Open(root types.Hash256, store NodeStore) (*Trie, error) {
	t := &Trie{store: store}
	if root.IsZero() || root == types.EmptyRootHash {
		return t, nil
	}
	n, err := t.resolveHash(root)
	if err != nil {
		return nil, err
	}
	t.root = n
	return t, nil
}

var ErrMissingNode = errors.New("trie: referenced node not found in store")

// Get returns the value stored at key, and whether it was present. Per
// §4.3, a key absent from the trie reads as "not present" (the World
// State layer treats that as the zero word).
func (t *Trie) Get(key []byte) ([]byte, bool, error) {
	n, val, _, err := t.get(t.root, keyToNibbles(key))
	t.root = n
	if err != nil {
		return nil, false, err
	}
	if val == nil {
		return nil, false, nil
	}
	return []byte(val.(valueNode)), true, nil
}

func (t *Trie) get(n node, path []byte) (node, node, bool, error) {
	switch nd := n.(type) {
	case nil:
		return nil, nil, false, nil
	case valueNode:
		return nd, nd, false, nil
	case hashNode:
		resolved, err := t.resolveHash(types.Hash256(nd))
		if err != nil {
			return n, nil, false, err
		}
		return t.get(resolved, path)
	case *shortNode:
		if len(path) < len(nd.key) || commonPrefixLen(path, nd.key) != len(nd.key) {
			return n, nil, false, nil
		}
		child, val, _, err := t.get(nd.val, path[len(nd.key):])
		if err != nil {
			return n, nil, false, err
		}
		if child != nd.val {
			cp := nd.copy()
			cp.val = child
			cp.hash = types.Hash256{}
			n = cp
		}
		return n, val, false, nil
	case *fullNode:
		child, val, _, err := t.get(nd.children[path[0]], path[1:])
		if err != nil {
			return n, nil, false, err
		}
		if child != nd.children[path[0]] {
			cp := nd.copy()
			cp.children[path[0]] = child
			cp.hash = types.Hash256{}
			n = cp
		}
		return n, val, false, nil
	default:
		return n, nil, false, fmt.Errorf("trie: unexpected node type %T", n)
	}
}

// Update inserts or overwrites the value at key. Per §4.3, writing the
// zero value is equivalent to deletion: an empty value deletes key. The
// state layer calls Delete itself for zero-valued storage slots, so this
// is purely a bytes operation here.
func (t *Trie) Update(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	root, err := t.insert(t.root, keyToNibbles(key), valueNode(value))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Trie) insert(n node, path []byte, value node) (node, error) {
	if len(path) == 0 {
		return value, nil
	}
	switch nd := n.(type) {
	case nil:
		return &shortNode{key: append([]byte(nil), path...), val: value}, nil

	case *shortNode:
		match := commonPrefixLen(path, nd.key)
		if match == len(nd.key) {
			child, err := t.insert(nd.val, path[match:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{key: nd.key, val: child}, nil
		}
		// Diverges partway through nd.key: split into a branch.
		branch := &fullNode{}
		var err error
		if match < len(nd.key) {
			branch.children[nd.key[match]], err = t.insert(nil, nd.key[match+1:], nd.val)
			if err != nil {
				return nil, err
			}
		}
		if match < len(path) {
			branch.children[path[match]], err = t.insert(nil, path[match+1:], value)
			if err != nil {
				return nil, err
			}
		} else {
			branch.children[16] = value
		}
		if match == 0 {
			return branch, nil
		}
		return &shortNode{key: path[:match], val: branch}, nil

	case *fullNode:
		cp := nd.copy()
		cp.hash = types.Hash256{}
		var err error
		cp.children[path[0]], err = t.insert(nd.children[path[0]], path[1:], value)
		if err != nil {
			return nil, err
		}
		return cp, nil

	case hashNode:
		resolved, err := t.resolveHash(types.Hash256(nd))
		if err != nil {
			return nil, err
		}
		return t.insert(resolved, path, value)

	default:
		return nil, fmt.Errorf("trie: unexpected node type %T", n)
	}
}

// Delete removes key from the trie, if present. Deleting an absent key
// is a no-op.
func (t *Trie) Delete(key []byte) error {
	root, _, err := t.delete(t.root, keyToNibbles(key))
	if err != nil {
		return err
	}
	t.root = root
	return nil
}

func (t *Trie) delete(n node, path []byte) (node, bool, error) {
	switch nd := n.(type) {
	case nil:
		return nil, false, nil

	case hashNode:
		resolved, err := t.resolveHash(types.Hash256(nd))
		if err != nil {
			return n, false, err
		}
		return t.delete(resolved, path)

	case *shortNode:
		match := commonPrefixLen(path, nd.key)
		if match != len(nd.key) {
			return n, false, nil // key not present
		}
		if match == len(path) {
			return nil, true, nil // this shortNode terminates exactly at key
		}
		child, changed, err := t.delete(nd.val, path[match:])
		if err != nil {
			return n, false, err
		}
		if !changed {
			return n, false, nil
		}
		if child == nil {
			return nil, true, nil
		}
		if cb, ok := child.(*fullNode); ok {
			return &shortNode{key: nd.key, val: cb}, true, nil
		}
		if cs, ok := child.(*shortNode); ok {
			return &shortNode{key: append(append([]byte(nil), nd.key...), cs.key...), val: cs.val}, true, nil
		}
		return &shortNode{key: nd.key, val: child}, true, nil

	case *fullNode:
		idx := path[0]
		child, changed, err := t.delete(nd.children[idx], path[1:])
		if err != nil {
			return n, false, err
		}
		if !changed {
			return n, false, nil
		}
		cp := nd.copy()
		cp.hash = types.Hash256{}
		cp.children[idx] = child
		return collapseFullNode(cp), true, nil

	default:
		return n, false, fmt.Errorf("trie: unexpected node type %T", n)
	}
}

// collapseFullNode replaces a branch left with a single remaining child
// by a shortNode, matching canonical MPT shape (a branch must have at
// least two children, or one child plus a value, to stay a branch).
func collapseFullNode(n *fullNode) node {
	present := -1
	count := 0
	for i, c := range n.children {
		if c != nil {
			count++
			present = i
		}
	}
	if count > 1 {
		return n
	}
	if count == 0 {
		return nil
	}
	if present == 16 {
		return &shortNode{key: []byte{16}, val: n.children[16]}
	}
	child := n.children[present]
	switch c := child.(type) {
	case *shortNode:
		return &shortNode{key: append([]byte{byte(present)}, c.key...), val: c.val}
	default:
		return &shortNode{key: []byte{byte(present)}, val: child}
	}
}

func (t *Trie) resolveHash(h types.Hash256) (node, error) {
	enc, ok := t.store.Get(h)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingNode, h)
	}
	return decodeNode(enc)
}

// Hash returns the root hash without mutating the node store. An empty
// trie's hash is types.EmptyRootHash.
func (t *Trie) Hash() (types.Hash256, error) {
	if t.root == nil {
		return types.EmptyRootHash, nil
	}
	_, hash, _, err := hashNodeTree(t.root, t.store, false)
	if err != nil {
		return types.Hash256{}, err
	}
	return hash, nil
}

// Commit flushes every dirty node (any node reachable without a cached
// hash) to the store and returns the resulting root hash. After Commit,
// the trie's root is the hashNode form, ready to be reopened later.
func (t *Trie) Commit() (types.Hash256, error) {
	if t.root == nil {
		return types.EmptyRootHash, nil
	}
	_, hash, newRoot, err := hashNodeTree(t.root, t.store, true)
	if err != nil {
		return types.Hash256{}, err
	}
	t.root = newRoot
	return hash, nil
}
