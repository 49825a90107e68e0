package trie

import (
	"github.com/eth2030/eth2030/core/types"
)

// node is the common interface of every MPT node shape. Only four
// concrete shapes exist: valueNode (a leaf's stored bytes), hashNode (a
// reference to a node serialised elsewhere, ≥32 bytes), shortNode
// (extension or leaf, disambiguated by whether Val is a valueNode), and
// fullNode (a 17-slot branch).
type node interface {
	cachedHash() types.Hash256
}

type (
	valueNode []byte

	hashNode types.Hash256

	shortNode struct {
		key  []byte // hex nibbles, terminator-marked if a leaf
		val  node
		hash types.Hash256 // not filled in by the encoders in codec.go; stays zero
	}

	fullNode struct {
		children [17]node // slots 0-15 by nibble, slot 16 holds a value at this path
		hash     types.Hash256
	}
)

func (valueNode) cachedHash() types.Hash256    { return types.Hash256{} }
func (h hashNode) cachedHash() types.Hash256   { return types.Hash256(h) }
func (n *shortNode) cachedHash() types.Hash256 { return n.hash }
func (n *fullNode) cachedHash() types.Hash256  { return n.hash }

func (n *shortNode) copy() *shortNode {
	cp := *n
	return &cp
}

func (n *fullNode) copy() *fullNode {
	cp := *n
	return &cp
}
