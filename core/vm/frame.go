package vm

import (
	"math/big"

	"github.com/eth2030/eth2030/core/types"
)

// MaxCallDepth is the hard cap on nested CALL/CREATE depth (§4.1).
const MaxCallDepth = 1024

// BlockContext carries the block-scoped environment values every frame
// reads but no frame mutates: COINBASE, TIMESTAMP, NUMBER, DIFFICULTY,
// GASLIMIT, CHAINID, and the last-256 block hash lookup.
type BlockContext struct {
	Coinbase    types.Address
	GasLimit    uint64
	BlockNumber *big.Int
	Timestamp   uint64
	Difficulty  *big.Int
	ChainID     *big.Int

	// GetHash returns the hash of block n, or the zero hash if n is not
	// one of the 256 most recent blocks (§4.1 BLOCKHASH).
	GetHash func(n uint64) types.Hash256
}

// StateDB is the subset of core/state.StateDB the interpreter and its
// instruction handlers depend on, kept as an interface here so vm does
// not import state directly (state already imports vm's sibling
// packages transitively through types; this keeps the dependency
// one-directional: core -> {vm, state}, not vm -> state).
type StateDB interface {
	GetBalance(types.Address) *types.Word
	SetBalance(types.Address, *types.Word)
	AddBalance(types.Address, *types.Word)
	SubBalance(types.Address, *types.Word)
	GetNonce(types.Address) uint64
	SetNonce(types.Address, uint64)
	GetCodeHash(types.Address) types.Hash256
	GetCode(types.Address) []byte
	GetCodeSize(types.Address) int
	SetCode(types.Address, []byte)
	GetState(types.Address, types.Hash256) types.Hash256
	GetCommittedState(types.Address, types.Hash256) types.Hash256
	SetState(types.Address, types.Hash256, types.Hash256)
	Exists(types.Address) bool
	Empty(types.Address) bool
	CreateAccount(types.Address)
	SelfDestruct(types.Address)
	HasSelfDestructed(types.Address) bool
	AddRefund(uint64)
	SubRefund(uint64)
	Refund() uint64
	AddLog(*types.LogEntry)
	Snapshot() int
	RevertToSnapshot(int)
}

// Frame is one activation of the VM: a transaction's top-level call or
// any nested CALL/CREATE (§GLOSSARY). Frame plays the role of the
// teacher lineage's "Contract" execution context type, scoped here to
// exactly the fields §4.1's "execution environment" names.
type Frame struct {
	Code         []byte
	Caller       types.Address
	Origin       types.Address // constant across nested frames
	Address      types.Address // this_address
	Input        []byte
	Value        *types.Word
	GasPrice     *big.Int
	Depth        int
	IsStatic     bool
	destinations map[uint64]struct{} // cached valid JUMPDEST set

	pc         uint64
	gas        uint64
	stack      *Stack
	memory     *Memory
	returnData []byte
	codeHash   *types.Hash256 // lazily computed, see Interpreter.destsFor
}

// NewFrame constructs a frame ready to Run. gas is the amount already
// charged to this frame by its caller (or by Executive.Execute for the
// top-level frame).
func NewFrame(code []byte, caller, origin, address types.Address, input []byte, value *types.Word, gasPrice *big.Int, gas uint64, depth int, static bool) *Frame {
	return &Frame{
		Code: code, Caller: caller, Origin: origin, Address: address,
		Input: input, Value: value, GasPrice: gasPrice, Depth: depth,
		IsStatic: static, gas: gas, stack: newStack(), memory: newMemory(),
	}
}

func (f *Frame) GasRemaining() uint64 { return f.gas }
func (f *Frame) ReturnData() []byte   { return f.returnData }

func (f *Frame) useGas(amount uint64) error {
	if f.gas < amount {
		f.gas = 0
		return ErrOutOfGas
	}
	f.gas -= amount
	return nil
}

func (f *Frame) refundGas(amount uint64) { f.gas += amount }

// validJumpDests computes (and caches on the frame's code, logically
// keyed by code hash at the interpreter level — see Interpreter.destsFor)
// the set of byte offsets in Code that are a JUMPDEST opcode reachable
// as an instruction start, not inside a PUSH's immediate bytes.
func validJumpDests(code []byte) map[uint64]struct{} {
	dests := make(map[uint64]struct{})
	for i := 0; i < len(code); {
		op := OpCode(code[i])
		if op == JUMPDEST {
			dests[uint64(i)] = struct{}{}
			i++
			continue
		}
		if op.IsPush() {
			i += 1 + op.PushSize()
			continue
		}
		i++
	}
	return dests
}
