package vm

import "github.com/eth2030/eth2030/core/types"

// operation is one jump-table slot: the instruction's fixed gas cost and
// its handler. Handlers report whether they moved the program counter
// themselves (jumped, for JUMP/JUMPI) and whether the frame halted
// (halt, for STOP/RETURN/REVERT/SELFDESTRUCT); the interpreter's Run
// loop advances pc by one only when neither applies.
type operation struct {
	execute     func(i *Interpreter, f *Frame) (jumped, halt bool, err error)
	constantGas uint64
}

// Interpreter runs frames against a shared StateDB and block context
// under one fork schedule. It owns the opcode jump table (built once,
// per §4.1's "dense instruction-metadata table") and a per-code-hash
// cache of valid jump destinations, since hashing and walking a
// contract's code on every JUMP would be wasteful for hot loops.
type Interpreter struct {
	state      StateDB
	block      BlockContext
	fork       ForkFlags
	chainID    *types.Word
	jumpTable  [256]operation
	destsCache map[types.Hash256]map[uint64]struct{}
	depth      int
}

// NewInterpreter builds an interpreter bound to the given state view,
// block context and fork schedule. A single Interpreter is reused
// across the nested frames of one transaction so the jump destination
// cache amortises across CALLs into the same contract code.
func NewInterpreter(state StateDB, block BlockContext, fork ForkFlags) *Interpreter {
	i := &Interpreter{state: state, block: block, fork: fork, destsCache: make(map[types.Hash256]map[uint64]struct{})}
	i.jumpTable = newJumpTable(fork)
	return i
}

func (i *Interpreter) destsFor(codeHash types.Hash256, code []byte) map[uint64]struct{} {
	if d, ok := i.destsCache[codeHash]; ok {
		return d
	}
	d := validJumpDests(code)
	i.destsCache[codeHash] = d
	return d
}

// Run executes frame from its current program counter until it halts,
// reverts or fails. The returned byte slice is the frame's return data
// (empty for STOP, the revert reason for REVERT, the requested slice
// for RETURN).
func (i *Interpreter) Run(f *Frame) ([]byte, error) {
	for {
		if int(f.pc) >= len(f.Code) {
			return nil, nil
		}
		op := OpCode(f.Code[f.pc])
		entry := i.jumpTable[op]
		if entry.execute == nil {
			return nil, ErrInvalidInstruction
		}
		if err := f.useGas(entry.constantGas); err != nil {
			return nil, err
		}
		jumped, halt, err := entry.execute(i, f)
		if err != nil {
			if err == ErrExecutionReverted {
				return f.returnData, err
			}
			return nil, err
		}
		if halt {
			return f.returnData, nil
		}
		if !jumped {
			f.pc++
		}
	}
}

// newJumpTable builds the fixed opcode dispatch table. Dynamic gas
// (memory expansion, SHA3/COPY word costs, SSTORE's tri-state schedule,
// CALL's 63/64 cap) is charged by the handler itself via f.useGas, since
// it depends on operand values the table cannot know in advance; only
// each opcode's constant base cost lives in the table.
func newJumpTable(fork ForkFlags) [256]operation {
	var t [256]operation

	set := func(op OpCode, gas uint64, fn func(*Interpreter, *Frame) (bool, bool, error)) {
		t[op] = operation{execute: fn, constantGas: gas}
	}

	set(STOP, 0, opStop)
	set(ADD, GasFastestStep, opAdd)
	set(MUL, GasFastStep, opMul)
	set(SUB, GasFastestStep, opSub)
	set(DIV, GasFastStep, opDiv)
	set(SDIV, GasFastStep, opSdiv)
	set(MOD, GasFastStep, opMod)
	set(SMOD, GasFastStep, opSmod)
	set(ADDMOD, GasMidStep, opAddMod)
	set(MULMOD, GasMidStep, opMulMod)
	set(EXP, GasSlowStep, opExp)
	set(SIGNEXTEND, GasFastStep, opSignExtend)

	set(LT, GasFastestStep, opLt)
	set(GT, GasFastestStep, opGt)
	set(SLT, GasFastestStep, opSlt)
	set(SGT, GasFastestStep, opSgt)
	set(EQ, GasFastestStep, opEq)
	set(ISZERO, GasFastestStep, opIsZero)
	set(AND, GasFastestStep, opAnd)
	set(OR, GasFastestStep, opOr)
	set(XOR, GasFastestStep, opXor)
	set(NOT, GasFastestStep, opNot)
	set(BYTE, GasFastestStep, opByte)
	if fork.Constantinople {
		set(SHL, GasFastestStep, opShl)
		set(SHR, GasFastestStep, opShr)
		set(SAR, GasFastestStep, opSar)
	}

	set(SHA3, GasFastStep+30, opSha3)

	set(ADDRESS, GasQuickStep, opAddress)
	set(BALANCE, GasBalance, opBalance)
	set(ORIGIN, GasQuickStep, opOrigin)
	set(CALLER, GasQuickStep, opCaller)
	set(CALLVALUE, GasQuickStep, opCallValue)
	set(CALLDATALOAD, GasFastestStep, opCallDataLoad)
	set(CALLDATASIZE, GasQuickStep, opCallDataSize)
	set(CALLDATACOPY, GasFastestStep, opCallDataCopy)
	set(CODESIZE, GasQuickStep, opCodeSize)
	set(CODECOPY, GasFastestStep, opCodeCopy)
	set(GASPRICE, GasQuickStep, opGasPrice)
	set(EXTCODESIZE, GasExtcodeSize, opExtCodeSize)
	set(EXTCODECOPY, GasExtcodeCopy, opExtCodeCopy)
	if fork.Byzantium {
		set(RETURNDATASIZE, GasQuickStep, opReturnDataSize)
		set(RETURNDATACOPY, GasFastestStep, opReturnDataCopy)
	}
	if fork.Constantinople {
		set(EXTCODEHASH, GasExtcodeHash, opExtCodeHash)
	}

	set(BLOCKHASH, GasExtStep, opBlockHash)
	set(COINBASE, GasQuickStep, opCoinbase)
	set(TIMESTAMP, GasQuickStep, opTimestamp)
	set(NUMBER, GasQuickStep, opNumber)
	set(DIFFICULTY, GasQuickStep, opDifficulty)
	set(GASLIMIT, GasQuickStep, opGasLimit)
	set(CHAINID, GasQuickStep, opChainID)
	set(SELFBALANCE, GasFastStep, opSelfBalance)

	set(POP, GasQuickStep, opPop)
	set(MLOAD, GasFastestStep, opMLoad)
	set(MSTORE, GasFastestStep, opMStore)
	set(MSTORE8, GasFastestStep, opMStore8)
	set(SLOAD, GasSload, opSLoad)
	set(SSTORE, 0, opSStore)
	set(JUMP, GasMidStep, opJump)
	set(JUMPI, GasSlowStep, opJumpI)
	set(PC, GasQuickStep, opPC)
	set(MSIZE, GasQuickStep, opMSize)
	set(GAS, GasQuickStep, opGas)
	set(JUMPDEST, GasJumpdest, opJumpDest)

	for op := PUSH1; op <= PUSH32; op++ {
		set(op, GasFastestStep, opPush)
	}
	for op := DUP1; op <= DUP16; op++ {
		set(op, GasFastestStep, opDup)
	}
	for op := SWAP1; op <= SWAP16; op++ {
		set(op, GasFastestStep, opSwap)
	}
	for op := LOG0; op <= LOG4; op++ {
		set(op, GasLog, opLog)
	}

	set(CREATE, GasCreate, opCreate)
	set(CALL, GasCall, opCall)
	set(CALLCODE, GasCall, opCallCode)
	set(RETURN, 0, opReturn)
	set(DELEGATECALL, GasCall, opDelegateCall)
	if fork.Constantinople {
		set(CREATE2, GasCreate, opCreate2)
	}
	if fork.Byzantium {
		set(STATICCALL, GasCall, opStaticCall)
		set(REVERT, 0, opRevert)
	}
	set(INVALID, 0, opInvalid)
	set(SELFDESTRUCT, GasSelfdestruct, opSelfDestruct)

	return t
}
