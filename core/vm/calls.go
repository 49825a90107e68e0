package vm

import (
	"math/big"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
	"github.com/eth2030/eth2030/rlp"
	"github.com/holiman/uint256"
)

// callKind distinguishes the four call-family opcodes by how they set
// up the callee frame's Address/Caller/Value/code-execution rules
// (§4.1's CALL/CALLCODE/DELEGATECALL/STATICCALL family).
type callKind int

const (
	callRegular callKind = iota
	callCode
	callDelegate
	callStatic
)

func opCall(i *Interpreter, f *Frame) (bool, bool, error)         { return i.doCall(f, callRegular) }
func opCallCode(i *Interpreter, f *Frame) (bool, bool, error)     { return i.doCall(f, callCode) }
func opDelegateCall(i *Interpreter, f *Frame) (bool, bool, error) { return i.doCall(f, callDelegate) }
func opStaticCall(i *Interpreter, f *Frame) (bool, bool, error)   { return i.doCall(f, callStatic) }

// doCall implements the shared mechanics of CALL/CALLCODE/DELEGATECALL/
// STATICCALL: pop the opcode's operands (the set varies in exactly one
// place — whether a value operand is present), stage input from memory,
// apply the EIP-150 63/64 gas cap, run (or precompile-dispatch) a child
// frame under a state snapshot, and write 1/0 plus the return data back
// to the caller.
func (i *Interpreter) doCall(f *Frame, kind callKind) (bool, bool, error) {
	gasReq, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	addrW, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	var value uint256.Int
	if kind == callRegular || kind == callCode {
		v, err := f.stack.Pop()
		if err != nil {
			return false, false, err
		}
		value = *v
	}
	inOff, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	inSize, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	outOff, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	outSize, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}

	if (kind == callRegular) && f.IsStatic && !value.IsZero() {
		return false, false, ErrStaticModeViolation
	}

	if err := chargeMemory(f, inOff.Uint64(), inSize.Uint64()); err != nil {
		return false, false, err
	}
	if err := chargeMemory(f, outOff.Uint64(), outSize.Uint64()); err != nil {
		return false, false, err
	}
	input := f.memory.Get(inOff.Uint64(), inSize.Uint64())
	target := addressFromWord(addrW)

	if kind == callRegular && !value.IsZero() && !i.state.Exists(target) {
		if err := f.useGas(GasCallNewAccount); err != nil {
			return false, false, err
		}
	}
	if !value.IsZero() {
		if err := f.useGas(GasCallValue); err != nil {
			return false, false, err
		}
	}

	available := CallGasCap(f.gas)
	childGas := gasReq.Uint64()
	if childGas > available {
		childGas = available
	}
	if err := f.useGas(childGas); err != nil {
		return false, false, err
	}
	stipend := uint64(0)
	if !value.IsZero() {
		stipend = GasCallStipend
	}

	callerAddr, execAddr, codeAddr, callValue, static := f.Address, target, target, &value, f.IsStatic
	switch kind {
	case callCode:
		execAddr = f.Address
	case callDelegate:
		execAddr = f.Address
		callerAddr = f.Caller
		callValue = f.Value
	case callStatic:
		static = true
	}

	ok, ret, gasLeft := i.runChild(f, callerAddr, execAddr, codeAddr, target, callValue, input, childGas+stipend, static)
	f.refundGas(gasLeft)
	f.returnData = ret
	writeOut := ret
	if uint64(len(writeOut)) > outSize.Uint64() {
		writeOut = writeOut[:outSize.Uint64()]
	}
	f.memory.Set(outOff.Uint64(), writeOut)

	result := uint256.Int{}
	if ok {
		result.SetOne()
	}
	return false, false, f.stack.Push(&result)
}

// runChild executes one nested CALL-family invocation: precompiles
// dispatch directly, everything else snapshots state, builds a child
// Frame from codeAddr's code, and recurses through Run. A reverted or
// failed child leaves state exactly as it was at the snapshot.
func (i *Interpreter) runChild(parent *Frame, caller, execAddr, codeAddr, valueTarget types.Address, value *uint256.Int, input []byte, gas uint64, static bool) (ok bool, ret []byte, gasLeft uint64) {
	if parent.Depth+1 > MaxCallDepth {
		return false, nil, gas
	}

	snapshot := i.state.Snapshot()
	if value != nil && !value.IsZero() {
		if i.state.GetBalance(caller).Lt(value) {
			i.state.RevertToSnapshot(snapshot)
			return false, nil, gas
		}
		i.state.SubBalance(caller, value)
		i.state.AddBalance(valueTarget, value)
	}

	if fn, isPrecompile := precompiles[codeAddr]; isPrecompile {
		out, remaining, err := fn(input, gas)
		if err != nil {
			i.state.RevertToSnapshot(snapshot)
			return false, nil, 0
		}
		return true, out, remaining
	}
	code := i.state.GetCode(codeAddr)
	child := NewFrame(code, caller, parent.Origin, execAddr, input, value, parent.GasPrice, gas, parent.Depth+1, static)
	i.depth = child.Depth
	out, err := i.Run(child)
	if err != nil {
		i.state.RevertToSnapshot(snapshot)
		if err == ErrExecutionReverted {
			return false, out, child.gas
		}
		return false, nil, 0
	}
	return true, out, child.gas
}

func opCreate(i *Interpreter, f *Frame) (bool, bool, error)  { return i.doCreate(f, false) }
func opCreate2(i *Interpreter, f *Frame) (bool, bool, error) { return i.doCreate(f, true) }

// doCreate implements CREATE/CREATE2 (§4.1, §4.2 creation path): stage
// init code from memory, derive the new contract's address (nonce-based
// for CREATE, salt-and-initcode-hash-based for CREATE2), run the init
// code as a frame whose return value becomes the deployed code, and
// enforce the EIP-170 code size limit before installing it.
func (i *Interpreter) doCreate(f *Frame, withSalt bool) (bool, bool, error) {
	if f.IsStatic {
		return false, false, ErrStaticModeViolation
	}
	value, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	offset, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	size, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	var salt uint256.Int
	if withSalt {
		s, err := f.stack.Pop()
		if err != nil {
			return false, false, err
		}
		salt = *s
	}
	if err := chargeMemory(f, offset.Uint64(), size.Uint64()); err != nil {
		return false, false, err
	}
	initCode := f.memory.Get(offset.Uint64(), size.Uint64())

	nonce := i.state.GetNonce(f.Address)
	var newAddr types.Address
	if withSalt {
		newAddr = create2Address(f.Address, salt.Bytes32(), initCode)
	} else {
		newAddr = createAddress(f.Address, nonce)
	}
	i.state.SetNonce(f.Address, nonce+1)

	if i.state.Exists(newAddr) && (i.state.GetCodeSize(newAddr) > 0 || i.state.GetNonce(newAddr) > 0) {
		result := uint256.Int{}
		return false, false, f.stack.Push(&result)
	}

	childGas := CallGasCap(f.gas)
	if err := f.useGas(childGas); err != nil {
		return false, false, err
	}

	snapshot := i.state.Snapshot()
	i.state.CreateAccount(newAddr)
	if !value.IsZero() {
		if i.state.GetBalance(f.Address).Lt(value) {
			i.state.RevertToSnapshot(snapshot)
			f.refundGas(childGas)
			result := uint256.Int{}
			return false, false, f.stack.Push(&result)
		}
		i.state.SubBalance(f.Address, value)
		i.state.AddBalance(newAddr, value)
	}

	child := NewFrame(initCode, f.Address, f.Origin, newAddr, nil, value, f.GasPrice, childGas, f.Depth+1, false)
	out, err := i.Run(child)

	var pushResult uint256.Int
	if err != nil {
		i.state.RevertToSnapshot(snapshot)
		if !gasConsumingError(err) {
			f.refundGas(child.gas)
		}
		f.returnData = out
		return false, false, f.stack.Push(&pushResult)
	}
	if len(out) > MaxCodeSize {
		i.state.RevertToSnapshot(snapshot)
		return false, false, f.stack.Push(&pushResult)
	}
	codeDeposit := uint64(len(out)) * GasCreateDataByte
	if err := child.useGas(codeDeposit); err != nil {
		i.state.RevertToSnapshot(snapshot)
		return false, false, f.stack.Push(&pushResult)
	}
	i.state.SetCode(newAddr, out)
	f.refundGas(child.gas)
	pushResult.SetBytes(newAddr[:])
	return false, false, f.stack.Push(&pushResult)
}

// createAddress derives the CREATE contract address: the low 20 bytes
// of keccak256(rlp([sender, nonce])).
func createAddress(sender types.Address, nonce uint64) types.Address {
	enc, _ := rlp.EncodeList(sender.Bytes(), nonceBytes(nonce))
	h := crypto.Keccak256(enc)
	return types.BytesToAddress(h[12:])
}

// create2Address derives the CREATE2 contract address (EIP-1014): the
// low 20 bytes of keccak256(0xff ++ sender ++ salt ++ keccak256(initCode)).
func create2Address(sender types.Address, salt [32]byte, initCode []byte) types.Address {
	initHash := crypto.Keccak256(initCode)
	buf := make([]byte, 0, 1+20+32+32)
	buf = append(buf, 0xff)
	buf = append(buf, sender.Bytes()...)
	buf = append(buf, salt[:]...)
	buf = append(buf, initHash...)
	h := crypto.Keccak256(buf)
	return types.BytesToAddress(h[12:])
}

func nonceBytes(nonce uint64) []byte {
	if nonce == 0 {
		return nil
	}
	b := big.NewInt(0).SetUint64(nonce).Bytes()
	return b
}
