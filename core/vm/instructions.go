package vm

import (
	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
	"github.com/holiman/uint256"
)

// u256 is a local alias kept for readability in handler signatures; it
// is exactly uint256.Int, the word type the stack and Word share.
type u256 = uint256.Int

func opStop(i *Interpreter, f *Frame) (bool, bool, error) {
	f.returnData = nil
	return false, true, nil
}

func opInvalid(i *Interpreter, f *Frame) (bool, bool, error) {
	return false, false, ErrInvalidInstruction
}

// binary stack ops: pop x, y (x on top); push f(x, y).

func opAdd(i *Interpreter, f *Frame) (bool, bool, error)  { return binOp(f, u256.Add) }
func opMul(i *Interpreter, f *Frame) (bool, bool, error)  { return binOp(f, u256.Mul) }
func opSub(i *Interpreter, f *Frame) (bool, bool, error)  { return binOp(f, u256.Sub) }
func opDiv(i *Interpreter, f *Frame) (bool, bool, error)  { return binOp(f, u256.Div) }
func opSdiv(i *Interpreter, f *Frame) (bool, bool, error) { return binOp(f, u256.SDiv) }
func opMod(i *Interpreter, f *Frame) (bool, bool, error)  { return binOp(f, u256.Mod) }
func opSmod(i *Interpreter, f *Frame) (bool, bool, error) { return binOp(f, u256.SMod) }
func opAnd(i *Interpreter, f *Frame) (bool, bool, error)  { return binOp(f, u256.And) }
func opOr(i *Interpreter, f *Frame) (bool, bool, error)   { return binOp(f, u256.Or) }
func opXor(i *Interpreter, f *Frame) (bool, bool, error)  { return binOp(f, u256.Xor) }

// binOp implements the standard two-operand arithmetic/bitwise opcode
// shape: pop the top operand (x), peek the new top (y), compute x op y
// via apply (a method expression like u256.Sub, whose receiver is the
// destination), and leave the result in y's stack slot.
func binOp(f *Frame, apply func(z, x, y *u256) *u256) (bool, bool, error) {
	x, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	y, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	apply(y, x, y)
	return false, false, nil
}

func opAddMod(i *Interpreter, f *Frame) (bool, bool, error) {
	x, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	y, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	m, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	res := new(u256).AddMod(x, y, m)
	*m = *res
	return false, false, nil
}

func opMulMod(i *Interpreter, f *Frame) (bool, bool, error) {
	x, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	y, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	m, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	res := new(u256).MulMod(x, y, m)
	*m = *res
	return false, false, nil
}

func opExp(i *Interpreter, f *Frame) (bool, bool, error) {
	base, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	exp, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	if err := f.useGas(expByteCost(byteLen(exp))); err != nil {
		return false, false, err
	}
	res := new(u256).Exp(base, exp)
	*exp = *res
	return false, false, nil
}

func byteLen(v *u256) int {
	b := v.Bytes()
	return len(b)
}

func opSignExtend(i *Interpreter, f *Frame) (bool, bool, error) {
	numBytes, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	x, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	res := new(u256).ExtendSign(x, numBytes)
	*x = *res
	return false, false, nil
}

func opLt(i *Interpreter, f *Frame) (bool, bool, error)  { return boolOp(f, u256.Lt) }
func opGt(i *Interpreter, f *Frame) (bool, bool, error)  { return boolOp(f, u256.Gt) }
func opSlt(i *Interpreter, f *Frame) (bool, bool, error) { return boolOp(f, u256.Slt) }
func opSgt(i *Interpreter, f *Frame) (bool, bool, error) { return boolOp(f, u256.Sgt) }
func opEq(i *Interpreter, f *Frame) (bool, bool, error)  { return boolOp(f, u256.Eq) }

// boolOp mirrors binOp's pop-top/peek-second shape for the comparison
// opcodes: x (popped, top) cmp y (peeked, new top), result written as
// 0 or 1 into y's slot.
func boolOp(f *Frame, cmp func(x, y *u256) bool) (bool, bool, error) {
	x, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	y, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	if cmp(x, y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return false, false, nil
}

func opIsZero(i *Interpreter, f *Frame) (bool, bool, error) {
	x, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return false, false, nil
}

func opNot(i *Interpreter, f *Frame) (bool, bool, error) {
	x, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	x.Not(x)
	return false, false, nil
}

func opByte(i *Interpreter, f *Frame) (bool, bool, error) {
	n, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	x, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	res := new(u256).Byte(n, x)
	*x = *res
	return false, false, nil
}

func opShl(i *Interpreter, f *Frame) (bool, bool, error) {
	shift, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	x, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	if shift.GtUint64(255) {
		x.Clear()
		return false, false, nil
	}
	res := new(u256).Lsh(x, uint(shift.Uint64()))
	*x = *res
	return false, false, nil
}

func opShr(i *Interpreter, f *Frame) (bool, bool, error) {
	shift, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	x, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	if shift.GtUint64(255) {
		x.Clear()
		return false, false, nil
	}
	res := new(u256).Rsh(x, uint(shift.Uint64()))
	*x = *res
	return false, false, nil
}

func opSar(i *Interpreter, f *Frame) (bool, bool, error) {
	shift, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	x, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	res := new(u256).SRsh(x, uint(shift.Uint64()))
	if shift.GtUint64(255) {
		if x.Bit(255) != 0 {
			res.SetAllOne()
		} else {
			res.Clear()
		}
	}
	*x = *res
	return false, false, nil
}

func opSha3(i *Interpreter, f *Frame) (bool, bool, error) {
	offset, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	size, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	off, sz := offset.Uint64(), size.Uint64()
	if err := chargeMemory(f, off, sz); err != nil {
		return false, false, err
	}
	if err := f.useGas(GasSha3Word * wordCount(sz)); err != nil {
		return false, false, err
	}
	data := f.memory.GetPtr(off, sz)
	h := crypto.Keccak256(data)
	var res u256
	res.SetBytes(h)
	return false, false, f.stack.Push(&res)
}

// chargeMemory expands f's memory to cover [offset, offset+size) if
// needed, charging the quadratic-beyond-linear expansion cost.
func chargeMemory(f *Frame, offset, size uint64) error {
	newSize, cost, err := memoryExpansionCost(uint64(f.memory.Len()), offset, size)
	if err != nil {
		return err
	}
	if cost > 0 {
		if err := f.useGas(cost); err != nil {
			return err
		}
	}
	f.memory.Resize(newSize)
	return nil
}

func wordFromHash(h types.Hash256) u256 {
	var w u256
	w.SetBytes(h[:])
	return w
}

func wordFromAddress(a types.Address) u256 {
	var w u256
	w.SetBytes(a[:])
	return w
}

func addressFromWord(w *u256) types.Address {
	b := w.Bytes20()
	return types.BytesToAddress(b[:])
}

func opAddress(i *Interpreter, f *Frame) (bool, bool, error) {
	w := wordFromAddress(f.Address)
	return false, false, f.stack.Push(&w)
}

func opBalance(i *Interpreter, f *Frame) (bool, bool, error) {
	a, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	addr := addressFromWord(a)
	bal := i.state.GetBalance(addr)
	*a = *bal
	return false, false, nil
}

func opOrigin(i *Interpreter, f *Frame) (bool, bool, error) {
	w := wordFromAddress(f.Origin)
	return false, false, f.stack.Push(&w)
}

func opCaller(i *Interpreter, f *Frame) (bool, bool, error) {
	w := wordFromAddress(f.Caller)
	return false, false, f.stack.Push(&w)
}

func opCallValue(i *Interpreter, f *Frame) (bool, bool, error) {
	v := *f.Value
	return false, false, f.stack.Push(&v)
}

func opCallDataLoad(i *Interpreter, f *Frame) (bool, bool, error) {
	off, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	o := off.Uint64()
	var buf [32]byte
	if o < uint64(len(f.Input)) {
		copy(buf[:], f.Input[o:])
	}
	off.SetBytes(buf[:])
	return false, false, nil
}

func opCallDataSize(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(uint64(len(f.Input)))
	return false, false, f.stack.Push(&w)
}

func opCallDataCopy(i *Interpreter, f *Frame) (bool, bool, error) {
	return copyToMemory(f, f.Input)
}

func copyToMemory(f *Frame, src []byte) (bool, bool, error) {
	destOff, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	srcOff, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	size, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	dOff, sOff, sz := destOff.Uint64(), srcOff.Uint64(), size.Uint64()
	if err := chargeMemory(f, dOff, sz); err != nil {
		return false, false, err
	}
	if err := f.useGas(GasCopyWord * wordCount(sz)); err != nil {
		return false, false, err
	}
	data := make([]byte, sz)
	if sOff < uint64(len(src)) {
		copy(data, src[sOff:])
	}
	f.memory.Set(dOff, data)
	return false, false, nil
}

func opCodeSize(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(uint64(len(f.Code)))
	return false, false, f.stack.Push(&w)
}

func opCodeCopy(i *Interpreter, f *Frame) (bool, bool, error) {
	return copyToMemory(f, f.Code)
}

func opGasPrice(i *Interpreter, f *Frame) (bool, bool, error) {
	var w u256
	if f.GasPrice != nil {
		w.SetFromBig(f.GasPrice)
	}
	return false, false, f.stack.Push(&w)
}

func opExtCodeSize(i *Interpreter, f *Frame) (bool, bool, error) {
	a, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	sz := i.state.GetCodeSize(addressFromWord(a))
	a.SetUint64(uint64(sz))
	return false, false, nil
}

func opExtCodeCopy(i *Interpreter, f *Frame) (bool, bool, error) {
	addrW, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	code := i.state.GetCode(addressFromWord(addrW))
	return copyToMemory(f, code)
}

func opReturnDataSize(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(uint64(len(f.returnData)))
	return false, false, f.stack.Push(&w)
}

func opReturnDataCopy(i *Interpreter, f *Frame) (bool, bool, error) {
	return copyToMemory(f, f.returnData)
}

func opExtCodeHash(i *Interpreter, f *Frame) (bool, bool, error) {
	a, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	addr := addressFromWord(a)
	if !i.state.Exists(addr) || i.state.Empty(addr) {
		a.Clear()
		return false, false, nil
	}
	h := i.state.GetCodeHash(addr)
	w := wordFromHash(h)
	*a = w
	return false, false, nil
}

func opBlockHash(i *Interpreter, f *Frame) (bool, bool, error) {
	n, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	h := types.Hash256{}
	if i.block.GetHash != nil {
		h = i.block.GetHash(n.Uint64())
	}
	w := wordFromHash(h)
	*n = w
	return false, false, nil
}

func opCoinbase(i *Interpreter, f *Frame) (bool, bool, error) {
	w := wordFromAddress(i.block.Coinbase)
	return false, false, f.stack.Push(&w)
}

func opTimestamp(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(i.block.Timestamp)
	return false, false, f.stack.Push(&w)
}

func opNumber(i *Interpreter, f *Frame) (bool, bool, error) {
	var w u256
	if i.block.BlockNumber != nil {
		w.SetFromBig(i.block.BlockNumber)
	}
	return false, false, f.stack.Push(&w)
}

func opDifficulty(i *Interpreter, f *Frame) (bool, bool, error) {
	var w u256
	if i.block.Difficulty != nil {
		w.SetFromBig(i.block.Difficulty)
	}
	return false, false, f.stack.Push(&w)
}

func opGasLimit(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(i.block.GasLimit)
	return false, false, f.stack.Push(&w)
}

func opChainID(i *Interpreter, f *Frame) (bool, bool, error) {
	var w u256
	if i.block.ChainID != nil {
		w.SetFromBig(i.block.ChainID)
	}
	return false, false, f.stack.Push(&w)
}

func opSelfBalance(i *Interpreter, f *Frame) (bool, bool, error) {
	bal := i.state.GetBalance(f.Address)
	v := *bal
	return false, false, f.stack.Push(&v)
}

func opPop(i *Interpreter, f *Frame) (bool, bool, error) {
	_, err := f.stack.Pop()
	return false, false, err
}

func opMLoad(i *Interpreter, f *Frame) (bool, bool, error) {
	off, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	o := off.Uint64()
	if err := chargeMemory(f, o, 32); err != nil {
		return false, false, err
	}
	off.SetBytes(f.memory.GetPtr(o, 32))
	return false, false, nil
}

func opMStore(i *Interpreter, f *Frame) (bool, bool, error) {
	off, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	val, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	o := off.Uint64()
	if err := chargeMemory(f, o, 32); err != nil {
		return false, false, err
	}
	f.memory.Set32(o, val.Bytes32())
	return false, false, nil
}

func opMStore8(i *Interpreter, f *Frame) (bool, bool, error) {
	off, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	val, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	o := off.Uint64()
	if err := chargeMemory(f, o, 1); err != nil {
		return false, false, err
	}
	f.memory.Set(o, []byte{byte(val.Uint64())})
	return false, false, nil
}

func opSLoad(i *Interpreter, f *Frame) (bool, bool, error) {
	key, err := f.stack.Peek(0)
	if err != nil {
		return false, false, err
	}
	kb := key.Bytes32()
	k := types.BytesToHash(kb[:])
	v := i.state.GetState(f.Address, k)
	w := wordFromHash(v)
	*key = w
	return false, false, nil
}

func opSStore(i *Interpreter, f *Frame) (bool, bool, error) {
	if f.IsStatic {
		return false, false, ErrStaticModeViolation
	}
	key, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	val, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	kb := key.Bytes32()
	k := types.BytesToHash(kb[:])
	newVal := val.Bytes32()
	current := i.state.GetState(f.Address, k)
	original := i.state.GetCommittedState(f.Address, k)
	gas, refund := sstoreCost(i.fork.Constantinople, [32]byte(original), [32]byte(current), newVal)
	if err := f.useGas(gas); err != nil {
		return false, false, err
	}
	if refund > 0 {
		i.state.AddRefund(uint64(refund))
	} else if refund < 0 {
		i.state.SubRefund(uint64(-refund))
	}
	i.state.SetState(f.Address, k, types.BytesToHash(newVal[:]))
	return false, false, nil
}

func opJump(i *Interpreter, f *Frame) (bool, bool, error) {
	dest, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	return jumpTo(i, f, dest)
}

func opJumpI(i *Interpreter, f *Frame) (bool, bool, error) {
	dest, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	cond, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	if cond.IsZero() {
		return false, false, nil
	}
	return jumpTo(i, f, dest)
}

func jumpTo(i *Interpreter, f *Frame, dest *u256) (bool, bool, error) {
	if !dest.IsUint64() {
		return false, false, ErrBadJumpDestination
	}
	d := dest.Uint64()
	if f.codeHash == nil {
		h := types.BytesToHash(crypto.Keccak256(f.Code))
		f.codeHash = &h
	}
	dests := i.destsFor(*f.codeHash, f.Code)
	if _, ok := dests[d]; !ok {
		return false, false, ErrBadJumpDestination
	}
	f.pc = d
	return true, false, nil
}

func opPC(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(f.pc)
	return false, false, f.stack.Push(&w)
}

func opMSize(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(uint64(f.memory.Len()))
	return false, false, f.stack.Push(&w)
}

func opGas(i *Interpreter, f *Frame) (bool, bool, error) {
	w := u256{}
	w.SetUint64(f.gas)
	return false, false, f.stack.Push(&w)
}

func opJumpDest(i *Interpreter, f *Frame) (bool, bool, error) { return false, false, nil }

func opPush(i *Interpreter, f *Frame) (bool, bool, error) {
	op := OpCode(f.Code[f.pc])
	n := op.PushSize()
	start := f.pc + 1
	var buf [32]byte
	end := start + uint64(n)
	if end > uint64(len(f.Code)) {
		end = uint64(len(f.Code))
	}
	copy(buf[32-n:], f.Code[start:end])
	w := u256{}
	w.SetBytes(buf[:])
	if err := f.stack.Push(&w); err != nil {
		return false, false, err
	}
	f.pc = start + uint64(n)
	return true, false, nil
}

func opDup(i *Interpreter, f *Frame) (bool, bool, error) {
	op := OpCode(f.Code[f.pc])
	return false, false, f.stack.Dup(op.DupPosition())
}

func opSwap(i *Interpreter, f *Frame) (bool, bool, error) {
	op := OpCode(f.Code[f.pc])
	return false, false, f.stack.Swap(op.SwapPosition())
}

func opLog(i *Interpreter, f *Frame) (bool, bool, error) {
	if f.IsStatic {
		return false, false, ErrStaticModeViolation
	}
	op := OpCode(f.Code[f.pc])
	n := op.LogTopics()
	offset, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	size, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	topics := make([]types.Hash256, n)
	for k := 0; k < n; k++ {
		t, err := f.stack.Pop()
		if err != nil {
			return false, false, err
		}
		tb := t.Bytes32()
		topics[k] = types.BytesToHash(tb[:])
	}
	off, sz := offset.Uint64(), size.Uint64()
	if err := chargeMemory(f, off, sz); err != nil {
		return false, false, err
	}
	if err := f.useGas(GasLogData*sz + GasLogTopic*uint64(n)); err != nil {
		return false, false, err
	}
	data := f.memory.Get(off, sz)
	i.state.AddLog(&types.LogEntry{Address: f.Address, Topics: topics, Data: data})
	return false, false, nil
}

func opReturn(i *Interpreter, f *Frame) (bool, bool, error) {
	offset, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	size, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	off, sz := offset.Uint64(), size.Uint64()
	if err := chargeMemory(f, off, sz); err != nil {
		return false, false, err
	}
	f.returnData = f.memory.Get(off, sz)
	return false, true, nil
}

func opRevert(i *Interpreter, f *Frame) (bool, bool, error) {
	offset, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	size, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	off, sz := offset.Uint64(), size.Uint64()
	if err := chargeMemory(f, off, sz); err != nil {
		return false, false, err
	}
	f.returnData = f.memory.Get(off, sz)
	return false, false, ErrExecutionReverted
}

func opSelfDestruct(i *Interpreter, f *Frame) (bool, bool, error) {
	if f.IsStatic {
		return false, false, ErrStaticModeViolation
	}
	beneficiaryW, err := f.stack.Pop()
	if err != nil {
		return false, false, err
	}
	beneficiary := addressFromWord(beneficiaryW)
	bal := i.state.GetBalance(f.Address)
	if beneficiary != f.Address {
		i.state.AddBalance(beneficiary, bal)
	}
	i.state.SelfDestruct(f.Address)
	if !i.fork.London {
		i.state.AddRefund(GasSelfdestructRef)
	}
	f.returnData = nil
	return false, true, nil
}
