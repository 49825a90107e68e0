package core

import (
	"errors"
	"math/big"

	"github.com/eth2030/eth2030/core/state"
	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/core/vm"
	"github.com/eth2030/eth2030/crypto"
	"github.com/eth2030/eth2030/log"
	"github.com/eth2030/eth2030/rlp"
)

var execLog = log.Module("core/executive")

var (
	ErrNonceTooLow       = errors.New("core: nonce too low")
	ErrNonceTooHigh      = errors.New("core: nonce too high")
	ErrInsufficientFunds = errors.New("core: insufficient funds for gas * price + value")
	ErrIntrinsicGas      = errors.New("core: intrinsic gas exceeds gas limit")
	ErrGasLimitReached   = errors.New("core: block gas limit reached")
)

// Executive drives one transaction's full state transition: Initialize
// validates it against the sender's account state, Execute dispatches
// to contract creation or a top-level CALL frame, and Finalize applies
// the refund cap and assembles the receipt (§4.2).
type Executive struct {
	Config *ChainConfig
	State  *state.StateDB
	Header *types.Header
}

// NewExecutive builds an Executive bound to one block's header and
// world state, shared across every transaction applied to that block.
func NewExecutive(config *ChainConfig, st *state.StateDB, header *types.Header) *Executive {
	return &Executive{Config: config, State: st, Header: header}
}

// initializedTx carries the state Initialize computed forward to
// Execute and Finalize without re-deriving it.
type initializedTx struct {
	sender       types.Address
	intrinsicGas uint64
	gasLimit     uint64
	gasPrice     *big.Int
	value        *big.Int
	logStart     int
}

// Initialize recovers the sender, checks the nonce matches exactly,
// verifies the sender can afford gas_limit*gas_price+value, and
// rejects transactions whose declared gas_limit is below their
// intrinsic cost (§4.2 Initialize).
func (e *Executive) Initialize(tx *types.Transaction) (*initializedTx, error) {
	sender, err := Sender(tx)
	if err != nil {
		return nil, err
	}
	accountNonce := e.State.GetNonce(sender)
	if tx.Nonce < accountNonce {
		return nil, ErrNonceTooLow
	}
	if tx.Nonce > accountNonce {
		return nil, ErrNonceTooHigh
	}
	intrinsic := tx.IntrinsicGas(tx.IsCreation())
	if tx.GasLimit < intrinsic {
		return nil, ErrIntrinsicGas
	}
	cost := new(big.Int).Mul(tx.GasPrice, new(big.Int).SetUint64(tx.GasLimit))
	cost.Add(cost, tx.Value)
	balance := e.State.GetBalance(sender).ToBig()
	if balance.Cmp(cost) < 0 {
		return nil, ErrInsufficientFunds
	}
	return &initializedTx{sender: sender, intrinsicGas: intrinsic, gasLimit: tx.GasLimit, gasPrice: tx.GasPrice, value: tx.Value, logStart: len(e.State.Logs())}, nil
}

// Execute runs the transaction's top-level frame: a CREATE path when
// tx.To is nil, otherwise a CALL into the recipient's code (§4.2
// Execute). It charges gas_limit*gas_price up front, runs the VM, and
// returns the unspent gas, any created contract address, and the VM
// error (nil on success, vm.ErrExecutionReverted on REVERT, otherwise
// the failure that aborted the frame).
func (e *Executive) Execute(tx *types.Transaction, init *initializedTx) (gasLeft uint64, contractAddr *types.Address, vmErr error) {
	e.State.SubBalance(init.sender, wordFromBig(new(big.Int).Mul(init.gasPrice, new(big.Int).SetUint64(init.gasLimit))))
	e.State.SetNonce(init.sender, tx.Nonce+1)

	fork := e.Config.ForkFlagsAt(e.Header.Number)
	interp := vm.NewInterpreter(e.State, e.blockContext(), fork)
	gasAvailable := init.gasLimit - init.intrinsicGas
	value := wordFromBig(init.value)

	if tx.IsCreation() {
		addr, gl, _, err := runCreation(interp, e.State, init.sender, tx.Nonce, value, tx.Data, init.gasPrice, gasAvailable)
		return gl, &addr, err
	}

	snapshot := e.State.Snapshot()
	if !value.IsZero() {
		e.State.SubBalance(init.sender, value)
		e.State.AddBalance(*tx.To, value)
	}
	code := e.State.GetCode(*tx.To)
	frame := vm.NewFrame(code, init.sender, init.sender, *tx.To, tx.Data, value, init.gasPrice, gasAvailable, 0, false)
	_, err := interp.Run(frame)
	if err != nil && err != vm.ErrExecutionReverted {
		execLog.Debug("call frame failed", "to", tx.To.Hex(), "err", err)
		e.State.RevertToSnapshot(snapshot)
		return 0, nil, err
	}
	if err == vm.ErrExecutionReverted {
		e.State.RevertToSnapshot(snapshot)
	}
	return frame.GasRemaining(), nil, err
}

// Finalize computes the gas refund (capped at gas_used/RefundQuotient),
// credits unspent gas back to the sender, pays the coinbase, and
// assembles the transaction's receipt (§4.2 Finalize, §EIP-658).
func (e *Executive) Finalize(tx *types.Transaction, init *initializedTx, gasLeft uint64, vmErr error, cumulativeGasUsed uint64) *types.Receipt {
	gasUsed := init.gasLimit - gasLeft
	quotient := vm.RefundQuotient(e.Config.IsLondon(e.Header.Number))
	maxRefund := gasUsed / quotient
	refund := e.State.Refund()
	if refund > maxRefund {
		refund = maxRefund
	}
	totalGasLeft := gasLeft + refund
	gasUsed = init.gasLimit - totalGasLeft

	sender, _ := Sender(tx)
	e.State.AddBalance(sender, wordFromBig(new(big.Int).Mul(init.gasPrice, new(big.Int).SetUint64(totalGasLeft))))
	e.State.AddBalance(e.Header.Author, wordFromBig(new(big.Int).Mul(init.gasPrice, new(big.Int).SetUint64(gasUsed))))

	receipt := &types.Receipt{
		PostByzantium:     e.Config.IsByzantium(e.Header.Number),
		CumulativeGasUsed: cumulativeGasUsed + gasUsed,
		Logs:              e.State.Logs()[init.logStart:],
	}
	if vmErr == nil {
		receipt.Status = types.ReceiptStatusSuccess
	} else {
		receipt.Status = types.ReceiptStatusFailed
	}
	if !receipt.PostByzantium {
		receipt.PostState = e.State.GetRoot()
	}
	receipt.Bloom = types.LogsBloom(receipt.Logs)
	if e.Config.IsEIP158(e.Header.Number) {
		e.sweepEmptyAccounts()
	}
	return receipt
}

func (e *Executive) sweepEmptyAccounts() {
	// No empty-account removal happens here: touched accounts that end
	// the transaction empty stay in the state, and state.StateDB's Commit
	// writes them to the account trie like any other dirty account (it
	// deletes only destroyed accounts). Empty() lets callers detect the
	// condition where needed.
}

func (e *Executive) blockContext() vm.BlockContext {
	return blockContextOf(e.Config, e.Header)
}

// blockContextOf builds the vm.BlockContext a given header/config pair
// exposes to running code (BLOCKHASH, NUMBER, TIMESTAMP, DIFFICULTY,
// GASLIMIT, COINBASE, CHAINID) — shared by Executive and CallView so
// both drive the interpreter off an identical block environment.
func blockContextOf(config *ChainConfig, header *types.Header) vm.BlockContext {
	return vm.BlockContext{
		Coinbase:    header.Author,
		GasLimit:    header.GasLimit,
		BlockNumber: header.Number,
		Timestamp:   header.Timestamp,
		Difficulty:  header.Difficulty,
		ChainID:     config.ChainID,
		GetHash:     func(uint64) types.Hash256 { return types.Hash256{} },
	}
}

func runCreation(interp *vm.Interpreter, st *state.StateDB, sender types.Address, nonce uint64, value *types.Word, initCode []byte, gasPrice *big.Int, gas uint64) (types.Address, uint64, []byte, error) {
	addr := contractAddress(sender, nonce)
	snapshot := st.Snapshot()
	st.CreateAccount(addr)
	if !value.IsZero() {
		st.SubBalance(sender, value)
		st.AddBalance(addr, value)
	}
	frame := vm.NewFrame(initCode, sender, sender, addr, nil, value, gasPrice, gas, 0, false)
	out, err := interp.Run(frame)
	if err != nil {
		st.RevertToSnapshot(snapshot)
		if err == vm.ErrExecutionReverted {
			return addr, frame.GasRemaining(), out, err
		}
		return addr, 0, out, err
	}
	if len(out) > vm.MaxCodeSize {
		st.RevertToSnapshot(snapshot)
		return addr, 0, nil, vm.ErrCodeSizeExceedsLimit
	}
	st.SetCode(addr, out)
	return addr, frame.GasRemaining(), out, nil
}

// contractAddress derives a CREATE-path contract address the same way
// vm's CREATE opcode handler does: the low 20 bytes of
// keccak256(rlp([sender, nonce])).
func contractAddress(sender types.Address, nonce uint64) types.Address {
	var nonceBytes []byte
	if nonce != 0 {
		nonceBytes = new(big.Int).SetUint64(nonce).Bytes()
	}
	enc, _ := rlp.EncodeList(sender.Bytes(), nonceBytes)
	h := crypto.Keccak256(enc)
	return types.BytesToAddress(h[12:])
}

func wordFromBig(v *big.Int) *types.Word {
	w := new(types.Word)
	if v != nil {
		w.SetFromBig(v)
	}
	return w
}
