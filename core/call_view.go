package core

import (
	"math/big"

	"github.com/eth2030/eth2030/core/state"
	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/core/vm"
)

// ViewResult is the outcome of a read-only call: the returned bytes,
// gas consumed, and success/revert status.
type ViewResult struct {
	Output  []byte
	GasUsed uint64
	Status  uint64
}

// CallView executes a message call against st without persisting any
// state change it makes (§6's call_view boundary contract): it snapshots
// before running and unconditionally reverts afterward, regardless of
// outcome. Used for eth_call-style queries, never for block processing.
func CallView(config *ChainConfig, st *state.StateDB, header *types.Header, from, to types.Address, data []byte, gas uint64, gasPrice *big.Int) (*ViewResult, error) {
	fork := config.ForkFlagsAt(header.Number)
	interp := vm.NewInterpreter(st, blockContextOf(config, header), fork)

	snapshot := st.Snapshot()
	defer st.RevertToSnapshot(snapshot)

	code := st.GetCode(to)
	frame := vm.NewFrame(code, from, from, to, data, new(types.Word), gasPrice, gas, 0, false)
	out, err := interp.Run(frame)

	result := &ViewResult{Output: out, GasUsed: gas - frame.GasRemaining(), Status: types.ReceiptStatusSuccess}
	if err != nil && err != vm.ErrExecutionReverted {
		return nil, err
	}
	if err == vm.ErrExecutionReverted {
		result.Status = types.ReceiptStatusFailed
	}
	return result, nil
}
