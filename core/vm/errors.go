package vm

import "errors"

// VM-level errors (§7). Most consume all remaining frame gas; Revert
// preserves remaining gas and return data, matching the explicit REVERT
// opcode's semantics exactly.
var (
	ErrInvalidInstruction    = errors.New("vm: invalid instruction")
	ErrBadJumpDestination    = errors.New("vm: invalid jump destination")
	ErrStaticModeViolation   = errors.New("vm: state-modifying operation in static context")
	ErrCallDepthExceeded     = errors.New("vm: call depth exceeded")
	ErrCreateCollision       = errors.New("vm: contract creation collides with existing account")
	ErrCodeSizeExceedsLimit  = errors.New("vm: contract code size exceeds limit")
	ErrExecutionReverted     = errors.New("vm: execution reverted")
)

// MaxCodeSize is the EIP-170 contract code size limit (24576 bytes),
// enforced against the bytes a CREATE/CREATE2 frame returns before
// installing them as the new account's code.
const MaxCodeSize = 24576

// gasConsumingError reports whether err, returned from Frame execution,
// should consume the frame's entire remaining gas (true) or leave it
// intact for the caller to refund (false, Revert only).
func gasConsumingError(err error) bool {
	return err != nil && err != ErrExecutionReverted
}
