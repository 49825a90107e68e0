package vm

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
	"golang.org/x/crypto/ripemd160"
)

// precompileFunc runs a precompiled contract's logic against input,
// returning its output and the gas remaining after its fixed-plus-
// dynamic cost has been charged. An error means the call fails exactly
// as an out-of-gas or invalid-input regular call would.
type precompileFunc func(input []byte, gas uint64) (output []byte, gasLeft uint64, err error)

var errPrecompileOutOfGas = errors.New("vm: precompile out of gas")

// precompiles maps addresses 0x01-0x04 (ecrecover, sha256, ripemd160,
// identity) to their implementations — the Byzantium-era precompile set
// named in SPEC_FULL.md's FEATURE SUPPLEMENT. Addresses 0x05 (modexp,
// EIP-198) and above are not registered: this implementation's fork
// range stops short of wiring the bn256 pairing-check precompiles
// (0x06-0x08), since no bn256 curve library is grounded in the example
// pack (documented in DESIGN.md). A CALL to an unregistered address
// above 0x04 falls through to the ordinary empty-code path and
// succeeds trivially, rather than failing — matching how any call to
// an address with no code behaves.
var precompiles = map[types.Address]precompileFunc{
	addr(1): ecrecoverPrecompile,
	addr(2): sha256Precompile,
	addr(3): ripemd160Precompile,
	addr(4): identityPrecompile,
}

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func chargeFixed(gas, cost uint64) (uint64, error) {
	if gas < cost {
		return 0, errPrecompileOutOfGas
	}
	return gas - cost, nil
}

func wordCeil(n int) uint64 { return (uint64(n) + 31) / 32 }

// ecrecoverPrecompile recovers the signing address from a 128-byte
// (hash, v, r, s) input, left-padded to 32 bytes each (§ precompile 1).
func ecrecoverPrecompile(input []byte, gas uint64) ([]byte, uint64, error) {
	gas, err := chargeFixed(gas, 3000)
	if err != nil {
		return nil, 0, err
	}
	buf := make([]byte, 128)
	copy(buf, input)
	digest := buf[0:32]
	v := buf[63]
	if v != 27 && v != 28 {
		return nil, gas, nil
	}
	sig := make([]byte, 65)
	copy(sig[0:32], buf[64:96])
	copy(sig[32:64], buf[96:128])
	sig[64] = v - 27
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, gas, nil
	}
	address, err := crypto.PubkeyToAddress(pub.SerializeUncompressed())
	if err != nil {
		return nil, gas, nil
	}
	out := make([]byte, 32)
	copy(out[12:], address[:])
	return out, gas, nil
}

func sha256Precompile(input []byte, gas uint64) ([]byte, uint64, error) {
	gas, err := chargeFixed(gas, 60+12*wordCeil(len(input)))
	if err != nil {
		return nil, 0, err
	}
	h := sha256.Sum256(input)
	return h[:], gas, nil
}

func ripemd160Precompile(input []byte, gas uint64) ([]byte, uint64, error) {
	gas, err := chargeFixed(gas, 600+120*wordCeil(len(input)))
	if err != nil {
		return nil, 0, err
	}
	h := ripemd160.New()
	h.Write(input)
	sum := h.Sum(nil)
	out := make([]byte, 32)
	copy(out[12:], sum)
	return out, gas, nil
}

func identityPrecompile(input []byte, gas uint64) ([]byte, uint64, error) {
	gas, err := chargeFixed(gas, 15+3*wordCeil(len(input)))
	if err != nil {
		return nil, 0, err
	}
	out := make([]byte, len(input))
	copy(out, input)
	return out, gas, nil
}

// modexpGas implements the pre-EIP-2565 EIP-198 gas formula:
// floor(max(len_b, len_m)^2 * max(len_e_eff, 1) / 20). Kept for
// reference and for a future MODEXP registration; not wired into
// the precompiles table in this fork range (see package docs above).
func modexpGas(baseLen, expLen, modLen int, exponent *big.Int) uint64 {
	maxLen := baseLen
	if modLen > maxLen {
		maxLen = modLen
	}
	adjExpLen := uint64(0)
	if exponent != nil {
		adjExpLen = uint64(exponent.BitLen())
	}
	if adjExpLen == 0 {
		adjExpLen = 1
	}
	return uint64(maxLen*maxLen) * adjExpLen / 20
}
