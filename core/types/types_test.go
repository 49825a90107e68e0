package types

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/eth2030/eth2030/rlp"
)

func TestAddressRoundTrip(t *testing.T) {
	b := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa,
		0xbb, 0xcc, 0xdd, 0xee, 0xff, 0x00, 0x01, 0x02, 0x03, 0x04}
	addr := BytesToAddress(b)
	if addr.Bytes()[0] != 0x11 {
		t.Errorf("first byte = %x, want 0x11", addr.Bytes()[0])
	}
}

func TestAccountIsEmpty(t *testing.T) {
	a := NewEmptyAccount()
	if !a.IsEmpty() {
		t.Error("fresh account should be empty")
	}
	a.Nonce = 1
	if a.IsEmpty() {
		t.Error("account with nonzero nonce should not be empty")
	}
}

func TestTransactionChainIDFromEIP155V(t *testing.T) {
	tx := &Transaction{V: big.NewInt(1*2 + 35)}
	id, ok := tx.ChainID()
	if !ok {
		t.Fatal("expected EIP-155 chain id")
	}
	if id.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("chain id = %s, want 1", id)
	}
}

func TestTransactionChainIDLegacy(t *testing.T) {
	tx := &Transaction{V: big.NewInt(27)}
	if _, ok := tx.ChainID(); ok {
		t.Error("legacy v should report no chain id")
	}
}

func TestTransactionRecoveryID(t *testing.T) {
	tx := &Transaction{V: big.NewInt(28)}
	rec, err := tx.RecoveryID()
	if err != nil {
		t.Fatalf("RecoveryID: %v", err)
	}
	if rec != 1 {
		t.Errorf("recovery id = %d, want 1", rec)
	}
}

func TestIntrinsicGasCountsDataBytes(t *testing.T) {
	tx := &Transaction{Data: []byte{0x00, 0x01, 0x00}}
	got := tx.IntrinsicGas(false)
	want := uint64(21000 + 2*4 + 1*68)
	if got != want {
		t.Errorf("IntrinsicGas = %d, want %d", got, want)
	}
}

func TestIntrinsicGasContractCreation(t *testing.T) {
	tx := &Transaction{}
	if got := tx.IntrinsicGas(true); got != 53000 {
		t.Errorf("IntrinsicGas(creation) = %d, want 53000", got)
	}
}

func TestEncodeRLPEmptyToIsZeroLengthString(t *testing.T) {
	tx := &Transaction{
		Nonce: 0, GasPrice: big.NewInt(1), GasLimit: 21000,
		Value: big.NewInt(0), V: big.NewInt(27), R: big.NewInt(0), S: big.NewInt(0),
	}
	enc, err := tx.EncodeRLP()
	if err != nil {
		t.Fatalf("EncodeRLP: %v", err)
	}
	if len(enc) == 0 {
		t.Fatal("empty encoding")
	}
	items, err := rlp.SplitList(enc)
	if err != nil {
		t.Fatalf("SplitList: %v", err)
	}
	if !bytes.Equal(items[3], []byte{0x80}) {
		t.Errorf("to field = %x, want 80 (zero-length string)", items[3])
	}
}

func TestLogsBloomDeterministic(t *testing.T) {
	addr := BytesToAddress([]byte{0x01})
	logs := []*LogEntry{{Address: addr, Topics: []Hash256{HexToHash("0x01")}}}
	b1 := LogsBloom(logs)
	b2 := LogsBloom(logs)
	if b1 != b2 {
		t.Error("LogsBloom not deterministic")
	}
	allZero := true
	for _, b := range b1 {
		if b != 0 {
			allZero = false
		}
	}
	if allZero {
		t.Error("expected non-zero bloom")
	}
}
