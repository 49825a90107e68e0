package core

import (
	"math/big"
	"testing"

	"github.com/eth2030/eth2030/core/types"
	"github.com/eth2030/eth2030/crypto"
)

// testPrivateKey is a fixed, non-zero 32-byte scalar well under the
// secp256k1 curve order, used across this package's tests to sign
// fixtures deterministically.
func testPrivateKey() []byte {
	key := make([]byte, 32)
	key[31] = 0x01
	key[30] = 0x02
	key[29] = 0x03
	return key
}

// signTx fills in a transaction's V/R/S by signing its pre-EIP-155
// preimage (chainID == nil) with prv, mirroring the wire format spec
// §3/§6 name for legacy transactions.
func signTx(t *testing.T, tx *types.Transaction, prv []byte, chainID *big.Int) types.Address {
	t.Helper()
	preimage, err := tx.SigningPreimage(chainID)
	if err != nil {
		t.Fatalf("SigningPreimage: %v", err)
	}
	digest := crypto.Keccak256(preimage)
	sig, err := crypto.Sign(digest, prv)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	tx.R = new(big.Int).SetBytes(sig[0:32])
	tx.S = new(big.Int).SetBytes(sig[32:64])
	if chainID != nil {
		offset := new(big.Int).Add(new(big.Int).Mul(chainID, big.NewInt(2)), big.NewInt(35))
		tx.V = new(big.Int).Add(offset, big.NewInt(int64(sig[64])))
	} else {
		tx.V = big.NewInt(27 + int64(sig[64]))
	}

	pub, err := crypto.Ecrecover(digest, sig)
	if err != nil {
		t.Fatalf("Ecrecover: %v", err)
	}
	addr, err := crypto.PubkeyToAddress(pub)
	if err != nil {
		t.Fatalf("PubkeyToAddress: %v", err)
	}
	return addr
}

func TestSenderRecoversLegacySignature(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x11, 0x22}
	tx := &types.Transaction{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		GasLimit: 21000,
		To:       &to,
		Value:    big.NewInt(1000),
		Data:     nil,
	}
	want := signTx(t, tx, prv, nil)

	got, err := Sender(tx)
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if got != want {
		t.Errorf("Sender = %x, want %x", got, want)
	}
}

func TestSenderRecoversEIP155Signature(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x33}
	tx := &types.Transaction{
		Nonce:    5,
		GasPrice: big.NewInt(2),
		GasLimit: 21000,
		To:       &to,
		Value:    big.NewInt(0),
	}
	chainID := big.NewInt(1)
	want := signTx(t, tx, prv, chainID)

	got, err := Sender(tx)
	if err != nil {
		t.Fatalf("Sender: %v", err)
	}
	if got != want {
		t.Errorf("Sender = %x, want %x", got, want)
	}
	gotChainID, ok := tx.ChainID()
	if !ok || gotChainID.Cmp(chainID) != 0 {
		t.Errorf("ChainID() = %v, %v; want %v, true", gotChainID, ok, chainID)
	}
}

func TestSenderRejectsTamperedSignature(t *testing.T) {
	prv := testPrivateKey()
	to := types.Address{0x44}
	tx := &types.Transaction{
		Nonce:    0,
		GasPrice: big.NewInt(1),
		GasLimit: 21000,
		To:       &to,
		Value:    big.NewInt(1),
	}
	want := signTx(t, tx, prv, nil)
	tx.R = new(big.Int).Add(tx.R, big.NewInt(1))

	got, err := Sender(tx)
	if err == nil && got == want {
		t.Fatal("tampering with R should not recover the original signer")
	}
}
