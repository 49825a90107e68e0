package crypto

import (
	"bytes"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func TestKeccak256KnownVector(t *testing.T) {
	// Keccak256("") is a well-known test vector.
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	got := Keccak256(nil)
	if h := hexEncode(got); h != want[:len(got)*2] {
		t.Errorf("Keccak256(nil) = %s, want %s", h, want[:len(got)*2])
	}
}

func TestSignAndEcrecoverRoundTrip(t *testing.T) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	digest := Keccak256([]byte("transaction payload"))

	sig, err := Sign(digest, key.Serialize())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if len(sig) != SignatureLength {
		t.Fatalf("signature length = %d, want %d", len(sig), SignatureLength)
	}

	pub, err := SigToPub(digest, sig)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	wantPub := key.PubKey()
	if !bytes.Equal(pub.SerializeUncompressed(), wantPub.SerializeUncompressed()) {
		t.Error("recovered public key does not match signer's public key")
	}

	addr, err := PubkeyToAddress(pub.SerializeUncompressed())
	if err != nil {
		t.Fatalf("pubkey to address: %v", err)
	}
	if addr == ([20]byte{}) {
		t.Error("derived address is zero")
	}
}

func TestEcrecoverRejectsBadSignatureLength(t *testing.T) {
	digest := Keccak256([]byte("x"))
	if _, err := SigToPub(digest, make([]byte, 64)); err != ErrInvalidSignatureLen {
		t.Errorf("err = %v, want ErrInvalidSignatureLen", err)
	}
}

func TestEcrecoverRejectsBadRecoveryID(t *testing.T) {
	digest := Keccak256([]byte("x"))
	sig := make([]byte, SignatureLength)
	sig[64] = 2
	if _, err := SigToPub(digest, sig); err != ErrInvalidRecoveryID {
		t.Errorf("err = %v, want ErrInvalidRecoveryID", err)
	}
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}
