package rlp

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
)

func TestEncodeKnownVectors(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want []byte
	}{
		{"empty string", []byte(""), []byte{0x80}},
		{"single byte below 0x80", []byte{0x61}, []byte{0x61}},
		{"short string", []byte("dog"), []byte{0x83, 'd', 'o', 'g'}},
		{"empty list", []any{}, []byte{0xc0}},
		{"zero as big.Int", big.NewInt(0), []byte{0x80}},
		{"zero as uint256", uint256.NewInt(0), []byte{0x80}},
		{"1024 as uint64", uint64(1024), []byte{0x82, 0x04, 0x00}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.in)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(got, tc.want) {
				t.Errorf("Encode(%v) = %x, want %x", tc.in, got, tc.want)
			}
		})
	}
}

func TestEncodeListOfStrings(t *testing.T) {
	got, err := Encode([][]byte{[]byte("cat"), []byte("dog")})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0xc8, 0x83, 'c', 'a', 't', 0x83, 'd', 'o', 'g'}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = %x, want %x", got, want)
	}
}

func TestSplitListRoundTrip(t *testing.T) {
	enc, err := EncodeList([]byte("a"), []byte("bb"), uint64(3))
	if err != nil {
		t.Fatalf("EncodeList: %v", err)
	}
	items, err := SplitList(enc)
	if err != nil {
		t.Fatalf("SplitList: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	b0, _ := Bytes(items[0])
	if string(b0) != "a" {
		t.Errorf("items[0] = %q, want %q", b0, "a")
	}
	n, _ := Uint64(items[2])
	if n != 3 {
		t.Errorf("items[2] = %d, want 3", n)
	}
}

func TestReadHeaderLongForm(t *testing.T) {
	data := make([]byte, 0, 60)
	payload := bytes.Repeat([]byte{0x01}, 56)
	enc := encodeBytes(payload)
	h, err := ReadHeader(enc)
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if h.Kind != KindString || h.PayloadLen != 56 {
		t.Errorf("header = %+v, want string/56", h)
	}
	_ = data
}

func TestTrailingDataRejected(t *testing.T) {
	enc := encodeBytes([]byte("dog"))
	enc = append(enc, 0x00)
	if _, err := Bytes(enc); err != ErrTrailingData {
		t.Errorf("err = %v, want ErrTrailingData", err)
	}
}
