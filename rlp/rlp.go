// Package rlp implements the canonical Recursive-Length-Prefix codec:
// every value is either a byte string or a list of values, and the
// encoding of a given logical value is unique (no two distinct byte
// sequences decode to the same value).
package rlp

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"

	"github.com/holiman/uint256"
)

var (
	ErrTooShort      = errors.New("rlp: input too short")
	ErrExpectedList  = errors.New("rlp: expected list")
	ErrExpectedValue = errors.New("rlp: expected byte string")
	ErrTrailingData  = errors.New("rlp: trailing data after value")
	ErrNonCanonical  = errors.New("rlp: non-canonical size encoding")
	ErrUnsupported   = errors.New("rlp: unsupported type")
)

// Encode returns the canonical RLP encoding of val. Supported shapes:
// []byte, string, every unsigned integer kind, *big.Int, *uint256.Int,
// slices/arrays (encoded as a list), and structs (encoded as a list of
// their exported fields, in declaration order, applied recursively).
func Encode(val any) ([]byte, error) {
	return encodeValue(reflect.ValueOf(val))
}

// EncodeList concatenates the encodings of each element and wraps them in
// a list header — a convenience for building ad-hoc tuples such as the
// EIP-155 signing preimage without declaring a struct type.
func EncodeList(items ...any) ([]byte, error) {
	var body []byte
	for _, it := range items {
		b, err := Encode(it)
		if err != nil {
			return nil, err
		}
		body = append(body, b...)
	}
	return wrapList(body), nil
}

// RawValue is a byte slice that is already a complete, valid RLP
// encoding. Encode inserts it verbatim rather than wrapping it as a byte
// string — the standard escape hatch for embedding pre-encoded lists
// (e.g. a receipt's log list) inside another value.
type RawValue []byte

func encodeValue(v reflect.Value) ([]byte, error) {
	if !v.IsValid() {
		return encodeBytes(nil), nil
	}
	switch x := v.Interface().(type) {
	case RawValue:
		return x, nil
	case []byte:
		return encodeBytes(x), nil
	case string:
		return encodeBytes([]byte(x)), nil
	case *big.Int:
		if x == nil {
			return encodeBytes(nil), nil
		}
		if x.Sign() < 0 {
			return nil, errors.New("rlp: cannot encode negative big.Int")
		}
		return encodeBytes(trimLeadingZeros(x.Bytes())), nil
	case *uint256.Int:
		if x == nil {
			return encodeBytes(nil), nil
		}
		return encodeBytes(trimLeadingZeros(x.Bytes())), nil
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return encodeBytes(nil), nil
		}
		return encodeValue(v.Elem())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return encodeBytes(trimLeadingZeros(big.NewInt(0).SetUint64(v.Uint()).Bytes())), nil
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return encodeBytes(b), nil
		}
		return encodeSlice(v)
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return encodeBytes(v.Bytes()), nil
		}
		return encodeSlice(v)
	case reflect.Struct:
		var body []byte
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			enc, err := encodeValue(v.Field(i))
			if err != nil {
				return nil, err
			}
			body = append(body, enc...)
		}
		return wrapList(body), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, v.Kind())
	}
}

func encodeSlice(v reflect.Value) ([]byte, error) {
	var body []byte
	for i := 0; i < v.Len(); i++ {
		enc, err := encodeValue(v.Index(i))
		if err != nil {
			return nil, err
		}
		body = append(body, enc...)
	}
	return wrapList(body), nil
}

func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

func encodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return []byte{b[0]}
	}
	return append(lengthPrefix(0x80, len(b)), b...)
}

func wrapList(body []byte) []byte {
	return append(lengthPrefix(0xc0, len(body)), body...)
}

// WrapRawList wraps an already-concatenated sequence of complete RLP
// encodings in a single list header, returning a RawValue ready to be
// embedded as an item in an outer Encode/EncodeList call.
func WrapRawList(body []byte) RawValue {
	return RawValue(wrapList(body))
}

// lengthPrefix builds an RLP header for a payload of length n, using base
// as the short-form offset (0x80 for strings, 0xc0 for lists). Payloads of
// 0-55 bytes get a single header byte; longer payloads get a header byte
// encoding the length-of-the-length, followed by the big-endian length.
func lengthPrefix(base byte, n int) []byte {
	if n <= 55 {
		return []byte{base + byte(n)}
	}
	lenBytes := trimLeadingZeros(big.NewInt(int64(n)).Bytes())
	return append([]byte{base + 55 + byte(len(lenBytes))}, lenBytes...)
}

// Kind distinguishes the two RLP shapes.
type Kind int

const (
	KindString Kind = iota
	KindList
)

// Header describes the outermost RLP item in a byte slice: its kind, the
// byte range of its payload, and the length of the header itself.
type Header struct {
	Kind       Kind
	PayloadLen int
	HeaderLen  int
}

// ReadHeader parses the RLP header at the start of data without consuming
// the payload, so callers can dispatch on Kind before recursing.
func ReadHeader(data []byte) (Header, error) {
	if len(data) == 0 {
		return Header{}, ErrTooShort
	}
	b := data[0]
	switch {
	case b < 0x80:
		return Header{Kind: KindString, PayloadLen: 1, HeaderLen: 0}, nil
	case b < 0xb8:
		return Header{Kind: KindString, PayloadLen: int(b - 0x80), HeaderLen: 1}, nil
	case b < 0xc0:
		n, hl, err := readLongLen(data, b-0xb7)
		if err != nil {
			return Header{}, err
		}
		return Header{Kind: KindString, PayloadLen: n, HeaderLen: hl}, nil
	case b < 0xf8:
		return Header{Kind: KindList, PayloadLen: int(b - 0xc0), HeaderLen: 1}, nil
	default:
		n, hl, err := readLongLen(data, b-0xf7)
		if err != nil {
			return Header{}, err
		}
		return Header{Kind: KindList, PayloadLen: n, HeaderLen: hl}, nil
	}
}

func readLongLen(data []byte, lenOfLen byte) (n, headerLen int, err error) {
	if len(data) < 1+int(lenOfLen) {
		return 0, 0, ErrTooShort
	}
	if data[1] == 0 {
		return 0, 0, ErrNonCanonical
	}
	lb := data[1 : 1+int(lenOfLen)]
	big := new(big.Int).SetBytes(lb)
	if !big.IsUint64() || big.Uint64() > (1<<32) {
		return 0, 0, errors.New("rlp: length too large")
	}
	n = int(big.Uint64())
	if n <= 55 {
		return 0, 0, ErrNonCanonical
	}
	return n, 1 + int(lenOfLen), nil
}

// SplitList parses data as a single top-level list and returns the raw
// encodings of its immediate elements, in order.
func SplitList(data []byte) ([][]byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Kind != KindList {
		return nil, ErrExpectedList
	}
	body := data[h.HeaderLen : h.HeaderLen+h.PayloadLen]
	if h.HeaderLen+h.PayloadLen != len(data) {
		return nil, ErrTrailingData
	}
	var items [][]byte
	for len(body) > 0 {
		ih, err := ReadHeader(body)
		if err != nil {
			return nil, err
		}
		total := ih.HeaderLen + ih.PayloadLen
		if total > len(body) {
			return nil, ErrTooShort
		}
		items = append(items, body[:total])
		body = body[total:]
	}
	return items, nil
}

// Bytes decodes data as a single top-level byte string.
func Bytes(data []byte) ([]byte, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Kind != KindString {
		return nil, ErrExpectedValue
	}
	if h.HeaderLen+h.PayloadLen != len(data) {
		return nil, ErrTrailingData
	}
	if h.HeaderLen == 0 {
		return data, nil
	}
	return data[h.HeaderLen:], nil
}

// Uint64 decodes data as a single top-level byte string interpreted as a
// big-endian unsigned integer.
func Uint64(data []byte) (uint64, error) {
	b, err := Bytes(data)
	if err != nil {
		return 0, err
	}
	if len(b) > 8 {
		return 0, errors.New("rlp: value overflows uint64")
	}
	if len(b) > 0 && b[0] == 0 {
		return 0, ErrNonCanonical
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return n, nil
}

// BigInt decodes data as a single top-level byte string interpreted as a
// big-endian unsigned integer of arbitrary size.
func BigInt(data []byte) (*big.Int, error) {
	b, err := Bytes(data)
	if err != nil {
		return nil, err
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, ErrNonCanonical
	}
	return new(big.Int).SetBytes(b), nil
}

// Word decodes data as a single top-level byte string interpreted as a
// big-endian uint256.
func Word(data []byte) (*uint256.Int, error) {
	b, err := Bytes(data)
	if err != nil {
		return nil, err
	}
	if len(b) > 32 {
		return nil, errors.New("rlp: value overflows 256 bits")
	}
	if len(b) > 0 && b[0] == 0 {
		return nil, ErrNonCanonical
	}
	return new(uint256.Int).SetBytes(b), nil
}
