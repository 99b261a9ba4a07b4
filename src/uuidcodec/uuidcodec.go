// Package uuidcodec encodes the gateway's opaque account identifiers.
//
// A token is the standard base64 encoding of six fields joined by "|":
// accountId, acctType, instType, instNumber, symbol and managedAccountType.
// Absent symbol or managed fields are written as "-".
package uuidcodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	Separator = "|"
	// Placeholder fills the symbol and managed fields when they do not apply.
	Placeholder = "-"
	fieldCount  = 6
)

var ErrDecode = errors.New("malformed account uuid")

// Fields is the ordered six-tuple carried by an account uuid.
type Fields [fieldCount]string

// Encode joins fields and base64-encodes the result. Fields containing the
// separator would not round-trip and are rejected.
func Encode(fields Fields) (string, error) {
	for i, f := range fields {
		if strings.Contains(f, Separator) {
			return "", fmt.Errorf("field %d contains separator %q", i, Separator)
		}
	}
	return EncodeString(strings.Join(fields[:], Separator)), nil
}

// Decode reverses Encode. A token that is not base64 or does not carry
// exactly six fields yields ErrDecode.
func Decode(token string) (Fields, error) {
	var out Fields
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	parts := strings.Split(string(raw), Separator)
	if len(parts) != fieldCount {
		return out, fmt.Errorf("%w: expected %d fields, got %d", ErrDecode, fieldCount, len(parts))
	}
	copy(out[:], parts)
	return out, nil
}

// EncodeString base64-encodes an arbitrary string. Used for watchlist uuids
// and the gateway auth details header.
func EncodeString(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
