package sidechannel

import (
	"fmt"
	"strings"
)

// Sentinel separates the visible label from the hidden id.
const Sentinel = '\u2063'

const sentinel = string(Sentinel)

type separatorCodec struct{}

func (separatorCodec) Strategy() Strategy { return InvisibleSeparator }

func (separatorCodec) Encode(label, id string) (Value, error) {
	if id == "" {
		return Value{}, ErrEmptyID
	}
	if strings.Contains(label, sentinel) {
		return Value{}, fmt.Errorf("%w: label %q", ErrSentinelInValue, Visible(label))
	}
	if strings.Contains(id, sentinel) {
		return Value{}, fmt.Errorf("%w: id", ErrSentinelInValue)
	}
	return Value{Primary: label + sentinel + id}, nil
}

func (separatorCodec) Decode(v Value) (string, string, error) {
	visible, hidden, found := strings.Cut(v.Primary, sentinel)
	if !found {
		return "", "", fmt.Errorf("%w: separator not found", ErrMalformed)
	}
	if hidden == "" {
		return "", "", fmt.Errorf("%w: empty id", ErrMalformed)
	}
	if strings.Contains(hidden, sentinel) {
		return "", "", fmt.Errorf("%w: repeated separator", ErrMalformed)
	}
	return visible, hidden, nil
}

func (separatorCodec) Visible(v Value) string { return Visible(v.Primary) }

// Visible returns the part of s before the first Sentinel. It is idempotent
// and safe to call on strings that were never encoded.
func Visible(s string) string {
	visible, _, _ := strings.Cut(s, sentinel)
	return visible
}
