// Package sidechannel carries a record id next to its label through
// transports that only preserve a single string, or a string plus one
// auxiliary value.
//
// Three strategies exist behind one Codec interface:
//
//   - None keeps only the label; ids must be recovered some other way.
//   - HiddenCompanion carries the id as a second value (for example a hidden
//     form field next to the visible input).
//   - InvisibleSeparator packs label and id into one string separated by
//     U+2063 INVISIBLE SEPARATOR. Any re-display must use Visible.
//
// The strategy is always chosen by configuration, never guessed from content.
package sidechannel

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy names a side-channel encoding.
type Strategy string

const (
	None               Strategy = "none"
	HiddenCompanion    Strategy = "hidden-companion"
	InvisibleSeparator Strategy = "invisible-separator"
)

var (
	// ErrUnknownStrategy reports an unrecognised strategy name.
	ErrUnknownStrategy = errors.New("sidechannel: unknown strategy")
	// ErrDecodeUnsupported is returned by the None strategy on Decode.
	ErrDecodeUnsupported = errors.New("sidechannel: decode not supported")
	// ErrMalformed reports a carried value that does not decode structurally.
	ErrMalformed = errors.New("sidechannel: malformed value")
	// ErrSentinelInValue reports a label or id that already contains the
	// separator and would corrupt the packed string.
	ErrSentinelInValue = errors.New("sidechannel: value contains separator")
	// ErrEmptyID reports an attempt to encode an empty id.
	ErrEmptyID = errors.New("sidechannel: empty id")
)

// ParseStrategy accepts the canonical dashed names as well as their camel
// case spelling, case-insensitively. The empty string maps to None.
func ParseStrategy(raw string) (Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)
	switch normalized {
	case "", "none":
		return None, nil
	case "hiddencompanion":
		return HiddenCompanion, nil
	case "invisibleseparator":
		return InvisibleSeparator, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, raw)
	}
}

// Value is everything that crosses the boundary between selection and later
// use: one primary string and, for HiddenCompanion only, one auxiliary string.
type Value struct {
	Primary   string `json:"value"`
	Auxiliary string `json:"companion,omitempty"`
}

// Codec encodes a label/id pair into a Value and back.
type Codec interface {
	Strategy() Strategy
	Encode(label, id string) (Value, error)
	Decode(v Value) (label, id string, err error)
	// Visible returns the human-facing part of v.
	Visible(v Value) string
}

// New returns the codec for strategy.
func New(strategy Strategy) (Codec, error) {
	switch strategy {
	case None, "":
		return noneCodec{}, nil
	case HiddenCompanion:
		return companionCodec{}, nil
	case InvisibleSeparator:
		return separatorCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, string(strategy))
	}
}

// Present reports whether v carries a payload for strategy at all: a
// companion under HiddenCompanion, a separator under InvisibleSeparator. A
// bare label is not malformed, it simply has no side channel.
func Present(strategy Strategy, v Value) bool {
	switch strategy {
	case HiddenCompanion:
		return v.Auxiliary != ""
	case InvisibleSeparator:
		return strings.ContainsRune(v.Primary, Sentinel)
	default:
		return false
	}
}

// MustNew is New for strategies known to be valid.
func MustNew(strategy Strategy) Codec {
	codec, err := New(strategy)
	if err != nil {
		panic(err)
	}
	return codec
}

type noneCodec struct{}

func (noneCodec) Strategy() Strategy { return None }

func (noneCodec) Encode(label, _ string) (Value, error) {
	return Value{Primary: label}, nil
}

func (noneCodec) Decode(Value) (string, string, error) {
	return "", "", ErrDecodeUnsupported
}

func (noneCodec) Visible(v Value) string { return v.Primary }

type companionCodec struct{}

func (companionCodec) Strategy() Strategy { return HiddenCompanion }

func (companionCodec) Encode(label, id string) (Value, error) {
	if id == "" {
		return Value{}, ErrEmptyID
	}
	return Value{Primary: label, Auxiliary: id}, nil
}

func (companionCodec) Decode(v Value) (string, string, error) {
	if v.Auxiliary == "" {
		return "", "", fmt.Errorf("%w: missing companion value", ErrMalformed)
	}
	return v.Primary, v.Auxiliary, nil
}

func (companionCodec) Visible(v Value) string { return v.Primary }
