package record

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Record is one catalog item. It is treated as immutable for the duration of a
// selection session.
type Record = any

// ErrInvalidPath reports a field path that cannot be parsed.
var ErrInvalidPath = errors.New("record: invalid path")

// Path is a parsed dotted field path.
type Path []string

// ParsePath splits raw on dots. Surrounding whitespace is trimmed from the path
// and from every segment; empty segments are rejected.
func ParsePath(raw string) (Path, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(trimmed, ".")
	out := make(Path, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, trimmed)
		}
		out = append(out, part)
	}
	return out, nil
}

// MustParsePath is ParsePath for static paths; it panics on error.
func MustParsePath(raw string) Path {
	path, err := ParsePath(raw)
	if err != nil {
		panic(err)
	}
	return path
}

// String returns the dotted form of the path.
func (p Path) String() string {
	return strings.Join(p, ".")
}

// Equal reports whether both paths have the same segments.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Lookup walks path through rec and returns the value it reaches. The boolean
// is false when any segment is missing.
func Lookup(rec Record, path Path) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	current := rec
	for _, segment := range path {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// Resolve looks path up and canonicalises the result. Absent values resolve
// to the empty string and false.
func Resolve(rec Record, path Path) (string, bool) {
	value, ok := Lookup(rec, path)
	if !ok {
		return "", false
	}
	return String(value), true
}

func step(current any, segment string) (any, bool) {
	switch node := current.(type) {
	case nil:
		return nil, false
	case map[string]any:
		next, ok := node[segment]
		return next, ok
	case map[string]string:
		next, ok := node[segment]
		return next, ok
	case []any:
		return index(len(node), segment, func(i int) any { return node[i] })
	case []string:
		return index(len(node), segment, func(i int) any { return node[i] })
	case []map[string]any:
		return index(len(node), segment, func(i int) any { return node[i] })
	}
	return reflectStep(current, segment)
}

func index(length int, segment string, at func(int) any) (any, bool) {
	i, ok := numericSegment(segment)
	if !ok || i >= length {
		return nil, false
	}
	return at(i), true
}

// numericSegment accepts only unsigned decimal segments.
func numericSegment(segment string) (int, bool) {
	if segment == "" {
		return 0, false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(segment)
	if err != nil {
		return 0, false
	}
	return i, true
}

func reflectStep(current any, segment string) (any, bool) {
	value := reflect.ValueOf(current)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return nil, false
		}
		value = value.Elem()
	}
	switch value.Kind() {
	case reflect.Map:
		if value.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		entry := value.MapIndex(reflect.ValueOf(segment).Convert(value.Type().Key()))
		if !entry.IsValid() {
			return nil, false
		}
		return entry.Interface(), true
	case reflect.Slice, reflect.Array:
		return index(value.Len(), segment, func(i int) any { return value.Index(i).Interface() })
	default:
		return nil, false
	}
}
