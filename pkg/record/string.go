package record

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// SequenceSeparator joins sequence elements in canonical strings.
const SequenceSeparator = ", "

// String converts a resolved value into its canonical text form: primitives
// stringify directly, sequences join their canonical elements with
// SequenceSeparator and maps serialise as JSON with sorted keys.
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10)
	case uint, uint8, uint16, uint32, uint64:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	case []any:
		return joinSequence(len(v), func(i int) any { return v[i] })
	case []string:
		return strings.Join(v, SequenceSeparator)
	case map[string]any, map[string]string:
		return canonicalJSON(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return joinSequence(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map, reflect.Struct:
		return canonicalJSON(value)
	case reflect.Pointer:
		if rv.IsNil() {
			return ""
		}
		return String(rv.Elem().Interface())
	default:
		return fmt.Sprint(value)
	}
}

func joinSequence(length int, at func(int) any) string {
	parts := make([]string, length)
	for i := 0; i < length; i++ {
		parts[i] = String(at(i))
	}
	return strings.Join(parts, SequenceSeparator)
}

// canonicalJSON relies on encoding/json emitting map keys in sorted order.
func canonicalJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}
