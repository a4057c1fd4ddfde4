package sidechannel

import (
	"net/url"
	"strings"
)

// HiddenField is a name/value pair emitted next to the visible input so the
// companion id survives a form round trip.
type HiddenField struct {
	Name  string
	Value string
}

// CompanionField returns the hidden field carrying v's auxiliary value. The
// boolean is false when there is nothing to carry.
func CompanionField(name string, v Value) (HiddenField, bool) {
	name = strings.TrimSpace(name)
	if name == "" || v.Auxiliary == "" {
		return HiddenField{}, false
	}
	return HiddenField{Name: name, Value: v.Auxiliary}, true
}

// CompanionName derives the hidden field name for a visible field, for example
// "owner" -> "owner__id".
func CompanionName(field string) string {
	field = strings.TrimSpace(field)
	if field == "" {
		return ""
	}
	return field + "__id"
}

// FromForm reads a Value back from submitted form values.
func FromForm(values url.Values, field, companion string) Value {
	if values == nil {
		return Value{}
	}
	v := Value{Primary: values.Get(field)}
	if companion != "" {
		v.Auxiliary = values.Get(companion)
	}
	return v
}
