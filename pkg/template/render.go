package template

import (
	"strings"

	"github.com/goliatone/go-picker/pkg/record"
)

// Render applies the template to rec. Literal segments pass through; each slot
// yields the first non-empty value among its fallback paths, or "".
func (c *Compiled) Render(rec record.Record) string {
	var out strings.Builder
	for _, segment := range c.segments {
		if segment.Kind == SegmentLiteral {
			out.WriteString(segment.Text)
			continue
		}
		out.WriteString(evalSlot(segment.Paths, rec))
	}
	return out.String()
}

func evalSlot(paths []record.Path, rec record.Record) string {
	for _, path := range paths {
		if value, ok := record.Resolve(rec, path); ok && value != "" {
			return value
		}
	}
	return ""
}
