package template

import (
	"strings"

	"github.com/goliatone/go-picker/pkg/record"
)

const (
	openMarker  = "{{"
	closeMarker = "}}"
	fallbackOp  = "||"
)

// SegmentKind distinguishes literal text from placeholder slots.
type SegmentKind int

const (
	SegmentLiteral SegmentKind = iota
	SegmentSlot
)

// Segment is one piece of a compiled template. Literal segments carry Text;
// slot segments carry the ordered fallback Paths.
type Segment struct {
	Kind  SegmentKind
	Text  string
	Paths []record.Path
}

// Compiled is the parsed form of a template. It is immutable and safe for
// concurrent use.
type Compiled struct {
	source   string
	segments []Segment
	paths    []record.Path
	slots    int
}

// Compile parses raw into literal and slot segments.
func Compile(raw string) (*Compiled, error) {
	compiled := &Compiled{source: raw}

	var literal strings.Builder
	flush := func() {
		if literal.Len() == 0 {
			return
		}
		compiled.segments = append(compiled.segments, Segment{Kind: SegmentLiteral, Text: literal.String()})
		literal.Reset()
	}

	i := 0
	for i < len(raw) {
		openAt := strings.Index(raw[i:], openMarker)
		closeAt := strings.Index(raw[i:], closeMarker)

		if closeAt >= 0 && (openAt < 0 || closeAt < openAt) {
			return nil, malformed(raw, i+closeAt, "unexpected '}}' without matching '{{'", nil)
		}
		if openAt < 0 {
			literal.WriteString(raw[i:])
			break
		}

		literal.WriteString(raw[i : i+openAt])
		start := i + openAt + len(openMarker)
		end := strings.Index(raw[start:], closeMarker)
		if end < 0 {
			return nil, malformed(raw, i+openAt, "unclosed '{{'", nil)
		}
		body := raw[start : start+end]
		if nested := strings.Index(body, openMarker); nested >= 0 {
			return nil, malformed(raw, start+nested, "nested '{{' inside placeholder", nil)
		}

		paths, err := parsePlaceholder(raw, start, body)
		if err != nil {
			return nil, err
		}

		flush()
		compiled.segments = append(compiled.segments, Segment{Kind: SegmentSlot, Paths: paths})
		compiled.slots++
		i = start + end + len(closeMarker)
	}
	flush()

	compiled.paths = flattenPaths(compiled.segments)
	return compiled, nil
}

// MustCompile is Compile for templates known at build time.
func MustCompile(raw string) *Compiled {
	compiled, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return compiled
}

func parsePlaceholder(raw string, offset int, body string) ([]record.Path, error) {
	if strings.TrimSpace(body) == "" {
		return nil, malformed(raw, offset, "empty placeholder", nil)
	}
	parts := strings.Split(body, fallbackOp)
	paths := make([]record.Path, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			return nil, malformed(raw, offset, "empty fallback path", nil)
		}
		path, err := record.ParsePath(part)
		if err != nil {
			return nil, malformed(raw, offset, "invalid field path", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func flattenPaths(segments []Segment) []record.Path {
	seen := make(map[string]struct{})
	var out []record.Path
	for _, segment := range segments {
		for _, path := range segment.Paths {
			key := path.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, path)
		}
	}
	return out
}

// Source returns the raw template string.
func (c *Compiled) Source() string {
	return c.source
}

// Segments returns a copy of the compiled segments.
func (c *Compiled) Segments() []Segment {
	out := make([]Segment, len(c.segments))
	for i, segment := range c.segments {
		out[i] = segment
		if segment.Paths != nil {
			out[i].Paths = append([]record.Path(nil), segment.Paths...)
		}
	}
	return out
}

// Paths returns every field path the template references, de-duplicated in
// first-seen order. Fetch collaborators use it to request only these fields.
func (c *Compiled) Paths() []record.Path {
	return append([]record.Path(nil), c.paths...)
}

// PathStrings is Paths in dotted form.
func (c *Compiled) PathStrings() []string {
	out := make([]string, len(c.paths))
	for i, path := range c.paths {
		out[i] = path.String()
	}
	return out
}

// Slots reports how many placeholders the template has.
func (c *Compiled) Slots() int {
	return c.slots
}

// SlotFor returns the ordinal of the first slot whose fallback list contains
// path.
func (c *Compiled) SlotFor(path record.Path) (int, bool) {
	ordinal := 0
	for _, segment := range c.segments {
		if segment.Kind != SegmentSlot {
			continue
		}
		for _, candidate := range segment.Paths {
			if candidate.Equal(path) {
				return ordinal, true
			}
		}
		ordinal++
	}
	return -1, false
}
