// Package record resolves dotted field paths inside catalog records and turns
// the resolved values into canonical strings.
//
// A record is an arbitrary tree of maps, sequences and primitives, usually the
// output of encoding/json or gopkg.in/yaml.v3. Paths such as `owner.name` or
// `tags.0` walk that tree one segment at a time: a purely numeric segment
// indexes into a sequence, any other segment (or a numeric segment applied to a
// map) looks up a map key. Lookups never panic; a missing intermediate simply
// yields "absent".
//
// String is the single canonicalisation used everywhere a value becomes text,
// so a label rendered from a record and a value recovered from a label compare
// byte for byte.
package record
