// Package resolver recovers the id of the record a user picked, given only
// the carried label value.
//
// Strategies run in a fixed order and the first success wins:
//
//  1. side-channel decode, when the configured codec carries an id;
//  2. label index lookup (an ambiguous label fails, it is never guessed);
//  3. template inversion, reading the id back out of the label through the
//     slot that references the discriminator path.
//
// Resolution is a pure function of its inputs and is never retried.
package resolver

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goliatone/go-picker/pkg/index"
	"github.com/goliatone/go-picker/pkg/record"
	"github.com/goliatone/go-picker/pkg/sidechannel"
	"github.com/goliatone/go-picker/pkg/template"
)

// Strategy names the mechanism that produced a Result.
type Strategy string

const (
	StrategySideChannel Strategy = "side-channel"
	StrategyIndex       Strategy = "index"
	StrategyInversion   Strategy = "inversion"
	StrategyFreeText    Strategy = "free-text"
)

// Config selects the template, discriminator and side channel.
type Config struct {
	Template *template.Compiled
	// Discriminator is the dotted path nominated as authoritative for
	// inversion, usually the id field itself. Empty disables inversion.
	Discriminator string
	// Codec defaults to the None strategy.
	Codec sidechannel.Codec
	// AllowFreeText passes unresolvable labels through as opaque values.
	AllowFreeText bool
}

// Result is a successful resolution. FreeText results carry the label itself
// as ID.
type Result struct {
	ID       string
	Label    string
	Strategy Strategy
	FreeText bool
}

// Resolver maps carried values back to record ids.
type Resolver struct {
	tpl           *template.Compiled
	codec         sidechannel.Codec
	discriminator record.Path
	slot          int
	pattern       *regexp.Regexp
	allowFreeText bool
}

// New validates cfg and compiles the inversion pattern.
func New(cfg Config) (*Resolver, error) {
	if cfg.Template == nil {
		return nil, ErrMissingTemplate
	}
	codec := cfg.Codec
	if codec == nil {
		codec = sidechannel.MustNew(sidechannel.None)
	}

	r := &Resolver{
		tpl:           cfg.Template,
		codec:         codec,
		slot:          -1,
		allowFreeText: cfg.AllowFreeText,
	}

	if raw := strings.TrimSpace(cfg.Discriminator); raw != "" {
		path, err := record.ParsePath(raw)
		if err != nil {
			return nil, fmt.Errorf("resolver: discriminator: %w", err)
		}
		r.discriminator = path
		if slot, ok := cfg.Template.SlotFor(path); ok {
			r.slot = slot
		}
	}

	pattern, err := InversionPattern(cfg.Template)
	if err != nil {
		return nil, err
	}
	r.pattern = pattern
	return r, nil
}

// InversionPattern builds the anchored extraction pattern for tpl: literals
// are matched verbatim, every slot but the last is a lazy capture and the last
// slot captures greedily.
func InversionPattern(tpl *template.Compiled) (*regexp.Regexp, error) {
	segments := tpl.Segments()
	last := -1
	for i, segment := range segments {
		if segment.Kind == template.SegmentSlot {
			last = i
		}
	}

	var b strings.Builder
	b.WriteString(`^(?s:`)
	for i, segment := range segments {
		switch {
		case segment.Kind == template.SegmentLiteral:
			b.WriteString(regexp.QuoteMeta(segment.Text))
		case i == last:
			b.WriteString(`(.*)`)
		default:
			b.WriteString(`(.*?)`)
		}
	}
	b.WriteString(`)$`)

	pattern, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("resolver: inversion pattern: %w", err)
	}
	return pattern, nil
}

// Codec returns the side-channel codec in use.
func (r *Resolver) Codec() sidechannel.Codec { return r.codec }

// Template returns the compiled template.
func (r *Resolver) Template() *template.Compiled { return r.tpl }

// Resolve maps carried back to a record id. idx may be nil when no candidate
// snapshot is available; ids from the side channel or inversion are then
// returned unchecked.
func (r *Resolver) Resolve(carried sidechannel.Value, idx *index.Index) (Result, error) {
	label := r.codec.Visible(carried)
	var failures []error

	if sidechannel.Present(r.codec.Strategy(), carried) {
		_, id, err := r.codec.Decode(carried)
		switch {
		case err != nil:
			failures = append(failures, fmt.Errorf("%w: %w", ErrMalformedSideChannel, err))
		case idx == nil || idx.Contains(id):
			return Result{ID: id, Label: label, Strategy: StrategySideChannel}, nil
		default:
			failures = append(failures, fmt.Errorf("%w: side channel id %q", ErrStaleReference, id))
		}
	}

	if idx != nil {
		res := idx.Lookup(label)
		switch res.Kind {
		case index.Unique:
			return Result{ID: res.IDs[0], Label: label, Strategy: StrategyIndex}, nil
		case index.Ambiguous:
			failures = append(failures, fmt.Errorf("%w: %d candidates", ErrAmbiguousLabel, len(res.IDs)))
			return r.fail(label, failures)
		}
	}

	id, err := r.Invert(label)
	if err != nil {
		failures = append(failures, err)
		return r.fail(label, failures)
	}
	if idx != nil && !idx.Contains(id) {
		failures = append(failures, fmt.Errorf("%w: inverted id %q", ErrStaleReference, id))
		return r.fail(label, failures)
	}
	return Result{ID: id, Label: label, Strategy: StrategyInversion}, nil
}

// ResolveLabel resolves a bare label with no side-channel payload.
func (r *Resolver) ResolveLabel(label string, idx *index.Index) (Result, error) {
	return r.Resolve(sidechannel.Value{Primary: label}, idx)
}

// Invert extracts the discriminator value from label.
func (r *Resolver) Invert(label string) (string, error) {
	if len(r.discriminator) == 0 {
		return "", ErrNoDiscriminator
	}
	if r.slot < 0 {
		return "", fmt.Errorf("%w: %q is not referenced by the template", ErrNoDiscriminator, r.discriminator.String())
	}
	match := r.pattern.FindStringSubmatch(label)
	if match == nil {
		return "", ErrPatternMismatch
	}
	value := match[r.slot+1]
	if value == "" {
		return "", fmt.Errorf("%w: empty discriminator", ErrPatternMismatch)
	}
	return value, nil
}

func (r *Resolver) fail(label string, failures []error) (Result, error) {
	if r.allowFreeText {
		return Result{ID: label, Label: label, Strategy: StrategyFreeText, FreeText: true}, nil
	}
	return Result{}, &ResolutionError{Label: label, Err: errors.Join(failures...)}
}
