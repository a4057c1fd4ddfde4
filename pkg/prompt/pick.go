// Package prompt runs a picker interactively in a terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-picker/pkg/picker"
	"github.com/goliatone/go-picker/pkg/resolver"
)

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("prompt: aborted")
	// ErrNoChoices is returned when there is nothing to pick and free text is
	// not allowed.
	ErrNoChoices = errors.New("prompt: no choices available")
	// ErrInvalidSelection is returned when the driver reports an index outside
	// the offered options.
	ErrInvalidSelection = errors.New("prompt: invalid selection")
)

// DefaultOtherLabel is the extra option offered when free text is allowed.
const DefaultOtherLabel = "Other..."

type options struct {
	message    string
	help       string
	pageSize   int
	defaultID  string
	otherLabel string
}

// Option configures Pick.
type Option func(*options)

// WithMessage sets the prompt message; the picker name is used otherwise.
func WithMessage(message string) Option {
	return func(o *options) {
		o.message = message
	}
}

// WithHelp sets the prompt help text.
func WithHelp(help string) Option {
	return func(o *options) {
		o.help = help
	}
}

// WithPageSize bounds how many options are visible at once.
func WithPageSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.pageSize = size
		}
	}
}

// WithDefault preselects the candidate with id.
func WithDefault(id string) Option {
	return func(o *options) {
		o.defaultID = id
	}
}

// WithOtherLabel renames the free-text option.
func WithOtherLabel(label string) Option {
	return func(o *options) {
		if strings.TrimSpace(label) != "" {
			o.otherLabel = label
		}
	}
}

// Pick offers the installed candidates of p, then resolves the chosen entry
// the same way a submitted form value would be resolved. When the picker
// allows free text an extra option switches to a text prompt.
func Pick(ctx context.Context, p *picker.Picker, driver Driver, opts ...Option) (resolver.Result, error) {
	cfg := options{otherLabel: DefaultOtherLabel}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.message == "" {
		cfg.message = p.Name()
	}

	freeText := p.Config().AllowFreeText
	choices := p.Choices()
	if len(choices) == 0 {
		if !freeText {
			return resolver.Result{}, ErrNoChoices
		}
		return askFreeText(ctx, p, driver, cfg)
	}

	labels := make([]string, 0, len(choices)+1)
	defaultIndex := -1
	for i, choice := range choices {
		labels = append(labels, choice.Label)
		if cfg.defaultID != "" && choice.ID == cfg.defaultID {
			defaultIndex = i
		}
	}
	if freeText {
		labels = append(labels, cfg.otherLabel)
	}

	idx, err := driver.Select(ctx, SelectConfig{
		Message:      cfg.message,
		Options:      labels,
		DefaultIndex: defaultIndex,
		Help:         cfg.help,
		PageSize:     cfg.pageSize,
	})
	if err != nil {
		return resolver.Result{}, err
	}
	switch {
	case freeText && idx == len(choices):
		return askFreeText(ctx, p, driver, cfg)
	case idx < 0 || idx >= len(choices):
		return resolver.Result{}, fmt.Errorf("%w: %d", ErrInvalidSelection, idx)
	}

	res, err := p.Resolve(choices[idx].Value)
	if err != nil {
		if infoErr := driver.Info(ctx, fmt.Sprintf("could not resolve %q: %s", choices[idx].Label, resolver.Code(err))); infoErr != nil {
			return resolver.Result{}, errors.Join(err, infoErr)
		}
		return resolver.Result{}, err
	}
	return res, nil
}

func askFreeText(ctx context.Context, p *picker.Picker, driver Driver, cfg options) (resolver.Result, error) {
	text, err := driver.Input(ctx, InputConfig{
		Message: cfg.message,
		Help:    cfg.help,
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("value is required")
			}
			return nil
		},
	})
	if err != nil {
		return resolver.Result{}, err
	}
	return p.ResolveLabel(strings.TrimSpace(text))
}
