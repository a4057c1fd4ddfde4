package picker

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-picker/pkg/resolver"
	"github.com/goliatone/go-picker/pkg/template"
)

// Observer receives picker lifecycle events. Implementations must be safe for
// concurrent use.
type Observer interface {
	Refreshed(picker string, candidates, ambiguous int)
	Resolved(picker string, strategy resolver.Strategy, err error)
}

type nopObserver struct{}

func (nopObserver) Refreshed(string, int, int)                {}
func (nopObserver) Resolved(string, resolver.Strategy, error) {}

// Option configures a Picker.
type Option func(*Picker)

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Picker) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithObserver registers lifecycle hooks such as metrics.
func WithObserver(observer Observer) Option {
	return func(p *Picker) {
		if observer != nil {
			p.observer = observer
		}
	}
}

// WithLimit caps how many candidates a Refresh requests when the filter does
// not set its own limit.
func WithLimit(limit int) Option {
	return func(p *Picker) {
		if limit > 0 {
			p.limit = limit
		}
	}
}

// WithTemplateCache compiles the label template through cache so pickers
// sharing a template share one compiled value.
func WithTemplateCache(cache *template.Cache) Option {
	return func(p *Picker) {
		p.templates = cache
	}
}
