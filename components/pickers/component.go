package pickers

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/picker"
)

// Component bundles the handler, its configuration and routing helpers.
type Component struct {
	opts Options
}

// New constructs a new component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return NewOptions(func(o *Options) { *o = c.opts })
}

// Handler returns a net/http handler for picker requests.
func (c *Component) Handler() http.Handler {
	if c == nil {
		return Handler()
	}
	return HandlerWithOptions(c.opts)
}

// RegisterRoutes registers the component handler under basePath on mux.
func (c *Component) RegisterRoutes(mux Mux, basePath string) (string, error) {
	if c == nil {
		return RegisterRoutes(mux, basePath)
	}
	return RegisterRoutesWithOptions(mux, basePath, c.opts)
}

// Names lists the registered pickers in order.
func (c *Component) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.opts.Pickers))
	for name := range c.opts.Pickers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Picker returns the registered picker called name.
func (c *Component) Picker(name string) (*picker.Picker, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.opts.Pickers[name]
	return p, ok
}

// Refresh reloads every picker's candidate set. Failures are logged and
// joined; a superseded refresh is not a failure.
func (c *Component) Refresh(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, name := range c.Names() {
		err := c.opts.Pickers[name].Refresh(ctx, catalog.Filter{})
		if err == nil || errors.Is(err, picker.ErrSuperseded) {
			continue
		}
		c.opts.Logger.Warn("picker refresh failed", zap.String("picker", name), zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
