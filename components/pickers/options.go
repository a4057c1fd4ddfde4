package pickers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-picker/pkg/picker"
)

type EmptySearchMode string

const (
	EmptySearchNone EmptySearchMode = "none"
	EmptySearchTop  EmptySearchMode = "top"
)

const defaultFormField = "value"

type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath       string
	SearchParam     string
	LimitParam      string
	FormField       string
	DefaultLimit    int
	MaxLimit        int
	EmptySearchMode EmptySearchMode
	// MaxBodyBytes bounds resolve request bodies.
	MaxBodyBytes int64
	Guard        GuardFunc
	Logger       *zap.Logger

	Pickers map[string]*picker.Picker
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:       "/api/pickers",
		SearchParam:     "q",
		LimitParam:      "limit",
		FormField:       defaultFormField,
		DefaultLimit:    50,
		MaxLimit:        200,
		EmptySearchMode: EmptySearchTop,
		MaxBodyBytes:    64 << 10,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 200
	}
	if opts.EmptySearchMode == "" {
		opts.EmptySearchMode = EmptySearchTop
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/pickers"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	if opts.FormField == "" {
		opts.FormField = defaultFormField
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Pickers != nil {
		cloned := make(map[string]*picker.Picker, len(opts.Pickers))
		for name, p := range opts.Pickers {
			if p != nil {
				cloned[name] = p
			}
		}
		opts.Pickers = cloned
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		o.RoutePath = path
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		o.LimitParam = name
	}
}

// WithFormField names the visible form field read by resolve; the hidden
// companion is read from sidechannel.CompanionName(name).
func WithFormField(name string) OptionFn {
	return func(o *Options) {
		o.FormField = name
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		o.MaxLimit = limit
	}
}

func WithEmptySearchMode(mode EmptySearchMode) OptionFn {
	return func(o *Options) {
		o.EmptySearchMode = mode
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		o.Guard = guard
	}
}

func WithLogger(logger *zap.Logger) OptionFn {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithPicker registers p under its name. Later registrations replace earlier
// ones with the same name.
func WithPicker(p *picker.Picker) OptionFn {
	return func(o *Options) {
		if p == nil {
			return
		}
		if o.Pickers == nil {
			o.Pickers = make(map[string]*picker.Picker)
		}
		o.Pickers[p.Name()] = p
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
