package picker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/index"
	"github.com/goliatone/go-picker/pkg/record"
	"github.com/goliatone/go-picker/pkg/resolver"
	"github.com/goliatone/go-picker/pkg/sidechannel"
	"github.com/goliatone/go-picker/pkg/template"
)

var (
	// ErrSuperseded is returned by Refresh when a later refresh started before
	// this one finished; its result was discarded.
	ErrSuperseded = errors.New("picker: refresh superseded")
	// ErrMissingFetcher is returned by Refresh when no catalog is configured.
	ErrMissingFetcher = errors.New("picker: fetcher is required")
	// ErrUnknownRecord is returned by Encode for ids outside the snapshot.
	ErrUnknownRecord = errors.New("picker: unknown record")
)

// Config holds the recognised picker options.
type Config struct {
	Name              string
	Template          string
	DiscriminatorPath string
	SideChannel       sidechannel.Strategy
	AllowFreeText     bool
	IDPath            string
}

// Choice is one selectable entry: the label shown to the user and the value
// the transport carries.
type Choice struct {
	ID    string
	Label string
	Value sidechannel.Value
}

type state struct {
	snapshot *index.Snapshot
	index    *index.Index
	seq      uint64
}

// Picker is one configured selection session.
type Picker struct {
	name     string
	cfg      Config
	tpl      *template.Compiled
	codec    sidechannel.Codec
	resolver *resolver.Resolver
	fetcher  catalog.Fetcher
	fields   []string

	logger    *zap.Logger
	observer  Observer
	limit     int
	templates *template.Cache

	issued  atomic.Uint64
	install sync.Mutex
	current atomic.Pointer[state]
}

// New compiles the template and prepares the resolver. fetcher may be nil
// when records are installed directly with Load.
func New(cfg Config, fetcher catalog.Fetcher, opts ...Option) (*Picker, error) {
	p := &Picker{
		name:     cfg.Name,
		fetcher:  fetcher,
		logger:   zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	compile := template.Compile
	if p.templates != nil {
		compile = p.templates.Compile
	}
	tpl, err := compile(cfg.Template)
	if err != nil {
		return nil, err
	}
	codec, err := sidechannel.New(cfg.SideChannel)
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}
	if strings.TrimSpace(cfg.IDPath) == "" {
		cfg.IDPath = index.DefaultIDPath
	}
	if _, err := record.ParsePath(cfg.IDPath); err != nil {
		return nil, fmt.Errorf("picker: id path: %w", err)
	}
	res, err := resolver.New(resolver.Config{
		Template:      tpl,
		Discriminator: cfg.DiscriminatorPath,
		Codec:         codec,
		AllowFreeText: cfg.AllowFreeText,
	})
	if err != nil {
		return nil, fmt.Errorf("picker: %w", err)
	}

	p.cfg = cfg
	p.tpl = tpl
	p.codec = codec
	p.resolver = res
	p.fields = requestedFields(tpl, cfg)
	p.logger = p.logger.With(zap.String("picker", p.name))
	return p, nil
}

func requestedFields(tpl *template.Compiled, cfg Config) []string {
	fields := tpl.PathStrings()
	seen := make(map[string]struct{}, len(fields)+2)
	for _, field := range fields {
		seen[field] = struct{}{}
	}
	for _, extra := range []string{cfg.IDPath, cfg.DiscriminatorPath} {
		extra = strings.TrimSpace(extra)
		if extra == "" {
			continue
		}
		if _, ok := seen[extra]; ok {
			continue
		}
		seen[extra] = struct{}{}
		fields = append(fields, extra)
	}
	return fields
}

// Name returns the configured picker name.
func (p *Picker) Name() string { return p.name }

// Config returns the picker configuration with defaults applied.
func (p *Picker) Config() Config { return p.cfg }

// Template returns the compiled label template.
func (p *Picker) Template() *template.Compiled { return p.tpl }

// Codec returns the configured side-channel codec.
func (p *Picker) Codec() sidechannel.Codec { return p.codec }

// Fields lists the record fields the picker reads: template paths, the id path
// and the discriminator.
func (p *Picker) Fields() []string { return append([]string(nil), p.fields...) }

// Render produces the label for rec.
func (p *Picker) Render(rec record.Record) string { return p.tpl.Render(rec) }

// Refresh fetches a new candidate set and installs it unless a later Refresh
// started in the meantime. A cancelled context discards the result.
func (p *Picker) Refresh(ctx context.Context, filter catalog.Filter) error {
	if p.fetcher == nil {
		return ErrMissingFetcher
	}
	seq := p.issued.Add(1)

	filter.Fields = p.Fields()
	if filter.Limit <= 0 {
		filter.Limit = p.limit
	}

	records, err := p.fetcher.Fetch(ctx, filter)
	if err != nil {
		p.logger.Warn("candidate fetch failed", zap.Uint64("seq", seq), zap.Error(err))
		return fmt.Errorf("picker: fetch: %w", err)
	}
	if err := ctx.Err(); err != nil {
		p.logger.Debug("candidate fetch cancelled", zap.Uint64("seq", seq))
		return err
	}
	return p.installRecords(seq, records)
}

// Load installs records directly, as if a fetch had returned them. It
// supersedes any Refresh still in flight.
func (p *Picker) Load(records []record.Record) error {
	return p.installRecords(p.issued.Add(1), records)
}

func (p *Picker) installRecords(seq uint64, records []record.Record) error {
	if p.issued.Load() != seq {
		p.logger.Debug("discarding superseded candidates", zap.Uint64("seq", seq))
		return ErrSuperseded
	}

	snapshot, err := index.NewSnapshot(records, p.cfg.IDPath)
	if err != nil {
		return fmt.Errorf("picker: snapshot: %w", err)
	}
	idx := index.Build(p.tpl, snapshot)

	p.install.Lock()
	defer p.install.Unlock()
	if p.issued.Load() != seq {
		p.logger.Debug("discarding superseded candidates", zap.Uint64("seq", seq))
		return ErrSuperseded
	}
	p.current.Store(&state{snapshot: snapshot, index: idx, seq: seq})

	ambiguous := idx.Ambiguous()
	if len(ambiguous) > 0 {
		p.logger.Info("ambiguous labels in candidate set",
			zap.Int("count", len(ambiguous)),
			zap.Strings("labels", ambiguous),
		)
	}
	p.logger.Debug("candidates installed",
		zap.Uint64("seq", seq),
		zap.Int("candidates", snapshot.Len()),
	)
	p.observer.Refreshed(p.name, snapshot.Len(), len(ambiguous))
	return nil
}

// Snapshot returns the installed candidate set, or nil before the first load.
func (p *Picker) Snapshot() *index.Snapshot {
	if st := p.current.Load(); st != nil {
		return st.snapshot
	}
	return nil
}

// Index returns the label index of the installed snapshot, or nil.
func (p *Picker) Index() *index.Index {
	if st := p.current.Load(); st != nil {
		return st.index
	}
	return nil
}

// Record returns the installed record for id.
func (p *Picker) Record(id string) (record.Record, bool) {
	return p.Snapshot().Get(id)
}

// Choices renders every installed candidate. Candidates whose label cannot be
// encoded with the configured side channel are skipped and logged.
func (p *Picker) Choices() []Choice {
	st := p.current.Load()
	if st == nil {
		return nil
	}
	labels := st.index.Labels()
	candidates := st.snapshot.Candidates()
	out := make([]Choice, 0, len(candidates))
	for i, candidate := range candidates {
		value, err := p.codec.Encode(labels[i], candidate.ID)
		if err != nil {
			p.logger.Warn("skipping candidate", zap.String("id", candidate.ID), zap.Error(err))
			continue
		}
		out = append(out, Choice{ID: candidate.ID, Label: labels[i], Value: value})
	}
	return out
}

// Encode renders and encodes the installed record id, for example to prefill a
// previously chosen value.
func (p *Picker) Encode(id string) (Choice, error) {
	rec, ok := p.Record(id)
	if !ok {
		return Choice{}, fmt.Errorf("%w: %q", ErrUnknownRecord, id)
	}
	label := p.tpl.Render(rec)
	value, err := p.codec.Encode(label, id)
	if err != nil {
		return Choice{}, fmt.Errorf("picker: encode %q: %w", id, err)
	}
	return Choice{ID: id, Label: label, Value: value}, nil
}

// Resolve maps a carried value back to a record id against the installed
// snapshot.
func (p *Picker) Resolve(carried sidechannel.Value) (resolver.Result, error) {
	res, err := p.resolver.Resolve(carried, p.Index())
	p.observer.Resolved(p.name, res.Strategy, err)
	if err != nil {
		p.logger.Debug("resolution failed", zap.String("code", resolver.Code(err)), zap.Error(err))
		return res, err
	}
	return res, nil
}

// ResolveLabel resolves a bare label.
func (p *Picker) ResolveLabel(label string) (resolver.Result, error) {
	return p.Resolve(sidechannel.Value{Primary: label})
}
