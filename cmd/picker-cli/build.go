package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/redis/rueidis"
	"go.uber.org/zap"

	"github.com/goliatone/go-picker/internal/config"
	"github.com/goliatone/go-picker/internal/metrics"
	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/picker"
	"github.com/goliatone/go-picker/pkg/template"
)

// runtime owns everything built from a config file.
type runtime struct {
	cfg     config.Config
	logger  *zap.Logger
	pickers map[string]*picker.Picker
	redis   rueidis.Client
}

func (rt *runtime) Close() {
	if rt.redis != nil {
		rt.redis.Close()
	}
	_ = rt.logger.Sync()
}

func (rt *runtime) picker(name string) (*picker.Picker, error) {
	p, ok := rt.pickers[name]
	if ok {
		return p, nil
	}
	names := make([]string, 0, len(rt.pickers))
	for n := range rt.pickers {
		names = append(names, n)
	}
	sort.Strings(names)
	return nil, fmt.Errorf("unknown picker %q (configured: %v)", name, names)
}

// newRuntime builds every configured picker. Relative record files resolve
// against baseDir.
func newRuntime(cfg config.Config, baseDir string, logger *zap.Logger) (*runtime, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	rt := &runtime{cfg: cfg, logger: logger, pickers: make(map[string]*picker.Picker, len(cfg.Pickers))}
	if err := rt.buildPickers(baseDir); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) buildPickers(baseDir string) error {
	templates := template.NewCache()
	var errs []error
	for name, pc := range rt.cfg.Pickers {
		fetcher, err := rt.fetcher(name, pc, baseDir)
		if err != nil {
			errs = append(errs, fmt.Errorf("picker %s: %w", name, err))
			continue
		}
		p, err := picker.New(picker.Config{
			Name:              name,
			Template:          pc.Template,
			DiscriminatorPath: pc.DiscriminatorPath,
			SideChannel:       pc.Strategy(),
			AllowFreeText:     pc.AllowFreeText,
			IDPath:            pc.IDPath,
		}, fetcher,
			picker.WithLogger(rt.logger),
			picker.WithObserver(metrics.Observer{}),
			picker.WithTemplateCache(templates),
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("picker %s: %w", name, err))
			continue
		}
		rt.pickers[name] = p
	}
	return errors.Join(errs...)
}

func (rt *runtime) fetcher(name string, pc config.Picker, baseDir string) (catalog.Fetcher, error) {
	switch pc.Source {
	case config.SourceHTTP:
		return catalog.NewHTTP(catalog.HTTPConfig{
			URL:         pc.Endpoint.URL,
			Method:      pc.Endpoint.Method,
			ResultsPath: pc.Endpoint.ResultsPath,
			SearchParam: pc.Endpoint.SearchParam,
			Params:      pc.Endpoint.Params,
			Headers:     pc.Endpoint.Headers,
		})
	case config.SourceRedis:
		client, err := rt.redisClient()
		if err != nil {
			return nil, err
		}
		return catalog.NewRedis(client, rt.cfg.Redis.KeyPrefix, pc.Catalog)
	default:
		records := pc.Records
		if pc.RecordsFile != "" {
			path := pc.RecordsFile
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			loaded, err := catalog.LoadRecordsFile(path)
			if err != nil {
				return nil, err
			}
			records = loaded
		}
		rt.logger.Debug("static catalog", zap.String("picker", name), zap.Int("records", len(records)))
		return catalog.NewStatic(records), nil
	}
}

func (rt *runtime) redisClient() (rueidis.Client, error) {
	if rt.redis != nil {
		return rt.redis, nil
	}
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  rt.cfg.Redis.Addrs,
		Password:     rt.cfg.Redis.Password,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	rt.redis = client
	return client, nil
}
