// Package config loads the YAML configuration for the picker server and CLI.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/index"
	"github.com/goliatone/go-picker/pkg/openapi"
	"github.com/goliatone/go-picker/pkg/record"
	"github.com/goliatone/go-picker/pkg/sidechannel"
	"github.com/goliatone/go-picker/pkg/template"
)

// Source selects where a picker loads candidates from.
type Source string

const (
	SourceStatic Source = "static"
	SourceHTTP   Source = "http"
	SourceRedis  Source = "redis"
)

// Empty search modes for the HTTP component.
const (
	EmptySearchNone = "none"
	EmptySearchTop  = "top"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config holds the picker server configuration.
type Config struct {
	Env     string            `yaml:"env"`
	Logging LoggingConfig     `yaml:"logging"`
	HTTP    HTTPConfig        `yaml:"http"`
	Redis   RedisConfig       `yaml:"redis"`
	Pickers map[string]Picker `yaml:"pickers"`
	// OpenAPI names a document whose x-picker properties are merged into
	// Pickers. Relative paths resolve against the config file.
	OpenAPI string `yaml:"openapi"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server and component settings.
type HTTPConfig struct {
	Addr            string `yaml:"addr"`
	BasePath        string `yaml:"basePath"`
	RoutePath       string `yaml:"routePath"`
	DefaultLimit    int    `yaml:"defaultLimit"`
	MaxLimit        int    `yaml:"maxLimit"`
	EmptySearch     string `yaml:"emptySearch"`
	ReadTimeoutSec  int    `yaml:"readTimeoutSec"`
	WriteTimeoutSec int    `yaml:"writeTimeoutSec"`
	ShutdownSec     int    `yaml:"shutdownTimeoutSec"`
	// RefreshIntervalSec reloads every picker periodically; 0 disables it.
	RefreshIntervalSec int `yaml:"refreshIntervalSec"`
}

// RedisConfig holds the connection used by redis-backed catalogs.
type RedisConfig struct {
	Addrs     []string `yaml:"addrs"`
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"keyPrefix"`
}

// Picker declares one picker.
type Picker struct {
	Template          string          `yaml:"template"`
	DiscriminatorPath string          `yaml:"discriminatorPath"`
	SideChannel       string          `yaml:"sideChannel"`
	AllowFreeText     bool            `yaml:"allowFreeText"`
	IDPath            string          `yaml:"idPath"`
	Source            Source          `yaml:"source"`
	Records           []record.Record `yaml:"records"`
	RecordsFile       string          `yaml:"recordsFile"`
	Endpoint          Endpoint        `yaml:"endpoint"`
	Catalog           string          `yaml:"catalog"`
}

// Endpoint configures an HTTP candidate source.
type Endpoint struct {
	URL         string            `yaml:"url"`
	Method      string            `yaml:"method"`
	ResultsPath string            `yaml:"resultsPath"`
	SearchParam string            `yaml:"searchParam"`
	Params      map[string]string `yaml:"params"`
	Headers     map[string]string `yaml:"headers"`
}

// Load reads configuration from a YAML file, expands ${VAR} references,
// merges OpenAPI picker definitions, applies defaults and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, err
	}

	if cfg.OpenAPI != "" {
		location := cfg.OpenAPI
		if !filepath.IsAbs(location) && !strings.Contains(location, "://") {
			location = filepath.Join(filepath.Dir(path), location)
		}
		if err := cfg.MergeOpenAPI(context.Background(), openapi.NewLoader(), location); err != nil {
			return Config{}, err
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML after expanding environment references. It neither
// applies defaults nor validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// MergeOpenAPI adds the x-picker definitions found at location. Pickers
// already declared in the file win.
func (c *Config) MergeOpenAPI(ctx context.Context, loader *openapi.Loader, location string) error {
	src, err := openapi.ParseSource(location)
	if err != nil {
		return fmt.Errorf("config: openapi: %w", err)
	}
	defs, err := loader.Definitions(ctx, src)
	if err != nil {
		return fmt.Errorf("config: openapi: %w", err)
	}
	if c.Pickers == nil {
		c.Pickers = make(map[string]Picker, len(defs))
	}
	for key, def := range defs {
		if _, exists := c.Pickers[key]; exists {
			continue
		}
		c.Pickers[key] = FromDefinition(def)
	}
	return nil
}

// FromDefinition converts an OpenAPI definition into a picker entry.
func FromDefinition(def openapi.Definition) Picker {
	p := Picker{
		Template:          def.Template,
		DiscriminatorPath: def.DiscriminatorPath,
		SideChannel:       def.SideChannel,
		AllowFreeText:     def.AllowFreeText,
		IDPath:            def.IDPath,
		Source:            SourceStatic,
	}
	if def.Endpoint != nil {
		p.Source = SourceHTTP
		p.Endpoint = Endpoint{
			URL:         def.Endpoint.URL,
			Method:      def.Endpoint.Method,
			ResultsPath: def.Endpoint.ResultsPath,
			SearchParam: def.Endpoint.SearchParam,
			Params:      def.Endpoint.Params,
		}
	}
	return p
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Env == "" {
		c.Env = GetEnv()
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.BasePath == "" {
		c.HTTP.BasePath = "/"
	}
	if c.HTTP.RoutePath == "" {
		c.HTTP.RoutePath = "/api/pickers"
	}
	if c.HTTP.DefaultLimit <= 0 {
		c.HTTP.DefaultLimit = 50
	}
	if c.HTTP.MaxLimit <= 0 {
		c.HTTP.MaxLimit = 200
	}
	if c.HTTP.EmptySearch == "" {
		c.HTTP.EmptySearch = EmptySearchTop
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = catalog.DefaultKeyPrefix
	}
	for name, p := range c.Pickers {
		if p.IDPath == "" {
			p.IDPath = index.DefaultIDPath
		}
		if p.Source == "" {
			p.Source = SourceStatic
			if p.Endpoint.URL != "" {
				p.Source = SourceHTTP
			}
		}
		if p.Source == SourceRedis && p.Catalog == "" {
			p.Catalog = name
		}
		c.Pickers[name] = p
	}
}

// Validate checks the configuration for correctness. Every problem is
// reported, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case "local", "dev", "prod", "test":
	default:
		errs = append(errs, fmt.Errorf("env must be local, dev, prod or test, got %q", c.Env))
	}
	switch c.HTTP.EmptySearch {
	case EmptySearchNone, EmptySearchTop:
	default:
		errs = append(errs, fmt.Errorf("http.emptySearch must be %q or %q, got %q", EmptySearchNone, EmptySearchTop, c.HTTP.EmptySearch))
	}
	if c.HTTP.RefreshIntervalSec < 0 {
		errs = append(errs, fmt.Errorf("http.refreshIntervalSec must not be negative, got %d", c.HTTP.RefreshIntervalSec))
	}
	if c.HTTP.DefaultLimit > c.HTTP.MaxLimit {
		errs = append(errs, fmt.Errorf("http.defaultLimit %d exceeds http.maxLimit %d", c.HTTP.DefaultLimit, c.HTTP.MaxLimit))
	}

	names := make([]string, 0, len(c.Pickers))
	for name := range c.Pickers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.validatePicker(c.Pickers[name]); err != nil {
			errs = append(errs, fmt.Errorf("pickers.%s: %w", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c *Config) validatePicker(p Picker) error {
	if _, err := template.Compile(p.Template); err != nil {
		return err
	}
	if _, err := sidechannel.ParseStrategy(p.SideChannel); err != nil {
		return err
	}
	if p.DiscriminatorPath != "" {
		if _, err := record.ParsePath(p.DiscriminatorPath); err != nil {
			return fmt.Errorf("discriminatorPath: %w", err)
		}
	}
	if _, err := record.ParsePath(p.IDPath); err != nil {
		return fmt.Errorf("idPath: %w", err)
	}
	switch p.Source {
	case SourceStatic:
		if len(p.Records) > 0 && p.RecordsFile != "" {
			return errors.New("records and recordsFile are mutually exclusive")
		}
	case SourceHTTP:
		if p.Endpoint.URL == "" {
			return errors.New("endpoint.url is required for http source")
		}
	case SourceRedis:
		if len(c.Redis.Addrs) == 0 {
			return errors.New("redis.addrs is required for redis source")
		}
	default:
		return fmt.Errorf("source must be static, http or redis, got %q", p.Source)
	}
	return nil
}

// Strategy returns the parsed side-channel strategy. Call after Validate.
func (p Picker) Strategy() sidechannel.Strategy {
	strategy, err := sidechannel.ParseStrategy(p.SideChannel)
	if err != nil {
		return sidechannel.None
	}
	return strategy
}

// envVarRegex only matches identifier names so template text such as
// "${{amount}}" is left alone.
var envVarRegex = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		groups := envVarRegex.FindSubmatch(match)
		val := os.Getenv(string(groups[1]))
		if val == "" && len(groups[2]) > 0 {
			val = string(groups[2][len(":-"):])
		}
		return []byte(val)
	})
}
