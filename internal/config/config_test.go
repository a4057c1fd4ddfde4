package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/openapi"
	"github.com/goliatone/go-picker/pkg/sidechannel"
	"github.com/goliatone/go-picker/pkg/template"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadExpandsEnvAndAppliesDefaults(t *testing.T) {
	t.Setenv("PICKER_USERS_URL", "https://api.example.com/users")

	dir := t.TempDir()
	path := writeFile(t, dir, "picker.yaml", `
env: ${PICKER_ENV:-dev}
pickers:
  users:
    template: "{{name}} ({{dept}})"
    discriminatorPath: id
    sideChannel: invisibleSeparator
    endpoint:
      url: ${PICKER_USERS_URL}
      resultsPath: data
  rooms:
    template: "{{code}}"
    records:
      - {id: r1, code: A-1}
      - {id: r2, code: B-2}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Env != "dev" {
		t.Fatalf("expected env default dev, got %q", cfg.Env)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.DefaultLimit != 50 || cfg.HTTP.MaxLimit != 200 {
		t.Fatalf("unexpected http defaults: %+v", cfg.HTTP)
	}
	if cfg.Redis.KeyPrefix != catalog.DefaultKeyPrefix {
		t.Fatalf("unexpected redis prefix %q", cfg.Redis.KeyPrefix)
	}

	users := cfg.Pickers["users"]
	if users.Source != SourceHTTP || users.Endpoint.URL != "https://api.example.com/users" {
		t.Fatalf("unexpected users picker: %+v", users)
	}
	if users.Strategy() != sidechannel.InvisibleSeparator {
		t.Fatalf("expected invisible separator, got %q", users.Strategy())
	}
	if users.IDPath != "id" {
		t.Fatalf("expected default id path, got %q", users.IDPath)
	}

	rooms := cfg.Pickers["rooms"]
	if rooms.Source != SourceStatic || len(rooms.Records) != 2 {
		t.Fatalf("unexpected rooms picker: %+v", rooms)
	}
	tpl := template.MustCompile(rooms.Template)
	if got := tpl.Render(rooms.Records[1]); got != "B-2" {
		t.Fatalf("expected decoded record to render, got %q", got)
	}
}

func TestLoadMergesOpenAPI(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "openapi.yaml", `openapi: 3.0.3
info: {title: Library, version: "1"}
paths: {}
components:
  schemas:
    Book:
      type: object
      properties:
        author_id:
          type: string
          x-picker:
            template: "{{name}}"
          x-endpoint:
            url: https://api.example.com/authors
        shelf_id:
          type: string
          x-picker: "{{code}}"
`)
	path := writeFile(t, dir, "picker.yaml", `
env: test
openapi: openapi.yaml
pickers:
  Book.shelf_id:
    template: "{{code}} / {{room}}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	author, ok := cfg.Pickers["Book.author_id"]
	if !ok {
		t.Fatalf("expected merged Book.author_id picker")
	}
	if author.Source != SourceHTTP || author.Endpoint.URL != "https://api.example.com/authors" {
		t.Fatalf("unexpected merged picker: %+v", author)
	}
	if got := cfg.Pickers["Book.shelf_id"].Template; got != "{{code}} / {{room}}" {
		t.Fatalf("explicit picker should win, got template %q", got)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Env:  "staging",
		HTTP: HTTPConfig{EmptySearch: "all"},
		Pickers: map[string]Picker{
			"broken":  {Template: "{{name"},
			"remote":  {Template: "{{name}}", Source: SourceHTTP},
			"cached":  {Template: "{{name}}", Source: SourceRedis},
			"channel": {Template: "{{name}}", SideChannel: "carrier-pigeon"},
		},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if !errors.Is(err, template.ErrMalformedTemplate) {
		t.Fatalf("expected malformed template to be reported, got %v", err)
	}
	if !errors.Is(err, sidechannel.ErrUnknownStrategy) {
		t.Fatalf("expected unknown strategy to be reported, got %v", err)
	}
	for _, fragment := range []string{"env must be", "http.emptySearch", "pickers.remote", "pickers.cached"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in %v", fragment, err)
		}
	}
}

func TestApplyDefaultsRedisCatalogName(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Redis:   RedisConfig{Addrs: []string{"127.0.0.1:6379"}},
		Pickers: map[string]Picker{"users": {Template: "{{name}}", Source: SourceRedis}},
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if got := cfg.Pickers["users"].Catalog; got != "users" {
		t.Fatalf("expected catalog default to picker name, got %q", got)
	}
}

func TestFromDefinition(t *testing.T) {
	t.Parallel()

	got := FromDefinition(openapi.Definition{
		Schema:        "Book",
		Property:      "tag_ids",
		Template:      "{{label}}",
		AllowFreeText: true,
		Endpoint:      &openapi.Endpoint{URL: "/api/tags", SearchParam: "search"},
	})
	want := Picker{
		Template:      "{{label}}",
		AllowFreeText: true,
		Source:        SourceHTTP,
		Endpoint:      Endpoint{URL: "/api/tags", SearchParam: "search"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("picker mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("PICKER_SET", "value")

	got := string(expandEnvVars([]byte("a=${PICKER_SET} b=${PICKER_UNSET:-fallback} c=${PICKER_UNSET} d={{name}}")))
	if want := "a=value b=fallback c= d={{name}}"; got != want {
		t.Fatalf("expandEnvVars = %q, want %q", got, want)
	}
}

func TestParseKeepsDollarBeforeTemplateSlot(t *testing.T) {
	t.Setenv("amount", "leaked")
	t.Setenv("PICKER_CURRENCY", "")

	cfg, err := Parse([]byte("pickers:\n  prices:\n    template: \"Price: ${{amount}} (${PICKER_CURRENCY:-EUR})\"\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got, want := cfg.Pickers["prices"].Template, "Price: ${{amount}} (EUR)"; got != want {
		t.Fatalf("template = %q, want %q", got, want)
	}
	rendered := template.MustCompile(cfg.Pickers["prices"].Template).Render(map[string]any{"amount": "9.50"})
	if rendered != "Price: $9.50 (EUR)" {
		t.Fatalf("unexpected label %q", rendered)
	}
}

func TestApplyDefaultsEnvFromEnvironment(t *testing.T) {
	t.Setenv("ENV", "prod")

	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Env != "prod" {
		t.Fatalf("expected env from ENV, got %q", cfg.Env)
	}

	t.Setenv("ENV", "")
	cfg = Config{}
	cfg.ApplyDefaults()
	if cfg.Env != "local" {
		t.Fatalf("expected local fallback, got %q", cfg.Env)
	}
}
