package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/goliatone/go-picker/internal/config"
	logpkg "github.com/goliatone/go-picker/internal/logger"
	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/prompt"
	"github.com/goliatone/go-picker/pkg/resolver"
	"github.com/goliatone/go-picker/pkg/sidechannel"
)

type resultOutput struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Strategy string `json:"strategy"`
	FreeText bool   `json:"freeText"`
}

func writeResult(w io.Writer, res resolver.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resultOutput{
		ID:       res.ID,
		Label:    res.Label,
		Strategy: string(res.Strategy),
		FreeText: res.FreeText,
	})
}

// loadRuntime reads the config and builds pickers with a quiet logger unless
// verbose is set.
func loadRuntime(configPath string, verbose bool) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	env, level := "test", ""
	if verbose {
		env, level = cfg.Env, "debug"
	}
	logger, err := logpkg.New(env, level)
	if err != nil {
		return nil, err
	}
	return newRuntime(cfg, filepath.Dir(configPath), logger)
}

func runPick(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("pick", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "picker.yaml", "configuration file")
	name := fs.String("picker", "", "picker name")
	query := fs.String("q", "", "search query sent to the catalog")
	defaultID := fs.String("default", "", "preselected record id")
	pageSize := fs.Int("page-size", 10, "visible options")
	verbose := fs.Bool("v", false, "log picker activity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := loadRuntime(*configPath, *verbose)
	if err != nil {
		return err
	}
	defer rt.Close()

	p, err := rt.picker(*name)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := p.Refresh(ctx, catalog.Filter{Query: *query}); err != nil {
		return err
	}
	res, err := prompt.Pick(ctx, p, prompt.NewSurveyDriver(stderr),
		prompt.WithDefault(*defaultID),
		prompt.WithPageSize(*pageSize),
	)
	if err != nil {
		return err
	}
	return writeResult(stdout, res)
}

func runResolve(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "picker.yaml", "configuration file")
	name := fs.String("picker", "", "picker name")
	value := fs.String("value", "", "carried primary value")
	companion := fs.String("companion", "", "carried companion value")
	offline := fs.Bool("offline", false, "skip the catalog fetch and resolve without an index")
	verbose := fs.Bool("v", false, "log picker activity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := loadRuntime(*configPath, *verbose)
	if err != nil {
		return err
	}
	defer rt.Close()

	p, err := rt.picker(*name)
	if err != nil {
		return err
	}
	if !*offline {
		if err := p.Refresh(context.Background(), catalog.Filter{}); err != nil {
			return err
		}
	}

	res, err := p.Resolve(sidechannel.Value{Primary: *value, Auxiliary: *companion})
	if err != nil {
		return fmt.Errorf("%s: %w", resolver.Code(err), err)
	}
	return writeResult(stdout, res)
}
