package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-picker/pkg/catalog"
	"github.com/goliatone/go-picker/pkg/picker"
	"github.com/goliatone/go-picker/pkg/record"
	"github.com/goliatone/go-picker/pkg/sidechannel"
	"github.com/goliatone/go-picker/pkg/template"
)

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tpl := fs.String("template", "", "label template")
	recordsPath := fs.String("records", "", "YAML or JSON records file (stdin if empty)")
	idPath := fs.String("id-path", "id", "record id path")
	channel := fs.String("side-channel", "none", "side channel strategy")
	if err := fs.Parse(args); err != nil {
		return err
	}

	strategy, err := sidechannel.ParseStrategy(*channel)
	if err != nil {
		return err
	}
	var records []record.Record
	if *recordsPath != "" {
		records, err = catalog.LoadRecordsFile(*recordsPath)
	} else {
		records, err = catalog.LoadRecords(stdin)
	}
	if err != nil {
		return err
	}

	p, err := picker.New(picker.Config{Name: "render", Template: *tpl, SideChannel: strategy, IDPath: *idPath}, nil)
	if err != nil {
		return err
	}
	if err := p.Load(records); err != nil {
		return err
	}

	for _, choice := range p.Choices() {
		line := choice.ID + "\t" + choice.Label
		if choice.Value.Auxiliary != "" {
			line += "\t" + choice.Value.Auxiliary
		}
		if _, err := fmt.Fprintln(stdout, line); err != nil {
			return err
		}
	}
	for _, label := range p.Index().Ambiguous() {
		ids := p.Index().Lookup(label).IDs
		fmt.Fprintf(stderr, "ambiguous label %q: %s\n", label, strings.Join(ids, ", "))
	}
	return nil
}

func runPaths(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("paths", flag.ContinueOnError)
	fs.SetOutput(stderr)
	raw := fs.String("template", "", "label template")
	if err := fs.Parse(args); err != nil {
		return err
	}

	compiled, err := template.Compile(*raw)
	if err != nil {
		return err
	}
	slot := 0
	for _, seg := range compiled.Segments() {
		if seg.Kind != template.SegmentSlot {
			continue
		}
		names := make([]string, 0, len(seg.Paths))
		for _, path := range seg.Paths {
			names = append(names, path.String())
		}
		if _, err := fmt.Fprintf(stdout, "%d\t%s\n", slot, strings.Join(names, " || ")); err != nil {
			return err
		}
		slot++
	}
	return nil
}
