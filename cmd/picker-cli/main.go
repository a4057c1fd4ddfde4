package main

import (
	"fmt"
	"io"
	"os"
)

const usage = `usage: picker-cli <command> [flags]

commands:
  serve     run the HTTP options/resolve server
  pick      choose a candidate interactively
  resolve   resolve a carried value to a record id
  render    print the label of every record
  paths     list the record paths a template reads
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "picker-cli:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		_, _ = io.WriteString(stderr, usage)
		return fmt.Errorf("missing command")
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		return runServe(rest, stderr)
	case "pick":
		return runPick(rest, stdout, stderr)
	case "resolve":
		return runResolve(rest, stdout, stderr)
	case "render":
		return runRender(rest, stdin, stdout, stderr)
	case "paths":
		return runPaths(rest, stdout, stderr)
	case "help", "-h", "--help":
		_, _ = io.WriteString(stdout, usage)
		return nil
	default:
		_, _ = io.WriteString(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}
