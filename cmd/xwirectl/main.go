// Command xwirectl encodes, decodes and validates messages described by a
// schema catalogue, falling back to the built-in core protocol types when no
// catalogue is configured.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danmuck/xwire/internal/config"
	"github.com/danmuck/xwire/internal/logging"
	"github.com/danmuck/xwire/internal/protocol/schema"
)

const usage = `usage: xwirectl [-config path] [-catalog path] <command> [flags]

commands:
  encode    build one message from -set name=value pairs
  decode    split and decode message streams from files
  check     validate the catalogue or the built-in types
  template  write a config or catalogue template
`

var errUsage = errors.New("usage")

// env is the state shared by every command once global flags are parsed.
type env struct {
	cfg     config.Config
	catalog *schema.Catalog
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("xwirectl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	cfgPath := fs.String("config", "", "config file path")
	catalogPath := fs.String("catalog", "", "catalogue path, overrides the config")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	// template runs before config loading so it can bootstrap a config.
	if cmd == "template" {
		return report(stderr, runTemplate(rest, stdout, stderr))
	}

	cfg := config.DefaultConfig()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(stderr, "xwirectl: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *catalogPath != "" {
		cfg.Catalog = *catalogPath
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logging.Setup("xwirectl", level, cfg.LogNoColor)

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		fmt.Fprintf(stderr, "xwirectl: %v\n", err)
		return 1
	}
	e := &env{cfg: cfg, catalog: catalog, stdin: stdin, stdout: stdout, stderr: stderr}

	switch cmd {
	case "encode":
		err = e.encode(rest)
	case "decode":
		err = e.decode(rest)
	case "check":
		err = e.check()
	default:
		fmt.Fprintf(stderr, "xwirectl: unknown command %q\n", cmd)
		fs.Usage()
		return 2
	}
	return report(stderr, err)
}

func report(stderr io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage), errors.Is(err, flag.ErrHelp):
		return 2
	}
	fmt.Fprintf(stderr, "xwirectl: %v\n", err)
	return 1
}

func runTemplate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("template", flag.ContinueOnError)
	fs.SetOutput(stderr)
	kind := fs.String("kind", "xwirectl", "template kind: xwirectl|catalog")
	output := fs.String("output", "", "output path, stdout when empty")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if *output == "" {
		text, err := config.Template(*kind)
		if err != nil {
			return err
		}
		_, err = io.WriteString(stdout, text)
		return err
	}
	if err := config.WriteTemplate(*output, *kind, *force); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s template to %s\n", *kind, *output)
	return nil
}
