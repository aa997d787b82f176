// faber renders source artifacts from a declarative domain config.
//
// Usage:
//
//	faber validate -f domain.yaml [-json]
//	faber generate -f domain.yaml -o DIR [-t list] [-k list] [-feature list]
//	faber serve [-addr :8080]
//	faber watch -f domain.yaml -o DIR
//
// Exit codes: 0 clean run, 1 nothing generated (parse, config or
// validation failure), 2 partial output (one or more cells failed).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/syssam/faber"
	"github.com/syssam/faber/compiler/gen"
	"github.com/syssam/faber/server"
	"github.com/syssam/faber/watch"
)

const usageText = `faber renders source artifacts from a declarative domain config.

Usage:

  faber <command> [flags]

Commands:

  validate   check a domain config and report issues
  generate   render artifacts for a domain config
  serve      run the HTTP API
  watch      regenerate whenever the config changes

Run "faber <command> -h" for command flags.
`

// errUsage marks failures that flag parsing already reported.
var errUsage = errors.New("faber: invalid usage")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usageText)
		return faber.ExitValidationFailed
	}

	var err error
	switch cmd := args[0]; cmd {
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usageText)
		return faber.ExitOK
	case "validate":
		err = cmdValidate(args[1:], stdout, stderr)
	case "generate":
		err = cmdGenerate(args[1:], stdout, stderr)
	case "serve":
		err = cmdServe(args[1:], stderr)
	case "watch":
		err = cmdWatch(args[1:], stderr)
	default:
		fmt.Fprintf(stderr, "faber: unknown command %q\n\n", cmd)
		fmt.Fprint(stderr, usageText)
		return faber.ExitValidationFailed
	}

	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		return faber.ExitOK
	case errors.Is(err, errUsage):
		// flag already printed the problem and the defaults.
	default:
		fmt.Fprintln(stderr, err)
	}
	return faber.ExitCode(err)
}

func cmdValidate(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("f", "", "domain config file (required)")
	jsonOut := fs.Bool("json", false, "print the report as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *file == "" {
		fs.Usage()
		return errors.New("faber: -f is required")
	}

	issues, err := faber.ValidateFile(*file)
	if err != nil {
		return err
	}
	if err := printIssues(stdout, issues, *jsonOut); err != nil {
		return err
	}
	if gen.HasErrors(issues) {
		return faber.ErrValidationFailed
	}
	return nil
}

func cmdGenerate(args []string, stdout, stderr io.Writer) error {
	var o generateOpts
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o.bind(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if o.file == "" {
		fs.Usage()
		return errors.New("faber: -f is required")
	}
	log := newLogger(stderr, o.verbose)

	domain, err := faber.Load(o.file)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := faber.Generate(ctx, domain, o.engineOptions(log)...)
	var vErr *faber.ValidationFailedError
	if errors.As(err, &vErr) {
		if perr := printIssues(stdout, vErr.Issues, o.jsonOut); perr != nil {
			return perr
		}
		return faber.ErrValidationFailed
	}
	if err != nil && !faber.IsPartialFailure(err) {
		return err
	}
	if perr := printManifest(stdout, res.Manifest, o.jsonOut); perr != nil {
		return perr
	}
	// A partial failure keeps the manifest on stdout and reports the
	// failed cells through the returned error.
	return err
}

func cmdServe(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "", "listen address (default :8080 or FABER_PORT)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := parse(fs, args); err != nil {
		return err
	}
	log := newLogger(stderr, *verbose)

	opts := []server.Option{server.WithLogger(log)}
	if *addr != "" {
		opts = append(opts, server.WithAddr(*addr))
	}
	srv, err := server.New(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("listening", "addr", srv.Addr())
	return srv.Run(ctx)
}

func cmdWatch(args []string, stderr io.Writer) error {
	var o generateOpts
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	o.bind(fs)
	debounce := fs.Duration("debounce", watch.DefaultDebounce, "coalescing window for change bursts")
	if err := parse(fs, args); err != nil {
		return err
	}
	if o.file == "" || o.out == "" {
		fs.Usage()
		return errors.New("faber: -f and -o are required")
	}
	log := newLogger(stderr, o.verbose)

	rebuild := func(ctx context.Context) error {
		domain, err := faber.Load(o.file)
		if err != nil {
			return err
		}
		res, err := faber.Generate(ctx, domain, o.engineOptions(log)...)
		if err != nil {
			return err
		}
		log.Info("generated", "cells", len(res.Manifest.Entries), "elapsed", res.Manifest.Elapsed)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The first build runs before the watch starts. Its failure is
	// reported but does not stop the loop: the next save can fix it.
	if err := rebuild(ctx); err != nil {
		fmt.Fprintln(stderr, err)
	}

	w, err := watch.New(o.file, rebuild, watch.WithDebounce(*debounce), watch.WithLogger(log))
	if err != nil {
		return err
	}
	log.Info("watching", "path", w.Path())
	return w.Run(ctx)
}

// generateOpts holds the flags shared by generate and watch.
type generateOpts struct {
	file     string
	out      string
	targets  stringList
	kinds    stringList
	features stringList
	workers  int
	jsonOut  bool
	verbose  bool
}

func (o *generateOpts) bind(fs *flag.FlagSet) {
	fs.StringVar(&o.file, "f", "", "domain config file (required)")
	fs.StringVar(&o.out, "o", "", "output directory (omit for a dry run)")
	fs.Var(&o.targets, "t", "targets to render, comma separated (default all)")
	fs.Var(&o.kinds, "k", "artifact kinds to render, comma separated (default all)")
	fs.Var(&o.features, "feature", "feature flags to enable")
	fs.IntVar(&o.workers, "workers", 0, "parallel cells (default GOMAXPROCS)")
	fs.BoolVar(&o.jsonOut, "json", false, "print the manifest as JSON")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
}

func (o *generateOpts) engineOptions(log *slog.Logger) []gen.Option {
	opts := []gen.Option{gen.WithLogger(log)}
	if o.out != "" {
		opts = append(opts, gen.WithOutDir(o.out))
	}
	if len(o.targets) > 0 {
		opts = append(opts, gen.WithTargets(o.targets...))
	}
	if len(o.kinds) > 0 {
		kinds := make([]gen.ArtifactKind, len(o.kinds))
		for i, k := range o.kinds {
			kinds[i] = gen.ArtifactKind(k)
		}
		opts = append(opts, gen.WithKinds(kinds...))
	}
	if len(o.features) > 0 {
		opts = append(opts, gen.WithFeatureNames(o.features...))
	}
	if o.workers > 0 {
		opts = append(opts, gen.WithWorkers(o.workers))
	}
	return opts
}

// stringList accumulates comma separated flag values.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			*l = append(*l, s)
		}
	}
	return nil
}

func parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, flag.ErrHelp):
		return err
	default:
		return errUsage
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}

func printIssues(w io.Writer, issues []gen.Issue, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(issues)
	}
	for _, issue := range issues {
		fmt.Fprintln(w, issue)
	}
	return nil
}

func printManifest(w io.Writer, m *gen.Manifest, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	for _, e := range m.Entries {
		if e.Status == gen.StatusSuccess {
			fmt.Fprintln(w, e.Path)
		}
	}
	return nil
}
