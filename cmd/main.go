package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	app "github.com/okian/rosterfix/internal/app"
	"github.com/okian/rosterfix/internal/config"
	"github.com/okian/rosterfix/pkg/logger"
	"github.com/okian/rosterfix/pkg/metrics"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	// exitDirty reports a -check run that found numbering problems.
	exitDirty = 3
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("rosterfix", flag.ContinueOnError)
	fs.SetOutput(stderr)
	input := fs.String("input", "", "roster CSV to process (default: first CSV in input_dir)")
	check := fs.Bool("check", false, "report jersey number problems of the roster without writing anything")
	help := fs.Bool("help", false, "show usage")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: rosterfix [-input roster.csv] [-check]\n\n")
		fmt.Fprintf(fs.Output(), "Configuration comes from %s (YAML) and %s* variables.\n\n", config.EnvFile, config.EnvPrefix)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *help {
		fs.Usage()
		return exitOK
	}

	// Logs go to stderr; stdout carries the run report.
	if err := logger.InitWithWriter(stderr); err != nil {
		fmt.Fprintln(stderr, "failed to initialize logging:", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Load configuration (.env -> defaults -> optional file -> env)
	if err := config.LoadDotEnv(""); err != nil {
		fmt.Fprintln(stderr, "failed to load .env:", err)
		return exitFailure
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		metrics.RecordRunError("config")
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitFailure
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	defer func() {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			log.Error(ctx, "metrics export failed", logger.String("path", cfg.MetricsTextfile), logger.Error(err))
		}
	}()

	svc := app.NewFromConfig(cfg, app.WithLogger(log))
	p := message.NewPrinter(language.English)

	if *check {
		res, err := svc.Check(ctx, *input)
		if err != nil {
			fmt.Fprintln(stderr, "check failed:", err)
			return exitFailure
		}
		r := res.Report
		p.Fprintf(stdout, "Checked %s\n", res.InputPath)
		p.Fprintf(stdout, "%d players, %d out of range, %d duplicates, %d unassigned\n",
			r.Players, r.OutOfRange, r.Duplicates, r.Unassigned)
		if !r.Clean() {
			return exitDirty
		}
		return exitOK
	}

	res, err := svc.Process(ctx, *input)
	if err != nil {
		fmt.Fprintln(stderr, "run failed:", err)
		return exitFailure
	}

	s := res.Summary
	p.Fprintf(stdout, "Done in %.2f seconds.\n", res.Duration.Seconds())
	p.Fprintf(stdout, "Saved: %s\n", res.OutputPath)
	if res.AuditPath != "" {
		p.Fprintf(stdout, "Jersey audit exported: %s\n", res.AuditPath)
	}
	p.Fprintf(stdout, "%d rows, %d teams, %d forced duplicates, %d unassigned\n",
		res.Rows, s.Teams, s.ForcedDuplicates, s.Unassigned)
	return exitOK
}
