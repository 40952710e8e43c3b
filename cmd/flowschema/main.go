package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/procwise/flowschema/internal/jq"
	"github.com/procwise/flowschema/internal/logging"
	"github.com/procwise/flowschema/internal/scheduler"
	"github.com/procwise/flowschema/internal/store"
	"github.com/procwise/flowschema/internal/validation"
	"github.com/procwise/flowschema/pkg/mcp"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "mcp" {
		runMCP(os.Args[2:])
		return
	}
	runExtract(os.Args[1:])
}

// runExtract is the default mode: one batch pass over a dataset file,
// optionally repeated on a cron schedule.
func runExtract(args []string) {
	cfg := loadConfig()

	fs := flag.NewFlagSet("flowschema", flag.ExitOnError)
	where := fs.String("where", "", "expr filter over records, e.g. 'node_count > 5'")
	selectExpr := fs.String("select", "", "jq expression applied to each output document")
	mermaid := fs.Bool("mermaid", false, "render Mermaid flowcharts instead of JSON documents")
	persist := fs.Bool("db", false, "persist results to the libSQL store")
	dbPath := fs.String("db-path", cfg.DBPath, "database path")
	output := fs.String("output", cfg.Output, "output path, - for stdout")
	schedule := fs.String("schedule", "", "cron expression to re-run the extraction, e.g. '0 3 * * *'")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: flowschema [flags] <dataset.json>\n")
		fmt.Fprintf(fs.Output(), "       flowschema mcp [flags]\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}
	datasetPath := fs.Arg(0)

	logger := newLogger(*logLevel)

	var st store.Store
	if *persist {
		s, err := openStore(*dbPath)
		if err != nil {
			logger.Error("failed to open store", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer s.Close()
		st = s
	}

	runner, err := newBatchRunner(batchOptions{
		DatasetPath: datasetPath,
		Where:       *where,
		Select:      *selectExpr,
		Mermaid:     *mermaid,
		Output:      *output,
	}, st, logger)
	if err != nil {
		logger.Error("failed to build runner", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runner.RunBatch(ctx); err != nil {
		logger.Error("extraction run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *schedule == "" {
		return
	}

	sched, err := scheduler.NewScheduler(*schedule, runner, logger)
	if err != nil {
		logger.Error("invalid schedule", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := sched.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}

	<-ctx.Done()
	_ = sched.Stop()
}

// runMCP serves the extraction tools over MCP stdio.
func runMCP(args []string) {
	cfg := loadConfig()

	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	persist := fs.Bool("db", false, "expose the libSQL store via the query tool")
	dbPath := fs.String("db-path", cfg.DBPath, "database path")
	logLevel := fs.String("log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	logger := newLogger(*logLevel)

	validator, err := validation.NewRecordValidator()
	if err != nil {
		logger.Error("failed to build record validator", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var st store.Store
	if *persist {
		s, openErr := openStore(*dbPath)
		if openErr != nil {
			logger.Error("failed to open store", slog.String("error", openErr.Error()))
			os.Exit(1)
		}
		defer s.Close()
		st = s
	}

	srv := mcp.NewFlowschemaServer(mcp.FlowschemaServerDeps{
		Validator: validator,
		Store:     st,
		Selector:  jq.NewSelector(),
		Logger:    logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("serving MCP over stdio")
	if err := srv.Serve(ctx); err != nil && ctx.Err() == nil {
		logger.Error("MCP server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func openStore(dbPath string) (*store.LibSQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, err
	}
	s, err := store.NewLibSQLStore("file:" + dbPath)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// clean for extraction output and the MCP transport.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	inner := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}
