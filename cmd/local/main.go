package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nemanja-m/lapreduce/internal/shared/config"
	"github.com/nemanja-m/lapreduce/internal/shared/logging"
	"github.com/nemanja-m/lapreduce/pkg/core"
	"github.com/nemanja-m/lapreduce/pkg/dataset"
	"github.com/nemanja-m/lapreduce/pkg/local"
	"github.com/nemanja-m/lapreduce/pkg/probe"
	"github.com/nemanja-m/lapreduce/pkg/report"

	_ "github.com/nemanja-m/lapreduce/examples/f1"
	_ "github.com/nemanja-m/lapreduce/examples/synthetic"
)

const title = "F1 Lap Time Analysis Results"

func main() {
	var (
		configPath = flag.String("config", "", "path to config file")
		name       = flag.String("dataset", "", "registered dataset to analyse (e.g., f1, synthetic)")
		input      = flag.String("input", "", "comma-separated glob patterns of lap time files; overrides -dataset")
		mode       = flag.String("mode", "", "partitioning mode: even or groups")
		workers    = flag.Int("workers", 0, "number of partitions in even mode")
		remainder  = flag.String("remainder", "", "remainder policy in even mode: reject or spread")
		topology   = flag.String("topology", "", "shared (goroutine pool) or sequential")
		tasks      = flag.Int("tasks", 0, "goroutine pool size for the shared topology; 0 runs one per partition")
		verbose    = flag.Bool("verbose", false, "print one line per partition")
	)
	flag.Parse()

	cfg, err := config.LoadLocal(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Flags set on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dataset":
			cfg.Dataset = *name
		case "input":
			cfg.Input = strings.Split(*input, ",")
		case "mode":
			cfg.Partitioning.Mode = *mode
		case "workers":
			cfg.Partitioning.Workers = *workers
		case "remainder":
			cfg.Partitioning.Remainder = *remainder
		case "topology":
			cfg.Topology = *topology
		case "tasks":
			cfg.Tasks = *tasks
		}
	})

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ds, source, err := loadDataset(cfg)
	if err != nil {
		logger.Fatal("Failed to load dataset", "error", err, "available", dataset.List())
	}

	partitioner, err := core.ParsePolicy(cfg.Partitioning.Mode, cfg.Partitioning.Workers, cfg.Partitioning.Remainder)
	if err != nil {
		logger.Fatal("Invalid partitioning", "error", err)
	}

	var transport core.Transport
	switch cfg.Topology {
	case "shared":
		transport = local.NewTransport(cfg.Tasks, logger)
	case "sequential":
		transport = core.NewSequentialTransport()
	default:
		logger.Fatal("Unknown topology", "topology", cfg.Topology)
	}

	reducer := core.NewReducer(partitioner, transport,
		core.WithLogger(logger),
		core.WithClock(probe.SystemClock{}),
		core.WithMemoryProbe(probe.Memory{}),
		core.WithSink(report.NewConsole(os.Stdout, title, *verbose)),
	)

	logger.Info("Starting analysis",
		"source", source,
		"samples", ds.Len(),
		"mode", cfg.Partitioning.Mode,
		"workers", cfg.Partitioning.Workers,
		"topology", cfg.Topology,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := reducer.Run(ctx, ds); err != nil {
		os.Exit(1)
	}
}

func loadDataset(cfg *config.LocalConfig) (core.Dataset, string, error) {
	var patterns []string
	for _, p := range cfg.Input {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) > 0 {
		ds, err := dataset.Load(patterns...)
		return ds, strings.Join(patterns, ","), err
	}
	ds, err := dataset.Get(cfg.Dataset)
	return ds, cfg.Dataset, err
}
