package cmd

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarchlab/middlesquare/config"
	"github.com/sarchlab/middlesquare/generator"
	"github.com/sarchlab/middlesquare/logging"
	"github.com/sarchlab/middlesquare/monitoring"
	"github.com/sarchlab/middlesquare/tracing"
)

func newGenerateCommand() *cobra.Command {
	generateCmd := &cobra.Command{
		Use:   "generate [seed] [iterations]",
		Short: "Print the bit stream of a middle-square run.",
		Long: "`generate 121 200` squares 121, keeps the middle three digits, " +
			"and repeats 200 times. The binary form of every kept value is " +
			"printed without prefix, separator, or trailing newline.",
		Args: cobra.MaximumNArgs(2),
		RunE: runGenerate,
	}

	logDefaults := logging.DefaultConfig()

	flags := generateCmd.Flags()
	flags.String("seed", "121", "Initial seed, a non-negative decimal integer")
	flags.IntP("iterations", "n", 200, "Number of iterations")
	flags.Bool("strict", false, "Stop with an error once the seed collapses to zero")
	flags.Bool("newline", false, "End the output with a newline")
	flags.String("trace-csv", "",
		"Record every step in <path>.csv; \"auto\" picks a unique name")
	flags.String("trace-sqlite", "",
		"Record every step in <path>.sqlite3; \"auto\" picks a unique name")
	flags.Bool("monitor", false, "Serve progress over HTTP while generating")
	flags.Int("monitor-port", 0, "Port of the monitoring server, random if 0")
	flags.Bool("open-browser", false, "Open the monitoring server in a browser")
	flags.String("log-level", logDefaults.Level, "debug, info, warn or error")
	flags.String("log-format", logDefaults.Format, "console or json")
	flags.String("log-output", logDefaults.Output, "stdout, stderr or a file path")
	flags.String("config", "", "Config file (yaml, toml or json)")

	return generateCmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	positional := []string{"seed", "iterations"}
	for i, arg := range args {
		if err := cmd.Flags().Set(positional[i], arg); err != nil {
			return fmt.Errorf("%s: %w", positional[i], err)
		}
	}

	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.Sources{
		Flags:      cmd.Flags(),
		ConfigFile: configFile,
	})
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	seed, err := cfg.SeedValue()
	if err != nil {
		return err
	}

	counter := tracing.NewDegeneracyCounter()
	builder := generator.MakeBuilder().
		WithSeed(seed).
		WithIterations(cfg.Iterations).
		WithStrictMode(cfg.Strict).
		WithHook(tracing.NewLogHook(logger)).
		WithHook(counter)

	for _, w := range traceWriters(cfg.Trace) {
		w.Init()
		defer w.Flush()

		builder = builder.WithHook(tracing.NewStepTracer(w))
	}

	g, err := builder.Build("MiddleSquare")
	if err != nil {
		return err
	}

	if cfg.Monitor.Enabled {
		stop, err := startMonitor(cfg.Monitor, g, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	out := bufio.NewWriter(cmd.OutOrStdout())

	runErr := g.Run(cmd.Context(), out)
	if runErr == nil && cfg.Newline {
		_ = out.WriteByte('\n')
	}

	if err := out.Flush(); err != nil {
		return err
	}

	logger.Info("generation finished",
		zap.String("generator", g.Name()),
		zap.Int("digits", g.Digits()),
		zap.Int("completed", g.Completed()),
		zap.Uint64("short_extractions",
			counter.Count(generator.HookPosShortExtraction)),
		zap.Bool("zero_locked", counter.Count(generator.HookPosZeroLock) > 0),
	)

	return runErr
}

func traceWriters(cfg config.TraceConfig) []tracing.TraceWriter {
	var writers []tracing.TraceWriter

	if cfg.CSV != "" {
		writers = append(writers, tracing.NewCSVTraceWriter(tracePath(cfg.CSV)))
	}

	if cfg.SQLite != "" {
		writers = append(writers,
			tracing.NewSQLiteTraceWriter(tracePath(cfg.SQLite)))
	}

	return writers
}

func tracePath(path string) string {
	if path == "auto" {
		return ""
	}

	return path
}

func startMonitor(
	cfg config.MonitorConfig,
	g *generator.Generator,
	logger *zap.Logger,
) (func(), error) {
	m := monitoring.NewMonitor().WithPortNumber(cfg.Port)
	m.RegisterGenerator(g)

	url, err := m.StartServer()
	if err != nil {
		return nil, fmt.Errorf("start monitor: %w", err)
	}

	if cfg.OpenBrowser {
		if err := monitoring.OpenInBrowser(url); err != nil {
			logger.Warn("cannot open browser", zap.Error(err))
		}
	}

	return func() {
		if err := m.StopServer(); err != nil {
			logger.Warn("cannot stop monitor", zap.Error(err))
		}
	}, nil
}
