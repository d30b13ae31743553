package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/config"
	"github.com/abhisek/latihan/internal/llm"
	"github.com/abhisek/latihan/internal/logger"
	"github.com/abhisek/latihan/internal/metrics"
	"github.com/abhisek/latihan/internal/store"
)

// app holds what PersistentPreRunE resolved for the running command.
var app struct {
	cfg     config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
}

var rootCmd = &cobra.Command{
	Use:   "latihan",
	Short: "Question bank and practice tool",
	Long: `Latihan builds question banks for classroom exercises.

Questions come from manual entry, AI generation or spreadsheet import, are
kept in a JSON bank file between runs, and can be practiced and graded
from the terminal.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Config file (default: ./latihan.yaml or $XDG_CONFIG_HOME/latihan/latihan.yaml)")
	pf.String("db", "", "Path to SQLite database file for the LLM call log (overrides LATIHAN_DB env var)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("metrics-file", "", "Write Prometheus metrics to this file on exit")
	pf.StringP("bank", "b", "latihan.json", "JSON bank file holding the question collection")

	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(materialCmd)
	rootCmd.AddCommand(repairCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{ConfigFile: file})
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if p, _ := cmd.Flags().GetString("metrics-file"); p != "" {
		cfg.MetricsFile = p
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	app.cfg = cfg
	app.log = log
	app.metrics = metrics.New()

	if cfg.File != "" {
		log.Debug("config loaded", zap.String("file", cfg.File))
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	defer func() { _ = app.log.Sync() }()
	if app.cfg.MetricsFile == "" {
		return nil
	}
	if err := app.metrics.WriteFile(app.cfg.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then LATIHAN_DB and the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if app.cfg.DB != "" {
		return app.cfg.DB, store.EnsureDir(app.cfg.DB)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newProvider builds the configured LLM provider with calls recorded to the
// audit log. The returned close func releases the database.
func newProvider(ctx context.Context, cmd *cobra.Command) (llm.Provider, func(), error) {
	if err := app.cfg.LLM.Validate(); err != nil {
		return nil, nil, fmt.Errorf("LLM provider: %w", err)
	}
	s, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	p, err := llm.NewProvider(ctx, app.cfg.LLM, llm.Deps{
		Recorder: s.LLMCalls(),
		Observer: app.metrics,
		Logger:   app.log,
	})
	if err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("LLM provider: %w", err)
	}
	return p, func() { s.Close() }, nil
}

// llmContext bounds one logical LLM operation by the configured timeout.
func llmContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if t := app.cfg.LLM.Timeout; t > 0 {
		return context.WithTimeout(ctx, t)
	}
	return context.WithCancel(ctx)
}
