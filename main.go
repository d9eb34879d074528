package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"typereport/internal/analysis"
	"typereport/internal/config"
	"typereport/internal/extractor"
	"typereport/internal/git"
	"typereport/internal/history"
	"typereport/internal/logging"
	"typereport/internal/report"
)

const VERSION = "1.0.0"

// Exit codes, matching the analyzer client conventions.
const (
	exitSuccess     = 0
	exitFoundErrors = 1
	exitFailure     = 2
)

var errFoundErrors = errors.New("type errors found")

type options struct {
	configFile     string
	input          string
	analysisRoot   string
	output         string
	verbose        bool
	quiet          bool
	ignorePaths    []string
	filterRoots    []string
	logFile        string
	logLevel       string
	logHistory     bool
	historyDir     string
	generateConfig bool
	showConfig     bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(os.Stdout, os.Stderr)
	err := cmd.ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
		os.Exit(exitSuccess)
	case errors.Is(err, errFoundErrors):
		os.Exit(exitFoundErrors)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitFailure)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "typereport [flags] [-- analyzer command...]",
		Short: "Report type errors found by an external analyzer",
		Long: `typereport runs a type analyzer (or reads its saved output), rewrites the
reported paths relative to the current directory, drops ignored and external
errors, and prints the rest sorted by path, line and column.`,
		Version:       VERSION,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, opts, args, stdout, stderr)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "path to configuration file (default: search the current directory)")
	flags.StringVarP(&opts.input, "input", "i", "", "read analyzer output from `FILE` instead of running the analyzer (- for stdin)")
	flags.StringVar(&opts.analysisRoot, "analysis-root", "", "directory the analyzer reports paths relative to")
	flags.StringVarP(&opts.output, "output", "o", "", "output format: text or json")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "also report errors outside the current directory")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "suppress non-essential output")
	flags.StringSliceVar(&opts.ignorePaths, "ignore-all-errors", nil, "never report errors under these path prefixes")
	flags.StringSliceVar(&opts.filterRoots, "filter-roots", nil, "directories handed to the analyzer")
	flags.StringVar(&opts.logFile, "log-file", "", "also write logs as JSON to this file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&opts.logHistory, "log-history", false, "save the reported errors to a CSV file")
	flags.StringVar(&opts.historyDir, "history-dir", "", "directory for --log-history files")
	flags.BoolVar(&opts.generateConfig, "generate-config", false, "write a sample configuration file and exit")
	flags.BoolVar(&opts.showConfig, "show-config", false, "show the effective configuration and exit")

	return cmd
}

func runReport(cmd *cobra.Command, opts *options, args []string, stdout, stderr io.Writer) error {
	if opts.generateConfig {
		if err := config.GenerateConfigFile(""); err != nil {
			return fmt.Errorf("failed to generate config file: %w", err)
		}
		fmt.Fprintln(stdout, "Generated configuration file: .typereport.rc")
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to resolve current directory: %w", err)
	}

	cfg, err := loadConfig(opts.configFile, cwd)
	if err != nil {
		return err
	}
	applyFlags(cmd, opts, cfg, args)

	if opts.showConfig {
		cfg.PrintSummary(stdout)
		return nil
	}

	logOpts := logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogFile,
	}
	if isTerminal(stderr) {
		logOpts.Color = true
		logOpts.Highlight = highlightSummary
	}
	logger, err := logging.New(logOpts, zapcore.AddSync(stderr))
	if err != nil {
		return err
	}
	defer logger.Sync()

	for _, warning := range cfg.Warnings {
		logger.Warn("configuration", zap.String("file", cfg.Source), zap.String("problem", warning))
	}

	ctx := cmd.Context()
	if cfg.AnalysisRoot == "" {
		if root, err := git.TopLevel(ctx, cwd); err == nil {
			cfg.AnalysisRoot = root
			logger.Debug("using repository root as analysis root", zap.String("root", root))
		}
	}

	renderCfg, err := cfg.RenderConfiguration(cwd)
	if err != nil {
		return err
	}

	result, err := obtainResult(ctx, opts, cfg, cwd, stderr, logger)
	if err != nil {
		return err
	}
	if err := result.Check(); err != nil {
		return err
	}

	records, err := extractor.Normalize(result.Output, renderCfg.AnalysisRoot, renderCfg.CurrentDirectory, renderCfg.IgnoreAllErrorsPaths)
	if err != nil {
		return err
	}
	logger.Debug("normalized analyzer output", zap.Int("records", records.Len()))

	out := report.RenderSet(records, renderCfg)
	if out.Failed() {
		logger.Named(summaryLogger).Error(out.Summary)
	} else {
		logger.Named(summaryLogger).Info(out.Summary)
	}

	if _, err := out.WriteTo(stdout); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if out.Body != "" && renderCfg.Output == report.Text {
		fmt.Fprintln(stdout)
	}

	if opts.logHistory {
		path, err := history.WriteErrorsCSV(cfg.HistoryDir, out.Records, time.Now())
		if err != nil {
			logger.Warn("failed to log history", zap.Error(err))
		} else {
			logger.Info("errors logged", zap.String("file", path))
		}
	}

	if out.Failed() {
		return errFoundErrors
	}
	return nil
}

func loadConfig(file, cwd string) (*config.Config, error) {
	if file != "" {
		cfg, err := config.LoadConfigFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", file, err)
		}
		return cfg, nil
	}
	return config.LoadConfig(cwd)
}

// applyFlags lets explicitly set flags override the configuration file.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config, args []string) {
	flags := cmd.Flags()
	if flags.Changed("analysis-root") {
		cfg.AnalysisRoot = opts.analysisRoot
	}
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("verbose") {
		cfg.Verbose = opts.verbose
	}
	if flags.Changed("ignore-all-errors") {
		cfg.IgnoreAllErrors = opts.ignorePaths
	}
	if flags.Changed("filter-roots") {
		cfg.FilterRoots = opts.filterRoots
	}
	if flags.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("history-dir") {
		cfg.HistoryDir = opts.historyDir
	}
	if len(args) > 0 {
		cfg.Command = args
	}
}

func obtainResult(ctx context.Context, opts *options, cfg *config.Config, cwd string, stderr io.Writer, logger *zap.Logger) (analysis.Result, error) {
	switch opts.input {
	case "":
	case "-":
		return analysis.ReadResult(os.Stdin)
	default:
		file, err := os.Open(opts.input)
		if err != nil {
			return analysis.Result{}, fmt.Errorf("failed to open analyzer output: %w", err)
		}
		defer file.Close()
		return analysis.ReadResult(file)
	}

	roots, err := cfg.ResolveFilterRoots(cwd)
	if err != nil {
		return analysis.Result{}, err
	}
	command := append([]string{}, cfg.Command...)
	if len(command) > 0 && len(roots) > 0 {
		dirs := analysis.DirectoriesToAnalyze(roots, cwd)
		logger.Debug("directories to analyze", zap.Strings("dirs", dirs))
		command = append(command, dirs...)
	}

	var stopSpinner func()
	if !opts.quiet && isTerminal(stderr) {
		stopSpinner = startSpinner(stderr, "Running analysis...")
	}
	result, err := analysis.Run(ctx, command, cwd)
	if stopSpinner != nil {
		stopSpinner()
	}
	return result, err
}

// startSpinner shows an indeterminate progress indicator until the returned
// function is called.
func startSpinner(w io.Writer, description string) func() {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				bar.Add(1)
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
		bar.Finish()
	}
}

// summaryLogger names the logger that reports the run's summary line.
const summaryLogger = "summary"

// highlightSummary colors the summary line on the console.
func highlightSummary(ent zapcore.Entry) string {
	if ent.LoggerName != summaryLogger {
		return ent.Message
	}
	return report.StyleSummary(ent.Message, ent.Level >= zapcore.ErrorLevel)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
