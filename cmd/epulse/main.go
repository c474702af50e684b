// Package main provides the CLI entrypoint for epulse.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/epulse/internal/analytics"
	"github.com/verte-zerg/epulse/internal/config"
	"github.com/verte-zerg/epulse/internal/logging"
	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/resultsapi"
	"github.com/verte-zerg/epulse/internal/statsui"
	"github.com/verte-zerg/epulse/internal/store"
	"github.com/verte-zerg/epulse/internal/texts"
	"github.com/verte-zerg/epulse/internal/tui"
)

const (
	defaultWords        = texts.DefaultDrillWords
	defaultCaps         = 0.0
	defaultPunct        = 0.0
	defaultAddr         = "127.0.0.1:8080"
	defaultHistoryLimit = 20
	defaultStatsLimit   = 200
)

const defaultPunctSet = ".,!?;:"

var (
	verbose bool
	fileCfg config.FileConfig
	logger  = zap.NewNop()

	practiceLevel    string
	practiceTexts    string
	practiceWordList string
	practiceWords    int
	practiceCaps     float64
	practicePunct    float64
	practicePunctSet string

	statsPlain bool
	statsLimit int

	historyLimit int

	resetYes bool

	serveAddr string
	serveDB   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "epulse",
		Short:             "TUI typing trainer with progress analytics",
		SilenceUsage:      true,
		SilenceErrors:     false,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			// Sync fails on stderr for some terminals; nothing useful to do about it.
			_ = logger.Sync()
		},
		RunE: runPracticeCmd,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.Flags().StringVar(&practiceLevel, "level", "", "text level (default: follow skill level)")
	rootCmd.Flags().StringVar(&practiceTexts, "texts", config.DefaultTextsPath(), "practice texts TOML file")
	rootCmd.Flags().StringVar(&practiceWordList, "word-list", config.DefaultWordListPath(), "word list for the words level")
	rootCmd.Flags().IntVar(&practiceWords, "words", defaultWords, "words per generated drill")
	rootCmd.Flags().Float64Var(&practiceCaps, "caps", defaultCaps, "probability of capitalized first letter in drills (0-1)")
	rootCmd.Flags().Float64Var(&practicePunct, "punct", defaultPunct, "punctuation probability per drill word (0-1)")
	rootCmd.Flags().StringVar(&practicePunctSet, "punct-set", defaultPunctSet, "punctuation set for drills")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLevelsCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

// setup loads the config file and builds the logger. Interactive commands log to a file.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	fileCfg = cfg

	opts := logging.Options{Verbose: verbose, File: config.DefaultLogPath()}
	if cfg.Log.Level != nil {
		opts.Level = *cfg.Log.Level
	}
	switch {
	case cfg.Log.File != nil:
		opts.File = *cfg.Log.File
	case cmd.Name() == "serve":
		opts.File = ""
	}
	l, err := logging.New(opts)
	if err != nil {
		return err
	}
	logger = l.With(zap.String("cmd", cmd.Name()))
	return nil
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "level", &practiceLevel, fileCfg.Practice.Level)
	applyStringConfig(cmd, "texts", &practiceTexts, fileCfg.Practice.Texts)
	applyStringConfig(cmd, "word-list", &practiceWordList, fileCfg.Practice.WordList)
	applyIntConfig(cmd, "words", &practiceWords, fileCfg.Practice.Words)
	applyFloatConfig(cmd, "caps", &practiceCaps, fileCfg.Practice.CapsPct)
	applyFloatConfig(cmd, "punct", &practicePunct, fileCfg.Practice.PunctPct)
	applyStringConfig(cmd, "punct-set", &practicePunctSet, fileCfg.Practice.PunctSet)

	cfg := model.Config{
		Level:        practiceLevel,
		TextsPath:    practiceTexts,
		WordListPath: practiceWordList,
		DrillWords:   practiceWords,
		CapsPct:      practiceCaps,
		PunctPct:     practicePunct,
		PunctSet:     practicePunctSet,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	catalog, err := texts.LoadFile(cfg.TextsPath)
	if err != nil {
		return fmt.Errorf("failed to load texts: %w", err)
	}
	words, err := loadDrillWords(cfg.WordListPath)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()
	if err := local.analytics.Load(ctx); err != nil {
		logger.Warn("loading analytics", zap.Error(err))
	}

	m := tui.NewModel(tui.Options{
		Config:    cfg,
		Catalog:   catalog,
		Words:     words,
		Recorder:  local.analytics,
		Analytics: local.analytics.State(),
		Logger:    logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// loadDrillWords reads the drill word list. A missing file means the built-in vocabulary.
func loadDrillWords(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	words, err := texts.LoadWords(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("word list not found, using built-in words", zap.String("path", path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load word list: %w", err)
	}
	return words, nil
}

// localStores bundles the local database, the analytics store on top of it and the
// optional result forwarder.
type localStores struct {
	db        *store.Store
	analytics *analytics.Store
	forwarder *resultsapi.Forwarder
}

func openLocal() (*localStores, error) {
	fwdCfg, err := forwardConfig(fileCfg.Forward)
	if err != nil {
		return nil, err
	}
	db, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	local := &localStores{db: db}
	opts := []analytics.StoreOption{
		analytics.WithResultLog(db),
		analytics.WithLogger(logger),
	}
	if fwdCfg.Enabled {
		local.forwarder = resultsapi.NewForwarder(fwdCfg, logger)
		opts = append(opts, analytics.WithForwarder(local.forwarder))
	}
	local.analytics = analytics.NewStore(db, opts...)
	return local, nil
}

// Close drains pending forwards and closes the database.
func (l *localStores) Close() {
	if l.forwarder != nil {
		l.forwarder.Close()
	}
	if err := l.db.Close(); err != nil {
		logger.Warn("failed to close db", zap.Error(err))
	}
}

func forwardConfig(fc config.ForwardConfig) (model.ForwardConfig, error) {
	var cfg model.ForwardConfig
	if fc.Enabled != nil {
		cfg.Enabled = *fc.Enabled
	}
	if fc.URL != nil {
		cfg.URL = strings.TrimSpace(*fc.URL)
	}
	if fc.Timeout != nil {
		cfg.Timeout = *fc.Timeout
	}
	if fc.MaxInFlight != nil {
		cfg.MaxInFlight = *fc.MaxInFlight
	}
	if cfg.Enabled && cfg.URL == "" {
		return cfg, fmt.Errorf("forward.url must be set when forwarding is enabled")
	}
	if cfg.Timeout < 0 {
		return cfg, fmt.Errorf("forward.timeout must be >= 0")
	}
	return cfg, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template unless path already exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newLevelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "levels",
		Short: "List practice text levels",
		Args:  cobra.NoArgs,
		RunE:  runLevelsCmd,
	}
}

func runLevelsCmd(cmd *cobra.Command, _ []string) error {
	path := config.DefaultTextsPath()
	if fileCfg.Practice.Texts != nil {
		path = *fileCfg.Practice.Texts
	}
	catalog, err := texts.LoadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load texts: %w", err)
	}
	levels := append(append([]texts.Level(nil), texts.Levels...), texts.All)
	out := cmd.OutOrStdout()
	for _, level := range levels {
		if _, err := fmt.Fprintf(out, "%-13s %3d  %s\n", level, catalog.Count(level), texts.Describe(level)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(out, "%-13s %3s  %s\n", texts.Words, "-", texts.Describe(texts.Words)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show analytics",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a plain-text report instead of the TUI")
	cmd.Flags().IntVar(&statsLimit, "limit", defaultStatsLimit, "results shown in the history tab")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()

	if statsPlain {
		if err := local.analytics.Load(cmd.Context()); err != nil {
			return err
		}
		return analytics.WriteReport(cmd.OutOrStdout(), local.analytics.State(), analytics.ReportOptions{})
	}

	m := statsui.NewModel(local.analytics, local.db, statsLimit)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List logged results, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit, "number of results (0 for all)")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	if historyLimit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	db, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close db", zap.Error(cerr))
		}
	}()

	results, err := db.ListResults(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		_, err := fmt.Fprintln(out, "No results logged.")
		return err
	}
	if _, err := analytics.HistoryTable(results).WriteTo(out); err != nil {
		return err
	}
	total, err := db.CountResults(cmd.Context())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "showing %d of %d results\n", len(results), total)
	return err
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset analytics to defaults (the results log is kept)",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if !resetYes {
		if _, err := fmt.Fprint(cmd.OutOrStdout(), "Reset all analytics? [y/N] "); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("reset aborted")
		}
		if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
			return fmt.Errorf("reset aborted")
		}
	}

	local, err := openLocal()
	if err != nil {
		return err
	}
	defer local.Close()
	if err := local.analytics.Reset(cmd.Context()); err != nil {
		return err
	}
	logger.Info("analytics reset")
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "Analytics reset.")
	return err
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the results endpoint",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&serveDB, "db", config.DefaultServerDBPath(), "results database")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	applyStringConfig(cmd, "addr", &serveAddr, fileCfg.Server.Addr)
	applyStringConfig(cmd, "db", &serveDB, fileCfg.Server.DBPath)

	db, err := store.Open(serveDB)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logger.Warn("failed to close db", zap.Error(cerr))
		}
	}()

	ln, err := net.Listen("tcp", serveAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving results", zap.String("addr", ln.Addr().String()), zap.String("db", serveDB))
	return resultsapi.Serve(ctx, ln, resultsapi.NewServer(db, logger))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# epulse configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# level = "beginner"      # Text level; unset follows your skill level
# texts = %q
# word-list = %q
# words = %d              # Words per generated drill
# caps = %.2f             # Probability of capitalized first letter (0-1)
# punct = %.2f            # Punctuation probability per word (0-1)
# punct-set = %q          # Punctuation set

[forward]
# enabled = false
# url = "http://%s/api/results"
# timeout = %q
# max-in-flight = 4

[server]
# addr = %q
# db = %q

[log]
# level = "info"
# file = %q
`,
		config.DefaultTextsPath(),
		config.DefaultWordListPath(),
		defaultWords,
		defaultCaps,
		defaultPunct,
		defaultPunctSet,
		defaultAddr,
		(5 * time.Second).String(),
		defaultAddr,
		config.DefaultServerDBPath(),
		config.DefaultLogPath(),
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.Level != "" {
		if _, err := texts.ParseLevel(cfg.Level); err != nil {
			return fmt.Errorf("--level: %w", err)
		}
	}
	if cfg.DrillWords <= 0 {
		return fmt.Errorf("--words must be > 0")
	}
	if cfg.CapsPct < 0 || cfg.CapsPct > 1 {
		return fmt.Errorf("--caps must be between 0 and 1")
	}
	if cfg.PunctPct < 0 || cfg.PunctPct > 1 {
		return fmt.Errorf("--punct must be between 0 and 1")
	}
	if cfg.PunctPct > 0 && cfg.PunctSet == "" {
		return fmt.Errorf("--punct-set must not be empty")
	}
	return nil
}
