// Command tapmeta extracts TAP metadata from PostgreSQL, MySQL or SQLite
// and runs queries through a streaming table cursor.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tordrt/tapmeta"
	"github.com/tordrt/tapmeta/internal/config"
	"github.com/tordrt/tapmeta/internal/cursor"
	"github.com/tordrt/tapmeta/internal/formatter"
)

// cliOptions holds the flag values of one invocation.
type cliOptions struct {
	configPath   string
	dbURL        string
	mysqlURL     string
	sqlitePath   string
	sqliteDriver string
	schemaName   string
	debug        bool

	outputFile     string
	outputDir      string
	tables         string
	excludeTables  string
	format         string
	splitThreshold int

	rowFormat string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	rootCmd := &cobra.Command{
		Use:           "tapmeta",
		Short:         "Extract TAP metadata and stream query results",
		Long:          `tapmeta reads the catalog of a PostgreSQL, MySQL or SQLite database into TAP metadata (schemas, tables, columns, foreign keys) and streams query results row by row.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Config file (.toml, .yaml or .yml)")
	pf.StringVar(&opts.dbURL, "db-url", "", "Database URL (postgres://, mysql://, sqlite://)")
	pf.StringVar(&opts.mysqlURL, "mysql-url", "", "MySQL DSN")
	pf.StringVar(&opts.sqlitePath, "sqlite", "", "SQLite database file path")
	pf.StringVar(&opts.sqliteDriver, "sqlite-driver", "", "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	pf.StringVarP(&opts.schemaName, "schema", "s", config.DefaultSchema, "Database schema name")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Extract the schema as TAP metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd, opts)
		},
	}
	sf := schemaCmd.Flags()
	sf.StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: stdout)")
	sf.StringVarP(&opts.outputDir, "output-dir", "d", "", "Output directory for multi-file output")
	sf.StringVarP(&opts.tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	sf.StringVarP(&opts.excludeTables, "exclude", "x", "", "Tables to leave out (comma-separated)")
	sf.StringVarP(&opts.format, "format", "f", config.DefaultFormat, "Output format: text or markdown")
	sf.IntVar(&opts.splitThreshold, "split-threshold", 0, "Split into multiple files when table count exceeds this (requires --output-dir)")

	queryCmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a query and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}
	qf := queryCmd.Flags()
	qf.StringVarP(&opts.rowFormat, "format", "f", "", "Row format: tsv, markdown or table (default: table on a terminal, tsv otherwise)")
	qf.StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(schemaCmd, queryCmd)
	return rootCmd
}

// loadConfig merges the config file, if any, with the flags explicitly set
// on cmd. Flags win.
func loadConfig(cmd *cobra.Command, opts *cliOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	url, err := databaseURL(opts)
	if err != nil {
		return nil, err
	}
	if url != "" {
		cfg.DatabaseURL = url
	}
	if flags.Changed("schema") {
		cfg.Schema = opts.schemaName
	}
	if flags.Changed("sqlite-driver") {
		cfg.SQLiteDriver = opts.sqliteDriver
	}
	if flags.Changed("tables") {
		cfg.Tables = parseTableList(opts.tables)
	}
	if flags.Changed("exclude") {
		cfg.ExcludeTables = parseTableList(opts.excludeTables)
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = opts.outputDir
	}
	if flags.Changed("split-threshold") {
		cfg.SplitThreshold = opts.splitThreshold
	}
	if cmd.Name() == "schema" && flags.Changed("format") {
		cfg.Format = opts.format
	}
	if opts.debug {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("one of --db-url, --mysql-url, --sqlite or a config database_url must be specified")
	}
	return cfg, nil
}

// databaseURL builds a URL from the connection flags. At most one may be set.
func databaseURL(opts *cliOptions) (string, error) {
	var urls []string
	if opts.dbURL != "" {
		urls = append(urls, opts.dbURL)
	}
	if opts.mysqlURL != "" {
		urls = append(urls, "mysql://"+strings.TrimPrefix(opts.mysqlURL, "mysql://"))
	}
	if opts.sqlitePath != "" {
		urls = append(urls, "sqlite://"+opts.sqlitePath)
	}
	if len(urls) > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// parseTableList splits a comma-separated list, dropping blanks
func parseTableList(s string) []string {
	var tables []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tables = append(tables, t)
		}
	}
	return tables
}

// newLogger builds a development logger on stderr tagged with a run id
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}

	zc := zap.NewDevelopmentConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = level > zapcore.DebugLevel

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("run_id", uuid.NewString())), nil
}

func (c *cliOptions) extractOptions(cfg *config.Config, logger *zap.Logger) *tapmeta.Options {
	o := &tapmeta.Options{
		Tables:        cfg.Tables,
		ExcludeTables: cfg.ExcludeTables,
		SQLiteDriver:  cfg.SQLiteDriver,
		Logger:        logger,
	}
	// the flag default only applies to PostgreSQL; MySQL reads the DSN
	if cfg.Schema != config.DefaultSchema || strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		o.SchemaName = cfg.Schema
	}
	return o
}

// openOutput returns the output file, or the command output when path is empty
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to close output file: %v\n", err)
		}
	}, nil
}

func runSchema(cmd *cobra.Command, opts *cliOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	if cfg.OutputDir != "" && opts.outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	s, err := tapmeta.ExtractSchema(ctx, cfg.DatabaseURL, opts.extractOptions(cfg, logger))
	if err != nil {
		return err
	}
	if err := cfg.Apply(s); err != nil {
		return fmt.Errorf("failed to apply metadata config: %w", err)
	}
	logger.Info("schema extracted", zap.String("schema", s.ADQLName()), zap.Int("tables", s.TableCount()))

	if shouldSplit(cfg, s.TableCount()) {
		return tapmeta.FormatSchema(s, &tapmeta.OutputOptions{OutputDir: cfg.OutputDir, Format: cfg.Format})
	}

	w, done, err := openOutput(cmd, opts.outputFile)
	if err != nil {
		return err
	}
	defer done()

	if err := tapmeta.FormatSchema(s, &tapmeta.OutputOptions{Writer: w, Format: cfg.Format}); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	return nil
}

// shouldSplit reports whether multi-file output applies
func shouldSplit(cfg *config.Config, tableCount int) bool {
	return cfg.OutputDir != "" && (cfg.SplitThreshold == 0 || tableCount > cfg.SplitThreshold)
}

func runQuery(cmd *cobra.Command, opts *cliOptions, query string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	w, done, err := openOutput(cmd, opts.outputFile)
	if err != nil {
		return err
	}
	defer done()

	rw, err := formatter.NewRowWriter(w, rowFormat(opts.rowFormat, w))
	if err != nil {
		return err
	}

	return tapmeta.Query(ctx, cfg.DatabaseURL, query, opts.extractOptions(cfg, logger),
		func(c *cursor.TableCursor) error {
			n, err := rw.Write(c)
			if err != nil {
				return err
			}
			logger.Info("query done", zap.Int("rows", n))
			return nil
		})
}

// rowFormat picks the table layout for terminals and TSV for pipes and files
func rowFormat(requested string, w io.Writer) string {
	if requested != "" {
		return requested
	}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return formatter.RowFormatTable
	}
	return formatter.RowFormatTSV
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
