// Package config loads tapmeta configuration files. A file names the
// database to read and how to render it, and may decorate the extracted
// metadata with protocol attributes the database does not store (units,
// UCDs, utypes, flags, extra foreign keys).
//
// Files ending in .toml are decoded with BurntSushi/toml; .yaml and .yml
// with yaml.v3. Unknown keys are rejected in both formats.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Defaults applied before a file is decoded.
const (
	DefaultSchema = "public"
	DefaultFormat = "text"
)

// Config is the full tapmeta configuration.
type Config struct {
	DatabaseURL    string   `toml:"database_url" yaml:"database_url"`
	Schema         string   `toml:"schema" yaml:"schema"`
	Tables         []string `toml:"tables" yaml:"tables"`
	ExcludeTables  []string `toml:"exclude_tables" yaml:"exclude_tables"`
	Format         string   `toml:"format" yaml:"format"` // text|markdown
	OutputDir      string   `toml:"output_dir" yaml:"output_dir"`
	SplitThreshold int      `toml:"split_threshold" yaml:"split_threshold"`
	SQLiteDriver   string   `toml:"sqlite_driver" yaml:"sqlite_driver"` // sqlite3|sqlite
	LogLevel       string   `toml:"log_level" yaml:"log_level"`

	Metadata MetadataConfig `toml:"metadata" yaml:"metadata"`
}

// MetadataConfig decorates the extracted schema.
type MetadataConfig struct {
	Description string                     `toml:"description" yaml:"description"`
	Utype       string                     `toml:"utype" yaml:"utype"`
	Tables      map[string]TableDecoration `toml:"tables" yaml:"tables"`
	ForeignKeys []ForeignKeyConfig         `toml:"foreign_keys" yaml:"foreign_keys"`
}

// TableDecoration holds the attributes set on one table. Empty strings
// leave the extracted value alone.
type TableDecoration struct {
	Description string                      `toml:"description" yaml:"description"`
	Utype       string                      `toml:"utype" yaml:"utype"`
	Type        string                      `toml:"type" yaml:"type"` // table|view|output
	Columns     map[string]ColumnDecoration `toml:"columns" yaml:"columns"`
}

// ColumnDecoration holds the attributes set on one column. Nil flags leave
// the extracted value alone.
type ColumnDecoration struct {
	Description string `toml:"description" yaml:"description"`
	Unit        string `toml:"unit" yaml:"unit"`
	UCD         string `toml:"ucd" yaml:"ucd"`
	Utype       string `toml:"utype" yaml:"utype"`
	Datatype    string `toml:"datatype" yaml:"datatype"`
	Principal   *bool  `toml:"principal" yaml:"principal"`
	Indexed     *bool  `toml:"indexed" yaml:"indexed"`
	Std         *bool  `toml:"std" yaml:"std"`
}

// ForeignKeyConfig declares a foreign key the database does not enforce.
type ForeignKeyConfig struct {
	ID          string   `toml:"id" yaml:"id"`
	From        string   `toml:"from" yaml:"from"`
	To          string   `toml:"to" yaml:"to"`
	FromColumns []string `toml:"from_columns" yaml:"from_columns"`
	ToColumns   []string `toml:"to_columns" yaml:"to_columns"`
	Description string   `toml:"description" yaml:"description"`
	Utype       string   `toml:"utype" yaml:"utype"`
}

// Default returns a configuration with defaults applied.
func Default() *Config {
	return &Config{
		Schema:   DefaultSchema,
		Format:   DefaultFormat,
		LogLevel: "info",
	}
}

// Load reads the configuration file at path. The format follows the extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = decodeTOML(data, cfg)
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if unknown := md.Undecoded(); len(unknown) > 0 {
		keys := make([]string, len(unknown))
		for i, k := range unknown {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// an empty document leaves the defaults
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate normalises the configuration and checks enumerated values.
func (c *Config) Validate() error {
	c.Schema = strings.TrimSpace(c.Schema)
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}

	switch c.Format {
	case "":
		c.Format = DefaultFormat
	case "text", "markdown":
	default:
		return fmt.Errorf("format must be one of: text, markdown")
	}

	switch c.SQLiteDriver {
	case "", "sqlite3", "sqlite":
	default:
		return fmt.Errorf("sqlite_driver must be one of: sqlite3, sqlite")
	}

	if c.SplitThreshold < 0 {
		return fmt.Errorf("split_threshold must not be negative")
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the configured log level. Empty means info.
func (c *Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
