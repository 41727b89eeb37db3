// Package config resolves spendstat settings from defaults, an optional YAML
// file, SPENDSTAT_* environment variables (a .env file is loaded first) and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/spendstat/pkg/models"
	"github.com/yurifrl/spendstat/pkg/parser"
	"github.com/yurifrl/spendstat/pkg/report"
	"github.com/yurifrl/spendstat/pkg/stats"
)

const (
	EnvPrefix = "SPENDSTAT"
	EnvFile   = ".env"
)

// BudgetConfig is a budget as written in the config file. Amount is a string
// so that 12.5 and "12.50" both survive decoding without float rounding.
type BudgetConfig struct {
	Category string `mapstructure:"category"`
	Amount   string `mapstructure:"amount"`
	Days     int    `mapstructure:"days"`
}

type Config struct {
	Format          string            `mapstructure:"format"`
	Delimiter       string            `mapstructure:"delimiter"`
	Header          bool              `mapstructure:"header"`
	DateFormat      string            `mapstructure:"date_format"`
	CategoryMode    string            `mapstructure:"category_mode"`
	CategoryAliases map[string]string `mapstructure:"category_aliases"`

	Period  string         `mapstructure:"period"`
	AsOf    string         `mapstructure:"as_of"`
	Windows []int          `mapstructure:"windows"`
	Budgets []BudgetConfig `mapstructure:"budgets"`
	Top     int            `mapstructure:"top"`

	Output   string `mapstructure:"output"`
	LogLevel string `mapstructure:"log_level"`
	Strict   bool   `mapstructure:"strict"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"format":        "format",
	"delimiter":     "delimiter",
	"date-format":   "date_format",
	"category-mode": "category_mode",
	"period":        "period",
	"as-of":         "as_of",
	"windows":       "windows",
	"top":           "top",
	"output":        "output",
	"log-level":     "log_level",
	"strict":        "strict",
}

// RegisterFlags declares every flag Build knows how to bind.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("format", "", "Input format: csv, xml or xls (default: by extension)")
	fs.String("delimiter", ",", `CSV field delimiter ("tab" for tabs)`)
	fs.Bool("no-header", false, "CSV input has no header row")
	fs.String("date-format", models.DefaultDateLayout, "Go layout of the date column")
	fs.String("category-mode", string(parser.CategoryFallback), "Unknown categories: fallback or strict")
	fs.StringP("period", "p", string(stats.Month), "Period breakdown: day, week, month or year")
	fs.String("as-of", "", "Reference date for windows and budgets (default today)")
	fs.IntSlice("windows", stats.DefaultWindows, "Trailing windows in days")
	fs.Int("top", 10, "Number of top descriptions to show (0 hides them)")
	fs.StringP("output", "o", string(report.FormatText), "Output format: text, yaml or json")
	fs.String("log-level", "warn", "Log level: debug, info, warn or error")
	fs.Bool("strict", false, "Exit non-zero when any row is rejected")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "")
	v.SetDefault("delimiter", ",")
	v.SetDefault("header", true)
	v.SetDefault("date_format", models.DefaultDateLayout)
	v.SetDefault("category_mode", string(parser.CategoryFallback))
	v.SetDefault("category_aliases", map[string]string{})
	v.SetDefault("period", string(stats.Month))
	v.SetDefault("as_of", "")
	v.SetDefault("windows", stats.DefaultWindows)
	v.SetDefault("budgets", []BudgetConfig{})
	v.SetDefault("top", 10)
	v.SetDefault("output", string(report.FormatText))
	v.SetDefault("log_level", "warn")
	v.SetDefault("strict", false)
}

// Build resolves the configuration. cfgFile may be empty, in which case
// spendstat.yaml is looked up in the working directory and in
// $HOME/.config/spendstat; a missing file is not an error. flags may be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("spendstat")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/spendstat")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	// --no-header inverts the header key, so it can't be bound directly.
	if f := flags.Lookup("no-header"); f != nil && f.Changed {
		noHeader, err := flags.GetBool("no-header")
		if err != nil {
			return err
		}
		v.Set("header", !noHeader)
	}
	return nil
}

// Validate checks every setting that has a fixed set of values and reports
// all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.ParserOptions(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Granularity(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.OutputFormat(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.AsOfDate(models.DateOf(time.Now())); err != nil {
		errs = append(errs, err)
	}
	for _, w := range c.Windows {
		if w <= 0 {
			errs = append(errs, fmt.Errorf("invalid window %d: must be positive", w))
		}
	}
	if c.Top < 0 {
		errs = append(errs, fmt.Errorf("invalid top %d: must not be negative", c.Top))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// ParserOptions adapts the input settings for parser.New.
func (c *Config) ParserOptions() (parser.Options, error) {
	opts := parser.DefaultOptions()
	opts.HasHeader = c.Header

	switch f := parser.FileType(strings.ToLower(strings.TrimSpace(c.Format))); f {
	case parser.Auto, parser.CSV, parser.XML, parser.XLS:
		opts.Format = f
	default:
		return opts, fmt.Errorf("%w: %q", parser.ErrUnknownFormat, c.Format)
	}

	delim, err := parser.ParseDelimiter(c.Delimiter)
	if err != nil {
		return opts, err
	}
	opts.Delimiter = delim

	if c.DateFormat != "" {
		opts.DateLayout = c.DateFormat
	}

	switch m := parser.CategoryMode(strings.ToLower(strings.TrimSpace(c.CategoryMode))); m {
	case "", parser.CategoryFallback:
		opts.CategoryMode = parser.CategoryFallback
	case parser.CategoryStrict:
		opts.CategoryMode = parser.CategoryStrict
	default:
		return opts, fmt.Errorf("invalid category mode %q (want fallback or strict)", c.CategoryMode)
	}

	aliases, err := models.NewAliases(c.CategoryAliases)
	if err != nil {
		return opts, err
	}
	opts.Aliases = aliases
	return opts, nil
}

func (c *Config) Granularity() (stats.Granularity, error) {
	return stats.ParseGranularity(c.Period)
}

func (c *Config) OutputFormat() (report.Format, error) {
	return report.ParseFormat(c.Output)
}

func (c *Config) Level() (log.Level, error) {
	if c.LogLevel == "" {
		return log.WarnLevel, nil
	}
	return log.ParseLevel(c.LogLevel)
}

// AsOfDate returns the configured reference date, or today when unset. The
// configured value always uses the ISO layout, whatever date_format says.
func (c *Config) AsOfDate(today models.Date) (models.Date, error) {
	if strings.TrimSpace(c.AsOf) == "" {
		return today, nil
	}
	d, err := models.ParseDate(c.AsOf, models.DefaultDateLayout)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid as_of: %w", err)
	}
	return d, nil
}

// BudgetList converts the configured budgets, resolving categories through
// aliases.
func (c *Config) BudgetList(aliases models.Aliases) ([]models.Budget, error) {
	out := make([]models.Budget, 0, len(c.Budgets))
	for i, b := range c.Budgets {
		amount, err := models.ParseMoney(b.Amount)
		if err != nil {
			return nil, fmt.Errorf("budget %d: %w", i+1, err)
		}
		if b.Days <= 0 {
			return nil, fmt.Errorf("budget %d: days must be positive", i+1)
		}
		budget := models.Budget{Amount: amount, Days: b.Days}
		if strings.TrimSpace(b.Category) != "" {
			cat, ok := aliases.Resolve(b.Category)
			if !ok {
				return nil, fmt.Errorf("budget %d: unknown category %q", i+1, b.Category)
			}
			budget.Category = &cat
		}
		out = append(out, budget)
	}
	return out, nil
}

// NewLogger builds the command's logger at the configured level.
func (c *Config) NewLogger(w io.Writer, prefix string) *log.Logger {
	level, err := c.Level()
	if err != nil {
		level = log.WarnLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: level == log.DebugLevel,
		Prefix:          prefix,
		Level:           level,
	})
}
