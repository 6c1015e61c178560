package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/obsidianstack/basketrules/internal/compute"
	"github.com/obsidianstack/basketrules/internal/rules"
)

// Default values applied when fields are absent from the config file.
const (
	// One occurrence per day: 306 days over ~21,664 transactions.
	DefaultMinSupport    = 0.01
	DefaultMetric        = rules.MetricConfidence
	DefaultMinThreshold  = 0.5
	DefaultHead          = 5
	DefaultMinItemsetLen = 3
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
)

// DefaultSortBy lists the columns the report ranks rules by.
var DefaultSortBy = []string{rules.MetricLift, rules.MetricLeverage, rules.MetricConviction}

// Config is the top-level configuration of an analysis run.
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Mining MiningConfig `yaml:"mining"`
	Rules  RulesConfig  `yaml:"rules"`
	Zhang  ZhangConfig  `yaml:"zhang"`
	Report ReportConfig `yaml:"report"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
}

// InputConfig describes the transaction log.
type InputConfig struct {
	// Path is the CSV or XLSX file holding one basket per row.
	Path string `yaml:"path"`

	// Format is one of: csv | xlsx | auto. Auto picks by file extension.
	Format string `yaml:"format"`

	// Delimiter is the CSV field separator (one character). Default ",".
	Delimiter string `yaml:"delimiter"`

	// Sheet is the XLSX sheet to read. Empty selects the first sheet.
	Sheet string `yaml:"sheet"`
}

// DelimiterRune returns the delimiter as a rune, 0 when unset.
func (i InputConfig) DelimiterRune() rune {
	if i.Delimiter == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(i.Delimiter)
	return r
}

// MiningConfig controls the Apriori miner.
type MiningConfig struct {
	// MinSupport is the minimum fraction of transactions an itemset must
	// appear in.
	MinSupport float64 `yaml:"min_support"`

	// MaxLen caps itemset length. 0 means unbounded.
	MaxLen int `yaml:"max_len"`

	// Workers is the number of support counting goroutines. 0 = GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// RulesConfig controls rule generation.
type RulesConfig struct {
	// Metric is the column compared against MinThreshold:
	// support | confidence | lift | leverage | conviction | zhang.
	Metric string `yaml:"metric"`

	// MinThreshold is the minimum metric value a rule must reach.
	MinThreshold float64 `yaml:"min_threshold"`

	// Filters are extra conditions like "lift > 1" or "zhang >= 0.5".
	Filters []string `yaml:"filters"`
}

// ZhangConfig controls the Zhang metric.
type ZhangConfig struct {
	// OnDegenerate is one of: nan | reject.
	OnDegenerate string `yaml:"on_degenerate"`
}

// Policy returns the parsed degenerate-row policy.
func (z ZhangConfig) Policy() compute.Policy {
	p, err := compute.ParsePolicy(z.OnDegenerate)
	if err != nil {
		return compute.PolicyNaN
	}
	return p
}

// ReportConfig controls the printed analysis.
type ReportConfig struct {
	// Head is the number of rows shown in previews and rankings.
	Head int `yaml:"head"`

	// MinItemsetLen selects the itemsets listed in the "long itemsets"
	// section.
	MinItemsetLen int `yaml:"min_itemset_len"`

	// SortBy lists the metrics rules are ranked by. Zhang rankings are
	// always printed.
	SortBy []string `yaml:"sort_by"`

	// Quiet suppresses the report entirely.
	Quiet bool `yaml:"quiet"`
}

// ExportConfig lists optional output files. Empty paths are skipped.
type ExportConfig struct {
	CSV        string `yaml:"csv"`
	XLSX       string `yaml:"xlsx"`
	Prometheus string `yaml:"prometheus"`
	SQLite     string `yaml:"sqlite"`

	// Webhooks receive a JSON summary of each run.
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`

	// Top is the number of rules (by lift) included in the payload. Default 5.
	Top int `yaml:"top"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// LogConfig controls the slog handler.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`

	// Format is one of: json | text.
	Format string `yaml:"format"`
}

// Load reads, parses and validates the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Parse reads the YAML config file at path and fills defaults without
// validating, so callers can apply overrides before calling Validate.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			Format: "auto",
		},
		Mining: MiningConfig{
			MinSupport: DefaultMinSupport,
		},
		Rules: RulesConfig{
			Metric:       DefaultMetric,
			MinThreshold: DefaultMinThreshold,
		},
		Zhang: ZhangConfig{
			OnDegenerate: string(compute.PolicyNaN),
		},
		Report: ReportConfig{
			Head:          DefaultHead,
			MinItemsetLen: DefaultMinItemsetLen,
			SortBy:        append([]string(nil), DefaultSortBy...),
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Validate checks required fields and structural constraints.
func (cfg *Config) Validate() error {
	if cfg.Input.Path == "" {
		return fmt.Errorf("input.path is required")
	}
	switch cfg.Input.Format {
	case "csv", "xlsx", "auto", "":
	default:
		return fmt.Errorf("input.format: unknown format %q", cfg.Input.Format)
	}
	if utf8.RuneCountInString(cfg.Input.Delimiter) > 1 {
		return fmt.Errorf("input.delimiter must be a single character, got %q", cfg.Input.Delimiter)
	}
	if !(cfg.Mining.MinSupport > 0 && cfg.Mining.MinSupport <= 1) {
		return fmt.Errorf("mining.min_support must be in (0, 1], got %g", cfg.Mining.MinSupport)
	}
	if cfg.Mining.MaxLen < 0 {
		return fmt.Errorf("mining.max_len must not be negative")
	}
	if cfg.Mining.Workers < 0 {
		return fmt.Errorf("mining.workers must not be negative")
	}
	if !rules.ValidMetric(cfg.Rules.Metric) {
		return fmt.Errorf("rules.metric: unknown metric %q", cfg.Rules.Metric)
	}
	if _, err := rules.ParseConditions(cfg.Rules.Filters); err != nil {
		return fmt.Errorf("rules.filters: %w", err)
	}
	if _, err := compute.ParsePolicy(cfg.Zhang.OnDegenerate); err != nil {
		return fmt.Errorf("zhang.on_degenerate: %w", err)
	}
	if cfg.Report.Head <= 0 {
		return fmt.Errorf("report.head must be positive")
	}
	if cfg.Report.MinItemsetLen <= 0 {
		return fmt.Errorf("report.min_itemset_len must be positive")
	}
	for i, m := range cfg.Report.SortBy {
		if !rules.ValidMetric(m) {
			return fmt.Errorf("report.sort_by[%d]: unknown metric %q", i, m)
		}
	}
	for i, wh := range cfg.Export.Webhooks {
		switch wh.Type {
		case "slack", "http":
		default:
			return fmt.Errorf("export.webhooks[%d].type: unknown type %q", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("export.webhooks[%d].url_env is required", i)
		}
		if wh.Top < 0 {
			return fmt.Errorf("export.webhooks[%d].top must not be negative", i)
		}
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}
	return nil
}
