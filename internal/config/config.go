package config

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ZephyrDeng/heapsnap-analyzer-mcp/analyzer"
)

// EnvPrefix prefixes every environment override, e.g. HEAPDIFF_LEAK_MIN_COUNT.
const EnvPrefix = "HEAPDIFF"

// Config is the resolved tool configuration.
type Config struct {
	Thresholds   analyzer.Thresholds
	HistoryLimit int
	OutputFormat string
	HTTPTimeout  time.Duration // whole-request limit for http(s) snapshot sources
	File         string // config file actually read, "" when defaults only
}

// New returns a viper instance with every default registered.
func New() *viper.Viper {
	v := viper.New()
	def := analyzer.DefaultThresholds()

	v.SetDefault("leak.min_increase", def.MinIncrease)
	v.SetDefault("leak.min_increase_percent", def.MinIncreasePercent)
	v.SetDefault("leak.min_count", def.MinCount)
	v.SetDefault("leak.suspicious_terms", def.SuspiciousTerms)
	v.SetDefault("leak.detached_markers", def.DetachedMarkers)
	v.SetDefault("trace.max_traces", def.MaxTraces)
	v.SetDefault("summary.large_object_ratio", def.LargeObjectRatio)
	v.SetDefault("summary.many_candidates", def.ManyCandidates)
	v.SetDefault("history.limit", 0)
	v.SetDefault("output.format", "cli")
	v.SetDefault("source.http_timeout", analyzer.DefaultHTTPTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path (any format viper understands) on top of the defaults.
// An empty path means defaults and environment only.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper resolves a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Thresholds: analyzer.Thresholds{
			MinIncrease:        v.GetInt64("leak.min_increase"),
			MinIncreasePercent: v.GetFloat64("leak.min_increase_percent"),
			MinCount:           v.GetInt64("leak.min_count"),
			SuspiciousTerms:    v.GetStringSlice("leak.suspicious_terms"),
			DetachedMarkers:    v.GetStringSlice("leak.detached_markers"),
			MaxTraces:          v.GetInt("trace.max_traces"),
			LargeObjectRatio:   v.GetFloat64("summary.large_object_ratio"),
			ManyCandidates:     v.GetInt("summary.many_candidates"),
		},
		HistoryLimit: v.GetInt("history.limit"),
		OutputFormat: v.GetString("output.format"),
		HTTPTimeout:  v.GetDuration("source.http_timeout"),
		File:         v.ConfigFileUsed(),
	}

	if cfg.Thresholds.MaxTraces < 0 {
		return nil, fmt.Errorf("trace.max_traces must not be negative, got %d", cfg.Thresholds.MaxTraces)
	}
	if cfg.Thresholds.LargeObjectRatio < 0 || cfg.Thresholds.LargeObjectRatio > 1 {
		return nil, fmt.Errorf("summary.large_object_ratio must be between 0 and 1, got %v", cfg.Thresholds.LargeObjectRatio)
	}
	if cfg.HTTPTimeout < 0 {
		return nil, fmt.Errorf("source.http_timeout must not be negative, got %s", cfg.HTTPTimeout)
	}
	return cfg, nil
}

// AnalyzerOptions converts the configuration into analyzer options.
// A zero HTTPTimeout keeps the loader's default client.
func (c *Config) AnalyzerOptions() []analyzer.Option {
	opts := []analyzer.Option{
		analyzer.WithThresholds(c.Thresholds),
		analyzer.WithHistoryLimit(c.HistoryLimit),
	}
	if c.HTTPTimeout > 0 {
		client := &http.Client{Timeout: c.HTTPTimeout}
		opts = append(opts, analyzer.WithLoader(analyzer.NewLoader(analyzer.NewSourceOpener(client), nil)))
	}
	return opts
}
