package config

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// ThresholdConfig tunes the balance alert scanner and the trend query
// surface. It lives in thresholds.yaml so operators can retune alerting
// without a restart.
type ThresholdConfig struct {
	Balance BalanceThresholds `mapstructure:"balance"`
	Trend   TrendDefaults     `mapstructure:"trend"`
}

// BalanceThresholds are percent-used trip points. Categories may override
// the warn level per resource category (keys are category codes).
type BalanceThresholds struct {
	WarnPercent     float64            `mapstructure:"warn_percent"`
	CriticalPercent float64            `mapstructure:"critical_percent"`
	Categories      map[string]float64 `mapstructure:"categories"`
}

// TrendDefaults bound the daily trend window when callers omit dates.
type TrendDefaults struct {
	DefaultWindowDays int `mapstructure:"default_window_days"`
	MaxWindowDays     int `mapstructure:"max_window_days"`
}

func (c ThresholdConfig) validate() error {
	if c.Balance.WarnPercent <= 0 {
		return fmt.Errorf("balance.warn_percent must be positive, got %v", c.Balance.WarnPercent)
	}
	if c.Balance.CriticalPercent < c.Balance.WarnPercent {
		return fmt.Errorf("balance.critical_percent %v below warn_percent %v",
			c.Balance.CriticalPercent, c.Balance.WarnPercent)
	}
	for code, pct := range c.Balance.Categories {
		if pct <= 0 {
			return fmt.Errorf("balance.categories.%s must be positive, got %v", code, pct)
		}
	}
	if c.Trend.DefaultWindowDays <= 0 {
		return fmt.Errorf("trend.default_window_days must be positive, got %d", c.Trend.DefaultWindowDays)
	}
	if c.Trend.MaxWindowDays < c.Trend.DefaultWindowDays {
		return fmt.Errorf("trend.max_window_days %d below default_window_days %d",
			c.Trend.MaxWindowDays, c.Trend.DefaultWindowDays)
	}
	return nil
}

// WarnPercentFor returns the warn threshold for a category code, falling
// back to the global warn level when no override exists.
func (c ThresholdConfig) WarnPercentFor(category string) float64 {
	if pct, ok := c.Balance.Categories[strings.ToLower(category)]; ok {
		return pct
	}
	return c.Balance.WarnPercent
}

// ThresholdHolder keeps the live ThresholdConfig and swaps it atomically
// when the file on disk changes. Readers never block.
type ThresholdHolder struct {
	value atomic.Value
	log   *zap.Logger
}

// NewThresholdHolder loads thresholds.yaml, applies defaults, and starts
// watching the file. A missing file is fine; an invalid one is not.
func NewThresholdHolder(log *zap.Logger) (*ThresholdHolder, error) {
	v := viper.New()
	v.SetConfigName("thresholds")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/corebank")
	v.SetEnvPrefix("COREBANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("balance.warn_percent", 75.0)
	v.SetDefault("balance.critical_percent", 90.0)
	v.SetDefault("trend.default_window_days", 30)
	v.SetDefault("trend.max_window_days", 366)

	holder := &ThresholdHolder{log: log.Named("config.thresholds")}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read threshold config: %w", err)
		}
		holder.log.Info("threshold config file not found, using defaults")
	}

	var cfg ThresholdConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal threshold config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid threshold config: %w", err)
	}
	holder.value.Store(cfg)

	v.OnConfigChange(func(e fsnotify.Event) {
		var next ThresholdConfig
		if err := v.Unmarshal(&next); err != nil {
			holder.log.Warn("ignoring threshold config change", zap.Error(err))
			return
		}
		if err := next.validate(); err != nil {
			holder.log.Warn("ignoring invalid threshold config", zap.Error(err))
			return
		}
		holder.value.Store(next)
		holder.log.Info("threshold config reloaded", zap.String("file", e.Name))
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticThresholdHolder wraps a fixed config with no file watching.
// Used by the reporting CLI and by tests.
func NewStaticThresholdHolder(cfg ThresholdConfig) *ThresholdHolder {
	holder := &ThresholdHolder{log: zap.NewNop()}
	holder.value.Store(cfg)
	return holder
}

// Get returns the current config snapshot.
func (h *ThresholdHolder) Get() ThresholdConfig {
	return h.value.Load().(ThresholdConfig)
}
