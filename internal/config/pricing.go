package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PricingRow is one house-size bracket of the price matrix, in dollars.
type PricingRow struct {
	Size   string             `mapstructure:"size"`
	Hours  float64            `mapstructure:"hours"`
	Prices map[string]float64 `mapstructure:"prices"`
}

// PricingConfig is the operator-tunable part of the pricing table.
type PricingConfig struct {
	Rows               []PricingRow `mapstructure:"rows"`
	FallbackSize       string       `mapstructure:"fallbackSize"`
	FallbackFrequency  string       `mapstructure:"fallbackFrequency"`
	BaseboardsLow      float64      `mapstructure:"baseboardsLow"`
	BaseboardsHigh     float64      `mapstructure:"baseboardsHigh"`
	BaseboardsMaxSmall int          `mapstructure:"baseboardsMaxSmall"`
}

func DefaultPricingConfig() PricingConfig {
	row := func(size string, hours float64, oneTime, weekly, biWeekly, every3, monthly float64) PricingRow {
		return PricingRow{
			Size:  size,
			Hours: hours,
			Prices: map[string]float64{
				"one_time":      oneTime,
				"weekly":        weekly,
				"bi_weekly":     biWeekly,
				"every_3_weeks": every3,
				"monthly":       monthly,
			},
		}
	}
	return PricingConfig{
		Rows: []PricingRow{
			row("1000-1500", 2.0, 225, 110, 115, 120, 125),
			row("1500-2000", 2.5, 250, 130, 135, 145, 150),
			row("2000-2500", 3.0, 275, 155, 165, 175, 180),
			row("2500-3000", 3.5, 305, 175, 185, 195, 205),
			row("3000-3500", 4.0, 335, 195, 205, 215, 225),
			row("3500-4000", 4.5, 365, 215, 225, 235, 245),
			row("4000-4500", 5.0, 395, 235, 245, 255, 265),
			row("5000+", 6.0, 450, 270, 280, 290, 300),
		},
		FallbackSize:       "2000-2500",
		FallbackFrequency:  "monthly",
		BaseboardsLow:      20,
		BaseboardsHigh:     30,
		BaseboardsMaxSmall: 2500,
	}
}

type PricingConfigHolder struct {
	current atomic.Value // holds PricingConfig
}

// NewStaticPricingConfigHolder returns a holder that never reloads.
func NewStaticPricingConfigHolder(cfg PricingConfig) *PricingConfigHolder {
	holder := &PricingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewPricingConfigHolder(log *zap.Logger) (*PricingConfigHolder, error) {
	log = log.Named("pricing.config")
	v := viper.New()

	v.SetConfigName("pricing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/maidbook")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MAIDBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fromFile = false
	}

	cfg := DefaultPricingConfig()
	if fromFile {
		if err := v.UnmarshalKey("pricing", &cfg); err != nil {
			return nil, err
		}
	}
	if err := ValidatePricingConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticPricingConfigHolder(cfg)
	if !fromFile {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultPricingConfig()
		if err := v.UnmarshalKey("pricing", &updated); err != nil {
			log.Warn("pricing reload failed", zap.Error(err))
			return
		}
		if err := ValidatePricingConfig(updated); err != nil {
			log.Warn("invalid pricing config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("pricing config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *PricingConfigHolder) Get() PricingConfig {
	return h.current.Load().(PricingConfig)
}

func ValidatePricingConfig(cfg PricingConfig) error {
	if len(cfg.Rows) == 0 {
		return errors.New("pricing.rows cannot be empty")
	}
	seen := map[string]struct{}{}
	fallbackFound := false
	for _, row := range cfg.Rows {
		size := strings.TrimSpace(row.Size)
		if size == "" {
			return errors.New("pricing.rows[].size is required")
		}
		if _, dup := seen[size]; dup {
			return fmt.Errorf("pricing.rows: duplicate size %q", size)
		}
		seen[size] = struct{}{}
		if row.Hours <= 0 {
			return fmt.Errorf("pricing.rows[%s].hours must be positive", size)
		}
		if len(row.Prices) == 0 {
			return fmt.Errorf("pricing.rows[%s].prices cannot be empty", size)
		}
		for freq, price := range row.Prices {
			if price <= 0 {
				return fmt.Errorf("pricing.rows[%s].prices[%s] must be positive", size, freq)
			}
		}
		if size == cfg.FallbackSize {
			fallbackFound = true
			if _, ok := row.Prices[cfg.FallbackFrequency]; !ok {
				return fmt.Errorf("pricing.fallbackFrequency %q missing from %s", cfg.FallbackFrequency, size)
			}
		}
	}
	if !fallbackFound {
		return fmt.Errorf("pricing.fallbackSize %q is not a configured row", cfg.FallbackSize)
	}
	if cfg.BaseboardsLow <= 0 || cfg.BaseboardsHigh <= 0 {
		return errors.New("pricing.baseboards prices must be positive")
	}
	if cfg.BaseboardsMaxSmall <= 0 {
		return errors.New("pricing.baseboardsMaxSmall must be positive")
	}
	return nil
}
