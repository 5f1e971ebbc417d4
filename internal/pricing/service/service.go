package service

import (
	"strconv"
	"strings"

	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/pricing/domain"
	"github.com/smallbiznis/maidbook/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dustBaseboards = "dust baseboards"

type Params struct {
	fx.In

	Log    *zap.Logger
	Config *config.PricingConfigHolder
}

type Service struct {
	log    *zap.Logger
	config *config.PricingConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("pricing.service"),
		config: p.Config,
	}
}

func (s *Service) BasePrice(size domain.HouseSize, freq domain.Frequency) money.Amount {
	cfg := s.config.Get()
	if row, ok := findRow(cfg, size); ok {
		if price, ok := row.Prices[string(freq)]; ok {
			return money.FromFloat(price)
		}
	}

	fallback, _ := findRow(cfg, domain.HouseSize(cfg.FallbackSize))
	if price, ok := fallback.Prices[string(freq)]; ok {
		return money.FromFloat(price)
	}
	return money.FromFloat(fallback.Prices[cfg.FallbackFrequency])
}

func (s *Service) BaseDuration(size domain.HouseSize) float64 {
	cfg := s.config.Get()
	if row, ok := findRow(cfg, size); ok {
		return row.Hours
	}
	fallback, _ := findRow(cfg, domain.HouseSize(cfg.FallbackSize))
	return fallback.Hours
}

// UnitPrice returns the catalog price of an add-on. Dust Baseboards is priced
// from the bracket's upper bound instead, since the catalog carries one entry
// per tier. Unparseable brackets keep the catalog price.
func (s *Service) UnitPrice(item domain.Item, size domain.HouseSize) money.Amount {
	catalog := money.Zero
	if item.Price != nil {
		catalog = *item.Price
	}
	if !strings.EqualFold(strings.TrimSpace(item.Name), dustBaseboards) {
		return catalog
	}

	cfg := s.config.Get()
	bracket := strings.TrimSpace(string(size))
	if strings.HasSuffix(bracket, "+") {
		return money.FromFloat(cfg.BaseboardsHigh)
	}

	parts := strings.Split(bracket, "-")
	if len(parts) != 2 {
		return catalog
	}
	upper, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return catalog
	}
	if upper <= cfg.BaseboardsMaxSmall {
		return money.FromFloat(cfg.BaseboardsLow)
	}
	return money.FromFloat(cfg.BaseboardsHigh)
}

func (s *Service) Quote(size domain.HouseSize, freq domain.Frequency) domain.Quote {
	return domain.Quote{
		HouseSize:     size,
		Frequency:     freq,
		BasePrice:     s.BasePrice(size, freq),
		DurationHours: s.BaseDuration(size),
	}
}

func (s *Service) Matrix() []domain.Row {
	cfg := s.config.Get()
	rows := make([]domain.Row, 0, len(cfg.Rows))
	for _, row := range cfg.Rows {
		prices := make(map[domain.Frequency]money.Amount, len(row.Prices))
		for freq, price := range row.Prices {
			prices[domain.Frequency(freq)] = money.FromFloat(price)
		}
		rows = append(rows, domain.Row{
			HouseSize:     domain.HouseSize(row.Size),
			DurationHours: row.Hours,
			Prices:        prices,
		})
	}
	return rows
}

func findRow(cfg config.PricingConfig, size domain.HouseSize) (config.PricingRow, bool) {
	for _, row := range cfg.Rows {
		if row.Size == string(size) {
			return row, true
		}
	}
	return config.PricingRow{}, false
}
