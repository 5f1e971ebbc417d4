package service

import (
	"testing"

	"github.com/smallbiznis/maidbook/internal/config"
	"github.com/smallbiznis/maidbook/internal/pricing/domain"
	"github.com/smallbiznis/maidbook/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	return New(Params{
		Log:    zap.NewNop(),
		Config: config.NewStaticPricingConfigHolder(config.DefaultPricingConfig()),
	})
}

func TestBasePriceIsPositiveForWholeMatrix(t *testing.T) {
	svc := newTestService(t)
	for _, size := range domain.HouseSizes {
		for _, freq := range domain.Frequencies {
			first := svc.BasePrice(size, freq)
			assert.Greater(t, first.Int64(), int64(0), "%s/%s", size, freq)
			assert.Equal(t, first, svc.BasePrice(size, freq), "deterministic %s/%s", size, freq)
		}
	}
}

func TestBasePriceKnownCells(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, money.Dollars(125), svc.BasePrice(domain.HouseSize1000To1500, domain.FrequencyMonthly))
	assert.Equal(t, money.Dollars(180), svc.BasePrice(domain.HouseSize2000To2500, domain.FrequencyMonthly))
	assert.Equal(t, money.Dollars(450), svc.BasePrice(domain.HouseSize5000Plus, domain.FrequencyOneTime))
}

func TestBasePriceFallsBackToMidTier(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, money.Dollars(155), svc.BasePrice("4500-5000", domain.FrequencyWeekly))
	assert.Equal(t, money.Dollars(180), svc.BasePrice("4500-5000", "daily"))
	assert.Equal(t, 3.0, svc.BaseDuration("4500-5000"))
}

func TestBaseDuration(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, 2.0, svc.BaseDuration(domain.HouseSize1000To1500))
	assert.Equal(t, 3.5, svc.BaseDuration(domain.HouseSize2500To3000))
	assert.Equal(t, 6.0, svc.BaseDuration(domain.HouseSize5000Plus))
}

func TestUnitPriceDustBaseboards(t *testing.T) {
	svc := newTestService(t)
	item := domain.Item{Name: "Dust Baseboards", Price: money.Ptr(money.Dollars(30))}

	cases := []struct {
		size domain.HouseSize
		want money.Amount
	}{
		{size: domain.HouseSize2000To2500, want: money.Dollars(20)},
		{size: domain.HouseSize2500To3000, want: money.Dollars(30)},
		{size: domain.HouseSize5000Plus, want: money.Dollars(30)},
		{size: domain.HouseSize1000To1500, want: money.Dollars(20)},
	}
	for _, tc := range cases {
		t.Run(string(tc.size), func(t *testing.T) {
			assert.Equal(t, tc.want, svc.UnitPrice(item, tc.size))
		})
	}
}

func TestUnitPriceDustBaseboardsIgnoresCase(t *testing.T) {
	svc := newTestService(t)
	item := domain.Item{Name: "  DUST baseboards ", Price: money.Ptr(money.Dollars(20))}
	assert.Equal(t, money.Dollars(30), svc.UnitPrice(item, domain.HouseSize3000To3500))
}

func TestUnitPriceMalformedBracketKeepsCatalogPrice(t *testing.T) {
	svc := newTestService(t)
	item := domain.Item{Name: "Dust Baseboards", Price: money.Ptr(money.Cents(2500))}
	assert.Equal(t, money.Cents(2500), svc.UnitPrice(item, "huge"))
	assert.Equal(t, money.Cents(2500), svc.UnitPrice(item, "2000-abc"))
}

func TestUnitPriceRegularItem(t *testing.T) {
	svc := newTestService(t)
	assert.Equal(t, money.Dollars(35), svc.UnitPrice(domain.Item{Name: "Inside Fridge", Price: money.Ptr(money.Dollars(35))}, domain.HouseSize5000Plus))
	assert.Equal(t, money.Zero, svc.UnitPrice(domain.Item{Name: "Standard Cleaning"}, domain.HouseSize5000Plus))
}

func TestMatrixCoversEveryBracket(t *testing.T) {
	svc := newTestService(t)
	rows := svc.Matrix()
	require.Len(t, rows, len(domain.HouseSizes))
	for i, row := range rows {
		assert.Equal(t, domain.HouseSizes[i], row.HouseSize)
		assert.Len(t, row.Prices, len(domain.Frequencies))
	}
}

func TestQuote(t *testing.T) {
	svc := newTestService(t)
	q := svc.Quote(domain.HouseSize1000To1500, domain.FrequencyMonthly)
	assert.Equal(t, money.Dollars(125), q.BasePrice)
	assert.Equal(t, 2.0, q.DurationHours)
}

func TestParseEnums(t *testing.T) {
	size, err := domain.ParseHouseSize(" 5000+ ")
	require.NoError(t, err)
	assert.Equal(t, domain.HouseSize5000Plus, size)

	_, err = domain.ParseHouseSize("4500-5000")
	assert.ErrorIs(t, err, domain.ErrInvalidHouseSize)

	freq, err := domain.ParseFrequency("Bi_Weekly")
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyBiWeekly, freq)

	_, err = domain.ParseFrequency("daily")
	assert.ErrorIs(t, err, domain.ErrInvalidFrequency)
}
