package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes booking domain instruments.
type Metrics struct {
	bookingsCreated  metric.Int64Counter
	bookingsRejected metric.Int64Counter
	promoValidations metric.Int64Counter
	slotConflicts    metric.Int64Counter
	invoicesIssued   metric.Int64Counter
	rateLimitAllowed metric.Int64Counter
	rateLimitDenied  metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New registers the domain counters on the given provider.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "maidbook"
	}
	meter := provider.Meter(name)

	counters := map[string]*metric.Int64Counter{}
	m := &Metrics{}
	counters["maidbook_bookings_created_total"] = &m.bookingsCreated
	counters["maidbook_bookings_rejected_total"] = &m.bookingsRejected
	counters["maidbook_promo_validations_total"] = &m.promoValidations
	counters["maidbook_slot_conflicts_total"] = &m.slotConflicts
	counters["maidbook_invoices_issued_total"] = &m.invoicesIssued
	counters["maidbook_rate_limit_allowed_total"] = &m.rateLimitAllowed
	counters["maidbook_rate_limit_denied_total"] = &m.rateLimitDenied

	for instrument, target := range counters {
		counter, err := meter.Int64Counter(instrument)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", instrument, err)
		}
		*target = counter
	}
	return m, nil
}

// RecordBookingCreated counts committed bookings by channel ("guest" or "customer").
func (m *Metrics) RecordBookingCreated(ctx context.Context, channel, frequency string, promoApplied bool) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("channel", channel),
		attribute.String("frequency", frequency),
		attribute.Bool("promo_applied", promoApplied),
	)
	m.bookingsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBookingRejected counts booking attempts that failed with a known reason.
func (m *Metrics) RecordBookingRejected(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.bookingsRejected.Add(ctx, 1, metric.WithAttributes(FilterAttributes(attribute.String("reason", reason))...))
}

// RecordPromoValidation counts promo outcomes; reason is empty on acceptance.
func (m *Metrics) RecordPromoValidation(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	outcome := "accepted"
	if reason != "" {
		outcome = "rejected"
	}
	attrs := FilterAttributes(
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	)
	m.promoValidations.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordSlotConflict(ctx context.Context) {
	if m == nil {
		return
	}
	m.slotConflicts.Add(ctx, 1)
}

func (m *Metrics) RecordInvoiceIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.invoicesIssued.Add(ctx, 1)
}

func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitAllowed.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"channel":       {},
	"frequency":     {},
	"promo_applied": {},
	"outcome":       {},
	"reason":        {},
	"endpoint":      {},
	"method":        {},
	"route":         {},
	"status_code":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
