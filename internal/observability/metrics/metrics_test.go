package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("reason", "expired"),
		attribute.String("customer_id", "guest_jane@example.com"),
		attribute.String("channel", "guest"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("reason"))
	assert.Contains(t, keys, attribute.Key("channel"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordBookingCreated(context.Background(), "guest", "monthly", false)
	m.RecordPromoValidation(context.Background(), "expired")
	m.RecordSlotConflict(context.Background())
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordBookingCreated(context.Background(), "customer", "weekly", true)
	m.RecordInvoiceIssued(context.Background())
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h, err := NewHTTPMetrics(noop.NewMeterProvider())
	require.NoError(t, err)

	router := gin.New()
	router.Use(h.GinMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
