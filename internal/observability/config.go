package observability

import (
	"strings"

	"github.com/smallbiznis/maidbook/internal/config"
)

// Config is the resolved observability setup for one process.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig derives observability settings from the application config.
// DEPLOYMENT_ENV and SERVICE_VERSION override the app-level values so one
// image can report per-deployment labels.
func LoadConfig(cfg config.Config) Config {
	t := cfg.Telemetry

	return Config{
		ServiceName:          firstNonEmpty(cfg.AppName, "maidbook"),
		Environment:          firstNonEmpty(t.DeploymentEnv, cfg.Environment),
		Version:              firstNonEmpty(t.ServiceVersion, cfg.AppVersion),
		LogLevel:             firstNonEmpty(t.LogLevel, "info"),
		LogFormat:            firstNonEmpty(t.LogFormat, "json"),
		OtelEnabled:          t.OtelEnabled,
		OtelExporterEndpoint: t.OTLPEndpoint,
		OtelExporterProtocol: firstNonEmpty(t.OTLPProtocol, "grpc"),
		OtelSamplingRatio:    clampRatio(t.SamplingRatio),
	}
}

// Debug enables verbose request logging and stack traces.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func clampRatio(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > 1:
		return 1
	}
	return r
}
