package centermetrics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/summitgrid/corebank/internal/config"
	"go.uber.org/zap"
)

const (
	exporterRemoteWrite = "prometheus_remote_write"
	exporterPushgateway = "prometheus_pushgateway"
	exporterOTLP        = "otlp"
)

// Pusher sends one snapshot of the site registry to the center's
// monitoring federation. Implementations hold no tickers; the scheduler
// owns the cadence.
type Pusher interface {
	Push(ctx context.Context, registry *prometheus.Registry) error
}

// NewPusher builds a pusher from config. Misconfiguration is logged and
// yields nil so accounting never blocks on monitoring.
func NewPusher(cfg config.Config, logger *zap.Logger) Pusher {
	if logger == nil {
		logger = zap.NewNop()
	}
	metricsCfg := cfg.Site.Metrics
	if !metricsCfg.Enabled {
		return nil
	}

	exporter := strings.ToLower(strings.TrimSpace(metricsCfg.Exporter))
	endpoint := strings.TrimSpace(metricsCfg.Endpoint)
	authToken := strings.TrimSpace(metricsCfg.AuthToken)

	if exporter == "" {
		logger.Warn("site metrics disabled", zap.Error(errors.New("site metrics exporter is required")))
		return nil
	}
	if endpoint == "" {
		logger.Warn("site metrics disabled", zap.Error(errors.New("site metrics endpoint is required")))
		return nil
	}

	switch exporter {
	case exporterRemoteWrite:
		if _, err := url.ParseRequestURI(endpoint); err != nil {
			logger.Warn("site metrics disabled", zap.Error(fmt.Errorf("invalid site metrics endpoint: %w", err)))
			return nil
		}
		return NewRemoteWritePusher(endpoint, authToken)
	case exporterPushgateway:
		return NewPushgatewayPusher(endpoint, cfg.AppName, map[string]string{
			"site_id":     strings.TrimSpace(cfg.Site.ID),
			"environment": strings.TrimSpace(cfg.Environment),
		})
	case exporterOTLP:
		pusher, err := NewOTLPPusher(endpoint, authToken, otlpResource{
			serviceName:    cfg.AppName,
			serviceVersion: cfg.AppVersion,
			environment:    cfg.Environment,
			siteID:         cfg.Site.ID,
		})
		if err != nil {
			logger.Warn("site metrics disabled", zap.Error(err))
			return nil
		}
		return pusher
	default:
		logger.Warn("site metrics disabled", zap.String("exporter", exporter))
		return nil
	}
}
