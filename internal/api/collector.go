package api

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/courtwright/docket/internal/store"
)

// sizeCollector exposes the active and archived collection sizes as gauges.
// Collections are expected to stay small, so counting on scrape is cheap.
type sizeCollector struct {
	store  store.Store
	logger zerolog.Logger

	activeDesc   *prometheus.Desc
	archivedDesc *prometheus.Desc
}

func newSizeCollector(st store.Store, logger zerolog.Logger) *sizeCollector {
	return &sizeCollector{
		store:  st,
		logger: logger.With().Str("component", "size_collector").Logger(),
		activeDesc: prometheus.NewDesc(
			"docket_active_cases",
			"Number of cases on the active docket",
			nil, nil,
		),
		archivedDesc: prometheus.NewDesc(
			"docket_archived_cases",
			"Number of cases in the archive",
			nil, nil,
		),
	}
}

func (c *sizeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeDesc
	ch <- c.archivedDesc
}

func (c *sizeCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	active, err := c.store.ListActive(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to count active cases")
	} else {
		ch <- prometheus.MustNewConstMetric(c.activeDesc, prometheus.GaugeValue, float64(len(active)))
	}

	archived, err := c.store.ListArchive(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to count archived cases")
	} else {
		ch <- prometheus.MustNewConstMetric(c.archivedDesc, prometheus.GaugeValue, float64(len(archived)))
	}
}
