// Package metrics exposes Prometheus metrics for the catalog service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ChannelsLoaded is the channel count of the current catalog generation.
	ChannelsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptvcatalog_channels_loaded",
		Help: "Channels in the current catalog generation.",
	})
	GroupsLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptvcatalog_groups_loaded",
		Help: "Channel groups in the current catalog generation.",
	})
	ProvidersLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptvcatalog_providers_loaded",
		Help: "Providers in the current catalog generation.",
	})
	MediaLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "iptvcatalog_media_loaded",
		Help: "Media entries in the current catalog generation.",
	})

	// LoadsTotal counts playlist loads by result ("ok" or "failed").
	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptvcatalog_loads_total",
		Help: "Playlist loads by result.",
	}, []string{"result"})

	LoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "iptvcatalog_load_duration_seconds",
		Help:    "Wall time of one full playlist parse.",
		Buckets: prometheus.DefBuckets,
	})

	CatchupResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "iptvcatalog_catchup_resolutions_total",
		Help: "Catchup URL resolutions by result (\"playable\" or \"not_playable\").",
	}, []string{"result"})
)

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
