package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PlaylistFetches counts upstream playlist fetches by outcome
// ("ok", "http_error", "transport_error", "too_large").
var PlaylistFetches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "livecatalog_playlist_fetches_total",
	Help: "Upstream playlist fetches by result",
}, []string{"result"})

// PlaylistFetchDuration observes how long upstream fetches take, including parsing.
var PlaylistFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "livecatalog_playlist_fetch_duration_seconds",
	Help:    "Time spent fetching and parsing upstream playlists",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
})

// ChannelCacheLookups counts channel cache lookups per path ("read", "admin")
// and outcome ("hit", "miss").
var ChannelCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "livecatalog_channel_cache_lookups_total",
	Help: "Channel cache lookups by path and result",
}, []string{"path", "result"})

// SourceRefreshes counts per-source refresh outcomes from admin and bulk refreshes.
var SourceRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "livecatalog_source_refreshes_total",
	Help: "Source refreshes by result",
}, []string{"result"})

// CatalogSources reports the number of sources in the catalog after the last write.
var CatalogSources = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "livecatalog_catalog_sources",
	Help: "Number of sources in the live catalog",
})
