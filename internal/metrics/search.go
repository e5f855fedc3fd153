package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics. Search failures degrade to empty results at the
// API boundary, so these counters are the only place backend trouble stays
// visible.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "searches_total",
			Help:      "Total number of document searches",
		},
		[]string{"doc_type"},
	)

	StrategyErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "strategy_errors_total",
			Help:      "Search strategy failures swallowed by the cascade",
		},
		[]string{"collection", "strategy", "code"},
	)

	StrategyHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "strategy_hits_total",
			Help:      "Results contributed per search strategy",
		},
		[]string{"collection", "strategy"},
	)

	SearchPanicsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "search_panics_total",
			Help:      "Whole-search failures degraded to empty results",
		},
	)

	DateFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "date_fallbacks_total",
			Help:      "Records whose missing date was substituted with now",
		},
		[]string{"collection"},
	)

	UnscopedAccessTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "unscoped_access_total",
			Help:      "Searches by restricted callers with no geographic scope",
		},
		[]string{"policy"},
	)

	SelectorCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "selector_cache_total",
			Help:      "Option selector cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	SelectorStaleTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "kbnsearch",
			Name:      "selector_stale_dropped_total",
			Help:      "Selector responses discarded because a newer request was issued",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(StrategyErrorsTotal)
	prometheus.MustRegister(StrategyHitsTotal)
	prometheus.MustRegister(SearchPanicsTotal)
	prometheus.MustRegister(DateFallbacksTotal)
	prometheus.MustRegister(UnscopedAccessTotal)
	prometheus.MustRegister(SelectorCacheTotal)
	prometheus.MustRegister(SelectorStaleTotal)
	searchMetricsRegistered = true
}
