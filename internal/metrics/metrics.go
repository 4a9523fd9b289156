// Package metrics exposes Prometheus metrics for extractions and caches.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	geometa "github.com/tingold/orb-geometa"
	"github.com/tingold/orb-geometa/internal/version"
)

type BuildInfo struct {
	Version   string
	Revision  string
	Branch    string
	BuildDate string
}

// CurrentBuild returns the build info recorded in the version package.
func CurrentBuild() BuildInfo {
	return BuildInfo{
		Version:   version.Version,
		Revision:  version.Revision,
		Branch:    version.Branch,
		BuildDate: version.BuildDate,
	}
}

type Config struct {
	Build BuildInfo
}

// Provider owns a private registry. It implements geometa.Observer.
type Provider struct {
	reg         *prometheus.Registry
	buildInfo   *prometheus.GaugeVec
	extractions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	cache       *prometheus.CounterVec
}

func Init(cfg Config) *Provider {
	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	build := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "geometa_build_info",
			Help: "Build info for this binary (value is always 1).",
		},
		[]string{"version", "revision", "branch", "build_date"},
	)
	v := cfg.Build
	if v.Version == "" {
		v.Version = "dev"
	}
	build.WithLabelValues(v.Version, v.Revision, v.Branch, v.BuildDate).Set(1)

	p := &Provider{
		reg:       reg,
		buildInfo: build,
		extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geometa_extractions_total",
				Help: "Finished extractions by source type and result.",
			},
			[]string{"source", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "geometa_extraction_duration_seconds",
				Help:    "Extraction latency by source type.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"source"},
		),
		cache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geometa_cache_requests_total",
				Help: "Metadata cache lookups by outcome.",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(build, p.extractions, p.duration, p.cache)
	return p
}

// ObserveExtraction records one finished extraction. The result label is
// "ok" or the error kind.
func (p *Provider) ObserveExtraction(source string, err error, seconds float64) {
	result := "ok"
	if err != nil {
		result = geometa.KindOf(err).String()
	}
	p.extractions.WithLabelValues(source, result).Inc()
	p.duration.WithLabelValues(source).Observe(seconds)
}

// CacheHit and CacheMiss count metadata cache lookups.
func (p *Provider) CacheHit()  { p.cache.WithLabelValues("hit").Inc() }
func (p *Provider) CacheMiss() { p.cache.WithLabelValues("miss").Inc() }

func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

func (p *Provider) Register(cs ...prometheus.Collector) {
	for _, c := range cs {
		p.reg.MustRegister(c)
	}
}

func (p *Provider) Registerer() prometheus.Registerer { return p.reg }
