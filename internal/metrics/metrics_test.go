package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	geometa "github.com/tingold/orb-geometa"
)

func TestProvider_RegistersStandardCollectors_AndBuildInfo(t *testing.T) {
	p := Init(Config{Build: BuildInfo{Version: "test", Revision: "r", Branch: "b", BuildDate: "now"}})

	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_gauge", Help: "smoke"})
	p.Register(g)
	g.Set(42)

	if n := testutil.CollectAndCount(g); n == 0 {
		t.Fatalf("expected at least 1 sample from test_gauge, got %d", n)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "go_goroutines") {
		t.Fatalf("expected go_goroutines in payload; got:\n%s", body)
	}
	if !strings.Contains(body, `geometa_build_info{branch="b",build_date="now",revision="r",version="test"} 1`) {
		t.Fatalf("expected geometa_build_info in payload; got:\n%s", body)
	}
}

func TestProvider_ObserveExtraction(t *testing.T) {
	p := Init(Config{})
	var obs geometa.Observer = p

	obs.ObserveExtraction("vector", nil, 0.01)
	obs.ObserveExtraction("vector", geometa.Errorf(geometa.KindMissingCRS, "resolve", "none"), 0.02)
	obs.ObserveExtraction("raster", nil, 0.5)

	if got := testutil.ToFloat64(p.extractions.WithLabelValues("vector", "ok")); got != 1 {
		t.Errorf("vector ok = %v, want 1", got)
	}
	if got := testutil.ToFloat64(p.extractions.WithLabelValues("vector", "missing crs")); got != 1 {
		t.Errorf("vector missing crs = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(p.duration); n != 2 {
		t.Errorf("expected 2 histogram series, got %d", n)
	}
}

func TestProvider_Cache(t *testing.T) {
	p := Init(Config{})
	p.CacheHit()
	p.CacheHit()
	p.CacheMiss()
	if got := testutil.ToFloat64(p.cache.WithLabelValues("hit")); got != 2 {
		t.Errorf("hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(p.cache.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses = %v, want 1", got)
	}
}

func TestCurrentBuild(t *testing.T) {
	if CurrentBuild().Version == "" {
		t.Error("expected a version")
	}
}
