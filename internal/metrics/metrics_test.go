package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-picker/pkg/resolver"
)

func TestMiddlewareRecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/pickers/{name}/options", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/missing", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, path := range []string{"/api/pickers/users/options", "/missing"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, http.NoBody))
	}

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/pickers/{name}/options", "200")); v < 1 {
		t.Fatalf("expected options request counted, got %f", v)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/missing", "404")); v < 1 {
		t.Fatalf("expected 404 request counted, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Fatalf("expected duration observations")
	}
}

func TestRoutePatternWithoutRouter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/plain", http.NoBody)
	if got := routePattern(req); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

func TestObserver(t *testing.T) {
	var obs Observer

	obs.Refreshed("metrics-test", 12, 2)
	if v := testutil.ToFloat64(Candidates.WithLabelValues("metrics-test")); v != 12 {
		t.Fatalf("expected 12 candidates, got %f", v)
	}
	if v := testutil.ToFloat64(AmbiguousLabels.WithLabelValues("metrics-test")); v != 2 {
		t.Fatalf("expected 2 ambiguous labels, got %f", v)
	}

	obs.Resolved("metrics-test", resolver.StrategyIndex, nil)
	obs.Resolved("metrics-test", "", &resolver.ResolutionError{Label: "x", Err: resolver.ErrAmbiguousLabel})
	obs.Resolved("metrics-test", "", errors.New("other"))

	if v := testutil.ToFloat64(ResolutionsTotal.WithLabelValues("metrics-test", "index", "ok")); v != 1 {
		t.Fatalf("expected one index success, got %f", v)
	}
	if v := testutil.ToFloat64(ResolutionsTotal.WithLabelValues("metrics-test", "none", "ambiguous_label")); v != 1 {
		t.Fatalf("expected one ambiguous failure, got %f", v)
	}
	if v := testutil.ToFloat64(ResolutionsTotal.WithLabelValues("metrics-test", "none", "resolution_failed")); v != 1 {
		t.Fatalf("expected one generic failure, got %f", v)
	}
}
