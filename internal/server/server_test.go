package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agency-data-service/internal/config"
	"agency-data-service/internal/metrics"
)

func testConfig() config.Config {
	return config.Config{
		Port:  "0",
		Store: config.StoreConfig{Backend: "memory"},
		Enrich: config.EnrichConfig{
			Provider: "fixture",
			Timeout:  config.Duration(10 * time.Second),
		},
		Metrics: config.MetricsConfig{Enabled: false},
	}
}

func TestNewWiresMemoryBackend(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer srv.registries.close()

	if srv.Handler() == nil {
		t.Fatal("expected a wired handler")
	}
	if srv.metricsServer != nil {
		t.Fatal("expected no metrics server when disabled")
	}
}

func TestHealthAndReadyThroughFullStack(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer srv.registries.close()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", rec.Code)
	}

	deadline := time.After(2 * time.Second)
	for {
		rec = httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code == http.StatusOK {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("readiness never reached, last status %d (%s)", rec.Code, rec.Body.String())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestFailedStartupStopsMetrics(t *testing.T) {
	stopped := false
	orig := metricsSetup
	metricsSetup = func(ctx context.Context, cfg metrics.TelemetryConfig) (*metrics.Recorder, http.Handler, func(context.Context) error, error) {
		return metrics.NewRecorder(), nil, func(context.Context) error {
			stopped = true
			return nil
		}, nil
	}
	defer func() { metricsSetup = orig }()

	cfg := testConfig()
	cfg.Store.Backend = "postgres"
	cfg.Store.PostgresDSN = "host=127.0.0.1 port=1 user=agency dbname=agency sslmode=disable connect_timeout=1"

	if _, err := New(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected startup to fail with an unreachable database")
	}
	if !stopped {
		t.Fatal("expected the telemetry reader to be released on failed startup")
	}
}

func TestRegistrySetCloseIsSafeTwice(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	srv.registries.close()
	srv.registries.close()
}
