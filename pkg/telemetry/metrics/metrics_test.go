package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		DurationBuckets: []float64{0.001, 0.01, 0.1, 1},
	}
}

func TestNewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("NewCollector returned nil")
	}
	if collector.registry != registry {
		t.Error("collector does not use the provided registry")
	}
	if collector.config != cfg {
		t.Error("collector does not use the provided config")
	}
}

func TestNewCollectorDefaults(t *testing.T) {
	collector := NewCollector(nil, nil)

	if collector.registry == nil {
		t.Fatal("collector did not create a registry")
	}
	if collector.config.Namespace != config.DefaultMetricsNamespace {
		t.Errorf("Namespace = %q, want %q", collector.config.Namespace, config.DefaultMetricsNamespace)
	}
	if len(collector.config.DurationBuckets) == 0 {
		t.Error("DurationBuckets not defaulted")
	}
}

func TestRecordSchemaBuild(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordSchemaBuild("success", 120*time.Millisecond)
	collector.RecordSchemaBuild("success", 80*time.Millisecond)
	collector.RecordSchemaBuild("error", 5*time.Millisecond)

	if got := testutil.ToFloat64(collector.schemaMetrics.buildsTotal.WithLabelValues("success")); got != 2 {
		t.Errorf("success builds = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.schemaMetrics.buildsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error builds = %v, want 1", got)
	}
}

func TestSetModuleCount(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.SetModuleCount("implement", 14)
	collector.SetModuleCount("import", 3)
	collector.SetModuleCount("implement", 15)

	if got := testutil.ToFloat64(collector.schemaMetrics.modules.WithLabelValues("implement")); got != 15 {
		t.Errorf("implement modules = %v, want 15", got)
	}
	if got := testutil.ToFloat64(collector.schemaMetrics.modules.WithLabelValues("import")); got != 3 {
		t.Errorf("import modules = %v, want 3", got)
	}
}

func TestRecordValidation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	tests := []struct {
		name          string
		outcome       string
		duration      time.Duration
		documentBytes int
	}{
		{"valid run", "valid", 2 * time.Millisecond, 512},
		{"invalid run", "invalid", 3 * time.Millisecond, 2048},
		{"failed run", "error", time.Millisecond, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordValidation(tt.outcome, tt.duration, tt.documentBytes)

			if got := testutil.ToFloat64(collector.validationMetrics.runsTotal.WithLabelValues(tt.outcome)); got != 1 {
				t.Errorf("runs for outcome %q = %v, want 1", tt.outcome, got)
			}
		})
	}
}

func TestRecordViolation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordViolation("schema", "missing-data")
	collector.RecordViolation("schema", "missing-data")
	collector.RecordViolation("semantic", "must-violation")

	if got := testutil.ToFloat64(collector.validationMetrics.violationsTotal.WithLabelValues("schema", "missing-data")); got != 2 {
		t.Errorf("missing-data findings = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.validationMetrics.violationsTotal.WithLabelValues("semantic", "must-violation")); got != 1 {
		t.Errorf("must-violation findings = %v, want 1", got)
	}
}

func TestAuditMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordAuditRecord("recorded")
	collector.RecordAuditRecord("recorded")
	collector.RecordAuditRecord("dropped")
	collector.AddAuditPruned(7)
	collector.AddAuditPruned(0)

	if got := testutil.ToFloat64(collector.auditMetrics.recordsTotal.WithLabelValues("recorded")); got != 2 {
		t.Errorf("recorded writes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.auditMetrics.recordsTotal.WithLabelValues("dropped")); got != 1 {
		t.Errorf("dropped writes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.auditMetrics.prunedTotal); got != 7 {
		t.Errorf("pruned total = %v, want 7", got)
	}
}

func TestCollectorDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordSchemaBuild("success", time.Millisecond)
	collector.SetModuleCount("implement", 3)
	collector.RecordValidation("valid", time.Millisecond, 100)
	collector.RecordViolation("schema", "missing-data")
	collector.RecordAuditRecord("recorded")
	collector.AddAuditPruned(1)

	if got := testutil.ToFloat64(collector.schemaMetrics.buildsTotal.WithLabelValues("success")); got != 0 {
		t.Errorf("disabled collector recorded builds = %v, want 0", got)
	}
	if got := testutil.ToFloat64(collector.validationMetrics.runsTotal.WithLabelValues("valid")); got != 0 {
		t.Errorf("disabled collector recorded runs = %v, want 0", got)
	}
	if got := testutil.ToFloat64(collector.auditMetrics.prunedTotal); got != 0 {
		t.Errorf("disabled collector recorded pruned = %v, want 0", got)
	}
}

func TestHandler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordValidation("valid", 2*time.Millisecond, 512)

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("scrape status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "test_validation_runs_total") {
		t.Errorf("exposition does not contain test_validation_runs_total:\n%s", body)
	}
}

func TestConcurrentRecording(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.RecordValidation("valid", time.Millisecond, 256)
				collector.RecordViolation("schema", "missing-data")
				collector.RecordAuditRecord("recorded")
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(collector.validationMetrics.runsTotal.WithLabelValues("valid")); got != 1000 {
		t.Errorf("runs = %v, want 1000", got)
	}
	if got := testutil.ToFloat64(collector.validationMetrics.violationsTotal.WithLabelValues("schema", "missing-data")); got != 1000 {
		t.Errorf("findings = %v, want 1000", got)
	}
}
