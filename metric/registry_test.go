package metric

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/gqlwire/errors"
)

func gatheredNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()
	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.Same(t, registry.Metrics, registry.CoreMetrics())
}

func TestMetricsRegistry_RegisterKinds(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "ext_counter", Help: "counter"})
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "ext_gauge", Help: "gauge"})
	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ext_histogram", Help: "histogram"})

	require.NoError(t, registry.RegisterCounter("natsloader", "ext_counter", counter))
	require.NoError(t, registry.RegisterGauge("natsloader", "ext_gauge", gauge))
	require.NoError(t, registry.RegisterHistogram("natsloader", "ext_histogram", histogram))

	counter.Inc()
	gauge.Set(42)
	histogram.Observe(0.5)

	names := gatheredNames(t, registry)
	assert.True(t, names["ext_counter"])
	assert.True(t, names["ext_gauge"])
	assert.True(t, names["ext_histogram"])
}

func TestMetricsRegistry_RegisterVectors(t *testing.T) {
	registry := NewMetricsRegistry()

	counterVec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ext_counter_vec", Help: "c"}, []string{"k"})
	gaugeVec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "ext_gauge_vec", Help: "g"}, []string{"k"})
	histogramVec := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "ext_hist_vec", Help: "h"}, []string{"k"})

	require.NoError(t, registry.RegisterCounterVec("ext", "ext_counter_vec", counterVec))
	require.NoError(t, registry.RegisterGaugeVec("ext", "ext_gauge_vec", gaugeVec))
	require.NoError(t, registry.RegisterHistogramVec("ext", "ext_hist_vec", histogramVec))

	counterVec.WithLabelValues("a").Inc()
	gaugeVec.WithLabelValues("a").Set(1)
	histogramVec.WithLabelValues("a").Observe(1)

	names := gatheredNames(t, registry)
	assert.True(t, names["ext_counter_vec"])
	assert.True(t, names["ext_gauge_vec"])
	assert.True(t, names["ext_hist_vec"])
}

func TestMetricsRegistry_PreventDuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounter(prometheus.CounterOpts{Name: "duplicate_counter", Help: "dup"})
	second := prometheus.NewCounter(prometheus.CounterOpts{Name: "duplicate_counter", Help: "dup"})

	require.NoError(t, registry.RegisterCounter("owner1", "duplicate_counter", first))

	err := registry.RegisterCounter("owner1", "duplicate_counter", second)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "duplicate metric registration")

	err = registry.RegisterCounter("owner2", "duplicate_counter", second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prometheus conflict")
}

func TestMetricsRegistry_UnregisterMetric(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "unregister_counter", Help: "u"})
	require.NoError(t, registry.RegisterCounter("owner", "unregister_counter", counter))
	assert.True(t, gatheredNames(t, registry)["unregister_counter"])

	assert.True(t, registry.Unregister("owner", "unregister_counter"))
	assert.False(t, gatheredNames(t, registry)["unregister_counter"])
	assert.False(t, registry.Unregister("owner", "unregister_counter"))
}

func TestMetricsRegistry_ThreadSafety(t *testing.T) {
	registry := NewMetricsRegistry()

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			name := fmt.Sprintf("concurrent_counter_%d", id)
			counter := prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: "c"})
			assert.NoError(t, registry.RegisterCounter("concurrent", name, counter))
		}(i)
	}

	wg.Wait()

	count := 0
	for name := range gatheredNames(t, registry) {
		if strings.HasPrefix(name, "concurrent_counter_") {
			count++
		}
	}
	assert.Equal(t, numGoroutines, count)
}

func TestMetricsRegistrar_Interface(t *testing.T) {
	var registrar MetricsRegistrar = NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "interface_counter", Help: "i"})
	require.NoError(t, registrar.RegisterCounter("iface", "interface_counter", counter))
}

func TestCoreMetrics_RecordMethods(t *testing.T) {
	registry := NewMetricsRegistry()
	m := registry.CoreMetrics()

	m.RecordExecution("GetUser", false, 10*time.Millisecond)
	m.RecordExecution("GetUser", true, 20*time.Millisecond)
	m.RecordBatch("userLoader", 3, false)
	m.RecordBatch("userLoader", 1, true)
	m.RecordCacheLookup("userLoader", true)
	m.RecordCacheLookup("userLoader", false)
	m.RecordEntityFetch("User", OutcomeResolved)
	m.RecordEntityFetch("Product", OutcomeExcluded)
	m.RecordRegistration("loader")
	m.RecordScanFailure("loaders")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("GetUser", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("GetUser", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoaderBatches.WithLabelValues("userLoader")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderBatchErrors.WithLabelValues("userLoader")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderCache.WithLabelValues("userLoader", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoaderCache.WithLabelValues("userLoader", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntityFetches.WithLabelValues("Product", OutcomeExcluded)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues("loader")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScanFailures.WithLabelValues("loaders")))

	names := gatheredNames(t, registry)
	for _, name := range []string{
		"gqlwire_execution_total",
		"gqlwire_execution_duration_seconds",
		"gqlwire_loader_batches_total",
		"gqlwire_loader_batch_size",
		"gqlwire_federation_entity_fetches_total",
		"gqlwire_scan_registrations_total",
	} {
		assert.True(t, names[name], "expected %s to be gathered", name)
	}
}

func TestMetricsRegistry_WriteText(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordRegistration("entity")

	var buf bytes.Buffer
	require.NoError(t, registry.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "# TYPE gqlwire_scan_registrations_total counter")
	assert.Contains(t, out, `gqlwire_scan_registrations_total{kind="entity"} 1`)
}
