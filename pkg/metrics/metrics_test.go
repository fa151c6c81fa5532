package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/fenceline/pkg/fence"
)

func record(line fence.LineID, raw int, ohms float32, short int) fence.Record {
	rec := fence.Record{
		Loop: 9,
		Line: line,
		Samples: []fence.Sample{
			{Line: fence.LineA, Raw: 1},
			{Line: fence.LineB, Raw: 2},
			{Line: fence.LineC, Raw: 3},
		},
		Resistance: ohms,
		Short:      short,
	}
	rec.Samples[line-fence.LineA] = fence.Sample{Line: line, Digital: true, Raw: raw}
	return rec
}

func TestObserve(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Observe(record(fence.LineB, 600, 4, 0))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.records))
	assert.Equal(t, float64(9), testutil.ToFloat64(m.loop))
	assert.Equal(t, float64(600), testutil.ToFloat64(m.raw.WithLabelValues("B")))
	assert.Equal(t, float64(4), testutil.ToFloat64(m.resistance.WithLabelValues("B")))
	assert.Equal(t, float64(fence.Marginal), testutil.ToFloat64(m.band.WithLabelValues("B")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.alarms))
	assert.Equal(t, 1, testutil.CollectAndCount(m.resistance))
}

func TestObserve_Alarm(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Observe(record(fence.LineA, 0, fence.OpenCircuit, 3))
	m.Observe(record(fence.LineC, 0, 1, 0))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.records))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.alarms))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.short.WithLabelValues("A")))
	assert.Equal(t, float64(fence.Fault), testutil.ToFloat64(m.band.WithLabelValues("A")))
	assert.Equal(t, float64(fence.Normal), testutil.ToFloat64(m.band.WithLabelValues("C")))
}

func TestObserveStore(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveStore(0.001, nil)
	m.ObserveStore(0.002, errors.New("locked"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.storeErrors))
	assert.Equal(t, 1, testutil.CollectAndCount(m.storeTime))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Observe(record(fence.LineA, 0, 1, 0))

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `fence_line_resistance_ohms{line="A"} 1`)
	assert.Contains(t, rr.Body.String(), "fence_records_total 1")
}
