package fence

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestEstimate(t *testing.T) {
	lineA := &Line{ID: LineA, CalibrationOffset: -14.5, ReferenceVoltage: 4.13}
	plain := &Line{ID: LineB, ReferenceVoltage: 4}

	tests := []struct {
		name     string
		line     *Line
		raw      int
		wantVout float32
		wantR    float32
		wantOpen bool
	}{
		{name: "full scale", line: plain, raw: 1023, wantVout: 4, wantR: 0},
		{name: "half scale", line: plain, raw: 341, wantVout: 1.3333, wantR: 44},
		{name: "calibrated", line: lineA, raw: 512, wantVout: 2.0670, wantR: 7.457},
		{name: "calibrated full scale goes negative", line: lineA, raw: 1023, wantVout: 4.13, wantR: -14.5},
		{name: "zero sample is open circuit", line: lineA, raw: 0, wantVout: 0, wantR: OpenCircuit, wantOpen: true},
		{name: "tiny sample saturates", line: plain, raw: 1, wantVout: 0.00391, wantR: OpenCircuit, wantOpen: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(tt.line, DefaultBaseResistance, tt.raw)
			assert.InDelta(t, tt.wantVout, got.Vout, 0.001)
			assert.InDelta(t, tt.wantR, got.Resistance, 0.01)
			assert.Equal(t, tt.wantOpen, got.Open)
		})
	}
}

func TestEstimate_Deterministic(t *testing.T) {
	line := &Line{ReferenceVoltage: 4.1, CalibrationOffset: -14}
	for raw := 0; raw <= FullScale; raw++ {
		a := Estimate(line, DefaultBaseResistance, raw)
		b := Estimate(line, DefaultBaseResistance, raw)
		assert.Equal(t, a, b)
		assert.False(t, math32.IsNaN(a.Resistance), "raw %d", raw)
		assert.False(t, math32.IsInf(a.Resistance, 0), "raw %d", raw)
		assert.LessOrEqual(t, a.Resistance, OpenCircuit)
	}
}

func TestEstimate_ZeroReferenceVoltage(t *testing.T) {
	got := Estimate(&Line{}, DefaultBaseResistance, 500)
	assert.True(t, got.Open)
	assert.Equal(t, OpenCircuit, got.Resistance)
}

func TestEstimate_OpenCircuitBandsAsFault(t *testing.T) {
	got := Estimate(&Line{ReferenceVoltage: 4.13}, DefaultBaseResistance, 0)
	assert.Equal(t, Fault, Classify(got.Resistance))
}
