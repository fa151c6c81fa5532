package hw

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/fenceline/pkg/fence"
)

func newSim(t *testing.T) (*Sim, *fence.Registry) {
	t.Helper()
	reg, err := fence.NewRegistry(fence.DefaultLines(), fence.DefaultOrder())
	require.NoError(t, err)
	return NewSim(reg, fence.DefaultBaseResistance, rand.New(rand.NewSource(1))), reg
}

func TestSim_IdleReadsNoise(t *testing.T) {
	sim, reg := newSim(t)
	for _, l := range reg.Lines() {
		assert.LessOrEqual(t, sim.ReadAnalog(l.SenseAnalog), simNoise)
		assert.False(t, sim.ReadDigital(l.SenseDigital))
	}
}

func TestSim_ExcitedLineFollowsResistance(t *testing.T) {
	sim, reg := newSim(t)
	a := reg.Line(fence.LineA)

	for _, ohms := range []float32{0.5, 2, 4, 8} {
		sim.SetResistance(fence.LineA, ohms)
		sim.SetOutput(a.Excitation, true)
		raw := sim.ReadAnalog(a.SenseAnalog)
		assert.True(t, sim.ReadDigital(a.SenseDigital))
		sim.SetOutput(a.Excitation, false)

		rd := fence.Estimate(a, fence.DefaultBaseResistance, raw)
		assert.InDelta(t, ohms, rd.Resistance, 0.5, "ohms %v raw %d", ohms, raw)
	}
}

func TestSim_ShortCouplesLines(t *testing.T) {
	sim, reg := newSim(t)
	a, b, c := reg.Line(fence.LineA), reg.Line(fence.LineB), reg.Line(fence.LineC)

	sim.InjectShort(fence.LineA, fence.LineB)
	assert.True(t, sim.Shorted())

	sim.SetOutput(a.Excitation, true)
	assert.Greater(t, sim.ReadAnalog(b.SenseAnalog), fence.DefaultAlarmThreshold)
	assert.LessOrEqual(t, sim.ReadAnalog(c.SenseAnalog), simNoise)
	sim.SetOutput(a.Excitation, false)

	sim.ClearShort()
	assert.False(t, sim.Shorted())
	sim.SetOutput(a.Excitation, true)
	assert.LessOrEqual(t, sim.ReadAnalog(b.SenseAnalog), simNoise)
}

func TestSim_MonitorDetectsShort(t *testing.T) {
	sim, reg := newSim(t)
	m := fence.NewMonitor(reg, fence.DefaultMonitorConfig(), sim, fence.WithSleeper(fence.NoSleep))

	for _, rec := range m.Cycle() {
		assert.Zero(t, rec.Short, "line %s", rec.Line)
	}
	shown := sim.Shown()
	for _, l := range reg.Lines() {
		assert.Equal(t, fence.Green, shown[l.Zone])
	}

	sim.InjectShort(fence.LineB, fence.LineC)
	tones := sim.Tones()
	shorts := 0
	for _, rec := range m.Cycle() {
		if rec.Line == fence.LineB || rec.Line == fence.LineC {
			assert.Equal(t, 2, rec.Short)
			shorts++
		} else {
			assert.Zero(t, rec.Short)
		}
	}
	assert.Equal(t, 2, shorts)
	assert.Equal(t, tones+2*2*fence.DefaultAlertSequences, sim.Tones())
}

func TestSim_IndicatorsStageUntilShow(t *testing.T) {
	sim, _ := newSim(t)
	sim.SetIndicator(0, fence.Red)
	assert.Empty(t, sim.Shown())
	sim.Show()
	assert.Equal(t, fence.Red, sim.Shown()[0])

	sim.Clear()
	assert.Equal(t, fence.Red, sim.Shown()[0])
	sim.Show()
	assert.Equal(t, fence.Off, sim.Shown()[0])
}

func TestSim_UnknownChannels(t *testing.T) {
	sim, _ := newSim(t)
	sim.SetOutput(42, true)
	assert.Zero(t, sim.ReadAnalog(42))
	assert.False(t, sim.ReadDigital(42))
}
