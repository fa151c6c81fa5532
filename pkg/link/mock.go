package link

import (
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/itohio/fenceline/pkg/config"
	"github.com/itohio/fenceline/pkg/fence"
	"github.com/itohio/fenceline/pkg/hw"
)

// Mock runs the real monitor over a simulated fence. Line resistances wander
// every cycle and shorts between random pairs of lines sparkle on and off.
type Mock struct {
	*Local

	cfg config.MockConfig
	sim *hw.Sim
	reg *fence.Registry
	rng *rand.Rand

	remaining int // cycles left on the current short
}

// NewMock creates a simulated device. Indicators go to ind when it is not
// nil, otherwise to the simulator. A nil logger uses the standard logger.
func NewMock(reg *fence.Registry, mcfg fence.MonitorConfig, cfg config.MockConfig, ind fence.Indicators, logger logrus.FieldLogger, opts ...LocalOption) *Mock {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	base := mcfg.BaseResistance
	if base == 0 {
		base = fence.DefaultBaseResistance
	}
	sim := hw.NewSim(reg, base, rand.New(rand.NewSource(rng.Int63())))

	var hardware fence.Hardware = sim
	if ind != nil {
		hardware = fence.Composite{IO: sim, Indicators: ind, Buzzer: sim}
	}

	m := &Mock{cfg: cfg, sim: sim, reg: reg, rng: rng}

	opts = append([]LocalOption{
		WithInterval(cfg.SampleRate),
		WithMonitorSleeper(fence.NoSleep),
		WithLogger(logger.WithField("source", "mock")),
	}, opts...)
	m.Local = NewLocal(reg, mcfg, hardware, opts...)
	m.Local.beforeCycle = m.step
	return m
}

// Sim exposes the simulated fence.
func (m *Mock) Sim() *hw.Sim {
	return m.sim
}

// step advances the simulation by one cycle. It runs on the monitor
// goroutine.
func (m *Mock) step(loop uint32) {
	m.sim.Randomize(float32(m.cfg.MaxResistance))

	if m.remaining > 0 {
		m.remaining--
		if m.remaining == 0 {
			m.sim.ClearShort()
			m.logger.WithField("loop", loop).Debug("short cleared")
		}
		return
	}

	lines := m.reg.Lines()
	if len(lines) < 2 || m.rng.Float64() >= m.cfg.ShortProbability {
		return
	}

	i := m.rng.Intn(len(lines))
	j := m.rng.Intn(len(lines) - 1)
	if j >= i {
		j++
	}
	m.sim.InjectShort(lines[i].ID, lines[j].ID)

	m.remaining = m.cfg.ShortMinCycles
	if span := m.cfg.ShortMaxCycles - m.cfg.ShortMinCycles; span > 0 {
		m.remaining += m.rng.Intn(span + 1)
	}
	if m.remaining < 1 {
		m.remaining = 1
	}
	m.logger.WithFields(logrus.Fields{
		"loop":   loop,
		"lines":  lines[i].ID.String() + lines[j].ID.String(),
		"cycles": m.remaining,
	}).Debug("short injected")
}
