package fence

import (
	"context"
	"time"
)

const (
	SelfTestStep   = 200 * time.Millisecond
	SelfTestHighHz = 1200
	SelfTestLowHz  = 800
)

// MonitorConfig is fixed at startup.
type MonitorConfig struct {
	BaseResistance float32
	AlarmThreshold int
	AlertSequences int
	SettleDelay    time.Duration

	// Enabled selects the lines that are excited each cycle. A nil map
	// enables every line.
	Enabled map[LineID]bool
}

// DefaultMonitorConfig returns the reference firmware settings.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		BaseResistance: DefaultBaseResistance,
		AlarmThreshold: DefaultAlarmThreshold,
		AlertSequences: DefaultAlertSequences,
		SettleDelay:    DefaultSettleDelay,
	}
}

// LineEnabled reports whether id is sampled each cycle.
func (c MonitorConfig) LineEnabled(id LineID) bool {
	if c.Enabled == nil {
		return true
	}
	return c.Enabled[id]
}

// Record is what the monitor reports after processing one line.
type Record struct {
	Loop       uint32
	Line       LineID
	Samples    []Sample // all lines, ordered by ID
	Vout       float32
	Resistance float32
	Short      int
}

// Sample returns the sample of line id within the record.
func (r Record) Sample(id LineID) (Sample, bool) {
	return SampleSet{Samples: r.Samples}.Get(id)
}

// Reporter receives a record per processed line.
type Reporter interface {
	Report(rec Record)
}

// CycleStarter is implemented by reporters that want to mark cycle starts.
type CycleStarter interface {
	StartCycle(loop uint32)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(rec Record)

// Report calls f(rec).
func (f ReporterFunc) Report(rec Record) { f(rec) }

// MonitorState is everything that changes while the monitor runs. It is owned
// by the single goroutine that calls Cycle.
type MonitorState struct {
	Registry *Registry
	Loop     uint32
}

// Monitor runs the sample → estimate → detect → report sequence for each
// enabled line and refreshes the indicators once per cycle. It is strictly
// sequential: only one line is ever excited and an alarm blocks the cycle
// until it has finished.
type Monitor struct {
	cfg   MonitorConfig
	state MonitorState
	hw    Hardware
	sleep Sleeper

	sampler  *Sampler
	detector *Detector
	mapper   *Mapper
	reporter Reporter
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSleeper replaces time.Sleep for every delay the monitor makes.
func WithSleeper(s Sleeper) Option {
	return func(m *Monitor) { m.sleep = s }
}

// WithReporter sets the record sink.
func WithReporter(r Reporter) Option {
	return func(m *Monitor) { m.reporter = r }
}

// NewMonitor wires a monitor over reg and hw.
func NewMonitor(reg *Registry, cfg MonitorConfig, hw Hardware, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:   cfg,
		state: MonitorState{Registry: reg},
		hw:    hw,
		sleep: RealSleeper,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.BaseResistance == 0 {
		m.cfg.BaseResistance = DefaultBaseResistance
	}

	m.sampler = NewSampler(reg, hw, m.sleep, cfg.SettleDelay)
	m.detector = NewDetector(reg, hw, hw, m.sleep, cfg.AlarmThreshold, cfg.AlertSequences)
	m.mapper = NewMapper(hw)
	return m
}

// State exposes the live monitor state.
func (m *Monitor) State() *MonitorState {
	return &m.state
}

// Detector returns the short-circuit detector, e.g. to observe transitions.
func (m *Monitor) Detector() *Detector {
	return m.detector
}

// SelfTest walks every zone through red, amber and green and plays the two
// start-up tones.
func (m *Monitor) SelfTest() {
	for _, l := range m.state.Registry.Lines() {
		for _, c := range []Color{Red, Amber, Green} {
			m.hw.SetIndicator(l.Zone, c)
			m.hw.Show()
			m.sleep.Sleep(SelfTestStep)
		}
	}
	m.hw.Tone(SelfTestHighHz, AlarmTone)
	m.sleep.Sleep(AlarmHold)
	m.hw.Tone(SelfTestLowHz, AlarmTone)
	m.sleep.Sleep(AlarmHold)
}

// Cycle processes every enabled line once, refreshes the indicators and
// advances the loop counter. The produced records are also returned.
func (m *Monitor) Cycle() []Record {
	reg := m.state.Registry
	loop := m.state.Loop

	if cs, ok := m.reporter.(CycleStarter); ok {
		cs.StartCycle(loop)
	}

	records := make([]Record, 0, len(reg.Order()))
	for _, id := range reg.Order() {
		if !m.cfg.LineEnabled(id) {
			continue
		}

		set := m.sampler.SamplePass(id)
		reg.store(set)

		line := reg.Line(id)
		rd := Estimate(line, m.cfg.BaseResistance, line.LastRaw)
		line.LastVout = rd.Vout
		line.LastResistance = rd.Resistance

		status := m.detector.Evaluate(set)

		rec := Record{
			Loop:       loop,
			Line:       id,
			Samples:    set.Samples,
			Vout:       rd.Vout,
			Resistance: rd.Resistance,
			Short:      status.Count,
		}
		if m.reporter != nil {
			m.reporter.Report(rec)
		}
		records = append(records, rec)
	}

	m.mapper.Refresh(reg.Lines())
	m.state.Loop++
	return records
}

// Run plays the self test and then cycles until ctx is done. Cancellation is
// only observed between cycles.
func (m *Monitor) Run(ctx context.Context) error {
	m.SelfTest()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		m.Cycle()
	}
}
