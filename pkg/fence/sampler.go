package fence

import "time"

// DefaultSettleDelay is how long the sense circuit needs after a change of
// excitation before readings are valid.
const DefaultSettleDelay = 50 * time.Millisecond

// Sample is one line's readings taken during a sampling pass.
type Sample struct {
	Line    LineID
	Digital bool
	Raw     int
}

// SampleSet holds the readings of every line taken while Target was excited.
// Samples are ordered by line ID.
type SampleSet struct {
	Target  LineID
	Samples []Sample
}

// Get returns the sample of line id.
func (s SampleSet) Get(id LineID) (Sample, bool) {
	for _, smp := range s.Samples {
		if smp.Line == id {
			return smp, true
		}
	}
	return Sample{}, false
}

// Sampler excites one line at a time and reads all of them.
type Sampler struct {
	reg    *Registry
	io     IO
	sleep  Sleeper
	settle time.Duration
}

// NewSampler creates a sampler. A zero settle uses DefaultSettleDelay.
func NewSampler(reg *Registry, io IO, sleep Sleeper, settle time.Duration) *Sampler {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	if sleep == nil {
		sleep = RealSleeper
	}
	return &Sampler{reg: reg, io: io, sleep: sleep, settle: settle}
}

// SamplePass excites target, waits for the sense circuit to settle and reads
// the digital and analog level of every line. The non-excited lines pick up
// leakage from the target, which is what the short-circuit detector looks for.
// The target is released and allowed to settle again before returning, so no
// two lines are ever energised together.
func (s *Sampler) SamplePass(target LineID) SampleSet {
	line := s.reg.Line(target)
	if line != nil {
		s.io.SetOutput(line.Excitation, true)
	}
	s.sleep.Sleep(s.settle)

	lines := s.reg.Lines()
	set := SampleSet{Target: target, Samples: make([]Sample, len(lines))}
	for i, l := range lines {
		set.Samples[i].Line = l.ID
		set.Samples[i].Digital = s.io.ReadDigital(l.SenseDigital)
	}
	for i, l := range lines {
		set.Samples[i].Raw = clampRaw(s.io.ReadAnalog(l.SenseAnalog))
	}

	if line != nil {
		s.io.SetOutput(line.Excitation, false)
	}
	s.sleep.Sleep(s.settle)

	return set
}

func clampRaw(v int) int {
	switch {
	case v < 0:
		return 0
	case v > FullScale:
		return FullScale
	}
	return v
}
