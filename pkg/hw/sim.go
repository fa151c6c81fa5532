// Package hw contains the hardware behind fence.Hardware: a simulated fence
// for development and tests, a Raspberry Pi board built on periph.io, and an
// indicator output that writes to the log.
package hw

import (
	"math/rand"
	"sync"
	"time"

	"github.com/itohio/fenceline/pkg/fence"
)

const (
	simNoise = 4 // raw units of noise on every reading
	simLeak  = 6 // raw units lost between two shorted lines
)

type simLine struct {
	line       fence.Line
	resistance float32
}

// Sim simulates the fence, its sense dividers, the indicator strip and the
// buzzer. Exciting a line makes its divider output proportional to the line's
// resistance; a short couples the excited line onto every other shorted line.
// It is safe for concurrent use.
type Sim struct {
	mu   sync.Mutex
	base float32
	rng  *rand.Rand

	lines      []*simLine
	byExcite   map[int]*simLine
	byDigital  map[int]*simLine
	byAnalog   map[int]*simLine
	byID       map[fence.LineID]*simLine
	excited    *simLine
	shorted    map[fence.LineID]bool
	staged     map[int]fence.Color
	shown      map[int]fence.Color
	shows      int
	tones      int
	lastToneHz int
}

var _ fence.Hardware = (*Sim)(nil)

// NewSim builds a simulator for the lines of reg. Every line starts at 1 Ω.
func NewSim(reg *fence.Registry, baseResistance float32, rng *rand.Rand) *Sim {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	s := &Sim{
		base:      baseResistance,
		rng:       rng,
		byExcite:  make(map[int]*simLine),
		byDigital: make(map[int]*simLine),
		byAnalog:  make(map[int]*simLine),
		byID:      make(map[fence.LineID]*simLine),
		shorted:   make(map[fence.LineID]bool),
		staged:    make(map[int]fence.Color),
		shown:     make(map[int]fence.Color),
	}
	for _, l := range reg.Lines() {
		sl := &simLine{line: *l, resistance: 1}
		s.lines = append(s.lines, sl)
		s.byExcite[l.Excitation] = sl
		s.byDigital[l.SenseDigital] = sl
		s.byAnalog[l.SenseAnalog] = sl
		s.byID[l.ID] = sl
	}
	return s
}

// SetResistance sets the loop resistance of a line.
func (s *Sim) SetResistance(id fence.LineID, ohms float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl := s.byID[id]; sl != nil {
		sl.resistance = ohms
	}
}

// InjectShort connects the given lines to each other.
func (s *Sim) InjectShort(ids ...fence.LineID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.shorted[id] = true
	}
}

// ClearShort removes every short.
func (s *Sim) ClearShort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shorted = make(map[fence.LineID]bool)
}

// Shorted reports whether any short is active.
func (s *Sim) Shorted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shorted) > 1
}

// Randomize draws a new resistance in [0, max) for every line.
func (s *Sim) Randomize(max float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.lines {
		sl.resistance = s.rng.Float32() * max
	}
}

// SetOutput implements fence.IO.
func (s *Sim) SetOutput(channel int, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.byExcite[channel]
	if sl == nil {
		return
	}
	if high {
		s.excited = sl
	} else if s.excited == sl {
		s.excited = nil
	}
}

// ReadDigital implements fence.IO.
func (s *Sim) ReadDigital(channel int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.byDigital[channel]
	if sl == nil {
		return false
	}
	if sl == s.excited {
		return true
	}
	return s.level(sl) > fence.FullScale/2
}

// ReadAnalog implements fence.IO.
func (s *Sim) ReadAnalog(channel int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.byAnalog[channel]
	if sl == nil {
		return 0
	}
	return s.level(sl)
}

// level returns the raw reading of sl. Caller holds mu.
func (s *Sim) level(sl *simLine) int {
	noise := s.rng.Intn(simNoise + 1)
	switch {
	case s.excited == nil:
		return noise
	case sl == s.excited:
		return clamp(s.dividerRaw(sl) - noise)
	case s.shorted[sl.line.ID] && s.shorted[s.excited.line.ID]:
		return clamp(s.dividerRaw(s.excited) - simLeak - noise)
	}
	return noise
}

// dividerRaw inverts the estimator: the code the converter would produce for
// the line's resistance.
func (s *Sim) dividerRaw(sl *simLine) int {
	ratio := (sl.resistance - sl.line.CalibrationOffset) / s.base
	if ratio < 0 {
		ratio = 0
	}
	return clamp(int(float32(fence.FullScale)/(ratio+1) + 0.5))
}

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > fence.FullScale:
		return fence.FullScale
	}
	return v
}

// SetIndicator implements fence.Indicators.
func (s *Sim) SetIndicator(zone int, c fence.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged[zone] = c
}

// Clear implements fence.Indicators.
func (s *Sim) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sl := range s.lines {
		s.staged[sl.line.Zone] = fence.Off
	}
}

// Show implements fence.Indicators.
func (s *Sim) Show() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for zone, c := range s.staged {
		s.shown[zone] = c
	}
	s.shows++
}

// Shown returns the visible indicator colours by zone.
func (s *Sim) Shown() map[int]fence.Color {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]fence.Color, len(s.shown))
	for zone, c := range s.shown {
		out[zone] = c
	}
	return out
}

// Tone implements fence.Buzzer.
func (s *Sim) Tone(freqHz int, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tones++
	s.lastToneHz = freqHz
}

// Tones returns how many tones were played.
func (s *Sim) Tones() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tones
}
