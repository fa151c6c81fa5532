package fence

import (
	"fmt"
	"time"
)

// fakeHW records every hardware call in order. Analog and digital readings
// are looked up by channel.
type fakeHW struct {
	events  []string
	analog  map[int]int
	digital map[int]bool
	high    map[int]bool

	// maxHigh is the largest number of outputs seen high at once.
	maxHigh int
	// readsWhileLow counts reads taken with no output high.
	readsWhileLow int
}

func newFakeHW() *fakeHW {
	return &fakeHW{
		analog:  make(map[int]int),
		digital: make(map[int]bool),
		high:    make(map[int]bool),
	}
}

func (f *fakeHW) SetOutput(ch int, high bool) {
	f.events = append(f.events, fmt.Sprintf("out %d %v", ch, high))
	if high {
		f.high[ch] = true
	} else {
		delete(f.high, ch)
	}
	if len(f.high) > f.maxHigh {
		f.maxHigh = len(f.high)
	}
}

func (f *fakeHW) ReadDigital(ch int) bool {
	if len(f.high) == 0 {
		f.readsWhileLow++
	}
	return f.digital[ch]
}

func (f *fakeHW) ReadAnalog(ch int) int {
	if len(f.high) == 0 {
		f.readsWhileLow++
	}
	return f.analog[ch]
}

func (f *fakeHW) SetIndicator(zone int, c Color) {
	f.events = append(f.events, fmt.Sprintf("set %d %s", zone, colorName(c)))
}

func (f *fakeHW) Clear() { f.events = append(f.events, "clear") }
func (f *fakeHW) Show()  { f.events = append(f.events, "show") }

func (f *fakeHW) Tone(freq int, d time.Duration) {
	f.events = append(f.events, fmt.Sprintf("tone %d %s", freq, d))
}

func (f *fakeHW) Sleep(d time.Duration) {
	f.events = append(f.events, fmt.Sprintf("sleep %s", d))
}

func (f *fakeHW) reset() { f.events = nil }

func (f *fakeHW) count(event string) int {
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

func colorName(c Color) string {
	switch c {
	case Off:
		return "off"
	case Red:
		return "red"
	case Amber:
		return "amber"
	case Green:
		return "green"
	}
	return fmt.Sprintf("%d/%d/%d", c.R, c.G, c.B)
}

func testRegistry(t interface{ Fatalf(string, ...any) }) *Registry {
	reg, err := NewRegistry(DefaultLines(), DefaultOrder())
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

// samples builds a set for lines A, B, C with the given raw values.
func samples(target LineID, a, b, c int) SampleSet {
	return SampleSet{
		Target: target,
		Samples: []Sample{
			{Line: LineA, Raw: a},
			{Line: LineB, Raw: b},
			{Line: LineC, Raw: c},
		},
	}
}
