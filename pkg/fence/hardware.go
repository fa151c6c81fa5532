package fence

import "time"

// Color is an indicator colour in 8-bit RGB.
type Color struct {
	R, G, B uint8
}

var (
	Off   = Color{}
	Red   = Color{R: 255}
	Amber = Color{R: 204, G: 102}
	Green = Color{G: 128}
)

// IO is the pin level view of the monitor board.
// Channel numbers are board addresses taken from the line configuration.
// All calls are assumed to succeed.
type IO interface {
	SetOutput(channel int, high bool)
	ReadDigital(channel int) bool
	ReadAnalog(channel int) int // 0..FullScale
}

// Indicators is the per-zone colour output (an LED strip on the real board).
// SetIndicator and Clear only stage colours; nothing is visible until Show.
type Indicators interface {
	SetIndicator(zone int, c Color)
	Clear()
	Show()
}

// Buzzer starts a tone of the given frequency and duration.
// Implementations may return before the tone has finished; callers that need
// the tone to complete hold for the duration themselves.
type Buzzer interface {
	Tone(freqHz int, d time.Duration)
}

// Hardware bundles everything the monitor drives.
type Hardware interface {
	IO
	Indicators
	Buzzer
}

// Sleeper blocks the caller for d.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SleepFunc adapts a function to Sleeper.
type SleepFunc func(d time.Duration)

// Sleep calls f(d).
func (f SleepFunc) Sleep(d time.Duration) { f(d) }

// RealSleeper blocks with time.Sleep.
var RealSleeper Sleeper = SleepFunc(time.Sleep)

// NoSleep returns immediately. Used by simulators that pace themselves.
var NoSleep Sleeper = SleepFunc(func(time.Duration) {})

// Composite assembles a Hardware out of separate parts, e.g. GPIO pins on one
// device and indicators rendered somewhere else.
type Composite struct {
	IO
	Indicators
	Buzzer
}

var _ Hardware = Composite{}
