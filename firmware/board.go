//go:build tinygo

package main

import (
	"image/color"
	"machine"
	"time"

	"tinygo.org/x/drivers/ws2812"

	"github.com/itohio/fenceline/pkg/fence"
)

// board implements fence.Hardware and fence.Sleeper on the Arduino Nano.
type board struct {
	adcs   [len(analogPins)]machine.ADC
	strip  ws2812.Device
	staged [NUM_LEDS]color.RGBA

	// active tone, played by Sleep
	toneHalf  time.Duration
	toneUntil time.Time
	toneLevel bool
}

var (
	_ fence.Hardware = (*board)(nil)
	_ fence.Sleeper  = (*board)(nil)
)

func newBoard(lines []*fence.Line) *board {
	b := &board{}

	machine.InitADC()
	for i, p := range analogPins {
		b.adcs[i] = machine.ADC{Pin: p}
		b.adcs[i].Configure(machine.ADCConfig{})
	}

	// Excitation pins double as digital sense inputs; an output pin reads
	// back its own level.
	for _, l := range lines {
		digitalPins[l.Excitation].Configure(machine.PinConfig{Mode: machine.PinOutput})
		digitalPins[l.Excitation].Low()
		if l.SenseDigital != l.Excitation {
			digitalPins[l.SenseDigital].Configure(machine.PinConfig{Mode: machine.PinInput})
		}
	}

	PIN_BUZZER.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_BUZZER.Low()

	PIN_LEDS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.strip = ws2812.New(PIN_LEDS)
	return b
}

func (b *board) SetOutput(channel int, high bool) {
	if channel < 0 || channel >= len(digitalPins) {
		return
	}
	digitalPins[channel].Set(high)
}

func (b *board) ReadDigital(channel int) bool {
	if channel < 0 || channel >= len(digitalPins) {
		return false
	}
	return digitalPins[channel].Get()
}

func (b *board) ReadAnalog(channel int) int {
	if channel < 0 || channel >= len(b.adcs) {
		return 0
	}
	return int(b.adcs[channel].Get() >> ADC_SHIFT)
}

func (b *board) SetIndicator(zone int, c fence.Color) {
	if zone < 0 || zone >= NUM_LEDS {
		return
	}
	b.staged[zone] = color.RGBA{
		R: scale(c.R),
		G: scale(c.G),
		B: scale(c.B),
		A: 255,
	}
}

func (b *board) Clear() {
	for i := range b.staged {
		b.staged[i] = color.RGBA{}
	}
}

func (b *board) Show() {
	b.strip.WriteColors(b.staged[:])
}

func scale(v uint8) uint8 {
	return uint8(uint16(v) * BRIGHTNESS / 255)
}

// Tone starts a square wave on the buzzer. The wave is generated while the
// monitor sleeps, so Tone itself returns immediately.
func (b *board) Tone(freqHz int, d time.Duration) {
	if freqHz <= 0 {
		return
	}
	b.toneHalf = time.Second / time.Duration(2*freqHz)
	b.toneUntil = time.Now().Add(d)
}

// Sleep waits for d, toggling the buzzer while a tone is active.
func (b *board) Sleep(d time.Duration) {
	end := time.Now().Add(d)
	for {
		now := time.Now()
		if !now.Before(end) {
			break
		}
		if now.Before(b.toneUntil) {
			b.toneLevel = !b.toneLevel
			PIN_BUZZER.Set(b.toneLevel)
			time.Sleep(b.toneHalf)
			continue
		}
		if b.toneLevel {
			b.toneLevel = false
			PIN_BUZZER.Low()
		}
		time.Sleep(end.Sub(now))
	}
	if b.toneLevel && !time.Now().Before(b.toneUntil) {
		b.toneLevel = false
		PIN_BUZZER.Low()
	}
}
