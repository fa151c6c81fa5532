//go:build tinygo

package main

import "machine"

const (
	// Serial configuration. One line cycle prints roughly 350 bytes of
	// human-readable block plus the data line; at 57600 baud that is ~60 ms,
	// well inside the settle delays of a cycle.
	UART_BAUD_RATE = 57600

	// Indicator strip
	NUM_LEDS   = 3
	BRIGHTNESS = 50 // of 255

	// ADC: 10-bit readings (0-1023), as the estimator expects
	ADC_SHIFT = 16 - 10
)

var (
	PIN_LEDS   = machine.D6
	PIN_BUZZER = machine.D7

	// Digital channel n is pin Dn.
	digitalPins = [...]machine.Pin{
		machine.D0, machine.D1, machine.D2, machine.D3, machine.D4,
		machine.D5, machine.D6, machine.D7, machine.D8, machine.D9,
		machine.D10, machine.D11, machine.D12, machine.D13,
	}

	// Analog channel n is pin An.
	analogPins = [...]machine.Pin{
		machine.ADC0, machine.ADC1, machine.ADC2,
		machine.ADC3, machine.ADC4, machine.ADC5,
	}
)
