package fence

import "github.com/chewxy/math32"

const (
	// FullScale is the largest code of the 10-bit converter.
	FullScale = 1023

	// OpenCircuit is reported instead of a resistance when the sense voltage
	// is zero or the estimate would exceed it. It bands as a fault and still
	// fits the two-decimal telemetry field.
	OpenCircuit float32 = 9999.99

	// DefaultBaseResistance is the fixed resistor of the sense divider (Ω).
	DefaultBaseResistance float32 = 22
)

// Reading is the result of estimating one raw sample.
type Reading struct {
	Vout       float32 // V
	Resistance float32 // Ω
	Open       bool    // Resistance is the OpenCircuit sentinel
}

// Estimate converts a raw sample of line into the divider output voltage and
// the loop resistance:
//
//	vout = raw * Vref / 1023
//	R    = base * (Vref / vout - 1) + offset
//
// A zero (or otherwise degenerate) voltage yields OpenCircuit, and so does an
// estimate at or above it.
func Estimate(line *Line, baseResistance float32, raw int) Reading {
	vref := line.ReferenceVoltage
	vout := float32(raw) * vref / float32(FullScale)
	if !(vout > 0) || math32.IsInf(vout, 0) {
		return Reading{Vout: 0, Resistance: OpenCircuit, Open: true}
	}

	r := baseResistance*(vref/vout-1.0) + line.CalibrationOffset
	if math32.IsNaN(r) || r >= OpenCircuit {
		return Reading{Vout: vout, Resistance: OpenCircuit, Open: true}
	}
	return Reading{Vout: vout, Resistance: r}
}
