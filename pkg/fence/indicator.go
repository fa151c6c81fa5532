package fence

// Band classifies an estimated line resistance.
type Band int

const (
	Normal   Band = iota // < 3 Ω
	Marginal             // [3, 5) Ω
	Fault                // >= 5 Ω
)

const (
	MarginalFrom float32 = 3
	FaultFrom    float32 = 5
)

func (b Band) String() string {
	switch b {
	case Normal:
		return "normal"
	case Marginal:
		return "marginal"
	case Fault:
		return "fault"
	}
	return "unknown"
}

// Color returns the indicator colour of the band.
func (b Band) Color() Color {
	switch b {
	case Normal:
		return Green
	case Marginal:
		return Amber
	}
	return Red
}

// Classify bands a resistance. Every value, NaN included, lands in exactly
// one band.
func Classify(resistance float32) Band {
	switch {
	case resistance < MarginalFrom:
		return Normal
	case resistance < FaultFrom:
		return Marginal
	}
	return Fault
}

// Mapper paints each line's zone with the colour of its resistance band.
type Mapper struct {
	ind Indicators
}

// NewMapper creates a mapper writing to ind.
func NewMapper(ind Indicators) *Mapper {
	return &Mapper{ind: ind}
}

// Refresh writes one colour per line, then shows them all at once.
func (m *Mapper) Refresh(lines []*Line) {
	for _, l := range lines {
		m.ind.SetIndicator(l.Zone, Classify(l.LastResistance).Color())
	}
	m.ind.Show()
}
