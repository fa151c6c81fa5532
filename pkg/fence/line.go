package fence

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrNoLines       = errors.New("no lines configured")
	ErrDuplicateLine = errors.New("duplicate line")
	ErrUnknownLine   = errors.New("unknown line")
	ErrMissingLine   = errors.New("line missing from order")
)

// LineID identifies a fence conductor by its letter.
type LineID byte

const (
	LineA LineID = 'A'
	LineB LineID = 'B'
	LineC LineID = 'C'
)

func (id LineID) String() string { return string(rune(id)) }

// ParseLineID parses a single upper-case letter.
func ParseLineID(s string) (LineID, error) {
	if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLine, s)
	}
	return LineID(s[0]), nil
}

// Line is one conductor under test: its fixed wiring and calibration plus
// the live results of the latest sampling pass.
type Line struct {
	ID LineID

	Excitation   int // output channel driven high while the line is excited
	SenseDigital int
	SenseAnalog  int
	Zone         int // indicator zone

	CalibrationOffset float32 // added to the estimated resistance (Ω)
	ReferenceVoltage  float32 // supply voltage of the sense divider (V)

	LastRaw        int
	LastDigital    bool
	LastVout       float32
	LastResistance float32
}

// DefaultLines returns the wiring and calibration of the reference board.
func DefaultLines() []Line {
	return []Line{
		{ID: LineA, Excitation: 2, SenseDigital: 2, SenseAnalog: 0, Zone: 0, CalibrationOffset: -14.5, ReferenceVoltage: 4.13},
		{ID: LineB, Excitation: 3, SenseDigital: 3, SenseAnalog: 2, Zone: 1, CalibrationOffset: -17.6, ReferenceVoltage: 4.0},
		{ID: LineC, Excitation: 4, SenseDigital: 4, SenseAnalog: 4, Zone: 2, CalibrationOffset: -14.0, ReferenceVoltage: 4.1},
	}
}

// DefaultOrder is the excitation order of the reference firmware.
func DefaultOrder() []LineID {
	return []LineID{LineC, LineB, LineA}
}

// Registry holds the fixed set of lines. Lines are never added or removed
// after construction; only their Last* fields change.
type Registry struct {
	lines []*Line // sorted by ID
	order []LineID
	index map[LineID]*Line
}

// NewRegistry copies lines into a registry. order fixes the excitation
// sequence and must name every line exactly once; an empty order excites
// lines in ID order.
func NewRegistry(lines []Line, order []LineID) (*Registry, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	r := &Registry{
		lines: make([]*Line, 0, len(lines)),
		index: make(map[LineID]*Line, len(lines)),
	}
	for i := range lines {
		l := lines[i]
		if _, ok := r.index[l.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLine, l.ID)
		}
		r.lines = append(r.lines, &l)
		r.index[l.ID] = &l
	}
	sort.Slice(r.lines, func(i, j int) bool { return r.lines[i].ID < r.lines[j].ID })

	if len(order) == 0 {
		for _, l := range r.lines {
			r.order = append(r.order, l.ID)
		}
		return r, nil
	}

	seen := make(map[LineID]bool, len(order))
	for _, id := range order {
		if _, ok := r.index[id]; !ok {
			return nil, fmt.Errorf("%w in order: %s", ErrUnknownLine, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w in order: %s", ErrDuplicateLine, id)
		}
		seen[id] = true
	}
	for _, l := range r.lines {
		if !seen[l.ID] {
			return nil, fmt.Errorf("%w: %s", ErrMissingLine, l.ID)
		}
	}
	r.order = append([]LineID(nil), order...)
	return r, nil
}

// Line returns the line with the given id, or nil.
func (r *Registry) Line(id LineID) *Line {
	return r.index[id]
}

// Lines returns all lines ordered by ID.
func (r *Registry) Lines() []*Line {
	return r.lines
}

// Order returns the excitation sequence.
func (r *Registry) Order() []LineID {
	return r.order
}

// Len returns the number of lines.
func (r *Registry) Len() int {
	return len(r.lines)
}

// store copies a sampling pass into the lines' live fields.
func (r *Registry) store(set SampleSet) {
	for _, s := range set.Samples {
		if l := r.index[s.Line]; l != nil {
			l.LastRaw = s.Raw
			l.LastDigital = s.Digital
		}
	}
}
