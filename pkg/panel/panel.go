// Package panel is a fyne widget that shows one tile per fence line: the
// indicator colour of its zone, the latest resistance and raw reading, and
// whether the line took part in a short.
package panel

import (
	"image/color"
	"sort"
	"strconv"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/fenceline/pkg/fence"
)

// Tile is the displayed state of one line.
type Tile struct {
	Line       fence.LineID
	Zone       int
	Color      fence.Color
	Loop       uint32
	Raw        int
	Resistance float32
	Short      int
	Seen       bool
}

// Title returns the tile heading.
func (t Tile) Title() string {
	return "Line " + t.Line.String()
}

// Detail returns the resistance and raw reading line.
func (t Tile) Detail() string {
	if !t.Seen {
		return "waiting..."
	}
	if t.Resistance >= fence.OpenCircuit {
		return "open  raw " + strconv.Itoa(t.Raw)
	}
	return strconv.FormatFloat(float64(t.Resistance), 'f', 2, 32) + " Ω  raw " + strconv.Itoa(t.Raw)
}

// Status returns the band or short description.
func (t Tile) Status() string {
	switch {
	case !t.Seen:
		return ""
	case t.Short > 0:
		return "SHORT x" + strconv.Itoa(t.Short)
	}
	return fence.Classify(t.Resistance).String()
}

// Panel shows the fence state. It implements fence.Indicators so a locally
// running monitor can drive the tile colours directly; otherwise Update
// colours the tiles from the record's resistance band.
type Panel struct {
	widget.BaseWidget

	mu       sync.RWMutex
	tiles    []Tile
	byLine   map[fence.LineID]int
	staged   map[int]fence.Color
	external bool // colours come from SetIndicator/Show
}

var _ fence.Indicators = (*Panel)(nil)

// New creates a panel with a tile per line, ordered by zone.
func New(lines []*fence.Line) *Panel {
	p := &Panel{
		byLine: make(map[fence.LineID]int, len(lines)),
		staged: make(map[int]fence.Color),
	}
	for _, l := range lines {
		p.tiles = append(p.tiles, Tile{Line: l.ID, Zone: l.Zone, Color: fence.Off})
	}
	sort.SliceStable(p.tiles, func(i, j int) bool { return p.tiles[i].Zone < p.tiles[j].Zone })
	for i, t := range p.tiles {
		p.byLine[t.Line] = i
	}
	p.ExtendBaseWidget(p)
	return p
}

// Tiles returns a snapshot of the tiles.
func (p *Panel) Tiles() []Tile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Tile, len(p.tiles))
	copy(out, p.tiles)
	return out
}

// Update shows rec on its line's tile. It may be called from any goroutine.
func (p *Panel) Update(rec fence.Record) {
	p.mu.Lock()
	i, ok := p.byLine[rec.Line]
	if !ok {
		p.mu.Unlock()
		return
	}
	t := &p.tiles[i]
	t.Seen = true
	t.Loop = rec.Loop
	t.Resistance = rec.Resistance
	t.Short = rec.Short
	if s, ok := rec.Sample(rec.Line); ok {
		t.Raw = s.Raw
	}
	if !p.external {
		t.Color = fence.Classify(rec.Resistance).Color()
		if rec.Short > 0 {
			t.Color = fence.Red
		}
	}
	p.mu.Unlock()

	p.refresh()
}

// SetIndicator stages a zone colour. From then on tile colours only change
// on Show.
func (p *Panel) SetIndicator(zone int, c fence.Color) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.external = true
	p.staged[zone] = c
}

// Clear stages every zone off.
func (p *Panel) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.external = true
	for _, t := range p.tiles {
		p.staged[t.Zone] = fence.Off
	}
}

// Show makes the staged colours visible.
func (p *Panel) Show() {
	p.mu.Lock()
	for i := range p.tiles {
		if c, ok := p.staged[p.tiles[i].Zone]; ok {
			p.tiles[i].Color = c
		}
	}
	p.mu.Unlock()

	p.refresh()
}

func (p *Panel) refresh() {
	fyne.Do(p.Refresh)
}

// CreateRenderer creates the widget renderer.
func (p *Panel) CreateRenderer() fyne.WidgetRenderer {
	return newRenderer(p)
}

func toRGBA(c fence.Color) color.RGBA {
	if c == fence.Off {
		return color.RGBA{R: 40, G: 40, B: 40, A: 255}
	}
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}
