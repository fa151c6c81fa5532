package panel

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/fenceline/pkg/fence"
)

const (
	tilePadding = 8
	tileMinW    = 140
	tileMinH    = 110
)

type tileObjects struct {
	bg     *canvas.Rectangle
	title  *canvas.Text
	detail *canvas.Text
	status *canvas.Text
}

// panelRenderer draws one coloured tile per line, left to right by zone.
type panelRenderer struct {
	panel   *Panel
	bg      *canvas.Rectangle
	tiles   []tileObjects
	objects []fyne.CanvasObject
}

func newRenderer(p *Panel) *panelRenderer {
	r := &panelRenderer{
		panel: p,
		bg:    canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255}),
	}
	r.objects = append(r.objects, r.bg)
	for range p.Tiles() {
		to := tileObjects{
			bg:     canvas.NewRectangle(toRGBA(fence.Off)),
			title:  canvas.NewText("", color.White),
			detail: canvas.NewText("", color.White),
			status: canvas.NewText("", color.White),
		}
		to.bg.CornerRadius = 6
		to.title.TextStyle = fyne.TextStyle{Bold: true}
		to.title.TextSize = 18
		to.detail.TextSize = 14
		to.status.TextSize = 12
		r.tiles = append(r.tiles, to)
		r.objects = append(r.objects, to.bg, to.title, to.detail, to.status)
	}
	r.Refresh()
	return r
}

func (r *panelRenderer) MinSize() fyne.Size {
	n := float32(len(r.tiles))
	if n == 0 {
		n = 1
	}
	return fyne.NewSize(n*tileMinW+(n+1)*tilePadding, tileMinH+2*tilePadding)
}

func (r *panelRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	if len(r.tiles) == 0 {
		return
	}

	n := float32(len(r.tiles))
	w := (size.Width - (n+1)*tilePadding) / n
	h := size.Height - 2*tilePadding
	for i, to := range r.tiles {
		x := tilePadding + float32(i)*(w+tilePadding)
		to.bg.Move(fyne.NewPos(x, tilePadding))
		to.bg.Resize(fyne.NewSize(w, h))

		to.title.Move(fyne.NewPos(x+tilePadding, tilePadding*2))
		to.detail.Move(fyne.NewPos(x+tilePadding, tilePadding*2+h/3))
		to.status.Move(fyne.NewPos(x+tilePadding, tilePadding*2+2*h/3))
	}
}

func (r *panelRenderer) Refresh() {
	tiles := r.panel.Tiles()
	for i, to := range r.tiles {
		if i >= len(tiles) {
			break
		}
		t := tiles[i]
		to.bg.FillColor = toRGBA(t.Color)
		to.title.Text = t.Title()
		to.detail.Text = t.Detail()
		to.status.Text = t.Status()
		to.bg.Refresh()
		to.title.Refresh()
		to.detail.Refresh()
		to.status.Refresh()
	}
	r.Layout(r.panel.Size())
}

func (r *panelRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *panelRenderer) Destroy() {}
