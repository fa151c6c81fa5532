package fence

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		r    float32
		want Band
	}{
		{r: -14.5, want: Normal},
		{r: 0, want: Normal},
		{r: 2.99, want: Normal},
		{r: 3.0, want: Marginal},
		{r: 4.99, want: Marginal},
		{r: 5.0, want: Fault},
		{r: 120, want: Fault},
		{r: OpenCircuit, want: Fault},
		{r: math32.Inf(1), want: Fault},
		{r: math32.Inf(-1), want: Normal},
		{r: math32.NaN(), want: Fault},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.r), "Classify(%v)", tt.r)
	}
}

func TestBand_Color(t *testing.T) {
	assert.Equal(t, Green, Normal.Color())
	assert.Equal(t, Color{R: 204, G: 102, B: 0}, Marginal.Color())
	assert.Equal(t, Red, Fault.Color())
	assert.Equal(t, "marginal", Marginal.String())
}

func TestMapper_Refresh(t *testing.T) {
	hw := newFakeHW()
	reg := testRegistry(t)
	reg.Line(LineA).LastResistance = 1
	reg.Line(LineB).LastResistance = 3
	reg.Line(LineC).LastResistance = 7

	m := NewMapper(hw)
	m.Refresh(reg.Lines())

	assert.Equal(t, []string{"set 0 green", "set 1 amber", "set 2 red", "show"}, hw.events)
}

func TestMapper_RefreshIsIdempotent(t *testing.T) {
	hw := newFakeHW()
	reg := testRegistry(t)
	reg.Line(LineB).LastResistance = 4

	m := NewMapper(hw)
	m.Refresh(reg.Lines())
	first := append([]string(nil), hw.events...)
	hw.reset()
	m.Refresh(reg.Lines())

	assert.Equal(t, first, hw.events)
}
