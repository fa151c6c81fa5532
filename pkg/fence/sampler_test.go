package fence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplePass_ReadsAllLines(t *testing.T) {
	hw := newFakeHW()
	reg := testRegistry(t)
	hw.analog[0] = 700 // A
	hw.analog[2] = 12  // B
	hw.analog[4] = 150 // C
	hw.digital[2] = true

	s := NewSampler(reg, hw, hw, 0)
	set := s.SamplePass(LineA)

	assert.Equal(t, LineA, set.Target)
	require.Len(t, set.Samples, 3)
	assert.Equal(t, Sample{Line: LineA, Digital: true, Raw: 700}, set.Samples[0])
	assert.Equal(t, Sample{Line: LineB, Digital: false, Raw: 12}, set.Samples[1])
	assert.Equal(t, Sample{Line: LineC, Digital: false, Raw: 150}, set.Samples[2])

	c, ok := set.Get(LineC)
	require.True(t, ok)
	assert.Equal(t, 150, c.Raw)
	_, ok = set.Get('Z')
	assert.False(t, ok)
}

func TestSamplePass_ExcitationAndSettling(t *testing.T) {
	hw := newFakeHW()
	reg := testRegistry(t)

	s := NewSampler(reg, hw, hw, 0)
	s.SamplePass(LineB)

	assert.Equal(t, []string{
		"out 3 true",
		"sleep 50ms",
		"out 3 false",
		"sleep 50ms",
	}, hw.events)
	assert.Equal(t, 0, hw.readsWhileLow, "readings must only be taken while the target is excited")
}

func TestSamplePass_CustomSettle(t *testing.T) {
	hw := newFakeHW()
	s := NewSampler(testRegistry(t), hw, hw, 10*time.Millisecond)
	s.SamplePass(LineC)
	assert.Equal(t, 2, hw.count("sleep 10ms"))
}

func TestSamplePass_NeverTwoLinesExcited(t *testing.T) {
	hw := newFakeHW()
	reg := testRegistry(t)
	s := NewSampler(reg, hw, hw, 0)

	for _, id := range reg.Order() {
		s.SamplePass(id)
	}
	assert.Equal(t, 1, hw.maxHigh)
	assert.Empty(t, hw.high)
}

func TestSamplePass_ClampsOutOfRangeReadings(t *testing.T) {
	hw := newFakeHW()
	hw.analog[0] = 4000
	hw.analog[2] = -3
	s := NewSampler(testRegistry(t), hw, hw, 0)

	set := s.SamplePass(LineA)
	assert.Equal(t, FullScale, set.Samples[0].Raw)
	assert.Equal(t, 0, set.Samples[1].Raw)
}
