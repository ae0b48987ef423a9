package mc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_AddAndAt(t *testing.T) {
	a := NewAccumulator(5, 3)
	a.Add(2, 1, 0.5)
	a.Add(2, 1, 0.25)
	a.Add(4, 0, 1)

	assert.Equal(t, 0.75, a.At(2, 1))
	assert.Equal(t, 1.0, a.At(4, 0))
	assert.Equal(t, 0.0, a.At(2, 0))
	assert.InDelta(t, 1.75, a.Total(), 1e-12)
}

func TestAccumulator_OutOfRangeGatesDropped(t *testing.T) {
	a := NewAccumulator(2, 2)
	a.Add(0, -1, 1)
	a.Add(0, 2, 1)
	a.Add(1, 100, 1)
	assert.Equal(t, 0.0, a.Total())
}

func TestAccumulator_Merge(t *testing.T) {
	a := NewAccumulator(3, 2)
	b := NewAccumulator(3, 2)
	a.Add(0, 0, 1)
	a.Add(2, 1, 2)
	b.Add(0, 0, 3)
	b.Add(1, 1, 4)

	a.Merge(b)
	assert.Equal(t, 4.0, a.At(0, 0))
	assert.Equal(t, 4.0, a.At(1, 1))
	assert.Equal(t, 2.0, a.At(2, 1))
	// the merge source is untouched
	assert.Equal(t, 3.0, b.At(0, 0))
}
