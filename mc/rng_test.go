package mc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat"
)

func TestStream_DeterministicDerivation(t *testing.T) {
	tests := []struct {
		name  string
		seed  uint64
		index uint64
	}{
		{"zero seed", 0, 0},
		{"default seed", 0x623F9A9E, 0},
		{"high index", 42, 1 << 40},
		{"max seed", math.MaxUint64, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewStream(tt.seed, tt.index)
			b := NewStream(tt.seed, tt.index)
			for i := 0; i < 100; i++ {
				assert.Equal(t, a.Uniform01(), b.Uniform01(), "draw %d diverged", i)
			}
		})
	}
}

func TestStream_IndexIsolation(t *testing.T) {
	// Streams with different indices must not share a sequence.
	a := NewStream(42, 0)
	b := NewStream(42, 1)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Uniform01() == b.Uniform01() {
			same++
		}
	}
	assert.Less(t, same, 5, "neighboring streams look correlated")
}

func TestStream_Uniform01Range(t *testing.T) {
	rs := NewStream(7, 3)
	for i := 0; i < 10000; i++ {
		u := rs.Uniform01()
		assert.GreaterOrEqual(t, u, float32(0))
		assert.Less(t, u, float32(1))
	}
}

func TestStream_ScatterLengthMean(t *testing.T) {
	// -ln(u) is exponential with mean 1
	rs := NewStream(1234, 0)
	n := 200000
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(rs.NextScatterLength())
	}
	assert.InDelta(t, 1.0, stat.Mean(xs, nil), 0.01)
}

func TestStream_ScatterLengthFinite(t *testing.T) {
	rs := NewStream(5, 5)
	for i := 0; i < 100000; i++ {
		s := rs.NextScatterLength()
		assert.False(t, math.IsInf(float64(s), 0))
		assert.LessOrEqual(t, s, float32(logRNGMax))
		assert.GreaterOrEqual(t, s, float32(0))
	}
}

func TestStream_StateRoundTrip(t *testing.T) {
	rs := NewStream(99, 2)
	for i := 0; i < 37; i++ {
		rs.Uniform01()
	}
	seed := rs.State()
	want := []float32{rs.Uniform01(), rs.NextScatterLength(), rs.NextAzimuth()}

	rs.Restore(seed)
	got := []float32{rs.Uniform01(), rs.NextScatterLength(), rs.NextAzimuth()}
	assert.Equal(t, want, got)
}

func TestStream_ReseedMatchesNewStream(t *testing.T) {
	rs := NewStream(11, 0)
	rs.Uniform01()
	rs.Reseed(11, 42)

	fresh := NewStream(11, 42)
	for i := 0; i < 10; i++ {
		assert.Equal(t, fresh.Uniform01(), rs.Uniform01())
	}
}
