package mc

import "gonum.org/v1/gonum/floats"

// Accumulator is a time-gated deposition field: one row of MaxGate bins
// per spatial unit (node for linear basis, element for constant basis).
// Writes are additive only; each worker owns a private accumulator and the
// reducer merges them once after the worker's photon slice completes.
type Accumulator struct {
	Data    []float64
	Spatial int // node or element count
	Gates   int
}

// NewAccumulator allocates a zeroed spatial × gates field.
func NewAccumulator(spatial, gates int) *Accumulator {
	return &Accumulator{
		Data:    make([]float64, spatial*gates),
		Spatial: spatial,
		Gates:   gates,
	}
}

// Add deposits w into the (unit, gate) bin. Gate indices outside
// [0, Gates) are silently dropped per the time-gating contract.
func (a *Accumulator) Add(unit int32, gate int, w float64) {
	if gate < 0 || gate >= a.Gates {
		return
	}
	a.Data[int(unit)*a.Gates+gate] += w
}

// At returns the (unit, gate) bin value.
func (a *Accumulator) At(unit int32, gate int) float64 {
	return a.Data[int(unit)*a.Gates+gate]
}

// Merge adds other into a element-wise. The shapes must match.
func (a *Accumulator) Merge(other *Accumulator) {
	floats.Add(a.Data, other.Data)
}

// Total returns the sum of all bins.
func (a *Accumulator) Total() float64 {
	return floats.Sum(a.Data)
}
