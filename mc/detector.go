package mc

// detPhotonBuf caps each worker's detection buffer. Overflow stops further
// recording for that worker; a soft limit, counted in the run statistics.
const detPhotonBuf = 4096

// Detector is a capture sphere: photons exiting the mesh within Radius of
// Pos are recorded.
type Detector struct {
	Pos    Vec3
	Radius float32
}

// DetRecord is one detected photon's partial-path record.
type DetRecord struct {
	PhotonID int64
	Detector int     // index into the detector list
	Weight   float32 // exit weight

	PartialPath []float32 // per-medium accumulated path length (index = tag-1)
	Momentum    []float32 // per-medium momentum transfer Σ(1-cosθ); nil unless enabled

	ExitPos Vec3 // valid when save-exit is enabled
	ExitDir Vec3

	Seed Seed // launch stream state; valid when save-seed is enabled
}

// detBuffer is a worker-private, capacity-capped detection buffer.
type detBuffer struct {
	recs    []DetRecord
	dropped int64
	limit   int
}

func newDetBuffer() *detBuffer {
	return &detBuffer{limit: detPhotonBuf}
}

func (b *detBuffer) append(rec DetRecord) {
	if len(b.recs) >= b.limit {
		b.dropped++
		return
	}
	b.recs = append(b.recs, rec)
}

// capture returns the index of the first detector whose sphere contains p,
// or -1 when none does.
func capture(dets []Detector, p Vec3) int {
	for i, d := range dets {
		if p.DistTo(d.Pos) <= d.Radius {
			return i
		}
	}
	return -1
}
