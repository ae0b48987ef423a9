package mc

import (
	"math"

	"github.com/sirupsen/logrus"
)

// rc0 is the reciprocal of the speed of light in vacuum, in s/mm.
const rc0 = 3.3356409519815204e-12

// TermReason records why a photon history ended.
type TermReason int

const (
	TermAbsorbed TermReason = iota // weight driven to ~0 by roulette
	TermExited                     // crossed a boundary face and transmitted out
	TermTimedOut                   // elapsed time exceeded the last time gate
	TermTraceFail                  // tracer retry budget exhausted
)

// onePhoton runs a single photon history to completion. It never returns
// an error: per-photon anomalies are tallied, not propagated.
func (w *worker) onePhoton(id int64) {
	if w.replaySeeds != nil {
		w.rs.Restore(w.replaySeeds[id])
	} else {
		// reseed per photon so a photon's path does not depend on which
		// worker runs it
		w.rs.Reseed(w.cfg.Seed, uint64(id))
	}
	launchSeed := w.rs.State()

	pos, dir, weight := w.src.Launch(w.rs)
	eid := w.mesh.Locate(pos, w.src.InitElem)
	if eid < 0 {
		logrus.Debugf("photon %d: launch point %v outside mesh", id, pos)
		w.nTraceFail++
		return
	}
	w.launched += float64(weight)

	for i := range w.pathlen {
		w.pathlen[i] = 0
	}
	for i := range w.mom {
		w.mom[i] = 0
	}

	slen := w.rs.NextScatterLength()
	var t float32
	entered := w.mesh.Tags[eid] > 0

	for {
		tag := w.mesh.Tags[eid]
		med := w.media[tag]

		ex, ok := w.tracer.TraceToExit(eid, pos, dir)
		w.raytet++
		if !ok {
			w.nTraceFail++
			w.residual += float64(weight)
			return
		}

		if tag > 0 {
			// interior scattering events before the face is reached
			for {
				dScat := float32(math.MaxFloat32)
				if med.Mus > 0 {
					dScat = slen / med.Mus
				}
				if dScat >= ex.Dist {
					break
				}
				if !w.advance(&pos, dir, dScat, &weight, &t, eid, med, tag) {
					w.nTimedOut++
					w.residual += float64(weight)
					return
				}
				var ct float32
				dir, ct = hgScatter(dir, med.G, w.rs)
				if w.cfg.Momentum {
					w.mom[tag-1] += 1 - ct
				}
				slen = w.rs.NextScatterLength()
				if !w.roulette(&weight) {
					w.nAbsorbed++
					return
				}
				ex, ok = w.tracer.TraceToExit(eid, pos, dir)
				w.raytet++
				if !ok {
					w.nTraceFail++
					w.residual += float64(weight)
					return
				}
			}
			if !w.advance(&pos, dir, ex.Dist, &weight, &t, eid, med, tag) {
				w.nTimedOut++
				w.residual += float64(weight)
				return
			}
			slen -= ex.Dist * med.Mus
			if slen < 0 {
				slen = 0
			}
		} else {
			// background void: no interaction, clock policy-dependent
			if w.cfg.VoidTime {
				t += ex.Dist * w.tscale * med.N
			}
			if t > w.cfg.TEnd {
				w.nTimedOut++
				w.residual += float64(weight)
				return
			}
		}
		pos = ex.Point

		// face crossing
		nb := w.mesh.FaceNb[eid][ex.Face]
		n1 := med.N
		n2 := w.cfg.Nout
		if nb != boundary {
			n2 = w.media[w.mesh.Tags[nb]].N
		}

		if w.cfg.Reflect && n1 != n2 {
			norm := w.tracer.FaceNormal(eid, int(ex.Face))
			ci := dir.Dot(norm)
			if ci < 0 {
				ci = -ci
			}
			if ci > 1 {
				ci = 1
			}
			r := fresnel(n1, n2, ci)
			switch {
			case !entered && !w.cfg.Specular && nb != boundary && w.mesh.Tags[nb] > 0:
				// deterministic first entry: deduct the specular loss
				// instead of sampling it; the reflected share leaves the
				// mesh and is tallied as exited weight
				w.exited += float64(r * weight)
				weight *= 1 - r
				dir = refractDir(dir, norm, n1/n2, ci)
			case w.rs.NextReflect() < r:
				// specular bounce, mirrored about the face normal; the
				// photon stays in the current element
				dir = dir.Sub(norm.Scale(2 * dir.Dot(norm))).Normalize()
				continue
			default:
				dir = refractDir(dir, norm, n1/n2, ci)
			}
		}

		if nb == boundary {
			if w.cfg.SaveDet {
				if di := capture(w.dets, pos); di >= 0 {
					w.record(id, di, weight, pos, dir, launchSeed)
				}
			}
			w.exited += float64(weight)
			w.nExited++
			return
		}
		if w.mesh.Tags[nb] > 0 {
			entered = true
		}
		eid = nb

		if !w.roulette(&weight) {
			w.nAbsorbed++
			return
		}
	}
}

// advance moves the photon dist along dir through medium med, depositing
// the absorbed fraction of its weight at the segment midpoint's time gate.
// Returns false when the photon's time of flight passes the last gate.
func (w *worker) advance(pos *Vec3, dir Vec3, dist float32, weight *float32, t *float32, eid int32, med Medium, tag int32) bool {
	dt := dist * w.tscale * med.N
	if med.Mua > 0 {
		dw := *weight * (1 - float32(math.Exp(float64(-med.Mua*dist))))
		mid := pos.Add(dir.Scale(dist * 0.5))
		w.deposit(eid, mid, *t+0.5*dt, float64(dw)*w.depositScale)
		*weight -= dw
		w.absorbed += float64(dw)
	}
	*t += dt
	w.pathlen[tag-1] += dist
	*pos = pos.Add(dir.Scale(dist))
	return *t <= w.cfg.TEnd
}

// deposit adds dw into the time-gated accumulator, split barycentrically
// over the element's nodes for the linear basis.
func (w *worker) deposit(eid int32, p Vec3, t float32, dw float64) {
	gate := int((t - w.cfg.TStart) / w.cfg.TStep)
	if t < w.cfg.TStart {
		gate = -1
	} else if gate >= w.cfg.MaxGate {
		gate = w.cfg.MaxGate - 1
	}
	if w.cfg.BasisOrder == 0 {
		w.accum.Add(eid, gate, dw)
		return
	}
	bc := w.mesh.Bary(eid, p)
	el := w.mesh.Elems[eid]
	for i := 0; i < 4; i++ {
		w.accum.Add(el[i], gate, dw*float64(bc[i]))
	}
}

// roulette applies the Russian roulette variance reduction once the weight
// falls below the configured threshold. Survivors get their weight boosted
// by the roulette factor so the expected weight is unchanged. Returns
// false when the photon is terminated.
func (w *worker) roulette(weight *float32) bool {
	if *weight >= w.cfg.MinEnergy {
		return true
	}
	if w.rs.NextRoulette() < 1/w.cfg.RouletteSize {
		*weight *= w.cfg.RouletteSize
		return true
	}
	return false
}

// record appends a partial-path record for a detected photon.
func (w *worker) record(id int64, det int, weight float32, pos, dir Vec3, seed Seed) {
	rec := DetRecord{
		PhotonID:    id,
		Detector:    det,
		Weight:      weight,
		PartialPath: append([]float32(nil), w.pathlen...),
	}
	if w.cfg.Momentum {
		rec.Momentum = append([]float32(nil), w.mom...)
	}
	if w.cfg.SaveExit {
		rec.ExitPos = pos
		rec.ExitDir = dir
	}
	if w.cfg.SaveSeed {
		rec.Seed = seed
	}
	w.det.append(rec)
}

// hgScatter samples a new direction from the Henyey-Greenstein phase
// function with anisotropy g, returning the direction and the zenith
// cosine of the deflection.
func hgScatter(d Vec3, g float32, rs *Stream) (Vec3, float32) {
	u := rs.NextZenith()
	var ct float32
	if g != 0 {
		tmp := (1 - g*g) / (1 - g + 2*g*u)
		ct = (1 + g*g - tmp*tmp) / (2 * g)
		if ct > 1 {
			ct = 1
		} else if ct < -1 {
			ct = -1
		}
	} else {
		ct = 2*u - 1
	}
	phi := 2 * math.Pi * float64(rs.NextAzimuth())
	return rotateDir(d, ct, float32(phi)), ct
}

// fresnel returns the unpolarized Fresnel reflectance for light crossing
// from index n1 to n2 at incidence cosine ci; 1 beyond the critical angle.
func fresnel(n1, n2, ci float32) float32 {
	eta := n1 / n2
	st2 := eta * eta * (1 - ci*ci)
	if st2 >= 1 {
		return 1 // total internal reflection
	}
	ct := float32(math.Sqrt(float64(1 - st2)))
	rs := (n1*ci - n2*ct) / (n1*ci + n2*ct)
	rp := (n1*ct - n2*ci) / (n1*ct + n2*ci)
	return 0.5 * (rs*rs + rp*rp)
}

// refractDir bends an exiting direction across the interface with outward
// normal norm (dir·norm > 0) and relative index eta = n1/n2. Callers reach
// this only below the critical angle; the guard falls back to reflection.
func refractDir(dir, norm Vec3, eta, ci float32) Vec3 {
	st2 := eta * eta * (1 - ci*ci)
	if st2 >= 1 {
		return dir.Sub(norm.Scale(2 * dir.Dot(norm))).Normalize()
	}
	ct := float32(math.Sqrt(float64(1 - st2)))
	return dir.Scale(eta).Sub(norm.Scale(eta*ci - ct)).Normalize()
}
