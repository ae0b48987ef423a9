package mc

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Replay re-traces a previously recorded photon population from its stored
// launch seeds. Because every random draw of a photon is derived from its
// seed alone, each history reproduces the original trajectory bit for bit;
// the deposits are additionally scaled by the per-photon weights, which
// turns the accumulated field into a weighted functional (e.g. a Jacobian
// row set) of the detected population without re-simulating randomness.
//
// weights must have one entry per seed; both usually come from
// Result.Seeds on a forward run made with SaveSeed enabled.
func (e *Engine) Replay(seeds []Seed, weights []float32) (*Result, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("replay: empty seed list")
	}
	if len(weights) != len(seeds) {
		return nil, fmt.Errorf("replay: %d weights for %d seeds", len(weights), len(seeds))
	}
	logrus.Infof("replaying %d recorded photons", len(seeds))
	return e.run(int64(len(seeds)), seeds, weights)
}
