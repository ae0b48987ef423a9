package mc

import "fmt"

// Medium holds the optical properties of one mesh region.
type Medium struct {
	Mua float32 // absorption coefficient (1/mm)
	Mus float32 // scattering coefficient (1/mm)
	G   float32 // scattering anisotropy, in [-1, 1]
	N   float32 // refractive index
}

// ValidateMedia checks the medium table against the mesh's tags. Entry 0
// is the background/void medium; every non-void element tag must index an
// entry. Negative tags are external-detector sentinels: they are remapped
// in place to a cloned background entry appended after the last medium, so
// the transport loop only ever sees tags in [0, len(media)).
func ValidateMedia(m *Mesh, media []Medium) ([]Medium, error) {
	if len(media) == 0 {
		return nil, fmt.Errorf("medium: empty property table")
	}
	hasExt := false
	for _, tag := range m.Tags {
		if tag < 0 {
			hasExt = true
			continue
		}
		if int(tag) >= len(media) {
			return nil, fmt.Errorf("medium: element tag %d has no property entry (table size %d)", tag, len(media))
		}
	}
	for i, med := range media {
		if med.Mua < 0 || med.Mus < 0 || med.N <= 0 || med.G < -1 || med.G > 1 {
			return nil, fmt.Errorf("medium %d: invalid properties %+v", i, med)
		}
	}
	if hasExt {
		ext := int32(len(media))
		media = append(append([]Medium{}, media...), media[0])
		for i, tag := range m.Tags {
			if tag < 0 {
				m.Tags[i] = ext
			}
		}
	}
	return media, nil
}
