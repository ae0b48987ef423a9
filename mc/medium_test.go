package mc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMedia(t *testing.T) {
	media := []Medium{{N: 1}, {Mua: 0.01, Mus: 1, G: 0.9, N: 1.37}}

	t.Run("valid table passes through", func(t *testing.T) {
		m := singleTetMesh(t)
		out, err := ValidateMedia(m, media)
		require.NoError(t, err)
		assert.Equal(t, media, out)
	})
	t.Run("empty table", func(t *testing.T) {
		m := singleTetMesh(t)
		_, err := ValidateMedia(m, nil)
		assert.Error(t, err)
	})
	t.Run("tag without entry", func(t *testing.T) {
		m := singleTetMesh(t)
		m.Tags[0] = 7
		_, err := ValidateMedia(m, media)
		assert.Error(t, err)
	})
	t.Run("invalid properties", func(t *testing.T) {
		m := singleTetMesh(t)
		bad := []Medium{{N: 1}, {Mua: -1, N: 1}}
		_, err := ValidateMedia(m, bad)
		assert.Error(t, err)

		bad = []Medium{{N: 1}, {G: 1.5, N: 1}}
		_, err = ValidateMedia(m, bad)
		assert.Error(t, err)

		bad = []Medium{{N: 0}}
		_, err = ValidateMedia(m, bad)
		assert.Error(t, err)
	})
}

func TestValidateMedia_NegativeTagsRemapped(t *testing.T) {
	nodes := []Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 1},
	}
	m, err := NewMesh(nodes, [][4]int32{{0, 1, 2, 3}, {1, 2, 3, 4}}, []int32{1, -2})
	require.NoError(t, err)

	media := []Medium{{N: 1}, {Mua: 0.01, Mus: 1, G: 0.9, N: 1.37}}
	out, err := ValidateMedia(m, media)
	require.NoError(t, err)

	// the sentinel tag now indexes a background clone appended to the table
	require.Len(t, out, 3)
	assert.Equal(t, out[0], out[2])
	assert.Equal(t, int32(2), m.Tags[1])
	assert.Equal(t, int32(1), m.Tags[0])
	// original table untouched
	assert.Len(t, media, 2)
}
