package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_Serpentine(t *testing.T) {
	l := Layout{Dim: Dim{X: 3, Y: 2, Z: 2}, Order: Serpentine{XFlipEveryRow: true, YFlipEveryPanel: true}}
	assert.Equal(t, 12, l.Count())
	assert.Equal(t, 0, l.Index(0, 0, 0))
	assert.Equal(t, 5, l.Index(0, 1, 0), "odd row runs backwards")
	assert.Equal(t, 3, l.Index(2, 1, 0))
	assert.Equal(t, 9, l.Index(0, 0, 1), "odd panel runs rows backwards")
}

func TestRemap_Straight(t *testing.T) {
	table, err := Strip(4).Remap()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, table)
}

func TestRemap_SerpentineMatrix(t *testing.T) {
	l := Layout{Dim: Dim{X: 3, Y: 3, Z: 1}, Order: Serpentine{XFlipEveryRow: true}}
	table, err := l.Remap()
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 5, 4, 3, 6, 7, 8}, table)
}

func TestRemap_Limits(t *testing.T) {
	_, err := Strip(0).Remap()
	assert.Error(t, err)

	_, err = Layout{Dim: Dim{X: 16, Y: 16, Z: 1}}.Remap()
	assert.NoError(t, err)

	_, err = Layout{Dim: Dim{X: 16, Y: 16, Z: 2}}.Remap()
	assert.ErrorIs(t, err, ErrTooLarge)
}
