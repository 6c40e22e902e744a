package skyline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSkyline_AllGroundHasNoEdges(t *testing.T) {
	m := maskFromRows(t, filled(6, 6, Ground))

	ring, err := DetectSkyline(m)
	require.NoError(t, err)
	defer ring.Close()

	assert.Equal(t, filled(6, 6, Ground), rowsOfMask(t, ring))
}

func TestDetectSkyline_RingOnGroundSide(t *testing.T) {
	boundary := []int{5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
	m := maskFromRows(t, skyAbove(10, boundary))

	ring, err := DetectSkyline(m)
	require.NoError(t, err)
	defer ring.Close()

	got := rowsOfMask(t, ring)
	for r := 0; r < 10; r++ {
		want := Ground
		if r == 5 || r == 6 {
			want = Sky
		}
		for c := 0; c < 10; c++ {
			assert.Equal(t, want, got[r][c], "row %d col %d", r, c)
		}
	}
}
