package skyline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayPostProcessor_CleansRoughMask(t *testing.T) {
	boundary := make([]int, 20)
	for i := range boundary {
		boundary[i] = 10
	}
	raw := skyAbove(20, boundary)
	raw[3][5] = Ground // hole in the sky
	raw[15][5] = Sky   // speck in the ground

	in := maskFromRows(t, raw)

	out, err := NewDayPostProcessor().Process(context.Background(), in)
	require.NoError(t, err)
	defer out.Close()

	got := rowsOfMask(t, out)
	for c := 0; c < 20; c++ {
		for r := 0; r < 20; r++ {
			want := Ground
			if r < 7 {
				want = Sky
			}
			require.Equal(t, want, got[r][c], "row %d col %d", r, c)
		}
	}

	// the rough mask is untouched
	assert.Equal(t, Ground, rowsOfMask(t, in)[3][5])
}
