package skyline

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomMask(t *testing.T, rng *rand.Rand, rows, cols int) *Mask {
	t.Helper()
	data := filled(rows, cols, Ground)
	for r := range data {
		for c := range data[r] {
			if rng.Intn(3) > 0 {
				data[r][c] = Sky
			}
		}
	}
	return maskFromRows(t, data)
}

func TestMonotonize_AllSkyUnchanged(t *testing.T) {
	m := maskFromRows(t, filled(4, 4, Sky))

	out, err := Monotonize(m)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, filled(4, 4, Sky), rowsOfMask(t, out))

	b, err := ExtractBoundary(out)
	require.NoError(t, err)
	assert.Empty(t, b.Points)
}

func TestMonotonize_SingleGroundPixel(t *testing.T) {
	data := filled(4, 4, Sky)
	data[2][1] = Ground
	m := maskFromRows(t, data)

	out, err := Monotonize(m)
	require.NoError(t, err)
	defer out.Close()

	want := filled(4, 4, Sky)
	want[2][1] = Ground
	want[3][1] = Ground
	assert.Equal(t, want, rowsOfMask(t, out))

	b, err := ExtractBoundary(out)
	require.NoError(t, err)
	require.Len(t, b.Points, 1)
	assert.Equal(t, 1, b.Points[0].X)
	assert.Equal(t, 2, b.Points[0].Y)

	// the input mask is not modified
	assert.Equal(t, data, rowsOfMask(t, m))
}

func TestMonotonize_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 25; i++ {
		m := randomMask(t, rng, 3+rng.Intn(12), 3+rng.Intn(12))

		once, err := Monotonize(m)
		require.NoError(t, err)
		twice, err := Monotonize(once)
		require.NoError(t, err)

		got := rowsOfMask(t, once)
		assert.Equal(t, got, rowsOfMask(t, twice), "idempotence")

		for c := 0; c < m.Cols(); c++ {
			seenGround := false
			for r := 0; r < m.Rows(); r++ {
				if got[r][c] == Ground {
					seenGround = true
				} else if seenGround {
					t.Fatalf("sky below ground at row %d col %d", r, c)
				}
			}
		}

		// rows above the first ground pixel keep their original values
		orig := rowsOfMask(t, m)
		for c := 0; c < m.Cols(); c++ {
			for r := 0; r < m.Rows() && orig[r][c] == Sky; r++ {
				assert.Equal(t, Sky, got[r][c])
			}
		}

		once.Close()
		twice.Close()
	}
}

func TestMonotonizeStep_WorksOn255Encoding(t *testing.T) {
	img := matFromRows(t, [][]uint8{
		{255, 255},
		{0, 255},
		{255, 0},
		{255, 255},
	})

	out, err := MonotonizeStep{}.Apply(context.Background(), img)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][]uint8{
		{255, 255},
		{0, 255},
		{0, 0},
		{0, 0},
	}, rowsOfMat(t, out))
}
