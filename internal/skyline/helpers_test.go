package skyline

import (
	"testing"

	"skyline-detector/internal/opencv/conversion"
	"skyline-detector/internal/opencv/safe"

	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func matFromRows(t *testing.T, rows [][]uint8) *safe.Mat {
	t.Helper()
	m, err := conversion.FromRows(rows)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func maskFromRows(t *testing.T, rows [][]uint8) *Mask {
	t.Helper()
	m, err := conversion.FromRows(rows)
	require.NoError(t, err)
	mask, err := NewMask(m)
	require.NoError(t, err)
	t.Cleanup(mask.Close)
	return mask
}

func rowsOfMask(t *testing.T, m *Mask) [][]uint8 {
	t.Helper()
	rows, err := conversion.ToRows(m.Mat())
	require.NoError(t, err)
	return rows
}

func rowsOfMat(t *testing.T, m *safe.Mat) [][]uint8 {
	t.Helper()
	rows, err := conversion.ToRows(m)
	require.NoError(t, err)
	return rows
}

func filled(rows, cols int, value uint8) [][]uint8 {
	out := make([][]uint8, rows)
	for r := range out {
		out[r] = make([]uint8, cols)
		for c := range out[r] {
			out[r][c] = value
		}
	}
	return out
}

// skyAbove returns a mask whose column c is sky above boundary[c] and ground from it down.
func skyAbove(height int, boundary []int) [][]uint8 {
	out := filled(height, len(boundary), Ground)
	for c, b := range boundary {
		for r := 0; r < b; r++ {
			out[r][c] = Sky
		}
	}
	return out
}

func colorMat(t *testing.T) *safe.Mat {
	t.Helper()
	m, err := safe.NewMat(4, 4, gocv.MatTypeCV8UC3)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}
