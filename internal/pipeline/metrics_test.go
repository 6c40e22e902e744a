package pipeline

import (
	"testing"

	"skyline-detector/internal/opencv/conversion"
	"skyline-detector/internal/skyline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func maskOf(t *testing.T, rows [][]uint8) *skyline.Mask {
	t.Helper()
	m, err := conversion.FromRows(rows)
	require.NoError(t, err)
	mask, err := skyline.NewMask(m)
	require.NoError(t, err)
	t.Cleanup(mask.Close)
	return mask
}

func TestCalculateMaskMetrics(t *testing.T) {
	predicted := maskOf(t, [][]uint8{{1, 1}, {1, 0}})
	truth := maskOf(t, [][]uint8{{1, 1}, {0, 0}})

	m, err := CalculateMaskMetrics(predicted, truth)
	require.NoError(t, err)
	assert.Equal(t, 75.0, m.Accuracy)
	assert.InDelta(t, 2.0/3.0, m.IoU, 1e-9)
	assert.InDelta(t, 0.8, m.Dice, 1e-9)
}

func TestCalculateMaskMetrics_NoSky(t *testing.T) {
	empty := maskOf(t, [][]uint8{{0, 0}})

	m, err := CalculateMaskMetrics(empty, empty)
	require.NoError(t, err)
	assert.Equal(t, 100.0, m.Accuracy)
	assert.Equal(t, 1.0, m.IoU)
	assert.Equal(t, 1.0, m.Dice)
}

func TestCalculateMaskMetrics_ShapeMismatch(t *testing.T) {
	_, err := CalculateMaskMetrics(maskOf(t, [][]uint8{{0, 0}}), maskOf(t, [][]uint8{{0}, {0}}))
	assert.ErrorIs(t, err, skyline.ErrShapeMismatch)
}
