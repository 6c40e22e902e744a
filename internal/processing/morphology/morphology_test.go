package morphology

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyline-detector/internal/opencv/conversion"
	"skyline-detector/internal/opencv/safe"
)

func mustMat(t *testing.T, rows [][]uint8) *safe.Mat {
	t.Helper()
	m, err := conversion.FromRows(rows)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

func rowsOf(t *testing.T, m *safe.Mat) [][]uint8 {
	t.Helper()
	out, err := conversion.ToRows(m)
	require.NoError(t, err)
	return out
}

func TestNewKernel(t *testing.T) {
	for _, size := range []int{1, 3, 5, 7} {
		k, err := NewKernel(size)
		require.NoError(t, err)
		assert.Equal(t, size, k.Size())
	}

	for _, size := range []int{0, -3, 4} {
		_, err := NewKernel(size)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedKernel))
	}

	assert.Panics(t, func() { MustKernel(2) })
}

func TestDilate_SinglePixel(t *testing.T) {
	src := mustMat(t, [][]uint8{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 9, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})

	out, err := Dilate(src, MustKernel(3), 1)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][]uint8{
		{0, 0, 0, 0, 0},
		{0, 9, 9, 9, 0},
		{0, 9, 9, 9, 0},
		{0, 9, 9, 9, 0},
		{0, 0, 0, 0, 0},
	}, rowsOf(t, out))
}

func TestDilate_IterationsGrow(t *testing.T) {
	src := mustMat(t, [][]uint8{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})

	out, err := Dilate(src, MustKernel(3), 2)
	require.NoError(t, err)
	defer out.Close()

	for _, row := range rowsOf(t, out) {
		for _, v := range row {
			assert.Equal(t, uint8(1), v)
		}
	}
}

func TestErode_RemovesIsolatedPixel(t *testing.T) {
	src := mustMat(t, [][]uint8{
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{1, 1, 0, 1, 1},
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
	})

	out, err := Erode(src, MustKernel(3), 1)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][]uint8{
		{1, 1, 1, 1, 1},
		{1, 0, 0, 0, 1},
		{1, 0, 0, 0, 1},
		{1, 0, 0, 0, 1},
		{1, 1, 1, 1, 1},
	}, rowsOf(t, out))
}

func TestClose_FillsHole(t *testing.T) {
	src := mustMat(t, [][]uint8{
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
		{1, 1, 0, 1, 1},
		{1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1},
	})

	for _, iterations := range []int{1, 2} {
		out, err := Close(src, MustKernel(3), iterations)
		require.NoError(t, err)

		for _, row := range rowsOf(t, out) {
			for _, v := range row {
				assert.Equal(t, uint8(1), v, "iterations=%d", iterations)
			}
		}
		out.Close()
	}
}

func TestDilateSubtract_RingAroundBlob(t *testing.T) {
	src := mustMat(t, [][]uint8{
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 5, 0, 0},
		{0, 0, 0, 0, 0},
		{0, 0, 0, 0, 0},
	})

	out, err := DilateSubtract(src, MustKernel(3), 1)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][]uint8{
		{0, 0, 0, 0, 0},
		{0, 5, 5, 5, 0},
		{0, 5, 0, 5, 0},
		{0, 5, 5, 5, 0},
		{0, 0, 0, 0, 0},
	}, rowsOf(t, out))
}

func TestSubtract_Saturates(t *testing.T) {
	a := mustMat(t, [][]uint8{{5, 0}})
	b := mustMat(t, [][]uint8{{3, 4}})

	out, err := Subtract(a, b)
	require.NoError(t, err)
	defer out.Close()

	assert.Equal(t, [][]uint8{{2, 0}}, rowsOf(t, out))
}

func TestSubtract_ShapeMismatch(t *testing.T) {
	a := mustMat(t, [][]uint8{{5, 0}})
	b := mustMat(t, [][]uint8{{3}, {4}})

	_, err := Subtract(a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, safe.ErrShapeMismatch))
}

func TestInvertAndThreshold(t *testing.T) {
	src := mustMat(t, [][]uint8{{0, 127, 128, 255}})

	inv, err := Invert(src)
	require.NoError(t, err)
	defer inv.Close()
	assert.Equal(t, [][]uint8{{255, 128, 127, 0}}, rowsOf(t, inv))

	bin, err := Threshold(src, 127, 255)
	require.NoError(t, err)
	defer bin.Close()
	assert.Equal(t, [][]uint8{{0, 0, 255, 255}}, rowsOf(t, bin))

	unit, err := Threshold(src, 127, 1)
	require.NoError(t, err)
	defer unit.Close()
	assert.Equal(t, [][]uint8{{0, 0, 1, 1}}, rowsOf(t, unit))
}

func TestDilate_RejectsZeroIterations(t *testing.T) {
	src := mustMat(t, [][]uint8{{1}})
	_, err := Dilate(src, MustKernel(3), 0)
	assert.Error(t, err)

	_, err = Dilate(src, Kernel{}, 1)
	assert.True(t, errors.Is(err, ErrMalformedKernel))
}
