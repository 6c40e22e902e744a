package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"skyline-detector/internal/opencv/conversion"
	"skyline-detector/internal/skyline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func writeGray(t *testing.T, path string, rows [][]uint8) {
	t.Helper()
	m, err := conversion.FromRows(rows)
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.True(t, gocv.IMWrite(path, m.GetMat()))
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.png")
	writeGray(t, path, [][]uint8{{0, 255}, {128, 64}})

	img, err := FileLoader{}.Load(path)
	require.NoError(t, err)
	defer img.Close()
	assert.Equal(t, 3, img.Channels())
	assert.Equal(t, 2, img.Rows())

	_, err = FileLoader{}.Load(filepath.Join(dir, "absent.png"))
	assert.ErrorIs(t, err, ErrDecodeFailure)

	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0o644))
	_, err = FileLoader{}.Load(garbage)
	assert.ErrorIs(t, err, ErrDecodeFailure)
}

func TestDirGroundTruth(t *testing.T) {
	dir := t.TempDir()
	store := DirGroundTruth{Dir: dir, Threshold: 127}
	writeGray(t, store.Path("city"), [][]uint8{
		{255, 200, 128},
		{127, 30, 0},
	})
	assert.Equal(t, filepath.Join(dir, "city_GT.png"), store.Path("city"))

	m, err := store.Load("city")
	require.NoError(t, err)
	defer m.Close()

	rows, err := conversion.ToRows(m.Mat())
	require.NoError(t, err)
	assert.Equal(t, [][]uint8{{1, 1, 1}, {0, 0, 0}}, rows)

	_, err = store.Load("forest")
	assert.ErrorIs(t, err, ErrGroundTruth)
}

func TestDirSaver(t *testing.T) {
	root := filepath.Join(t.TempDir(), "skyline")
	saver := DirSaver{Root: root}

	src, err := conversion.FromRows([][]uint8{{0, 1}, {1, 0}})
	require.NoError(t, err)
	ring, err := skyline.NewMask(src)
	require.NoError(t, err)
	defer ring.Close()

	for i := 0; i < 2; i++ {
		path, err := saver.Save("city", "img_001.png", ring)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "city", "img_001.png"), path)
	}

	back := gocv.IMRead(filepath.Join(root, "city", "img_001.png"), gocv.IMReadGrayScale)
	defer back.Close()
	require.False(t, back.Empty())
	assert.Equal(t, uint8(0), back.GetUCharAt(0, 0))
	assert.Equal(t, uint8(255), back.GetUCharAt(0, 1))
}
