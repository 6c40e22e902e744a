package detect

import (
	"context"
	"image"
	"sort"

	"skyline-detector/internal/opencv/safe"
	"skyline-detector/internal/skyline"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"
)

// GradientSkyDetector marks low-gradient regions as sky. It produces the rough mask
// that skyline.DayPostProcessor refines.
type GradientSkyDetector struct {
	MaxGradient     uint8 // Laplacian responses below this are sky
	ColumnWindow    int   // odd median window along each column
	MinSkyHeight    int   // columns whose first ground row is not below this stay untouched
	BlurSize        image.Point
	MedianBlurSize  int
	ErodeKernelSize image.Point
}

func NewGradientSkyDetector() *GradientSkyDetector {
	return &GradientSkyDetector{
		MaxGradient:     6,
		ColumnWindow:    19,
		MinSkyHeight:    20,
		BlurSize:        image.Pt(9, 3),
		MedianBlurSize:  5,
		ErodeKernelSize: image.Pt(9, 3),
	}
}

// SkyRegion returns a rough {0,1} sky mask for a grayscale image.
func (d *GradientSkyDetector) SkyRegion(ctx context.Context, gray *safe.Mat) (*skyline.Mask, error) {
	if err := safe.ValidateGray8(gray, "SkyRegion"); err != nil {
		return nil, err
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.Blur(gray.GetMat(), &blurred, d.BlurSize)

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	gocv.MedianBlur(blurred, &smoothed, d.MedianBlurSize)

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(smoothed, &lap, gocv.MatTypeCV8U, 1, 1, 0, gocv.BorderDefault)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flat := gocv.NewMat()
	defer flat.Close()
	gocv.Threshold(lap, &flat, float32(d.MaxGradient)-1, 1, gocv.ThresholdBinaryInv)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, d.ErodeKernelSize)
	defer kernel.Close()

	eroded := gocv.NewMat()
	gocv.Erode(flat, &eroded, kernel)

	out, err := safe.Adopt(eroded, "sky_region")
	if err != nil {
		return nil, err
	}

	if err := d.refineColumns(out); err != nil {
		out.Close()
		return nil, err
	}

	mask, err := skyline.NewMask(out)
	if err != nil {
		out.Close()
		return nil, err
	}
	return mask, nil
}

// refineColumns median-filters every column and, when the filtered column shows a
// tall enough sky run from the top, rewrites it as sky over ground.
func (d *GradientSkyDetector) refineColumns(m *safe.Mat) error {
	rows, cols := m.Rows(), m.Cols()
	column := make([]uint8, rows)

	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			v, err := m.GetUCharAt(row, col)
			if err != nil {
				return err
			}
			column[row] = v
		}

		filtered := medianFilter(column, d.ColumnWindow)

		firstSky := indexOf(filtered, skyline.Sky, 0)
		if firstSky < 0 {
			continue
		}
		firstGround := indexOf(filtered, skyline.Ground, firstSky)
		if firstGround < 0 || firstGround <= d.MinSkyHeight {
			continue
		}

		for row := 0; row < rows; row++ {
			v := skyline.Ground
			if row >= firstSky && row < firstGround {
				v = skyline.Sky
			}
			if err := m.SetUCharAt(row, col, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// medianFilter applies a zero-padded running median of the given odd window.
func medianFilter(values []uint8, window int) []uint8 {
	half := window / 2
	out := make([]uint8, len(values))
	buf := make([]float64, window)

	for i := range values {
		for j := 0; j < window; j++ {
			k := i - half + j
			if k < 0 || k >= len(values) {
				buf[j] = 0
				continue
			}
			buf[j] = float64(values[k])
		}
		sort.Float64s(buf)
		out[i] = uint8(stat.Quantile(0.5, stat.Empirical, buf, nil))
	}
	return out
}

func indexOf(values []uint8, target uint8, from int) int {
	for i := from; i < len(values); i++ {
		if values[i] == target {
			return i
		}
	}
	return -1
}
