package skyline

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"skyline-detector/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// GapPolicy decides what happens to columns that have no boundary point
// when the ground silhouette is rebuilt.
type GapPolicy string

const (
	// GapInterpolate draws the boundary through missing columns by linear interpolation.
	GapInterpolate GapPolicy = "interpolate"
	// GapSky keeps missing columns entirely sky.
	GapSky GapPolicy = "sky"
	// GapStrict rejects boundaries that do not cover every column.
	GapStrict GapPolicy = "strict"
)

func ParseGapPolicy(value string) (GapPolicy, error) {
	switch p := GapPolicy(value); p {
	case GapInterpolate, GapSky, GapStrict:
		return p, nil
	case "":
		return GapInterpolate, nil
	default:
		return "", fmt.Errorf("unknown gap policy %q (want interpolate, sky or strict)", value)
	}
}

// FillGround draws the boundary as one closed contour, filled with 255, on a fresh
// zero canvas. The contour walks the boundary left to right and closes from the last
// point straight back to the first. With no boundary points at all the canvas stays
// empty.
func FillGround(b BoundaryPointSet, policy GapPolicy) (*safe.Mat, error) {
	canvas, err := safe.NewZeroMat(b.Height, b.Width)
	if err != nil {
		return nil, err
	}

	if len(b.Points) == 0 {
		if policy == GapStrict {
			canvas.Close()
			return nil, fmt.Errorf("%w: no column has ground", ErrIncompleteBoundary)
		}
		return canvas, nil
	}

	if policy == GapStrict && !b.Complete() {
		canvas.Close()
		return nil, fmt.Errorf("%w: %d of %d columns missing", ErrIncompleteBoundary, len(b.Missing()), b.Width)
	}

	contour, err := b.contour(policy)
	if err != nil {
		canvas.Close()
		return nil, err
	}

	pv := gocv.NewPointsVectorFromPoints([][]image.Point{contour})
	defer pv.Close()

	mat := canvas.GetMat()
	gocv.DrawContours(&mat, pv, -1, color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)

	if policy == GapSky {
		if err := clearColumns(canvas, b.Missing()); err != nil {
			canvas.Close()
			return nil, err
		}
	}

	return canvas, nil
}

// contour returns the vertices to fill. Interpolation adds a vertex for every
// missing column; the other policies use the found points only.
func (b BoundaryPointSet) contour(policy GapPolicy) ([]image.Point, error) {
	if policy != GapInterpolate {
		return b.Points, nil
	}

	rows, err := b.Rows()
	if err != nil {
		return nil, err
	}
	points := make([]image.Point, len(rows))
	for col, row := range rows {
		points[col] = image.Point{X: col, Y: row}
	}
	return points, nil
}

func clearColumns(canvas *safe.Mat, columns []int) error {
	data, err := samples(canvas, "clearColumns")
	if err != nil {
		return err
	}

	rows, cols := canvas.Rows(), canvas.Cols()
	for _, col := range columns {
		for row := 0; row < rows; row++ {
			data[row*cols+col] = 0
		}
	}
	return nil
}

// ContourFillStep extracts the boundary of a binary image and replaces the image
// with the filled ground silhouette.
type ContourFillStep struct {
	Policy GapPolicy
}

func (s ContourFillStep) Name() string {
	return "contour_fill_" + string(s.Policy)
}

func (s ContourFillStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	boundary, err := extractBoundary(input)
	if err != nil {
		return nil, err
	}
	return FillGround(boundary, s.Policy)
}
