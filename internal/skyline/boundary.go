package skyline

import (
	"fmt"
	"image"

	"skyline-detector/internal/opencv/safe"
)

// BoundaryPointSet holds at most one point per column: X is the column and Y the
// topmost ground row. Points are ordered by strictly increasing column.
type BoundaryPointSet struct {
	Width  int
	Height int
	Points []image.Point
}

// ExtractBoundary scans m column by column and records the first ground row.
// Columns without ground are omitted.
func ExtractBoundary(m *Mask) (BoundaryPointSet, error) {
	return extractBoundary(m.mat)
}

func extractBoundary(img *safe.Mat) (BoundaryPointSet, error) {
	data, err := samples(img, "ExtractBoundary")
	if err != nil {
		return BoundaryPointSet{}, err
	}

	rows, cols := img.Rows(), img.Cols()
	set := BoundaryPointSet{Width: cols, Height: rows}

	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			if data[row*cols+col] == Ground {
				set.Points = append(set.Points, image.Point{X: col, Y: row})
				break
			}
		}
	}

	return set, nil
}

// Complete reports whether every column has a boundary point.
func (b BoundaryPointSet) Complete() bool {
	return b.Width > 0 && len(b.Points) == b.Width
}

// Missing lists the columns without a boundary point.
func (b BoundaryPointSet) Missing() []int {
	missing := make([]int, 0, b.Width-len(b.Points))
	next := 0
	for _, p := range b.Points {
		for ; next < p.X; next++ {
			missing = append(missing, next)
		}
		next = p.X + 1
	}
	for ; next < b.Width; next++ {
		missing = append(missing, next)
	}
	return missing
}

// Rows returns one boundary row per column. Missing columns are linearly
// interpolated between their found neighbours; leading and trailing gaps copy
// the nearest found row. It fails when the set has no points.
func (b BoundaryPointSet) Rows() ([]int, error) {
	if len(b.Points) == 0 {
		return nil, fmt.Errorf("%w: no boundary points in %d columns", ErrIncompleteBoundary, b.Width)
	}

	rows := make([]int, b.Width)
	first, last := b.Points[0], b.Points[len(b.Points)-1]

	for col := 0; col <= first.X; col++ {
		rows[col] = first.Y
	}
	for col := last.X; col < b.Width; col++ {
		rows[col] = last.Y
	}

	for i := 1; i < len(b.Points); i++ {
		left, right := b.Points[i-1], b.Points[i]
		span := right.X - left.X
		delta := right.Y - left.Y
		magnitude := delta
		if magnitude < 0 {
			magnitude = -magnitude
		}
		for col := left.X; col <= right.X; col++ {
			// rounded to nearest, half away from the left row
			step := (magnitude*(col-left.X)*2 + span) / (span * 2)
			if delta < 0 {
				step = -step
			}
			rows[col] = left.Y + step
		}
	}

	return rows, nil
}
