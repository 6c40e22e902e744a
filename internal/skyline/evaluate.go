package skyline

import (
	"skyline-detector/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Evaluate returns the percentage of pixels where predicted and truth agree exactly.
// Masks of different shape fail with ErrShapeMismatch.
func Evaluate(predicted, truth *Mask) (float64, error) {
	if err := safe.ValidateSameShape(predicted.mat, truth.mat, "Evaluate"); err != nil {
		return 0, err
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(predicted.mat.GetMat(), truth.mat.GetMat(), &diff)

	total := predicted.Rows() * predicted.Cols()
	agreeing := total - gocv.CountNonZero(diff)

	return float64(agreeing) / float64(total) * 100, nil
}
