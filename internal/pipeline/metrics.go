package pipeline

import (
	"skyline-detector/internal/skyline"

	"gocv.io/x/gocv"
)

// MaskMetrics scores a predicted sky mask against ground truth. IoU and Dice are
// computed over the sky class.
type MaskMetrics struct {
	Accuracy float64
	IoU      float64
	Dice     float64
}

func CalculateMaskMetrics(predicted, truth *skyline.Mask) (MaskMetrics, error) {
	accuracy, err := skyline.Evaluate(predicted, truth)
	if err != nil {
		return MaskMetrics{}, err
	}

	p := predicted.Mat().GetMat()
	t := truth.Mat().GetMat()

	intersection := gocv.NewMat()
	defer intersection.Close()
	gocv.BitwiseAnd(p, t, &intersection)

	union := gocv.NewMat()
	defer union.Close()
	gocv.BitwiseOr(p, t, &union)

	inter := float64(gocv.CountNonZero(intersection))
	uni := float64(gocv.CountNonZero(union))
	sizes := float64(gocv.CountNonZero(p) + gocv.CountNonZero(t))

	metrics := MaskMetrics{Accuracy: accuracy, IoU: 1, Dice: 1}
	if uni > 0 {
		metrics.IoU = inter / uni
	}
	if sizes > 0 {
		metrics.Dice = 2 * inter / sizes
	}
	return metrics, nil
}
