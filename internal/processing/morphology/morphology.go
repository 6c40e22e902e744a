package morphology

import (
	"fmt"

	"skyline-detector/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Dilate applies iterations rounds of grayscale dilation with k.
func Dilate(src *safe.Mat, k Kernel, iterations int) (*safe.Mat, error) {
	return repeat(src, k, iterations, "Dilate", func(in gocv.Mat, out *gocv.Mat, kernel gocv.Mat) {
		gocv.Dilate(in, out, kernel)
	})
}

// Erode applies iterations rounds of grayscale erosion with k.
func Erode(src *safe.Mat, k Kernel, iterations int) (*safe.Mat, error) {
	return repeat(src, k, iterations, "Erode", func(in gocv.Mat, out *gocv.Mat, kernel gocv.Mat) {
		gocv.Erode(in, out, kernel)
	})
}

// Close is a morphological closing: iterations dilations followed by iterations erosions.
func Close(src *safe.Mat, k Kernel, iterations int) (*safe.Mat, error) {
	if iterations == 1 {
		if err := validate(src, k, iterations, "Close"); err != nil {
			return nil, err
		}
		kernel := k.mat()
		defer kernel.Close()

		dst := gocv.NewMat()
		gocv.MorphologyEx(src.GetMat(), &dst, gocv.MorphClose, kernel)
		return safe.Adopt(dst, "close")
	}

	dilated, err := Dilate(src, k, iterations)
	if err != nil {
		return nil, fmt.Errorf("closing dilation failed: %w", err)
	}
	defer dilated.Close()

	return Erode(dilated, k, iterations)
}

// DilateSubtract returns dilate(src) - src, saturating at zero.
func DilateSubtract(src *safe.Mat, k Kernel, iterations int) (*safe.Mat, error) {
	dilated, err := Dilate(src, k, iterations)
	if err != nil {
		return nil, err
	}
	defer dilated.Close()

	return Subtract(dilated, src)
}

// Subtract returns a - b with saturation at zero.
func Subtract(a, b *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateSameShape(a, b, "Subtract"); err != nil {
		return nil, err
	}
	if a.Type() != b.Type() {
		return nil, fmt.Errorf("Subtract requires equal Mat types, got %d and %d", int(a.Type()), int(b.Type()))
	}

	dst := gocv.NewMat()
	gocv.Subtract(a.GetMat(), b.GetMat(), &dst)
	return safe.Adopt(dst, "subtract")
}

// Invert returns 255 - src for 8-bit images.
func Invert(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateGray8(src, "Invert"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.BitwiseNot(src.GetMat(), &dst)
	return safe.Adopt(dst, "invert")
}

// Threshold maps samples strictly greater than thresh to maxValue and the rest to zero.
func Threshold(src *safe.Mat, thresh, maxValue uint8) (*safe.Mat, error) {
	if err := safe.ValidateGray8(src, "Threshold"); err != nil {
		return nil, err
	}

	dst := gocv.NewMat()
	gocv.Threshold(src.GetMat(), &dst, float32(thresh), float32(maxValue), gocv.ThresholdBinary)
	return safe.Adopt(dst, "threshold")
}

func repeat(src *safe.Mat, k Kernel, iterations int, op string, apply func(gocv.Mat, *gocv.Mat, gocv.Mat)) (*safe.Mat, error) {
	if err := validate(src, k, iterations, op); err != nil {
		return nil, err
	}

	kernel := k.mat()
	defer kernel.Close()

	current := src.GetMat().Clone()
	for i := 0; i < iterations; i++ {
		next := gocv.NewMat()
		apply(current, &next, kernel)
		current.Close()
		current = next
	}

	return safe.Adopt(current, op)
}

func validate(src *safe.Mat, k Kernel, iterations int, op string) error {
	if err := safe.ValidateGray8(src, op); err != nil {
		return err
	}
	if err := k.validate(); err != nil {
		return err
	}
	if iterations < 1 {
		return fmt.Errorf("%s requires at least one iteration, got %d", op, iterations)
	}
	return nil
}
