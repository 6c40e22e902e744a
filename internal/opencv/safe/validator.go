package safe

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrNotBinary     = errors.New("image is not binary")
	ErrEmptyImage    = errors.New("image is empty")
)

func ValidateMatForOperation(mat *Mat, operation string) error {
	if mat == nil {
		return fmt.Errorf("%w: Mat is nil for operation: %s", ErrEmptyImage, operation)
	}

	if !mat.IsValid() {
		return fmt.Errorf("%w: Mat is closed for operation: %s", ErrEmptyImage, operation)
	}

	if mat.Empty() {
		return fmt.Errorf("%w: Mat is empty for operation: %s", ErrEmptyImage, operation)
	}

	if mat.Rows() <= 0 || mat.Cols() <= 0 {
		return fmt.Errorf("Mat has invalid dimensions %dx%d for operation: %s",
			mat.Cols(), mat.Rows(), operation)
	}

	return nil
}

// ValidateGray8 checks mat is a usable single-channel 8-bit image.
func ValidateGray8(mat *Mat, operation string) error {
	if err := ValidateMatForOperation(mat, operation); err != nil {
		return err
	}

	if mat.Type() != gocv.MatTypeCV8UC1 {
		return fmt.Errorf("operation %s requires an 8-bit single channel Mat, got type %d",
			operation, int(mat.Type()))
	}

	return nil
}

func ValidateSameShape(a, b *Mat, operation string) error {
	if err := ValidateMatForOperation(a, operation); err != nil {
		return err
	}
	if err := ValidateMatForOperation(b, operation); err != nil {
		return err
	}

	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return fmt.Errorf("%w for operation %s: %dx%d vs %dx%d",
			ErrShapeMismatch, operation, a.Cols(), a.Rows(), b.Cols(), b.Rows())
	}

	return nil
}

// ValidateMaxValue checks every sample of a gray Mat is <= maxValue.
func ValidateMaxValue(mat *Mat, maxValue uint8, operation string) error {
	if err := ValidateGray8(mat, operation); err != nil {
		return err
	}

	_, maxVal, _, _ := gocv.MinMaxLoc(mat.GetMat())
	if maxVal > float32(maxValue) {
		return fmt.Errorf("%w for operation %s: max sample %.0f exceeds %d",
			ErrNotBinary, operation, maxVal, maxValue)
	}

	return nil
}

func ValidateDimensions(width, height int, operation string) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid dimensions %dx%d for operation: %s", width, height, operation)
	}

	if width > 32768 || height > 32768 {
		return fmt.Errorf("dimensions %dx%d exceed maximum size for operation: %s", width, height, operation)
	}

	return nil
}

func ValidateCoordinates(row, col, rows, cols int, operation string) error {
	if row < 0 || row >= rows {
		return fmt.Errorf("row %d out of bounds [0, %d) for operation: %s", row, rows, operation)
	}

	if col < 0 || col >= cols {
		return fmt.Errorf("col %d out of bounds [0, %d) for operation: %s", col, cols, operation)
	}

	return nil
}
