package conversion

import (
	"fmt"
	"image"
	"image/color"

	"skyline-detector/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// ConvertToGrayscale converts multi-channel images to single-channel grayscale
func ConvertToGrayscale(src *safe.Mat) (*safe.Mat, error) {
	if err := safe.ValidateMatForOperation(src, "grayscale conversion"); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if src.Channels() == 1 {
		return src.Clone()
	}

	dst := gocv.NewMat()
	srcMat := src.GetMat()

	switch src.Channels() {
	case 3:
		gocv.CvtColor(srcMat, &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(srcMat, &dst, gocv.ColorBGRAToGray)
	default:
		dst.Close()
		return nil, fmt.Errorf("unsupported channel count: %d", src.Channels())
	}

	return safe.Adopt(dst, "grayscale")
}

// ToImage converts a 1, 3 or 4 channel Mat to a Go image.
func ToImage(src *safe.Mat) (image.Image, error) {
	if err := safe.ValidateMatForOperation(src, "Mat to image conversion"); err != nil {
		return nil, err
	}

	if src.Channels() == 1 {
		return MatToGray(src)
	}

	img, err := src.GetMat().ToImage()
	if err != nil {
		return nil, fmt.Errorf("Mat to image conversion failed: %w", err)
	}
	return img, nil
}

// MatToGray converts a single-channel Mat to an image.Gray, scaling every sample by scale.
// Use scale 1 for intensity images and 255 for {0,1} masks.
func MatToGray(src *safe.Mat) (*image.Gray, error) {
	return MatToGrayScaled(src, 1)
}

func MatToGrayScaled(src *safe.Mat, scale uint8) (*image.Gray, error) {
	if err := safe.ValidateGray8(src, "Mat to gray conversion"); err != nil {
		return nil, err
	}

	rows := src.Rows()
	cols := src.Cols()
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			value, err := src.GetUCharAt(y, x)
			if err != nil {
				return nil, fmt.Errorf("pixel access failed at (%d,%d): %w", x, y, err)
			}
			img.SetGray(x, y, color.Gray{Y: value * scale})
		}
	}

	return img, nil
}

// GrayToMat converts a grayscale image to a single-channel Mat
func GrayToMat(img *image.Gray) (*safe.Mat, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	mat, err := safe.NewZeroMat(height, width)
	if err != nil {
		return nil, err
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pixel := img.GrayAt(x+bounds.Min.X, y+bounds.Min.Y)
			if err := mat.SetUCharAt(y, x, pixel.Y); err != nil {
				mat.Close()
				return nil, fmt.Errorf("pixel setting failed at (%d,%d): %w", x, y, err)
			}
		}
	}

	return mat, nil
}

// FromRows builds a single-channel Mat from row-major samples. All rows must have equal length.
func FromRows(rows [][]uint8) (*safe.Mat, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("empty sample grid")
	}

	width := len(rows[0])
	mat, err := safe.NewZeroMat(len(rows), width)
	if err != nil {
		return nil, err
	}

	for y, row := range rows {
		if len(row) != width {
			mat.Close()
			return nil, fmt.Errorf("row %d has %d samples, want %d", y, len(row), width)
		}
		for x, v := range row {
			if err := mat.SetUCharAt(y, x, v); err != nil {
				mat.Close()
				return nil, err
			}
		}
	}

	return mat, nil
}

// ToRows copies a single-channel Mat into row-major samples.
func ToRows(src *safe.Mat) ([][]uint8, error) {
	if err := safe.ValidateGray8(src, "Mat to rows conversion"); err != nil {
		return nil, err
	}

	out := make([][]uint8, src.Rows())
	for y := range out {
		out[y] = make([]uint8, src.Cols())
		for x := range out[y] {
			v, err := src.GetUCharAt(y, x)
			if err != nil {
				return nil, err
			}
			out[y][x] = v
		}
	}

	return out, nil
}
