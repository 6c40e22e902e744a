package morphology

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var ErrMalformedKernel = errors.New("malformed kernel")

// Kernel is a square structuring element of ones.
type Kernel struct {
	size int
}

func NewKernel(size int) (Kernel, error) {
	if size <= 0 || size%2 == 0 {
		return Kernel{}, fmt.Errorf("%w: size %d must be a positive odd number", ErrMalformedKernel, size)
	}
	return Kernel{size: size}, nil
}

// MustKernel is NewKernel for constant call sites; it panics on a malformed size.
func MustKernel(size int) Kernel {
	k, err := NewKernel(size)
	if err != nil {
		panic(err)
	}
	return k
}

func (k Kernel) Size() int {
	return k.size
}

func (k Kernel) String() string {
	return fmt.Sprintf("%dx%d", k.size, k.size)
}

func (k Kernel) validate() error {
	if k.size <= 0 || k.size%2 == 0 {
		return fmt.Errorf("%w: size %d", ErrMalformedKernel, k.size)
	}
	return nil
}

// mat allocates the OpenCV structuring element; the caller closes it.
func (k Kernel) mat() gocv.Mat {
	return gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: k.size, Y: k.size})
}
