package skyline

import (
	"fmt"

	"skyline-detector/internal/processing/morphology"
)

// SkylineKernelSize is the dilation footprint of the boundary ring.
const SkylineKernelSize = 5

var skylineKernel = morphology.MustKernel(SkylineKernelSize)

// DetectSkyline returns the boundary ring of m: dilate(m) - m. Ring pixels are 1,
// everything else 0. The ring lies on the ground side of every sky/ground edge.
func DetectSkyline(m *Mask) (*Mask, error) {
	dilated, err := morphology.Dilate(m.mat, skylineKernel, 1)
	if err != nil {
		return nil, fmt.Errorf("skyline dilation failed: %w", err)
	}
	defer dilated.Close()

	ring, err := morphology.Subtract(dilated, m.mat)
	if err != nil {
		return nil, fmt.Errorf("skyline subtraction failed: %w", err)
	}

	out, err := NewMask(ring)
	if err != nil {
		ring.Close()
		return nil, err
	}
	return out, nil
}
