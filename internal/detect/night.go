// Package detect holds the default day/night classifier and the day-time sky
// detector used by the batch pipeline.
package detect

import (
	"fmt"
	"image"
	"math"

	"skyline-detector/internal/opencv/conversion"
	"skyline-detector/internal/opencv/safe"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"gonum.org/v1/gonum/stat"
)

type PaletteMethod int

const (
	PaletteMethodDominantColor PaletteMethod = iota
	PaletteMethodKMeans
)

func (m PaletteMethod) String() string {
	switch m {
	case PaletteMethodKMeans:
		return "kmeans"
	default:
		return "dominantcolor"
	}
}

func ParsePaletteMethod(value string) (PaletteMethod, error) {
	switch value {
	case "", "dominantcolor":
		return PaletteMethodDominantColor, nil
	case "kmeans":
		return PaletteMethodKMeans, nil
	default:
		return 0, fmt.Errorf("unknown palette method %q", value)
	}
}

// PaletteNightClassifier decides night versus day from the image's dominant colours
// and its mean gray intensity.
type PaletteNightClassifier struct {
	Method           PaletteMethod
	PaletteSize      int
	MaxLightness     float64 // weighted CIE L*, 0..1
	MaxMeanIntensity float64 // 0..255
}

func NewPaletteNightClassifier(method PaletteMethod) *PaletteNightClassifier {
	return &PaletteNightClassifier{
		Method:           method,
		PaletteSize:      5,
		MaxLightness:     0.30,
		MaxMeanIntensity: 70,
	}
}

type weightedColor struct {
	col    colorful.Color
	weight float64
}

// IsNight classifies a BGR (or grayscale) image.
func (c *PaletteNightClassifier) IsNight(img *safe.Mat) (bool, error) {
	if err := safe.ValidateMatForOperation(img, "IsNight"); err != nil {
		return false, err
	}

	mean, err := meanIntensity(img)
	if err != nil {
		return false, err
	}
	if mean < c.MaxMeanIntensity {
		return true, nil
	}

	goImg, err := conversion.ToImage(img)
	if err != nil {
		return false, err
	}

	var palette []weightedColor
	switch c.Method {
	case PaletteMethodKMeans:
		palette, err = kmeansPalette(goImg, c.PaletteSize)
		if err != nil {
			return false, fmt.Errorf("k-means palette: %w", err)
		}
	default:
		palette = dominantPalette(goImg, c.PaletteSize)
	}

	lightness, ok := weightedLightness(palette)
	if !ok {
		return false, nil
	}
	return lightness < c.MaxLightness, nil
}

func meanIntensity(img *safe.Mat) (float64, error) {
	gray, err := conversion.ConvertToGrayscale(img)
	if err != nil {
		return 0, err
	}
	defer gray.Close()

	raw := gray.GetMat()
	data, err := raw.DataPtrUint8()
	if err != nil {
		return 0, err
	}

	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}
	return stat.Mean(values, nil), nil
}

func weightedLightness(palette []weightedColor) (float64, bool) {
	if len(palette) == 0 {
		return 0, false
	}

	lightness := make([]float64, len(palette))
	weights := make([]float64, len(palette))
	total := 0.0
	for i, wc := range palette {
		l, _, _ := wc.col.Clamped().Lab()
		lightness[i] = l
		weights[i] = wc.weight
		total += wc.weight
	}
	if total <= 0 {
		return 0, false
	}
	return stat.Mean(lightness, weights), true
}

func dominantPalette(img image.Image, k int) []weightedColor {
	candidates := dominantcolor.FindWeight(img, k)

	out := make([]weightedColor, 0, len(candidates))
	for _, cand := range candidates {
		col, ok := colorful.MakeColor(cand.RGBA)
		if !ok {
			continue
		}
		out = append(out, weightedColor{col: col, weight: cand.Weight})
	}
	return out
}

func kmeansPalette(img image.Image, k int) ([]weightedColor, error) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	// subsample large frames
	const maxSamples = 12000
	step := 1
	if width*height > maxSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, _ := img.At(x, y).RGBA()
			dataset = append(dataset, clusters.Coordinates{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(bl) / 65535.0,
			})
		}
	}
	if len(dataset) == 0 {
		return nil, nil
	}

	cc, err := kmeans.New().Partition(dataset, min(k, len(dataset)))
	if err != nil {
		return nil, err
	}

	out := make([]weightedColor, 0, len(cc))
	for _, cluster := range cc {
		if len(cluster.Observations) == 0 || len(cluster.Center) < 3 {
			continue
		}
		col := colorful.Color{R: cluster.Center[0], G: cluster.Center[1], B: cluster.Center[2]}
		out = append(out, weightedColor{
			col:    col,
			weight: float64(len(cluster.Observations)) / float64(len(dataset)),
		})
	}
	return out, nil
}
