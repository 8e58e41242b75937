// Package testvec writes quantized evaluation images for the hardware test bench.
package testvec

import (
	"errors"
	"fmt"
	"math"
)

const (
	ImageWidth  = 28
	ImageHeight = 28
	ImagePixels = ImageWidth * ImageHeight
	NumClasses  = 10
)

var (
	ErrInvalidImage   = errors.New("testvec: invalid image")
	ErrInvalidDataset = errors.New("testvec: invalid dataset")
)

// LabeledImage is one flattened 28x28 image in row-major order and its digit.
type LabeledImage struct {
	Pixels []float64 `json:"pixels"`
	Label  int       `json:"label"`
}

func (im LabeledImage) Validate() error {
	if len(im.Pixels) != ImagePixels {
		return fmt.Errorf("%w: %d pixels, expected %d", ErrInvalidImage, len(im.Pixels), ImagePixels)
	}
	if im.Label < 0 || im.Label >= NumClasses {
		return fmt.Errorf("%w: label %d not in [0,%d]", ErrInvalidImage, im.Label, NumClasses-1)
	}
	for i, p := range im.Pixels {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: pixel %d is %v", ErrInvalidImage, i, p)
		}
	}
	return nil
}
