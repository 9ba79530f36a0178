package classifier

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// Tensor layouts for the model input
const (
	LayoutNHWC = "nhwc"
	LayoutNCHW = "nchw"
)

// Preprocess resizes img to size×size and returns RGB values normalised to
// [0,1] in the requested layout.
func Preprocess(img image.Image, size int, layout string) ([]float32, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid image size %d", size)
	}
	if layout != LayoutNHWC && layout != LayoutNCHW {
		return nil, fmt.Errorf("unknown input layout %q", layout)
	}

	resized := resize.Resize(uint(size), uint(size), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height

	const channels = 3
	inputData := make([]float32, channels*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			pixelIndex := y*width + x
			if layout == LayoutNCHW {
				inputData[pixelIndex] = rNorm
				inputData[plane+pixelIndex] = gNorm
				inputData[2*plane+pixelIndex] = bNorm
			} else {
				inputData[pixelIndex*channels] = rNorm
				inputData[pixelIndex*channels+1] = gNorm
				inputData[pixelIndex*channels+2] = bNorm
			}
		}
	}

	return inputData, nil
}

// InputShape returns the tensor shape for a single image in the given layout
func InputShape(size int, layout string) []int64 {
	s := int64(size)
	if layout == LayoutNCHW {
		return []int64{1, 3, s, s}
	}
	return []int64{1, s, s, 3}
}
