package printer

import (
	"image"
	"image/color"
)

// ditherMono converts an image to a pure black/white bitmap using
// Floyd-Steinberg error diffusion, which keeps photographic submissions
// legible on a thermal head that only knows "dot" and "no dot".
func ditherMono(src image.Image) *image.Gray {
	bounds := src.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Working luminance buffer in float space so diffused error survives.
	lum := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.GrayModel.Convert(src.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			lum[y*width+x] = float64(c.Y)
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			old := lum[y*width+x]
			var val float64
			if old >= 128 {
				val = 255
			}
			out.SetGray(x, y, color.Gray{Y: uint8(val)})

			err := old - val
			if x+1 < width {
				lum[y*width+x+1] += err * 7 / 16
			}
			if y+1 < height {
				if x > 0 {
					lum[(y+1)*width+x-1] += err * 3 / 16
				}
				lum[(y+1)*width+x] += err * 5 / 16
				if x+1 < width {
					lum[(y+1)*width+x+1] += err * 1 / 16
				}
			}
		}
	}

	return out
}
