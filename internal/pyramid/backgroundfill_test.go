package pyramid

import (
	"image"
	"image/color"
	"testing"
)

func TestFillBackgroundInPlaceThresholdIsMidpoint(t *testing.T) {
	bg := color.RGBA{R: 9, G: 9, B: 9, A: 255}
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 127}) // below threshold
	img.SetRGBA(1, 0, color.RGBA{R: 1, G: 2, B: 3, A: 128}) // at/above threshold

	fillBackgroundInPlace(img, bg)

	if c := img.RGBAAt(0, 0); c != bg {
		t.Errorf("alpha 127 pixel = %v, want background %v", c, bg)
	}
	if c := img.RGBAAt(1, 0); c == bg {
		t.Errorf("alpha 128 pixel was overwritten, want it left as is")
	}
}
