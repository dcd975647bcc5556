package pyramid

import (
	"image"
	"image/color"
)

// fillBackgroundInPlace replaces every pixel whose alpha is below 128 with
// the opaque configured background, leaving all other pixels untouched.
// The threshold is the midpoint, chosen to absorb any partial
// transparency a prior pass introduced.
func fillBackgroundInPlace(img *image.RGBA, bg color.RGBA) {
	pix := img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		if pix[i+3] < 128 {
			pix[i+0] = bg.R
			pix[i+1] = bg.G
			pix[i+2] = bg.B
			pix[i+3] = bg.A
		}
	}
}
