// Package pyramid builds the quadtree image pyramid on top of package
// rasterizer's leaves: compositing 4 children into a parent tile and
// driving the phase-parallel build across an entire tree.
package pyramid

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
)

// BuildParent composites up to 4 child tiles (indexed by quadtree.ChildIndex)
// into one 2N×2N image, filled with bg wherever no child covers a pixel. At
// least one child must be present, and every present child must be square
// and share the same side length. The result is not resampled: callers
// downsample with DownsampleLanczos3 themselves.
func BuildParent(children [4]*image.RGBA, bg color.RGBA) (*image.RGBA, error) {
	n := -1
	present := 0
	for _, c := range children {
		if c == nil {
			continue
		}
		present++
		b := c.Bounds()
		if b.Dx() != b.Dy() {
			return nil, fmt.Errorf("pyramid: expected width to be equal to height")
		}
		if n == -1 {
			n = b.Dx()
		} else if b.Dx() != n {
			return nil, fmt.Errorf("pyramid: not all images have the same size")
		}
	}
	if present == 0 {
		return nil, fmt.Errorf("pyramid: no children passed to build_parent")
	}

	dst := getPooledRGBA(2 * n)
	fillBackground(dst, bg)

	for ci, c := range children {
		if c == nil {
			continue
		}
		ox, oy := quadrantPixelOffset(quadtree.ChildIndex(ci), n)
		pasteAt(dst, c, ox, oy)
	}
	return dst, nil
}

// quadrantPixelOffset returns the pixel offset of child ci's quadrant within
// a 2n×2n parent image: 1->(0,0), 0->(0,n), 3->(n,0), 2->(n,n).
// This must stay in lockstep with package quadtree's world-space child
// placement: bit 1 (east/west) picks the pixel column, bit 0 (north/south)
// picks the pixel row inverted, since image rows grow downward while world
// y grows upward.
func quadrantPixelOffset(ci quadtree.ChildIndex, n int) (x, y int) {
	if ci == quadtree.ChildSE || ci == quadtree.ChildNE {
		x = n
	}
	if ci == quadtree.ChildSW || ci == quadtree.ChildSE {
		y = n
	}
	return x, y
}

func fillBackground(dst *image.RGBA, bg color.RGBA) {
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetRGBA(x, y, bg)
		}
	}
}

func pasteAt(dst *image.RGBA, src *image.RGBA, ox, oy int) {
	b := src.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.SetRGBA(ox+x, oy+y, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
}

// lanczos3Kernel is the 3-lobe Lanczos resampling kernel: x/image/draw
// ships NearestNeighbor, ApproxBiLinear, BiLinear, and CatmullRom but no
// Lanczos variant, so this wires a custom draw.Kernel.
var lanczos3Kernel = draw.Kernel{Support: 3, At: lanczos3}

func lanczos3(x float64) float64 {
	if x == 0 {
		return 1
	}
	const a = 3
	if x < -a || x > a {
		return 0
	}
	px := math.Pi * x
	return a * math.Sin(px) * math.Sin(px/a) / (px * px)
}

// DownsampleLanczos3 resamples src (assumed square, side 2N) down to a
// square image of side N using the Lanczos3 kernel.
func DownsampleLanczos3(src *image.RGBA, n int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, n, n))
	lanczos3Kernel.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
