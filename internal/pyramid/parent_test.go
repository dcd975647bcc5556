package pyramid

import (
	"image"
	"image/color"
	"testing"

	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
)

func solidImage(n int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestBuildParentQuadrantPlacement(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	green := color.RGBA{G: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	yellow := color.RGBA{R: 255, G: 255, A: 255}

	var children [4]*image.RGBA
	children[quadtree.ChildSW] = solidImage(2, red)
	children[quadtree.ChildNW] = solidImage(2, green)
	children[quadtree.ChildSE] = solidImage(2, blue)
	children[quadtree.ChildNE] = solidImage(2, yellow)

	parent, err := BuildParent(children, color.RGBA{})
	if err != nil {
		t.Fatalf("BuildParent: %v", err)
	}
	if parent.Bounds().Dx() != 4 || parent.Bounds().Dy() != 4 {
		t.Fatalf("composite size = %v, want 4x4", parent.Bounds())
	}

	// ChildNW (index 1) -> (0,0); ChildSW (index 0) -> (0,N); ChildNE (index 3)
	// -> (N,0); ChildSE (index 2) -> (N,N), per this package's
	// ChildSW=0/ChildNW=1/ChildSE=2/ChildNE=3 constants.
	if c := parent.RGBAAt(0, 0); c != green {
		t.Errorf("NW quadrant = %v, want green", c)
	}
	if c := parent.RGBAAt(0, 2); c != red {
		t.Errorf("SW quadrant = %v, want red", c)
	}
	if c := parent.RGBAAt(2, 0); c != yellow {
		t.Errorf("NE quadrant = %v, want yellow", c)
	}
	if c := parent.RGBAAt(2, 2); c != blue {
		t.Errorf("SE quadrant = %v, want blue", c)
	}
}

func TestBuildParentMissingChildrenUseBackground(t *testing.T) {
	bg := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	var children [4]*image.RGBA
	children[quadtree.ChildNE] = solidImage(2, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	parent, err := BuildParent(children, bg)
	if err != nil {
		t.Fatalf("BuildParent: %v", err)
	}
	if c := parent.RGBAAt(0, 0); c != bg {
		t.Errorf("missing NW quadrant = %v, want background %v", c, bg)
	}
}

func TestBuildParentRejectsNoChildren(t *testing.T) {
	var children [4]*image.RGBA
	if _, err := BuildParent(children, color.RGBA{}); err == nil {
		t.Error("expected error when no children are present")
	}
}

func TestBuildParentRejectsMismatchedSizes(t *testing.T) {
	var children [4]*image.RGBA
	children[0] = solidImage(2, color.RGBA{})
	children[1] = solidImage(4, color.RGBA{})
	if _, err := BuildParent(children, color.RGBA{}); err == nil {
		t.Error("expected error when children have mismatched sizes")
	}
}

func TestBuildParentRejectsNonSquareChild(t *testing.T) {
	var children [4]*image.RGBA
	children[0] = image.NewRGBA(image.Rect(0, 0, 2, 4))
	if _, err := BuildParent(children, color.RGBA{}); err == nil {
		t.Error("expected error when a child is not square")
	}
}

func TestDownsampleLanczos3UniformChildIsIdempotent(t *testing.T) {
	bg := color.RGBA{R: 200, G: 100, B: 50, A: 255}
	var children [4]*image.RGBA
	children[quadtree.ChildNE] = solidImage(4, bg)
	children[quadtree.ChildSW] = solidImage(4, bg)
	children[quadtree.ChildNW] = solidImage(4, bg)
	children[quadtree.ChildSE] = solidImage(4, bg)

	parent, err := BuildParent(children, bg)
	if err != nil {
		t.Fatalf("BuildParent: %v", err)
	}
	down := DownsampleLanczos3(parent, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := down.RGBAAt(x, y)
			if absDiff(c.R, bg.R) > 2 || absDiff(c.G, bg.G) > 2 || absDiff(c.B, bg.B) > 2 {
				t.Errorf("pixel (%d,%d) = %v, want close to %v", x, y, c, bg)
			}
		}
	}
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
