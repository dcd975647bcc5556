package pyramid

import (
	"image"
	"sync"
)

// rgbaPoolKey identifies a pool by image side length. A pyramid build only
// ever allocates two distinct square sizes: tile_size_px for leaves and
// node outputs, 2*tile_size_px for parent composites before downsampling,
// so the map stays tiny regardless of tree depth.
type rgbaPoolKey struct{ n int }

// rgbaPools maps side length to *sync.Pool of *image.RGBA. Every tile and
// composite this package allocates is square, so the key collapses to one
// dimension.
var rgbaPools sync.Map

// getPooledRGBA returns a zeroed, reused *image.RGBA of side n, or
// allocates a new one if the pool is empty.
func getPooledRGBA(n int) *image.RGBA {
	key := rgbaPoolKey{n}
	if p, ok := rgbaPools.Load(key); ok {
		if v := p.(*sync.Pool).Get(); v != nil {
			img := v.(*image.RGBA)
			clear(img.Pix)
			return img
		}
	}
	return image.NewRGBA(image.Rect(0, 0, n, n))
}

// putPooledRGBA returns img to its size-keyed pool for reuse. Callers must
// not touch img again afterward. Nil images are ignored.
func putPooledRGBA(img *image.RGBA) {
	if img == nil {
		return
	}
	n := img.Rect.Dx()
	if n != img.Rect.Dy() {
		return
	}
	key := rgbaPoolKey{n}
	p, _ := rgbaPools.LoadOrStore(key, &sync.Pool{})
	p.(*sync.Pool).Put(img)
}
