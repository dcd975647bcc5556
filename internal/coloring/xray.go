package coloring

import (
	"math"

	"github.com/fenwick-gis/xray-pyramid/internal/color"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

// XRay accumulates distinct z-bucket indices per column. A column's
// saturation is the log-density of occupied buckets, so adding a point at
// a new z-bucket never brightens the pixel (monotone density -> monotone
// darkness).
type XRay struct {
	zBuckets      map[ColumnKey]map[uint32]struct{}
	maxSaturation float64
}

// NewXRay constructs a fresh X-ray strategy for one leaf tile.
func NewXRay() *XRay {
	return &XRay{
		zBuckets:      make(map[ColumnKey]map[uint32]struct{}),
		maxSaturation: math.Log(NumZBuckets),
	}
}

func (s *XRay) ProcessDiscretizedPointData(_ pointsource.PointsBatch, discretized []DiscretizedPoint) {
	for _, d := range discretized {
		key := ColumnKey{X: d.X, Y: d.Y}
		buckets, ok := s.zBuckets[key]
		if !ok {
			buckets = make(map[uint32]struct{})
			s.zBuckets[key] = buckets
		}
		buckets[d.Z] = struct{}{}
	}
}

func (s *XRay) GetPixelColor(x, y uint32) (color.Color[uint8], bool) {
	buckets, ok := s.zBuckets[ColumnKey{X: x, Y: y}]
	if !ok {
		return color.Color[uint8]{}, false
	}
	saturation := math.Log(float64(len(buckets))) / s.maxSaturation
	value := uint8(math.Round((1 - saturation) * 255))
	return color.Color[uint8]{Red: value, Green: value, Blue: value, Alpha: 255}, true
}

func (s *XRay) Attributes() map[string]struct{} { return nil }
