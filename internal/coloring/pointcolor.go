package coloring

import (
	"github.com/fenwick-gis/xray-pyramid/internal/binning"
	"github.com/fenwick-gis/xray-pyramid/internal/color"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

// Colored colors each column by the mean of its "color" attribute (an RGB
// point color, u8-per-channel), optionally binned first like Intensity so a
// dense bin doesn't dominate the column average. Alpha is forced to fully
// opaque on every input sample; only RGB is averaged.
type Colored struct {
	Binning   *binning.Binning
	perColumn map[ColumnKey]map[int64]PerColumnData[color.Color[float32]]
}

// NewColored constructs a fresh point-color strategy, binned by b (nil for
// unbinned).
func NewColored(b *binning.Binning) *Colored {
	return &Colored{
		Binning:   b,
		perColumn: make(map[ColumnKey]map[int64]PerColumnData[color.Color[float32]]),
	}
}

func (s *Colored) ProcessDiscretizedPointData(batch pointsource.PointsBatch, discretized []DiscretizedPoint) {
	attr, ok := batch.Attributes["color"]
	if !ok || attr.Kind != pointsource.KindU8Vec3 {
		panic("coloring: colored strategy requires point data with a \"color\" attribute")
	}
	bins := binning.Keys(s.Binning, batch)

	for i, rgb := range attr.U8V3 {
		key := ColumnKey{X: discretized[i].X, Y: discretized[i].Y}
		byBin, ok := s.perColumn[key]
		if !ok {
			byBin = make(map[int64]PerColumnData[color.Color[float32]])
			s.perColumn[key] = byBin
		}
		c := color.ToF32(color.Color[uint8]{Red: rgb[0], Green: rgb[1], Blue: rgb[2], Alpha: 255})
		c.Alpha = 1
		cell := byBin[bins[i]]
		cell.Sum = cell.Sum.Add(c)
		cell.Count++
		byBin[bins[i]] = cell
	}
}

func (s *Colored) GetPixelColor(x, y uint32) (color.Color[uint8], bool) {
	byBin, ok := s.perColumn[ColumnKey{X: x, Y: y}]
	if !ok {
		return color.Color[uint8]{}, false
	}
	var sumOfMeans color.Color[float32]
	for _, cell := range byBin {
		sumOfMeans = sumOfMeans.Add(cell.Sum.DivScalar(float32(cell.Count)))
	}
	avg := sumOfMeans.DivScalar(float32(len(byBin)))
	return color.ToU8(avg), true
}

func (s *Colored) Attributes() map[string]struct{} {
	attrs := map[string]struct{}{"color": {}}
	for _, name := range binning.AttributeNames(s.Binning) {
		attrs[name] = struct{}{}
	}
	return attrs
}
