package coloring

import (
	"math"

	"github.com/fenwick-gis/xray-pyramid/internal/binning"
	"github.com/fenwick-gis/xray-pyramid/internal/color"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

// Intensity colors each column by the mean of its "intensity" attribute,
// optionally binned first by another attribute so a dense bin doesn't
// dominate the column average.
type Intensity struct {
	Min, Max   float32
	Binning    *binning.Binning
	perColumn  map[ColumnKey]map[int64]PerColumnData[float32]
}

// NewIntensity constructs a fresh intensity strategy clamped to [min, max].
func NewIntensity(min, max float32, b *binning.Binning) *Intensity {
	return &Intensity{
		Min:       min,
		Max:       max,
		Binning:   b,
		perColumn: make(map[ColumnKey]map[int64]PerColumnData[float32]),
	}
}

// ProcessDiscretizedPointData accumulates intensity sums/counts per
// (column, bin). A negative intensity aborts processing of the rest of
// this batch: later points in the batch are dropped, but accumulation
// already applied for earlier points in the same batch stands, and later
// batches are unaffected.
func (s *Intensity) ProcessDiscretizedPointData(batch pointsource.PointsBatch, discretized []DiscretizedPoint) {
	attr, ok := batch.Attributes["intensity"]
	if !ok {
		panic("coloring: intensity strategy requires point data with an \"intensity\" attribute")
	}
	bins := binning.Keys(s.Binning, batch)

	for i, v := range attr.F32 {
		if v < 0 {
			return
		}
		key := ColumnKey{X: discretized[i].X, Y: discretized[i].Y}
		byBin, ok := s.perColumn[key]
		if !ok {
			byBin = make(map[int64]PerColumnData[float32])
			s.perColumn[key] = byBin
		}
		cell := byBin[bins[i]]
		cell.Sum += v
		cell.Count++
		byBin[bins[i]] = cell
	}
}

func (s *Intensity) GetPixelColor(x, y uint32) (color.Color[uint8], bool) {
	byBin, ok := s.perColumn[ColumnKey{X: x, Y: y}]
	if !ok {
		return color.Color[uint8]{}, false
	}
	var sumOfMeans float32
	for _, cell := range byBin {
		sumOfMeans += cell.Sum / float32(cell.Count)
	}
	mean := sumOfMeans / float32(len(byBin))
	if mean < s.Min {
		mean = s.Min
	}
	if mean > s.Max {
		mean = s.Max
	}
	brighten := float32(math.Log(float64(mean-s.Min)) / math.Log(float64(s.Max-s.Min)))
	c := color.Color[float32]{Red: brighten, Green: brighten, Blue: brighten, Alpha: 1}
	return color.ToU8(c), true
}

func (s *Intensity) Attributes() map[string]struct{} {
	attrs := map[string]struct{}{"intensity": {}}
	for _, name := range binning.AttributeNames(s.Binning) {
		attrs[name] = struct{}{}
	}
	return attrs
}
