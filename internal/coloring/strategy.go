// Package coloring implements the four column-reduction policies that turn
// a batch of 3D points discretized into pixel columns into a single pixel
// color per touched column: X-ray point density, mean point color, mean
// intensity, and height standard deviation.
//
// Each strategy instance is owned by exactly one leaf rasterization task
// (see package rasterizer) and accumulates across every batch the source
// delivers for that tile before being asked, once, for each pixel's final
// color.
package coloring

import (
	"math"

	"github.com/fenwick-gis/xray-pyramid/internal/color"
	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

// NumZBuckets is the number of vertical bins a column's z-extent is split
// into; it bounds the saturation computed by the X-ray strategy.
const NumZBuckets = 1024

// ColumnKey addresses one pixel column.
type ColumnKey struct{ X, Y uint32 }

// DiscretizedPoint is a point's column (X, Y) and z-bucket index (Z).
type DiscretizedPoint struct{ X, Y, Z uint32 }

// Strategy is the column-reduction contract every coloring strategy
// implements. A fresh Strategy is constructed per leaf tile (see
// pyramid.StrategyFactory) and discarded once its tile's image is built.
type Strategy interface {
	// ProcessDiscretizedPointData accumulates one batch of already
	// discretized points.
	ProcessDiscretizedPointData(batch pointsource.PointsBatch, discretized []DiscretizedPoint)

	// GetPixelColor returns the final color for column (x, y), or ok=false
	// if the column was never touched.
	GetPixelColor(x, y uint32) (c color.Color[uint8], ok bool)

	// Attributes names the point attributes this strategy needs the
	// source to include, beyond position.
	Attributes() map[string]struct{}
}

// ProcessPointData is the strategy-independent shared implementation:
// discretize every point position into its (x, y, z-bucket) and forward
// to ProcessDiscretizedPointData.
//
// The y-axis is inverted so that world-y-up maps to image-row-down while
// preserving a right-handed world frame: row 0 is bbox.Max.Y, the last row
// is bbox.Min.Y.
func ProcessPointData(s Strategy, batch pointsource.PointsBatch, bbox geom.AABB, imageW, imageH uint32) {
	diag := bbox.Diag()
	discretized := make([]DiscretizedPoint, len(batch.Position))
	for i, pos := range batch.Position {
		x := uint32((pos.X - bbox.Min.X) / diag.X * float64(imageW))
		y := uint32((1 - (pos.Y-bbox.Min.Y)/diag.Y) * float64(imageH))
		z := uint32((pos.Z - bbox.Min.Z) / diag.Z * NumZBuckets)
		// A coordinate on the high edge (x or z at bbox.Max, y at bbox.Min)
		// lands one past the last index; clamp it back into range.
		x = min(x, imageW-1)
		y = min(y, imageH-1)
		z = min(z, NumZBuckets-1)
		discretized[i] = DiscretizedPoint{X: x, Y: y, Z: z}
	}
	s.ProcessDiscretizedPointData(batch, discretized)
}

// PerColumnData accumulates a running sum and count for one (column, bin)
// cell. V is float32 for the intensity strategy and color.Color[float32]
// for the point-color strategy.
type PerColumnData[V any] struct {
	Sum   V
	Count int
}

// OnlineStats is a Welford running mean/variance accumulator, used by the
// height-stddev strategy so accumulation is commutative under batch
// concatenation without storing every z value.
type OnlineStats struct {
	count int
	mean  float64
	m2    float64
}

// Add folds a new sample into the running statistics.
func (s *OnlineStats) Add(x float64) {
	s.count++
	delta := x - s.mean
	s.mean += delta / float64(s.count)
	delta2 := x - s.mean
	s.m2 += delta * delta2
}

// Stddev returns the population standard deviation of the samples seen so
// far, or 0 if fewer than 2 samples have been added.
func (s *OnlineStats) Stddev() float64 {
	if s.count < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.count))
}
