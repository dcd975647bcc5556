package coloring

import (
	"testing"

	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

func discretize(xs, ys, zs []uint32) []DiscretizedPoint {
	out := make([]DiscretizedPoint, len(xs))
	for i := range xs {
		out[i] = DiscretizedPoint{X: xs[i], Y: ys[i], Z: zs[i]}
	}
	return out
}

func TestIntensityNegativeAbortsRestOfBatch(t *testing.T) {
	s := NewIntensity(0, 10, nil)
	batch := pointsource.PointsBatch{
		Position: []geom.Point3{{}, {}, {}},
		Attributes: map[string]pointsource.AttributeData{
			"intensity": {Kind: pointsource.KindF32, F32: []float32{5, -1, 8}},
		},
	}
	s.ProcessDiscretizedPointData(batch, discretize([]uint32{2, 2, 3}, []uint32{2, 2, 3}, []uint32{0, 0, 0}))

	if _, ok := s.GetPixelColor(2, 2); !ok {
		t.Error("column (2,2) should have accumulated the point before the negative sample")
	}
	if _, ok := s.GetPixelColor(3, 3); ok {
		t.Error("column (3,3), after the negative sample in the same batch, should stay untouched")
	}
}

func TestIntensityLaterBatchesUnaffected(t *testing.T) {
	s := NewIntensity(0, 10, nil)
	batch1 := pointsource.PointsBatch{
		Position:   []geom.Point3{{}},
		Attributes: map[string]pointsource.AttributeData{"intensity": {Kind: pointsource.KindF32, F32: []float32{-1}}},
	}
	s.ProcessDiscretizedPointData(batch1, discretize([]uint32{1}, []uint32{1}, []uint32{0}))

	batch2 := pointsource.PointsBatch{
		Position:   []geom.Point3{{}},
		Attributes: map[string]pointsource.AttributeData{"intensity": {Kind: pointsource.KindF32, F32: []float32{4}}},
	}
	s.ProcessDiscretizedPointData(batch2, discretize([]uint32{5}, []uint32{5}, []uint32{0}))

	if _, ok := s.GetPixelColor(5, 5); !ok {
		t.Error("a later batch should still be accumulated after an earlier batch's negative abort")
	}
}

func TestIntensityClampsToRange(t *testing.T) {
	s := NewIntensity(0, 10, nil)
	batch := pointsource.PointsBatch{
		Position:   []geom.Point3{{}},
		Attributes: map[string]pointsource.AttributeData{"intensity": {Kind: pointsource.KindF32, F32: []float32{100}}},
	}
	s.ProcessDiscretizedPointData(batch, discretize([]uint32{0}, []uint32{0}, []uint32{0}))
	c, ok := s.GetPixelColor(0, 0)
	if !ok {
		t.Fatal("expected column to be touched")
	}
	// mean clamps to Max=10, so brighten = ln(10-0)/ln(10-0) = 1 -> full white.
	if c.Red != 255 {
		t.Errorf("clamped-to-max intensity = %+v, want opaque white", c)
	}
}

func TestIntensityPanicsWithoutAttribute(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when intensity attribute is missing")
		}
	}()
	s := NewIntensity(0, 10, nil)
	s.ProcessDiscretizedPointData(pointsource.PointsBatch{Position: []geom.Point3{{}}}, discretize([]uint32{0}, []uint32{0}, []uint32{0}))
}
