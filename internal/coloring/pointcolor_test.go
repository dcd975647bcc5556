package coloring

import (
	"testing"

	"github.com/fenwick-gis/xray-pyramid/internal/binning"
	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

func TestColoredAveragesRGB(t *testing.T) {
	s := NewColored(nil)
	batch := pointsource.PointsBatch{
		Position: []geom.Point3{{}, {}},
		Attributes: map[string]pointsource.AttributeData{
			"color": {Kind: pointsource.KindU8Vec3, U8V3: [][3]uint8{{0, 0, 0}, {255, 255, 255}}},
		},
	}
	s.ProcessDiscretizedPointData(batch, discretize([]uint32{1, 1}, []uint32{1, 1}, []uint32{0, 0}))

	c, ok := s.GetPixelColor(1, 1)
	if !ok {
		t.Fatal("expected column to be touched")
	}
	if c.Red != 128 || c.Green != 128 || c.Blue != 128 {
		t.Errorf("mean of black+white = %+v, want mid-gray", c)
	}
	if c.Alpha != 255 {
		t.Errorf("alpha = %d, want 255 (forced opaque)", c.Alpha)
	}
}

func TestColoredBinInvarianceWhenAllPointsShareOneBin(t *testing.T) {
	colorAttr := pointsource.AttributeData{Kind: pointsource.KindU8Vec3, U8V3: [][3]uint8{{10, 10, 10}, {20, 20, 20}, {30, 30, 30}}}
	d := discretize([]uint32{0, 0, 0}, []uint32{0, 0, 0}, []uint32{0, 0, 0})

	unbinned := NewColored(nil)
	unbinned.ProcessDiscretizedPointData(pointsource.PointsBatch{
		Position:   []geom.Point3{{}, {}, {}},
		Attributes: map[string]pointsource.AttributeData{"color": colorAttr},
	}, d)

	// All three points' bin-attribute values floor to the same key under
	// this bin size, so this is a "single-bin configuration".
	binned := NewColored(&binning.Binning{AttributeName: "seg", BinSize: 100})
	binned.ProcessDiscretizedPointData(pointsource.PointsBatch{
		Position: []geom.Point3{{}, {}, {}},
		Attributes: map[string]pointsource.AttributeData{
			"color": colorAttr,
			"seg":   {Kind: pointsource.KindF64, F64: []float64{1, 2, 3}},
		},
	}, d)

	want, _ := unbinned.GetPixelColor(0, 0)
	got, _ := binned.GetPixelColor(0, 0)
	if got != want {
		t.Errorf("single-bin configuration = %+v, want %+v (bin-invariance)", got, want)
	}
}

func TestColoredPanicsWithoutAttribute(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic when color attribute is missing")
		}
	}()
	s := NewColored(nil)
	s.ProcessDiscretizedPointData(pointsource.PointsBatch{Position: []geom.Point3{{}}}, discretize([]uint32{0}, []uint32{0}, []uint32{0}))
}
