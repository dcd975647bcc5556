package coloring

import (
	"math"
	"testing"

	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

func TestXRaySinglePointAtSingleZBucket(t *testing.T) {
	s := NewXRay()
	bbox := geom.AABB{Min: geom.Point3{}, Max: geom.Point3{X: 1, Y: 1, Z: 1}}
	batch := pointsource.PointsBatch{Position: []geom.Point3{{X: 0.5, Y: 0.5, Z: 0.5}}}

	ProcessPointData(s, batch, bbox, 4, 4)

	c, ok := s.GetPixelColor(2, 2)
	if !ok {
		t.Fatal("expected column (2,2) to be touched")
	}
	if c.Red != 255 || c.Green != 255 || c.Blue != 255 || c.Alpha != 255 {
		t.Errorf("single point at one z-bucket = %+v, want opaque white", c)
	}
}

func TestXRaySaturatesToBlack(t *testing.T) {
	s := NewXRay()
	bbox := geom.AABB{Min: geom.Point3{}, Max: geom.Point3{X: 1, Y: 1, Z: 1}}
	positions := make([]geom.Point3, NumZBuckets)
	for k := range positions {
		positions[k] = geom.Point3{X: 0.5, Y: 0.5, Z: float64(k) / NumZBuckets}
	}
	batch := pointsource.PointsBatch{Position: positions}

	ProcessPointData(s, batch, bbox, 4, 4)

	c, ok := s.GetPixelColor(2, 2)
	if !ok {
		t.Fatal("expected column to be touched")
	}
	if c.Red != 0 {
		t.Errorf("fully saturated column = %+v, want black", c)
	}
}

func TestXRayMonotoneDensity(t *testing.T) {
	s := NewXRay()
	bbox := geom.AABB{Min: geom.Point3{}, Max: geom.Point3{X: 1, Y: 1, Z: 1}}

	ProcessPointData(s, pointsource.PointsBatch{Position: []geom.Point3{{X: 0.5, Y: 0.5, Z: 0.1}}}, bbox, 4, 4)
	first, _ := s.GetPixelColor(2, 2)

	ProcessPointData(s, pointsource.PointsBatch{Position: []geom.Point3{{X: 0.5, Y: 0.5, Z: 0.9}}}, bbox, 4, 4)
	second, _ := s.GetPixelColor(2, 2)

	if second.Red > first.Red {
		t.Errorf("adding a point at a new z-bucket brightened the pixel: %d -> %d", first.Red, second.Red)
	}
}

func TestXRayUntouchedColumnIsAbsent(t *testing.T) {
	s := NewXRay()
	if _, ok := s.GetPixelColor(0, 0); ok {
		t.Error("untouched column should report ok=false")
	}
}

func TestXRayPixelRangeInvariant(t *testing.T) {
	s := NewXRay()
	bbox := geom.AABB{Min: geom.Point3{}, Max: geom.Point3{X: 10, Y: 10, Z: 10}}
	batch := pointsource.PointsBatch{Position: []geom.Point3{
		{X: 0, Y: 0, Z: 0}, {X: 9.9, Y: 9.9, Z: 9.9}, {X: 5, Y: 5, Z: 5},
	}}
	ProcessPointData(s, batch, bbox, 8, 8)
	for key := range s.zBuckets {
		if key.X >= 8 || key.Y >= 8 {
			t.Errorf("pixel key %+v out of [0,8) range", key)
		}
	}
}

func TestXRayYInversion(t *testing.T) {
	s := NewXRay()
	bbox := geom.AABB{Min: geom.Point3{}, Max: geom.Point3{X: 1, Y: 1, Z: 1}}

	ProcessPointData(s, pointsource.PointsBatch{Position: []geom.Point3{{X: 0.1, Y: 0, Z: 0.1}}}, bbox, 4, 4)
	if _, ok := s.GetPixelColor(0, 3); !ok {
		t.Error("world y=min should map to the last image row")
	}

	s2 := NewXRay()
	ProcessPointData(s2, pointsource.PointsBatch{Position: []geom.Point3{{X: 0.1, Y: 0.999, Z: 0.1}}}, bbox, 4, 4)
	if _, ok := s2.GetPixelColor(0, 0); !ok {
		t.Error("world y near max should map to image row 0")
	}
}

func TestMaxSaturationMatchesLogNumZBuckets(t *testing.T) {
	s := NewXRay()
	if math.Abs(s.maxSaturation-math.Log(1024)) > 1e-9 {
		t.Errorf("maxSaturation = %v, want ln(1024)", s.maxSaturation)
	}
}
