package binning

import (
	"testing"

	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

func pointsBatch(n int) pointsource.PointsBatch {
	return pointsource.PointsBatch{Position: make([]geom.Point3, n)}
}

func TestKeysNilBinningIsAllZero(t *testing.T) {
	batch := pointsBatch(5)
	keys := Keys(nil, batch)
	if len(keys) != 5 {
		t.Fatalf("len(keys) = %d, want 5", len(keys))
	}
	for i, k := range keys {
		if k != 0 {
			t.Errorf("keys[%d] = %d, want 0", i, k)
		}
	}
}

func TestKeysFloorsByBinSize(t *testing.T) {
	batch := pointsBatch(4)
	batch.Attributes = map[string]pointsource.AttributeData{
		"intensity": {Kind: pointsource.KindF32, F32: []float32{0, 4.9, 5, -0.1}},
	}
	b := &Binning{AttributeName: "intensity", BinSize: 5}
	keys := Keys(b, batch)
	want := []int64{0, 0, 1, -1}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %d, want %d", i, keys[i], want[i])
		}
	}
}

func TestAttributeNames(t *testing.T) {
	if names := AttributeNames(nil); names != nil {
		t.Errorf("AttributeNames(nil) = %v, want nil", names)
	}
	b := &Binning{AttributeName: "foo", BinSize: 1}
	names := AttributeNames(b)
	if len(names) != 1 || names[0] != "foo" {
		t.Errorf("AttributeNames = %v, want [foo]", names)
	}
}

func TestKeysPanicsOnMissingAttribute(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing attribute")
		}
	}()
	b := &Binning{AttributeName: "missing", BinSize: 1}
	Keys(b, pointsBatch(1))
}
