// Package pointsource defines the point-cloud client contract the
// rasterizer queries against, and AttributeData, the runtime-typed
// per-attribute array format points arrive in.
//
// The point-source client itself (bulk point iteration, the global
// bounding box, spatial indexing) is an external collaborator; this
// package only fixes the interface and ships one concrete in-process
// implementation (MemorySource) so the pipeline is runnable end-to-end.
package pointsource

import (
	"fmt"

	"github.com/fenwick-gis/xray-pyramid/internal/geom"
)

// AttributeData is a runtime-typed 1D attribute array. Exactly one of the
// typed fields is populated; Kind says which.
type AttributeData struct {
	Kind AttributeKind
	U8   []uint8
	U8V3 [][3]uint8
	F32  []float32
	F64  []float64
	I64  []int64
}

// AttributeKind tags which field of AttributeData is populated.
type AttributeKind int

const (
	KindU8 AttributeKind = iota
	KindU8Vec3
	KindF32
	KindF64
	KindI64
)

// Len returns the number of entries in the populated array.
func (a AttributeData) Len() int {
	switch a.Kind {
	case KindU8:
		return len(a.U8)
	case KindU8Vec3:
		return len(a.U8V3)
	case KindF32:
		return len(a.F32)
	case KindF64:
		return len(a.F64)
	case KindI64:
		return len(a.I64)
	default:
		return 0
	}
}

// ScalarAt dispatches to the populated 1D scalar array and returns element i
// as a float64. Used by package binning, which needs to divide an
// arbitrarily-typed attribute by a bin size; U8Vec3 has no scalar form and
// panics if addressed this way.
func (a AttributeData) ScalarAt(i int) float64 {
	switch a.Kind {
	case KindU8:
		return float64(a.U8[i])
	case KindF32:
		return float64(a.F32[i])
	case KindF64:
		return a.F64[i]
	case KindI64:
		return float64(a.I64[i])
	default:
		panic(fmt.Sprintf("pointsource: attribute kind %v has no 1D scalar form", a.Kind))
	}
}

// PointsBatch is a chunk of points streamed from the source: positions plus
// whichever requested attributes the source was able to supply.
type PointsBatch struct {
	Position   []geom.Point3
	Attributes map[string]AttributeData
}

// PointLocation is the spatial clause of a PointQuery: either an AABB in
// the source's native frame, or an OBB (an AABB transformed by a rigid
// isometry out of the query frame).
type PointLocation struct {
	AABB *geom.AABB
	OBB  *geom.OBB
}

// PointQuery describes one rasterizer pass against the point source.
type PointQuery struct {
	Attributes      []string
	Location        PointLocation
	FilterIntervals map[string]geom.ClosedInterval
}

// Client is the point-cloud source contract: a global bounding box and a
// streaming query. Implementations may return a non-nil error from
// ForEachPointData after having already delivered some batches; such
// errors are non-fatal to the caller and batches already processed
// still count.
type Client interface {
	BoundingBox() geom.AABB
	ForEachPointData(query PointQuery, fn func(PointsBatch) error) error
}
