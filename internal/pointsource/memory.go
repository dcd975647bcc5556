package pointsource

import "github.com/fenwick-gis/xray-pyramid/internal/geom"

// MemorySource serves a pre-loaded point set from memory in fixed-size
// batches, filtering by the query's spatial clause and, where declared,
// its attribute intervals. It is the in-process stand-in for a real
// point-cloud client (an octree-backed store, a remote service, ...).
type MemorySource struct {
	Bounds     geom.AABB
	Position   []geom.Point3
	Attributes map[string]AttributeData
	BatchSize  int
}

// BoundingBox returns the source's global bounding box.
func (m *MemorySource) BoundingBox() geom.AABB { return m.Bounds }

// ForEachPointData streams points matching query in BatchSize chunks.
func (m *MemorySource) ForEachPointData(query PointQuery, fn func(PointsBatch) error) error {
	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = 1 << 16
	}

	var idx []int
	for i, p := range m.Position {
		if !locationContains(query.Location, p) {
			continue
		}
		if !withinFilters(m.Attributes, query.FilterIntervals, i) {
			continue
		}
		idx = append(idx, i)
	}

	for start := 0; start < len(idx); start += batchSize {
		end := start + batchSize
		if end > len(idx) {
			end = len(idx)
		}
		chunk := idx[start:end]

		batch := PointsBatch{
			Position:   make([]geom.Point3, len(chunk)),
			Attributes: make(map[string]AttributeData, len(query.Attributes)),
		}
		for j, i := range chunk {
			batch.Position[j] = m.Position[i]
		}
		for _, name := range query.Attributes {
			src, ok := m.Attributes[name]
			if !ok {
				continue
			}
			batch.Attributes[name] = sliceAttribute(src, chunk)
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

func locationContains(loc PointLocation, p geom.Point3) bool {
	switch {
	case loc.AABB != nil:
		b := loc.AABB
		return p.X >= b.Min.X && p.X < b.Max.X && p.Y >= b.Min.Y && p.Y < b.Max.Y
	case loc.OBB != nil:
		local := loc.OBB.FromLocal.Inverse().TransformPoint(p)
		b := loc.OBB.Local
		return local.X >= b.Min.X && local.X < b.Max.X && local.Y >= b.Min.Y && local.Y < b.Max.Y
	default:
		return true
	}
}

func withinFilters(attrs map[string]AttributeData, filters map[string]geom.ClosedInterval, i int) bool {
	for name, interval := range filters {
		a, ok := attrs[name]
		if !ok || i >= a.Len() {
			continue
		}
		v := a.ScalarAt(i)
		if v < interval.Min || v > interval.Max {
			return false
		}
	}
	return true
}

func sliceAttribute(a AttributeData, idx []int) AttributeData {
	switch a.Kind {
	case KindU8:
		out := make([]uint8, len(idx))
		for j, i := range idx {
			out[j] = a.U8[i]
		}
		return AttributeData{Kind: KindU8, U8: out}
	case KindU8Vec3:
		out := make([][3]uint8, len(idx))
		for j, i := range idx {
			out[j] = a.U8V3[i]
		}
		return AttributeData{Kind: KindU8Vec3, U8V3: out}
	case KindF32:
		out := make([]float32, len(idx))
		for j, i := range idx {
			out[j] = a.F32[i]
		}
		return AttributeData{Kind: KindF32, F32: out}
	case KindF64:
		out := make([]float64, len(idx))
		for j, i := range idx {
			out[j] = a.F64[i]
		}
		return AttributeData{Kind: KindF64, F64: out}
	case KindI64:
		out := make([]int64, len(idx))
		for j, i := range idx {
			out[j] = a.I64[i]
		}
		return AttributeData{Kind: KindI64, I64: out}
	default:
		return AttributeData{}
	}
}
