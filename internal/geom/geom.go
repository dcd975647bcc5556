// Package geom holds the small amount of 3D geometry glue the rasterizer
// needs: points, axis-aligned boxes, and the rigid transform between the
// point cloud's global frame and a tile's query frame. Frustum culling and
// SAT intersection belong to a separate, unrelated visualization library
// and are out of scope here.
package geom

import "math"

// Point3 is a point in 3D space.
type Point3 struct {
	X, Y, Z float64
}

func (p Point3) Sub(o Point3) Point3 { return Point3{p.X - o.X, p.Y - o.Y, p.Z - o.Z} }
func (p Point3) Add(o Point3) Point3 { return Point3{p.X + o.X, p.Y + o.Y, p.Z + o.Z} }

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Point3
}

// NewAABB builds an AABB from two corners, normalizing min/max per axis.
func NewAABB(a, b Point3) AABB {
	return AABB{
		Min: Point3{math.Min(a.X, b.X), math.Min(a.Y, b.Y), math.Min(a.Z, b.Z)},
		Max: Point3{math.Max(a.X, b.X), math.Max(a.Y, b.Y), math.Max(a.Z, b.Z)},
	}
}

// Diag returns Max - Min.
func (b AABB) Diag() Point3 { return b.Max.Sub(b.Min) }

// Corners returns the 8 corners of the box, used to build an OBB when the
// box is carried into a rotated query frame.
func (b AABB) Corners() [8]Point3 {
	return [8]Point3{
		{b.Min.X, b.Min.Y, b.Min.Z}, {b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z}, {b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z}, {b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z}, {b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// Quaternion is a unit quaternion rotation (w,x,y,z).
type Quaternion struct {
	W, X, Y, Z float64
}

// Rotate applies the quaternion rotation to p.
func (q Quaternion) Rotate(p Point3) Point3 {
	// Standard quaternion-vector rotation: p' = q * p * q^-1, expanded.
	ux, uy, uz := q.X, q.Y, q.Z
	s := q.W

	crossX := uy*p.Z - uz*p.Y
	crossY := uz*p.X - ux*p.Z
	crossZ := ux*p.Y - uy*p.X

	t2x := 2 * crossX
	t2y := 2 * crossY
	t2z := 2 * crossZ

	cross2X := uy*t2z - uz*t2y
	cross2Y := uz*t2x - ux*t2z
	cross2Z := ux*t2y - uy*t2x

	return Point3{
		X: p.X + s*t2x + cross2X,
		Y: p.Y + s*t2y + cross2Y,
		Z: p.Z + s*t2z + cross2Z,
	}
}

// Inverse returns the conjugate rotation paired with the inverse translation.
func (iso Isometry3) Inverse() Isometry3 {
	invRot := Quaternion{W: iso.Rotation.W, X: -iso.Rotation.X, Y: -iso.Rotation.Y, Z: -iso.Rotation.Z}
	invTrans := invRot.Rotate(Point3{-iso.Translation.X, -iso.Translation.Y, -iso.Translation.Z})
	return Isometry3{Rotation: invRot, Translation: invTrans}
}

// Isometry3 is a rigid transform: rotate then translate.
type Isometry3 struct {
	Rotation    Quaternion
	Translation Point3
}

// Identity is the no-op isometry.
var Identity = Isometry3{Rotation: Quaternion{W: 1}}

// TransformPoint applies the isometry to a point.
func (iso Isometry3) TransformPoint(p Point3) Point3 {
	return iso.Rotation.Rotate(p).Add(iso.Translation)
}

// TransformAABB carries an AABB into a new frame, by transforming its
// corners and taking the new extremes. It is a free-standing function,
// not a method, so a single leaf's AABB can be transformed the same way
// the root bounding box is.
func TransformAABB(b AABB, iso Isometry3) AABB {
	corners := b.Corners()
	out := AABB{Min: iso.TransformPoint(corners[0]), Max: iso.TransformPoint(corners[0])}
	for _, c := range corners[1:] {
		t := iso.TransformPoint(c)
		out.Min.X = math.Min(out.Min.X, t.X)
		out.Min.Y = math.Min(out.Min.Y, t.Y)
		out.Min.Z = math.Min(out.Min.Z, t.Z)
		out.Max.X = math.Max(out.Max.X, t.X)
		out.Max.Y = math.Max(out.Max.Y, t.Y)
		out.Max.Z = math.Max(out.Max.Z, t.Z)
	}
	return out
}

// OBB is an oriented bounding box: an AABB paired with the isometry that
// carries it out of its own local frame into the frame it is queried in.
type OBB struct {
	Local     AABB
	FromLocal Isometry3
}

// ObbFromAABB builds the OBB that results from transforming bbox by
// globalFromQuery: the box the point source must intersect in its own
// (global) frame to cover a tile specified in query-frame coordinates.
func ObbFromAABB(bbox AABB, globalFromQuery Isometry3) OBB {
	return OBB{Local: bbox, FromLocal: globalFromQuery}
}

// ClosedInterval is an inclusive [Min, Max] numeric interval used for
// attribute filtering.
type ClosedInterval struct {
	Min, Max float64
}
