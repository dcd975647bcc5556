// Package binning implements the auxiliary column-partitioning mechanism
// shared by the colored and intensity coloring strategies: points in the
// same pixel column are grouped by the floor of an attribute value divided
// by a bin size before averaging, so a dense cluster along one attribute
// value doesn't swamp the column's mean.
//
// The attribute dispatch uses a runtime type-switch over the decoded
// attribute value rather than reflection.
package binning

import (
	"math"

	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

// Binning names the attribute to partition by and the bin width. A nil
// Binning means every point shares bin key 0.
type Binning struct {
	AttributeName string
	BinSize       float64
}

// Keys computes the bin key for every point in batch. With b == nil, every
// point maps to key 0.
func Keys(b *Binning, batch pointsource.PointsBatch) []int64 {
	n := len(batch.Position)
	keys := make([]int64, n)
	if b == nil {
		return keys
	}
	attr, ok := batch.Attributes[b.AttributeName]
	if !ok {
		panic("binning: attribute " + b.AttributeName + " not present in points batch")
	}
	for i := 0; i < n && i < attr.Len(); i++ {
		keys[i] = int64(math.Floor(attr.ScalarAt(i) / b.BinSize))
	}
	return keys
}

// AttributeNames returns the set of attribute names b requires the source
// to deliver, or nil if b is nil.
func AttributeNames(b *Binning) []string {
	if b == nil {
		return nil
	}
	return []string{b.AttributeName}
}
