// Package layout fixes the deterministic on-disk paths for emitted tile
// images and metadata: one file per addressable node, named by its
// coordinate.
package layout

import (
	"fmt"
	"path/filepath"

	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
)

// ImagePath returns the deterministic path of a node's tile image under
// dir, with the given file extension (e.g. ".png", ".webp").
func ImagePath(dir string, id quadtree.NodeId, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%d_%d%s", id.Level, id.Index, ext))
}

// MetaPath returns the path of the metadata descriptor for the pyramid
// rooted at id, under dir.
func MetaPath(dir string, id quadtree.NodeId) string {
	return filepath.Join(dir, fmt.Sprintf("%d_%d.meta", id.Level, id.Index))
}
