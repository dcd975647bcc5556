package pyramid

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"sync"

	"github.com/fenwick-gis/xray-pyramid/internal/coloring"
	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/layout"
	"github.com/fenwick-gis/xray-pyramid/internal/meta"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
	"github.com/fenwick-gis/xray-pyramid/internal/progress"
	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
	"github.com/fenwick-gis/xray-pyramid/internal/rasterizer"
	"github.com/fenwick-gis/xray-pyramid/internal/tileio"
)

// StrategyFactory constructs a fresh coloring strategy for one leaf tile.
// A factory, not a shared instance, because every leaf owns independent
// accumulator state.
type StrategyFactory func() coloring.Strategy

// XrayParameters configures one pyramid build.
type XrayParameters struct {
	OutputDirectory     string
	Client              pointsource.Client
	QueryFromGlobal     *geom.Isometry3
	FilterIntervals     map[string]geom.ClosedInterval
	TileBackgroundColor color.RGBA
	TileSizePx          uint32
	PixelSizeM          float64
	RootNodeId          quadtree.NodeId
	NewStrategy         StrategyFactory
	Encoder             tileio.Encoder
	Concurrency         int
	Verbose             bool
}

// BuildXrayQuadtree runs the full pipeline: plan the footprint, rasterize
// every leaf, fill leaf backgrounds, synthesize every ancestor bottom-up,
// and write the metadata descriptor.
func BuildXrayQuadtree(p XrayParameters) (meta.Descriptor, error) {
	if err := os.MkdirAll(p.OutputDirectory, 0o755); err != nil {
		return meta.Descriptor{}, fmt.Errorf("pyramid: create output directory: %w", err)
	}

	globalBbox := p.Client.BoundingBox()
	queryBbox := globalBbox
	if p.QueryFromGlobal != nil {
		queryBbox = geom.TransformAABB(globalBbox, *p.QueryFromGlobal)
	}

	diag := queryBbox.Diag()
	rootRect, deepestLevel := quadtree.FindBoundingRectAndLevels(
		queryBbox.Min.X, queryBbox.Min.Y, diag.X, diag.Y, p.TileSizePx, p.PixelSizeM)

	if p.RootNodeId.Level > deepestLevel {
		return meta.Descriptor{}, fmt.Errorf("pyramid: specified root node id is outside quadtree")
	}

	root := quadtree.NodeFromIdAndRootRect(p.RootNodeId, rootRect)
	leaves, err := quadtree.NodesAtLevel(root, deepestLevel)
	if err != nil {
		return meta.Descriptor{}, fmt.Errorf("pyramid: enumerate leaves: %w", err)
	}

	cache := NewNodeCache()
	emitted, err := rasterizeLeaves(p, leaves, queryBbox, cache)
	if err != nil {
		return meta.Descriptor{}, err
	}
	if p.Verbose {
		log.Printf("pyramid: rasterized %d/%d leaves", len(emitted), len(leaves))
	}

	if err := fillLeafBackgrounds(p, emitted); err != nil {
		return meta.Descriptor{}, err
	}

	allNodes := append([]quadtree.NodeId(nil), emitted...)
	current := emitted
	for level := int(deepestLevel) - 1; level >= int(root.Id.Level); level-- {
		parents := parentIdsOf(current)
		built, err := synthesizeLevel(p, parents, cache)
		if err != nil {
			return meta.Descriptor{}, err
		}
		if p.Verbose {
			log.Printf("pyramid: synthesized %d/%d nodes at level %d", len(built), len(parents), level)
		}
		allNodes = append(allNodes, built...)
		current = built
	}

	descriptor := meta.Descriptor{
		Nodes:        allNodes,
		BoundingRect: root.BoundingRect,
		TileSizePx:   p.TileSizePx,
		DeepestLevel: deepestLevel,
	}
	encoded, err := descriptor.Encode()
	if err != nil {
		return meta.Descriptor{}, fmt.Errorf("pyramid: encode metadata: %w", err)
	}
	if err := os.WriteFile(layout.MetaPath(p.OutputDirectory, p.RootNodeId), encoded, 0o644); err != nil {
		return meta.Descriptor{}, fmt.Errorf("pyramid: write metadata: %w", err)
	}
	return descriptor, nil
}

// parentIdsOf returns the deduplicated set of parent ids of ids.
func parentIdsOf(ids []quadtree.NodeId) []quadtree.NodeId {
	seen := make(map[quadtree.NodeId]struct{})
	var out []quadtree.NodeId
	for _, id := range ids {
		parent, ok := id.ParentId()
		if !ok {
			continue
		}
		if _, dup := seen[parent]; dup {
			continue
		}
		seen[parent] = struct{}{}
		out = append(out, parent)
	}
	return out
}

// rasterizeLeaves runs phase P1: one task per leaf, in parallel, fail-fast
// on the first error.
func rasterizeLeaves(p XrayParameters, leaves []quadtree.Node, queryBbox geom.AABB, cache *NodeCache) ([]quadtree.NodeId, error) {
	jobs := make(chan quadtree.Node, concurrency(p)*2)
	errCh := make(chan error, 1)
	var mu sync.Mutex
	var emitted []quadtree.NodeId
	var wg sync.WaitGroup

	bar := progress.New("Rasterize", int64(len(leaves)))
	for w := 0; w < concurrency(p); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for leaf := range jobs {
				if len(errCh) > 0 {
					// An earlier leaf failed: drain the remaining jobs unprocessed.
					bar.Skip()
					continue
				}
				leafBbox := geom.AABB{
					Min: geom.Point3{X: leaf.BoundingRect.OriginX, Y: leaf.BoundingRect.OriginY, Z: queryBbox.Min.Z},
					Max: geom.Point3{X: leaf.BoundingRect.OriginX + leaf.BoundingRect.Edge, Y: leaf.BoundingRect.OriginY + leaf.BoundingRect.Edge, Z: queryBbox.Max.Z},
				}
				img, err := rasterizer.RasterizeTile(leafBbox, p.TileSizePx, p.NewStrategy(), rasterizer.Params{
					Client:          p.Client,
					QueryFromGlobal: p.QueryFromGlobal,
					FilterIntervals: p.FilterIntervals,
				})
				if err != nil {
					select {
					case errCh <- fmt.Errorf("pyramid: rasterize leaf %v: %w", leaf.Id, err):
					default:
					}
					bar.Skip()
					continue
				}
				if img == nil {
					// No points fell within this leaf's column (spec.md §7):
					// not an error, just no tile to write.
					bar.Skip()
					continue
				}
				if err := writeTile(p, leaf.Id, img); err != nil {
					select {
					case errCh <- err:
					default:
					}
					bar.Skip()
					continue
				}
				if err := cache.Put(leaf.Id, img); err != nil {
					select {
					case errCh <- err:
					default:
					}
					bar.Skip()
					continue
				}
				mu.Lock()
				emitted = append(emitted, leaf.Id)
				mu.Unlock()
				putPooledRGBA(img)
				bar.Emit()
			}
		}()
	}
	for _, leaf := range leaves {
		jobs <- leaf
	}
	close(jobs)
	wg.Wait()
	bar.Finish()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	return emitted, nil
}

// fillLeafBackgrounds runs phase P2 over every emitted leaf.
func fillLeafBackgrounds(p XrayParameters, emitted []quadtree.NodeId) error {
	jobs := make(chan quadtree.NodeId, concurrency(p)*2)
	errCh := make(chan error, 1)
	var wg sync.WaitGroup

	bar := progress.New("Background fill", int64(len(emitted)))
	for w := 0; w < concurrency(p); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := fillTileBackground(p, id); err != nil {
					select {
					case errCh <- err:
					default:
					}
				}
				bar.Increment()
			}
		}()
	}
	for _, id := range emitted {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	bar.Finish()

	select {
	case err := <-errCh:
		return err
	default:
	}
	return nil
}

func fillTileBackground(p XrayParameters, id quadtree.NodeId) error {
	path := layout.ImagePath(p.OutputDirectory, id, p.Encoder.FileExtension())
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pyramid: read leaf %v for background fill: %w", id, err)
	}
	decoded, err := tileio.DecodeImage(data, p.Encoder.Format())
	if err != nil {
		return fmt.Errorf("pyramid: decode leaf %v for background fill: %w", id, err)
	}
	rgba, ok := decoded.(*image.RGBA)
	if !ok {
		b := decoded.Bounds()
		rgba = image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgba.Set(x, y, decoded.At(x, y))
			}
		}
	}
	fillBackgroundInPlace(rgba, p.TileBackgroundColor)
	return writeTile(p, id, rgba)
}

// synthesizeLevel runs one level of phase P3: one task per parent id, in
// parallel. A node with no present children is simply skipped, not an
// error; a read, composite or write error from buildNode is returned once
// the level's workers have finished.
func synthesizeLevel(p XrayParameters, parents []quadtree.NodeId, cache *NodeCache) ([]quadtree.NodeId, error) {
	jobs := make(chan quadtree.NodeId, concurrency(p)*2)
	errCh := make(chan error, 1)
	var mu sync.Mutex
	var built []quadtree.NodeId
	var wg sync.WaitGroup

	bar := progress.New("Synthesize", int64(len(parents)))
	for w := 0; w < concurrency(p); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				ok, err := buildNode(p, id, cache)
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					bar.Skip()
					continue
				}
				if !ok {
					// None of this node's 4 children were ever emitted.
					bar.Skip()
					continue
				}
				mu.Lock()
				built = append(built, id)
				mu.Unlock()
				bar.Emit()
			}
		}()
	}
	for _, id := range parents {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
	bar.Finish()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	return built, nil
}

// buildNode reads each present child from the node cache, composites,
// downsamples, and writes the result. Returns ok=false if every child
// was absent.
func buildNode(p XrayParameters, id quadtree.NodeId, cache *NodeCache) (bool, error) {
	var children [4]*image.RGBA
	present := 0
	for ci := quadtree.ChildIndex(0); ci < 4; ci++ {
		childId := id.GetChildId(ci)
		img, ok, err := cache.Get(childId)
		if err != nil {
			return false, fmt.Errorf("pyramid: read child %v of %v: %w", childId, id, err)
		}
		if ok {
			children[ci] = img
			present++
		}
	}
	if present == 0 {
		return false, nil
	}

	parent, err := BuildParent(children, p.TileBackgroundColor)
	if err != nil {
		return false, fmt.Errorf("pyramid: build parent %v: %w", id, err)
	}
	for _, c := range children {
		putPooledRGBA(c)
	}
	downsampled := DownsampleLanczos3(parent, int(p.TileSizePx))
	putPooledRGBA(parent)

	if err := writeTile(p, id, downsampled); err != nil {
		return false, err
	}
	if err := cache.Put(id, downsampled); err != nil {
		return false, err
	}
	putPooledRGBA(downsampled)
	for ci := quadtree.ChildIndex(0); ci < 4; ci++ {
		cache.Delete(id.GetChildId(ci))
	}
	return true, nil
}

func writeTile(p XrayParameters, id quadtree.NodeId, img *image.RGBA) error {
	data, err := p.Encoder.Encode(img)
	if err != nil {
		return fmt.Errorf("pyramid: encode tile %v: %w", id, err)
	}
	if err := os.WriteFile(layout.ImagePath(p.OutputDirectory, id, p.Encoder.FileExtension()), data, 0o644); err != nil {
		return fmt.Errorf("pyramid: write tile %v: %w", id, err)
	}
	return nil
}

func concurrency(p XrayParameters) int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return 1
}
