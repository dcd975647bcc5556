package pyramid

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"sync"

	"github.com/xfmoulet/qoi"

	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
)

// NodeCache mirrors finished tile images in a cheap interim codec for the
// duration of one BuildXrayQuadtree run. Bottom-up node synthesis reads
// back every just-written child on its way to the root; re-decoding PNG
// for that hot, ephemeral read-back is wasted work, so finished images are
// also kept QOI-encoded in memory, a cheap interim codec distinct from the
// more expensive final on-disk format.
type NodeCache struct {
	mu   sync.Mutex
	data map[quadtree.NodeId][]byte
}

// NewNodeCache returns an empty cache.
func NewNodeCache() *NodeCache {
	return &NodeCache{data: make(map[quadtree.NodeId][]byte)}
}

// Put mirrors img into the cache under id.
func (c *NodeCache) Put(id quadtree.NodeId, img *image.RGBA) error {
	var buf bytes.Buffer
	if err := qoi.Encode(&buf, img); err != nil {
		return fmt.Errorf("pyramid: qoi-encode node cache entry %v: %w", id, err)
	}
	c.mu.Lock()
	c.data[id] = buf.Bytes()
	c.mu.Unlock()
	return nil
}

// Get returns the cached image for id, or ok=false if absent.
func (c *NodeCache) Get(id quadtree.NodeId) (img *image.RGBA, ok bool, err error) {
	c.mu.Lock()
	raw, present := c.data[id]
	c.mu.Unlock()
	if !present {
		return nil, false, nil
	}
	decoded, err := qoi.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, false, fmt.Errorf("pyramid: qoi-decode node cache entry %v: %w", id, err)
	}
	if rgba, ok := decoded.(*image.RGBA); ok {
		return rgba, true, nil
	}
	rgba := image.NewRGBA(decoded.Bounds())
	draw.Draw(rgba, rgba.Bounds(), decoded, decoded.Bounds().Min, draw.Src)
	return rgba, true, nil
}

// Delete drops id's cached entry, once no remaining ancestor can need it.
func (c *NodeCache) Delete(id quadtree.NodeId) {
	c.mu.Lock()
	delete(c.data, id)
	c.mu.Unlock()
}
