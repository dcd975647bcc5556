// Command xray-preview loads one emitted pyramid node's tile image and
// re-encodes it as WebP for quick viewing, without driving the full
// pyramid build.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fenwick-gis/xray-pyramid/internal/layout"
	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
	"github.com/fenwick-gis/xray-pyramid/internal/tileio"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintf(os.Stderr, "Usage: xray-preview <tile-dir> <level>_<index> <out.webp>\n")
		os.Exit(1)
	}
	dir := os.Args[1]
	nodeArg := os.Args[2]
	outPath := os.Args[3]

	id, err := parseNodeId(nodeArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(layout.ImagePath(dir, id, ".png"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading tile: %v\n", err)
		os.Exit(1)
	}
	img, err := tileio.DecodeImage(data, "png")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding tile: %v\n", err)
		os.Exit(1)
	}

	enc, err := tileio.NewEncoder("webp", 90)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	encoded, err := enc.Encode(img)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error re-encoding as webp: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outPath, err)
		os.Exit(1)
	}
	b := img.Bounds()
	fmt.Printf("node %v: %dx%d -> %s (%d bytes)\n", id, b.Dx(), b.Dy(), outPath, len(encoded))
}

// parseNodeId parses a "level_index" argument into a quadtree.NodeId.
func parseNodeId(s string) (quadtree.NodeId, error) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return quadtree.NodeId{}, fmt.Errorf("expected <level>_<index>, got %q", s)
	}
	level, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return quadtree.NodeId{}, fmt.Errorf("level: %w", err)
	}
	index, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return quadtree.NodeId{}, fmt.Errorf("index: %w", err)
	}
	return quadtree.NodeId{Level: uint8(level), Index: index}, nil
}
