// Command xray-pyramid builds an X-ray image pyramid from a point cloud:
// discretize points into pixel columns, reduce each column to a color
// under a chosen strategy, then stitch and down-sample leaves into a
// quadtree of PNG (or WebP) tiles plus a metadata descriptor.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/fenwick-gis/xray-pyramid/internal/binning"
	xraycolor "github.com/fenwick-gis/xray-pyramid/internal/color"
	"github.com/fenwick-gis/xray-pyramid/internal/coloring"
	"github.com/fenwick-gis/xray-pyramid/internal/colormap"
	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
	"github.com/fenwick-gis/xray-pyramid/internal/pyramid"
	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
	"github.com/fenwick-gis/xray-pyramid/internal/sysinfo"
	"github.com/fenwick-gis/xray-pyramid/internal/tileio"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	var (
		strategyName string
		tileSize     int
		pixelSize    float64
		background   string
		binAttribute string
		binSize      float64
		minIntensity float64
		maxIntensity float64
		maxStddev    float64
		colormapName string
		format       string
		quality      int
		concurrency  int
		rootLevel    int
		rootIndex    uint64
		verbose      bool
		showVersion  bool
		cpuProfile   string
		memProfile   string
		memBudget    float64
	)

	flag.StringVar(&strategyName, "strategy", "xray", "Coloring strategy: xray, colored, intensity, heightstddev")
	flag.IntVar(&tileSize, "tile-size", 256, "Tile side length in pixels")
	flag.Float64Var(&pixelSize, "pixel-size", 1.0, "World meters per pixel at the deepest level")
	flag.StringVar(&background, "background", "white", "Tile background: white, transparent")
	flag.StringVar(&binAttribute, "bin-attribute", "", "Attribute name to bin by before averaging (colored/intensity only; empty disables binning)")
	flag.Float64Var(&binSize, "bin-size", 1.0, "Bin width for -bin-attribute")
	flag.Float64Var(&minIntensity, "min-intensity", 0, "Intensity strategy: clamp floor")
	flag.Float64Var(&maxIntensity, "max-intensity", 1, "Intensity strategy: clamp ceiling")
	flag.Float64Var(&maxStddev, "max-stddev", 1, "Height-stddev strategy: world-z stddev that saturates the colormap")
	flag.StringVar(&colormapName, "colormap", "jet", "Height-stddev strategy colormap: jet, purplish")
	flag.StringVar(&format, "format", "png", "Tile encoding: png, webp")
	flag.IntVar(&quality, "quality", 90, "WebP quality 1-100 (ignored for png)")
	flag.IntVar(&concurrency, "concurrency", runtime.NumCPU(), "Number of parallel workers per phase")
	flag.IntVar(&rootLevel, "root-level", 0, "Level of the sub-root to build (0 = whole pyramid)")
	flag.Uint64Var(&rootIndex, "root-index", 0, "Index of the sub-root within its level")
	flag.BoolVar(&verbose, "verbose", false, "Verbose progress output")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.StringVar(&cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	flag.StringVar(&memProfile, "memprofile", "", "Write memory profile to file")
	flag.Float64Var(&memBudget, "mem-budget-percent", sysinfo.DefaultMemoryPressurePercent, "Fraction of system RAM the node cache should stay under before warning")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: xray-pyramid [flags] <points.xyz> <output-dir>\n\n")
		fmt.Fprintf(os.Stderr, "Rasterize a georeferenced point cloud into an X-ray tile pyramid.\n\n")
		fmt.Fprintf(os.Stderr, "The input file is whitespace-separated columns: x y z, optionally\n")
		fmt.Fprintf(os.Stderr, "followed by intensity, or r g b (0-255), matching -strategy.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("xray-pyramid %s (commit %s, built %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			log.Fatalf("Creating CPU profile: %v", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Starting CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
	}
	if memProfile != "" {
		defer func() {
			f, err := os.Create(memProfile)
			if err != nil {
				log.Fatalf("Creating memory profile: %v", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				log.Fatalf("Writing memory profile: %v", err)
			}
		}()
	}

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(1)
	}
	inputPath, outputDir := args[0], args[1]

	bg, err := parseBackground(background)
	if err != nil {
		log.Fatalf("Background: %v", err)
	}

	var bin *binning.Binning
	if binAttribute != "" {
		bin = &binning.Binning{AttributeName: binAttribute, BinSize: binSize}
	}

	newStrategy, filterIntervals, err := resolveStrategy(strategyName, bin, float32(minIntensity), float32(maxIntensity), float32(maxStddev), colormapName)
	if err != nil {
		log.Fatalf("Strategy: %v", err)
	}

	enc, err := tileio.NewEncoder(format, quality)
	if err != nil {
		log.Fatalf("Encoder: %v", err)
	}

	start := time.Now()
	source, err := loadPointSource(inputPath, strategyName, bin)
	if err != nil {
		log.Fatalf("Loading points: %v", err)
	}
	if verbose {
		log.Printf("Loaded %d points from %s in %v", len(source.Position), inputPath, time.Since(start).Round(time.Millisecond))
	}

	if budget := sysinfo.ComputeMemoryLimit(memBudget, verbose); budget > 0 {
		estimate := estimateNodeCacheBytes(source.Bounds, tileSize, pixelSize)
		if estimate > budget {
			log.Printf("WARNING: estimated node cache footprint (%.1f GB) exceeds the %.0f%% RAM budget (%.1f GB); "+
				"this build keeps every leaf resident until its parent is built and does not spill to disk",
				float64(estimate)/(1<<30), memBudget*100, float64(budget)/(1<<30))
		}
	}

	fmt.Printf("xray-pyramid %s (commit %s, built %s)\n", version, commit, buildDate)
	fmt.Printf("  %-14s %s\n", "Strategy:", strategyName)
	fmt.Printf("  %-14s %dpx\n", "Tile size:", tileSize)
	fmt.Printf("  %-14s %g m\n", "Pixel size:", pixelSize)
	fmt.Printf("  %-14s %s\n", "Background:", background)
	fmt.Printf("  %-14s %s\n", "Format:", format)
	fmt.Printf("  %-14s %d\n", "Concurrency:", concurrency)
	fmt.Printf("  %-14s %s\n", "Output:", outputDir)

	descriptor, err := pyramid.BuildXrayQuadtree(pyramid.XrayParameters{
		OutputDirectory:     outputDir,
		Client:              source,
		FilterIntervals:     filterIntervals,
		TileBackgroundColor: bg,
		TileSizePx:          uint32(tileSize),
		PixelSizeM:          pixelSize,
		RootNodeId:          quadtree.NodeId{Level: uint8(rootLevel), Index: rootIndex},
		NewStrategy:         newStrategy,
		Encoder:             enc,
		Concurrency:         concurrency,
		Verbose:             verbose,
	})
	if err != nil {
		log.Fatalf("Building pyramid: %v", err)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	fmt.Printf("Done: %d node(s), deepest level %d, %v → %s\n",
		len(descriptor.Nodes), descriptor.DeepestLevel, elapsed, outputDir)
}

// resolveStrategy maps the -strategy flag and its supporting parameters to
// a StrategyFactory plus the filter intervals that strategy implies (none
// of these four strategies require a filter interval by default; this
// hook exists so future strategies and CLI filter flags share one path).
func resolveStrategy(name string, bin *binning.Binning, minIntensity, maxIntensity, maxStddev float32, colormapName string) (pyramid.StrategyFactory, map[string]geom.ClosedInterval, error) {
	switch strings.ToLower(name) {
	case "xray":
		return func() coloring.Strategy { return coloring.NewXRay() }, nil, nil
	case "colored":
		return func() coloring.Strategy { return coloring.NewColored(bin) }, nil, nil
	case "intensity":
		return func() coloring.Strategy { return coloring.NewIntensity(minIntensity, maxIntensity, bin) }, nil, nil
	case "heightstddev":
		cm, err := resolveColormap(colormapName)
		if err != nil {
			return nil, nil, err
		}
		return func() coloring.Strategy { return coloring.NewHeightStddev(cm, float64(maxStddev)) }, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown strategy %q (expected xray, colored, intensity, heightstddev)", name)
	}
}

func resolveColormap(name string) (colormap.Colormap, error) {
	switch strings.ToLower(name) {
	case "jet":
		return colormap.Jet{}, nil
	case "purplish":
		return colormap.Purplish, nil
	default:
		return nil, fmt.Errorf("unknown colormap %q (expected jet, purplish)", name)
	}
}

// parseBackground decodes the named background preset into a concrete
// RGBA color.
func parseBackground(name string) (color.RGBA, error) {
	switch strings.ToLower(name) {
	case "white":
		c := xraycolor.ToU8(xraycolor.White)
		return color.RGBA{R: c.Red, G: c.Green, B: c.Blue, A: c.Alpha}, nil
	case "transparent":
		c := xraycolor.ToU8(xraycolor.Transparent)
		return color.RGBA{R: c.Red, G: c.Green, B: c.Blue, A: c.Alpha}, nil
	default:
		return color.RGBA{}, fmt.Errorf("unknown background %q (expected white, transparent)", name)
	}
}

// loadPointSource reads a whitespace-separated points file into an
// in-memory point source. Columns beyond x y z are interpreted according
// to the chosen strategy: "intensity" expects a 4th float column,
// "colored" expects 3 trailing 0-255 integer columns.
func loadPointSource(path, strategyName string, bin *binning.Binning) (*pointsource.MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	wantColor := strings.EqualFold(strategyName, "colored")
	wantIntensity := strings.EqualFold(strategyName, "intensity")
	wantBin := bin != nil

	var positions []geom.Point3
	var intensity []float32
	var colors [][3]uint8
	var binValues []float64

	hasMin := false
	var bounds geom.AABB

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, fmt.Errorf("line %d: expected at least 3 columns, got %d", lineNo, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: x: %w", lineNo, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: y: %w", lineNo, err)
		}
		z, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: z: %w", lineNo, err)
		}
		p := geom.Point3{X: x, Y: y, Z: z}
		positions = append(positions, p)
		if !hasMin {
			bounds = geom.AABB{Min: p, Max: p}
			hasMin = true
		} else {
			bounds = geom.NewAABB(geom.Point3{
				X: minF(bounds.Min.X, p.X), Y: minF(bounds.Min.Y, p.Y), Z: minF(bounds.Min.Z, p.Z),
			}, geom.Point3{
				X: maxF(bounds.Max.X, p.X), Y: maxF(bounds.Max.Y, p.Y), Z: maxF(bounds.Max.Z, p.Z),
			})
		}

		col := 3
		if wantIntensity {
			if len(fields) <= col {
				return nil, fmt.Errorf("line %d: missing intensity column", lineNo)
			}
			v, err := strconv.ParseFloat(fields[col], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: intensity: %w", lineNo, err)
			}
			intensity = append(intensity, float32(v))
			col++
		}
		if wantColor {
			if len(fields) < col+3 {
				return nil, fmt.Errorf("line %d: missing r g b columns", lineNo)
			}
			var rgb [3]uint8
			for k := 0; k < 3; k++ {
				v, err := strconv.Atoi(fields[col+k])
				if err != nil || v < 0 || v > 255 {
					return nil, fmt.Errorf("line %d: color component %q out of range", lineNo, fields[col+k])
				}
				rgb[k] = uint8(v)
			}
			colors = append(colors, rgb)
			col += 3
		}
		if wantBin {
			if len(fields) <= col {
				return nil, fmt.Errorf("line %d: missing %q bin column", lineNo, bin.AttributeName)
			}
			v, err := strconv.ParseFloat(fields[col], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", lineNo, bin.AttributeName, err)
			}
			binValues = append(binValues, v)
			col++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no points read from %s", path)
	}

	attrs := make(map[string]pointsource.AttributeData)
	if wantIntensity {
		attrs["intensity"] = pointsource.AttributeData{Kind: pointsource.KindF32, F32: intensity}
	}
	if wantColor {
		attrs["color"] = pointsource.AttributeData{Kind: pointsource.KindU8Vec3, U8V3: colors}
	}
	if wantBin {
		attrs[bin.AttributeName] = pointsource.AttributeData{Kind: pointsource.KindF64, F64: binValues}
	}

	return &pointsource.MemorySource{
		Bounds:     bounds,
		Position:   positions,
		Attributes: attrs,
		BatchSize:  1 << 16,
	}, nil
}

// estimateNodeCacheBytes approximates the peak resident size of
// pyramid.NodeCache for a planned build: one QOI-ish encoded tile per
// leaf, roughly half the raw RGBA size.
func estimateNodeCacheBytes(bounds geom.AABB, tileSize int, pixelSize float64) int64 {
	diag := bounds.Diag()
	_, levels := quadtree.FindBoundingRectAndLevels(bounds.Min.X, bounds.Min.Y, diag.X, diag.Y, uint32(tileSize), pixelSize)
	leafCount := int64(1)
	for i := uint8(0); i < levels; i++ {
		leafCount *= 4
	}
	bytesPerLeaf := int64(tileSize) * int64(tileSize) * 4 / 2
	return leafCount * bytesPerLeaf
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
