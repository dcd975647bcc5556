// Package rasterizer turns one tile's worth of point-cloud data into an RGBA
// image by streaming matching points through a coloring strategy. Each call
// is one independent unit of work, owning its own accumulator state, driven
// entirely by blocking I/O on its input.
package rasterizer

import (
	"image"
	"image/color"

	"github.com/fenwick-gis/xray-pyramid/internal/coloring"
	"github.com/fenwick-gis/xray-pyramid/internal/geom"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

// Params configures one RasterizeTile call. The configured background color
// is not applied here: a freshly rasterized tile is transparent wherever no
// point touched a column; substituting the opaque background for those
// pixels is a separate pass (see pyramid.fillBackgroundInPlace) run once
// the tile is on disk.
type Params struct {
	Client          pointsource.Client
	QueryFromGlobal *geom.Isometry3
	FilterIntervals map[string]geom.ClosedInterval
}

// RasterizeTile rasterizes one tile. bbox is in the query frame; imageSize
// is the side length of the (square) output image in pixels. strategy must
// be freshly constructed for this call: it accumulates state across every
// batch the source delivers.
//
// Returns (nil, nil) if no points fell within bbox. This is not an error,
// it just means the tile produces no file. Point-source
// iteration errors are swallowed, so the returned error is always nil;
// encoding the image, and any error that raises, is the caller's
// responsibility.
func RasterizeTile(bbox geom.AABB, imageSize uint32, strategy coloring.Strategy, p Params) (*image.RGBA, error) {
	attrSet := make(map[string]struct{}, len(strategy.Attributes())+len(p.FilterIntervals))
	for name := range strategy.Attributes() {
		attrSet[name] = struct{}{}
	}
	for name := range p.FilterIntervals {
		attrSet[name] = struct{}{}
	}
	attrs := make([]string, 0, len(attrSet))
	for name := range attrSet {
		attrs = append(attrs, name)
	}

	query := pointsource.PointQuery{
		Attributes:      attrs,
		FilterIntervals: p.FilterIntervals,
	}
	if p.QueryFromGlobal != nil {
		globalFromQuery := p.QueryFromGlobal.Inverse()
		obb := geom.ObbFromAABB(bbox, globalFromQuery)
		query.Location = pointsource.PointLocation{OBB: &obb}
	} else {
		b := bbox
		query.Location = pointsource.PointLocation{AABB: &b}
	}

	seenAny := false
	_ = p.Client.ForEachPointData(query, func(batch pointsource.PointsBatch) error {
		if p.QueryFromGlobal != nil {
			for i, pos := range batch.Position {
				batch.Position[i] = p.QueryFromGlobal.TransformPoint(pos)
			}
		}
		coloring.ProcessPointData(strategy, batch, bbox, imageSize, imageSize)
		seenAny = true
		return nil
	})
	if !seenAny {
		return nil, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, int(imageSize), int(imageSize)))
	for y := uint32(0); y < imageSize; y++ {
		for x := uint32(0); x < imageSize; x++ {
			c, ok := strategy.GetPixelColor(x, y)
			if !ok {
				continue
			}
			img.SetRGBA(int(x), int(y), color.RGBA{R: c.Red, G: c.Green, B: c.Blue, A: c.Alpha})
		}
	}
	return img, nil
}
