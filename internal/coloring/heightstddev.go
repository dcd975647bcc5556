package coloring

import (
	"github.com/fenwick-gis/xray-pyramid/internal/color"
	"github.com/fenwick-gis/xray-pyramid/internal/colormap"
	"github.com/fenwick-gis/xray-pyramid/internal/pointsource"
)

// HeightStddev colors each column by the standard deviation of its points'
// world-space z, scaled into [0,1] by MaxStddev and mapped through a
// Colormap. It needs no attribute beyond position, so Attributes is empty.
type HeightStddev struct {
	Colormap  colormap.Colormap
	MaxStddev float64
	perColumn map[ColumnKey]*OnlineStats
}

// NewHeightStddev constructs a fresh height-stddev strategy. cm maps the
// normalized stddev to a color; maxStddev is the world-z stddev, in source
// units, that saturates the colormap at 1.
func NewHeightStddev(cm colormap.Colormap, maxStddev float64) *HeightStddev {
	return &HeightStddev{
		Colormap:  cm,
		MaxStddev: maxStddev,
		perColumn: make(map[ColumnKey]*OnlineStats),
	}
}

func (s *HeightStddev) ProcessDiscretizedPointData(batch pointsource.PointsBatch, discretized []DiscretizedPoint) {
	for i, pos := range batch.Position {
		key := ColumnKey{X: discretized[i].X, Y: discretized[i].Y}
		stats, ok := s.perColumn[key]
		if !ok {
			stats = &OnlineStats{}
			s.perColumn[key] = stats
		}
		stats.Add(pos.Z)
	}
}

func (s *HeightStddev) GetPixelColor(x, y uint32) (color.Color[uint8], bool) {
	stats, ok := s.perColumn[ColumnKey{X: x, Y: y}]
	if !ok {
		return color.Color[uint8]{}, false
	}
	stddev := stats.Stddev()
	if stddev < 0 {
		stddev = 0
	}
	if stddev > s.MaxStddev {
		stddev = s.MaxStddev
	}
	saturation := float32(stddev / s.MaxStddev)
	return s.Colormap.ForValue(saturation), true
}

func (s *HeightStddev) Attributes() map[string]struct{} { return nil }
