// Package meta serializes the pyramid's metadata descriptor: the set of
// emitted node ids, the root bounding rect, tile size, and deepest level.
// The descriptor has a variable-length node list, so it's wrapped in zstd
// rather than held to a fixed byte count.
package meta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/fenwick-gis/xray-pyramid/internal/quadtree"
)

const magic = "XRAYMETA"

// Descriptor is the pyramid build's metadata: every emitted node, the root
// footprint, and the parameters needed to reconstruct tile paths.
type Descriptor struct {
	Nodes        []quadtree.NodeId
	BoundingRect quadtree.Rect
	TileSizePx   uint32
	DeepestLevel uint8
}

// Encode serializes d into the zstd-compressed binary format.
func (d Descriptor) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(magic)

	if err := binary.Write(&buf, binary.LittleEndian, d.BoundingRect.OriginX); err != nil {
		return nil, fmt.Errorf("meta: encode origin x: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, d.BoundingRect.OriginY); err != nil {
		return nil, fmt.Errorf("meta: encode origin y: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, d.BoundingRect.Edge); err != nil {
		return nil, fmt.Errorf("meta: encode edge: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, d.TileSizePx); err != nil {
		return nil, fmt.Errorf("meta: encode tile size: %w", err)
	}
	if err := buf.WriteByte(d.DeepestLevel); err != nil {
		return nil, fmt.Errorf("meta: encode deepest level: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint64(len(d.Nodes))); err != nil {
		return nil, fmt.Errorf("meta: encode node count: %w", err)
	}
	for _, n := range d.Nodes {
		if err := buf.WriteByte(n.Level); err != nil {
			return nil, fmt.Errorf("meta: encode node level: %w", err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, n.Index); err != nil {
			return nil, fmt.Errorf("meta: encode node index: %w", err)
		}
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("meta: new zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(buf.Bytes(), nil), nil
}

// Decode parses the zstd-compressed binary format produced by Encode.
func Decode(data []byte) (Descriptor, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return Descriptor{}, fmt.Errorf("meta: new zstd decoder: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return Descriptor{}, fmt.Errorf("meta: zstd decode: %w", err)
	}

	r := bytes.NewReader(raw)
	gotMagic := make([]byte, len(magic))
	if _, err := io.ReadFull(r, gotMagic); err != nil {
		return Descriptor{}, fmt.Errorf("meta: read magic: %w", err)
	}
	if string(gotMagic) != magic {
		return Descriptor{}, fmt.Errorf("meta: bad magic %q", gotMagic)
	}

	var d Descriptor
	if err := binary.Read(r, binary.LittleEndian, &d.BoundingRect.OriginX); err != nil {
		return Descriptor{}, fmt.Errorf("meta: read origin x: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &d.BoundingRect.OriginY); err != nil {
		return Descriptor{}, fmt.Errorf("meta: read origin y: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &d.BoundingRect.Edge); err != nil {
		return Descriptor{}, fmt.Errorf("meta: read edge: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &d.TileSizePx); err != nil {
		return Descriptor{}, fmt.Errorf("meta: read tile size: %w", err)
	}
	level, err := r.ReadByte()
	if err != nil {
		return Descriptor{}, fmt.Errorf("meta: read deepest level: %w", err)
	}
	d.DeepestLevel = level

	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return Descriptor{}, fmt.Errorf("meta: read node count: %w", err)
	}
	d.Nodes = make([]quadtree.NodeId, count)
	for i := range d.Nodes {
		lvl, err := r.ReadByte()
		if err != nil {
			return Descriptor{}, fmt.Errorf("meta: read node %d level: %w", i, err)
		}
		var idx uint64
		if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
			return Descriptor{}, fmt.Errorf("meta: read node %d index: %w", i, err)
		}
		d.Nodes[i] = quadtree.NodeId{Level: lvl, Index: idx}
	}
	return d, nil
}
