// Package wadtest builds small in-memory WAD archives for tests.
package wadtest

import (
	"bytes"
	"encoding/binary"
)

// Raw lump records, laid out exactly as on disk.

type Vertex struct {
	X, Y int16
}

type Line struct {
	V1, V2       uint16
	Flags        uint16
	Special      uint16
	Tag          uint16
	SideR, SideL uint16
}

type Side struct {
	XOffset, YOffset                          int16
	UpperTexture, LowerTexture, MiddleTexture [8]byte
	Sector                                    uint16
}

type Seg struct {
	V1, V2 uint16
	Angle  uint16
	Line   uint16
	Side   uint16
	Offset int16
}

type Subsector struct {
	NumSegs  uint16
	FirstSeg uint16
}

// Box is a node bounding box in lump order.
type Box struct {
	Top, Bottom, Left, Right int16
}

type Node struct {
	X, Y, DX, DY int16
	Box0, Box1   Box
	Child0       uint16
	Child1       uint16
}

type Sector struct {
	Floor, Ceiling         int16
	FloorFlat, CeilingFlat [8]byte
	Light, Type, Tag       uint16
}

// Leaf marks a node child as a subsector index.
const Leaf = 0x8000

// Name8 pads a lump or texture name to eight bytes.
func Name8(s string) [8]byte {
	var n [8]byte
	copy(n[:], s)
	return n
}

// Encode writes records little-endian.
func Encode(v any) []byte {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, v); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Level is the lump group of one level. A nil Things slice leaves the THINGS
// lump out.
type Level struct {
	Things     []byte
	Lines      []Line
	Sides      []Side
	Vertexes   []Vertex
	Segs       []Seg
	Subsectors []Subsector
	Nodes      []Node
	Sectors    []Sector
}

type lump struct {
	name [8]byte
	data []byte
}

// Builder assembles an archive. Lumps are stored in the order they are added.
type Builder struct {
	magic string
	lumps []lump
}

func New(magic string) *Builder {
	return &Builder{magic: magic}
}

// Lump appends a named lump.
func (b *Builder) Lump(name string, data []byte) *Builder {
	b.lumps = append(b.lumps, lump{Name8(name), data})
	return b
}

// RawLump appends a lump with an exact eight byte name, for names that are
// not NUL padded.
func (b *Builder) RawLump(name [8]byte, data []byte) *Builder {
	b.lumps = append(b.lumps, lump{name, data})
	return b
}

// Level appends a level marker followed by the level's lumps in archive order.
func (b *Builder) Level(name string, l Level) *Builder {
	b.Lump(name, nil)
	if l.Things != nil {
		b.Lump("THINGS", l.Things)
	}
	b.Lump("LINEDEFS", Encode(nonNil(l.Lines)))
	b.Lump("SIDEDEFS", Encode(nonNil(l.Sides)))
	b.Lump("VERTEXES", Encode(nonNil(l.Vertexes)))
	b.Lump("SEGS", Encode(nonNil(l.Segs)))
	b.Lump("SSECTORS", Encode(nonNil(l.Subsectors)))
	b.Lump("NODES", Encode(nonNil(l.Nodes)))
	b.Lump("SECTORS", Encode(nonNil(l.Sectors)))
	return b
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Bytes returns the archive: header, lump data, then the directory.
func (b *Builder) Bytes() []byte {
	var data bytes.Buffer
	offsets := make([]uint32, len(b.lumps))
	for i, l := range b.lumps {
		offsets[i] = uint32(12 + data.Len())
		data.Write(l.data)
	}

	var out bytes.Buffer
	out.WriteString(b.magic)
	binary.Write(&out, binary.LittleEndian, uint32(len(b.lumps)))
	binary.Write(&out, binary.LittleEndian, uint32(12+data.Len()))
	out.Write(data.Bytes())
	for i, l := range b.lumps {
		binary.Write(&out, binary.LittleEndian, offsets[i])
		binary.Write(&out, binary.LittleEndian, uint32(len(l.data)))
		out.Write(l.name[:])
	}
	return out.Bytes()
}

func (b *Builder) Reader() *bytes.Reader {
	return bytes.NewReader(b.Bytes())
}

// Square is a 64x64 room with one node splitting it at x=32. Seen from inside
// only the top wall (seg 0) and the right wall (seg 2) face the viewer.
// Subsector 0 holds segs 0 and 1, subsector 1 holds segs 2 and 3, and the
// node's second child, subsector 1, lies on the left of the partition.
func Square() Level {
	return Level{
		Vertexes: []Vertex{{0, 0}, {64, 0}, {64, 64}, {0, 64}},
		Lines: []Line{
			{V1: 3, V2: 2, Flags: 1, SideR: 0, SideL: 0xFFFF},
			{V1: 0, V2: 1, Flags: 1, SideR: 1, SideL: 0xFFFF},
			{V1: 2, V2: 1, Flags: 1, SideR: 2, SideL: 0xFFFF},
			{V1: 3, V2: 0, Flags: 1, SideR: 3, SideL: 0xFFFF},
		},
		Sides: []Side{
			{MiddleTexture: Name8("STARTAN3")},
			{MiddleTexture: Name8("STARTAN3")},
			{MiddleTexture: Name8("STARTAN3")},
			{MiddleTexture: Name8("STARTAN3")},
		},
		Segs: []Seg{
			{V1: 3, V2: 2, Angle: 0, Line: 0},
			{V1: 0, V2: 1, Angle: 0, Line: 1},
			{V1: 2, V2: 1, Angle: 0xC000, Line: 2},
			{V1: 3, V2: 0, Angle: 0xC000, Line: 3},
		},
		Subsectors: []Subsector{
			{NumSegs: 2, FirstSeg: 0},
			{NumSegs: 2, FirstSeg: 2},
		},
		Nodes: []Node{{
			X: 32, Y: 0, DX: 0, DY: 64,
			Box0:   Box{Top: 64, Bottom: 0, Left: 32, Right: 64},
			Box1:   Box{Top: 64, Bottom: 0, Left: 0, Right: 32},
			Child0: Leaf | 0,
			Child1: Leaf | 1,
		}},
		Sectors: []Sector{{
			Floor: 0, Ceiling: 128,
			FloorFlat: Name8("FLOOR4_8"), CeilingFlat: Name8("CEIL3_5"),
			Light: 160,
		}},
	}
}

// SplitSquare is a 64x64 room whose walls all face inwards, cut by two
// nodes. The root (node 1) splits at x=32: its first child is subsector 0,
// the right half, and its second child is node 0, which splits the left half
// at y=32 into subsector 2 below and subsector 1 above.
//
//	subsector 0: segs 0..2 (top, right, bottom walls of the right half)
//	subsector 1: segs 3..4 (top, left walls of the upper left quarter)
//	subsector 2: segs 5..6 (bottom, left walls of the lower left quarter)
func SplitSquare() Level {
	return Level{
		Vertexes: []Vertex{
			{0, 0}, {64, 0}, {64, 64}, {0, 64},
			{32, 0}, {32, 64}, {0, 32},
		},
		Lines: []Line{
			{V1: 3, V2: 2, Flags: 1, SideR: 0, SideL: 0xFFFF},
			{V1: 2, V2: 1, Flags: 1, SideR: 1, SideL: 0xFFFF},
			{V1: 1, V2: 0, Flags: 1, SideR: 2, SideL: 0xFFFF},
			{V1: 0, V2: 3, Flags: 1, SideR: 3, SideL: 0xFFFF},
		},
		Sides: []Side{
			{MiddleTexture: Name8("STARTAN3")},
			{MiddleTexture: Name8("STARTAN3")},
			{MiddleTexture: Name8("STARTAN3")},
			{MiddleTexture: Name8("STARTAN3")},
		},
		Segs: []Seg{
			{V1: 5, V2: 2, Angle: 0, Line: 0, Offset: 32},
			{V1: 2, V2: 1, Angle: 0xC000, Line: 1},
			{V1: 1, V2: 4, Angle: 0x8000, Line: 2},
			{V1: 3, V2: 5, Angle: 0, Line: 0},
			{V1: 6, V2: 3, Angle: 0x4000, Line: 3, Offset: 32},
			{V1: 4, V2: 0, Angle: 0x8000, Line: 2, Offset: 32},
			{V1: 0, V2: 6, Angle: 0x4000, Line: 3},
		},
		Subsectors: []Subsector{
			{NumSegs: 3, FirstSeg: 0},
			{NumSegs: 2, FirstSeg: 3},
			{NumSegs: 2, FirstSeg: 5},
		},
		Nodes: []Node{
			{
				X: 0, Y: 32, DX: 32, DY: 0,
				Box0:   Box{Top: 32, Bottom: 0, Left: 0, Right: 32},
				Box1:   Box{Top: 64, Bottom: 32, Left: 0, Right: 32},
				Child0: Leaf | 2,
				Child1: Leaf | 1,
			},
			{
				X: 32, Y: 0, DX: 0, DY: 64,
				Box0:   Box{Top: 64, Bottom: 0, Left: 32, Right: 64},
				Box1:   Box{Top: 64, Bottom: 0, Left: 0, Right: 32},
				Child0: Leaf | 0,
				Child1: 0,
			},
		},
		Sectors: []Sector{{
			Floor: 0, Ceiling: 128,
			FloorFlat: Name8("FLOOR4_8"), CeilingFlat: Name8("CEIL3_5"),
			Light: 160,
		}},
	}
}
