package wad

import (
	"fmt"

	"github.com/stuarthighley/wad/v2/fixed"
)

// Map is one decoded level. It is read-only once returned by the decoder.
type Map struct {
	Name string

	// Level data as authored
	Lines   []LineDef
	Sides   []SideDef
	Sectors []Sector

	// BSP data produced by the node builder
	Subsectors []Subsector
	Segs       []Seg
	Nodes      []Node

	Vertices []Vertex
}

type binVertex struct {
	X, Y int16
}

type Vertex struct {
	X, Y fixed.Fixed
}

type binSide struct {
	XOffset       int16
	YOffset       int16
	UpperTexture  String8
	LowerTexture  String8
	MiddleTexture String8
	SectorNum     uint16
}

// SideDef is one face of a LineDef. Texture names are kept but not resolved.
type SideDef struct {
	XOffset       fixed.Fixed
	YOffset       fixed.Fixed
	UpperTexture  string
	LowerTexture  string
	MiddleTexture string
	Sector        int
}

type binSector struct {
	FloorHeight    int16
	CeilingHeight  int16
	FloorTexture   String8
	CeilingTexture String8
	LightLevel     uint16
	Type           uint16
	Tag            uint16
}

type Sector struct {
	FloorHeight    fixed.Fixed
	CeilingHeight  fixed.Fixed
	FloorTexture   string
	CeilingTexture string
	LightLevel     uint32 // Raw lump value shifted left 16, like the coordinates
	Type           SectorType
	Tag            int
}

// Light returns the 0-255 light level as stored in the lump.
func (s *Sector) Light() int {
	return int(s.LightLevel >> fixed.FracBits)
}

type SectorType int

const (
	TypeNormal          SectorType = iota
	TypeBlinkRandom                // 1  Light  Blink random
	TypeBlink05                    // 2  Light  Blink 0.5 second
	TypeBlink10                    // 3  Light  Blink 1.0 second
	TypeDamage20Blink05            // 4  Both   20% damage per second; light blink 0.5 second
	TypeDamage10                   // 5	 Damage 10% damage per second
	TypeUnused1                    // 6  Unused
	TypeDamage5                    // 7	 Damage 5% damage per second
	TypeOscillate                  // 8	 Light  Oscillates
	TypeSecret                     // 9	 Secret Player entering this sector gets credit for finding a secret
	TypeDoor30                     // 10 Door   30 seconds after level start, ceiling closes like a door
	TypeEnd                        // 11 End    20% damage ps. Level ends when player health drops below 11% & touching floor
	TypeBlink10Sync                // 12 Light  Blink 1.0 second, synchronized
	TypeBlink05Sync                // 13 Light  Blink 0.5 second, synchronized
	TypeDoor300                    // 14 Door   300 seconds after level start, ceiling opens like a door
	TypeUnused2                    // 15 Unused
	TypeDamage20                   // 16 Damage 20% damage per second
	TypeFlickerRandom              // 17 Light  Flickers randomly
)

type binSeg struct {
	V1     uint16
	V2     uint16
	Angle  uint16 // Full circle is 0 to 65535
	Line   uint16
	Side   uint16 // 0 - same as linedef, 1 - opposite to linedef
	Offset int16  // Distance along line to start of segment
}

// Seg is a fragment of a LineDef split by the node builder. It is the unit
// drawn by the renderer.
type Seg struct {
	V1, V2 int
	Angle  fixed.Angle
	Side   uint16
	Line   int
	Offset fixed.Fixed
}

// IsSideL reports whether the seg runs opposite to its linedef.
func (s *Seg) IsSideL() bool {
	return s.Side != 0
}

type binSubsector struct {
	NumSegs  uint16
	FirstSeg uint16
}

// Subsector is a convex leaf of the BSP. Its segs are Segs[FirstSeg:FirstSeg+NumSegs].
type Subsector struct {
	NumSegs  int
	FirstSeg int
}

type binBounds struct {
	Top    int16
	Bottom int16
	Left   int16
	Right  int16
}

type Bounds struct {
	Left, Top, Right, Bottom fixed.Fixed
}

// Contains reports whether the point lies inside the box, edges included.
func (b *Bounds) Contains(x, y fixed.Fixed) bool {
	return x >= b.Left && x <= b.Right && y >= b.Bottom && y <= b.Top
}

type binNode struct {
	X, Y             int16
	DX, DY           int16
	Bounds0, Bounds1 binBounds
	Child0, Child1   uint16
}

// Node is one partition of the BSP tree. The partition line runs from (X, Y)
// in direction (DX, DY).
type Node struct {
	X, Y     fixed.Fixed
	DX, DY   fixed.Fixed
	Bounds   [2]Bounds
	Children [2]ChildRef
}

// Child returns the child reference for side
func (n *Node) Child(side int) ChildRef {
	return n.Children[side]
}

// BoundBox returns the bounding box of the child on side
func (n *Node) BoundBox(side int) *Bounds {
	return &n.Bounds[side]
}

// ChildRef is a reference from a Node to either another Node or a Subsector.
// Bit 31 set marks a subsector (leaf); the remaining bits are the index.
type ChildRef uint32

const LeafFlag ChildRef = 0x80000000

// LeafRef returns a reference to subsector i.
func LeafRef(i int) ChildRef {
	return ChildRef(i) | LeafFlag
}

// NodeRef returns a reference to node i.
func NodeRef(i int) ChildRef {
	return ChildRef(i) &^ LeafFlag
}

func (c ChildRef) IsLeaf() bool {
	return c&LeafFlag != 0
}

// Index returns the node or subsector index.
func (c ChildRef) Index() int {
	return int(c &^ LeafFlag)
}

func (c ChildRef) String() string {
	if c.IsLeaf() {
		return fmt.Sprintf("subsector %d", c.Index())
	}
	return fmt.Sprintf("node %d", c.Index())
}

// childFromRaw remaps a 16-bit lump child value to a ChildRef.
func childFromRaw(raw uint16) ChildRef {
	if raw&0x8000 != 0 {
		return LeafRef(int(raw & 0x7FFF))
	}
	return NodeRef(int(raw))
}

// Root returns the reference the BSP traversal starts from. A level with no
// nodes consists of a single subsector.
func (m *Map) Root() ChildRef {
	if len(m.Nodes) == 0 {
		return LeafRef(0)
	}
	return NodeRef(len(m.Nodes) - 1)
}

// SubsectorSegs returns the contiguous segs of subsector i.
func (m *Map) SubsectorSegs(i int) []Seg {
	s := &m.Subsectors[i]
	return m.Segs[s.FirstSeg : s.FirstSeg+s.NumSegs]
}

func (m *Map) String() string {
	return fmt.Sprintf("%s: %d vertices, %d lines, %d sides, %d sectors, %d segs, %d subsectors, %d nodes",
		m.Name, len(m.Vertices), len(m.Lines), len(m.Sides), len(m.Sectors),
		len(m.Segs), len(m.Subsectors), len(m.Nodes))
}
