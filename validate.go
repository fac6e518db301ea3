package wad

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// Validate checks the cross references of m: vertex, side, sector, line and
// seg indices are in range, and every node child refers to a subsector or to
// an earlier node, which keeps the tree acyclic. All violations are returned
// joined together.
func (m *Map) Validate() error {
	var errs []error
	nv := len(m.Vertices)

	for i, l := range m.Lines {
		if l.V1 >= nv || l.V2 >= nv {
			errs = append(errs, fmt.Errorf("%s: line %d: vertex %d or %d out of range", m.Name, i, l.V1, l.V2))
		}
		if l.SideR != NoSide && l.SideR >= len(m.Sides) {
			errs = append(errs, fmt.Errorf("%s: line %d: right side %d out of range", m.Name, i, l.SideR))
		}
		if l.SideL != NoSide && l.SideL >= len(m.Sides) {
			errs = append(errs, fmt.Errorf("%s: line %d: left side %d out of range", m.Name, i, l.SideL))
		}
	}

	for i, s := range m.Sides {
		if s.Sector >= len(m.Sectors) {
			errs = append(errs, fmt.Errorf("%s: side %d: sector %d out of range", m.Name, i, s.Sector))
		}
	}

	for i, s := range m.Segs {
		if s.V1 >= nv || s.V2 >= nv {
			errs = append(errs, fmt.Errorf("%s: seg %d: vertex %d or %d out of range", m.Name, i, s.V1, s.V2))
		}
		if s.Line >= len(m.Lines) {
			errs = append(errs, fmt.Errorf("%s: seg %d: line %d out of range", m.Name, i, s.Line))
		}
	}

	for i, s := range m.Subsectors {
		if s.FirstSeg+s.NumSegs > len(m.Segs) {
			errs = append(errs, fmt.Errorf("%s: subsector %d: segs %d..%d beyond %d segs",
				m.Name, i, s.FirstSeg, s.FirstSeg+s.NumSegs, len(m.Segs)))
		}
	}

	for i, n := range m.Nodes {
		for side, c := range n.Children {
			switch {
			case c.IsLeaf() && c.Index() >= len(m.Subsectors):
				errs = append(errs, fmt.Errorf("%s: node %d child %d: %v out of range", m.Name, i, side, c))
			case !c.IsLeaf() && c.Index() >= i:
				errs = append(errs, fmt.Errorf("%s: node %d child %d: %v is not an earlier node", m.Name, i, side, c))
			}
		}
	}

	if len(m.Nodes) == 0 && len(m.Subsectors) == 0 {
		errs = append(errs, fmt.Errorf("%s: no nodes or subsectors", m.Name))
	}

	return errors.Join(errs...)
}

// Checksum returns a BLAKE2b-256 digest of the decoded map. Decoding the same
// lumps always gives the same checksum.
func (m *Map) Checksum() [blake2b.Size256]byte {
	h, _ := blake2b.New256(nil) // Only fails for an oversized key
	c := checksummer{h: h}

	c.str(m.Name)
	c.put(int32(len(m.Vertices)))
	for _, v := range m.Vertices {
		c.put(v)
	}
	c.put(int32(len(m.Lines)))
	for _, l := range m.Lines {
		c.put([7]int32{int32(l.V1), int32(l.V2), int32(l.Flags), int32(l.Special), int32(l.SectorTag), int32(l.SideR), int32(l.SideL)})
	}
	c.put(int32(len(m.Sides)))
	for _, s := range m.Sides {
		c.put([3]int32{int32(s.XOffset), int32(s.YOffset), int32(s.Sector)})
		c.str(s.UpperTexture)
		c.str(s.LowerTexture)
		c.str(s.MiddleTexture)
	}
	c.put(int32(len(m.Sectors)))
	for _, s := range m.Sectors {
		c.put([5]int32{int32(s.FloorHeight), int32(s.CeilingHeight), int32(s.LightLevel), int32(s.Type), int32(s.Tag)})
		c.str(s.FloorTexture)
		c.str(s.CeilingTexture)
	}
	c.put(int32(len(m.Segs)))
	for _, s := range m.Segs {
		c.put([6]int32{int32(s.V1), int32(s.V2), int32(s.Angle), int32(s.Side), int32(s.Line), int32(s.Offset)})
	}
	c.put(int32(len(m.Subsectors)))
	for _, s := range m.Subsectors {
		c.put([2]int32{int32(s.FirstSeg), int32(s.NumSegs)})
	}
	c.put(int32(len(m.Nodes)))
	for _, n := range m.Nodes {
		c.put(n)
	}

	var sum [blake2b.Size256]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

type checksummer struct {
	h hash.Hash
}

// put writes a fixed size value. Writes to a hash never fail.
func (c checksummer) put(v any) {
	_ = binary.Write(c.h, binary.LittleEndian, v)
}

func (c checksummer) str(s string) {
	c.put(int32(len(s)))
	c.h.Write([]byte(s))
}
