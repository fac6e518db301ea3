// Package render walks a level's BSP tree from the viewer's position and
// produces the visible wall segments in view space, nearest first.
//
// Projection to screen columns and rasterisation are left to a Projector.
package render

import (
	"iter"

	"github.com/stuarthighley/wad/v2"
	"github.com/stuarthighley/wad/v2/fixed"
)

// Pose is the viewer's position and facing for one frame.
type Pose struct {
	X, Y  fixed.Fixed
	Angle fixed.Angle
}

// ViewPoint is a point in the viewer's frame: X is horizontal (positive to
// the right), Z is depth along the view direction.
type ViewPoint struct {
	X, Z fixed.Fixed
}

// ViewSegment is a front-facing seg transformed into view space.
type ViewSegment struct {
	Seg    int
	V1, V2 ViewPoint
}

// LeafSide classifies the point (x, y) against the node's partition line.
// The direction components are reduced to whole map units before the
// multiply, as Doom's renderer does, which decides how ties fall.
func LeafSide(n *wad.Node, x, y fixed.Fixed) bool {
	if n.DX == 0 {
		if x <= n.X {
			return n.DY > 0
		}
		return n.DY < 0
	}

	if n.DY == 0 {
		if y <= n.Y {
			return n.DX < 0
		}
		return n.DX > 0
	}

	dx := x - n.X
	dy := y - n.Y
	return fixed.Mul(dy, n.DX>>fixed.FracBits) >= fixed.Mul(n.DY>>fixed.FracBits, dx)
}

func sideIndex(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Segments returns the segs of m facing the viewer, in BSP front-to-back
// order, transformed into view space. Every node's near child is visited
// before its far child and no subtree is pruned. The sequence is computed
// lazily and stops when the consumer stops.
func Segments(m *wad.Map, pose Pose) iter.Seq[ViewSegment] {
	return func(yield func(ViewSegment) bool) {
		if len(m.Subsectors) == 0 {
			return
		}
		t := traversal{m: m, pose: pose, yield: yield}
		t.dirX, t.dirY = fixed.Direction(pose.Angle)
		t.node(m.Root())
	}
}

type traversal struct {
	m          *wad.Map
	pose       Pose
	dirX, dirY fixed.Fixed
	yield      func(ViewSegment) bool
}

// node visits ref and reports whether the consumer wants more segments.
func (t *traversal) node(ref wad.ChildRef) bool {
	if ref.IsLeaf() {
		return t.subsector(ref.Index())
	}

	n := &t.m.Nodes[ref.Index()]
	side := sideIndex(LeafSide(n, t.pose.X, t.pose.Y))

	// TODO: skip the far child when its bounding box is outside the view.
	return t.node(n.Child(side)) && t.node(n.Child(side^1))
}

func (t *traversal) subsector(i int) bool {
	s := &t.m.Subsectors[i]
	for segNum := s.FirstSeg; segNum < s.FirstSeg+s.NumSegs; segNum++ {
		vs, ok := t.transform(&t.m.Segs[segNum])
		if !ok {
			continue
		}
		vs.Seg = segNum
		if !t.yield(vs) {
			return false
		}
	}
	return true
}

// transform moves the seg into view space. Segs facing away from the viewer,
// or seen exactly edge on, are rejected.
func (t *traversal) transform(seg *wad.Seg) (ViewSegment, bool) {
	v1 := t.m.Vertices[seg.V1]
	v2 := t.m.Vertices[seg.V2]

	tx1 := v1.X - t.pose.X
	tx2 := v2.X - t.pose.X
	ty1 := v1.Y - t.pose.Y
	ty2 := v2.Y - t.pose.Y

	// Backface culling
	if (fixed.Mul(ty1, tx1-tx2)+fixed.Mul(tx1, ty2-ty1))>>fixed.FracBits >= 0 {
		return ViewSegment{}, false
	}

	return ViewSegment{
		V1: t.rotate(tx1, ty1),
		V2: t.rotate(tx2, ty2),
	}, true
}

func (t *traversal) rotate(tx, ty fixed.Fixed) ViewPoint {
	return ViewPoint{
		X: fixed.Mul(tx, t.dirY) + fixed.Mul(ty, -t.dirX),
		Z: fixed.Mul(tx, t.dirX) + fixed.Mul(ty, t.dirY),
	}
}
