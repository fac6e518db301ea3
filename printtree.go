package wad

import (
	"fmt"
	"io"
)

// PrintTree writes the BSP tree of m to w, one node or subsector per line,
// front child before back child. Each subsector is followed by its segs and
// the side of the line they were cut from.
func PrintTree(w io.Writer, m *Map) {
	var printRecursive func(ChildRef, string)
	printRecursive = func(ref ChildRef, prefix string) {
		if ref.IsLeaf() {
			if ref.Index() >= len(m.Subsectors) {
				fmt.Fprintf(w, "%s- %v (missing)\n", prefix, ref)
				return
			}
			s := m.Subsectors[ref.Index()]
			fmt.Fprintf(w, "%s- %v: segs %d..%d\n", prefix, ref, s.FirstSeg, s.FirstSeg+s.NumSegs)
			for i := s.FirstSeg; i < s.FirstSeg+s.NumSegs && i < len(m.Segs); i++ {
				seg := &m.Segs[i]
				side := "front"
				if seg.IsSideL() {
					side = "back"
				}
				fmt.Fprintf(w, "%s   seg %d: v%d -> v%d, line %d %s\n", prefix, i, seg.V1, seg.V2, seg.Line, side)
			}
			return
		}

		n := &m.Nodes[ref.Index()]
		fmt.Fprintf(w, "%s- %v: (%d,%d) d(%d,%d)\n", prefix, ref, n.X.Int(), n.Y.Int(), n.DX.Int(), n.DY.Int())
		printRecursive(n.Child(0), prefix+"   ")
		printRecursive(n.Child(1), prefix+"   ")
	}

	printRecursive(m.Root(), "")
}
