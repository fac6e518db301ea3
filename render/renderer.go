package render

import (
	"github.com/stuarthighley/wad/v2"
)

// Projector turns view-space segments into screen output. It receives the
// segments of one frame nearest first.
type Projector interface {
	Project(vs ViewSegment)
}

// ProjectorFunc adapts a function to a Projector.
type ProjectorFunc func(ViewSegment)

func (f ProjectorFunc) Project(vs ViewSegment) {
	f(vs)
}

// Renderer draws frames of one level. It keeps its segment buffer between
// frames, so it must not be shared between goroutines.
type Renderer struct {
	Map *wad.Map

	segs []ViewSegment
}

func NewRenderer(m *wad.Map) *Renderer {
	return &Renderer{Map: m}
}

// Frame returns the visible segments for pose. The returned slice is reused by
// the next call to Frame.
func (r *Renderer) Frame(pose Pose) []ViewSegment {
	r.segs = r.segs[:0]
	for vs := range Segments(r.Map, pose) {
		r.segs = append(r.segs, vs)
	}
	return r.segs
}

// Render hands each visible segment for pose to p, nearest first, and returns
// how many there were.
func (r *Renderer) Render(pose Pose, p Projector) int {
	n := 0
	for vs := range Segments(r.Map, pose) {
		p.Project(vs)
		n++
	}
	return n
}
