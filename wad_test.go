package wad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stuarthighley/wad/v2/fixed"
	"github.com/stuarthighley/wad/v2/internal/wadtest"
)

// countingReader records how many bytes were read through it.
type countingReader struct {
	r *bytes.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

func (c *countingReader) Seek(offset int64, whence int) (int64, error) {
	return c.r.Seek(offset, whence)
}

func TestDecode_Square(t *testing.T) {
	w, err := Decode(wadtest.New("IWAD").Level("E1M1", wadtest.Square()).Reader())
	require.NoError(t, err)

	assert.Equal(t, FormatIWAD, w.Format)
	assert.Equal(t, 8, w.Header.NumLumps)
	require.Len(t, w.Maps, 1)

	m := w.Maps[0]
	assert.Equal(t, "E1M1", m.Name)
	assert.Equal(t, []Vertex{
		{0, 0},
		{fixed.FromInt(64), 0},
		{fixed.FromInt(64), fixed.FromInt(64)},
		{0, fixed.FromInt(64)},
	}, m.Vertices)

	require.Len(t, m.Lines, 4)
	assert.Equal(t, LineDef{V1: 3, V2: 2, Flags: FlagBlocking, SideR: 0, SideL: NoSide}, m.Lines[0])
	assert.True(t, m.Lines[0].Blocking())
	assert.False(t, m.Lines[0].TwoSided())
	assert.False(t, m.Lines[0].HasSideL())

	require.Len(t, m.Sides, 4)
	assert.Equal(t, "STARTAN3", m.Sides[0].MiddleTexture)
	assert.Equal(t, "", m.Sides[0].UpperTexture)

	require.Len(t, m.Segs, 4)
	assert.Equal(t, Seg{V1: 2, V2: 1, Angle: fixed.Angle270, Line: 2}, m.Segs[2])

	assert.Equal(t, []Subsector{{NumSegs: 2, FirstSeg: 0}, {NumSegs: 2, FirstSeg: 2}}, m.Subsectors)

	require.Len(t, m.Nodes, 1)
	n := m.Nodes[0]
	assert.Equal(t, fixed.FromInt(32), n.X)
	assert.Equal(t, fixed.FromInt(64), n.DY)
	assert.Equal(t, [2]ChildRef{LeafRef(0), LeafRef(1)}, n.Children)
	assert.Equal(t, Bounds{Left: fixed.FromInt(32), Top: fixed.FromInt(64), Right: fixed.FromInt(64), Bottom: 0}, n.Bounds[0])
	assert.Equal(t, Bounds{Left: 0, Top: fixed.FromInt(64), Right: fixed.FromInt(32), Bottom: 0}, n.Bounds[1])

	require.Len(t, m.Sectors, 1)
	s := m.Sectors[0]
	assert.Equal(t, fixed.FromInt(128), s.CeilingHeight)
	assert.Equal(t, "FLOOR4_8", s.FloorTexture)
	assert.Equal(t, "CEIL3_5", s.CeilingTexture)
	assert.Equal(t, uint32(160)<<16, s.LightLevel)
	assert.Equal(t, 160, s.Light())

	assert.Equal(t, []string{"E1M1"}, w.LevelNames())
}

func TestDecode_PWADWithThings(t *testing.T) {
	level := wadtest.Square()
	level.Things = wadtest.Encode([]int16{32, 32, 90, 1, 7})
	archive := wadtest.New("PWAD").
		Lump("PLAYPAL", make([]byte, 768)).
		Level("MAP01", level).
		Lump("ENDOOM", make([]byte, 40)).
		Level("MAP02", wadtest.Square())

	w, err := Decode(archive.Reader())
	require.NoError(t, err)
	assert.Equal(t, FormatPWAD, w.Format)
	assert.Equal(t, []string{"MAP01", "MAP02"}, w.LevelNames())
	assert.Len(t, w.Maps[0].Lines, 4)
	assert.Equal(t, w.Maps[0].Segs, w.Maps[1].Segs)
	assert.NotEqual(t, w.Maps[0].Checksum(), w.Maps[1].Checksum(), "names differ")
}

func TestDecode_UnrecognizedFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"four bytes", []byte("ZWAD")},
		{"full header", append([]byte("ZWAD"), make([]byte, 8)...)},
		{"lower case", []byte("iwad")},
		{"wrong suffix", []byte("IWAX")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &countingReader{r: bytes.NewReader(tt.data)}
			w, err := Decode(r)
			assert.Nil(t, w)
			assert.ErrorIs(t, err, ErrUnrecognizedFormat)
			assert.Equal(t, 4, r.n, "only the signature is read")
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		magic string
		want  Format
	}{
		{"IWAD", FormatIWAD},
		{"PWAD", FormatPWAD},
		{"ZWAD", FormatUnknown},
		{"WAD2", FormatUnknown},
	}
	for _, tt := range tests {
		got, err := DetectFormat(bytes.NewReader([]byte(tt.magic)))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.magic)
		assert.Equal(t, tt.want.String() != "unknown", got != FormatUnknown)
	}
}

func TestDetectFormat_ShortFile(t *testing.T) {
	_, err := DetectFormat(bytes.NewReader([]byte("IW")))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecode_MissingLinedefs(t *testing.T) {
	archive := wadtest.New("IWAD").
		Lump("E1M1", nil).
		Lump("VERTEXES", wadtest.Encode([]wadtest.Vertex{{X: 0, Y: 0}}))

	w, err := Decode(archive.Reader())
	assert.Nil(t, w)
	require.ErrorIs(t, err, ErrRequiredLumpMissing)

	var lumpErr *LumpError
	require.True(t, errors.As(err, &lumpErr))
	assert.Equal(t, "LINEDEFS", lumpErr.Name)
	assert.Equal(t, "E1M1", lumpErr.Level)
}

func TestDecode_MissingLumpAtEndOfDirectory(t *testing.T) {
	sq := wadtest.Square()
	archive := wadtest.New("IWAD").
		Lump("E1M1", nil).
		Lump("LINEDEFS", wadtest.Encode(sq.Lines)).
		Lump("SIDEDEFS", wadtest.Encode(sq.Sides))

	_, err := Decode(archive.Reader())
	var lumpErr *LumpError
	require.ErrorAs(t, err, &lumpErr)
	assert.Equal(t, "VERTEXES", lumpErr.Name)
}

func TestDecode_OutOfOrderLumpIsMissing(t *testing.T) {
	sq := wadtest.Square()
	archive := wadtest.New("IWAD").
		Lump("E1M1", nil).
		Lump("LINEDEFS", wadtest.Encode(sq.Lines)).
		Lump("VERTEXES", wadtest.Encode(sq.Vertexes)).
		Lump("SIDEDEFS", wadtest.Encode(sq.Sides))

	_, err := Decode(archive.Reader())
	var lumpErr *LumpError
	require.ErrorAs(t, err, &lumpErr)
	assert.ErrorIs(t, err, ErrRequiredLumpMissing)
	assert.Equal(t, "SIDEDEFS", lumpErr.Name)
}

func TestDecode_MalformedLump(t *testing.T) {
	lumps := []string{"LINEDEFS", "SIDEDEFS", "VERTEXES", "SEGS", "SSECTORS", "NODES", "SECTORS"}
	for _, bad := range lumps {
		t.Run(bad, func(t *testing.T) {
			sq := wadtest.Square()
			data := map[string][]byte{
				"LINEDEFS": wadtest.Encode(sq.Lines),
				"SIDEDEFS": wadtest.Encode(sq.Sides),
				"VERTEXES": wadtest.Encode(sq.Vertexes),
				"SEGS":     wadtest.Encode(sq.Segs),
				"SSECTORS": wadtest.Encode(sq.Subsectors),
				"NODES":    wadtest.Encode(sq.Nodes),
				"SECTORS":  wadtest.Encode(sq.Sectors),
			}
			data[bad] = append(data[bad], 0)

			archive := wadtest.New("IWAD").Lump("E1M1", nil)
			for _, name := range lumps {
				archive.Lump(name, data[name])
			}

			w, err := Decode(archive.Reader())
			assert.Nil(t, w)
			require.ErrorIs(t, err, ErrMalformedLump)
			var lumpErr *LumpError
			require.ErrorAs(t, err, &lumpErr)
			assert.Equal(t, bad, lumpErr.Name)
			assert.Contains(t, err.Error(), bad)
		})
	}
}

func TestDecode_EmptyLumps(t *testing.T) {
	w, err := Decode(wadtest.New("IWAD").Level("E1M1", wadtest.Level{}).Reader())
	require.NoError(t, err)
	require.Len(t, w.Maps, 1)
	assert.Empty(t, w.Maps[0].Lines)
	assert.Empty(t, w.Maps[0].Nodes)
}

func TestDecode_FailureAbortsWholeLoad(t *testing.T) {
	archive := wadtest.New("IWAD").
		Level("E1M1", wadtest.Square()).
		Lump("E1M2", nil).
		Lump("THINGS", nil).
		Lump("DEMO1", []byte{1}).
		Level("E1M3", wadtest.Square())

	w, err := Decode(archive.Reader())
	assert.Nil(t, w)
	assert.ErrorIs(t, err, ErrRequiredLumpMissing)
}

func TestDecode_SkipInvalidLevels(t *testing.T) {
	archive := wadtest.New("IWAD").
		Level("E1M1", wadtest.Square()).
		Lump("E1M2", nil).
		Lump("THINGS", nil).
		Lump("DEMO1", []byte{1}).
		Level("E1M3", wadtest.Square())

	w, err := Decode(archive.Reader(), WithSkipInvalidLevels(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"E1M1", "E1M3"}, w.LevelNames())
}

func TestDecode_SkipInvalidLevelsStillFailsOnIO(t *testing.T) {
	data := wadtest.New("IWAD").Level("E1M1", wadtest.Square()).Bytes()
	data = data[:len(data)-8]

	_, err := Decode(bytes.NewReader(data), WithSkipInvalidLevels(true))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecode_TruncatedLump(t *testing.T) {
	archive := wadtest.New("IWAD").Level("E1M1", wadtest.Square())
	data := archive.Bytes()

	// Point the directory entry of LINEDEFS past the end of the file
	dirOfs := len(data) - 16*8
	linedefsEntry := dirOfs + 16*1
	data[linedefsEntry+3] = 0x7F

	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, ErrMalformedLump)
}

func TestDecode_OversizedLump(t *testing.T) {
	data := wadtest.New("IWAD").Level("E1M1", wadtest.Square()).Bytes()

	// Claim a 4 GiB LINEDEFS lump
	dirOfs := len(data) - 16*8
	linedefsEntry := dirOfs + 16*1
	binary.LittleEndian.PutUint32(data[linedefsEntry+4:], 0xFFFFFFF0)

	_, err := Decode(bytes.NewReader(data), WithSkipInvalidLevels(true))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecode_CoordinateScaling(t *testing.T) {
	vertexes := make([]wadtest.Vertex, 0, 1<<15)
	for n := math.MinInt16; n <= math.MaxInt16; n += 2 {
		vertexes = append(vertexes, wadtest.Vertex{X: int16(n), Y: int16(n + 1)})
	}
	level := wadtest.Level{Vertexes: vertexes}

	w, err := Decode(wadtest.New("IWAD").Level("MAP07", level).Reader())
	require.NoError(t, err)
	got := w.Maps[0].Vertices
	require.Len(t, got, len(vertexes))
	for i, v := range vertexes {
		if got[i].X != fixed.Fixed(int32(v.X)<<16) || got[i].Y != fixed.Fixed(int32(v.Y)<<16) {
			t.Fatalf("vertex %d: got %v, want %d,%d shifted", i, got[i], v.X, v.Y)
		}
	}
}

func TestDecode_NodeChildRemap(t *testing.T) {
	level := wadtest.Level{
		Nodes: []wadtest.Node{
			{Child0: 0x8000 | 0x7FFF, Child1: 0x8000},
			{Child0: 0, Child1: 0x8000 | 5},
		},
	}
	w, err := Decode(wadtest.New("IWAD").Level("E2M4", level).Reader())
	require.NoError(t, err)

	nodes := w.Maps[0].Nodes
	assert.Equal(t, ChildRef(0x80007FFF), nodes[0].Children[0])
	assert.True(t, nodes[0].Children[0].IsLeaf())
	assert.Equal(t, 32767, nodes[0].Children[0].Index())
	assert.Equal(t, LeafRef(0), nodes[0].Children[1])
	assert.Equal(t, NodeRef(0), nodes[1].Children[0])
	assert.False(t, nodes[1].Children[0].IsLeaf())
	assert.Equal(t, LeafRef(5), nodes[1].Children[1])
}

func TestDecode_Deterministic(t *testing.T) {
	data := wadtest.New("IWAD").
		Level("E1M1", wadtest.Square()).
		Level("E1M2", wadtest.Square()).
		Bytes()

	a, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	b, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	for i := range a.Maps {
		assert.Equal(t, a.Maps[i].Checksum(), b.Maps[i].Checksum())
	}
}

func TestIsLevelMarker(t *testing.T) {
	tests := []struct {
		name string
		raw  [8]byte
		size int64
		want bool
	}{
		{"E1M1", wadtest.Name8("E1M1"), 0, true},
		{"E0M0", wadtest.Name8("E0M0"), 0, true},
		{"E4M9", wadtest.Name8("E4M9"), 0, true},
		{"episode 5", wadtest.Name8("E5M1"), 0, false},
		{"episode letter", wadtest.Name8("EXM1"), 0, false},
		{"map letter", wadtest.Name8("E1MX"), 0, false},
		{"E1M1 with data", wadtest.Name8("E1M1"), 14, false},
		{"MAP01", wadtest.Name8("MAP01"), 0, true},
		{"MAP00", wadtest.Name8("MAP00"), 0, true},
		{"MAP32", wadtest.Name8("MAP32"), 0, true},
		{"MAP33", wadtest.Name8("MAP33"), 0, false},
		{"MAP99", wadtest.Name8("MAP99"), 0, false},
		{"single digit", wadtest.Name8("MAP7"), 0, true},
		{"trailing letter", wadtest.Name8("MAP1A"), 0, false},
		{"MAP0A", wadtest.Name8("MAP0A"), 0, false},
		{"MAP1", wadtest.Name8("MAP1"), 0, true},
		{"no digit", wadtest.Name8("MAPX"), 0, false},
		{"MAP01 with data", wadtest.Name8("MAP01"), 1, false},
		{"THINGS", wadtest.Name8("THINGS"), 0, false},
		{"empty", wadtest.Name8(""), 0, false},
		{"full name", [8]byte{'M', 'A', 'P', '0', '1', 'X', 'Y', 'Z'}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &LumpInfo{Name: String8(tt.raw).String(), Size: tt.size, raw: tt.raw}
			assert.Equal(t, tt.want, isLevelMarker(info))
		})
	}
}

func TestString8(t *testing.T) {
	assert.Equal(t, "LINEDEFS", String8(wadtest.Name8("LINEDEFS")).String())
	assert.Equal(t, "SEGS", String8(wadtest.Name8("SEGS")).String())
	assert.Equal(t, "", String8{}.String())
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(log.New(&buf, "", 0))
	t.Cleanup(func() { SetLogger(nil) })

	_, err := Decode(wadtest.New("IWAD").Level("E1M1", wadtest.Square()).Reader())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Reading Level E1M1")
	assert.Contains(t, buf.String(), "Read 4 lines")
}
