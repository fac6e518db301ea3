// Package wad decodes the levels of Doom's data archives, also known as WAD
// files, into vertices, lines, sectors and the BSP tree used for rendering.
// The file format is documented in The Unofficial DOOM Specs:
// http://www.gamers.org/dhs/helpdocs/dmsp1666.html

package wad

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/stuarthighley/wad/v2/fixed"
)

// WAD holds the levels decoded from one archive.
type WAD struct {
	Format Format
	Header Header
	Maps   []*Map
}

// Format is the kind of archive, taken from its four byte signature.
type Format int

const (
	FormatUnknown Format = iota
	FormatIWAD           // Initial, complete game data
	FormatPWAD           // Patch, loaded on top of an IWAD
)

func (f Format) String() string {
	switch f {
	case FormatIWAD:
		return "IWAD"
	case FormatPWAD:
		return "PWAD"
	}
	return "unknown"
}

// Header follows the signature
type binHeader struct {
	NumLumps     uint32
	InfoTableOfs uint32
}

type Header struct {
	NumLumps     int
	InfoTableOfs int64
}

type binLumpInfo struct {
	Filepos uint32
	Size    uint32
	Name    String8
}

type LumpInfo struct {
	Name    string
	Filepos int64
	Size    int64
	raw     String8
}

// WAD eight-character string type. Null-terminated for short strings.
type String8 [8]byte

// String converts String8 to string
func (s String8) String() string {
	i := bytes.IndexByte(s[:], 0)
	if i == -1 {
		i = len(s)
	}
	return string(s[0:i])
}

const lumpInfoSize = 16

type options struct {
	skipInvalidLevels bool
}

// Option configures decoding.
type Option func(*options)

// WithSkipInvalidLevels makes a missing or malformed level lump abort only the
// level being decoded instead of the whole archive. I/O errors still abort.
func WithSkipInvalidLevels(skip bool) Option {
	return func(o *options) {
		o.skipInvalidLevels = skip
	}
}

// DetectFormat reads the four byte signature at the start of r.
func DetectFormat(r io.ReadSeeker) (Format, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return FormatUnknown, err
	}
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return FormatUnknown, err
	}
	if string(magic[1:]) != "WAD" {
		return FormatUnknown, nil
	}
	switch magic[0] {
	case 'I':
		return FormatIWAD, nil
	case 'P':
		return FormatPWAD, nil
	}
	return FormatUnknown, nil
}

// Open reads every level from the named archive file.
func Open(filename string, opts ...Option) (*WAD, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file, opts...)
}

// Decode reads every level from the archive in r. Levels are returned in
// directory order. The first failure aborts the whole decode unless
// WithSkipInvalidLevels is given.
func Decode(r io.ReadSeeker, opts ...Option) (*WAD, error) {
	logger.Println("Start reading WAD")

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	format, err := DetectFormat(r)
	if err != nil {
		return nil, err
	}
	if format == FormatUnknown {
		return nil, ErrUnrecognizedFormat
	}

	// Read rest of header
	var binHeader binHeader
	if err := binary.Read(r, binary.LittleEndian, &binHeader); err != nil {
		return nil, err
	}
	w := &WAD{
		Format: format,
		Header: Header{int(binHeader.NumLumps), int64(binHeader.InfoTableOfs)},
	}
	logger.Printf("%v with %v lumps, directory at %v", format, w.Header.NumLumps, w.Header.InfoTableOfs)

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	lumps := newLumpReader(r, w.Header, size)
	for {
		info, err := lumps.get()
		if err != nil {
			return nil, err
		}
		if info == nil {
			break
		}
		if !isLevelMarker(info) {
			lumps.next()
			continue
		}

		level, err := readLevel(lumps, info)
		if err != nil {
			var lumpErr *LumpError
			if o.skipInvalidLevels && errors.As(err, &lumpErr) {
				logger.Printf("Skipping level %v: %v", info.Name, err)
				continue
			}
			return nil, err
		}
		w.Maps = append(w.Maps, level)
	}
	logger.Printf("Loaded %v levels", len(w.Maps))

	return w, nil
}

// LevelNames returns the names of the decoded levels in archive order.
func (w *WAD) LevelNames() []string {
	result := make([]string, 0, len(w.Maps))
	for _, m := range w.Maps {
		result = append(result, m.Name)
	}
	return result
}

// lumpReader is a cursor over the lump directory. It only moves forward.
type lumpReader struct {
	r    io.ReadSeeker
	size int64 // Stream length
	pos  int64
	left int
}

func newLumpReader(r io.ReadSeeker, h Header, size int64) *lumpReader {
	return &lumpReader{r: r, size: size, pos: h.InfoTableOfs, left: h.NumLumps}
}

// get reads the entry under the cursor. It returns nil at the end of the directory.
func (lr *lumpReader) get() (*LumpInfo, error) {
	if lr.left == 0 {
		return nil, nil
	}
	if err := seek(lr.r, lr.pos); err != nil {
		return nil, err
	}
	var binInfo binLumpInfo
	if err := binary.Read(lr.r, binary.LittleEndian, &binInfo); err != nil {
		return nil, err
	}
	return &LumpInfo{
		Name:    binInfo.Name.String(),
		Filepos: int64(binInfo.Filepos),
		Size:    int64(binInfo.Size),
		raw:     binInfo.Name,
	}, nil
}

func (lr *lumpReader) next() {
	if lr.left == 0 {
		return
	}
	lr.pos += lumpInfoSize
	lr.left--
}

// isLevelMarker reports whether the lump starts a level: an empty lump named
// MAPxx (Doom 2, xx up to 32) or ExMy (Doom 1). The map number is one digit
// then NUL, or two digits; looser loaders accept MAP0A and reject MAP1.
func isLevelMarker(info *LumpInfo) bool {
	if info.Size != 0 {
		return false
	}
	n := info.raw

	if n[0] == 'M' && n[1] == 'A' && n[2] == 'P' {
		if !isDigit(n[3]) {
			return false
		}
		num := int(n[3] - '0')
		if isDigit(n[4]) {
			num = num*10 + int(n[4]-'0')
		} else if n[4] != 0 {
			return false
		}
		return num <= 32
	}

	if n[0] == 'E' && n[2] == 'M' {
		return n[1] >= '0' && n[1] <= '4' && isDigit(n[3])
	}

	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// readLevel decodes the lump group following a level marker. The lumps must
// appear in the fixed order THINGS, LINEDEFS, SIDEDEFS, VERTEXES, SEGS,
// SSECTORS, NODES, SECTORS; only THINGS may be absent.
func readLevel(lumps *lumpReader, marker *LumpInfo) (*Map, error) {
	logger.Printf("Reading Level %v ...", marker.Name)
	lumps.next()

	level := &Map{Name: marker.Name}

	things, err := readLevelLump(lumps, level.Name, "THINGS", false)
	if err != nil {
		return nil, err
	}
	logger.Printf("Skipped %v bytes of things", len(things))

	lump, err := readLevelLump(lumps, level.Name, "LINEDEFS", true)
	if err != nil {
		return nil, err
	}
	if level.Lines, err = readLines(level.Name, lump); err != nil {
		return nil, err
	}

	if lump, err = readLevelLump(lumps, level.Name, "SIDEDEFS", true); err != nil {
		return nil, err
	}
	if level.Sides, err = readSides(level.Name, lump); err != nil {
		return nil, err
	}

	if lump, err = readLevelLump(lumps, level.Name, "VERTEXES", true); err != nil {
		return nil, err
	}
	if level.Vertices, err = readVertexes(level.Name, lump); err != nil {
		return nil, err
	}

	if lump, err = readLevelLump(lumps, level.Name, "SEGS", true); err != nil {
		return nil, err
	}
	if level.Segs, err = readSegs(level.Name, lump); err != nil {
		return nil, err
	}

	if lump, err = readLevelLump(lumps, level.Name, "SSECTORS", true); err != nil {
		return nil, err
	}
	if level.Subsectors, err = readSubsectors(level.Name, lump); err != nil {
		return nil, err
	}

	if lump, err = readLevelLump(lumps, level.Name, "NODES", true); err != nil {
		return nil, err
	}
	if level.Nodes, err = readNodes(level.Name, lump); err != nil {
		return nil, err
	}

	if lump, err = readLevelLump(lumps, level.Name, "SECTORS", true); err != nil {
		return nil, err
	}
	if level.Sectors, err = readSectors(level.Name, lump); err != nil {
		return nil, err
	}

	logger.Println(level)
	return level, nil
}

// readLevelLump loads the lump under the cursor if it is called name and
// advances past it. Nothing is searched ahead: a different name is a missing
// lump.
func readLevelLump(lumps *lumpReader, level, name string, mandatory bool) ([]byte, error) {
	info, err := lumps.get()
	if err != nil {
		return nil, err
	}
	if info == nil || info.Name != name {
		if mandatory {
			return nil, &LumpError{Level: level, Name: name, Err: ErrRequiredLumpMissing}
		}
		return nil, nil
	}

	lump, err := readLump(lumps.r, info, lumps.size)
	if err != nil {
		return nil, err
	}
	lumps.next()
	return lump, nil
}

// readRecords splits a lump into fixed size little-endian records.
func readRecords[T any](level, name string, lump []byte) ([]T, error) {
	var zero T
	size := binary.Size(zero)
	if len(lump)%size != 0 {
		return nil, &LumpError{Level: level, Name: name, Err: ErrMalformedLump}
	}
	records := make([]T, len(lump)/size)
	if len(records) == 0 {
		return records, nil
	}
	if err := binary.Read(bytes.NewReader(lump), binary.LittleEndian, records); err != nil {
		return nil, err
	}
	return records, nil
}

func readLines(level string, lump []byte) ([]LineDef, error) {
	logger.Println("Reading Lines ...")

	binLines, err := readRecords[binLine](level, "LINEDEFS", lump)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	lines := make([]LineDef, len(binLines))
	for i, l := range binLines {
		lines[i] = LineDef{
			V1:        int(l.V1),
			V2:        int(l.V2),
			Flags:     LineFlags(l.Flags),
			Special:   int(l.Special),
			SectorTag: int(l.SectorTag),
			SideR:     int(l.SideR),
			SideL:     int(l.SideL),
		}
	}
	logger.Printf("Read %v lines", len(lines))

	return lines, nil
}

func readSides(level string, lump []byte) ([]SideDef, error) {
	logger.Println("Reading Sides ...")

	binSides, err := readRecords[binSide](level, "SIDEDEFS", lump)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	sides := make([]SideDef, len(binSides))
	for i, s := range binSides {
		sides[i] = SideDef{
			XOffset:       fixed.FromInt(s.XOffset),
			YOffset:       fixed.FromInt(s.YOffset),
			UpperTexture:  s.UpperTexture.String(),
			LowerTexture:  s.LowerTexture.String(),
			MiddleTexture: s.MiddleTexture.String(),
			Sector:        int(s.SectorNum),
		}
	}
	logger.Printf("Read %v sides", len(sides))

	return sides, nil
}

func readVertexes(level string, lump []byte) ([]Vertex, error) {
	logger.Println("Reading Vertexes ...")

	binVertexes, err := readRecords[binVertex](level, "VERTEXES", lump)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	vertexes := make([]Vertex, len(binVertexes))
	for i, v := range binVertexes {
		vertexes[i] = Vertex{X: fixed.FromInt(v.X), Y: fixed.FromInt(v.Y)}
	}
	logger.Printf("Read %v vertexes", len(vertexes))

	return vertexes, nil
}

func readSegs(level string, lump []byte) ([]Seg, error) {
	logger.Println("Reading Line Segments ...")

	binSegs, err := readRecords[binSeg](level, "SEGS", lump)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	segs := make([]Seg, len(binSegs))
	for i, s := range binSegs {
		segs[i] = Seg{
			V1:     int(s.V1),
			V2:     int(s.V2),
			Angle:  fixed.Angle(s.Angle),
			Side:   s.Side,
			Line:   int(s.Line),
			Offset: fixed.FromInt(s.Offset),
		}
	}
	logger.Printf("Read %v line segments", len(segs))

	return segs, nil
}

func readSubsectors(level string, lump []byte) ([]Subsector, error) {
	logger.Println("Reading Sub Sectors ...")

	binSubsectors, err := readRecords[binSubsector](level, "SSECTORS", lump)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	subsectors := make([]Subsector, len(binSubsectors))
	for i, s := range binSubsectors {
		subsectors[i] = Subsector{
			NumSegs:  int(s.NumSegs),
			FirstSeg: int(s.FirstSeg),
		}
	}
	logger.Printf("Read %v sub sectors", len(subsectors))

	return subsectors, nil
}

func readNodes(level string, lump []byte) ([]Node, error) {
	logger.Println("Reading Nodes ...")

	binNodes, err := readRecords[binNode](level, "NODES", lump)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	nodes := make([]Node, len(binNodes))
	for i, n := range binNodes {
		nodes[i] = Node{
			X:        fixed.FromInt(n.X),
			Y:        fixed.FromInt(n.Y),
			DX:       fixed.FromInt(n.DX),
			DY:       fixed.FromInt(n.DY),
			Bounds:   [2]Bounds{boundsFromBin(n.Bounds0), boundsFromBin(n.Bounds1)},
			Children: [2]ChildRef{childFromRaw(n.Child0), childFromRaw(n.Child1)},
		}
	}
	logger.Printf("Read %v nodes", len(nodes))

	return nodes, nil
}

func boundsFromBin(b binBounds) Bounds {
	return Bounds{
		Left:   fixed.FromInt(b.Left),
		Top:    fixed.FromInt(b.Top),
		Right:  fixed.FromInt(b.Right),
		Bottom: fixed.FromInt(b.Bottom),
	}
}

func readSectors(level string, lump []byte) ([]Sector, error) {
	logger.Println("Reading Sectors ...")

	binSectors, err := readRecords[binSector](level, "SECTORS", lump)
	if err != nil {
		return nil, err
	}

	// Translate to canonical
	sectors := make([]Sector, len(binSectors))
	for i, s := range binSectors {
		sectors[i] = Sector{
			FloorHeight:    fixed.FromInt(s.FloorHeight),
			CeilingHeight:  fixed.FromInt(s.CeilingHeight),
			FloorTexture:   s.FloorTexture.String(),
			CeilingTexture: s.CeilingTexture.String(),
			LightLevel:     uint32(s.LightLevel) << fixed.FracBits,
			Type:           SectorType(s.Type),
			Tag:            int(s.Tag),
		}
	}
	logger.Printf("Read %v Sectors", len(sectors))

	return sectors, nil
}

// seek
func seek(r io.Seeker, offset int64) error {
	off, err := r.Seek(offset, io.SeekStart)
	if err != nil {
		return err
	}
	if off != offset {
		return fmt.Errorf("seek failed")
	}
	return nil
}

// Read entire lump. Entries reaching past the end of the stream fail before
// anything is allocated.
func readLump(r io.ReadSeeker, lumpInfo *LumpInfo, size int64) ([]byte, error) {
	if lumpInfo.Filepos+lumpInfo.Size > size {
		return nil, io.ErrUnexpectedEOF
	}
	if err := seek(r, lumpInfo.Filepos); err != nil {
		return nil, err
	}
	lump := make([]byte, lumpInfo.Size)
	if _, err := io.ReadFull(r, lump); err != nil {
		return nil, err
	}
	return lump, nil
}
