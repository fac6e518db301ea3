package wad

type binLine struct {
	V1, V2       uint16
	Flags        uint16
	Special      uint16
	SectorTag    uint16
	SideR, SideL uint16
}

// NoSide marks an absent side on a one-sided LineDef.
const NoSide = 0xFFFF

// LineDef is a wall as authored in the level editor.
type LineDef struct {
	V1, V2       int
	Flags        LineFlags
	Special      int // Action special, 0 for none
	SectorTag    int
	SideR, SideL int // NoSide if absent
}

type LineFlags uint16

const (
	FlagBlocking LineFlags = 1 << iota
	FlagBlockMonsters
	FlagTwoSided
	FlagDontPegTop
	FlagDontPegBottom
	FlagSecret
	FlagSoundBlock
	FlagDontDraw
	FlagMapped
)

func (l *LineDef) Blocking() bool { return l.Flags&FlagBlocking != 0 }
func (l *LineDef) BlockMonsters() bool { return l.Flags&FlagBlockMonsters != 0 }
func (l *LineDef) TwoSided() bool { return l.Flags&FlagTwoSided != 0 }
func (l *LineDef) UpperTextureUnpegged() bool { return l.Flags&FlagDontPegTop != 0 }
func (l *LineDef) LowerTextureUnpegged() bool { return l.Flags&FlagDontPegBottom != 0 }
func (l *LineDef) Secret() bool { return l.Flags&FlagSecret != 0 }
func (l *LineDef) BlocksSound() bool { return l.Flags&FlagSoundBlock != 0 }
func (l *LineDef) NeverMap() bool { return l.Flags&FlagDontDraw != 0 }
func (l *LineDef) AlwaysMap() bool { return l.Flags&FlagMapped != 0 }
func (l *LineDef) HasSideL() bool { return l.SideL != NoSide }
func (l *LineDef) HasSideR() bool { return l.SideR != NoSide }
