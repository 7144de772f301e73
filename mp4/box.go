package mp4

// FourCC is a four character code naming a box type, brand or handler.
type FourCC [4]byte

func (c FourCC) String() string { return string(c[:]) }

type TrackType int

const (
	TrackTypeUnknown TrackType = iota
	TrackTypeVideo
	TrackTypeAudio
)

func (t TrackType) String() string {
	switch t {
	case TrackTypeVideo:
		return "Video"
	case TrackTypeAudio:
		return "Audio"
	}
	return "Unknown"
}

// HandlerTrackType maps an hdlr handler type to a TrackType. Timed metadata
// ("meta") and everything not listed is Unknown.
func HandlerTrackType(handler FourCC) TrackType {
	switch handler.String() {
	case "vide":
		return TrackTypeVideo
	case "soun":
		return TrackTypeAudio
	case "meta":
		return TrackTypeUnknown
	}
	return TrackTypeUnknown
}

// File is the movie description produced by Read.
type File struct {
	Size int64 // byte length of the input
	Ftyp Ftyp
	Moov *Moov
}

type Ftyp struct {
	MajorBrand       FourCC
	MinorVersion     uint32
	CompatibleBrands []FourCC
}

type Moov struct {
	Mvhd  *Mvhd
	Traks []*Trak
}

// Mvhd is the movie header. Times are seconds since 1904-01-01 UTC.
type Mvhd struct {
	Version          uint8
	Flags            uint32
	CreationTime     uint64
	ModificationTime uint64
	Timescale        uint32
	Duration         uint64
	Rate             float64
	Volume           float64
	NextTrackID      uint32
}

type Trak struct {
	Tkhd *Tkhd
	Mdia *Mdia
}

type Tkhd struct {
	Version          uint8
	Flags            uint32
	CreationTime     uint64
	ModificationTime uint64
	TrackID          uint32
	Duration         uint64 // in movie timescale units
	Layer            int16
	AlternateGroup   int16
	Volume           float64
	// integer part of the 16.16 presentation size; zero for non-visual tracks
	Width  uint32
	Height uint32
}

type Mdia struct {
	Mdhd *Mdhd
	Hdlr *Hdlr
	Minf *Minf
}

type Mdhd struct {
	Version          uint8
	Flags            uint32
	CreationTime     uint64
	ModificationTime uint64
	Timescale        uint32
	Duration         uint64
	Language         string // ISO-639-2/T code
}

type Hdlr struct {
	HandlerType FourCC
	Name        string
}

type Minf struct {
	Stbl *Stbl
}

type Stbl struct {
	Stts *Stts
	Stsz *Stsz
}

// Stts is the time-to-sample table, run-length encoded.
type Stts struct {
	Entries []SttsEntry
}

type SttsEntry struct {
	SampleCount uint32
	SampleDelta uint32
}

// SampleCounts returns the sample count of every run.
func (s *Stts) SampleCounts() []uint32 {
	counts := make([]uint32, len(s.Entries))
	for i, e := range s.Entries {
		counts[i] = e.SampleCount
	}
	return counts
}

type Stsz struct {
	SampleSize  uint32 // non-zero when every sample has this size
	SampleCount uint32
}

// Stts returns the track's time-to-sample table, or nil if any box on the way
// to it is missing.
func (t *Trak) Stts() *Stts {
	if t.Mdia == nil || t.Mdia.Minf == nil || t.Mdia.Minf.Stbl == nil {
		return nil
	}
	return t.Mdia.Minf.Stbl.Stts
}

// Type returns the track type according to its handler.
func (t *Trak) Type() TrackType {
	if t.Mdia == nil || t.Mdia.Hdlr == nil {
		return TrackTypeUnknown
	}
	return HandlerTrackType(t.Mdia.Hdlr.HandlerType)
}
