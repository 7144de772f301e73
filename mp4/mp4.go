// Package mp4 reads the movie description of ISO base media (MP4) files.
//
// Box decoding is done by github.com/abema/go-mp4; this package walks the
// moov tree and keeps the headers needed to describe the file and its tracks.
package mp4

import (
	"io"
	"os"
	"strings"
	"time"

	gomp4 "github.com/abema/go-mp4"
	"github.com/pkg/errors"
	"github.com/sunfish-shogi/bufseekio"

	"github.com/uldza/mediainfo"
	"github.com/uldza/mediainfo/internal/logging"
)

var (
	ErrInvalidFormat = errors.New("mp4: invalid format")
)

const (
	Magic = "????ftyp"

	atomHeaderSize = 8

	bufferSize  = 64 * 1024
	historySize = 4
)

func init() {
	mediainfo.RegisterFormat("MP4", Magic, DecodeMeta)
}

// Open reads the movie description of the named file.
func Open(name string) (*File, error) {
	fp, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "mp4")
	}
	defer fp.Close()

	fi, err := fp.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "mp4")
	}

	return read(bufseekio.NewReadSeeker(fp, bufferSize, historySize), fi.Size())
}

// Read reads the movie description from r. The input must start with an ftyp
// box.
func Read(r io.ReadSeeker) (*File, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errors.Wrap(err, "mp4: seek")
	}
	return read(r, size)
}

func read(r io.ReadSeeker, size int64) (*File, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "mp4: seek")
	}

	// look for ftyp atom
	head := make([]byte, atomHeaderSize)
	if _, err := io.ReadFull(r, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrInvalidFormat
		}
		return nil, errors.Wrap(err, "mp4: read header")
	}
	if string(head[4:]) != "ftyp" {
		return nil, ErrInvalidFormat
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "mp4: seek")
	}

	d := &decoder{f: &File{Size: size}}
	if _, err := gomp4.ReadBoxStructure(r, d.handle); err != nil {
		return nil, errors.Wrap(err, "mp4: read boxes")
	}

	logging.Debug().
		Int64("size", size).
		Str("brand", d.f.Ftyp.MajorBrand.String()).
		Bool("moov", d.f.Moov != nil).
		Msg("mp4: parsed")
	return d.f, nil
}

// decoder collects the boxes of interest while the box structure is walked
// depth first. trak is the track currently being filled.
type decoder struct {
	f    *File
	trak *Trak
}

func (d *decoder) handle(h *gomp4.ReadHandle) (interface{}, error) {
	bi := h.BoxInfo
	logging.Debug().
		Str("box", bi.Type.String()).
		Uint64("offset", bi.Offset).
		Uint64("size", bi.Size).
		Msg("mp4: box")

	m := d.f.Moov
	switch bi.Type {
	case gomp4.BoxTypeFtyp():
		return d.readPayload(h)

	case gomp4.BoxTypeMoov():
		if m != nil {
			logging.Warn().Uint64("offset", bi.Offset).Msg("mp4: ignoring extra moov")
			return nil, nil
		}
		d.f.Moov = &Moov{}
		return h.Expand()

	case gomp4.BoxTypeMvhd():
		if m != nil && m.Mvhd == nil {
			return d.readPayload(h)
		}

	case gomp4.BoxTypeTrak():
		if m != nil {
			d.trak = &Trak{}
			m.Traks = append(m.Traks, d.trak)
			return h.Expand()
		}

	case gomp4.BoxTypeTkhd():
		if d.trak != nil && d.trak.Tkhd == nil {
			return d.readPayload(h)
		}

	case gomp4.BoxTypeMdia():
		if d.trak != nil && d.trak.Mdia == nil {
			d.trak.Mdia = &Mdia{}
			return h.Expand()
		}

	case gomp4.BoxTypeMdhd():
		if mdia := d.mdia(); mdia != nil && mdia.Mdhd == nil {
			return d.readPayload(h)
		}

	case gomp4.BoxTypeHdlr():
		// QuickTime files carry a data handler in minf as well; the media
		// handler comes first.
		if mdia := d.mdia(); mdia != nil && mdia.Hdlr == nil {
			return d.readPayload(h)
		}

	case gomp4.BoxTypeMinf():
		if mdia := d.mdia(); mdia != nil && mdia.Minf == nil {
			mdia.Minf = &Minf{}
			return h.Expand()
		}

	case gomp4.BoxTypeStbl():
		if minf := d.minf(); minf != nil && minf.Stbl == nil {
			minf.Stbl = &Stbl{}
			return h.Expand()
		}

	case gomp4.BoxTypeStts(), gomp4.BoxTypeStsz():
		if d.stbl() != nil {
			return d.readPayload(h)
		}
	}
	return nil, nil
}

func (d *decoder) mdia() *Mdia {
	if d.trak == nil {
		return nil
	}
	return d.trak.Mdia
}

func (d *decoder) minf() *Minf {
	if mdia := d.mdia(); mdia != nil {
		return mdia.Minf
	}
	return nil
}

func (d *decoder) stbl() *Stbl {
	if minf := d.minf(); minf != nil {
		return minf.Stbl
	}
	return nil
}

func (d *decoder) readPayload(h *gomp4.ReadHandle) (interface{}, error) {
	box, _, err := h.ReadPayload()
	if err != nil {
		return nil, errors.Wrapf(err, "mp4: %s payload", h.BoxInfo.Type)
	}

	switch b := box.(type) {
	case *gomp4.Ftyp:
		d.f.Ftyp = decodeFtyp(b)
	case *gomp4.Mvhd:
		d.f.Moov.Mvhd = decodeMvhd(b)
	case *gomp4.Tkhd:
		d.trak.Tkhd = decodeTkhd(b)
	case *gomp4.Mdhd:
		d.trak.Mdia.Mdhd = decodeMdhd(b)
	case *gomp4.Hdlr:
		d.trak.Mdia.Hdlr = &Hdlr{
			HandlerType: FourCC(b.HandlerType),
			Name:        strings.TrimRight(b.Name, "\x00"),
		}
	case *gomp4.Stts:
		stts := &Stts{Entries: make([]SttsEntry, len(b.Entries))}
		for i, e := range b.Entries {
			stts.Entries[i] = SttsEntry{SampleCount: e.SampleCount, SampleDelta: e.SampleDelta}
		}
		d.stbl().Stts = stts
	case *gomp4.Stsz:
		d.stbl().Stsz = &Stsz{SampleSize: b.SampleSize, SampleCount: b.SampleCount}
	default:
		return nil, errors.Errorf("mp4: unexpected %s payload %T", h.BoxInfo.Type, box)
	}
	return nil, nil
}

func decodeFtyp(b *gomp4.Ftyp) Ftyp {
	ftyp := Ftyp{
		MajorBrand:   FourCC(b.MajorBrand),
		MinorVersion: b.MinorVersion,
	}
	for _, c := range b.CompatibleBrands {
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, FourCC(c.CompatibleBrand))
	}
	return ftyp
}

func decodeMvhd(b *gomp4.Mvhd) *Mvhd {
	m := &Mvhd{
		Version:     b.Version,
		Flags:       flags(b.Flags),
		Timescale:   b.Timescale,
		Rate:        float64(b.Rate) / (1 << 16),
		Volume:      float64(b.Volume) / (1 << 8),
		NextTrackID: b.NextTrackID,
	}
	if b.Version == 0 {
		m.CreationTime = uint64(b.CreationTimeV0)
		m.ModificationTime = uint64(b.ModificationTimeV0)
		m.Duration = uint64(b.DurationV0)
	} else {
		m.CreationTime = b.CreationTimeV1
		m.ModificationTime = b.ModificationTimeV1
		m.Duration = b.DurationV1
	}
	return m
}

func decodeTkhd(b *gomp4.Tkhd) *Tkhd {
	t := &Tkhd{
		Version:        b.Version,
		Flags:          flags(b.Flags),
		TrackID:        b.TrackID,
		Layer:          b.Layer,
		AlternateGroup: b.AlternateGroup,
		Volume:         float64(b.Volume) / (1 << 8),
		Width:          b.Width >> 16,
		Height:         b.Height >> 16,
	}
	if b.Version == 0 {
		t.CreationTime = uint64(b.CreationTimeV0)
		t.ModificationTime = uint64(b.ModificationTimeV0)
		t.Duration = uint64(b.DurationV0)
	} else {
		t.CreationTime = b.CreationTimeV1
		t.ModificationTime = b.ModificationTimeV1
		t.Duration = b.DurationV1
	}
	return t
}

func decodeMdhd(b *gomp4.Mdhd) *Mdhd {
	m := &Mdhd{
		Version:   b.Version,
		Flags:     flags(b.Flags),
		Timescale: b.Timescale,
		Language:  language(b.Language),
	}
	if b.Version == 0 {
		m.CreationTime = uint64(b.CreationTimeV0)
		m.ModificationTime = uint64(b.ModificationTimeV0)
		m.Duration = uint64(b.DurationV0)
	} else {
		m.CreationTime = b.CreationTimeV1
		m.ModificationTime = b.ModificationTimeV1
		m.Duration = b.DurationV1
	}
	return m
}

func flags(f [3]byte) uint32 {
	return uint32(f[0])<<16 | uint32(f[1])<<8 | uint32(f[2])
}

// language unpacks the three 5-bit letters of an mdhd language code.
func language(l [3]byte) string {
	b := make([]byte, len(l))
	for i, c := range l {
		b[i] = c + 0x60
	}
	return string(b)
}

type meta struct {
	f *File
}

func (m meta) Duration() time.Duration {
	if m.f.Moov == nil || m.f.Moov.Mvhd == nil || m.f.Moov.Mvhd.Timescale == 0 {
		return 0
	}
	mvhd := m.f.Moov.Mvhd
	return time.Duration(float64(mvhd.Duration) / float64(mvhd.Timescale) * float64(time.Second))
}

func (m meta) NumTracks() int {
	if m.f.Moov == nil {
		return 0
	}
	return len(m.f.Moov.Traks)
}

func (m meta) Brand() string { return m.f.Ftyp.MajorBrand.String() }

// DecodeMeta satisfies the mediainfo format registry.
func DecodeMeta(r io.ReadSeeker, size int64) (mediainfo.Metadata, error) {
	f, err := read(r, size)
	if err != nil {
		return nil, err
	}
	return meta{f}, nil
}
