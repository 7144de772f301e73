// Package mp4test synthesizes small MP4 files for tests.
package mp4test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	gomp4 "github.com/abema/go-mp4"
	"github.com/stretchr/testify/require"
)

type Track struct {
	ID            uint32
	Handler       string // vide, soun, ...
	Width, Height uint16
	Duration      uint32 // movie timescale units
	Timescale     uint32 // media timescale
	MediaDuration uint32
	Language      string
	Stts          []gomp4.SttsEntry
}

type Movie struct {
	// Version selects the mvhd, tkhd and mdhd layout.
	Version      uint8
	MajorBrand   string
	Compatible   []string
	CreationTime uint32
	Timescale    uint32
	Duration     uint32
	Tracks       []Track
	// NoMoov leaves the file with ftyp and mdat only.
	NoMoov bool
}

// WriteFile writes m to a new file in t's temp dir and returns its path.
func WriteFile(t testing.TB, m Movie) string {
	t.Helper()

	name := filepath.Join(t.TempDir(), "movie.mp4")
	fp, err := os.Create(name)
	require.NoError(t, err)
	defer fp.Close()

	require.NoError(t, Encode(fp, m))
	return name
}

// Bytes returns the encoded form of m.
func Bytes(t testing.TB, m Movie) []byte {
	t.Helper()

	b, err := os.ReadFile(WriteFile(t, m))
	require.NoError(t, err)
	return b
}

func fourcc(s string) [4]byte {
	var c [4]byte
	copy(c[:], s)
	return c
}

func Encode(ws io.WriteSeeker, m Movie) error {
	w := gomp4.NewWriter(ws)

	ftyp := &gomp4.Ftyp{
		MajorBrand:   fourcc(m.MajorBrand),
		MinorVersion: 512,
	}
	for _, c := range m.Compatible {
		ftyp.CompatibleBrands = append(ftyp.CompatibleBrands, gomp4.CompatibleBrandElem{CompatibleBrand: fourcc(c)})
	}
	if err := leaf(w, gomp4.BoxTypeFtyp(), ftyp); err != nil {
		return err
	}

	if !m.NoMoov {
		if err := encodeMoov(w, m); err != nil {
			return err
		}
	}

	return leaf(w, gomp4.BoxTypeMdat(), &gomp4.Mdat{Data: []byte{0xde, 0xad, 0xbe, 0xef}})
}

func encodeMoov(w *gomp4.Writer, m Movie) error {
	if err := start(w, gomp4.BoxTypeMoov()); err != nil {
		return err
	}

	mvhd := &gomp4.Mvhd{
		FullBox:     gomp4.FullBox{Version: m.Version},
		Timescale:   m.Timescale,
		Rate:        0x00010000,
		Volume:      0x0100,
		NextTrackID: uint32(len(m.Tracks) + 1),
	}
	if m.Version == 0 {
		mvhd.CreationTimeV0 = m.CreationTime
		mvhd.ModificationTimeV0 = m.CreationTime
		mvhd.DurationV0 = m.Duration
	} else {
		mvhd.CreationTimeV1 = uint64(m.CreationTime)
		mvhd.ModificationTimeV1 = uint64(m.CreationTime)
		mvhd.DurationV1 = uint64(m.Duration)
	}
	if err := leaf(w, gomp4.BoxTypeMvhd(), mvhd); err != nil {
		return err
	}

	for _, t := range m.Tracks {
		if err := encodeTrak(w, m.Version, t); err != nil {
			return err
		}
	}

	_, err := w.EndBox()
	return err
}

func encodeTrak(w *gomp4.Writer, version uint8, t Track) error {
	if err := start(w, gomp4.BoxTypeTrak()); err != nil {
		return err
	}

	tkhd := &gomp4.Tkhd{
		FullBox: gomp4.FullBox{Version: version, Flags: [3]byte{0, 0, 3}},
		TrackID: t.ID,
		Width:   uint32(t.Width) << 16,
		Height:  uint32(t.Height) << 16,
	}
	if version == 0 {
		tkhd.DurationV0 = t.Duration
	} else {
		tkhd.DurationV1 = uint64(t.Duration)
	}
	if err := leaf(w, gomp4.BoxTypeTkhd(), tkhd); err != nil {
		return err
	}

	if t.Handler != "" {
		if err := encodeMdia(w, version, t); err != nil {
			return err
		}
	}

	_, err := w.EndBox()
	return err
}

func encodeMdia(w *gomp4.Writer, version uint8, t Track) error {
	if err := start(w, gomp4.BoxTypeMdia()); err != nil {
		return err
	}

	mdhd := &gomp4.Mdhd{
		FullBox:   gomp4.FullBox{Version: version},
		Timescale: t.Timescale,
	}
	for i := 0; i < len(t.Language) && i < len(mdhd.Language); i++ {
		mdhd.Language[i] = t.Language[i] - 0x60
	}
	if version == 0 {
		mdhd.DurationV0 = t.MediaDuration
	} else {
		mdhd.DurationV1 = uint64(t.MediaDuration)
	}
	if err := leaf(w, gomp4.BoxTypeMdhd(), mdhd); err != nil {
		return err
	}

	hdlr := &gomp4.Hdlr{
		HandlerType: fourcc(t.Handler),
		Name:        t.Handler + " handler",
	}
	if err := leaf(w, gomp4.BoxTypeHdlr(), hdlr); err != nil {
		return err
	}

	if err := start(w, gomp4.BoxTypeMinf()); err != nil {
		return err
	}
	if err := start(w, gomp4.BoxTypeStbl()); err != nil {
		return err
	}
	if t.Stts != nil {
		stts := &gomp4.Stts{EntryCount: uint32(len(t.Stts)), Entries: t.Stts}
		if err := leaf(w, gomp4.BoxTypeStts(), stts); err != nil {
			return err
		}
	}
	var samples uint32
	for _, e := range t.Stts {
		samples += e.SampleCount
	}
	if err := leaf(w, gomp4.BoxTypeStsz(), &gomp4.Stsz{SampleSize: 1, SampleCount: samples}); err != nil {
		return err
	}
	for i := 0; i < 3; i++ { // stbl, minf, mdia
		if _, err := w.EndBox(); err != nil {
			return err
		}
	}
	return nil
}

func start(w *gomp4.Writer, t gomp4.BoxType) error {
	_, err := w.StartBox(&gomp4.BoxInfo{Type: t})
	return err
}

func leaf(w *gomp4.Writer, t gomp4.BoxType, box gomp4.IImmutableBox) error {
	if err := start(w, t); err != nil {
		return err
	}
	if _, err := gomp4.Marshal(w, box, gomp4.Context{}); err != nil {
		return err
	}
	_, err := w.EndBox()
	return err
}
