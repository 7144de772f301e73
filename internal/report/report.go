// Package report renders the human readable description of an MP4 file
// printed by mp4info.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/pkg/errors"

	"github.com/uldza/mediainfo/mp4"
)

var (
	ErrNoMovie       = errors.New("report: no moov box")
	ErrNoMovieHeader = errors.New("report: no mvhd box")
	ErrNoTrackHeader = errors.New("report: no tkhd box")
	ErrNoHandler     = errors.New("report: no hdlr box")
	ErrNoMediaHeader = errors.New("report: no mdhd box")
)

// Seconds between 1904-01-01 and 1970-01-01.
const mp4EpochOffset = 2082844800

// CreationTime converts an MP4 timestamp to Unix time. Values below the
// offset are passed through unchanged.
func CreationTime(t uint64) uint64 {
	if t >= mp4EpochOffset {
		return t - mp4EpochOffset
	}
	return t
}

func durationMS(duration uint64, timescale uint32) float64 {
	return math.Floor(float64(duration) / float64(timescale) * 1000)
}

func DurationMS(duration uint64, timescale uint32) string {
	return fmt.Sprintf("%.2f", durationMS(duration, timescale))
}

// FrameRate estimates frames per second from the first run of the
// time-to-sample table only.
func FrameRate(sampleCounts []uint32, duration uint64, timescale uint32) string {
	sc := float64(sampleCounts[0]) * 1000
	return fmt.Sprintf("%.2f", sc/durationMS(duration, timescale))
}

func brands(ftyp mp4.Ftyp) string {
	s := make([]string, len(ftyp.CompatibleBrands))
	for i, b := range ftyp.CompatibleBrands {
		s[i] = b.String()
	}
	return fmt.Sprintf("%s [%s]", ftyp.MajorBrand, strings.Join(s, " "))
}

// Write prints the description of f to w. Missing headers the report relies
// on abort it with one of the Err values above; output written up to that
// point is left in w.
func Write(w io.Writer, f *mp4.File) error {
	if f.Moov == nil {
		return ErrNoMovie
	}
	mvhd := f.Moov.Mvhd
	if mvhd == nil {
		return ErrNoMovieHeader
	}

	fmt.Fprintln(w, "File:")
	fmt.Fprintf(w, "  file size:  %d\n", f.Size)
	fmt.Fprintf(w, "  brands:     %s\n\n", brands(f.Ftyp))

	fmt.Fprintln(w, "Movie:")
	fmt.Fprintf(w, "  version:       %d\n", mvhd.Version)
	fmt.Fprintf(w, "  creation time: %d\n", CreationTime(mvhd.CreationTime))
	fmt.Fprintf(w, "  duration:      %d\n", mvhd.Duration)
	fmt.Fprintf(w, "  timescale:     %d\n\n", mvhd.Timescale)

	fmt.Fprintf(w, "Found %d Tracks\n", len(f.Moov.Traks))
	for _, trak := range f.Moov.Traks {
		if err := writeTrak(w, trak); err != nil {
			return err
		}
	}
	return nil
}

func writeTrak(w io.Writer, trak *mp4.Trak) error {
	tkhd := trak.Tkhd
	if tkhd == nil {
		return ErrNoTrackHeader
	}

	fmt.Fprintf(w, "Track: %d\n", tkhd.TrackID)
	fmt.Fprintf(w, "  flags:    %d\n", tkhd.Flags)
	fmt.Fprintf(w, "  id:       %d\n", tkhd.TrackID)
	fmt.Fprintf(w, "  duration: %d\n", tkhd.Duration)
	if tkhd.Width != 0 && tkhd.Height != 0 {
		fmt.Fprintf(w, "    width:    %d\n", tkhd.Width)
		fmt.Fprintf(w, "    height:   %d\n", tkhd.Height)
	}

	mdia := trak.Mdia
	if mdia == nil {
		return nil
	}
	if mdia.Hdlr == nil {
		return errors.Wrapf(ErrNoHandler, "track %d", tkhd.TrackID)
	}
	if mdia.Mdhd == nil {
		return errors.Wrapf(ErrNoMediaHeader, "track %d", tkhd.TrackID)
	}
	mdhd := mdia.Mdhd
	typ := trak.Type()

	// an empty table is treated like a missing one
	stts := trak.Stts()
	if stts != nil && len(stts.Entries) == 0 {
		stts = nil
	}

	fmt.Fprintf(w, "  type:     %s\n", typ)
	fmt.Fprintf(w, "  language: %q\n", mdhd.Language)

	fmt.Fprintln(w, "  media:")
	if stts != nil {
		fmt.Fprintf(w, "    sample count: %d\n", stts.Entries[0].SampleCount)
	}
	fmt.Fprintf(w, "    timescale:    %d\n", mdhd.Timescale)
	fmt.Fprintf(w, "    duration:     %d (media timescale units)\n", mdhd.Duration)
	fmt.Fprintf(w, "    duration:     %s (ms)\n", DurationMS(mdhd.Duration, mdhd.Timescale))
	if typ == mp4.TrackTypeVideo && stts != nil {
		fmt.Fprintf(w, "    frame rate: (computed): %s\n", FrameRate(stts.SampleCounts(), mdhd.Duration, mdhd.Timescale))
	}
	return nil
}
