package report

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/uldza/mediainfo/mp4"
)

func TestCreationTime(t *testing.T) {
	for _, tc := range []struct {
		in, want uint64
	}{
		{0, 0},
		{1, 1},
		{2082844799, 2082844799},
		{2082844800, 0},
		{2082844801, 1},
		{3600000000, 1517155200},
		{0xffffffff, 0xffffffff - 2082844800},
	} {
		require.Equal(t, tc.want, CreationTime(tc.in), "%d", tc.in)
	}
}

func TestDurationMS(t *testing.T) {
	require.Equal(t, "10000.00", DurationMS(10000, 1000))
	require.Equal(t, "10000.00", DurationMS(441000, 44100))
	require.Equal(t, "4170.00", DurationMS(100100, 24000))
	require.Equal(t, "0.00", DurationMS(0, 90000))
	require.Equal(t, "33.00", DurationMS(1001, 30000))
}

func TestFrameRate(t *testing.T) {
	require.Equal(t, "30.00", FrameRate([]uint32{300}, 10000, 1000))
	// only the first run counts
	require.Equal(t, "30.00", FrameRate([]uint32{300, 999}, 10000, 1000))
	require.Equal(t, "57.55", FrameRate([]uint32{240}, 100100, 24000))
}

func sample() *mp4.File {
	return &mp4.File{
		Size: 1234,
		Ftyp: mp4.Ftyp{
			MajorBrand:       mp4.FourCC{'i', 's', 'o', 'm'},
			CompatibleBrands: []mp4.FourCC{{'i', 's', 'o', 'm'}, {'a', 'v', 'c', '1'}},
		},
		Moov: &mp4.Moov{
			Mvhd: &mp4.Mvhd{CreationTime: 3600000000, Timescale: 1000, Duration: 10000},
			Traks: []*mp4.Trak{
				{
					Tkhd: &mp4.Tkhd{TrackID: 1, Flags: 3, Duration: 10000, Width: 640, Height: 360},
					Mdia: &mp4.Mdia{
						Mdhd: &mp4.Mdhd{Timescale: 1000, Duration: 10000, Language: "und"},
						Hdlr: &mp4.Hdlr{HandlerType: mp4.FourCC{'v', 'i', 'd', 'e'}},
						Minf: &mp4.Minf{Stbl: &mp4.Stbl{Stts: &mp4.Stts{Entries: []mp4.SttsEntry{{SampleCount: 300, SampleDelta: 33}}}}},
					},
				},
				{
					Tkhd: &mp4.Tkhd{TrackID: 2, Flags: 3, Duration: 10000},
					Mdia: &mp4.Mdia{
						Mdhd: &mp4.Mdhd{Timescale: 44100, Duration: 441000, Language: "eng"},
						Hdlr: &mp4.Hdlr{HandlerType: mp4.FourCC{'s', 'o', 'u', 'n'}},
						Minf: &mp4.Minf{Stbl: &mp4.Stbl{Stts: &mp4.Stts{Entries: []mp4.SttsEntry{{SampleCount: 430, SampleDelta: 1024}}}}},
					},
				},
				{
					Tkhd: &mp4.Tkhd{TrackID: 3, Duration: 10000, Width: 320},
				},
			},
		},
	}
}

const sampleReport = `File:
  file size:  1234
  brands:     isom [isom avc1]

Movie:
  version:       0
  creation time: 1517155200
  duration:      10000
  timescale:     1000

Found 3 Tracks
Track: 1
  flags:    3
  id:       1
  duration: 10000
    width:    640
    height:   360
  type:     Video
  language: "und"
  media:
    sample count: 300
    timescale:    1000
    duration:     10000 (media timescale units)
    duration:     10000.00 (ms)
    frame rate: (computed): 30.00
Track: 2
  flags:    3
  id:       2
  duration: 10000
  type:     Audio
  language: "eng"
  media:
    sample count: 430
    timescale:    44100
    duration:     441000 (media timescale units)
    duration:     10000.00 (ms)
Track: 3
  flags:    0
  id:       3
  duration: 10000
`

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample()))
	require.Equal(t, sampleReport, buf.String())
}

func TestWriteVideoWithoutStts(t *testing.T) {
	f := sample()
	f.Moov.Traks = f.Moov.Traks[:1]
	f.Moov.Traks[0].Mdia.Minf.Stbl.Stts = &mp4.Stts{}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	require.NotContains(t, buf.String(), "sample count")
	require.NotContains(t, buf.String(), "frame rate")
	require.Contains(t, buf.String(), "    duration:     10000.00 (ms)\n")
}

func TestWriteMissing(t *testing.T) {
	for name, tc := range map[string]struct {
		mutate func(f *mp4.File)
		want   error
	}{
		"moov": {func(f *mp4.File) { f.Moov = nil }, ErrNoMovie},
		"mvhd": {func(f *mp4.File) { f.Moov.Mvhd = nil }, ErrNoMovieHeader},
		"tkhd": {func(f *mp4.File) { f.Moov.Traks[1].Tkhd = nil }, ErrNoTrackHeader},
		"hdlr": {func(f *mp4.File) { f.Moov.Traks[0].Mdia.Hdlr = nil }, ErrNoHandler},
		"mdhd": {func(f *mp4.File) { f.Moov.Traks[1].Mdia.Mdhd = nil }, ErrNoMediaHeader},
	} {
		t.Run(name, func(t *testing.T) {
			f := sample()
			tc.mutate(f)
			err := Write(&bytes.Buffer{}, f)
			require.Equal(t, tc.want, errors.Cause(err))
		})
	}
}
