package mediainfo

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeMeta struct {
	size int64
}

func (m fakeMeta) Duration() time.Duration { return time.Duration(m.size) * time.Second }
func (m fakeMeta) NumTracks() int          { return 1 }
func (m fakeMeta) Brand() string           { return "fake" }

func withFormats(t *testing.T, fs ...format) {
	saved := formats
	formats = fs
	t.Cleanup(func() { formats = saved })
}

func TestMatch(t *testing.T) {
	require.True(t, match("????ftyp", []byte("\x00\x00\x00\x18ftyp")))
	require.True(t, match("fLaC", []byte("fLaC")))
	require.False(t, match("????ftyp", []byte("\x00\x00\x00\x18moov")))
	require.False(t, match("????ftyp", []byte("ftyp")))
}

func TestDecodeMeta(t *testing.T) {
	var gotSize int64
	var gotHead []byte
	withFormats(t, format{
		name:  "FAKE",
		magic: "??AB",
		decodeMeta: func(r io.ReadSeeker, n int64) (Metadata, error) {
			gotSize = n
			gotHead = make([]byte, 4)
			if _, err := io.ReadFull(r, gotHead); err != nil {
				return nil, err
			}
			return fakeMeta{size: n}, nil
		},
	})

	m, name, err := DecodeMeta(bytes.NewReader([]byte("xxABcdef")))
	require.NoError(t, err)
	require.Equal(t, "FAKE", name)
	require.Equal(t, int64(8), gotSize)
	require.Equal(t, []byte("xxAB"), gotHead, "decoder must see the input from its start")
	require.Equal(t, 8*time.Second, m.Duration())
	require.Equal(t, "fake", m.Brand())
}

func TestDecodeMetaUnknown(t *testing.T) {
	withFormats(t, format{name: "FAKE", magic: "ABCD"})

	_, _, err := DecodeMeta(bytes.NewReader([]byte("nope, not this")))
	require.Equal(t, ErrFormat, err)

	_, _, err = DecodeMeta(bytes.NewReader(nil))
	require.Equal(t, ErrFormat, err)
}

func TestDecodeMetaShortInput(t *testing.T) {
	withFormats(t,
		format{name: "LONG", magic: "ABCDEFGH"},
		format{name: "SHORT", magic: "AB", decodeMeta: func(r io.ReadSeeker, n int64) (Metadata, error) {
			return fakeMeta{size: n}, nil
		}},
	)

	_, name, err := DecodeMeta(bytes.NewReader([]byte("ABC")))
	require.NoError(t, err)
	require.Equal(t, "SHORT", name)
}
