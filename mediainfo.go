// Package mediainfo implements routines for inspecting media container files.
//
// Formats register themselves with RegisterFormat, usually from an init
// function, and are then picked by sniffing the first bytes of the input.
package mediainfo

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrFormat = errors.New("mediainfo: unknown format")
)

type Metadata interface {
	Duration() time.Duration
	NumTracks() int
	// Brand is the format specific flavour of the container, such as the MP4
	// major brand. It may be empty.
	Brand() string
}

var formats []format

type format struct {
	name       string
	magic      string
	decodeMeta func(io.ReadSeeker, int64) (Metadata, error)
}

// RegisterFormat lets the package know how to decode a container format
// identified by a magic number. The decodeMeta function is given the input
// rewound to its start, along with the total input size.
func RegisterFormat(name, magic string, decodeMeta func(io.ReadSeeker, int64) (Metadata, error)) {
	formats = append(formats, format{name, magic, decodeMeta})
}

// DecodeMeta sniffs r and decodes its metadata with the matching format. The
// returned string is the name the format was registered with.
func DecodeMeta(r io.ReadSeeker) (Metadata, string, error) {
	n, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, "", errors.Wrap(err, "mediainfo: seek")
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return nil, "", errors.Wrap(err, "mediainfo: seek")
	}

	f, err := sniff(r)
	if err != nil {
		return nil, "", err
	}
	if f.decodeMeta == nil {
		return nil, "", ErrFormat
	}

	m, err := f.decodeMeta(r, n)
	return m, f.name, err
}

// Match reports whether magic matches b. Magic may contain "?" wildcards.
func match(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// Sniff determines the format of r's data and leaves r at its start.
func sniff(r io.ReadSeeker) (format, error) {
	longest := 0
	for _, f := range formats {
		if len(f.magic) > longest {
			longest = len(f.magic)
		}
	}

	head := make([]byte, longest)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return format{}, errors.Wrap(err, "mediainfo: read header")
	}
	head = head[:n]
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return format{}, errors.Wrap(err, "mediainfo: seek")
	}

	for _, f := range formats {
		if len(f.magic) <= len(head) && match(f.magic, head[:len(f.magic)]) {
			return f, nil
		}
	}
	return format{}, nil
}
