package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	gomp4 "github.com/abema/go-mp4"
	"github.com/stretchr/testify/require"

	"github.com/uldza/mediainfo/internal/mp4test"
)

func runArgs(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	err := newCommand(&stdout, &stderr).Run(context.Background(), append([]string{"mp4info"}, args...))
	return stdout.String(), err
}

func testFile(t *testing.T) string {
	return mp4test.WriteFile(t, mp4test.Movie{
		MajorBrand: "mp42",
		Compatible: []string{"mp42", "isom"},
		Timescale:  600,
		Duration:   75600,
		Tracks: []mp4test.Track{{
			ID:            1,
			Handler:       "vide",
			Width:         1920,
			Height:        1080,
			Duration:      75600,
			Timescale:     24000,
			MediaDuration: 3024000,
			Language:      "und",
			Stts:          []gomp4.SttsEntry{{SampleCount: 3024, SampleDelta: 1000}},
		}},
	})
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{nil, {"a.mp4", "b.mp4"}} {
		out, err := runArgs(t, args...)
		require.NoError(t, err)
		require.Equal(t, usage+"\n", out)
	}
}

func TestReport(t *testing.T) {
	out, err := runArgs(t, testFile(t))
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "File:\n"), out)
	require.Contains(t, out, "  brands:     mp42 [mp42 isom]\n")
	require.Contains(t, out, "Found 1 Tracks\n")
	require.Contains(t, out, "    width:    1920\n")
	require.Contains(t, out, "    duration:     126000.00 (ms)\n")
	require.Contains(t, out, "    frame rate: (computed): 24.00\n")
}

func TestSummary(t *testing.T) {
	out, err := runArgs(t, "--summary", testFile(t))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "MP4 (mp42), "), out)
	require.True(t, strings.HasSuffix(out, ", 1 tracks\n"), out)
}

func TestBoxes(t *testing.T) {
	out, err := runArgs(t, "--boxes", testFile(t))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "[ftyp] size="), out)
	require.Contains(t, out, "\n  [trak] size=")
}

func TestMissingFile(t *testing.T) {
	_, err := runArgs(t, t.TempDir()+"/nothing.mp4")
	require.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	_, err := runArgs(t, "--log-level", "loud", testFile(t))
	require.Error(t, err)
}
