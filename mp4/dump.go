package mp4

import (
	"fmt"
	"io"
	"strings"

	gomp4 "github.com/abema/go-mp4"
	"github.com/pkg/errors"
)

// Dump writes the box tree of r to w, one box per line, indented by depth.
// Every box the library understands is expanded and its payload printed,
// except mdat whose payload is media data.
func Dump(w io.Writer, r io.ReadSeeker) error {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "mp4: seek")
	}

	_, err := gomp4.ReadBoxStructure(r, func(h *gomp4.ReadHandle) (interface{}, error) {
		depth := len(h.Path) - 1
		if depth < 0 {
			depth = 0
		}
		fmt.Fprintf(w, "%s[%s] size=%d", strings.Repeat("  ", depth), h.BoxInfo.Type, h.BoxInfo.Size)

		if !h.BoxInfo.IsSupportedType() || h.BoxInfo.Type == gomp4.BoxTypeMdat() {
			fmt.Fprintln(w)
			return nil, nil
		}

		box, _, err := h.ReadPayload()
		if err != nil {
			return nil, errors.Wrapf(err, "mp4: %s payload", h.BoxInfo.Type)
		}
		str, err := gomp4.Stringify(box, h.BoxInfo.Context)
		if err != nil {
			return nil, errors.Wrapf(err, "mp4: stringify %s", h.BoxInfo.Type)
		}
		if str != "" {
			fmt.Fprintf(w, " %s", str)
		}
		fmt.Fprintln(w)

		return h.Expand()
	})
	return errors.Wrap(err, "mp4: dump")
}
