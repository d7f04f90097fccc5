package nestedbuild

import (
	"bytes"
	"io"
	"strings"

	"github.com/fatih/color"
)

var indentColor = color.New(color.FgHiBlack)

// IndentWriter prefixes every line it writes with a depth marker, so output
// from nested builds lines up under their parent's log.
type IndentWriter struct {
	inner   io.Writer
	prefix  string
	midline bool
}

// NewIndentWriter wraps the writer with one "│ " marker per depth level.
func NewIndentWriter(inner io.Writer, depth int) *IndentWriter {
	return &IndentWriter{
		inner:  inner,
		prefix: indentColor.Sprint(strings.Repeat("│ ", depth)),
	}
}

// Write implements io.Writer. Prefixes are inserted at the start of each
// line, including lines split across multiple calls.
func (w *IndentWriter) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if !w.midline {
			if _, err := io.WriteString(w.inner, w.prefix); err != nil {
				return written, err
			}
			w.midline = true
		}
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			n, err := w.inner.Write(p)
			return written + n, err
		}
		n, err := w.inner.Write(p[:idx+1])
		written += n
		if err != nil {
			return written, err
		}
		w.midline = false
		p = p[idx+1:]
	}
	return written, nil
}
