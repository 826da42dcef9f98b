// =============================================================================
// RCDV Generator - Document Archive
// =============================================================================
//
// This module packages rendered documents into a single zip archive, the
// download the user receives. Entries are deflated with a configurable
// level; an archive refuses duplicate entry names.
//
// =============================================================================

package archive

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

// DefaultLevel trades a little size for speed; documents are small and
// already contain compressed media.
const DefaultLevel = flate.BestSpeed

// Writer streams entries into a zip archive.
type Writer struct {
	zw    *zip.Writer
	names map[string]struct{}
	now   func() time.Time
}

// NewWriter returns an archive writing to w with the given deflate level
// (flate.NoCompression through flate.BestCompression).
func NewWriter(w io.Writer, level int) (*Writer, error) {
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		return nil, fmt.Errorf("invalid compression level %d", level)
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})

	return &Writer{
		zw:    zw,
		names: make(map[string]struct{}),
		now:   time.Now,
	}, nil
}

// Add writes one entry.
func (a *Writer) Add(name string, data []byte) error {
	if _, dup := a.names[name]; dup {
		return fmt.Errorf("duplicate archive entry %s", name)
	}

	w, err := a.zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: a.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to create entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write entry %s: %w", name, err)
	}

	a.names[name] = struct{}{}
	return nil
}

// Len returns the number of entries written so far.
func (a *Writer) Len() int {
	return len(a.names)
}

// Close writes the central directory. The underlying writer is not closed.
func (a *Writer) Close() error {
	return a.zw.Close()
}
