package archive_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/rcdv-generator/internal/archive"
)

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := archive.NewWriter(&buf, archive.DefaultLevel)
	require.NoError(t, err)

	require.NoError(t, w.Add("100.docx", []byte("primeiro")))
	require.NoError(t, w.Add("200.docx", bytes.Repeat([]byte("segundo "), 100)))
	assert.ErrorContains(t, w.Add("100.docx", []byte("de novo")), "duplicate")
	assert.Equal(t, 2, w.Len())
	require.NoError(t, w.Close())

	r, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, r.File, 2)

	assert.Equal(t, "100.docx", r.File[0].Name)
	assert.Equal(t, zip.Deflate, r.File[0].Method)
	rc, err := r.File[0].Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "primeiro", string(content))

	assert.Equal(t, "200.docx", r.File[1].Name)
	assert.Less(t, r.File[1].CompressedSize64, r.File[1].UncompressedSize64)
}

func TestNewWriter_InvalidLevel(t *testing.T) {
	_, err := archive.NewWriter(io.Discard, flate.BestCompression+1)
	assert.Error(t, err)
}
