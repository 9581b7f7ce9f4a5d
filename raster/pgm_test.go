package raster

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Swind/go-raster-runner/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePGM_Format(t *testing.T) {
	img, err := FromPixels(3, 2, 255, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePGM(&buf, img))

	assert.Equal(t, append([]byte("P5\n3 2\n255\n"), 1, 2, 3, 4, 5, 6), buf.Bytes())
}

func TestReadPGM_RoundTrip(t *testing.T) {
	img, err := New(4, 3, 200)
	require.NoError(t, err)
	for i := range img.Pixels {
		img.Pixels[i] = byte(i * 13 % 201)
	}

	var buf bytes.Buffer
	require.NoError(t, WritePGM(&buf, img))
	got, err := ReadPGM(&buf)
	require.NoError(t, err)

	assert.Equal(t, img, got)
}

func TestReadPGM_CommentsAndWhitespace(t *testing.T) {
	data := append([]byte("P5\n# created by hand\n2  2\t# size\n255\n"), 9, 8, 7, 6)

	img, err := ReadPGM(bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, []byte{9, 8, 7, 6}, img.Pixels)
}

func TestReadPGM_PixelBytesThatLookLikeWhitespace(t *testing.T) {
	data := append([]byte("P5 2 1 255\n"), '\n', ' ')

	img, err := ReadPGM(bytes.NewReader(data))

	require.NoError(t, err)
	assert.Equal(t, []byte{'\n', ' '}, img.Pixels)
}

func TestReadPGM_Malformed(t *testing.T) {
	cases := map[string][]byte{
		"wrong magic":     []byte("P2\n1 1\n255\n\x00"),
		"truncated":       []byte("P5\n2 2\n"),
		"bad width":       []byte("P5\nx 2\n255\n"),
		"max too large":   []byte("P5\n1 1\n65535\n\x00\x00"),
		"short pixels":    []byte("P5\n2 2\n255\n\x01\x02"),
		"zero max value":  []byte("P5\n1 1\n0\n\x00"),
		"negative height": []byte("P5\n1 -1\n255\n"),
		"product wraps":   []byte("P5\n4294967296 4294967296\n255\n"),
		"product too big": []byte("P5\n3037000500 3037000500\n255\n"),
		"sample over max": []byte("P5\n2 1\n100\n\x64\x65"),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadPGM(bytes.NewReader(data))
			var fe *FormatError
			assert.ErrorAs(t, err, &fe)
		})
	}
}

func TestLoadSavePGM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.pgm")
	img, err := FromPixels(2, 2, 100, []byte{0, 25, 50, 100})
	require.NoError(t, err)

	require.NoError(t, SavePGM(path, img))
	got, err := LoadPGM(path)

	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestLoadPGM_Missing(t *testing.T) {
	_, err := LoadPGM(filepath.Join(t.TempDir(), "missing.pgm"))

	var ioErr *core.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestImage_Validate(t *testing.T) {
	_, err := FromPixels(2, 2, 255, []byte{1, 2, 3})
	assert.Error(t, err, "pixel count mismatch")

	_, err = New(2, 2, 256)
	assert.Error(t, err, "max value above 255")

	_, err = New(-1, 2, 255)
	assert.Error(t, err, "negative width")

	_, err = FromPixels(1<<16, 1<<16, 255, nil)
	assert.Error(t, err, "more than MaxPixels samples")

	img, err := New(0, 0, 255)
	require.NoError(t, err)
	assert.Equal(t, 0, img.Size())
}

func TestImage_Rows(t *testing.T) {
	img, err := FromPixels(2, 3, 255, []byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)

	rows := img.Rows(1, 3)
	assert.Equal(t, []byte{3, 4, 5, 6}, rows)

	rows[0] = 42
	assert.Equal(t, byte(42), img.Pixels[2], "Rows shares the backing array")
}
