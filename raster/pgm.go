package raster

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/Swind/go-raster-runner/core"
)

// FormatError reports a malformed P5 stream.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "raster: malformed P5 data: " + e.Reason }

// ReadPGM decodes a binary (P5) graymap. The header is "P5", width, height and
// maximum value separated by whitespace, with '#' comments allowed, followed
// by a single whitespace byte and width*height sample bytes, none of them
// above the maximum value.
func ReadPGM(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	magic, err := readToken(br)
	if err != nil {
		return nil, err
	}
	if magic != "P5" {
		return nil, &FormatError{Reason: fmt.Sprintf("magic %q, want P5", magic)}
	}

	var dims [3]int
	for i, name := range []string{"width", "height", "max value"} {
		tok, err := readToken(br)
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(tok)
		if err != nil || v < 0 {
			return nil, &FormatError{Reason: fmt.Sprintf("bad %s %q", name, tok)}
		}
		dims[i] = v
	}

	img, err := New(dims[0], dims[1], dims[2])
	if err != nil {
		return nil, &FormatError{Reason: err.Error()}
	}
	if _, err := io.ReadFull(br, img.Pixels); err != nil {
		return nil, &FormatError{Reason: fmt.Sprintf("pixel data: %v", err)}
	}
	for i, v := range img.Pixels {
		if int(v) > img.MaxValue {
			return nil, &FormatError{Reason: fmt.Sprintf("sample %d at offset %d exceeds max value %d", v, i, img.MaxValue)}
		}
	}
	return img, nil
}

// readToken skips whitespace and comments, returns the next token and
// consumes exactly one trailing whitespace byte.
func readToken(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", &FormatError{Reason: "truncated header"}
			}
			return "", err
		}
		switch {
		case c == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil {
				return "", &FormatError{Reason: "truncated header"}
			}
		case isSpace(c):
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// WritePGM encodes img as "P5\n<w> <h>\n<max>\n" followed by the raw samples.
func WritePGM(w io.Writer, img *Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n%d\n", img.Width, img.Height, img.MaxValue); err != nil {
		return err
	}
	if _, err := bw.Write(img.Pixels); err != nil {
		return err
	}
	return bw.Flush()
}

// LoadPGM reads a P5 file from path.
func LoadPGM(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.IOError{Op: "open raster", Path: path, Err: err}
	}
	defer f.Close()

	img, err := ReadPGM(f)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &core.IOError{Op: "read raster", Path: path, Err: err}
	}
	return img, nil
}

// SavePGM writes img to path, replacing any existing file.
func SavePGM(path string, img *Image) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &core.IOError{Op: "create raster", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &core.IOError{Op: "close raster", Path: path, Err: cerr}
		}
	}()

	if err := WritePGM(f, img); err != nil {
		return &core.IOError{Op: "write raster", Path: path, Err: err}
	}
	return nil
}
