package protocol

import (
	"context"
	"errors"
	"os"

	"github.com/Swind/go-raster-runner/core"
)

// Send opens the named channel at path for writing, writes one frame and
// closes it. Opening blocks until a reader has opened the same channel or ctx
// is done; there is no timeout of its own.
func Send(ctx context.Context, path string, h Header, pixels []byte) (err error) {
	f, err := openChannel(ctx, path, os.O_WRONLY)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return err
		}
		return &core.IOError{Op: "open channel for writing", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &core.IOError{Op: "close channel", Path: path, Err: cerr}
		}
	}()

	if err := WriteFrame(f, h, pixels); err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			return err
		}
		return &core.IOError{Op: "write channel", Path: path, Err: err}
	}
	return nil
}

// Receive opens the named channel at path for reading and reads one frame
// until the writer closes its end. Opening blocks until a writer connects or
// ctx is done.
func Receive(ctx context.Context, path string) (Header, []byte, error) {
	f, err := openChannel(ctx, path, os.O_RDONLY)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return Header{}, nil, err
		}
		return Header{}, nil, &core.IOError{Op: "open channel for reading", Path: path, Err: err}
	}
	defer f.Close()

	h, pixels, err := ReadFrame(f)
	if err != nil {
		var perr *ProtocolError
		if errors.As(err, &perr) {
			return h, nil, err
		}
		return h, nil, &core.IOError{Op: "read channel", Path: path, Err: err}
	}
	return h, pixels, nil
}

// openChannel opens path with flag, giving up when ctx is done. A cancelled
// open is released by briefly attaching the opposite end, after which the
// half-opened file is closed and ctx.Err() returned.
func openChannel(ctx context.Context, path string, flag int) (*os.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type result struct {
		f   *os.File
		err error
	}
	done := make(chan result, 1)
	go func() {
		f, err := os.OpenFile(path, flag, 0)
		done <- result{f: f, err: err}
	}()

	select {
	case r := <-done:
		return r.f, r.err
	case <-ctx.Done():
	}

	release, err := wakeChannel(path)
	if err != nil {
		// The open stays parked until a peer arrives; done is buffered.
		return nil, ctx.Err()
	}
	r := <-done
	release()
	if r.f != nil {
		r.f.Close()
	}
	return nil, ctx.Err()
}
