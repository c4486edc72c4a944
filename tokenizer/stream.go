// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package tokenizer

import (
	"bufio"
	"context"
	"io"
)

// streamTokenizer wraps a sequential io.Reader: an HTTP response body,
// an object-store download, a pipe. It never supports random access;
// Peek is implemented with bufio so a short peek at end of stream is
// reported without an error, matching spec.
type streamTokenizer struct {
	br  *bufio.Reader
	pos int64
}

// NewStream builds a sequential Tokenizer over an io.Reader. The
// internal peek window is sized to cover the engine's largest forward
// peek (256 KiB) plus headroom.
func NewStream(r io.Reader) Tokenizer {
	return &streamTokenizer{br: bufio.NewReaderSize(r, 320*1024)}
}

func (s *streamTokenizer) Read(ctx context.Context, buf []byte, opts ReadOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if opts.Position != nil {
		return 0, errNoRandomAccess
	}
	var n int
	var err error
	if opts.MayBeLess {
		n, err = s.br.Read(buf)
	} else {
		n, err = io.ReadFull(s.br, buf)
		if err == io.ErrUnexpectedEOF {
			err = io.ErrUnexpectedEOF
		}
	}
	s.pos += int64(n)
	return n, err
}

func (s *streamTokenizer) Peek(ctx context.Context, buf []byte, mayBeLess bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b, err := s.br.Peek(len(buf))
	n := copy(buf, b)
	if err == io.EOF && n > 0 {
		err = nil // short peek at end of stream, not itself an error
	}
	if !mayBeLess && err == nil && n < len(buf) {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

func (s *streamTokenizer) Ignore(ctx context.Context, n int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	discarded, err := s.br.Discard(int(n))
	s.pos += int64(discarded)
	return err
}

func (s *streamTokenizer) Position() int64 { return s.pos }

func (s *streamTokenizer) SupportsRandomAccess() bool { return false }

func (s *streamTokenizer) Size() (int64, bool) { return 0, false }

func (s *streamTokenizer) SetPosition(ctx context.Context, pos int64) error {
	return errNoRandomAccess
}

var errNoRandomAccess = streamError("tokenizer: random access not supported on a sequential stream")

type streamError string

func (e streamError) Error() string { return string(e) }
