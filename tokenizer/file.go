// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package tokenizer

import (
	"context"
	"io"
)

// fileTokenizer wraps an io.ReaderAt of known size. It supports random
// access, so readCentralDirectory and the tail-scan for the EOCD record
// are available against it.
type fileTokenizer struct {
	r   io.ReaderAt
	size int64
	pos int64
}

// NewFile builds a Tokenizer over a random-access byte source of known
// length, such as an *os.File or a pre-fetched in-memory archive.
func NewFile(r io.ReaderAt, size int64) Tokenizer {
	return &fileTokenizer{r: r, size: size}
}

func (f *fileTokenizer) Read(ctx context.Context, buf []byte, opts ReadOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	off := f.pos
	if opts.Position != nil {
		off = *opts.Position
	}
	if off >= f.size {
		return 0, io.EOF
	}
	want := buf
	if off+int64(len(want)) > f.size {
		want = want[:f.size-off]
	}
	n, err := f.r.ReadAt(want, off)
	if opts.Position == nil {
		f.pos += int64(n)
	}
	if err == nil && len(want) < len(buf) {
		err = io.EOF
	}
	if !opts.MayBeLess && err == io.EOF && n < len(buf) {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

func (f *fileTokenizer) Peek(ctx context.Context, buf []byte, mayBeLess bool) (int, error) {
	n, err := f.Read(ctx, buf, ReadOptions{Position: &f.pos, MayBeLess: true})
	if err == io.EOF && n > 0 {
		err = nil // short peek at end of source, not itself an error
	}
	if !mayBeLess && err == nil && n < len(buf) {
		err = io.ErrUnexpectedEOF
	}
	return n, err
}

func (f *fileTokenizer) Ignore(ctx context.Context, n int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.pos += n
	return nil
}

func (f *fileTokenizer) Position() int64 { return f.pos }

func (f *fileTokenizer) SupportsRandomAccess() bool { return true }

func (f *fileTokenizer) Size() (int64, bool) { return f.size, true }

func (f *fileTokenizer) SetPosition(ctx context.Context, pos int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.pos = pos
	return nil
}
