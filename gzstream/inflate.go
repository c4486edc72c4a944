// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package gzstream is the GZIP secondary core from spec.md §4.3: it
// adapts a pull-based tokenizer into a lazy sequence of decompressed
// bytes. Go's range-over-func iterators are exactly the "lazy byte
// sequence" the language-neutral spec calls for -- the consumer's for
// loop is the pull side, and breaking out of it early is the
// cooperative cancellation spec.md describes.
package gzstream

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/klauspost/compress/gzip"

	"github.com/nunnzip/tokzip/tokenizer"
)

// Inflate builds the lazy byte sequence. Each iteration step reads up
// to a fixed chunk from the decompressor; a tokenizer read error or a
// decompressor error (including a truncated/corrupt stream) is
// delivered as the final (nil, err) pair rather than silently ending
// the sequence. Stopping the range early terminates the decompressor
// and tokenizer reads promptly.
func Inflate(ctx context.Context, tok tokenizer.Tokenizer) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		src := &tokenizerReader{ctx: ctx, tok: tok}
		gz, err := gzip.NewReader(src)
		if err != nil {
			yield(nil, fmt.Errorf("gzstream: opening gzip stream: %w", err))
			return
		}
		defer gz.Close()

		buf := make([]byte, 1024)
		for {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			n, err := gz.Read(buf)
			if n > 0 {
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if !yield(chunk, nil) {
					return // consumer cancelled: stop pulling, no more callbacks
				}
			}
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("gzstream: decompressing: %w", err))
				return
			}
		}
	}
}

// tokenizerReader adapts a sequential Tokenizer to io.Reader so it can
// back the gzip decompressor's pull side. Each Read asks the tokenizer
// for at most one chunk; mayBeLess is true so a short read simply
// returns what's available rather than blocking for a full buffer.
type tokenizerReader struct {
	ctx context.Context
	tok tokenizer.Tokenizer
}

func (r *tokenizerReader) Read(p []byte) (int, error) {
	return r.tok.Read(r.ctx, p, tokenizer.ReadOptions{MayBeLess: true})
}
