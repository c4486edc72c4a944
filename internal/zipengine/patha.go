// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zipengine

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nunnzip/tokzip/internal/zipcodec"
	"github.com/nunnzip/tokzip/tokenizer"
)

// unzipPathA is the central-directory-driven traversal available when
// the tokenizer supports random access: entries are visited in
// central-directory order, each local header is read by seeking
// straight to entry.relativeOffsetOfLocalHeader, and the compressed
// size is always taken from the central directory, never trusted from
// the local header.
func (e *Engine) unzipPathA(ctx context.Context, entries []centralEntry, filter Filter) error {
	for i := range entries {
		ent := entries[i]
		result, err := filter(ctx, &ent.Entry)
		if err != nil {
			return err
		}

		if result.Handler != nil {
			if err := e.extractPathA(ctx, &ent, result.Handler); err != nil {
				return err
			}
		}

		if result.Stop {
			slog.Info("zipTraversalStop", "strategy", "centralDirectory", "atEntry", i)
			return nil
		}
	}
	return nil
}

func (e *Engine) extractPathA(ctx context.Context, ent *centralEntry, handler Handler) error {
	if e.cache != nil {
		key := cacheKey(ent.centralOffset, ent.Name)
		if cached, ok := e.cache.Get(ctx, key); ok {
			return handler(ctx, bytesReader(cached))
		}
	}

	localHdr, err := tokenizer.ReadTokenAt(ctx, e.tok, ent.relativeOffsetOfLocalHeader, zipcodec.LocalFileHeaderLen, zipcodec.DecodeLocalFileHeader)
	if err != nil {
		return fmt.Errorf("%w: reading local header for %q: %w", ErrTruncatedArchive, ent.Name, err)
	}
	if localHdr.Signature != zipcodec.SigLocalFileHeader {
		return fmt.Errorf("%w: bad local header signature for %q", ErrCorruptArchive, ent.Name)
	}

	payloadOffset := ent.relativeOffsetOfLocalHeader + zipcodec.LocalFileHeaderLen +
		int64(localHdr.FilenameLength) + int64(localHdr.ExtraFieldLength)

	raw := io.NewSectionReader(tokenizerReaderAt{e.tok, ctx}, payloadOffset, ent.CompressedSize)

	decompressed, err := e.decompress(ent.CompressionMethod, raw)
	if err != nil {
		return err
	}
	if closer, ok := decompressed.(io.Closer); ok {
		defer closer.Close()
	}

	var capture *capturingReader
	src := decompressed
	if e.cache != nil {
		capture = &capturingReader{r: decompressed}
		src = capture
	}

	if err := handler(ctx, src); err != nil {
		return fmt.Errorf("%w: %w", ErrHandlerFailed, err)
	}

	if e.cache != nil && capture != nil {
		e.cache.Put(ctx, cacheKey(ent.centralOffset, ent.Name), capture.captured())
	}
	return nil
}

// decompress routes compressed bytes per §4.2.3: method 0 passes
// through unchanged, anything else goes to the configured Decompressor.
func (e *Engine) decompress(method uint16, r io.Reader) (io.Reader, error) {
	if method == methodStore {
		return r, nil
	}
	dr, err := e.decompressor.NewReader(method, r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecompressionFailed, err)
	}
	return dr, nil
}

// tokenizerReaderAt adapts a random-access Tokenizer to io.ReaderAt so
// it can back an io.SectionReader; each ReadAt is an independent
// random-access read and never disturbs the tokenizer's sequential
// position.
type tokenizerReaderAt struct {
	t   tokenizer.Tokenizer
	ctx context.Context
}

func (a tokenizerReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return a.t.Read(a.ctx, p, tokenizer.ReadOptions{Position: &off, MayBeLess: true})
}

func bytesReader(b []byte) io.Reader { return io.Reader(&simpleByteReader{b: b}) }

type simpleByteReader struct{ b []byte }

func (r *simpleByteReader) Read(p []byte) (int, error) {
	if len(r.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.b)
	r.b = r.b[n:]
	return n, nil
}

// capturingReader tees everything read through it into an internal
// buffer so a cache-populating extraction doesn't need a second pass
// over the tokenizer.
type capturingReader struct {
	r   io.Reader
	buf []byte
}

func (c *capturingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.buf = append(c.buf, p[:n]...)
	return n, err
}

func (c *capturingReader) captured() []byte { return c.buf }
