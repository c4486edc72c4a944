// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package zipengine is the stateful ZIP traversal orchestrator: it
// detects the archive signature, optionally resolves the central
// directory, and then iterates entries, dispatching each to a
// caller-supplied Filter and routing compressed bytes either to the
// caller's Handler or past them with Ignore.
package zipengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nunnzip/tokzip/internal/zipcodec"
	"github.com/nunnzip/tokzip/tokenizer"
)

// syncBufferSize is the engine's reusable scratch region, used for the
// EOCD tail scan and the forward data-descriptor search. It is
// single-goroutine scratch: its contents are never read across a call
// into user code.
const syncBufferSize = 256 * 1024

// Engine is the stateful orchestrator built around one borrowed
// tokenizer. The caller owns the tokenizer and is responsible for
// closing it after Unzip returns; Engine holds no resources of its own
// that need explicit teardown.
type Engine struct {
	tok          tokenizer.Tokenizer
	decompressor Decompressor
	cache        cache
	scratch      [syncBufferSize]byte
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithDecompressor overrides the default klauspost/compress-backed
// Decompressor, e.g. for tests that want to assert on which method was
// requested.
func WithDecompressor(d Decompressor) Option {
	return func(e *Engine) { e.decompressor = d }
}

// WithCache installs a payload cache (see internal/memcache and
// internal/diskcache) that memoizes a decompressed entry's bytes keyed
// by its central-directory offset and name. Only consulted on Path A,
// since Path B never re-reads an entry within a single forward pass.
func WithCache(c cache) Option {
	return func(e *Engine) { e.cache = c }
}

// New builds an Engine around a tokenizer. The tokenizer must outlive
// the Engine.
func New(tok tokenizer.Tokenizer, opts ...Option) *Engine {
	e := &Engine{tok: tok, decompressor: DefaultDecompressor}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsZip peeks a 4-byte little-endian value at the tokenizer's current
// position and reports whether it equals the Local File Header
// signature. It never changes the tokenizer's position.
func (e *Engine) IsZip(ctx context.Context) (bool, error) {
	var sig [4]byte
	n, err := e.tok.Peek(ctx, sig[:], true)
	if n < 4 {
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		return false, nil
	}
	return leUint32(sig[:]) == zipcodec.SigLocalFileHeader, nil
}

// Unzip is the top-level traversal: it attempts to resolve the central
// directory and, if that succeeds, iterates entries by index
// (central-directory-driven, Path A); otherwise it falls back to a
// forward streaming scan (Path B). filter is invoked exactly once per
// entry before its payload is consumed.
func (e *Engine) Unzip(ctx context.Context, filter Filter) error {
	entries, err := e.readCentralDirectory(ctx)
	if err != nil {
		return err
	}
	if entries != nil {
		slog.Info("zipTraversalStart", "strategy", "centralDirectory", "entries", len(entries))
		return e.unzipPathA(ctx, entries, filter)
	}
	slog.Info("zipTraversalStart", "strategy", "forwardScan")
	return e.unzipPathB(ctx, filter)
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// cache is the shape internal/memcache and internal/diskcache both
// satisfy; kept unexported so Engine's public surface doesn't leak the
// cache-tier abstraction.
type cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte)
}

func cacheKey(centralOffset int64, name string) string {
	return fmt.Sprintf("%d:%s", centralOffset, name)
}
