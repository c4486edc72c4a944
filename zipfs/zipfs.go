// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Package zipfs is a read-only io/fs.FS convenience view over an
// archive, the one higher-level abstraction this module's teacher
// exists to provide (every internal format package it carries
// ultimately produces an fs.FS). It is layered strictly on top of
// zipengine's callback-based Unzip contract rather than duplicating
// any of its traversal logic.
package zipfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"time"

	"github.com/nunnzip/tokzip/internal/zipengine"
	"github.com/nunnzip/tokzip/tokenizer"
)

// FS is a read-only snapshot of an archive's entries, each held as its
// already-decompressed bytes. Building one runs exactly one
// central-directory-driven pass over tok; it never re-scans per Open
// call.
type FS struct {
	files map[string]*fileRecord
	names []string // entry names, sorted once the index is built
}

type fileRecord struct {
	name    string
	content []byte
	modTime time.Time
}

// Open builds an FS from tok, which must support random access (the
// forward-only streaming strategy has no way to answer an arbitrary
// fs.FS.Open(name) without re-scanning the whole archive for every
// call, which this package deliberately never does).
func Open(ctx context.Context, tok tokenizer.Tokenizer) (*FS, error) {
	if !tok.SupportsRandomAccess() {
		return nil, fmt.Errorf("zipfs: %w", zipengine.ErrRandomAccessRequired)
	}

	engine := zipengine.New(tok)
	out := &FS{files: make(map[string]*fileRecord)}

	filter := func(ctx context.Context, entry *zipengine.Entry) (zipengine.FilterResult, error) {
		name := entry.Name
		modTime := entry.ModTime
		return zipengine.FilterResult{Handler: func(ctx context.Context, r io.Reader) error {
			b, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			out.files[name] = &fileRecord{name: name, content: b, modTime: modTime}
			out.names = append(out.names, name)
			return nil
		}}, nil
	}

	if err := engine.Unzip(ctx, filter); err != nil {
		return nil, fmt.Errorf("zipfs: building index: %w", err)
	}
	sort.Strings(out.names)
	return out, nil
}

// Open implements io/fs.FS.
func (f *FS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	rec, ok := f.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &openFile{rec: rec, r: bytes.NewReader(rec.content)}, nil
}

// ReadFile implements io/fs.ReadFileFS, avoiding an extra copy through
// an fs.File for the common whole-file-read case.
func (f *FS) ReadFile(name string) ([]byte, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrInvalid}
	}
	rec, ok := f.files[name]
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	out := make([]byte, len(rec.content))
	copy(out, rec.content)
	return out, nil
}

type openFile struct {
	rec *fileRecord
	r   *bytes.Reader
}

func (o *openFile) Stat() (fs.FileInfo, error) { return fileInfo{o.rec}, nil }
func (o *openFile) Read(p []byte) (int, error) { return o.r.Read(p) }
func (o *openFile) Close() error               { return nil }

type fileInfo struct{ rec *fileRecord }

func (i fileInfo) Name() string       { return i.rec.name }
func (i fileInfo) Size() int64        { return int64(len(i.rec.content)) }
func (i fileInfo) Mode() fs.FileMode  { return 0o444 }
func (i fileInfo) ModTime() time.Time { return i.rec.modTime }
func (i fileInfo) IsDir() bool        { return false }
func (i fileInfo) Sys() any           { return nil }
