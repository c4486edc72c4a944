// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zipfs

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	"github.com/nunnzip/tokzip/tokenizer"
)

func buildFixture(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, e := range []struct {
		name, content string
	}{
		{"hello.txt", "hello there"},
		{"dir/nested.txt", "nested content"},
	} {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("creating %q: %v", e.name, err)
		}
		if _, err := fw.Write([]byte(e.content)); err != nil {
			t.Fatalf("writing %q: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing fixture: %v", err)
	}
	return buf.Bytes()
}

func TestOpenAndReadFile(t *testing.T) {
	raw := buildFixture(t)
	tok := tokenizer.NewFile(bytes.NewReader(raw), int64(len(raw)))

	zfs, err := Open(context.Background(), tok)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	f, err := zfs.Open("hello.txt")
	if err != nil {
		t.Fatalf("Open(hello.txt): %v", err)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("reading hello.txt: %v", err)
	}
	if string(b) != "hello there" {
		t.Fatalf("hello.txt = %q", b)
	}

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size() != int64(len("hello there")) {
		t.Errorf("Size() = %d, want %d", info.Size(), len("hello there"))
	}
}

func TestOpenNestedPath(t *testing.T) {
	raw := buildFixture(t)
	tok := tokenizer.NewFile(bytes.NewReader(raw), int64(len(raw)))

	zfs, err := Open(context.Background(), tok)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	b, err := zfs.ReadFile("dir/nested.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "nested content" {
		t.Fatalf("dir/nested.txt = %q", b)
	}
}

func TestOpenMissingEntry(t *testing.T) {
	raw := buildFixture(t)
	tok := tokenizer.NewFile(bytes.NewReader(raw), int64(len(raw)))

	zfs, err := Open(context.Background(), tok)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	_, err = zfs.Open("does-not-exist.txt")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestOpenRejectsSequentialTokenizer(t *testing.T) {
	raw := buildFixture(t)
	tok := tokenizer.NewStream(bytes.NewReader(raw))

	_, err := Open(context.Background(), tok)
	if err == nil {
		t.Fatal("expected an error opening zipfs over a non-random-access tokenizer")
	}
}
