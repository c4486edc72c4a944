// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package tokenizer

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestFileTokenizerRandomAccess(t *testing.T) {
	ctx := context.Background()
	data := "abcdefghij"
	tok := NewFile(strings.NewReader(data), int64(len(data)))

	if !tok.SupportsRandomAccess() {
		t.Fatal("file tokenizer should support random access")
	}
	if size, ok := tok.Size(); !ok || size != int64(len(data)) {
		t.Fatalf("Size() = %d, %v", size, ok)
	}

	buf := make([]byte, 4)
	pos := int64(3)
	n, err := tok.Read(ctx, buf, ReadOptions{Position: &pos})
	if err != nil || string(buf[:n]) != "defg" {
		t.Fatalf("random read: %q, %v", buf[:n], err)
	}
	if tok.Position() != 0 {
		t.Fatalf("random read should not move the sequential cursor, got %d", tok.Position())
	}

	n, err = tok.Read(ctx, buf, ReadOptions{})
	if err != nil || string(buf[:n]) != "abcd" {
		t.Fatalf("sequential read: %q, %v", buf[:n], err)
	}
	if tok.Position() != 4 {
		t.Fatalf("Position() = %d, want 4", tok.Position())
	}
}

func TestFileTokenizerPeekDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	tok := NewFile(strings.NewReader("hello world"), 11)
	buf := make([]byte, 5)
	if _, err := tok.Peek(ctx, buf, false); err != nil {
		t.Fatal(err)
	}
	if string(buf) != "hello" {
		t.Fatalf("peek = %q", buf)
	}
	if tok.Position() != 0 {
		t.Fatalf("peek must not advance, got position %d", tok.Position())
	}
}

func TestStreamTokenizerPeekAndIgnore(t *testing.T) {
	ctx := context.Background()
	tok := NewStream(strings.NewReader("0123456789"))
	if tok.SupportsRandomAccess() {
		t.Fatal("stream tokenizer must not support random access")
	}

	buf := make([]byte, 3)
	if _, err := tok.Peek(ctx, buf, false); err != nil || string(buf) != "012" {
		t.Fatalf("peek = %q, %v", buf, err)
	}
	if err := tok.Ignore(ctx, 2); err != nil {
		t.Fatal(err)
	}
	n, err := tok.Read(ctx, buf, ReadOptions{})
	if err != nil || string(buf[:n]) != "234" {
		t.Fatalf("read after ignore = %q, %v", buf[:n], err)
	}
}

func TestStreamTokenizerShortPeekAtEOF(t *testing.T) {
	ctx := context.Background()
	tok := NewStream(strings.NewReader("ab"))
	buf := make([]byte, 4)
	n, err := tok.Peek(ctx, buf, true)
	if n != 2 {
		t.Fatalf("n = %d, want 2", n)
	}
	if err != nil {
		t.Fatalf("short mayBeLess peek should not error, got %v", err)
	}
}

func TestReadFullPropagatesEOF(t *testing.T) {
	ctx := context.Background()
	tok := NewStream(bytes.NewReader(nil))
	buf := make([]byte, 1)
	if _, err := ReadFull(ctx, tok, buf); err != io.EOF && err != io.ErrUnexpectedEOF {
		t.Fatalf("got %v", err)
	}
}
