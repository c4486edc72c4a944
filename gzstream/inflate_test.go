// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package gzstream

import (
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/nunnzip/tokzip/tokenizer"
)

const loremIpsum = "Lorem ipsum dolor sit amet, consectetur adipiscing elit. \n" +
	"Sed do eiusmod tempor incididunt ut labore et dolore magna aliqua.\n"

func gzipBytes(t *testing.T, plain string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write([]byte(plain)); err != nil {
		t.Fatalf("writing gzip fixture: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing gzip fixture: %v", err)
	}
	return buf.Bytes()
}

func TestInflateHappyPath(t *testing.T) {
	compressed := gzipBytes(t, loremIpsum)
	tok := tokenizer.NewStream(bytes.NewReader(compressed))

	var got bytes.Buffer
	for chunk, err := range Inflate(context.Background(), tok) {
		if err != nil {
			t.Fatalf("unexpected error from lazy sequence: %v", err)
		}
		got.Write(chunk)
	}

	if got.String() != loremIpsum {
		t.Fatalf("decoded mismatch:\n got: %q\nwant: %q", got.String(), loremIpsum)
	}
}

func TestInflateTruncatedStreamSurfacesError(t *testing.T) {
	// The 10-byte gzip header/flag prefix alone, with no deflate body
	// or trailer: the first read past the header must fail.
	prefix := []byte{31, 139, 8, 8, 137, 83, 29, 82, 0, 11}
	tok := tokenizer.NewStream(bytes.NewReader(prefix))

	sawErr := false
	for chunk, err := range Inflate(context.Background(), tok) {
		if err != nil {
			sawErr = true
			break
		}
		if len(chunk) != 0 {
			t.Fatalf("expected no decoded bytes from a bare header, got %d", len(chunk))
		}
	}

	if !sawErr {
		t.Fatal("expected a truncated gzip stream to surface a decompression error")
	}
}

func TestInflateStopsPullingOnEarlyBreak(t *testing.T) {
	// Write enough data to guarantee multiple internal chunks, then
	// break after the first: the sequence must not panic or deadlock.
	big := bytes.Repeat([]byte(loremIpsum), 64)
	compressed := gzipBytes(t, string(big))
	tok := tokenizer.NewStream(bytes.NewReader(compressed))

	steps := 0
	for chunk, err := range Inflate(context.Background(), tok) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chunk) == 0 {
			t.Fatal("expected a non-empty chunk")
		}
		steps++
		break
	}

	if steps != 1 {
		t.Fatalf("expected exactly one pull before breaking, got %d", steps)
	}
}
