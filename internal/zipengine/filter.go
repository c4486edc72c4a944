// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zipengine

import (
	"context"
	"io"
	"time"
)

// Entry describes one ZIP member as presented to a Filter, before its
// payload has been consumed. Fields sourced from the central directory
// (Path A) are fully populated; fields sourced from a local header
// alone (Path B) leave CompressedSize at 0 when the data-descriptor
// flag is set and the real size is not yet known (see
// HasDataDescriptor).
type Entry struct {
	Name              string
	CompressionMethod uint16
	CompressedSize    int64
	UncompressedSize  int64
	CRC32             uint32
	ModTime           time.Time
	HasDataDescriptor bool
}

// Handler consumes one entry's decompressed payload. A nil Handler is
// the "ignore" sentinel from spec.md's filter contract: the engine
// skips the payload without decompressing it.
type Handler func(ctx context.Context, r io.Reader) error

// FilterResult is a Filter's answer for one Entry.
type FilterResult struct {
	// Handler, when non-nil, receives the entry's decompressed bytes.
	// Leaving it nil instructs the engine to skip the payload as
	// cheaply as the traversal strategy allows.
	Handler Handler

	// Stop requests termination after this entry's payload (and any
	// trailing data descriptor) has been fully consumed, leaving the
	// tokenizer at a coherent record boundary.
	Stop bool
}

// Filter is invoked exactly once per entry, before payload consumption,
// in central-directory order on Path A and on-disk local-header order
// on Path B.
type Filter func(ctx context.Context, entry *Entry) (FilterResult, error)
