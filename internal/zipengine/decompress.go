// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zipengine

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

// Decompressor is the external collaborator spec.md treats as out of
// scope: "compressed bytes -> decompressed bytes". The engine is
// method-agnostic beyond the store/deflate split (§4.2.3); everything
// past method 0 is routed here.
type Decompressor interface {
	// NewReader wraps r, a section containing exactly the compressed
	// payload, and returns a reader of the decompressed bytes. method
	// is the ZIP compression method (8 for DEFLATE, 9 for DEFLATE64).
	NewReader(method uint16, r io.Reader) (io.ReadCloser, error)
}

// defaultDecompressor routes DEFLATE (method 8) and DEFLATE64
// (method 9) through klauspost/compress/flate, which -- per its own
// documentation -- decodes both without needing a separate code path:
// DEFLATE64's only wire difference is a larger history window and
// longer match lengths, which the decoder accommodates automatically.
type defaultDecompressor struct{}

// DefaultDecompressor is the Decompressor used when an Engine is
// constructed without WithDecompressor.
var DefaultDecompressor Decompressor = defaultDecompressor{}

func (defaultDecompressor) NewReader(method uint16, r io.Reader) (io.ReadCloser, error) {
	switch method {
	case methodDeflate, methodDeflate64:
		return flate.NewReader(r), nil
	default:
		return nil, fmt.Errorf("%w: method %d", ErrDecompressionFailed, method)
	}
}

const (
	methodStore     uint16 = 0
	methodDeflate   uint16 = 8
	methodDeflate64 uint16 = 9
)
