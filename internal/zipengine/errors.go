// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zipengine

import "errors"

// Error taxonomy. Each sentinel is fatal to the Unzip call in which it
// occurs; the engine never retries and never attempts to resynchronize
// after a corrupt record. IoFailure from the language-neutral spec is
// not a separate sentinel here: a tokenizer error is propagated with %w
// (inside ErrTruncatedArchive where it interrupts a record) so
// errors.Is/As still reaches the real cause. A Handler's error is
// wrapped together with ErrHandlerFailed, and errors.Is/As reaches both.
var (
	// ErrNotAZip means IsZip's signature check failed.
	ErrNotAZip = errors.New("zipengine: not a zip file")

	// ErrEncryptedArchive means an encrypted-marker signature was
	// encountered where an entry header was expected.
	ErrEncryptedArchive = errors.New("zipengine: encrypted archives are not supported")

	// ErrUnexpectedSignature means a peeked 4-byte value matched no
	// known record at a position where one was required.
	ErrUnexpectedSignature = errors.New("zipengine: unexpected signature")

	// ErrCorruptArchive means a required signature (inside a data
	// descriptor, a central file header, a zip64 locator) did not
	// match what the surrounding structure promised.
	ErrCorruptArchive = errors.New("zipengine: corrupt archive")

	// ErrTruncatedArchive means end-of-stream was reached mid-record,
	// as opposed to a clean end-of-entries termination.
	ErrTruncatedArchive = errors.New("zipengine: truncated archive")

	// ErrDecompressionFailed wraps an error from the configured
	// Decompressor.
	ErrDecompressionFailed = errors.New("zipengine: decompression failed")

	// ErrNoSpanned means the archive is a genuine multi-disk/spanned
	// archive, which is out of scope.
	ErrNoSpanned = errors.New("zipengine: spanned archives are not supported")

	// ErrHandlerFailed wraps an error returned by the caller's Handler;
	// it terminates traversal just like any other fatal error.
	ErrHandlerFailed = errors.New("zipengine: handler failed")

	// ErrRandomAccessRequired is returned by operations that need
	// tokenizer.Tokenizer.SupportsRandomAccess, such as
	// findEndOfCentralDirectoryLocator.
	ErrRandomAccessRequired = errors.New("zipengine: operation requires a random-access tokenizer")
)
