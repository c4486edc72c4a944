// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zipengine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nunnzip/tokzip/internal/zipcodec"
	"github.com/nunnzip/tokzip/tokenizer"
)

// unzipPathB is the forward streaming scan used when the tokenizer
// cannot seek: every entry is visited strictly in on-disk order, and
// an entry whose compressed size was unknown at local-header-write
// time is located by scanning forward for its trailing Data
// Descriptor's signature.
func (e *Engine) unzipPathB(ctx context.Context, filter Filter) error {
	for i := 0; ; i++ {
		var sig [4]byte
		n, err := e.tok.Peek(ctx, sig[:], true)
		if n < 4 {
			if err == nil || err == io.EOF {
				// Benign: end of stream while looking for the next
				// header is a clean end of entries, not an error.
				return nil
			}
			return err
		}

		switch leUint32(sig[:]) {
		case zipcodec.SigLocalFileHeader:
			// fall through to ordinary entry handling below
		case zipcodec.SigCentralFileHeader:
			slog.Info("zipTraversalStop", "strategy", "forwardScan", "reason", "centralDirectoryReached", "atEntry", i)
			return nil
		case zipcodec.SigEncryptedMarker:
			return ErrEncryptedArchive
		default:
			return fmt.Errorf("%w: %#08x at entry %d", ErrUnexpectedSignature, leUint32(sig[:]), i)
		}

		stop, err := e.unzipOneEntryPathB(ctx, filter)
		if err != nil {
			return err
		}
		if stop {
			slog.Info("zipTraversalStop", "strategy", "forwardScan", "atEntry", i)
			return nil
		}
	}
}

func (e *Engine) unzipOneEntryPathB(ctx context.Context, filter Filter) (stop bool, err error) {
	localHdr, err := tokenizer.ReadToken(ctx, e.tok, zipcodec.LocalFileHeaderLen, zipcodec.DecodeLocalFileHeader, nil)
	if err != nil {
		return false, fmt.Errorf("%w: reading local header: %w", ErrTruncatedArchive, err)
	}

	nameBuf := make([]byte, localHdr.FilenameLength)
	if _, err := tokenizer.ReadFull(ctx, e.tok, nameBuf); err != nil {
		return false, fmt.Errorf("%w: reading filename: %w", ErrTruncatedArchive, err)
	}

	entry := Entry{
		Name:              string(nameBuf),
		CompressionMethod: localHdr.CompressionMethod,
		CompressedSize:    int64(localHdr.CompressedSize),
		UncompressedSize:  int64(localHdr.UncompressedSize),
		CRC32:             localHdr.CRC32,
		HasDataDescriptor: localHdr.HasDataDescriptor(),
	}

	result, err := filter(ctx, &entry)
	if err != nil {
		return false, err
	}

	if err := e.tok.Ignore(ctx, int64(localHdr.ExtraFieldLength)); err != nil {
		return false, fmt.Errorf("%w: skipping extra field: %w", ErrTruncatedArchive, err)
	}

	knownSize := !localHdr.HasDataDescriptor() || localHdr.CompressedSize > 0
	if knownSize {
		if err := e.consumeKnownSizePayload(ctx, &entry, result.Handler); err != nil {
			return false, err
		}
	} else {
		if err := e.scanUnknownSizePayload(ctx, &entry, result.Handler); err != nil {
			return false, err
		}
	}

	if localHdr.HasDataDescriptor() {
		dd, err := tokenizer.ReadToken(ctx, e.tok, zipcodec.DataDescriptorLen, zipcodec.DecodeDataDescriptor, nil)
		if err != nil {
			return false, fmt.Errorf("%w: reading data descriptor: %w", ErrTruncatedArchive, err)
		}
		if dd.Signature != zipcodec.SigDataDescriptor {
			return false, fmt.Errorf("%w: bad data descriptor signature for %q", ErrCorruptArchive, entry.Name)
		}
		// The two size fields are accepted but, per spec, not
		// cross-validated against what the scan actually found.
	}

	return result.Stop, nil
}

// consumeKnownSizePayload handles an entry whose payload length is
// authoritative from its local header: compressedSize > 0, or the
// data-descriptor flag is clear. If handler is nil the payload is
// skipped with Ignore, never decompressed.
func (e *Engine) consumeKnownSizePayload(ctx context.Context, entry *Entry, handler Handler) error {
	if handler == nil {
		if err := e.tok.Ignore(ctx, entry.CompressedSize); err != nil {
			return fmt.Errorf("%w: skipping payload for %q: %w", ErrTruncatedArchive, entry.Name, err)
		}
		return nil
	}

	raw := make([]byte, entry.CompressedSize)
	if _, err := tokenizer.ReadFull(ctx, e.tok, raw); err != nil {
		return fmt.Errorf("%w: reading payload for %q: %w", ErrTruncatedArchive, entry.Name, err)
	}
	return e.decompressAndInvoke(ctx, entry, raw, handler)
}

// scanUnknownSizePayload handles the streaming-ZIP encoding: the
// payload's end is found by scanning forward for the Data Descriptor
// signature, up to syncBufferSize bytes at a time.
func (e *Engine) scanUnknownSizePayload(ctx context.Context, entry *Entry, handler Handler) error {
	var captured []byte // only populated when handler != nil

	for {
		buf := e.scratch[:]
		n, perr := e.tok.Peek(ctx, buf, true)
		if perr != nil && perr != io.EOF {
			return fmt.Errorf("%w: scanning for data descriptor in %q: %w", ErrTruncatedArchive, entry.Name, perr)
		}
		window := buf[:n]

		if idx := bytes.Index(window, leBytes(zipcodec.SigDataDescriptor)); idx >= 0 {
			if handler != nil {
				captured = append(captured, window[:idx]...)
			}
			if err := e.tok.Ignore(ctx, int64(idx)); err != nil {
				return fmt.Errorf("%w: consuming scanned payload for %q: %w", ErrTruncatedArchive, entry.Name, err)
			}
			entry.CompressedSize = int64(len(captured))
			if handler == nil {
				// The bytes before the boundary have been skipped
				// above; there is nothing to decompress.
				return nil
			}
			return e.decompressAndInvoke(ctx, entry, captured, handler)
		}

		// No match in this window: consume it all and keep scanning,
		// unless a short peek means the source is exhausted without
		// ever finding the descriptor.
		if handler != nil {
			captured = append(captured, window...)
		}
		if err := e.tok.Ignore(ctx, int64(len(window))); err != nil {
			return fmt.Errorf("%w: consuming scanned payload for %q: %w", ErrTruncatedArchive, entry.Name, err)
		}
		if n < len(buf) {
			return fmt.Errorf("%w: data descriptor not found for %q", ErrTruncatedArchive, entry.Name)
		}
	}
}

func (e *Engine) decompressAndInvoke(ctx context.Context, entry *Entry, raw []byte, handler Handler) error {
	decompressed, err := e.decompress(entry.CompressionMethod, bytesReader(raw))
	if err != nil {
		return err
	}
	if closer, ok := decompressed.(io.Closer); ok {
		defer closer.Close()
	}
	if err := handler(ctx, decompressed); err != nil {
		return fmt.Errorf("%w: %w", ErrHandlerFailed, err)
	}
	return nil
}

func leBytes(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
