// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package zipengine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nunnzip/tokzip/internal/zipcodec"
	"github.com/nunnzip/tokzip/tokenizer"
)

// centralEntry is a resolved central-directory record: everything
// Path A needs to seek to a member's local header and read its payload
// without trusting anything the local header itself says about size.
type centralEntry struct {
	Entry
	relativeOffsetOfLocalHeader int64
	centralOffset               int64 // for cache keys
}

// findEndOfCentralDirectoryLocator requires random access. It reads up
// to min(16 KiB, fileSize) bytes from the tail of the file into the
// scratch buffer and scans backwards for the EOCD signature, because
// the EOCD record is followed by a variable-length comment and a
// forward scan would be ambiguous.
func (e *Engine) findEndOfCentralDirectoryLocator(ctx context.Context) (int64, error) {
	if !e.tok.SupportsRandomAccess() {
		return -1, ErrRandomAccessRequired
	}
	size, _ := e.tok.Size()
	if size < zipcodec.EndOfCentralDirectoryLen {
		return -1, nil
	}

	window := int64(16 * 1024)
	if window > size {
		window = size
	}
	tailStart := size - window
	buf := e.scratch[:window]
	if err := readBytesAt(ctx, e.tok, tailStart, buf); err != nil && err != io.EOF {
		return -1, err
	}

	for i := len(buf) - 4; i >= 0; i-- {
		if leUint32(buf[i:]) == zipcodec.SigEndOfCentralDirectory {
			return tailStart + int64(i), nil
		}
	}
	return -1, nil
}

// readCentralDirectory resolves the full list of central entries when
// the tokenizer supports random access. If random access is
// unsupported it returns (nil, nil), signalling the caller to fall
// back to the forward scan (Path B). The tokenizer's position is
// restored to what it was on entry.
func (e *Engine) readCentralDirectory(ctx context.Context) ([]centralEntry, error) {
	if !e.tok.SupportsRandomAccess() {
		return nil, nil
	}
	saved := e.tok.Position()
	entries, err := e.readCentralDirectoryLocked(ctx)
	if serr := e.tok.SetPosition(ctx, saved); serr != nil && err == nil {
		err = serr
	}
	return entries, err
}

func (e *Engine) readCentralDirectoryLocked(ctx context.Context) ([]centralEntry, error) {
	eocdOffset, err := e.findEndOfCentralDirectoryLocator(ctx)
	if err != nil {
		return nil, err
	}
	if eocdOffset < 0 {
		return nil, nil
	}

	eocd, err := tokenizer.ReadTokenAt(ctx, e.tok, eocdOffset, zipcodec.EndOfCentralDirectoryLen, zipcodec.DecodeEndOfCentralDirectory)
	if err != nil {
		return nil, err
	}
	if eocd.Signature != zipcodec.SigEndOfCentralDirectory {
		return nil, fmt.Errorf("%w: bad EOCD signature", ErrCorruptArchive)
	}

	totalEntries := uint64(eocd.TotalEntries)
	centralSize := int64(eocd.SizeOfCentralDir)
	centralOffset := int64(eocd.OffsetOfCentralDir)
	centralEnd := eocdOffset // where the central directory is expected to end

	// APPNOTE 4.3.16: iterate by the total-entries-of-size field, never
	// the per-disk count, which would silently truncate a multi-disk
	// archive's directory -- those archives are out of scope here, and
	// the distinction only matters because both fields exist.
	if eocd.NeedsZip64() {
		locatorOffset := eocdOffset - zipcodec.Zip64EOCDLocatorLen
		if locatorOffset < 0 {
			return nil, fmt.Errorf("%w: truncated zip64 locator", ErrCorruptArchive)
		}
		locator, err := tokenizer.ReadTokenAt(ctx, e.tok, locatorOffset, zipcodec.Zip64EOCDLocatorLen, zipcodec.DecodeZip64EOCDLocator)
		if err != nil {
			return nil, err
		}
		if locator.Signature != zipcodec.SigZip64EOCDLocator {
			return nil, fmt.Errorf("%w: bad zip64 locator signature", ErrCorruptArchive)
		}
		if locator.EOCD64Disk != 0 || locator.TotalDisks != 1 {
			return nil, ErrNoSpanned
		}

		eocd64, err := tokenizer.ReadTokenAt(ctx, e.tok, int64(locator.OffsetOfEOCD64), zipcodec.Zip64EOCDRecordLen, zipcodec.DecodeZip64EOCDRecord)
		if err != nil {
			return nil, err
		}
		if eocd64.Signature != zipcodec.SigZip64EOCDRecord {
			return nil, fmt.Errorf("%w: bad zip64 EOCD signature", ErrCorruptArchive)
		}
		totalEntries = eocd64.TotalEntries
		centralSize = int64(eocd64.SizeOfCentralDir)
		centralOffset = int64(eocd64.OffsetOfCentralDir)
		centralEnd = int64(locator.OffsetOfEOCD64)

		if eocd64.DiskNumber != 0 || eocd64.CentralDirDisk != 0 {
			return nil, ErrNoSpanned
		}
	} else if eocd.DiskNumber != 0 || eocd.CentralDirDisk != 0 {
		return nil, ErrNoSpanned
	}

	// Fix archives carelessly appended after leading non-zip data: the
	// stdlib zip reader does this too, and so does our teacher's own
	// central-directory reader.
	baseCorrection := centralEnd - centralSize - centralOffset
	if centralOffset > centralEnd {
		return nil, fmt.Errorf("%w: central directory offset past EOCD", ErrCorruptArchive)
	}

	entries := make([]centralEntry, 0, totalEntries)
	pos := baseCorrection + centralOffset
	for i := uint64(0); i < totalEntries; i++ {
		hdr, err := tokenizer.ReadTokenAt(ctx, e.tok, pos, zipcodec.CentralFileHeaderLen, zipcodec.DecodeCentralFileHeader)
		if err != nil {
			return nil, fmt.Errorf("%w: reading central file header %d: %w", ErrTruncatedArchive, i, err)
		}
		if hdr.Signature != zipcodec.SigCentralFileHeader {
			return nil, fmt.Errorf("%w: bad central file header signature at entry %d", ErrCorruptArchive, i)
		}
		pos += zipcodec.CentralFileHeaderLen

		nameBuf := make([]byte, hdr.FilenameLength)
		if err := readBytesAt(ctx, e.tok, pos, nameBuf); err != nil {
			return nil, fmt.Errorf("%w: reading filename for entry %d: %w", ErrTruncatedArchive, i, err)
		}
		pos += int64(hdr.FilenameLength)
		pos += int64(hdr.ExtraFieldLength)
		pos += int64(hdr.FileCommentLength)

		relOffset := int64(hdr.RelativeOffsetOfLocalHeader)
		uncompressed := int64(hdr.UncompressedSize)
		compressed := int64(hdr.CompressedSize)
		localOffset := baseCorrection + relOffset

		entries = append(entries, centralEntry{
			Entry: Entry{
				Name:              string(nameBuf),
				CompressionMethod: hdr.CompressionMethod,
				CompressedSize:    compressed,
				UncompressedSize:  uncompressed,
				CRC32:             hdr.CRC32,
				ModTime: time.Date(int(hdr.LastModDate>>9)+1980, time.Month(hdr.LastModDate>>5&0xf), int(hdr.LastModDate&0x1f),
					int(hdr.LastModTime>>11), int(hdr.LastModTime>>5&0x3f), int(hdr.LastModTime&0x1f)*2, 0, time.UTC),
				HasDataDescriptor: hdr.HasDataDescriptor(),
			},
			relativeOffsetOfLocalHeader: localOffset,
			centralOffset:               eocdOffset - centralSize + int64(i), // stable enough for a cache key
		})
	}

	return entries, nil
}

// readBytesAt fills buf with exactly len(buf) bytes read at the
// absolute offset off via random access, without disturbing the
// tokenizer's sequential position.
func readBytesAt(ctx context.Context, t tokenizer.Tokenizer, off int64, buf []byte) error {
	n := 0
	for n < len(buf) {
		m, err := t.Read(ctx, buf[n:], tokenizer.ReadOptions{Position: &off})
		n += m
		off += int64(m)
		if err != nil {
			return err
		}
		if m == 0 {
			return io.ErrNoProgress
		}
	}
	return nil
}
