package format

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"golang.org/x/sync/errgroup"
)

// checksumChunk bounds the working set of a single CRC update.
const checksumChunk = 1 << 20

// Checksum computes the CRC32 (IEEE) of every byte of b except the footer.
func Checksum(b []byte) uint32 {
	if len(b) < FooterSize {
		return 0
	}
	body := b[:len(b)-FooterSize]
	var crc uint32
	for len(body) > 0 {
		n := min(len(body), checksumChunk)
		crc = crc32.Update(crc, crc32.IEEETable, body[:n])
		body = body[n:]
	}
	return crc
}

// Stored returns the CRC32 recorded in the footer of b.
func Stored(b []byte) uint32 {
	if len(b) < FooterSize {
		return 0
	}
	return binary.LittleEndian.Uint32(b[len(b)-FooterSize:])
}

// Validate checks the whole-file checksum of b.
func Validate(b []byte) error {
	if len(b) < MinSize {
		return fmt.Errorf("%w: bundle too short (%d bytes, need at least %d)", ErrFormat, len(b), MinSize)
	}
	if got, want := Checksum(b), Stored(b); got != want {
		return fmt.Errorf("%w: stored %08x, computed %08x", ErrIntegrity, want, got)
	}
	return nil
}

// VerifyEntry checks the entry's declared CRC32 against its compressed
// payload. Entries without a declared checksum always pass.
//
// The entry's range must already have been validated by Decode.
func VerifyEntry(b []byte, e *Entry) error {
	if !e.HasCRC32 {
		return nil
	}
	payload := b[e.Offset : e.Offset+e.CompLength]
	if got := crc32.ChecksumIEEE(payload); got != e.CRC32 {
		return fmt.Errorf("%w: %s: stored %08x, computed %08x", ErrIntegrity, e.Name, e.CRC32, got)
	}
	return nil
}

// VerifyEntries runs VerifyEntry for every entry using at most limit
// goroutines. limit <= 0 means no limit.
func VerifyEntries(b []byte, entries []Entry, limit int) error {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i := range entries {
		e := &entries[i]
		if !e.HasCRC32 {
			continue
		}
		g.Go(func() error {
			return VerifyEntry(b, e)
		})
	}
	return g.Wait()
}
