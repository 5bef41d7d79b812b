package qgenie

import (
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/meigma/qgenie/internal/format"
)

// Info describes a bundle without extracting it.
type Info struct {
	// Path is the bundle path as given to Inspect.
	Path string

	// Size is the bundle size in bytes.
	Size int64

	// Digest is the sha256 digest of the whole bundle.
	Digest digest.Digest

	// Checksum is the stored whole-file CRC32.
	Checksum uint32

	// Header is the decoded fixed header.
	Header Header

	// Entries lists the configuration section followed by every TOC entry
	// in stored order, duplicates included.
	Entries []Entry

	statsOnce sync.Once
	rawSize   uint64
	compSize  uint64
	unknown   int
}

// Inspect maps the bundle at path, validates its checksum, and decodes its
// table of contents.
func Inspect(path string) (*Info, error) {
	b, err := openBundle(path)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data := b.Bytes()
	if err := format.Validate(data); err != nil {
		return nil, err
	}
	h, entries, err := format.Decode(data)
	if err != nil {
		return nil, err
	}
	return &Info{
		Path:     path,
		Size:     int64(len(data)),
		Digest:   digest.FromBytes(data),
		Checksum: format.Stored(data),
		Header:   h,
		Entries:  entries,
	}, nil
}

// TotalRawSize returns the sum of all declared decompressed sizes.
// Entries without a declared size are not counted; see UnknownSizes.
func (i *Info) TotalRawSize() uint64 {
	i.computeStats()
	return i.rawSize
}

// TotalCompressedSize returns the sum of all compressed payload sizes.
func (i *Info) TotalCompressedSize() uint64 {
	i.computeStats()
	return i.compSize
}

// UnknownSizes returns the number of entries without a declared size.
func (i *Info) UnknownSizes() int {
	i.computeStats()
	return i.unknown
}

// CompressionRatio returns compressed size divided by raw size.
// Returns 1.0 if the raw size is zero.
func (i *Info) CompressionRatio() float64 {
	i.computeStats()
	if i.rawSize == 0 {
		return 1.0
	}
	return float64(i.compSize) / float64(i.rawSize)
}

func (i *Info) computeStats() {
	i.statsOnce.Do(func() {
		for j := range i.Entries {
			e := &i.Entries[j]
			i.compSize += e.CompLength
			if e.RawKnown {
				i.rawSize += e.RawLength
			} else {
				i.unknown++
			}
		}
	})
}
