package extract

import (
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// decoderPool reuses zstd decoders across sections.
type decoderPool struct {
	pool      sync.Pool
	maxMemory uint64
}

func newDecoderPool(maxMemory uint64) *decoderPool {
	return &decoderPool{maxMemory: maxMemory}
}

// get returns a decoder reading from r and a release function that must be
// called when the caller is done with it.
func (p *decoderPool) get(r io.Reader) (*zstd.Decoder, func(), error) {
	if v := p.pool.Get(); v != nil {
		dec, ok := v.(*zstd.Decoder)
		if ok && dec.Reset(r) == nil {
			return dec, p.releaser(dec), nil
		}
		if ok {
			dec.Close()
		}
	}
	dec, err := p.newDecoder(r)
	if err != nil {
		return nil, nil, err
	}
	return dec, p.releaser(dec), nil
}

func (p *decoderPool) releaser(dec *zstd.Decoder) func() {
	return func() {
		_ = dec.Reset(nil) //nolint:errcheck // drop the source before pooling
		p.pool.Put(dec)
	}
}

// newDecoder builds a synchronous decoder; parallelism comes from the
// worker pool, one section per worker.
func (p *decoderPool) newDecoder(r io.Reader) (*zstd.Decoder, error) {
	opts := []zstd.DOption{
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderLowmem(false),
	}
	if p.maxMemory != 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(p.maxMemory))
	}
	return zstd.NewReader(r, opts...)
}
