package format

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/qgenie/internal/testutil"
)

func sampleBundle() *testutil.Bundle {
	return &testutil.Bundle{
		Config: []byte(`{"dialog":{}}`),
		Sections: []testutil.Section{
			{Name: "tokenizer.json", Data: []byte(`{"model":"bpe"}`)},
			{Name: "model_part_1.bin", Data: testutil.RandomBytes(1, 4096)},
			{Name: "empty.bin", Data: nil},
		},
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	data := sampleBundle().Build(t)
	h, entries, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, Version, h.Version)
	assert.Equal(t, uint64(HeaderSize), h.ConfigOffset)
	require.Len(t, entries, 4)

	cfg := entries[0]
	assert.Equal(t, "config.json", cfg.Name)
	assert.False(t, cfg.HasCRC32)
	assert.True(t, cfg.RawKnown)
	assert.Equal(t, uint64(len(`{"dialog":{}}`)), cfg.RawLength)
	assert.Equal(t, h.ConfigLength, cfg.CompLength)

	names := []string{entries[1].Name, entries[2].Name, entries[3].Name}
	assert.Equal(t, []string{"tokenizer.json", "model_part_1.bin", "empty.bin"}, names)
	assert.Equal(t, uint64(4096), entries[2].RawLength)
	assert.Equal(t, uint64(0), entries[3].RawLength)
	for _, e := range entries[1:] {
		assert.True(t, e.HasCRC32)
		assert.True(t, e.RawKnown)
		assert.Equal(t, crc32.ChecksumIEEE(data[e.Offset:e.Offset+e.CompLength]), e.CRC32)
	}
}

func TestDecodeNoTOCEntries(t *testing.T) {
	t.Parallel()

	data := (&testutil.Bundle{Config: []byte("{}")}).Build(t)
	_, entries, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "config.json", entries[0].Name)
}

func TestDecodeConfigContentSize(t *testing.T) {
	t.Parallel()

	small := []byte(`{"dialog":{}}`)
	large := testutil.RandomBytes(5, 300<<10)

	tests := []struct {
		name      string
		payload   []byte
		wantKnown bool
		wantSize  uint64
	}{
		{name: "small declared", payload: testutil.Compress(t, small), wantKnown: true, wantSize: uint64(len(small))},
		{name: "large declared", payload: testutil.Compress(t, large), wantKnown: true, wantSize: uint64(len(large))},
		{name: "small undeclared", payload: testutil.FrameWithoutSize(small)},
		{name: "large undeclared", payload: testutil.FrameWithoutSize(large)},
		{name: "empty payload", payload: []byte{}, wantKnown: true},
		// Not a zstd frame: the size cannot be known ahead of decompression.
		{name: "not zstd", payload: []byte("not zstd")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data := (&testutil.Bundle{ConfigPayload: tc.payload}).Build(t)
			_, entries, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tc.wantKnown, entries[0].RawKnown)
			assert.Equal(t, tc.wantSize, entries[0].RawLength)
		})
	}
}

func TestDecodeHeaderErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data func(t *testing.T) []byte
	}{
		{
			name: "too short",
			data: func(*testing.T) []byte { return make([]byte, MinSize-1) },
		},
		{
			name: "bad magic",
			data: func(t *testing.T) []byte {
				return (&testutil.Bundle{Magic: "QGENIE2"}).Build(t)
			},
		},
		{
			name: "unsupported version",
			data: func(t *testing.T) []byte {
				return (&testutil.Bundle{Version: 7}).Build(t)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, _, err := Decode(tc.data(t))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeBoundsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(data []byte, tocOff int)
	}{
		{
			name: "toc offset past footer",
			mutate: func(data []byte, _ int) {
				binary.LittleEndian.PutUint64(data[tocOffsetOff:], uint64(len(data)))
			},
		},
		{
			name: "toc offset inside header",
			mutate: func(data []byte, _ int) {
				binary.LittleEndian.PutUint64(data[tocOffsetOff:], 3)
			},
		},
		{
			name: "config range past footer",
			mutate: func(data []byte, _ int) {
				binary.LittleEndian.PutUint64(data[configLengthOff:], uint64(len(data)))
			},
		},
		{
			name: "config range overflows",
			mutate: func(data []byte, _ int) {
				binary.LittleEndian.PutUint64(data[configOffsetOff:], ^uint64(0)-1)
			},
		},
		{
			name: "name length past footer",
			mutate: func(data []byte, tocOff int) {
				binary.LittleEndian.PutUint16(data[tocOff:], 0xFFFF)
			},
		},
		{
			name: "entry offset past footer",
			mutate: func(data []byte, tocOff int) {
				nameLen := int(binary.LittleEndian.Uint16(data[tocOff:]))
				binary.LittleEndian.PutUint64(data[tocOff+2+nameLen:], uint64(len(data)-2))
			},
		},
		{
			name: "entry length overflows",
			mutate: func(data []byte, tocOff int) {
				nameLen := int(binary.LittleEndian.Uint16(data[tocOff:]))
				binary.LittleEndian.PutUint64(data[tocOff+2+nameLen+8:], ^uint64(0))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data := sampleBundle().Build(t)
			tocOff := int(binary.LittleEndian.Uint64(data[tocOffsetOff:])) //nolint:gosec // test data
			tc.mutate(data, tocOff)
			testutil.Reseal(data)

			require.NoError(t, Validate(data))
			_, _, err := Decode(data)
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeTruncatedTrailingRecord(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trailer []byte
	}{
		{name: "one byte", trailer: []byte{0x01}},
		{name: "length prefix only", trailer: []byte{0x03, 0x00}},
		{name: "name without fields", trailer: []byte{0x01, 0x00, 'x', 0x00}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := sampleBundle()
			b.Trailer = tc.trailer
			_, _, err := Decode(b.Build(t))
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestDecodeEmptyName(t *testing.T) {
	t.Parallel()

	b := &testutil.Bundle{Sections: []testutil.Section{{Name: "", Data: []byte("x")}}}
	_, _, err := Decode(b.Build(t))
	require.ErrorIs(t, err, ErrFormat)
}

func TestDecodeKeepsDuplicates(t *testing.T) {
	t.Parallel()

	b := &testutil.Bundle{Sections: []testutil.Section{
		{Name: "a.bin", Data: []byte("first")},
		{Name: "a.bin", Data: []byte("second!")},
	}}
	_, entries, err := Decode(b.Build(t))
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, uint64(5), entries[1].RawLength)
	assert.Equal(t, uint64(7), entries[2].RawLength)
}
