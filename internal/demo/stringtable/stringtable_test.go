package stringtable

import (
	"testing"

	"github.com/klauspost/compress/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

func strp(s string) *string { return &s }

func TestEntriesRoundTrip(t *testing.T) {
	meta := &Meta{Name: "userinfo", MaxEntries: 256}
	entries := []IndexedEntry{
		{Index: 0, Entry: Entry{Text: strp("0"), Extra: &ExtraData{ByteLen: 2, Data: bitstream.RawFromBytes([]byte{1, 2})}}},
		{Index: 1, Entry: Entry{Text: strp("1")}},
		{Index: 7, Entry: Entry{Extra: &ExtraData{ByteLen: 1, Data: bitstream.RawFromBytes([]byte{0xff})}}},
		{Index: 8, Entry: Entry{}},
	}
	w := bitstream.NewWriter()
	require.NoError(t, WriteEntries(w, meta, entries))

	r := bitstream.NewReader(w.Bytes())
	got, err := ReadEntries(r, meta, len(entries))
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.Equal(t, w.BitLen(), r.Pos())
}

func TestEntriesFixedUserData(t *testing.T) {
	meta := &Meta{Name: "lightstyles", MaxEntries: 64, FixedUserDataSize: &FixedUserDataSize{Size: 1, Bits: 3}}
	data := bitstream.NewWriter()
	require.NoError(t, data.WriteUint(5, 3))
	entries := []IndexedEntry{{Index: 3, Entry: Entry{Text: strp("m"), Extra: &ExtraData{ByteLen: 1, Data: data.Raw()}}}}

	w := bitstream.NewWriter()
	require.NoError(t, WriteEntries(w, meta, entries))
	got, err := ReadEntries(bitstream.NewReader(w.Bytes()), meta, 1)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestEntriesHistoryReuse(t *testing.T) {
	meta := &Meta{Name: "modelprecache", MaxEntries: 16}
	w := bitstream.NewWriter()
	// entry 0: literal "models/a.mdl"
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(false))
	require.NoError(t, w.WriteString("models/a.mdl"))
	require.NoError(t, w.WriteBool(false))
	// entry 1: 7 chars of history[0] + "b.mdl"
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteUint(0, historyIndexBits))
	require.NoError(t, w.WriteUint(7, substringBits))
	require.NoError(t, w.WriteString("b.mdl"))
	require.NoError(t, w.WriteBool(false))

	got, err := ReadEntries(bitstream.NewReader(w.Bytes()), meta, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "models/b.mdl", got[1].Entry.TextOrEmpty())
	assert.Equal(t, 1, got[1].Index)
}

func TestEntriesHistoryOutOfRange(t *testing.T) {
	meta := &Meta{Name: "x", MaxEntries: 16}
	w := bitstream.NewWriter()
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteBool(true))
	require.NoError(t, w.WriteUint(3, historyIndexBits))
	require.NoError(t, w.WriteUint(1, substringBits))
	require.NoError(t, w.WriteString(""))

	_, err := ReadEntries(bitstream.NewReader(w.Bytes()), meta, 1)
	assert.Error(t, err)
}

func compressedBlock(t *testing.T, size int, magic string, payload []byte) []byte {
	t.Helper()
	w := bitstream.NewWriter()
	require.NoError(t, w.WriteUint32(uint32(size)))
	require.NoError(t, w.WriteUint32(uint32(len(payload)+4)))
	require.NoError(t, w.WriteBytes([]byte(magic)))
	require.NoError(t, w.WriteBytes(payload))
	return w.Bytes()
}

func TestDecompressSnappy(t *testing.T) {
	plain := []byte("instancebaseline instancebaseline")
	block := compressedBlock(t, len(plain), magicSnappy, snappy.Encode(nil, plain))

	r, err := Decompress(bitstream.NewReader(block))
	require.NoError(t, err)
	got, err := r.ReadBytes(len(plain))
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestDecompressLZSS(t *testing.T) {
	payload := []byte{6, 0, 0, 0, 0x18, 'a', 'b', 'c', 0x00, 0x22, 0x00, 0x00}
	block := compressedBlock(t, 6, magicLZSS, payload)

	r, err := Decompress(bitstream.NewReader(block))
	require.NoError(t, err)
	got, err := r.ReadBytes(6)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcabc"), got)
}

func TestDecompressUnknown(t *testing.T) {
	block := compressedBlock(t, 1, "ZSTD", []byte{1})
	_, err := Decompress(bitstream.NewReader(block))
	assert.ErrorIs(t, err, ErrUnknownCompression)
}

func TestDecompressRejectsOversizedClaim(t *testing.T) {
	// 0xfffffff0 的 snappy varint 长度头
	snappyHeader := []byte{0xf0, 0xff, 0xff, 0xff, 0x0f, 0x00}

	tests := []struct {
		name  string
		block []byte
	}{
		{"LZSS 长度超上限", compressedBlock(t, 16, magicLZSS, []byte{0xf0, 0xff, 0xff, 0xff, 0x00, 'a', 0x01, 0x00, 0x00, 0x00, 0x00, 0x00})},
		{"LZSS 长度超压缩比", compressedBlock(t, 16, magicLZSS, []byte{0x00, 0x00, 0x10, 0x00, 0x00, 'a', 0x01, 0x00})},
		{"snappy 长度超上限", compressedBlock(t, 16, magicSnappy, snappyHeader)},
		{"外层长度超上限", compressedBlock(t, 0xfffffff0, magicLZSS, []byte{1, 0, 0, 0, 0x00, 'a'})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decompress(bitstream.NewReader(tt.block))
			assert.ErrorIs(t, err, ErrDecompressedTooLarge)
		})
	}
}

func TestDecompressLZSSOutputOverrun(t *testing.T) {
	// 头部声明 2 字节，回溯展开 3 字节
	payload := []byte{2, 0, 0, 0, 0x02, 'a', 0x00, 0x02, 0x00, 0x00}
	_, err := decodeLZSS(payload)
	assert.ErrorContains(t, err, "exceeds")
}
