package demo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// ErrTooLarge demo 超过大小上限
var ErrTooLarge = errors.New("demo too large")

// IsCompressed 是否为 zstd 压缩的 demo
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Decompress zstd 压缩的 demo 解压，其余原样返回；maxBytes 限制解压后大小（0 不限）
func Decompress(data []byte, maxBytes int64) ([]byte, error) {
	if !IsCompressed(data) {
		if maxBytes > 0 && int64(len(data)) > maxBytes {
			return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), maxBytes)
		}
		return data, nil
	}
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if maxBytes > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(uint64(maxBytes)))
	}
	dec, err := zstd.NewReader(nil, opts...)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	out, err := dec.DecodeAll(data, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, fmt.Errorf("%w: %w", ErrTooLarge, err)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	if maxBytes > 0 && int64(len(out)) > maxBytes {
		return nil, fmt.Errorf("%w: decompressed to %d bytes, limit %d", ErrTooLarge, len(out), maxBytes)
	}
	return out, nil
}
