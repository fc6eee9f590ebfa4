package stringtable

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/snappy"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	magicSnappy = "SNAP"
	magicLZSS   = "LZSS"

	// MaxDecompressedSize 单张表解压后的上限
	MaxDecompressedSize = 64 << 20

	// 每个输入字节最多展开的字节数：LZSS 两字节回溯最多 16 字节，snappy copy2 三字节最多 64 字节
	maxLZSSRatio   = 8
	maxSnappyRatio = 22
)

// ErrDecompressedTooLarge 声明的解压长度超过上限或超出压缩比可达范围
var ErrDecompressedTooLarge = errors.New("decompressed size too large")

// checkClaimedSize 分配前校验声明长度
func checkClaimedSize(claimed uint64, inLen, ratio int) error {
	if claimed > MaxDecompressedSize {
		return fmt.Errorf("%w: %d > %d", ErrDecompressedTooLarge, claimed, MaxDecompressedSize)
	}
	if claimed > uint64(inLen)*uint64(ratio) {
		return fmt.Errorf("%w: %d from %d input bytes", ErrDecompressedTooLarge, claimed, inLen)
	}
	return nil
}

// Decompress 解压压缩的表数据
// 布局：u32 解压后长度 | u32 压缩段长度 | 4 字节魔数 | 压缩数据
func Decompress(r *bitstream.Reader) (*bitstream.Reader, error) {
	size, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	compressedSize, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if compressedSize < 4 {
		return nil, fmt.Errorf("%w: compressed size %d", ErrUnknownCompression, compressedSize)
	}
	if size > MaxDecompressedSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrDecompressedTooLarge, size, MaxDecompressedSize)
	}
	magic, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	payload, err := r.ReadBytes(int(compressedSize) - 4)
	if err != nil {
		return nil, err
	}

	var out []byte
	switch string(magic) {
	case magicSnappy:
		n, err := snappy.DecodedLen(payload)
		if err != nil {
			return nil, fmt.Errorf("snappy: %w", err)
		}
		if err := checkClaimedSize(uint64(n), len(payload), maxSnappyRatio); err != nil {
			return nil, fmt.Errorf("snappy: %w", err)
		}
		if out, err = snappy.Decode(nil, payload); err != nil {
			return nil, fmt.Errorf("snappy: %w", err)
		}
	case magicLZSS:
		if out, err = decodeLZSS(payload); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, magic)
	}
	if len(out) != int(size) {
		return nil, fmt.Errorf("decompressed %d bytes, expected %d", len(out), size)
	}
	return bitstream.NewReader(out), nil
}

// decodeLZSS 引擎 LZSS：u32 原始长度后接命令字节流
// 命令位为 1 时读取 12 bit 回溯距离与 4 bit 长度，长度为 1 表示结束
func decodeLZSS(in []byte) ([]byte, error) {
	if len(in) < 4 {
		return nil, fmt.Errorf("lzss: short header")
	}
	size := binary.LittleEndian.Uint32(in)
	in = in[4:]
	if err := checkClaimedSize(uint64(size), len(in), maxLZSSRatio); err != nil {
		return nil, fmt.Errorf("lzss: %w", err)
	}
	// 按输入长度预分配，append 按需增长
	out := make([]byte, 0, min(int(size), 2*len(in)))

	var cmd byte
	bit := 0
	for pos := 0; ; {
		if bit == 0 {
			if pos >= len(in) {
				return nil, fmt.Errorf("lzss: truncated input")
			}
			cmd = in[pos]
			pos++
		}
		bit = (bit + 1) & 7

		if cmd&1 == 1 {
			if pos+2 > len(in) {
				return nil, fmt.Errorf("lzss: truncated input")
			}
			back := int(in[pos])<<4 | int(in[pos+1])>>4
			count := int(in[pos+1]&0x0F) + 1
			pos += 2
			if count == 1 {
				break
			}
			from := len(out) - back - 1
			if from < 0 {
				return nil, fmt.Errorf("lzss: back reference %d out of range", back)
			}
			if len(out)+count > int(size) {
				return nil, fmt.Errorf("lzss: output exceeds %d bytes", size)
			}
			for i := 0; i < count; i++ {
				out = append(out, out[from+i])
			}
		} else {
			if pos >= len(in) {
				return nil, fmt.Errorf("lzss: truncated input")
			}
			if len(out) >= int(size) {
				return nil, fmt.Errorf("lzss: output exceeds %d bytes", size)
			}
			out = append(out, in[pos])
			pos++
		}
		cmd >>= 1
	}
	if len(out) != int(size) {
		return nil, fmt.Errorf("lzss: decoded %d bytes, header says %d", len(out), size)
	}
	return out, nil
}
