package bitstream

import (
	"fmt"
	"math"
	"strings"
)

// Writer 与 Reader 对称的低位优先位写入器
type Writer struct {
	data []byte
	bits int
}

// NewWriter 创建空写入器
func NewWriter() *Writer {
	return &Writer{data: make([]byte, 0, 64)}
}

// BitLen 已写入 bit 数
func (w *Writer) BitLen() int { return w.bits }

// Bytes 返回已写入数据（末字节未满部分为 0）
func (w *Writer) Bytes() []byte { return w.data }

// Raw 以 Raw 形式返回已写入数据
func (w *Writer) Raw() Raw {
	if w.bits == 0 {
		return Raw{}
	}
	return Raw{Data: w.data, Len: w.bits}
}

// WriteBits 写入 v 的低 n (0..64) 位
func (w *Writer) WriteBits(v uint64, n int) error {
	if n < 0 || n > 64 {
		return fmt.Errorf("%w: %d", ErrBitWidth, n)
	}
	if n < 64 && v>>n != 0 {
		return fmt.Errorf("%w: %d in %d bits", ErrValueTooLarge, v, n)
	}
	written := 0
	for written < n {
		off := w.bits & 7
		if off == 0 {
			w.data = append(w.data, 0)
		}
		take := 8 - off
		if take > n-written {
			take = n - written
		}
		chunk := byte((v >> written) & (1<<take - 1))
		w.data[len(w.data)-1] |= chunk << off
		written += take
		w.bits += take
	}
	return nil
}

func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteBits(1, 1)
	}
	return w.WriteBits(0, 1)
}

func (w *Writer) WriteUint8(v uint8) error   { return w.WriteBits(uint64(v), 8) }
func (w *Writer) WriteUint16(v uint16) error { return w.WriteBits(uint64(v), 16) }
func (w *Writer) WriteUint32(v uint32) error { return w.WriteBits(uint64(v), 32) }
func (w *Writer) WriteUint64(v uint64) error { return w.WriteBits(v, 64) }
func (w *Writer) WriteInt32(v int32) error   { return w.WriteBits(uint64(uint32(v)), 32) }

func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteBits(uint64(math.Float32bits(v)), 32)
}

// WriteUint 写入 n bit 无符号整数
func (w *Writer) WriteUint(v uint32, n int) error {
	return w.WriteBits(uint64(v), n)
}

// WriteVarInt32 与 ReadVarInt32 对称
func (w *Writer) WriteVarInt32(v uint32) error {
	for {
		b := uint8(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		if err := w.WriteUint8(b); err != nil {
			return err
		}
		if v == 0 {
			return nil
		}
	}
}

// WriteBitCoord 与 ReadBitCoord 对称；小数部分按 1/32 取整
func (w *Writer) WriteBitCoord(v float32) error {
	negative := v < 0
	abs := float64(v)
	if negative {
		abs = -abs
	}
	intVal := uint32(abs)
	fracVal := uint32(math.Round((abs - float64(intVal)) * coordDenom))
	if fracVal == coordDenom {
		intVal++
		fracVal = 0
	}
	if err := w.WriteBool(intVal != 0); err != nil {
		return err
	}
	if err := w.WriteBool(fracVal != 0); err != nil {
		return err
	}
	if intVal == 0 && fracVal == 0 {
		return nil
	}
	if err := w.WriteBool(negative); err != nil {
		return err
	}
	if intVal != 0 {
		if err := w.WriteUint(intVal-1, coordIntBits); err != nil {
			return err
		}
	}
	if fracVal != 0 {
		return w.WriteUint(fracVal, coordFracBits)
	}
	return nil
}

// WriteString 写入字符串并追加 0 结尾
func (w *Writer) WriteString(s string) error {
	if strings.IndexByte(s, 0) >= 0 {
		return fmt.Errorf("%w: string contains nul byte", ErrInvalidUTF8)
	}
	if err := w.WriteBytes([]byte(s)); err != nil {
		return err
	}
	return w.WriteUint8(0)
}

// WriteSizedString 写入固定字节数的字符串，不足补 0
func (w *Writer) WriteSizedString(s string, size int) error {
	if len(s) > size {
		return fmt.Errorf("%w: string of %d bytes in %d", ErrValueTooLarge, len(s), size)
	}
	buf := make([]byte, size)
	copy(buf, s)
	return w.WriteBytes(buf)
}

// WriteBytes 写入字节（不要求字节对齐）
func (w *Writer) WriteBytes(b []byte) error {
	if w.bits&7 == 0 {
		w.data = append(w.data, b...)
		w.bits += len(b) * 8
		return nil
	}
	for _, c := range b {
		if err := w.WriteUint8(c); err != nil {
			return err
		}
	}
	return nil
}

// WriteRaw 写入一段原始 bit 数据
func (w *Writer) WriteRaw(b Raw) error {
	return w.WriteReader(b.Reader())
}

// WriteReader 写入读取器剩余的全部 bit（不移动源读取器）
func (w *Writer) WriteReader(r *Reader) error {
	src := r.Clone()
	for src.BitsLeft() > 0 {
		n := min(src.BitsLeft(), 64)
		v, err := src.ReadBits(n)
		if err != nil {
			return err
		}
		if err := w.WriteBits(v, n); err != nil {
			return err
		}
	}
	return nil
}

// ReserveByteLength 预留 lengthBits 位长度字段，写入 body 后补齐到整字节并回填字节长度
func (w *Writer) ReserveByteLength(lengthBits int, body func(w *Writer) error) error {
	return w.reserveLength(lengthBits, true, body)
}

// ReserveBitLength 预留 lengthBits 位长度字段，写入 body 后回填 bit 长度
func (w *Writer) ReserveBitLength(lengthBits int, body func(w *Writer) error) error {
	return w.reserveLength(lengthBits, false, body)
}

func (w *Writer) reserveLength(lengthBits int, inBytes bool, body func(w *Writer) error) error {
	at := w.bits
	if err := w.WriteBits(0, lengthBits); err != nil {
		return err
	}
	start := w.bits
	if err := body(w); err != nil {
		return err
	}
	length := w.bits - start
	if inBytes {
		if pad := (8 - length%8) % 8; pad > 0 {
			if err := w.WriteBits(0, pad); err != nil {
				return err
			}
		}
		length = (w.bits - start) / 8
	}
	if lengthBits < 64 && uint64(length)>>lengthBits != 0 {
		return fmt.Errorf("%w: length %d in %d bits", ErrValueTooLarge, length, lengthBits)
	}
	w.patch(at, uint64(length), lengthBits)
	return nil
}

// patch 覆盖 pos 开始的 n 个 bit
func (w *Writer) patch(pos int, v uint64, n int) {
	for i := 0; i < n; i++ {
		idx := (pos + i) >> 3
		off := uint((pos + i) & 7)
		if v>>uint(i)&1 == 1 {
			w.data[idx] |= 1 << off
		} else {
			w.data[idx] &^= 1 << off
		}
	}
}
