package bitstream

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

var (
	ErrNotEnoughData = errors.New("not enough data")
	ErrInvalidUTF8   = errors.New("invalid utf8 string")
	ErrValueTooLarge = errors.New("value does not fit in bit width")
	ErrBitWidth      = errors.New("bit width out of range")
)

// DataRemainingError 长度限定区域解析完成后剩余超过 7 bit
type DataRemainingError struct {
	Bits int
}

func (e *DataRemainingError) Error() string {
	return fmt.Sprintf("%d bits of data remaining after parsing", e.Bits)
}

// Reader 小端、低位优先的位读取器
// pos/end 为底层 data 上的绝对 bit 偏移，子读取器与父读取器共享 data。
type Reader struct {
	data  []byte
	start int
	pos   int
	end   int
}

// NewReader 创建覆盖整个字节切片的读取器
func NewReader(data []byte) *Reader {
	return &Reader{data: data, end: len(data) * 8}
}

// BitLen 区域总 bit 数
func (r *Reader) BitLen() int { return r.end - r.start }

// Pos 相对区域起点的当前位置（bit）
func (r *Reader) Pos() int { return r.pos - r.start }

// BitsLeft 剩余未读 bit 数
func (r *Reader) BitsLeft() int { return r.end - r.pos }

// SetPos 设置相对位置
func (r *Reader) SetPos(pos int) error {
	if pos < 0 || r.start+pos > r.end {
		return ErrNotEnoughData
	}
	r.pos = r.start + pos
	return nil
}

// Clone 复制读取器（共享底层数据，独立游标）
func (r *Reader) Clone() *Reader {
	cp := *r
	return &cp
}

// ReadBits 读取 n (0..64) 个 bit，低位在前
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, fmt.Errorf("%w: %d", ErrBitWidth, n)
	}
	if r.end-r.pos < n {
		return 0, ErrNotEnoughData
	}
	var v uint64
	read := 0
	for read < n {
		off := r.pos & 7
		take := 8 - off
		if take > n-read {
			take = n - read
		}
		chunk := uint64(r.data[r.pos>>3]>>off) & (1<<take - 1)
		v |= chunk << read
		read += take
		r.pos += take
	}
	return v, nil
}

// SkipBits 跳过 n 个 bit
func (r *Reader) SkipBits(n int) error {
	if n < 0 || r.end-r.pos < n {
		return ErrNotEnoughData
	}
	r.pos += n
	return nil
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadBits(8)
	return uint8(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadBits(16)
	return uint16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	v, err := r.ReadBits(32)
	return uint32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	return r.ReadBits(64)
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadBits(32)
	return int32(uint32(v)), err
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadBits(32)
	return math.Float32frombits(uint32(v)), err
}

// ReadUint 读取 n bit 无符号整数（n<=32）
func (r *Reader) ReadUint(n int) (uint32, error) {
	if n > 32 {
		return 0, fmt.Errorf("%w: %d", ErrBitWidth, n)
	}
	v, err := r.ReadBits(n)
	return uint32(v), err
}

// ReadVarInt32 引擎 varint：每字节 7 bit 数据，最高位表示后续
func (r *Reader) ReadVarInt32() (uint32, error) {
	var result uint32
	for shift := 0; shift < 35; shift += 7 {
		b, err := r.ReadUint8()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
	}
	return result, nil
}

// ReadBitCoord 读取引擎坐标编码（整数 14 bit + 1/32 精度小数）
func (r *Reader) ReadBitCoord() (float32, error) {
	hasInt, err := r.ReadBool()
	if err != nil {
		return 0, err
	}
	hasFrac, err := r.ReadBool()
	if err != nil {
		return 0, err
	}
	if !hasInt && !hasFrac {
		return 0, nil
	}
	negative, err := r.ReadBool()
	if err != nil {
		return 0, err
	}
	var intVal, fracVal uint32
	if hasInt {
		if intVal, err = r.ReadUint(coordIntBits); err != nil {
			return 0, err
		}
		intVal++
	}
	if hasFrac {
		if fracVal, err = r.ReadUint(coordFracBits); err != nil {
			return 0, err
		}
	}
	v := float32(intVal) + float32(fracVal)*coordResolution
	if negative {
		v = -v
	}
	return v, nil
}

// ReadString 读取以 0 结尾的 UTF-8 字符串
func (r *Reader) ReadString() (string, error) {
	buf := make([]byte, 0, 32)
	for {
		b, err := r.ReadUint8()
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

// ReadSizedString 读取固定字节数的字符串，截断于第一个 0
func (r *Reader) ReadSizedString(size int) (string, error) {
	buf, err := r.ReadBytes(size)
	if err != nil {
		return "", err
	}
	for i, b := range buf {
		if b == 0 {
			buf = buf[:i]
			break
		}
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

// ReadBytes 读取 n 个字节（不要求字节对齐）
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.end-r.pos < n*8 {
		return nil, ErrNotEnoughData
	}
	out := make([]byte, n)
	if r.pos&7 == 0 {
		copy(out, r.data[r.pos>>3:])
		r.pos += n * 8
		return out, nil
	}
	for i := range out {
		v, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// ReadSubReader 切出 bits 长度的独立有界读取器，并推进当前游标
func (r *Reader) ReadSubReader(bits int) (*Reader, error) {
	if bits < 0 || r.end-r.pos < bits {
		return nil, ErrNotEnoughData
	}
	sub := &Reader{data: r.data, start: r.pos, pos: r.pos, end: r.pos + bits}
	r.pos += bits
	return sub, nil
}

// EnsureConsumed 长度限定区域最多允许 7 bit 的对齐填充
func (r *Reader) EnsureConsumed() error {
	if left := r.BitsLeft(); left > 7 {
		return &DataRemainingError{Bits: left}
	}
	return nil
}

// ReadRaw 读取 n bit 原始数据并复制为从 0 对齐的 Raw
func (r *Reader) ReadRaw(n int) (Raw, error) {
	if n < 0 || r.end-r.pos < n {
		return Raw{}, ErrNotEnoughData
	}
	if n == 0 {
		return Raw{}, nil
	}
	out := make([]byte, (n+7)/8)
	for i := range out {
		take := min(8, n-i*8)
		v, err := r.ReadBits(take)
		if err != nil {
			return Raw{}, err
		}
		out[i] = byte(v)
	}
	return Raw{Data: out, Len: n}, nil
}
