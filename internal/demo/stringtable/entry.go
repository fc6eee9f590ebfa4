package stringtable

import (
	"errors"
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

var ErrUnknownCompression = errors.New("unknown string table compression")

// UnknownTableError 更新消息引用了未创建的字符串表
type UnknownTableError struct {
	ID int
}

func (e *UnknownTableError) Error() string {
	return fmt.Sprintf("update for unknown string table %d", e.ID)
}

// ExtraData 条目附带的用户数据
type ExtraData struct {
	ByteLen uint16
	Data    bitstream.Raw
}

// Entry 字符串表条目，Text 与 Extra 均可缺省
type Entry struct {
	Text  *string
	Extra *ExtraData
}

// TextOrEmpty 条目文本，缺省时为空串
func (e *Entry) TextOrEmpty() string {
	if e.Text == nil {
		return ""
	}
	return *e.Text
}

// IndexedEntry 带表内下标的条目
type IndexedEntry struct {
	Index int
	Entry Entry
}

// Meta 字符串表元数据，解析后续更新所需
type Meta struct {
	Name              string
	MaxEntries        uint16
	FixedUserDataSize *FixedUserDataSize
}

// FixedUserDataSize 定长用户数据：字节数与 bit 数
type FixedUserDataSize struct {
	Size uint16
	Bits uint8
}

// EntryBits 条目下标位宽
func (m *Meta) EntryBits() int {
	return log2(int(m.MaxEntries))
}

func log2(n int) int {
	bits := 0
	for n > 1 {
		n >>= 1
		bits++
	}
	return bits
}
