package message

import (
	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

const (
	userDataSizeBits     = 12
	userDataSizeBitsBits = 4
	tableIDBits          = 5
	updateLengthBits     = 20
)

// CreateStringTableMessage 创建字符串表；Data 保留原始条目数据以便原样写回
type CreateStringTableMessage struct {
	Name              string
	MaxEntries        uint16
	EntryCount        uint16
	FixedUserDataSize *stringtable.FixedUserDataSize
	Compressed        bool
	Data              bitstream.Raw
}

func (*CreateStringTableMessage) Type() Type { return TypeCreateStringTable }

// Meta 表元数据
func (m *CreateStringTableMessage) Meta() stringtable.Meta {
	return stringtable.Meta{Name: m.Name, MaxEntries: m.MaxEntries, FixedUserDataSize: m.FixedUserDataSize}
}

// Entries 解压（如需）并解析初始条目
func (m *CreateStringTableMessage) Entries() ([]stringtable.IndexedEntry, error) {
	r := m.Data.Reader()
	if m.Compressed {
		var err error
		if r, err = stringtable.Decompress(r); err != nil {
			return nil, err
		}
	}
	meta := m.Meta()
	return stringtable.ReadEntries(r, &meta, int(m.EntryCount))
}

func (m *CreateStringTableMessage) entryCountBits() int {
	meta := m.Meta()
	return meta.EntryBits() + 1
}

func readCreateStringTable(r *bitstream.Reader) (Message, error) {
	m := &CreateStringTableMessage{}
	var err error
	if m.Name, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.MaxEntries, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	count, err := r.ReadUint(m.entryCountBits())
	if err != nil {
		return nil, err
	}
	m.EntryCount = uint16(count)
	length, err := r.ReadVarInt32()
	if err != nil {
		return nil, err
	}
	fixed, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if fixed {
		size, err := r.ReadUint(userDataSizeBits)
		if err != nil {
			return nil, err
		}
		bits, err := r.ReadUint(userDataSizeBitsBits)
		if err != nil {
			return nil, err
		}
		m.FixedUserDataSize = &stringtable.FixedUserDataSize{Size: uint16(size), Bits: uint8(bits)}
	}
	if m.Compressed, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CreateStringTableMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteString(m.Name); err != nil {
		return err
	}
	if err := w.WriteUint16(m.MaxEntries); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.EntryCount), m.entryCountBits()); err != nil {
		return err
	}
	if err := w.WriteVarInt32(uint32(m.Data.Len)); err != nil {
		return err
	}
	if err := w.WriteBool(m.FixedUserDataSize != nil); err != nil {
		return err
	}
	if fixed := m.FixedUserDataSize; fixed != nil {
		if err := w.WriteUint(uint32(fixed.Size), userDataSizeBits); err != nil {
			return err
		}
		if err := w.WriteUint(uint32(fixed.Bits), userDataSizeBitsBits); err != nil {
			return err
		}
	}
	if err := w.WriteBool(m.Compressed); err != nil {
		return err
	}
	return w.WriteRaw(m.Data)
}

// UpdateStringTableMessage 更新已有字符串表，按 TableID 关联创建时的元数据
type UpdateStringTableMessage struct {
	TableID      uint8
	ChangedCount uint16
	Data         bitstream.Raw
}

func (*UpdateStringTableMessage) Type() Type { return TypeUpdateStringTable }

// Entries 按表元数据解析变更条目
func (m *UpdateStringTableMessage) Entries(meta *stringtable.Meta) ([]stringtable.IndexedEntry, error) {
	return stringtable.ReadEntries(m.Data.Reader(), meta, int(m.ChangedCount))
}

func readUpdateStringTable(r *bitstream.Reader) (Message, error) {
	m := &UpdateStringTableMessage{ChangedCount: 1}
	id, err := r.ReadUint(tableIDBits)
	if err != nil {
		return nil, err
	}
	m.TableID = uint8(id)
	multiple, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if multiple {
		if m.ChangedCount, err = r.ReadUint16(); err != nil {
			return nil, err
		}
	}
	length, err := r.ReadUint(updateLengthBits)
	if err != nil {
		return nil, err
	}
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *UpdateStringTableMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint(uint32(m.TableID), tableIDBits); err != nil {
		return err
	}
	multiple := m.ChangedCount != 1
	if err := w.WriteBool(multiple); err != nil {
		return err
	}
	if multiple {
		if err := w.WriteUint16(m.ChangedCount); err != nil {
			return err
		}
	}
	if err := w.WriteUint(uint32(m.Data.Len), updateLengthBits); err != nil {
		return err
	}
	return w.WriteRaw(m.Data)
}
