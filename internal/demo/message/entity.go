package message

import (
	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	entityClassBits     = 9
	entityLengthBits    = 11
	packetLengthBits    = 20
	tempEntityCountBits = 8
)

// Vector 三维坐标
type Vector struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func readVectorCoord(r *bitstream.Reader) (Vector, error) {
	var v Vector
	var has [3]bool
	for i := range has {
		b, err := r.ReadBool()
		if err != nil {
			return v, err
		}
		has[i] = b
	}
	for i, p := range []*float32{&v.X, &v.Y, &v.Z} {
		if !has[i] {
			continue
		}
		c, err := r.ReadBitCoord()
		if err != nil {
			return v, err
		}
		*p = c
	}
	return v, nil
}

func writeVectorCoord(w *bitstream.Writer, v Vector) error {
	coords := []float32{v.X, v.Y, v.Z}
	for _, c := range coords {
		if err := w.WriteBool(c != 0); err != nil {
			return err
		}
	}
	for _, c := range coords {
		if c == 0 {
			continue
		}
		if err := w.WriteBitCoord(c); err != nil {
			return err
		}
	}
	return nil
}

// BspDecalMessage 地图贴花
type BspDecalMessage struct {
	Position     Vector
	TextureIndex uint16
	EntIndex     uint16
	ModelIndex   uint16
	HasEntity    bool
	LowPriority  bool
}

func (*BspDecalMessage) Type() Type { return TypeBspDecal }

func readBspDecal(r *bitstream.Reader) (Message, error) {
	m := &BspDecalMessage{}
	var err error
	if m.Position, err = readVectorCoord(r); err != nil {
		return nil, err
	}
	tex, err := r.ReadUint(decalIndexBits)
	if err != nil {
		return nil, err
	}
	m.TextureIndex = uint16(tex)
	if m.HasEntity, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.HasEntity {
		ent, err := r.ReadUint(entityIndexBits)
		if err != nil {
			return nil, err
		}
		model, err := r.ReadUint(modelIndexBits)
		if err != nil {
			return nil, err
		}
		m.EntIndex, m.ModelIndex = uint16(ent), uint16(model)
	}
	if m.LowPriority, err = r.ReadBool(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *BspDecalMessage) Write(w *bitstream.Writer) error {
	if err := writeVectorCoord(w, m.Position); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.TextureIndex), decalIndexBits); err != nil {
		return err
	}
	if err := w.WriteBool(m.HasEntity); err != nil {
		return err
	}
	if m.HasEntity {
		if err := w.WriteUint(uint32(m.EntIndex), entityIndexBits); err != nil {
			return err
		}
		if err := w.WriteUint(uint32(m.ModelIndex), modelIndexBits); err != nil {
			return err
		}
	}
	return w.WriteBool(m.LowPriority)
}

// EntityMessage 发往单个实体的消息
type EntityMessage struct {
	Index   uint16
	ClassID uint16
	Data    bitstream.Raw
}

func (*EntityMessage) Type() Type { return TypeEntityMessage }

func readEntityMessage(r *bitstream.Reader) (Message, error) {
	m := &EntityMessage{}
	idx, err := r.ReadUint(entityIndexBits)
	if err != nil {
		return nil, err
	}
	class, err := r.ReadUint(entityClassBits)
	if err != nil {
		return nil, err
	}
	length, err := r.ReadUint(entityLengthBits)
	if err != nil {
		return nil, err
	}
	m.Index, m.ClassID = uint16(idx), uint16(class)
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *EntityMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint(uint32(m.Index), entityIndexBits); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.ClassID), entityClassBits); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.Data.Len), entityLengthBits); err != nil {
		return err
	}
	return w.WriteRaw(m.Data)
}

// PacketEntitiesMessage 实体增量更新，实体数据保持原始 bit 串
type PacketEntitiesMessage struct {
	MaxEntries     uint16
	Delta          bool
	DeltaFrom      uint32
	BaseLine       bool
	UpdatedEntries uint16
	UpdateBaseline bool
	Data           bitstream.Raw
}

func (*PacketEntitiesMessage) Type() Type { return TypePacketEntities }

func readPacketEntities(r *bitstream.Reader) (Message, error) {
	m := &PacketEntitiesMessage{}
	maxEntries, err := r.ReadUint(entityIndexBits)
	if err != nil {
		return nil, err
	}
	m.MaxEntries = uint16(maxEntries)
	if m.Delta, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.Delta {
		if m.DeltaFrom, err = r.ReadUint32(); err != nil {
			return nil, err
		}
	}
	if m.BaseLine, err = r.ReadBool(); err != nil {
		return nil, err
	}
	updated, err := r.ReadUint(entityIndexBits)
	if err != nil {
		return nil, err
	}
	m.UpdatedEntries = uint16(updated)
	length, err := r.ReadUint(packetLengthBits)
	if err != nil {
		return nil, err
	}
	if m.UpdateBaseline, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PacketEntitiesMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint(uint32(m.MaxEntries), entityIndexBits); err != nil {
		return err
	}
	if err := w.WriteBool(m.Delta); err != nil {
		return err
	}
	if m.Delta {
		if err := w.WriteUint32(m.DeltaFrom); err != nil {
			return err
		}
	}
	if err := w.WriteBool(m.BaseLine); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.UpdatedEntries), entityIndexBits); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.Data.Len), packetLengthBits); err != nil {
		return err
	}
	if err := w.WriteBool(m.UpdateBaseline); err != nil {
		return err
	}
	return w.WriteRaw(m.Data)
}

// TempEntitiesMessage 临时实体
type TempEntitiesMessage struct {
	Count uint8
	Data  bitstream.Raw
}

func (*TempEntitiesMessage) Type() Type { return TypeTempEntities }

func readTempEntities(r *bitstream.Reader) (Message, error) {
	m := &TempEntitiesMessage{}
	var err error
	if m.Count, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	length, err := r.ReadVarInt32()
	if err != nil {
		return nil, err
	}
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *TempEntitiesMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint(uint32(m.Count), tempEntityCountBits); err != nil {
		return err
	}
	if err := w.WriteVarInt32(uint32(m.Data.Len)); err != nil {
		return err
	}
	return w.WriteRaw(m.Data)
}

// MenuMessage 插件菜单，长度以字节计
type MenuMessage struct {
	Kind uint16
	Data []byte
}

func (*MenuMessage) Type() Type { return TypeMenu }

func readMenu(r *bitstream.Reader) (Message, error) {
	m := &MenuMessage{}
	var err error
	if m.Kind, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if m.Data, err = r.ReadBytes(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MenuMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint16(m.Kind); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(len(m.Data)), 16); err != nil {
		return err
	}
	return w.WriteBytes(m.Data)
}

// CmdKeyValuesMessage KeyValues 命令，长度以字节计
type CmdKeyValuesMessage struct {
	Data []byte
}

func (*CmdKeyValuesMessage) Type() Type { return TypeCmdKeyValues }

func readCmdKeyValues(r *bitstream.Reader) (Message, error) {
	length, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	return &CmdKeyValuesMessage{Data: data}, nil
}

func (m *CmdKeyValuesMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(uint32(len(m.Data))); err != nil {
		return err
	}
	return w.WriteBytes(m.Data)
}
