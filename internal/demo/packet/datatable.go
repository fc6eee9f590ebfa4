package packet

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/sendprop"
)

const propCountBits = 10

// ClassID 服务端类标识，单个 demo 内唯一
type ClassID uint16

// ServerClassName 服务端类名
type ServerClassName string

// SendTableName 数据表名
type SendTableName string

// ServerClass 服务端类及其关联的数据表
type ServerClass struct {
	ID        ClassID         `json:"id"`
	Name      ServerClassName `json:"name"`
	DataTable SendTableName   `json:"dataTable"`
}

func readServerClass(r *bitstream.Reader) (ServerClass, error) {
	var c ServerClass
	id, err := r.ReadUint16()
	if err != nil {
		return c, err
	}
	name, err := r.ReadString()
	if err != nil {
		return c, err
	}
	table, err := r.ReadString()
	if err != nil {
		return c, err
	}
	return ServerClass{ID: ClassID(id), Name: ServerClassName(name), DataTable: SendTableName(table)}, nil
}

func (c *ServerClass) write(w *bitstream.Writer) error {
	if err := w.WriteUint16(uint16(c.ID)); err != nil {
		return err
	}
	if err := w.WriteString(string(c.Name)); err != nil {
		return err
	}
	return w.WriteString(string(c.DataTable))
}

// ParseSendTable 解析出的原始数据表
type ParseSendTable struct {
	Name         SendTableName
	Props        []sendprop.RawSendPropDefinition
	NeedsDecoder bool
}

// ReadSendTable 读取一张数据表，并把数组元素合并进其后的数组属性
func ReadSendTable(r *bitstream.Reader) (ParseSendTable, error) {
	var table ParseSendTable

	needsDecoder, err := r.ReadBool()
	if err != nil {
		return table, err
	}
	name, err := r.ReadString()
	if err != nil {
		return table, err
	}
	count, err := r.ReadUint(propCountBits)
	if err != nil {
		return table, err
	}
	table.Name = SendTableName(name)
	table.NeedsDecoder = needsDecoder
	table.Props = make([]sendprop.RawSendPropDefinition, 0, min(int(count), 128))

	var element *sendprop.RawSendPropDefinition
	for i := 0; i < int(count); i++ {
		prop, err := sendprop.Read(r, name)
		if err != nil {
			return table, fmt.Errorf("table %s prop %d: %w", name, i, err)
		}
		switch {
		case prop.Flags.Contains(sendprop.FlagInsideArray):
			if element != nil {
				return table, fmt.Errorf("table %s prop %s: %w", name, prop.Name, sendprop.ErrNestedArrayElement)
			}
			if prop.ChangesOften() {
				return table, fmt.Errorf("table %s prop %s: %w", name, prop.Name, sendprop.ErrArrayChangesOften)
			}
			element = &prop
		case element != nil:
			if prop.PropType != sendprop.TypeArray {
				return table, fmt.Errorf("table %s prop %s: %w", name, prop.Name, sendprop.ErrUntypedArray)
			}
			table.Props = append(table.Props, prop.WithArrayProperty(*element))
			element = nil
		case prop.PropType == sendprop.TypeArray:
			return table, fmt.Errorf("table %s prop %s: %w", name, prop.Name, sendprop.ErrUnpairedArray)
		default:
			table.Props = append(table.Props, prop)
		}
	}
	if element != nil {
		return table, fmt.Errorf("table %s prop %s: %w", name, element.Name, sendprop.ErrDanglingArrayElement)
	}
	return table, nil
}

// Write 写出数据表，数组属性展开为元素加数组两条
func (t *ParseSendTable) Write(w *bitstream.Writer) error {
	if err := w.WriteBool(t.NeedsDecoder); err != nil {
		return err
	}
	if err := w.WriteString(string(t.Name)); err != nil {
		return err
	}
	count := 0
	for i := range t.Props {
		count++
		if t.Props[i].ArrayProperty != nil {
			count++
		}
	}
	if err := w.WriteUint(uint32(count), propCountBits); err != nil {
		return err
	}
	for i := range t.Props {
		prop := &t.Props[i]
		if prop.ArrayProperty != nil {
			if err := prop.ArrayProperty.Write(w); err != nil {
				return err
			}
		}
		if err := prop.Write(w); err != nil {
			return err
		}
	}
	return nil
}

// SendTable 展平后的数据表缓存
type SendTable struct {
	Name           SendTableName
	NeedsDecoder   bool
	RawProps       []sendprop.RawSendPropDefinition
	FlattenedProps []sendprop.SendPropDefinition
}

// DataTablePacket 数据表包
type DataTablePacket struct {
	Tick          uint32
	Tables        []ParseSendTable
	ServerClasses []ServerClass
}

func (*DataTablePacket) Type() Type { return TypeDataTables }

// ReadDataTable 读取数据表包，长度限定区域内剩余超过 7 bit 视为错误
func ReadDataTable(r *bitstream.Reader) (*DataTablePacket, error) {
	tick, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := r.ReadSubReader(int(length) * 8)
	if err != nil {
		return nil, err
	}

	p := &DataTablePacket{Tick: tick}
	for {
		more, err := body.ReadBool()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		table, err := ReadSendTable(body)
		if err != nil {
			return nil, err
		}
		p.Tables = append(p.Tables, table)
	}

	classCount, err := body.ReadUint16()
	if err != nil {
		return nil, err
	}
	p.ServerClasses = make([]ServerClass, 0, classCount)
	for i := 0; i < int(classCount); i++ {
		class, err := readServerClass(body)
		if err != nil {
			return nil, err
		}
		p.ServerClasses = append(p.ServerClasses, class)
	}

	if err := body.EnsureConsumed(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *DataTablePacket) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(p.Tick); err != nil {
		return err
	}
	return w.ReserveByteLength(32, func(w *bitstream.Writer) error {
		for i := range p.Tables {
			if err := w.WriteBool(true); err != nil {
				return err
			}
			if err := p.Tables[i].Write(w); err != nil {
				return err
			}
		}
		if err := w.WriteBool(false); err != nil {
			return err
		}
		if err := w.WriteUint16(uint16(len(p.ServerClasses))); err != nil {
			return err
		}
		for i := range p.ServerClasses {
			if err := p.ServerClasses[i].write(w); err != nil {
				return err
			}
		}
		return nil
	})
}
