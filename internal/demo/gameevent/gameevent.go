package gameevent

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	IDBits        = 9
	valueTypeBits = 3
)

// ID 事件类型标识（线上 9 bit）
type ID uint16

// ValueType 事件字段类型（线上 3 bit），0 为字段列表终止符
type ValueType uint8

const (
	ValueNone    ValueType = 0
	ValueString  ValueType = 1
	ValueFloat   ValueType = 2
	ValueLong    ValueType = 3
	ValueShort   ValueType = 4
	ValueByte    ValueType = 5
	ValueBoolean ValueType = 6
	ValueLocal   ValueType = 7
)

func (t ValueType) String() string {
	switch t {
	case ValueString:
		return "string"
	case ValueFloat:
		return "float"
	case ValueLong:
		return "long"
	case ValueShort:
		return "short"
	case ValueByte:
		return "byte"
	case ValueBoolean:
		return "bool"
	case ValueLocal:
		return "local"
	default:
		return "none"
	}
}

// UnknownEventError 事件类型未在事件列表中定义
type UnknownEventError struct {
	ID ID
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown game event type %d", e.ID)
}

// Entry 事件字段定义
type Entry struct {
	Name string    `json:"name"`
	Kind ValueType `json:"kind"`
}

// Definition 事件定义
type Definition struct {
	ID      ID      `json:"id"`
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

// ReadDefinition 读取一条事件定义
func ReadDefinition(r *bitstream.Reader) (Definition, error) {
	var def Definition
	id, err := r.ReadUint(IDBits)
	if err != nil {
		return def, err
	}
	def.ID = ID(id)
	if def.Name, err = r.ReadString(); err != nil {
		return def, err
	}
	for {
		kind, err := r.ReadUint(valueTypeBits)
		if err != nil {
			return def, err
		}
		if ValueType(kind) == ValueNone {
			return def, nil
		}
		name, err := r.ReadString()
		if err != nil {
			return def, err
		}
		def.Entries = append(def.Entries, Entry{Name: name, Kind: ValueType(kind)})
	}
}

func (d *Definition) Write(w *bitstream.Writer) error {
	if err := w.WriteUint(uint32(d.ID), IDBits); err != nil {
		return err
	}
	if err := w.WriteString(d.Name); err != nil {
		return err
	}
	for _, e := range d.Entries {
		if e.Kind == ValueNone {
			return fmt.Errorf("event %s entry %s: none type", d.Name, e.Name)
		}
		if err := w.WriteUint(uint32(e.Kind), valueTypeBits); err != nil {
			return err
		}
		if err := w.WriteString(e.Name); err != nil {
			return err
		}
	}
	return w.WriteUint(uint32(ValueNone), valueTypeBits)
}
