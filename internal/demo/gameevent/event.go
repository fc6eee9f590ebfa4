package gameevent

import (
	"encoding/json"
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

// Value 事件字段值，按 Kind 取对应成员
type Value struct {
	Kind   ValueType
	String string
	Float  float32
	Long   int32
	Short  uint16
	Byte   uint8
	Bool   bool
}

// Int 整型字段统一取值
func (v Value) Int() (int64, bool) {
	switch v.Kind {
	case ValueLong:
		return int64(v.Long), true
	case ValueShort:
		return int64(v.Short), true
	case ValueByte:
		return int64(v.Byte), true
	case ValueBoolean:
		if v.Bool {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueString:
		return json.Marshal(v.String)
	case ValueFloat:
		return json.Marshal(v.Float)
	case ValueBoolean:
		return json.Marshal(v.Bool)
	case ValueLocal, ValueNone:
		return []byte("null"), nil
	}
	n, _ := v.Int()
	return json.Marshal(n)
}

// Event 按定义自描述的事件
type Event struct {
	Definition *Definition
	Values     []Value
}

func (e *Event) Name() string { return e.Definition.Name }

// Get 按字段名取值
func (e *Event) Get(name string) (Value, bool) {
	for i, entry := range e.Definition.Entries {
		if entry.Name == name && i < len(e.Values) {
			return e.Values[i], true
		}
	}
	return Value{}, false
}

func (e *Event) Int(name string) int64 {
	v, _ := e.Get(name)
	n, _ := v.Int()
	return n
}

func (e *Event) Float(name string) float32 {
	v, _ := e.Get(name)
	return v.Float
}

func (e *Event) Text(name string) string {
	v, _ := e.Get(name)
	return v.String
}

// Lookup 按 ID 查找事件定义
type Lookup func(id ID) (*Definition, bool)

// ReadEvent 读取事件 ID 并按其定义读取各字段
func ReadEvent(r *bitstream.Reader, lookup Lookup) (*Event, error) {
	id, err := r.ReadUint(IDBits)
	if err != nil {
		return nil, err
	}
	def, ok := lookup(ID(id))
	if !ok {
		return nil, &UnknownEventError{ID: ID(id)}
	}
	ev := &Event{Definition: def, Values: make([]Value, len(def.Entries))}
	for i, entry := range def.Entries {
		if ev.Values[i], err = readValue(r, entry.Kind); err != nil {
			return nil, fmt.Errorf("event %s field %s: %w", def.Name, entry.Name, err)
		}
	}
	return ev, nil
}

func readValue(r *bitstream.Reader, kind ValueType) (Value, error) {
	v := Value{Kind: kind}
	var err error
	switch kind {
	case ValueString:
		v.String, err = r.ReadString()
	case ValueFloat:
		v.Float, err = r.ReadFloat32()
	case ValueLong:
		v.Long, err = r.ReadInt32()
	case ValueShort:
		v.Short, err = r.ReadUint16()
	case ValueByte:
		v.Byte, err = r.ReadUint8()
	case ValueBoolean:
		v.Bool, err = r.ReadBool()
	}
	return v, err
}

func (e *Event) Write(w *bitstream.Writer) error {
	if err := w.WriteUint(uint32(e.Definition.ID), IDBits); err != nil {
		return err
	}
	if len(e.Values) != len(e.Definition.Entries) {
		return fmt.Errorf("event %s: %d values for %d fields", e.Definition.Name, len(e.Values), len(e.Definition.Entries))
	}
	for i, v := range e.Values {
		if err := writeValue(w, e.Definition.Entries[i].Kind, v); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(w *bitstream.Writer, kind ValueType, v Value) error {
	switch kind {
	case ValueString:
		return w.WriteString(v.String)
	case ValueFloat:
		return w.WriteFloat32(v.Float)
	case ValueLong:
		return w.WriteInt32(v.Long)
	case ValueShort:
		return w.WriteUint16(v.Short)
	case ValueByte:
		return w.WriteUint8(v.Byte)
	case ValueBoolean:
		return w.WriteBool(v.Bool)
	}
	return nil
}
