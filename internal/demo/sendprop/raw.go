package sendprop

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	elementCountBits = 10
	bitCountBits     = 7
)

// RawSendPropDefinition 数据表中原样的属性定义
// 可选字段用指针表示；ArrayProperty 仅在本条为数组属性时持有其元素定义。
type RawSendPropDefinition struct {
	PropType         SendPropType
	Name             string
	Identifier       SendPropIdentifier
	Flags            Flags
	TableName        *string
	LowValue         *float32
	HighValue        *float32
	BitCount         *uint32
	ElementCount     *uint16
	ArrayProperty    *RawSendPropDefinition
	OriginalBitCount *uint32
}

// Read 读取一条属性定义；ownerTable 用于计算标识
func Read(r *bitstream.Reader, ownerTable string) (RawSendPropDefinition, error) {
	var prop RawSendPropDefinition

	t, err := r.ReadUint(typeBits)
	if err != nil {
		return prop, err
	}
	prop.PropType = SendPropType(t)
	if prop.Name, err = r.ReadString(); err != nil {
		return prop, err
	}
	prop.Identifier = NewIdentifier(ownerTable, prop.Name)
	flags, err := r.ReadUint(flagBits)
	if err != nil {
		return prop, err
	}
	prop.Flags = Flags(flags)

	switch {
	case prop.hasTableName():
		name, err := r.ReadString()
		if err != nil {
			return prop, err
		}
		prop.TableName = &name
	case prop.PropType == TypeArray:
		count, err := r.ReadUint(elementCountBits)
		if err != nil {
			return prop, err
		}
		c := uint16(count)
		prop.ElementCount = &c
	default:
		low, err := r.ReadFloat32()
		if err != nil {
			return prop, err
		}
		high, err := r.ReadFloat32()
		if err != nil {
			return prop, err
		}
		bits, err := r.ReadUint(bitCountBits)
		if err != nil {
			return prop, err
		}
		prop.LowValue, prop.HighValue = &low, &high
		orig, eff := bits, bits
		if prop.Flags.Contains(FlagNoScale) && prop.PropType == TypeFloat {
			eff = 32
		}
		prop.OriginalBitCount, prop.BitCount = &orig, &eff
	}
	return prop, nil
}

// Write 写出单条定义（不含 ArrayProperty，数组元素由所属表先行写出）
func (p *RawSendPropDefinition) Write(w *bitstream.Writer) error {
	if err := w.WriteUint(uint32(p.PropType), typeBits); err != nil {
		return err
	}
	if err := w.WriteString(p.Name); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(p.Flags), flagBits); err != nil {
		return err
	}

	switch {
	case p.hasTableName():
		if p.TableName == nil {
			return fmt.Errorf("%w: %s", ErrMissingTableName, p.Name)
		}
		return w.WriteString(*p.TableName)
	case p.PropType == TypeArray:
		if p.ElementCount == nil {
			return fmt.Errorf("%w: %s", ErrUnsizedArray, p.Name)
		}
		return w.WriteUint(uint32(*p.ElementCount), elementCountBits)
	default:
		if p.LowValue == nil || p.HighValue == nil || p.OriginalBitCount == nil {
			return fmt.Errorf("%w: %s", ErrUnsizedFloat, p.Name)
		}
		if err := w.WriteFloat32(*p.LowValue); err != nil {
			return err
		}
		if err := w.WriteFloat32(*p.HighValue); err != nil {
			return err
		}
		return w.WriteUint(*p.OriginalBitCount, bitCountBits)
	}
}

func (p *RawSendPropDefinition) hasTableName() bool {
	return p.Flags.Contains(FlagExclude) || p.PropType == TypeDataTable
}

// WithArrayProperty 返回挂载了数组元素定义的副本
func (p RawSendPropDefinition) WithArrayProperty(element RawSendPropDefinition) RawSendPropDefinition {
	p.ArrayProperty = &element
	return p
}

// IsExclude 是否为排除指令
func (p *RawSendPropDefinition) IsExclude() bool {
	return p.Flags.Contains(FlagExclude)
}

// ExcludeTable 排除指令指向的表名
func (p *RawSendPropDefinition) ExcludeTable() (string, bool) {
	if p.IsExclude() && p.TableName != nil {
		return *p.TableName, true
	}
	return "", false
}

// DataTableName 数据表引用的目标表名
func (p *RawSendPropDefinition) DataTableName() (string, bool) {
	if p.PropType == TypeDataTable && p.TableName != nil {
		return *p.TableName, true
	}
	return "", false
}

func (p *RawSendPropDefinition) ChangesOften() bool {
	return p.Flags.Contains(FlagChangesOften)
}

func (p *RawSendPropDefinition) String() string {
	return fmt.Sprintf("%s(%s, flags=%s)", p.Name, p.PropType, p.Flags)
}
