package sendprop

import (
	"fmt"
	"math/bits"
)

// Kind 解析后属性的解码方式
type Kind uint8

const (
	KindInt Kind = iota
	KindUnsignedInt
	KindNormalVarInt
	KindFloat
	KindVector
	KindVectorXY
	KindString
	KindArray
)

func (k Kind) String() string {
	return [...]string{"Int", "UnsignedInt", "NormalVarInt", "Float", "Vector", "VectorXY", "String", "Array"}[k]
}

// FloatEncoding 浮点编码方式
type FloatEncoding uint8

const (
	FloatScaled FloatEncoding = iota
	FloatCoord
	FloatCoordMP
	FloatCoordMPLowPrecision
	FloatCoordMPIntegral
	FloatNoScale
	FloatNormal
)

// FloatDefinition 浮点解码参数，仅 Scaled 使用 BitCount/Low/High
type FloatDefinition struct {
	Encoding FloatEncoding
	BitCount uint32
	Low      float32
	High     float32
}

// ParseDefinition 属性的线上解码定义
type ParseDefinition struct {
	Kind         Kind
	ChangesOften bool
	Unsigned     bool
	BitCount     uint32
	Float        FloatDefinition
	// 数组：元素定义与计数位宽
	Element       *ParseDefinition
	ElementCount  uint16
	CountBitCount uint32
}

// SendPropDefinition 经校验的属性定义
type SendPropDefinition struct {
	Identifier SendPropIdentifier
	Name       string
	Parse      ParseDefinition
}

func (d SendPropDefinition) ChangesOften() bool { return d.Parse.ChangesOften }

func (d SendPropDefinition) String() string {
	return fmt.Sprintf("%s(%s)", d.Name, d.Parse.Kind)
}

// NewDefinition 由原始定义构造，类型与参数不匹配时返回畸形定义错误
func NewDefinition(raw *RawSendPropDefinition) (SendPropDefinition, error) {
	parse, err := newParseDefinition(raw)
	if err != nil {
		return SendPropDefinition{}, fmt.Errorf("%s: %w", raw.Name, err)
	}
	return SendPropDefinition{Identifier: raw.Identifier, Name: raw.Name, Parse: parse}, nil
}

func newParseDefinition(raw *RawSendPropDefinition) (ParseDefinition, error) {
	def := ParseDefinition{ChangesOften: raw.ChangesOften()}

	switch raw.PropType {
	case TypeInt:
		def.Unsigned = raw.Flags.Contains(FlagUnsigned)
		if raw.Flags.Contains(FlagNormal) {
			def.Kind = KindNormalVarInt
			return def, nil
		}
		if raw.BitCount == nil {
			return def, ErrUnsizedInt
		}
		def.BitCount = *raw.BitCount
		if def.Unsigned {
			def.Kind = KindUnsignedInt
		} else {
			def.Kind = KindInt
		}
	case TypeFloat, TypeVector, TypeVectorXY:
		fd, err := newFloatDefinition(raw)
		if err != nil {
			return def, err
		}
		def.Float = fd
		def.Kind = map[SendPropType]Kind{TypeFloat: KindFloat, TypeVector: KindVector, TypeVectorXY: KindVectorXY}[raw.PropType]
	case TypeString:
		def.Kind = KindString
	case TypeArray:
		if raw.ElementCount == nil {
			return def, ErrUnsizedArray
		}
		if raw.ArrayProperty == nil {
			return def, ErrUntypedArray
		}
		inner, err := newParseDefinition(raw.ArrayProperty)
		if err != nil {
			return def, err
		}
		def.Kind = KindArray
		def.Element = &inner
		def.ElementCount = *raw.ElementCount
		def.CountBitCount = countBits(*raw.ElementCount)
	default:
		return def, ErrInvalidPropType
	}
	return def, nil
}

func newFloatDefinition(raw *RawSendPropDefinition) (FloatDefinition, error) {
	f := raw.Flags
	switch {
	case f.Contains(FlagCoord):
		return FloatDefinition{Encoding: FloatCoord}, nil
	case f.Contains(FlagCoordMP):
		return FloatDefinition{Encoding: FloatCoordMP}, nil
	case f.Contains(FlagCoordMPLowPrecision):
		return FloatDefinition{Encoding: FloatCoordMPLowPrecision}, nil
	case f.Contains(FlagCoordMPIntegral):
		return FloatDefinition{Encoding: FloatCoordMPIntegral}, nil
	case f.Contains(FlagNoScale):
		return FloatDefinition{Encoding: FloatNoScale}, nil
	case f.Contains(FlagNormal):
		return FloatDefinition{Encoding: FloatNormal}, nil
	}
	if raw.BitCount == nil || raw.LowValue == nil || raw.HighValue == nil {
		return FloatDefinition{}, ErrUnsizedFloat
	}
	return FloatDefinition{
		Encoding: FloatScaled,
		BitCount: *raw.BitCount,
		Low:      *raw.LowValue,
		High:     *raw.HighValue,
	}, nil
}

// countBits 数组长度字段位宽：floor(log2(n)) + 1
func countBits(n uint16) uint32 {
	if n == 0 {
		return 1
	}
	return uint32(bits.Len16(n))
}

// SendProp 已解码的属性值，Value 的具体类型由外部解码器决定
type SendProp struct {
	Identifier SendPropIdentifier
	Value      any
}
