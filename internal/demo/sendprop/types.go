package sendprop

import "strings"

// SendPropType 属性类型（线上 5 bit）
type SendPropType uint8

const (
	TypeInt       SendPropType = 0
	TypeFloat     SendPropType = 1
	TypeVector    SendPropType = 2
	TypeVectorXY  SendPropType = 3
	TypeString    SendPropType = 4
	TypeArray     SendPropType = 5
	TypeDataTable SendPropType = 6
	TypeNumTypes  SendPropType = 7

	typeBits = 5
)

func (t SendPropType) String() string {
	switch t {
	case TypeInt:
		return "Int"
	case TypeFloat:
		return "Float"
	case TypeVector:
		return "Vector"
	case TypeVectorXY:
		return "VectorXY"
	case TypeString:
		return "String"
	case TypeArray:
		return "Array"
	case TypeDataTable:
		return "DataTable"
	default:
		return "NumSendPropTypes"
	}
}

// Flag 属性标志位（线上 16 bit）
type Flag uint16

const (
	FlagUnsigned            Flag = 1 << 0
	FlagCoord               Flag = 1 << 1
	FlagNoScale             Flag = 1 << 2
	FlagRoundDown           Flag = 1 << 3
	FlagRoundUp             Flag = 1 << 4
	FlagNormal              Flag = 1 << 5 // Int 类型时表示 varint 编码
	FlagExclude             Flag = 1 << 6
	FlagXYZE                Flag = 1 << 7
	FlagInsideArray         Flag = 1 << 8
	FlagProxyAlwaysYes      Flag = 1 << 9
	FlagChangesOften        Flag = 1 << 10
	FlagIsVectorElem        Flag = 1 << 11
	FlagCollapsible         Flag = 1 << 12
	FlagCoordMP             Flag = 1 << 13
	FlagCoordMPLowPrecision Flag = 1 << 14
	FlagCoordMPIntegral     Flag = 1 << 15

	flagBits = 16
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagUnsigned, "Unsigned"},
	{FlagCoord, "Coord"},
	{FlagNoScale, "NoScale"},
	{FlagRoundDown, "RoundDown"},
	{FlagRoundUp, "RoundUp"},
	{FlagNormal, "Normal"},
	{FlagExclude, "Exclude"},
	{FlagXYZE, "XYZE"},
	{FlagInsideArray, "InsideArray"},
	{FlagProxyAlwaysYes, "ProxyAlwaysYes"},
	{FlagChangesOften, "ChangesOften"},
	{FlagIsVectorElem, "IsVectorElem"},
	{FlagCollapsible, "Collapsible"},
	{FlagCoordMP, "CoordMP"},
	{FlagCoordMPLowPrecision, "CoordMPLowPrecision"},
	{FlagCoordMPIntegral, "CoordMPIntegral"},
}

// Flags 标志位集合
type Flags uint16

func NewFlags(flags ...Flag) Flags {
	var f Flags
	for _, fl := range flags {
		f |= Flags(fl)
	}
	return f
}

func (f Flags) Contains(flag Flag) bool { return uint16(f)&uint16(flag) != 0 }

func (f Flags) With(flag Flag) Flags { return f | Flags(flag) }

func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Contains(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}
