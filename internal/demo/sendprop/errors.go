package sendprop

import "errors"

// 属性定义畸形错误
var (
	ErrUnsizedFloat         = errors.New("float property without defined size")
	ErrUnsizedInt           = errors.New("integer property without defined size")
	ErrUnsizedArray         = errors.New("array property without defined size")
	ErrUntypedArray         = errors.New("array property without defined inner type")
	ErrInvalidPropType      = errors.New("property used that can't be read")
	ErrArrayChangesOften    = errors.New("array contents can't have the 'ChangesOften' flag")
	ErrNestedArrayElement   = errors.New("array element directly follows another array element")
	ErrUnpairedArray        = errors.New("array property without preceding array element")
	ErrDanglingArrayElement = errors.New("array element not followed by an array property")
	ErrMissingTableName     = errors.New("data table or exclude property without table name")
	ErrRecursiveTable       = errors.New("send table references itself")
)
