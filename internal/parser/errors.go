package parser

import (
	"errors"
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
	"github.com/taoyao-code/demo-analyzer/internal/demo/packet"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

// ErrMissingStop 数据在 Stop 包之前结束
var ErrMissingStop = errors.New("demo ended before stop packet")

// NoBaselineError 类没有静态基线
type NoBaselineError struct {
	Class packet.ClassID
}

func (e *NoBaselineError) Error() string {
	return fmt.Sprintf("no static baseline for class %d", e.Class)
}

// UnknownClassError 未知的服务端类
type UnknownClassError struct {
	Class packet.ClassID
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("unknown server class %d", e.Class)
}

// UnknownSendTableError 服务端类引用了不存在的发送表
type UnknownSendTableError struct {
	Name packet.SendTableName
}

func (e *UnknownSendTableError) Error() string {
	return fmt.Sprintf("unknown send table %s", e.Name)
}

// IsUnsupported 区分"格式不支持/未知"与"数据损坏"
func IsUnsupported(err error) bool {
	var (
		packetType  *packet.UnknownPacketTypeError
		messageType *message.UnknownMessageTypeError
		event       *gameevent.UnknownEventError
		table       *stringtable.UnknownTableError
	)
	switch {
	case errors.As(err, &packetType),
		errors.As(err, &messageType),
		errors.As(err, &event),
		errors.As(err, &table),
		errors.Is(err, stringtable.ErrUnknownCompression):
		return true
	}
	return false
}
