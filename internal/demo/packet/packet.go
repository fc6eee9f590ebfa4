package packet

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
)

// Type 数据包类型（线上 8 bit）
type Type uint8

const (
	TypeSigon        Type = 1
	TypeMessage      Type = 2
	TypeSyncTick     Type = 3
	TypeConsoleCmd   Type = 4
	TypeUserCmd      Type = 5
	TypeDataTables   Type = 6
	TypeStop         Type = 7
	TypeStringTables Type = 8
)

func (t Type) String() string {
	switch t {
	case TypeSigon:
		return "Sigon"
	case TypeMessage:
		return "Message"
	case TypeSyncTick:
		return "SyncTick"
	case TypeConsoleCmd:
		return "ConsoleCmd"
	case TypeUserCmd:
		return "UserCmd"
	case TypeDataTables:
		return "DataTables"
	case TypeStop:
		return "Stop"
	case TypeStringTables:
		return "StringTables"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// UnknownPacketTypeError 不支持的包类型
type UnknownPacketTypeError struct {
	Type uint8
}

func (e *UnknownPacketTypeError) Error() string {
	return fmt.Sprintf("unsupported packet type %d", e.Type)
}

// Packet 已解码的数据包
type Packet interface {
	Type() Type
	// Write 写出包体（不含类型字段）
	Write(w *bitstream.Writer) error
}

// Read 读取类型字段并分派到对应的包解码；失败即终止，不做恢复
func Read(r *bitstream.Reader, state message.State) (Packet, error) {
	v, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	var p Packet
	switch t := Type(v); t {
	case TypeSigon, TypeMessage:
		p, err = ReadMessagePacket(r, t, state)
	case TypeSyncTick:
		p, err = readSyncTick(r)
	case TypeConsoleCmd:
		p, err = readConsoleCmd(r)
	case TypeUserCmd:
		p, err = readUserCmd(r)
	case TypeDataTables:
		p, err = ReadDataTable(r)
	case TypeStop:
		p, err = readStop(r)
	case TypeStringTables:
		p, err = ReadStringTables(r)
	default:
		return nil, &UnknownPacketTypeError{Type: v}
	}
	if err != nil {
		return nil, fmt.Errorf("%s packet: %w", Type(v), err)
	}
	return p, nil
}

// Write 写出类型字段与包体
func Write(w *bitstream.Writer, p Packet) error {
	if err := w.WriteUint8(uint8(p.Type())); err != nil {
		return err
	}
	return p.Write(w)
}
