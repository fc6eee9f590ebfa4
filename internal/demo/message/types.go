package message

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
)

// TypeBits 消息类型位宽
const TypeBits = 6

// Type 网络消息类型
type Type uint8

const (
	TypeEmpty             Type = 0
	TypeFile              Type = 2
	TypeNetTick           Type = 3
	TypeStringCmd         Type = 4
	TypeSetConVar         Type = 5
	TypeSignOnState       Type = 6
	TypePrint             Type = 7
	TypeServerInfo        Type = 8
	TypeClassInfo         Type = 10
	TypeSetPause          Type = 11
	TypeCreateStringTable Type = 12
	TypeUpdateStringTable Type = 13
	TypeVoiceInit         Type = 14
	TypeVoiceData         Type = 15
	TypeParseSounds       Type = 17
	TypeSetView           Type = 18
	TypeFixAngle          Type = 19
	TypeBspDecal          Type = 21
	TypeUserMessage       Type = 23
	TypeEntityMessage     Type = 24
	TypeGameEvent         Type = 25
	TypePacketEntities    Type = 26
	TypeTempEntities      Type = 27
	TypePreFetch          Type = 28
	TypeMenu              Type = 29
	TypeGameEventList     Type = 30
	TypeGetCvarValue      Type = 31
	TypeCmdKeyValues      Type = 32
)

var typeNames = map[Type]string{
	TypeEmpty:             "Empty",
	TypeFile:              "File",
	TypeNetTick:           "NetTick",
	TypeStringCmd:         "StringCmd",
	TypeSetConVar:         "SetConVar",
	TypeSignOnState:       "SignOnState",
	TypePrint:             "Print",
	TypeServerInfo:        "ServerInfo",
	TypeClassInfo:         "ClassInfo",
	TypeSetPause:          "SetPause",
	TypeCreateStringTable: "CreateStringTable",
	TypeUpdateStringTable: "UpdateStringTable",
	TypeVoiceInit:         "VoiceInit",
	TypeVoiceData:         "VoiceData",
	TypeParseSounds:       "ParseSounds",
	TypeSetView:           "SetView",
	TypeFixAngle:          "FixAngle",
	TypeBspDecal:          "BspDecal",
	TypeUserMessage:       "UserMessage",
	TypeEntityMessage:     "EntityMessage",
	TypeGameEvent:         "GameEvent",
	TypePacketEntities:    "PacketEntities",
	TypeTempEntities:      "TempEntities",
	TypePreFetch:          "PreFetch",
	TypeMenu:              "Menu",
	TypeGameEventList:     "GameEventList",
	TypeGetCvarValue:      "GetCvarValue",
	TypeCmdKeyValues:      "CmdKeyValues",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// UnknownMessageTypeError 未知的消息类型
type UnknownMessageTypeError struct {
	Type uint8
}

func (e *UnknownMessageTypeError) Error() string {
	return fmt.Sprintf("unknown message type %d", e.Type)
}

// Message 已解码的网络消息
type Message interface {
	Type() Type
	// Write 写出消息体（不含类型字段）
	Write(w *bitstream.Writer) error
}

// State 解码消息所需的解析器状态
type State interface {
	ShouldParseMessage(t Type) bool
	EventDefinition(id gameevent.ID) (*gameevent.Definition, bool)
}

// RawMessage 跳过解码的消息，保留消息体原始 bit，写出时原样还原
type RawMessage struct {
	MessageType Type
	Body        bitstream.Raw
}

func (m *RawMessage) Type() Type { return m.MessageType }

func (m *RawMessage) Write(w *bitstream.Writer) error { return w.WriteRaw(m.Body) }
