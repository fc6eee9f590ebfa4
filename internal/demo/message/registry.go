package message

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

type decodeFunc func(r *bitstream.Reader, state State) (Message, error)

// codec 单个消息类型的解码与跳过；skip 为空时以解码代替
type codec struct {
	decode decodeFunc
	skip   func(r *bitstream.Reader) error
}

func stateless(f func(r *bitstream.Reader) (Message, error)) decodeFunc {
	return func(r *bitstream.Reader, _ State) (Message, error) { return f(r) }
}

// skipSized 跳过前置字段后按长度字段跳过负载
func skipSized(prefixBits, lengthBits int) func(r *bitstream.Reader) error {
	return func(r *bitstream.Reader) error {
		if err := r.SkipBits(prefixBits); err != nil {
			return err
		}
		n, err := r.ReadUint(lengthBits)
		if err != nil {
			return err
		}
		return r.SkipBits(int(n))
	}
}

var codecs = map[Type]codec{
	TypeEmpty:             {decode: stateless(readEmpty)},
	TypeFile:              {decode: stateless(readFile)},
	TypeNetTick:           {decode: stateless(readNetTick)},
	TypeStringCmd:         {decode: stateless(readStringCmd)},
	TypeSetConVar:         {decode: stateless(readSetConVar)},
	TypeSignOnState:       {decode: stateless(readSignOnState)},
	TypePrint:             {decode: stateless(readPrint)},
	TypeServerInfo:        {decode: stateless(readServerInfo)},
	TypeClassInfo:         {decode: stateless(readClassInfo)},
	TypeSetPause:          {decode: stateless(readSetPause)},
	TypeCreateStringTable: {decode: stateless(readCreateStringTable)},
	TypeUpdateStringTable: {decode: stateless(readUpdateStringTable)},
	TypeVoiceInit:         {decode: stateless(readVoiceInit)},
	TypeVoiceData:         {decode: stateless(readVoiceData), skip: skipSized(16, 16)},
	TypeParseSounds:       {decode: stateless(readParseSounds)},
	TypeSetView:           {decode: stateless(readSetView)},
	TypeFixAngle:          {decode: stateless(readFixAngle)},
	TypeBspDecal:          {decode: stateless(readBspDecal)},
	TypeUserMessage:       {decode: stateless(readUserMessage), skip: skipSized(8, userMessageLengthBits)},
	TypeEntityMessage:     {decode: stateless(readEntityMessage), skip: skipSized(entityIndexBits+entityClassBits, entityLengthBits)},
	TypeGameEvent:         {decode: readGameEvent, skip: skipSized(0, gameEventLengthBits)},
	TypePacketEntities:    {decode: stateless(readPacketEntities)},
	TypeTempEntities:      {decode: stateless(readTempEntities)},
	TypePreFetch:          {decode: stateless(readPreFetch)},
	TypeMenu:              {decode: stateless(readMenu)},
	TypeGameEventList:     {decode: stateless(readGameEventList), skip: skipSized(eventCountBits, eventListLengthBits)},
	TypeGetCvarValue:      {decode: stateless(readGetCvarValue)},
	TypeCmdKeyValues:      {decode: stateless(readCmdKeyValues)},
}

// ReadType 读取 6 bit 消息类型
func ReadType(r *bitstream.Reader) (Type, error) {
	v, err := r.ReadUint(TypeBits)
	if err != nil {
		return 0, err
	}
	if _, ok := codecs[Type(v)]; !ok {
		return 0, &UnknownMessageTypeError{Type: uint8(v)}
	}
	return Type(v), nil
}

// Decode 解码给定类型的消息体
func Decode(r *bitstream.Reader, t Type, state State) (Message, error) {
	c, ok := codecs[t]
	if !ok {
		return nil, &UnknownMessageTypeError{Type: uint8(t)}
	}
	m, err := c.decode(r, state)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", t, err)
	}
	return m, nil
}

// Skip 跳过给定类型的消息体
func Skip(r *bitstream.Reader, t Type, state State) error {
	c, ok := codecs[t]
	if !ok {
		return &UnknownMessageTypeError{Type: uint8(t)}
	}
	if c.skip != nil {
		if err := c.skip(r); err != nil {
			return fmt.Errorf("skip %s: %w", t, err)
		}
		return nil
	}
	_, err := Decode(r, t, state)
	return err
}

// Write 写出类型字段与消息体
func Write(w *bitstream.Writer, m Message) error {
	if err := w.WriteUint(uint32(m.Type()), TypeBits); err != nil {
		return err
	}
	if err := m.Write(w); err != nil {
		return fmt.Errorf("write %s: %w", m.Type(), err)
	}
	return nil
}
