package packet

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
)

// MessagePacketMetaBytes 视角与序列号等元数据，原样保留
const MessagePacketMetaBytes = 84

// MessagePacket 网络消息包
// 状态不关心的消息以 *message.RawMessage 按原顺序留在 Messages 中，Skipped 为其数量；
// Empty 不保留
type MessagePacket struct {
	Kind     Type
	Tick     uint32
	Meta     bitstream.Raw
	Messages []message.Message
	Skipped  int
}

func (p *MessagePacket) Type() Type { return p.Kind }

// ReadMessagePacket 读取消息包，剩余不足一个类型字段时结束
func ReadMessagePacket(r *bitstream.Reader, kind Type, state message.State) (*MessagePacket, error) {
	p := &MessagePacket{Kind: kind}
	var err error
	if p.Tick, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if p.Meta, err = r.ReadRaw(MessagePacketMetaBytes * 8); err != nil {
		return nil, err
	}
	length, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	body, err := r.ReadSubReader(int(length) * 8)
	if err != nil {
		return nil, err
	}

	for body.BitsLeft() > message.TypeBits {
		t, err := message.ReadType(body)
		if err != nil {
			return nil, err
		}
		// Empty 无消息体，字节对齐的填充位也会读成 Empty
		if t == message.TypeEmpty {
			continue
		}
		if !state.ShouldParseMessage(t) {
			start := body.Clone()
			if err := message.Skip(body, t, state); err != nil {
				return nil, err
			}
			raw, err := start.ReadRaw(body.Pos() - start.Pos())
			if err != nil {
				return nil, err
			}
			p.Messages = append(p.Messages, &message.RawMessage{MessageType: t, Body: raw})
			p.Skipped++
			continue
		}
		m, err := message.Decode(body, t, state)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", p.Tick, err)
		}
		p.Messages = append(p.Messages, m)
	}
	return p, nil
}

func (p *MessagePacket) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(p.Tick); err != nil {
		return err
	}
	if p.Meta.Len != MessagePacketMetaBytes*8 {
		return fmt.Errorf("message packet meta is %d bits, want %d", p.Meta.Len, MessagePacketMetaBytes*8)
	}
	if err := w.WriteRaw(p.Meta); err != nil {
		return err
	}
	return w.ReserveByteLength(32, func(w *bitstream.Writer) error {
		for _, m := range p.Messages {
			if err := message.Write(w, m); err != nil {
				return err
			}
		}
		return nil
	})
}
