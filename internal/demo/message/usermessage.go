package message

import (
	"strings"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const userMessageLengthBits = 11

// UserMessageType 用户消息子类型
type UserMessageType uint8

const (
	UserMessageSayText2 UserMessageType = 4
)

// ChatKind 聊天消息类别
type ChatKind string

const (
	ChatAll      ChatKind = "TF_Chat_All"
	ChatTeam     ChatKind = "TF_Chat_Team"
	ChatAllDead  ChatKind = "TF_Chat_AllDead"
	ChatTeamDead ChatKind = "TF_Chat_Team_Dead"
	ChatAllSpec  ChatKind = "TF_Chat_AllSpec"
	NameChange   ChatKind = "TF_Name_Change"
	ChatRaw      ChatKind = "raw"
)

// SayText2 聊天/改名消息
type SayText2 struct {
	Client uint8
	Raw    uint8
	// Key 原始本地化键或预格式化文本
	Key  string
	Kind ChatKind
	From string
	Text string
}

// UserMessage 用户消息；Data 为原始负载，SayText2 为解出的视图
type UserMessage struct {
	MessageType UserMessageType
	Data        bitstream.Raw
	SayText2    *SayText2
}

func (*UserMessage) Type() Type { return TypeUserMessage }

func readUserMessage(r *bitstream.Reader) (Message, error) {
	kind, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	length, err := r.ReadUint(userMessageLengthBits)
	if err != nil {
		return nil, err
	}
	m := &UserMessage{MessageType: UserMessageType(kind)}
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	if m.MessageType == UserMessageSayText2 {
		if m.SayText2, err = readSayText2(m.Data.Reader()); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *UserMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint8(uint8(m.MessageType)); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.Data.Len), userMessageLengthBits); err != nil {
		return err
	}
	return w.WriteRaw(m.Data)
}

// chatKind 本地化键（可带 # 前缀）映射为类别，其余视为预格式化文本
func chatKind(key string) (ChatKind, bool) {
	k := ChatKind(strings.TrimPrefix(key, "#"))
	switch k {
	case ChatAll, ChatTeam, ChatAllDead, ChatTeamDead, ChatAllSpec, NameChange:
		return k, true
	}
	return ChatRaw, false
}

func readSayText2(r *bitstream.Reader) (*SayText2, error) {
	s := &SayText2{}
	var err error
	if s.Client, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if s.Raw, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if s.Key, err = r.ReadString(); err != nil {
		return nil, err
	}
	var known bool
	if s.Kind, known = chatKind(s.Key); !known {
		s.Text = s.Key
		return s, nil
	}
	if s.From, err = r.ReadString(); err != nil {
		return nil, err
	}
	if s.Text, err = r.ReadString(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewSayText2 编码聊天消息，尾部补两个空参数
func NewSayText2(s SayText2) (*UserMessage, error) {
	w := bitstream.NewWriter()
	if err := w.WriteUint8(s.Client); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(s.Raw); err != nil {
		return nil, err
	}
	key := s.Key
	if key == "" {
		key = string(s.Kind)
	}
	if err := w.WriteString(key); err != nil {
		return nil, err
	}
	kind, known := chatKind(key)
	if known {
		for _, v := range []string{s.From, s.Text, "", ""} {
			if err := w.WriteString(v); err != nil {
				return nil, err
			}
		}
	}
	s.Key, s.Kind = key, kind
	if !known {
		s.Text, s.From = key, ""
	}
	return &UserMessage{MessageType: UserMessageSayText2, Data: w.Raw(), SayText2: &s}, nil
}
