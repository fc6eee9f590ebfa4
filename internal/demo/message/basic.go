package message

import (
	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	entityIndexBits = 11
	soundIndexBits  = 14
	modelIndexBits  = 11
	decalIndexBits  = 9
	angleBits       = 16
)

// EmptyMessage net_NOP
type EmptyMessage struct{}

func (EmptyMessage) Type() Type                    { return TypeEmpty }
func (EmptyMessage) Write(*bitstream.Writer) error { return nil }

func readEmpty(*bitstream.Reader) (Message, error) { return EmptyMessage{}, nil }

// FileMessage 文件传输请求/拒绝
type FileMessage struct {
	TransferID uint32
	FileName   string
	Requested  bool
}

func (*FileMessage) Type() Type { return TypeFile }

func readFile(r *bitstream.Reader) (Message, error) {
	m := &FileMessage{}
	var err error
	if m.TransferID, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if m.FileName, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Requested, err = r.ReadBool(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *FileMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(m.TransferID); err != nil {
		return err
	}
	if err := w.WriteString(m.FileName); err != nil {
		return err
	}
	return w.WriteBool(m.Requested)
}

// NetTickMessage 服务端 tick 同步
type NetTickMessage struct {
	Tick            uint32
	FrameTime       uint16
	FrameTimeStdDev uint16
}

func (*NetTickMessage) Type() Type { return TypeNetTick }

func readNetTick(r *bitstream.Reader) (Message, error) {
	m := &NetTickMessage{}
	var err error
	if m.Tick, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if m.FrameTime, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	if m.FrameTimeStdDev, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *NetTickMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(m.Tick); err != nil {
		return err
	}
	if err := w.WriteUint16(m.FrameTime); err != nil {
		return err
	}
	return w.WriteUint16(m.FrameTimeStdDev)
}

// StringCmdMessage 控制台命令
type StringCmdMessage struct {
	Command string
}

func (*StringCmdMessage) Type() Type { return TypeStringCmd }

func readStringCmd(r *bitstream.Reader) (Message, error) {
	cmd, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &StringCmdMessage{Command: cmd}, nil
}

func (m *StringCmdMessage) Write(w *bitstream.Writer) error { return w.WriteString(m.Command) }

// ConVar 控制台变量
type ConVar struct {
	Key   string
	Value string
}

// SetConVarMessage 批量设置控制台变量
type SetConVarMessage struct {
	Vars []ConVar
}

func (*SetConVarMessage) Type() Type { return TypeSetConVar }

func readSetConVar(r *bitstream.Reader) (Message, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	m := &SetConVarMessage{Vars: make([]ConVar, 0, n)}
	for i := 0; i < int(n); i++ {
		var v ConVar
		if v.Key, err = r.ReadString(); err != nil {
			return nil, err
		}
		if v.Value, err = r.ReadString(); err != nil {
			return nil, err
		}
		m.Vars = append(m.Vars, v)
	}
	return m, nil
}

func (m *SetConVarMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint8(uint8(len(m.Vars))); err != nil {
		return err
	}
	for _, v := range m.Vars {
		if err := w.WriteString(v.Key); err != nil {
			return err
		}
		if err := w.WriteString(v.Value); err != nil {
			return err
		}
	}
	return nil
}

// SignOnStateMessage 连接阶段切换
type SignOnStateMessage struct {
	State uint8
	Count uint32
}

func (*SignOnStateMessage) Type() Type { return TypeSignOnState }

func readSignOnState(r *bitstream.Reader) (Message, error) {
	m := &SignOnStateMessage{}
	var err error
	if m.State, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Count, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *SignOnStateMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint8(m.State); err != nil {
		return err
	}
	return w.WriteUint32(m.Count)
}

// PrintMessage 服务端打印
type PrintMessage struct {
	Value string
}

func (*PrintMessage) Type() Type { return TypePrint }

func readPrint(r *bitstream.Reader) (Message, error) {
	s, err := r.ReadString()
	if err != nil {
		return nil, err
	}
	return &PrintMessage{Value: s}, nil
}

func (m *PrintMessage) Write(w *bitstream.Writer) error { return w.WriteString(m.Value) }

// SetPauseMessage 暂停状态
type SetPauseMessage struct {
	Pause bool
}

func (*SetPauseMessage) Type() Type { return TypeSetPause }

func readSetPause(r *bitstream.Reader) (Message, error) {
	b, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	return &SetPauseMessage{Pause: b}, nil
}

func (m *SetPauseMessage) Write(w *bitstream.Writer) error { return w.WriteBool(m.Pause) }

// SetViewMessage 视角实体
type SetViewMessage struct {
	Index uint16
}

func (*SetViewMessage) Type() Type { return TypeSetView }

func readSetView(r *bitstream.Reader) (Message, error) {
	v, err := r.ReadUint(entityIndexBits)
	if err != nil {
		return nil, err
	}
	return &SetViewMessage{Index: uint16(v)}, nil
}

func (m *SetViewMessage) Write(w *bitstream.Writer) error {
	return w.WriteUint(uint32(m.Index), entityIndexBits)
}

// FixAngleMessage 强制视角
type FixAngleMessage struct {
	Relative bool
	Angle    [3]uint16
}

func (*FixAngleMessage) Type() Type { return TypeFixAngle }

func readFixAngle(r *bitstream.Reader) (Message, error) {
	m := &FixAngleMessage{}
	var err error
	if m.Relative, err = r.ReadBool(); err != nil {
		return nil, err
	}
	for i := range m.Angle {
		if m.Angle[i], err = r.ReadUint16(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *FixAngleMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteBool(m.Relative); err != nil {
		return err
	}
	for _, a := range m.Angle {
		if err := w.WriteUint(uint32(a), angleBits); err != nil {
			return err
		}
	}
	return nil
}

// PreFetchMessage 预加载声音
type PreFetchMessage struct {
	Index uint16
}

func (*PreFetchMessage) Type() Type { return TypePreFetch }

func readPreFetch(r *bitstream.Reader) (Message, error) {
	v, err := r.ReadUint(soundIndexBits)
	if err != nil {
		return nil, err
	}
	return &PreFetchMessage{Index: uint16(v)}, nil
}

func (m *PreFetchMessage) Write(w *bitstream.Writer) error {
	return w.WriteUint(uint32(m.Index), soundIndexBits)
}

// GetCvarValueMessage 查询客户端变量
type GetCvarValueMessage struct {
	Cookie uint32
	Value  string
}

func (*GetCvarValueMessage) Type() Type { return TypeGetCvarValue }

func readGetCvarValue(r *bitstream.Reader) (Message, error) {
	m := &GetCvarValueMessage{}
	var err error
	if m.Cookie, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if m.Value, err = r.ReadString(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *GetCvarValueMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(m.Cookie); err != nil {
		return err
	}
	return w.WriteString(m.Value)
}
