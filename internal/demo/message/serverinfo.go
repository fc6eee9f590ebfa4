package message

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	mapHashVersion = 18
	replayVersion  = 16
)

// ServerInfoMessage 会话握手信息，版本决定地图校验与 replay 字段
type ServerInfoMessage struct {
	Version         uint16
	ServerCount     uint32
	STV             bool
	Dedicated       bool
	MaxCRC          uint32
	MaxClasses      uint16
	MapHash         [16]byte // Version >= 18
	MapCRC          uint32   // Version < 18
	PlayerSlot      uint8
	MaxPlayerCount  uint8
	IntervalPerTick float32
	Platform        string
	Game            string
	Map             string
	Skybox          string
	ServerName      string
	Replay          bool // Version >= 16
}

func (*ServerInfoMessage) Type() Type { return TypeServerInfo }

func readServerInfo(r *bitstream.Reader) (Message, error) {
	m := &ServerInfoMessage{}
	var err error
	if m.Version, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	if m.ServerCount, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if m.STV, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.Dedicated, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.MaxCRC, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if m.MaxClasses, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	if m.Version >= mapHashVersion {
		hash, err := r.ReadBytes(len(m.MapHash))
		if err != nil {
			return nil, err
		}
		copy(m.MapHash[:], hash)
	} else if m.MapCRC, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if m.PlayerSlot, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if m.MaxPlayerCount, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if m.IntervalPerTick, err = r.ReadFloat32(); err != nil {
		return nil, err
	}
	if m.Platform, err = r.ReadSizedString(1); err != nil {
		return nil, err
	}
	for _, s := range []*string{&m.Game, &m.Map, &m.Skybox, &m.ServerName} {
		if *s, err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	if m.Version >= replayVersion {
		if m.Replay, err = r.ReadBool(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ServerInfoMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint16(m.Version); err != nil {
		return err
	}
	if err := w.WriteUint32(m.ServerCount); err != nil {
		return err
	}
	if err := w.WriteBool(m.STV); err != nil {
		return err
	}
	if err := w.WriteBool(m.Dedicated); err != nil {
		return err
	}
	if err := w.WriteUint32(m.MaxCRC); err != nil {
		return err
	}
	if err := w.WriteUint16(m.MaxClasses); err != nil {
		return err
	}
	if m.Version >= mapHashVersion {
		if err := w.WriteBytes(m.MapHash[:]); err != nil {
			return err
		}
	} else if err := w.WriteUint32(m.MapCRC); err != nil {
		return err
	}
	if err := w.WriteUint8(m.PlayerSlot); err != nil {
		return err
	}
	if err := w.WriteUint8(m.MaxPlayerCount); err != nil {
		return err
	}
	if err := w.WriteFloat32(m.IntervalPerTick); err != nil {
		return err
	}
	if err := w.WriteSizedString(m.Platform, 1); err != nil {
		return err
	}
	for _, s := range []string{m.Game, m.Map, m.Skybox, m.ServerName} {
		if err := w.WriteString(s); err != nil {
			return err
		}
	}
	if m.Version >= replayVersion {
		return w.WriteBool(m.Replay)
	}
	return nil
}

// ClassInfoEntry 客户端类信息
type ClassInfoEntry struct {
	ClassID   uint16
	ClassName string
	TableName string
}

// ClassInfoMessage Create 为真时客户端自行创建类表，不携带条目
type ClassInfoMessage struct {
	Count   uint16
	Create  bool
	Entries []ClassInfoEntry
}

func (*ClassInfoMessage) Type() Type { return TypeClassInfo }

func classIDBits(count uint16) int {
	n := 0
	for c := count; c > 1; c >>= 1 {
		n++
	}
	return n + 1
}

func readClassInfo(r *bitstream.Reader) (Message, error) {
	m := &ClassInfoMessage{}
	var err error
	if m.Count, err = r.ReadUint16(); err != nil {
		return nil, err
	}
	if m.Create, err = r.ReadBool(); err != nil {
		return nil, err
	}
	if m.Create {
		return m, nil
	}
	bits := classIDBits(m.Count)
	m.Entries = make([]ClassInfoEntry, 0, m.Count)
	for i := 0; i < int(m.Count); i++ {
		var e ClassInfoEntry
		id, err := r.ReadUint(bits)
		if err != nil {
			return nil, err
		}
		e.ClassID = uint16(id)
		if e.ClassName, err = r.ReadString(); err != nil {
			return nil, err
		}
		if e.TableName, err = r.ReadString(); err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

func (m *ClassInfoMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint16(m.Count); err != nil {
		return err
	}
	if err := w.WriteBool(m.Create); err != nil {
		return err
	}
	if m.Create {
		return nil
	}
	if len(m.Entries) != int(m.Count) {
		return fmt.Errorf("class info: %d entries for count %d", len(m.Entries), m.Count)
	}
	bits := classIDBits(m.Count)
	for _, e := range m.Entries {
		if err := w.WriteUint(uint32(e.ClassID), bits); err != nil {
			return err
		}
		if err := w.WriteString(e.ClassName); err != nil {
			return err
		}
		if err := w.WriteString(e.TableName); err != nil {
			return err
		}
	}
	return nil
}
