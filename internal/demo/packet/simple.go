package packet

import (
	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const stopTickBits = 24

// SyncTickPacket 时钟同步
type SyncTickPacket struct {
	Tick uint32
}

func (*SyncTickPacket) Type() Type { return TypeSyncTick }

func readSyncTick(r *bitstream.Reader) (*SyncTickPacket, error) {
	tick, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	return &SyncTickPacket{Tick: tick}, nil
}

func (p *SyncTickPacket) Write(w *bitstream.Writer) error { return w.WriteUint32(p.Tick) }

// ConsoleCmdPacket 录制端控制台命令
type ConsoleCmdPacket struct {
	Tick    uint32
	Command string
}

func (*ConsoleCmdPacket) Type() Type { return TypeConsoleCmd }

func readConsoleCmd(r *bitstream.Reader) (*ConsoleCmdPacket, error) {
	tick, err := r.ReadUint32()
	if err != nil {
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
	cmd, err := body.ReadString()
	if err != nil {
		return nil, err
	}
	if err := body.EnsureConsumed(); err != nil {
		return nil, err
	}
	return &ConsoleCmdPacket{Tick: tick, Command: cmd}, nil
}

func (p *ConsoleCmdPacket) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(p.Tick); err != nil {
		return err
	}
	return w.ReserveByteLength(32, func(w *bitstream.Writer) error {
		return w.WriteString(p.Command)
	})
}

// UserCmdPacket 玩家输入命令，命令体保持原样
type UserCmdPacket struct {
	Tick     uint32
	Sequence uint32
	Data     bitstream.Raw
}

func (*UserCmdPacket) Type() Type { return TypeUserCmd }

func readUserCmd(r *bitstream.Reader) (*UserCmdPacket, error) {
	p := &UserCmdPacket{}
	var err error
	if p.Tick, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	if p.Sequence, err = r.ReadUint32(); err != nil {
		return nil, err
	}
	length, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if p.Data, err = r.ReadRaw(int(length) * 8); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *UserCmdPacket) Write(w *bitstream.Writer) error {
	if err := w.WriteUint32(p.Tick); err != nil {
		return err
	}
	if err := w.WriteUint32(p.Sequence); err != nil {
		return err
	}
	return w.ReserveByteLength(32, func(w *bitstream.Writer) error {
		return w.WriteRaw(p.Data)
	})
}

// StopPacket 流结束标记
type StopPacket struct {
	Tick uint32
}

func (*StopPacket) Type() Type { return TypeStop }

func readStop(r *bitstream.Reader) (*StopPacket, error) {
	tick, err := r.ReadUint(stopTickBits)
	if err != nil {
		return nil, err
	}
	return &StopPacket{Tick: tick}, nil
}

func (p *StopPacket) Write(w *bitstream.Writer) error { return w.WriteUint(p.Tick, stopTickBits) }
