package message

import (
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	celtCodec         = "vaudio_celt"
	celtSamplingRate  = 11025
	explicitRateFlag  = 255
	reliableSoundBits = 8
)

// VoiceInitMessage 语音编码参数；Quality 为 255 时显式携带采样率
type VoiceInitMessage struct {
	Codec        string
	Quality      uint8
	SamplingRate uint16
}

func (*VoiceInitMessage) Type() Type { return TypeVoiceInit }

func readVoiceInit(r *bitstream.Reader) (Message, error) {
	m := &VoiceInitMessage{}
	var err error
	if m.Codec, err = r.ReadString(); err != nil {
		return nil, err
	}
	if m.Quality, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	switch {
	case m.Quality == explicitRateFlag:
		if m.SamplingRate, err = r.ReadUint16(); err != nil {
			return nil, err
		}
	case m.Codec == celtCodec:
		m.SamplingRate = celtSamplingRate
	}
	return m, nil
}

func (m *VoiceInitMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteString(m.Codec); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Quality); err != nil {
		return err
	}
	if m.Quality == explicitRateFlag {
		return w.WriteUint16(m.SamplingRate)
	}
	return nil
}

// VoiceDataMessage 语音数据，长度以 bit 计
type VoiceDataMessage struct {
	Client    uint8
	Proximity uint8
	Data      bitstream.Raw
}

func (*VoiceDataMessage) Type() Type { return TypeVoiceData }

func readVoiceData(r *bitstream.Reader) (Message, error) {
	m := &VoiceDataMessage{}
	var err error
	if m.Client, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	if m.Proximity, err = r.ReadUint8(); err != nil {
		return nil, err
	}
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *VoiceDataMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteUint8(m.Client); err != nil {
		return err
	}
	if err := w.WriteUint8(m.Proximity); err != nil {
		return err
	}
	if err := w.WriteUint(uint32(m.Data.Len), 16); err != nil {
		return err
	}
	return w.WriteRaw(m.Data)
}

// ParseSoundsMessage 声音事件；可靠消息固定 1 条且长度字段为 8 bit
type ParseSoundsMessage struct {
	Reliable bool
	Num      uint8
	Data     bitstream.Raw
}

func (*ParseSoundsMessage) Type() Type { return TypeParseSounds }

func readParseSounds(r *bitstream.Reader) (Message, error) {
	m := &ParseSoundsMessage{Num: 1}
	var err error
	if m.Reliable, err = r.ReadBool(); err != nil {
		return nil, err
	}
	var length uint32
	if m.Reliable {
		length, err = r.ReadUint(reliableSoundBits)
	} else {
		if m.Num, err = r.ReadUint8(); err != nil {
			return nil, err
		}
		var l uint16
		l, err = r.ReadUint16()
		length = uint32(l)
	}
	if err != nil {
		return nil, err
	}
	if m.Data, err = r.ReadRaw(int(length)); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ParseSoundsMessage) Write(w *bitstream.Writer) error {
	if err := w.WriteBool(m.Reliable); err != nil {
		return err
	}
	if m.Reliable {
		if m.Num != 1 {
			return fmt.Errorf("reliable sounds message carries %d sounds", m.Num)
		}
		if err := w.WriteUint(uint32(m.Data.Len), reliableSoundBits); err != nil {
			return err
		}
	} else {
		if err := w.WriteUint8(m.Num); err != nil {
			return err
		}
		if err := w.WriteUint(uint32(m.Data.Len), 16); err != nil {
			return err
		}
	}
	return w.WriteRaw(m.Data)
}
