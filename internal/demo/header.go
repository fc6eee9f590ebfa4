package demo

import (
	"errors"
	"fmt"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
)

const (
	headerMagic   = "HL2DEMO"
	headerStrSize = 260
	// HeaderBytes 文件头固定长度
	HeaderBytes = 8 + 4 + 4 + headerStrSize*4 + 4 + 4 + 4 + 4
)

var ErrInvalidMagic = errors.New("not a demo file")

// Header demo 文件头
type Header struct {
	DemoType     string  `json:"demoType" yaml:"demoType"`
	Version      uint32  `json:"version" yaml:"version"`
	Protocol     uint32  `json:"protocol" yaml:"protocol"`
	Server       string  `json:"server" yaml:"server"`
	Nick         string  `json:"nick" yaml:"nick"`
	Map          string  `json:"map" yaml:"map"`
	Game         string  `json:"game" yaml:"game"`
	Duration     float32 `json:"duration" yaml:"duration"`
	Ticks        uint32  `json:"ticks" yaml:"ticks"`
	Frames       uint32  `json:"frames" yaml:"frames"`
	SignonLength uint32  `json:"signon" yaml:"signon"`
}

// ReadHeader 读取并校验文件头
func ReadHeader(r *bitstream.Reader) (Header, error) {
	var h Header
	var err error
	if h.DemoType, err = r.ReadSizedString(8); err != nil {
		return h, err
	}
	if h.DemoType != headerMagic {
		return h, fmt.Errorf("%w: magic %q", ErrInvalidMagic, h.DemoType)
	}
	if h.Version, err = r.ReadUint32(); err != nil {
		return h, err
	}
	if h.Protocol, err = r.ReadUint32(); err != nil {
		return h, err
	}
	for _, s := range []*string{&h.Server, &h.Nick, &h.Map, &h.Game} {
		if *s, err = r.ReadSizedString(headerStrSize); err != nil {
			return h, err
		}
	}
	if h.Duration, err = r.ReadFloat32(); err != nil {
		return h, err
	}
	for _, v := range []*uint32{&h.Ticks, &h.Frames, &h.SignonLength} {
		if *v, err = r.ReadUint32(); err != nil {
			return h, err
		}
	}
	return h, nil
}

func (h *Header) Write(w *bitstream.Writer) error {
	if err := w.WriteSizedString(h.DemoType, 8); err != nil {
		return err
	}
	if err := w.WriteUint32(h.Version); err != nil {
		return err
	}
	if err := w.WriteUint32(h.Protocol); err != nil {
		return err
	}
	for _, s := range []string{h.Server, h.Nick, h.Map, h.Game} {
		if err := w.WriteSizedString(s, headerStrSize); err != nil {
			return err
		}
	}
	if err := w.WriteFloat32(h.Duration); err != nil {
		return err
	}
	for _, v := range []uint32{h.Ticks, h.Frames, h.SignonLength} {
		if err := w.WriteUint32(v); err != nil {
			return err
		}
	}
	return nil
}
