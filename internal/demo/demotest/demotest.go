// Package demotest 构造用于测试的最小录像
package demotest

import (
	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo"
	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
	"github.com/taoyao-code/demo-analyzer/internal/demo/packet"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

const (
	// Map 录像地图名
	Map = "koth_product_final"
	// SteamID 唯一玩家的 steam id
	SteamID = "[U:1:1001]"
	// Player 唯一玩家名
	Player = "medic"

	spawnEvent gameevent.ID = 10
)

// Builder 顺序写出录像的各个数据包
type Builder struct {
	w   *bitstream.Writer
	err error
}

// NewBuilder 写入文件头
func NewBuilder(header demo.Header) *Builder {
	b := &Builder{w: bitstream.NewWriter()}
	b.err = header.Write(b.w)
	return b
}

// Add 追加数据包
func (b *Builder) Add(p packet.Packet) *Builder {
	if b.err == nil {
		b.err = packet.Write(b.w, p)
	}
	return b
}

// Bytes 返回录像内容
func (b *Builder) Bytes() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.w.Bytes(), nil
}

// Messages 以零值元数据构造消息包
func Messages(kind packet.Type, tick uint32, msgs ...message.Message) *packet.MessagePacket {
	return &packet.MessagePacket{
		Kind:     kind,
		Tick:     tick,
		Meta:     bitstream.RawFromBytes(make([]byte, packet.MessagePacketMetaBytes)),
		Messages: msgs,
	}
}

// Header 默认文件头
func Header() demo.Header {
	return demo.Header{DemoType: "HL2DEMO", Version: 3, Protocol: 24, Server: "127.0.0.1:27015", Nick: "SourceTV", Map: Map, Game: "tf", Duration: 4.5, Ticks: 300}
}

// Match 一名玩家出生并发言一次的完整录像
func Match() ([]byte, error) {
	info := bitstream.NewWriter()
	if err := info.WriteSizedString(Player, 32); err != nil {
		return nil, err
	}
	if err := info.WriteUint32(7); err != nil {
		return nil, err
	}
	if err := info.WriteString(SteamID); err != nil {
		return nil, err
	}
	text := "1"
	meta := stringtable.Meta{Name: "userinfo", MaxEntries: 32}
	entries := bitstream.NewWriter()
	err := stringtable.WriteEntries(entries, &meta, []stringtable.IndexedEntry{{Index: 0, Entry: stringtable.Entry{
		Text:  &text,
		Extra: &stringtable.ExtraData{ByteLen: uint16(len(info.Bytes())), Data: bitstream.RawFromBytes(info.Bytes())},
	}}})
	if err != nil {
		return nil, err
	}

	spawn := &gameevent.Definition{ID: spawnEvent, Name: "player_spawn", Entries: []gameevent.Entry{
		{Name: "userid", Kind: gameevent.ValueShort},
		{Name: "team", Kind: gameevent.ValueShort},
		{Name: "class", Kind: gameevent.ValueShort},
	}}
	chat, err := message.NewSayText2(message.SayText2{Client: 1, Raw: 1, Kind: message.ChatAll, From: Player, Text: "gg"})
	if err != nil {
		return nil, err
	}

	return NewBuilder(Header()).
		Add(&packet.DataTablePacket{Tick: 0, ServerClasses: []packet.ServerClass{}}).
		Add(Messages(packet.TypeSigon, 0,
			&message.ServerInfoMessage{Version: 24, Platform: "l", Game: "tf", Map: Map, IntervalPerTick: 0.015},
			&message.GameEventListMessage{Definitions: map[gameevent.ID]*gameevent.Definition{spawnEvent: spawn}},
			&message.CreateStringTableMessage{Name: meta.Name, MaxEntries: meta.MaxEntries, EntryCount: 1, Data: entries.Raw()},
		)).
		Add(Messages(packet.TypeMessage, 66,
			&message.GameEventMessage{Event: &gameevent.Event{Definition: spawn, Values: []gameevent.Value{
				{Kind: gameevent.ValueShort, Short: 7},
				{Kind: gameevent.ValueShort, Short: 3},
				{Kind: gameevent.ValueShort, Short: 5},
			}}},
			chat,
		)).
		Add(&packet.StopPacket{Tick: 300}).
		Bytes()
}
