package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

type filterState struct {
	parse map[message.Type]bool
}

func (s *filterState) ShouldParseMessage(t message.Type) bool {
	return s.parse == nil || s.parse[t]
}

func (s *filterState) EventDefinition(gameevent.ID) (*gameevent.Definition, bool) { return nil, false }

func packetRoundTrip(t *testing.T, p Packet, state message.State) {
	t.Helper()
	w := bitstream.NewWriter()
	require.NoError(t, Write(w, p))

	r := bitstream.NewReader(w.Bytes())
	got, err := Read(r, state)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, w.BitLen(), r.Pos())
}

func meta() bitstream.Raw {
	b := make([]byte, MessagePacketMetaBytes)
	for i := range b {
		b[i] = byte(i)
	}
	return bitstream.RawFromBytes(b)
}

func TestSimplePacketsRoundTrip(t *testing.T) {
	state := &filterState{}
	packetRoundTrip(t, &SyncTickPacket{Tick: 12}, state)
	packetRoundTrip(t, &ConsoleCmdPacket{Tick: 3, Command: "+attack"}, state)
	packetRoundTrip(t, &UserCmdPacket{Tick: 4, Sequence: 99, Data: bitstream.RawFromBytes([]byte{1, 2, 3})}, state)
	packetRoundTrip(t, &StopPacket{Tick: 0xABCDEF}, state)
}

func TestStringTablesPacketRoundTrip(t *testing.T) {
	text := func(s string) *string { return &s }
	p := &StringTablesPacket{Tick: 7, Tables: []StringTable{
		{
			Name: "userinfo",
			Entries: []stringtable.IndexedEntry{
				{Index: 0, Entry: stringtable.Entry{Text: text("0")}},
				{Index: 1, Entry: stringtable.Entry{Text: text("1"), Extra: &stringtable.ExtraData{ByteLen: 2, Data: bitstream.RawFromBytes([]byte{5, 6})}}},
			},
		},
		{
			Name:          "downloadables",
			Entries:       []stringtable.IndexedEntry{},
			ClientEntries: []stringtable.IndexedEntry{{Index: 0, Entry: stringtable.Entry{Text: text("x")}}},
		},
	}}
	packetRoundTrip(t, p, &filterState{})
}

func TestMessagePacketRoundTrip(t *testing.T) {
	p := &MessagePacket{
		Kind: TypeMessage,
		Tick: 100,
		Meta: meta(),
		Messages: []message.Message{
			&message.NetTickMessage{Tick: 100, FrameTime: 1, FrameTimeStdDev: 2},
			&message.PrintMessage{Value: "welcome"},
			&message.SetPauseMessage{Pause: false},
		},
	}
	packetRoundTrip(t, p, &filterState{})

	p.Kind = TypeSigon
	packetRoundTrip(t, p, &filterState{})
}

func TestMessagePacketSkipsUnwanted(t *testing.T) {
	p := &MessagePacket{
		Kind: TypeMessage,
		Tick: 100,
		Meta: meta(),
		Messages: []message.Message{
			&message.NetTickMessage{Tick: 100},
			&message.UserMessage{MessageType: 5, Data: bitstream.RawFromBytes([]byte{1, 2, 3})},
			&message.PrintMessage{Value: "kept"},
		},
	}
	w := bitstream.NewWriter()
	require.NoError(t, Write(w, p))

	state := &filterState{parse: map[message.Type]bool{message.TypePrint: true}}
	r := bitstream.NewReader(w.Bytes())
	got, err := Read(r, state)
	require.NoError(t, err)

	mp := got.(*MessagePacket)
	require.Len(t, mp.Messages, 3)
	assert.Equal(t, message.TypeNetTick, mp.Messages[0].Type())
	assert.IsType(t, &message.RawMessage{}, mp.Messages[1])
	assert.Equal(t, message.TypeUserMessage, mp.Messages[1].Type())
	assert.Equal(t, &message.PrintMessage{Value: "kept"}, mp.Messages[2])
	assert.Equal(t, 2, mp.Skipped)
	assert.Equal(t, w.BitLen(), r.Pos())

	// 过滤读取后写回与原始字节一致
	again := bitstream.NewWriter()
	require.NoError(t, Write(again, mp))
	assert.Equal(t, w.Bytes(), again.Bytes())

	full, err := Read(bitstream.NewReader(again.Bytes()), &filterState{})
	require.NoError(t, err)
	assert.Equal(t, p, full)
}
