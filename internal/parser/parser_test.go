package parser

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo"
	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
	"github.com/taoyao-code/demo-analyzer/internal/demo/packet"
	"github.com/taoyao-code/demo-analyzer/internal/demo/sendprop"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
	"github.com/taoyao-code/demo-analyzer/internal/metrics"
)

const (
	eventSpawn gameevent.ID = 1
	eventDeath gameevent.ID = 2
	eventRound gameevent.ID = 3
)

var eventDefinitions = map[gameevent.ID]*gameevent.Definition{
	eventSpawn: {ID: eventSpawn, Name: "player_spawn", Entries: []gameevent.Entry{
		{Name: "userid", Kind: gameevent.ValueShort},
		{Name: "team", Kind: gameevent.ValueShort},
		{Name: "class", Kind: gameevent.ValueShort},
	}},
	eventDeath: {ID: eventDeath, Name: "player_death", Entries: []gameevent.Entry{
		{Name: "userid", Kind: gameevent.ValueShort},
		{Name: "attacker", Kind: gameevent.ValueShort},
		{Name: "assister", Kind: gameevent.ValueShort},
		{Name: "weapon", Kind: gameevent.ValueString},
	}},
	eventRound: {ID: eventRound, Name: "teamplay_round_win", Entries: []gameevent.Entry{
		{Name: "team", Kind: gameevent.ValueByte},
		{Name: "winreason", Kind: gameevent.ValueByte},
		{Name: "round_time", Kind: gameevent.ValueFloat},
	}},
}

func text(s string) *string { return &s }

func short(v uint16) gameevent.Value { return gameevent.Value{Kind: gameevent.ValueShort, Short: v} }
func byteValue(v uint8) gameevent.Value {
	return gameevent.Value{Kind: gameevent.ValueByte, Byte: v}
}

func event(id gameevent.ID, values ...gameevent.Value) *message.GameEventMessage {
	return &message.GameEventMessage{Event: &gameevent.Event{Definition: eventDefinitions[id], Values: values}}
}

func userInfo(t *testing.T, name string, id uint32, steamID string) *stringtable.ExtraData {
	t.Helper()
	w := bitstream.NewWriter()
	require.NoError(t, w.WriteSizedString(name, 32))
	require.NoError(t, w.WriteUint32(id))
	require.NoError(t, w.WriteString(steamID))
	return &stringtable.ExtraData{ByteLen: uint16(len(w.Bytes())), Data: bitstream.RawFromBytes(w.Bytes())}
}

func entriesRaw(t *testing.T, meta stringtable.Meta, entries []stringtable.IndexedEntry) bitstream.Raw {
	t.Helper()
	w := bitstream.NewWriter()
	require.NoError(t, stringtable.WriteEntries(w, &meta, entries))
	return w.Raw()
}

func sayText2(t *testing.T, kind message.ChatKind, from, body string) *message.UserMessage {
	t.Helper()
	msg, err := message.NewSayText2(message.SayText2{Client: 1, Raw: 1, Kind: kind, From: from, Text: body})
	require.NoError(t, err)
	return msg
}

func messages(kind packet.Type, tick uint32, msgs ...message.Message) *packet.MessagePacket {
	return &packet.MessagePacket{
		Kind:     kind,
		Tick:     tick,
		Meta:     bitstream.RawFromBytes(make([]byte, packet.MessagePacketMetaBytes)),
		Messages: msgs,
	}
}

func playerTables() []packet.ParseSendTable {
	prop := func(table, name string) sendprop.RawSendPropDefinition {
		bits := uint32(8)
		low, high := float32(0), float32(math.MaxUint8)
		return sendprop.RawSendPropDefinition{
			PropType:         sendprop.TypeInt,
			Name:             name,
			Identifier:       sendprop.NewIdentifier(table, name),
			Flags:            sendprop.NewFlags(sendprop.FlagUnsigned),
			LowValue:         &low,
			HighValue:        &high,
			BitCount:         &bits,
			OriginalBitCount: &bits,
		}
	}
	base := "DT_BasePlayer"
	return []packet.ParseSendTable{
		{Name: "DT_TFPlayer", NeedsDecoder: true, Props: []sendprop.RawSendPropDefinition{
			prop("DT_TFPlayer", "m_iClass"),
			{
				PropType:   sendprop.TypeDataTable,
				Name:       "baseclass",
				Identifier: sendprop.NewIdentifier("DT_TFPlayer", "baseclass"),
				Flags:      sendprop.NewFlags(sendprop.FlagCollapsible),
				TableName:  &base,
			},
		}},
		{Name: "DT_BasePlayer", Props: []sendprop.RawSendPropDefinition{
			prop("DT_BasePlayer", "m_iHealth"),
		}},
	}
}

type demoBuilder struct {
	t *testing.T
	w *bitstream.Writer
}

func newDemo(t *testing.T) *demoBuilder {
	b := &demoBuilder{t: t, w: bitstream.NewWriter()}
	header := demo.Header{DemoType: "HL2DEMO", Version: 3, Protocol: 24, Map: "cp_process_final", Game: "tf", Ticks: 300}
	require.NoError(t, header.Write(b.w))
	return b
}

func (b *demoBuilder) add(p packet.Packet) *demoBuilder {
	require.NoError(b.t, packet.Write(b.w, p))
	return b
}

func (b *demoBuilder) bytes() []byte { return b.w.Bytes() }

// matchDemo 包含数据表、基线、玩家表、事件与聊天的完整录像
func matchDemo(t *testing.T) []byte {
	userMeta := stringtable.Meta{Name: "userinfo", MaxEntries: 32}
	alice := []stringtable.IndexedEntry{{Index: 0, Entry: stringtable.Entry{Text: text("1"), Extra: userInfo(t, "alice", 0x102, "[U:1:1]")}}}
	carol := []stringtable.IndexedEntry{{Index: 1, Entry: stringtable.Entry{Text: text("2"), Extra: userInfo(t, "carol", 3, "[U:1:2]")}}}

	return newDemo(t).
		add(&packet.DataTablePacket{
			Tick:          0,
			Tables:        playerTables(),
			ServerClasses: []packet.ServerClass{{ID: 0, Name: "CTFPlayer", DataTable: "DT_TFPlayer"}},
		}).
		add(&packet.StringTablesPacket{Tick: 0, Tables: []packet.StringTable{{
			Name: "instancebaseline",
			Entries: []stringtable.IndexedEntry{{Index: 0, Entry: stringtable.Entry{
				Text:  text("0"),
				Extra: &stringtable.ExtraData{ByteLen: 2, Data: bitstream.RawFromBytes([]byte{9, 150})},
			}}},
		}}}).
		add(messages(packet.TypeSigon, 0,
			&message.ServerInfoMessage{Version: 24, Platform: "l", Game: "tf", Map: "cp_process_final", IntervalPerTick: 0.015},
			&message.GameEventListMessage{Definitions: eventDefinitions},
			&message.CreateStringTableMessage{Name: userMeta.Name, MaxEntries: userMeta.MaxEntries, EntryCount: 1, Data: entriesRaw(t, userMeta, alice)},
			&message.PrintMessage{Value: "welcome"},
		)).
		add(&packet.SyncTickPacket{Tick: 0}).
		add(messages(packet.TypeMessage, 100,
			&message.NetTickMessage{Tick: 100},
			event(eventSpawn, short(2), short(2), short(1)),
			sayText2(t, message.ChatAll, "alice", "gg"),
			sayText2(t, message.NameChange, "alice", "bob"),
			event(eventDeath, short(3), short(2), short(0xFFFF), gameevent.Value{Kind: gameevent.ValueString, String: "scattergun"}),
			event(eventRound, byteValue(3), byteValue(1), gameevent.Value{Kind: gameevent.ValueFloat, Float: 120}),
			event(eventRound, byteValue(2), byteValue(winReasonTimeLimit), gameevent.Value{Kind: gameevent.ValueFloat, Float: 30}),
		)).
		add(messages(packet.TypeMessage, 200,
			&message.UpdateStringTableMessage{TableID: 0, ChangedCount: 1, Data: entriesRaw(t, userMeta, carol)},
			event(eventSpawn, short(2), short(3), short(7)),
			event(eventDeath, short(2), short(3), short(2), gameevent.Value{Kind: gameevent.ValueString, String: "flamethrower"}),
		)).
		add(&packet.StopPacket{Tick: 300}).
		bytes()
}

func TestAnalyserEndToEnd(t *testing.T) {
	header, match, err := NewDemoParser[MatchState](matchDemo(t), NewAnalyser()).Parse()
	require.NoError(t, err)

	assert.Equal(t, "cp_process_final", header.Map)
	assert.Equal(t, uint32(100), match.StartTick)
	assert.InDelta(t, 0.015, match.IntervalPerTick, 1e-6)

	require.Len(t, match.Chat, 1)
	assert.Equal(t, ChatMessage{Kind: message.ChatAll, From: "alice", Text: "gg", Tick: 100}, match.Chat[0])

	require.Len(t, match.Users, 2)
	bob := match.Users[2]
	assert.Equal(t, "bob", bob.Name)
	assert.Equal(t, "[U:1:1]", bob.SteamID)
	assert.Equal(t, TeamBlue, bob.Team)
	assert.Equal(t, map[Class]uint8{ClassScout: 1, ClassPyro: 1}, bob.Classes)

	carol := match.Users[3]
	assert.Equal(t, "carol", carol.Name)
	assert.Equal(t, TeamOther, carol.Team)
	assert.Empty(t, carol.Classes)

	require.Len(t, match.Deaths, 2)
	assert.Equal(t, Death{Weapon: "scattergun", Victim: 3, Killer: 2, Tick: 100}, match.Deaths[0])
	require.NotNil(t, match.Deaths[1].Assister)
	assert.Equal(t, UserID(2), *match.Deaths[1].Assister)

	require.Len(t, match.Rounds, 1)
	assert.Equal(t, Round{Winner: TeamBlue, Length: 120, EndTick: 100}, match.Rounds[0])
}

func TestStateParser(t *testing.T) {
	_, state, err := NewStateParser(matchDemo(t)).Parse()
	require.NoError(t, err)

	assert.Equal(t, DemoMeta{Version: 24, Game: "tf", IntervalPerTick: 0.015}, state.Meta)
	assert.Len(t, state.EventDefinitions, 3)
	require.Len(t, state.StringTables, 1)
	assert.Equal(t, "userinfo", state.StringTables[0].Name)

	table := state.SendTables["DT_TFPlayer"]
	require.NotNil(t, table)
	names := make([]string, 0, len(table.FlattenedProps))
	for _, p := range table.FlattenedProps {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"m_iClass", "m_iHealth"}, names)

	sum := state.Summary()
	assert.Equal(t, []string{"player_death", "player_spawn", "teamplay_round_win"}, sum.EventDefinitions)
	assert.Equal(t, []string{"userinfo"}, sum.StringTables)
	assert.Equal(t, map[string]int{"DT_TFPlayer": 2, "DT_BasePlayer": 1}, sum.SendTables)
	assert.Equal(t, 1, sum.StaticBaselines)

	calls := 0
	decode := func(r *bitstream.Reader, props []sendprop.SendPropDefinition) ([]sendprop.SendProp, error) {
		calls++
		out := make([]sendprop.SendProp, 0, len(props))
		for _, p := range props {
			v, err := r.ReadUint(int(p.Parse.BitCount))
			if err != nil {
				return nil, err
			}
			out = append(out, sendprop.SendProp{Identifier: p.Identifier, Value: v})
		}
		return out, nil
	}
	props, err := state.StaticBaseline(0, decode)
	require.NoError(t, err)
	require.Len(t, props, 2)
	assert.Equal(t, uint32(9), props[0].Value)
	assert.Equal(t, uint32(150), props[1].Value)

	again, err := state.StaticBaseline(0, decode)
	require.NoError(t, err)
	assert.Equal(t, props, again)
	assert.Equal(t, 1, calls)

	_, err = state.StaticBaseline(7, decode)
	var missing *NoBaselineError
	assert.ErrorAs(t, err, &missing)
}

func TestParserMetrics(t *testing.T) {
	m := metrics.NewAppMetrics(prometheus.NewRegistry())
	_, _, err := NewDemoParser[MatchState](matchDemo(t), NewAnalyser(), WithMetrics(m)).Parse()
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PacketTotal.WithLabelValues("Stop")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.PacketTotal.WithLabelValues("Message")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ParseTotal.WithLabelValues("ok")))
	// Print 与 NetTick 不被任何一方关心
	assert.Equal(t, float64(2), testutil.ToFloat64(m.MessageSkipped))
	assert.Equal(t, float64(6), testutil.ToFloat64(m.MessageTotal.WithLabelValues("GameEvent")))
}

func TestParseAllDecodesEverything(t *testing.T) {
	h := NewDemoHandler[MatchState](NewAnalyser(), WithParseAll(true))
	assert.True(t, h.State().ShouldParseMessage(message.TypePrint))

	h = NewDemoHandler[MatchState](NewAnalyser())
	assert.False(t, h.State().ShouldParseMessage(message.TypePrint))
	assert.True(t, h.State().ShouldParseMessage(message.TypeUserMessage))
	assert.True(t, h.State().ShouldParseMessage(message.TypeServerInfo))
}

func TestMissingStop(t *testing.T) {
	data := newDemo(t).add(&packet.SyncTickPacket{Tick: 1}).bytes()
	_, _, err := NewStateParser(data).Parse()
	assert.ErrorIs(t, err, ErrMissingStop)
	assert.False(t, IsUnsupported(err))
}

func TestUnknownStringTable(t *testing.T) {
	data := newDemo(t).
		add(messages(packet.TypeMessage, 5, &message.UpdateStringTableMessage{TableID: 4, ChangedCount: 0, Data: bitstream.Raw{}})).
		add(&packet.StopPacket{}).
		bytes()
	_, _, err := NewDemoParser[MatchState](data, NewAnalyser()).Parse()
	var unknown *stringtable.UnknownTableError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 4, unknown.ID)
	assert.True(t, IsUnsupported(err))
}

func TestReplaceDataTablesIsGenerational(t *testing.T) {
	state := NewParserState(nil, false)
	require.NoError(t, state.ReplaceDataTables(playerTables(), []packet.ServerClass{{ID: 0, Name: "CTFPlayer", DataTable: "DT_TFPlayer"}}))
	assert.Len(t, state.SendTables, 2)

	next := playerTables()[1:]
	require.NoError(t, state.ReplaceDataTables(next, nil))
	assert.Len(t, state.SendTables, 1)
	assert.Contains(t, state.SendTables, packet.SendTableName("DT_BasePlayer"))
	assert.Empty(t, state.ServerClasses)

	recursive := []packet.ParseSendTable{{Name: "loop", Props: []sendprop.RawSendPropDefinition{{
		PropType:  sendprop.TypeDataTable,
		Name:      "self",
		TableName: text("loop"),
	}}}}
	assert.ErrorIs(t, state.ReplaceDataTables(recursive, nil), sendprop.ErrRecursiveTable)
	// 失败时保留上一代
	assert.Len(t, state.SendTables, 1)
}

func TestInstanceBaselines(t *testing.T) {
	state := NewParserState(nil, false)
	props := []sendprop.SendProp{{Identifier: 1, Value: int32(5)}}
	state.SetInstanceBaseline(1, 12, props)

	got, ok := state.InstanceBaseline(1, 12)
	require.True(t, ok)
	assert.Equal(t, props, got)
	_, ok = state.InstanceBaseline(0, 12)
	assert.False(t, ok)

	// 代号只取奇偶
	got, ok = state.InstanceBaseline(3, 12)
	require.True(t, ok)
	assert.Equal(t, props, got)
	assert.NotPanics(t, func() {
		state.SetInstanceBaseline(math.MaxUint, 13, props)
		_, ok = state.InstanceBaseline(math.MaxUint, 13)
	})
	assert.True(t, ok)
}

func TestIsUnsupported(t *testing.T) {
	assert.True(t, IsUnsupported(&packet.UnknownPacketTypeError{Type: 9}))
	assert.True(t, IsUnsupported(&message.UnknownMessageTypeError{Type: 60}))
	assert.True(t, IsUnsupported(&gameevent.UnknownEventError{ID: 3}))
	assert.True(t, IsUnsupported(stringtable.ErrUnknownCompression))
	assert.False(t, IsUnsupported(bitstream.ErrNotEnoughData))
	assert.False(t, IsUnsupported(sendprop.ErrUnsizedFloat))
}
