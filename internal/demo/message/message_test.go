package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

type stubState struct {
	defs map[gameevent.ID]*gameevent.Definition
}

func (s *stubState) ShouldParseMessage(Type) bool { return true }

func (s *stubState) EventDefinition(id gameevent.ID) (*gameevent.Definition, bool) {
	d, ok := s.defs[id]
	return d, ok
}

func rawOf(b ...byte) bitstream.Raw { return bitstream.RawFromBytes(b) }

// roundTrip 写出后读回，比较值与读取位置
func roundTrip(t *testing.T, m Message, state State) {
	t.Helper()
	w := bitstream.NewWriter()
	require.NoError(t, Write(w, m))

	r := bitstream.NewReader(w.Bytes())
	typ, err := ReadType(r)
	require.NoError(t, err)
	require.Equal(t, m.Type(), typ)
	got, err := Decode(r, typ, state)
	require.NoError(t, err)
	assert.Equal(t, m, got)
	assert.Equal(t, w.BitLen(), r.Pos())

	skipped := bitstream.NewReader(w.Bytes())
	_, err = ReadType(skipped)
	require.NoError(t, err)
	require.NoError(t, Skip(skipped, typ, state))
	assert.Equal(t, w.BitLen(), skipped.Pos(), "skip must consume the same bits as decode")
}

func TestSimpleMessagesRoundTrip(t *testing.T) {
	state := &stubState{}
	cases := []Message{
		EmptyMessage{},
		&FileMessage{TransferID: 9, FileName: "maps/cp_badlands.bsp", Requested: true},
		&NetTickMessage{Tick: 1234, FrameTime: 15, FrameTimeStdDev: 2},
		&StringCmdMessage{Command: "tournament_readystate 1"},
		&SetConVarMessage{Vars: []ConVar{{Key: "sv_cheats", Value: "0"}, {Key: "mp_tournament", Value: "1"}}},
		&SignOnStateMessage{State: 6, Count: 3},
		&PrintMessage{Value: "hello"},
		&SetPauseMessage{Pause: true},
		&SetViewMessage{Index: 5},
		&FixAngleMessage{Relative: true, Angle: [3]uint16{1, 2, 65535}},
		&PreFetchMessage{Index: 1000},
		&GetCvarValueMessage{Cookie: 77, Value: "cl_interp"},
		&BspDecalMessage{Position: Vector{X: 1.5, Z: -32}, TextureIndex: 3, HasEntity: true, EntIndex: 4, ModelIndex: 9, LowPriority: true},
		&EntityMessage{Index: 3, ClassID: 100, Data: rawOf(1, 2, 3)},
		&PacketEntitiesMessage{MaxEntries: 2048, Delta: true, DeltaFrom: 55, BaseLine: true, UpdatedEntries: 2, UpdateBaseline: true, Data: rawOf(0xde, 0xad)},
		&TempEntitiesMessage{Count: 2, Data: rawOf(0xff, 0x01)},
		&MenuMessage{Kind: 1, Data: []byte("menu")},
		&CmdKeyValuesMessage{Data: []byte{1, 2, 3, 4}},
		&ClassInfoMessage{Count: 2, Entries: []ClassInfoEntry{{ClassID: 0, ClassName: "CWorld", TableName: "DT_World"}, {ClassID: 1, ClassName: "CTFPlayer", TableName: "DT_TFPlayer"}}},
		&ClassInfoMessage{Count: 300, Create: true},
	}
	for _, m := range cases {
		t.Run(m.Type().String(), func(t *testing.T) { roundTrip(t, m, state) })
	}
}

func TestServerInfoRoundTrip(t *testing.T) {
	state := &stubState{}
	roundTrip(t, &ServerInfoMessage{
		Version:         24,
		ServerCount:     2,
		STV:             true,
		Dedicated:       true,
		MaxCRC:          0xdeadbeef,
		MaxClasses:      350,
		MapHash:         [16]byte{1, 2, 3},
		PlayerSlot:      1,
		MaxPlayerCount:  24,
		IntervalPerTick: 0.015,
		Platform:        "l",
		Game:            "tf",
		Map:             "cp_process_final",
		Skybox:          "sky_tf2_04",
		ServerName:      "match server",
		Replay:          true,
	}, state)
	roundTrip(t, &ServerInfoMessage{Version: 14, MapCRC: 42, Platform: "w", Game: "tf"}, state)
}

func TestVoiceRoundTrip(t *testing.T) {
	state := &stubState{}
	roundTrip(t, &VoiceInitMessage{Codec: "foo", Quality: 0, SamplingRate: 0}, state)
	roundTrip(t, &VoiceInitMessage{Codec: "foo", Quality: 255, SamplingRate: 12}, state)
	roundTrip(t, &VoiceDataMessage{Client: 1, Proximity: 1, Data: rawOf(1, 2, 3, 4, 5, 6)}, state)

	inner := rawOf(1, 2, 3, 4, 5, 6)
	roundTrip(t, &ParseSoundsMessage{Reliable: false, Num: 0, Data: inner}, state)
	roundTrip(t, &ParseSoundsMessage{Reliable: true, Num: 1, Data: inner}, state)
}

func TestVoiceInitCeltSamplingRate(t *testing.T) {
	w := bitstream.NewWriter()
	require.NoError(t, (&VoiceInitMessage{Codec: celtCodec, Quality: 5}).Write(w))

	m, err := readVoiceInit(bitstream.NewReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint16(celtSamplingRate), m.(*VoiceInitMessage).SamplingRate)
}

func TestStringTableMessagesRoundTrip(t *testing.T) {
	state := &stubState{}
	text := "0"
	meta := stringtable.Meta{Name: "instancebaseline", MaxEntries: 1024}
	entries := []stringtable.IndexedEntry{{Index: 0, Entry: stringtable.Entry{Text: &text, Extra: &stringtable.ExtraData{ByteLen: 2, Data: rawOf(7, 8)}}}}
	data := bitstream.NewWriter()
	require.NoError(t, stringtable.WriteEntries(data, &meta, entries))

	create := &CreateStringTableMessage{Name: meta.Name, MaxEntries: meta.MaxEntries, EntryCount: 1, Data: data.Raw()}
	roundTrip(t, create, state)
	got, err := create.Entries()
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	roundTrip(t, &CreateStringTableMessage{
		Name:              "lightstyles",
		MaxEntries:        64,
		EntryCount:        0,
		FixedUserDataSize: &stringtable.FixedUserDataSize{Size: 1, Bits: 2},
		Data:              rawOf(0),
	}, state)

	update := &UpdateStringTableMessage{TableID: 3, ChangedCount: 1, Data: data.Raw()}
	roundTrip(t, update, state)
	got, err = update.Entries(&meta)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	roundTrip(t, &UpdateStringTableMessage{TableID: 31, ChangedCount: 5, Data: rawOf(1)}, state)
}

func TestSayText2(t *testing.T) {
	state := &stubState{}
	msg, err := NewSayText2(SayText2{Client: 2, Raw: 1, Kind: ChatAll, From: "player", Text: "gg"})
	require.NoError(t, err)
	roundTrip(t, msg, state)
	assert.Equal(t, "TF_Chat_All", msg.SayText2.Key)

	hashed, err := NewSayText2(SayText2{Key: "#TF_Name_Change", From: "old", Text: "new"})
	require.NoError(t, err)
	roundTrip(t, hashed, state)
	assert.Equal(t, NameChange, hashed.SayText2.Kind)

	raw, err := NewSayText2(SayText2{Key: "*DEAD* someone : hi"})
	require.NoError(t, err)
	roundTrip(t, raw, state)
	assert.Equal(t, ChatRaw, raw.SayText2.Kind)
	assert.Equal(t, "*DEAD* someone : hi", raw.SayText2.Text)

	other := &UserMessage{MessageType: 5, Data: rawOf(9, 9)}
	roundTrip(t, other, state)
}

func TestGameEventMessages(t *testing.T) {
	def := &gameevent.Definition{ID: 3, Name: "player_spawn", Entries: []gameevent.Entry{
		{Name: "userid", Kind: gameevent.ValueShort},
		{Name: "team", Kind: gameevent.ValueShort},
		{Name: "class", Kind: gameevent.ValueShort},
	}}
	other := &gameevent.Definition{ID: 1, Name: "round_start", Entries: []gameevent.Entry{{Name: "timelimit", Kind: gameevent.ValueLong}}}
	state := &stubState{defs: map[gameevent.ID]*gameevent.Definition{def.ID: def, other.ID: other}}

	roundTrip(t, &GameEventListMessage{Definitions: state.defs}, state)
	roundTrip(t, &GameEventMessage{Event: &gameevent.Event{Definition: def, Values: []gameevent.Value{
		{Kind: gameevent.ValueShort, Short: 2},
		{Kind: gameevent.ValueShort, Short: 3},
		{Kind: gameevent.ValueShort, Short: 9},
	}}}, state)
}

func TestGameEventListTrailingData(t *testing.T) {
	def := &gameevent.Definition{ID: 3, Name: "player_spawn", Entries: []gameevent.Entry{{Name: "userid", Kind: gameevent.ValueShort}}}
	w := bitstream.NewWriter()
	require.NoError(t, w.WriteUint(uint32(TypeGameEventList), TypeBits))
	require.NoError(t, w.WriteUint(1, eventCountBits))
	require.NoError(t, w.ReserveBitLength(eventListLengthBits, func(w *bitstream.Writer) error {
		if err := def.Write(w); err != nil {
			return err
		}
		return w.WriteBits(0xffff, 16)
	}))

	r := bitstream.NewReader(w.Bytes())
	typ, err := ReadType(r)
	require.NoError(t, err)
	_, err = Decode(r, typ, &stubState{})
	var remaining *bitstream.DataRemainingError
	require.ErrorAs(t, err, &remaining)
	assert.Equal(t, 16, remaining.Bits)
}

func TestGameEventUnknownDefinition(t *testing.T) {
	def := &gameevent.Definition{ID: 3, Name: "x"}
	w := bitstream.NewWriter()
	require.NoError(t, Write(w, &GameEventMessage{Event: &gameevent.Event{Definition: def}}))

	r := bitstream.NewReader(w.Bytes())
	typ, err := ReadType(r)
	require.NoError(t, err)
	_, err = Decode(r, typ, &stubState{})
	var unknown *gameevent.UnknownEventError
	assert.ErrorAs(t, err, &unknown)
}

func TestUnknownMessageType(t *testing.T) {
	w := bitstream.NewWriter()
	require.NoError(t, w.WriteUint(1, TypeBits))

	_, err := ReadType(bitstream.NewReader(w.Bytes()))
	var unknown *UnknownMessageTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, uint8(1), unknown.Type)
}
