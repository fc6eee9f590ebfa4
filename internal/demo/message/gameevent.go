package message

import (
	"fmt"
	"sort"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
)

const (
	gameEventLengthBits = 11
	eventCountBits      = 9
	eventListLengthBits = 20
)

// GameEventMessage 游戏事件，按事件列表中的定义解码
type GameEventMessage struct {
	Event *gameevent.Event
}

func (*GameEventMessage) Type() Type { return TypeGameEvent }

func readGameEvent(r *bitstream.Reader, state State) (Message, error) {
	length, err := r.ReadUint(gameEventLengthBits)
	if err != nil {
		return nil, err
	}
	body, err := r.ReadSubReader(int(length))
	if err != nil {
		return nil, err
	}
	ev, err := gameevent.ReadEvent(body, state.EventDefinition)
	if err != nil {
		return nil, err
	}
	if err := body.EnsureConsumed(); err != nil {
		return nil, fmt.Errorf("game event %s: %w", ev.Name(), err)
	}
	return &GameEventMessage{Event: ev}, nil
}

func (m *GameEventMessage) Write(w *bitstream.Writer) error {
	return w.ReserveBitLength(gameEventLengthBits, m.Event.Write)
}

// GameEventListMessage 事件定义列表
type GameEventListMessage struct {
	Definitions map[gameevent.ID]*gameevent.Definition
}

func (*GameEventListMessage) Type() Type { return TypeGameEventList }

func readGameEventList(r *bitstream.Reader) (Message, error) {
	count, err := r.ReadUint(eventCountBits)
	if err != nil {
		return nil, err
	}
	length, err := r.ReadUint(eventListLengthBits)
	if err != nil {
		return nil, err
	}
	body, err := r.ReadSubReader(int(length))
	if err != nil {
		return nil, err
	}
	m := &GameEventListMessage{Definitions: make(map[gameevent.ID]*gameevent.Definition, count)}
	for i := 0; i < int(count); i++ {
		def, err := gameevent.ReadDefinition(body)
		if err != nil {
			return nil, err
		}
		m.Definitions[def.ID] = &def
	}
	if err := body.EnsureConsumed(); err != nil {
		return nil, fmt.Errorf("game event list: %w", err)
	}
	return m, nil
}

// Write 按 ID 升序写出定义
func (m *GameEventListMessage) Write(w *bitstream.Writer) error {
	ids := make([]gameevent.ID, 0, len(m.Definitions))
	for id := range m.Definitions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := w.WriteUint(uint32(len(ids)), eventCountBits); err != nil {
		return err
	}
	return w.ReserveBitLength(eventListLengthBits, func(w *bitstream.Writer) error {
		for _, id := range ids {
			if err := m.Definitions[id].Write(w); err != nil {
				return err
			}
		}
		return nil
	})
}
