package parser

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo/gameevent"
	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
	"github.com/taoyao-code/demo-analyzer/internal/demo/packet"
	"github.com/taoyao-code/demo-analyzer/internal/demo/sendprop"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
)

// EntityID 实体编号
type EntityID uint32

// DemoMeta 来自 ServerInfo 的录像元数据
type DemoMeta struct {
	Version         uint16  `json:"version" yaml:"version"`
	Game            string  `json:"game" yaml:"game"`
	IntervalPerTick float32 `json:"intervalPerTick" yaml:"intervalPerTick"`
}

// StaticBaseline 类的静态基线，原始位段在首次查询时解码并缓存
type StaticBaseline struct {
	ClassID packet.ClassID
	Raw     bitstream.Raw
	props   []sendprop.SendProp
	decoded bool
}

// BaselineDecoder 将基线位段按展平属性解码为属性值
type BaselineDecoder func(r *bitstream.Reader, props []sendprop.SendPropDefinition) ([]sendprop.SendProp, error)

// instanceBaselineGenerations 实体实例基线代数
const instanceBaselineGenerations = 2

// 核心簿记必须解码的消息类型
var coreTypes = map[message.Type]struct{}{
	message.TypeServerInfo:        {},
	message.TypeGameEventList:     {},
	message.TypeCreateStringTable: {},
	message.TypeUpdateStringTable: {},
}

// ParserState 解析过程中累积的共享状态，单次解析独占
type ParserState struct {
	StaticBaselines   map[packet.ClassID]*StaticBaseline
	InstanceBaselines [instanceBaselineGenerations]map[EntityID][]sendprop.SendProp
	EventDefinitions  map[gameevent.ID]*gameevent.Definition
	StringTables      []stringtable.Meta
	SendTables        map[packet.SendTableName]*packet.SendTable
	ServerClasses     []packet.ServerClass
	EntityClasses     map[EntityID]packet.ClassID
	Meta              DemoMeta

	handles  func(message.Type) bool
	parseAll bool
}

// NewParserState 创建状态；handles 为附加消费者的兴趣声明，可为 nil
func NewParserState(handles func(message.Type) bool, parseAll bool) *ParserState {
	s := &ParserState{
		StaticBaselines:  make(map[packet.ClassID]*StaticBaseline),
		EventDefinitions: make(map[gameevent.ID]*gameevent.Definition),
		SendTables:       make(map[packet.SendTableName]*packet.SendTable),
		EntityClasses:    make(map[EntityID]packet.ClassID),
		handles:          handles,
		parseAll:         parseAll,
	}
	for i := range s.InstanceBaselines {
		s.InstanceBaselines[i] = make(map[EntityID][]sendprop.SendProp)
	}
	return s
}

// ShouldParseMessage 核心需要、消费者关心或全量解析时返回 true
func (s *ParserState) ShouldParseMessage(t message.Type) bool {
	if s.parseAll || s.DoesHandle(t) {
		return true
	}
	return s.handles != nil && s.handles(t)
}

// EventDefinition 查询游戏事件定义
func (s *ParserState) EventDefinition(id gameevent.ID) (*gameevent.Definition, bool) {
	def, ok := s.EventDefinitions[id]
	return def, ok
}

// ReplaceDataTables 以新一代数据表整体替换旧的发送表与服务端类
func (s *ParserState) ReplaceDataTables(tables []packet.ParseSendTable, classes []packet.ServerClass) error {
	set := packet.NewTableSet(tables)
	sendTables := make(map[packet.SendTableName]*packet.SendTable, len(tables))
	for i := range tables {
		table := &tables[i]
		flat, err := table.FlattenProps(set)
		if err != nil {
			return fmt.Errorf("flatten %s: %w", table.Name, err)
		}
		sendTables[table.Name] = &packet.SendTable{
			Name:           table.Name,
			NeedsDecoder:   table.NeedsDecoder,
			RawProps:       table.Props,
			FlattenedProps: flat,
		}
	}
	s.SendTables = sendTables
	s.ServerClasses = classes
	// 类定义变化后已缓存的基线解码结果失效
	for _, baseline := range s.StaticBaselines {
		baseline.props, baseline.decoded = nil, false
	}
	return nil
}

// AddStringTableMeta 追加字符串表元数据，返回其表编号
func (s *ParserState) AddStringTableMeta(meta stringtable.Meta) int {
	s.StringTables = append(s.StringTables, meta)
	return len(s.StringTables) - 1
}

// StringTableMeta 按编号查询字符串表元数据
func (s *ParserState) StringTableMeta(id int) (*stringtable.Meta, error) {
	if id < 0 || id >= len(s.StringTables) {
		return nil, &stringtable.UnknownTableError{ID: id}
	}
	return &s.StringTables[id], nil
}

// ServerClass 按类编号查询服务端类
func (s *ParserState) ServerClass(id packet.ClassID) (*packet.ServerClass, bool) {
	for i := range s.ServerClasses {
		if s.ServerClasses[i].ID == id {
			return &s.ServerClasses[i], true
		}
	}
	return nil, false
}

// SetStaticBaseline 插入或更新类的静态基线
func (s *ParserState) SetStaticBaseline(class packet.ClassID, raw bitstream.Raw) {
	s.StaticBaselines[class] = &StaticBaseline{ClassID: class, Raw: raw}
}

// StaticBaseline 返回类的基线属性，首次调用时用 decode 解码
func (s *ParserState) StaticBaseline(class packet.ClassID, decode BaselineDecoder) ([]sendprop.SendProp, error) {
	baseline, ok := s.StaticBaselines[class]
	if !ok {
		return nil, &NoBaselineError{Class: class}
	}
	if baseline.decoded {
		return baseline.props, nil
	}
	serverClass, ok := s.ServerClass(class)
	if !ok {
		return nil, &UnknownClassError{Class: class}
	}
	table, ok := s.SendTables[serverClass.DataTable]
	if !ok {
		return nil, &UnknownSendTableError{Name: serverClass.DataTable}
	}
	props, err := decode(baseline.Raw.Reader(), table.FlattenedProps)
	if err != nil {
		return nil, fmt.Errorf("baseline %d: %w", class, err)
	}
	baseline.props, baseline.decoded = props, true
	return props, nil
}

// SetInstanceBaseline 写入指定代的实体实例基线，代号按 2 取模
func (s *ParserState) SetInstanceBaseline(generation uint, entity EntityID, props []sendprop.SendProp) {
	s.InstanceBaselines[generation%instanceBaselineGenerations][entity] = props
}

// InstanceBaseline 读取指定代的实体实例基线
func (s *ParserState) InstanceBaseline(generation uint, entity EntityID) ([]sendprop.SendProp, bool) {
	props, ok := s.InstanceBaselines[generation%instanceBaselineGenerations][entity]
	return props, ok
}

// DoesHandle 核心簿记关心的消息类型
func (s *ParserState) DoesHandle(t message.Type) bool {
	_, ok := coreTypes[t]
	return ok
}

// HandleMessage 更新元数据与事件定义
func (s *ParserState) HandleMessage(msg message.Message, _ uint32) {
	switch m := msg.(type) {
	case *message.ServerInfoMessage:
		s.Meta = DemoMeta{
			Version:         m.Version,
			Game:            m.Game,
			IntervalPerTick: m.IntervalPerTick,
		}
	case *message.GameEventListMessage:
		for id, def := range m.Definitions {
			s.EventDefinitions[id] = def
		}
	}
}

// HandleStringEntry 从 instancebaseline 表登记静态基线
func (s *ParserState) HandleStringEntry(table string, _ int, entry *stringtable.Entry) {
	if table != "instancebaseline" || entry.Extra == nil {
		return
	}
	class, err := strconv.ParseUint(entry.TextOrEmpty(), 10, 16)
	if err != nil {
		return
	}
	s.SetStaticBaseline(packet.ClassID(class), entry.Extra.Data)
}

// Output 状态本身即输出
func (s *ParserState) Output(*ParserState) *ParserState {
	return s
}

// StateSummary 解析结束时状态的概要
type StateSummary struct {
	Meta             DemoMeta             `json:"meta" yaml:"meta"`
	ServerClasses    []packet.ServerClass `json:"serverClasses" yaml:"serverClasses"`
	SendTables       map[string]int       `json:"sendTables" yaml:"sendTables"`
	StringTables     []string             `json:"stringTables" yaml:"stringTables"`
	EventDefinitions []string             `json:"eventDefinitions" yaml:"eventDefinitions"`
	StaticBaselines  int                  `json:"staticBaselines" yaml:"staticBaselines"`
}

// Summary 数据表按扁平化后的属性数计数，事件定义按名字排序
func (s *ParserState) Summary() StateSummary {
	sum := StateSummary{
		Meta:             s.Meta,
		ServerClasses:    s.ServerClasses,
		SendTables:       make(map[string]int, len(s.SendTables)),
		StringTables:     make([]string, 0, len(s.StringTables)),
		EventDefinitions: make([]string, 0, len(s.EventDefinitions)),
		StaticBaselines:  len(s.StaticBaselines),
	}
	for name, table := range s.SendTables {
		sum.SendTables[string(name)] = len(table.FlattenedProps)
	}
	for _, meta := range s.StringTables {
		sum.StringTables = append(sum.StringTables, meta.Name)
	}
	for _, def := range s.EventDefinitions {
		sum.EventDefinitions = append(sum.EventDefinitions, def.Name)
	}
	slices.Sort(sum.EventDefinitions)
	return sum
}
