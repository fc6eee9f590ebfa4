package parser

import (
	"go.uber.org/zap"

	"github.com/taoyao-code/demo-analyzer/internal/demo/message"
	"github.com/taoyao-code/demo-analyzer/internal/demo/packet"
	"github.com/taoyao-code/demo-analyzer/internal/demo/stringtable"
	"github.com/taoyao-code/demo-analyzer/internal/metrics"
)

// MessageHandler 消息消费者
type MessageHandler interface {
	// DoesHandle 声明关心的消息类型，未声明的类型可能被跳过不解码
	DoesHandle(t message.Type) bool
	HandleMessage(msg message.Message, tick uint32)
	HandleStringEntry(table string, index int, entry *stringtable.Entry)
}

// OutputHandler 在流结束时产出结果的消费者
type OutputHandler[T any] interface {
	MessageHandler
	Output(state *ParserState) T
}

// Option 解析选项
type Option func(*options)

type options struct {
	logger   *zap.Logger
	metrics  *metrics.AppMetrics
	parseAll bool
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.AppMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithParseAll 解码全部消息而不是只解码被关心的类型
func WithParseAll(all bool) Option {
	return func(o *options) { o.parseAll = all }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// DemoHandler 将数据包分发给解析状态与附加消费者
type DemoHandler[T any] struct {
	state   *ParserState
	handler OutputHandler[T]
	// handler 即 state 时不重复分发
	self bool

	log     *zap.Logger
	metrics *metrics.AppMetrics
	tick    uint32
}

// NewDemoHandler 以消费者创建分发器
func NewDemoHandler[T any](handler OutputHandler[T], opts ...Option) *DemoHandler[T] {
	o := buildOptions(opts)
	return &DemoHandler[T]{
		state:   NewParserState(handler.DoesHandle, o.parseAll),
		handler: handler,
		log:     o.logger,
		metrics: o.metrics,
	}
}

// NewStateHandler 仅做核心簿记、输出解析状态本身的分发器
func NewStateHandler(opts ...Option) *DemoHandler[*ParserState] {
	o := buildOptions(opts)
	state := NewParserState(nil, o.parseAll)
	return &DemoHandler[*ParserState]{
		state:   state,
		handler: state,
		self:    true,
		log:     o.logger,
		metrics: o.metrics,
	}
}

// State 当前解析状态
func (h *DemoHandler[T]) State() *ParserState { return h.state }

// Tick 最近处理的数据包时刻
func (h *DemoHandler[T]) Tick() uint32 { return h.tick }

// HandlePacket 处理一个完整解码的数据包
func (h *DemoHandler[T]) HandlePacket(p packet.Packet) error {
	h.metrics.ObservePacket(p.Type().String())

	switch pkt := p.(type) {
	case *packet.DataTablePacket:
		h.tick = pkt.Tick
		if err := h.state.ReplaceDataTables(pkt.Tables, pkt.ServerClasses); err != nil {
			return err
		}
		h.log.Debug("data tables replaced",
			zap.Uint32("tick", pkt.Tick),
			zap.Int("tables", len(pkt.Tables)),
			zap.Int("classes", len(pkt.ServerClasses)))
	case *packet.StringTablesPacket:
		h.tick = pkt.Tick
		for i := range pkt.Tables {
			table := &pkt.Tables[i]
			for j := range table.Entries {
				h.handleStringEntry(table.Name, table.Entries[j].Index, &table.Entries[j].Entry)
			}
		}
	case *packet.MessagePacket:
		h.tick = pkt.Tick
		h.metrics.ObserveSkipped(pkt.Skipped)
		for _, msg := range pkt.Messages {
			if _, raw := msg.(*message.RawMessage); raw {
				continue
			}
			if err := h.handleMessage(msg, pkt.Tick); err != nil {
				return err
			}
		}
	case *packet.StopPacket:
		h.tick = pkt.Tick
	}
	return nil
}

func (h *DemoHandler[T]) handleMessage(msg message.Message, tick uint32) error {
	t := msg.Type()
	h.metrics.ObserveMessage(t.String())

	// 字符串表条目先整体解码，失败时不向消费者暴露部分结果
	switch m := msg.(type) {
	case *message.CreateStringTableMessage:
		meta := m.Meta()
		entries, err := m.Entries()
		if err != nil {
			return err
		}
		h.state.AddStringTableMeta(meta)
		for i := range entries {
			h.handleStringEntry(meta.Name, entries[i].Index, &entries[i].Entry)
		}
	case *message.UpdateStringTableMessage:
		meta, err := h.state.StringTableMeta(int(m.TableID))
		if err != nil {
			return err
		}
		entries, err := m.Entries(meta)
		if err != nil {
			return err
		}
		for i := range entries {
			h.handleStringEntry(meta.Name, entries[i].Index, &entries[i].Entry)
		}
	}

	if h.state.DoesHandle(t) {
		h.state.HandleMessage(msg, tick)
	}
	if !h.self && h.handler.DoesHandle(t) {
		h.handler.HandleMessage(msg, tick)
	}
	return nil
}

func (h *DemoHandler[T]) handleStringEntry(table string, index int, entry *stringtable.Entry) {
	h.state.HandleStringEntry(table, index, entry)
	if !h.self {
		h.handler.HandleStringEntry(table, index, entry)
	}
}

// Output 流结束时产出结果
func (h *DemoHandler[T]) Output() T {
	return h.handler.Output(h.state)
}
