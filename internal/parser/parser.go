package parser

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/demo-analyzer/internal/bitstream"
	"github.com/taoyao-code/demo-analyzer/internal/demo"
	"github.com/taoyao-code/demo-analyzer/internal/demo/packet"
	"github.com/taoyao-code/demo-analyzer/internal/metrics"
)

// DemoParser 顺序读取整段录像并驱动分发器
type DemoParser[T any] struct {
	data    []byte
	handler *DemoHandler[T]
	log     *zap.Logger
	metrics *metrics.AppMetrics
}

// NewDemoParser 以消费者创建解析器
func NewDemoParser[T any](data []byte, handler OutputHandler[T], opts ...Option) *DemoParser[T] {
	o := buildOptions(opts)
	return &DemoParser[T]{
		data:    data,
		handler: NewDemoHandler(handler, opts...),
		log:     o.logger,
		metrics: o.metrics,
	}
}

// NewStateParser 仅做核心簿记的解析器
func NewStateParser(data []byte, opts ...Option) *DemoParser[*ParserState] {
	o := buildOptions(opts)
	return &DemoParser[*ParserState]{
		data:    data,
		handler: NewStateHandler(opts...),
		log:     o.logger,
		metrics: o.metrics,
	}
}

// Parse 读取文件头与全部数据包直到 Stop，返回消费者输出
func (p *DemoParser[T]) Parse() (demo.Header, T, error) {
	var zero T
	start := time.Now()

	header, packets, err := p.run()
	elapsed := time.Since(start)
	if err != nil {
		result := "error"
		if IsUnsupported(err) {
			result = "unsupported"
		}
		p.metrics.ObserveParse(result, len(p.data), elapsed)
		p.log.Warn("demo parse failed",
			zap.Int("packets", packets),
			zap.Uint32("tick", p.handler.Tick()),
			zap.Error(err))
		return header, zero, err
	}

	p.metrics.ObserveParse("ok", len(p.data), elapsed)
	p.log.Info("demo parsed",
		zap.String("map", header.Map),
		zap.Int("packets", packets),
		zap.Uint32("last_tick", p.handler.Tick()),
		zap.Duration("elapsed", elapsed))
	return header, p.handler.Output(), nil
}

func (p *DemoParser[T]) run() (demo.Header, int, error) {
	r := bitstream.NewReader(p.data)
	header, err := demo.ReadHeader(r)
	if err != nil {
		return header, 0, fmt.Errorf("read header: %w", err)
	}

	state := p.handler.State()
	packets := 0
	for {
		if r.BitsLeft() < 8 {
			return header, packets, ErrMissingStop
		}
		pos := r.Pos()
		pkt, err := packet.Read(r, state)
		if err != nil {
			return header, packets, fmt.Errorf("packet %d at bit %d: %w", packets, pos, err)
		}
		packets++
		if err := p.handler.HandlePacket(pkt); err != nil {
			return header, packets, fmt.Errorf("handle %s packet at tick %d: %w", pkt.Type(), p.handler.Tick(), err)
		}
		if pkt.Type() == packet.TypeStop {
			return header, packets, nil
		}
	}
}
