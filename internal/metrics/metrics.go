package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// WriteTextfile 将当前指标写入 node_exporter textfile 格式文件
func WriteTextfile(reg *prometheus.Registry, path string) error {
	return prometheus.WriteToTextfile(path, reg)
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	DemoBytes        prometheus.Counter
	PacketTotal      *prometheus.CounterVec // labels: type
	MessageTotal     *prometheus.CounterVec // labels: type
	MessageSkipped   prometheus.Counter     // 未被任何消费者关心而跳过的消息
	ParseTotal       *prometheus.CounterVec // labels: result=ok|unsupported|error
	ParseDuration    prometheus.Histogram
	CacheTotal       *prometheus.CounterVec // labels: result=hit|miss
	AnalysisInFlight prometheus.Gauge
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		DemoBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demo_bytes_total",
			Help: "Total demo bytes handed to the parser.",
		}),
		PacketTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demo_packet_total",
			Help: "Decoded demo packets by type.",
		}, []string{"type"}),
		MessageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demo_message_total",
			Help: "Decoded network messages by type.",
		}, []string{"type"}),
		MessageSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demo_message_skipped_total",
			Help: "Network messages skipped without decoding.",
		}),
		ParseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demo_parse_total",
			Help: "Demo parse attempts.",
		}, []string{"result"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "demo_parse_duration_seconds",
			Help:    "Wall time spent parsing one demo.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		CacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "demo_cache_total",
			Help: "Analysis cache lookups.",
		}, []string{"result"}),
		AnalysisInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "demo_analysis_in_flight",
			Help: "Analyses currently running.",
		}),
	}
	reg.MustRegister(m.DemoBytes, m.PacketTotal, m.MessageTotal, m.MessageSkipped, m.ParseTotal, m.ParseDuration, m.CacheTotal, m.AnalysisInFlight)
	return m
}

// ObservePacket 记录一个数据包，m 为 nil 时忽略
func (m *AppMetrics) ObservePacket(kind string) {
	if m == nil {
		return
	}
	m.PacketTotal.WithLabelValues(kind).Inc()
}

// ObserveMessage 记录一条已解码消息
func (m *AppMetrics) ObserveMessage(kind string) {
	if m == nil {
		return
	}
	m.MessageTotal.WithLabelValues(kind).Inc()
}

// ObserveSkipped 记录跳过的消息数
func (m *AppMetrics) ObserveSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MessageSkipped.Add(float64(n))
}

// ObserveParse 记录一次完整解析的结果与耗时
func (m *AppMetrics) ObserveParse(result string, size int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DemoBytes.Add(float64(size))
	m.ParseTotal.WithLabelValues(result).Inc()
	m.ParseDuration.Observe(elapsed.Seconds())
}

// ObserveCache 记录缓存命中情况
func (m *AppMetrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheTotal.WithLabelValues("hit").Inc()
		return
	}
	m.CacheTotal.WithLabelValues("miss").Inc()
}
