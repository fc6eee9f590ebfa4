package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/demo-analyzer/internal/demo"
	"github.com/taoyao-code/demo-analyzer/internal/metrics"
	"github.com/taoyao-code/demo-analyzer/internal/parser"
	"github.com/taoyao-code/demo-analyzer/internal/storage/gormrepo"
	"github.com/taoyao-code/demo-analyzer/internal/storage/models"
)

// ErrNotFound 缓存与归档中都没有该摘要
var ErrNotFound = errors.New("report not found")

// Cache 分析报告缓存
type Cache interface {
	Get(ctx context.Context, digest string, v any) (bool, error)
	Set(ctx context.Context, digest string, v any) error
}

// Archive 比赛归档
type Archive interface {
	SaveMatch(ctx context.Context, m *models.Match) error
	GetByDigest(ctx context.Context, digest string) (*models.Match, error)
	ListRecent(ctx context.Context, mapName string, limit, offset int) ([]models.Match, error)
}

// Report 一次分析的结果
type Report struct {
	ID     uuid.UUID         `json:"id" yaml:"id"`
	Digest string            `json:"digest" yaml:"digest"`
	Header demo.Header       `json:"header" yaml:"header"`
	Match  parser.MatchState `json:"match" yaml:"match"`
	Cached bool              `json:"cached" yaml:"cached"`
}

// Summary 归档列表中的一条比赛
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Digest    string    `json:"digest"`
	Map       string    `json:"map"`
	Server    string    `json:"server"`
	Duration  float32   `json:"duration"`
	Players   int32     `json:"players"`
	Rounds    int32     `json:"rounds"`
	Deaths    int32     `json:"deaths"`
	CreatedAt time.Time `json:"created_at"`
}

// Options 分析选项
type Options struct {
	ParseAll      bool
	MaxDemoBytes  int64
	MaxConcurrent int
	// 缓存、归档连续失败 BreakerThreshold 次后跳过 BreakerCooldown
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Stats 分析服务运行统计
type Stats struct {
	Parser  LimiterStats `json:"parser"`
	Cache   BreakerStats `json:"cache"`
	Archive BreakerStats `json:"archive"`
}

// Analyzer 解析录像并缓存、归档结果
type Analyzer struct {
	opts           Options
	limiter        *Limiter
	cache          Cache
	archive        Archive
	cacheBreaker   *Breaker
	archiveBreaker *Breaker
	log            *zap.Logger
	metrics        *metrics.AppMetrics
}

// NewAnalyzer 创建分析服务；cache、archive 可为 nil
func NewAnalyzer(opts Options, cache Cache, archive Archive, log *zap.Logger, m *metrics.AppMetrics) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Analyzer{
		opts:           opts,
		limiter:        NewLimiter(opts.MaxConcurrent),
		cache:          cache,
		archive:        archive,
		cacheBreaker:   NewBreaker(opts.BreakerThreshold, opts.BreakerCooldown),
		archiveBreaker: NewBreaker(opts.BreakerThreshold, opts.BreakerCooldown),
		log:            log,
		metrics:        m,
	}
	a.cacheBreaker.OnStateChange(a.logBreaker("cache"))
	a.archiveBreaker.OnStateChange(a.logBreaker("archive"))
	return a
}

func (a *Analyzer) logBreaker(name string) func(from, to BreakerState) {
	return func(from, to BreakerState) {
		a.log.Warn("dependency breaker state changed",
			zap.String("dependency", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
	}
}

// Digest 解压后录像内容的 sha256
func Digest(plain []byte) string {
	sum := sha256.Sum256(plain)
	return hex.EncodeToString(sum[:])
}

// Analyze 解析一段录像（可为 zstd 压缩），相同内容优先返回缓存
func (a *Analyzer) Analyze(ctx context.Context, data []byte) (*Report, error) {
	plain, err := demo.Decompress(data, a.opts.MaxDemoBytes)
	if err != nil {
		return nil, err
	}
	digest := Digest(plain)
	log := a.log.With(zap.String("digest", digest))

	if cached, ok := a.cached(ctx, digest, log); ok {
		return cached, nil
	}

	if err := a.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.AnalysisInFlight.Inc()
		defer a.metrics.AnalysisInFlight.Dec()
	}
	header, match, err := a.parse(plain, log)
	a.limiter.Release()
	if err != nil {
		return nil, err
	}

	report := &Report{ID: uuid.New(), Digest: digest, Header: header, Match: match}
	if a.cache != nil {
		err := a.cacheBreaker.Call(func() error { return a.cache.Set(ctx, digest, report) })
		if err != nil && !errors.Is(err, ErrBreakerOpen) {
			log.Warn("cache store failed", zap.Error(err))
		}
	}
	if a.archive != nil {
		m, err := toModel(report)
		if err == nil {
			err = a.archiveBreaker.Call(func() error { return a.archive.SaveMatch(ctx, m) })
		}
		if err != nil && !errors.Is(err, ErrBreakerOpen) {
			log.Warn("archive store failed", zap.Error(err))
		}
	}
	return report, nil
}

// cached 查询缓存；缓存不可用视为未命中
func (a *Analyzer) cached(ctx context.Context, digest string, log *zap.Logger) (*Report, bool) {
	if a.cache == nil {
		return nil, false
	}
	var (
		cached Report
		hit    bool
	)
	err := a.cacheBreaker.Call(func() error {
		var err error
		hit, err = a.cache.Get(ctx, digest, &cached)
		return err
	})
	if err != nil && !errors.Is(err, ErrBreakerOpen) {
		log.Warn("cache lookup failed", zap.Error(err))
	}
	a.metrics.ObserveCache(hit)
	if !hit {
		return nil, false
	}
	cached.Cached = true
	return &cached, true
}

func (a *Analyzer) parse(plain []byte, log *zap.Logger) (demo.Header, parser.MatchState, error) {
	start := time.Now()
	header, match, err := parser.NewDemoParser[parser.MatchState](plain, parser.NewAnalyser(),
		parser.WithLogger(log),
		parser.WithMetrics(a.metrics),
		parser.WithParseAll(a.opts.ParseAll),
	).Parse()
	if err != nil {
		return header, match, fmt.Errorf("parse demo: %w", err)
	}
	log.Info("demo analysed",
		zap.String("map", header.Map),
		zap.Int("users", len(match.Users)),
		zap.Int("deaths", len(match.Deaths)),
		zap.Duration("elapsed", time.Since(start)))
	return header, match, nil
}

// Lookup 按摘要查询报告：先查缓存，再查归档
func (a *Analyzer) Lookup(ctx context.Context, digest string) (*Report, error) {
	if cached, ok := a.cached(ctx, digest, a.log.With(zap.String("digest", digest))); ok {
		return cached, nil
	}
	if a.archive == nil {
		return nil, ErrNotFound
	}
	m, err := a.archive.GetByDigest(ctx, digest)
	if errors.Is(err, gormrepo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromModel(m)
}

// Recent 最近归档的比赛，mapName 为空时不过滤
func (a *Analyzer) Recent(ctx context.Context, mapName string, limit, offset int) ([]Summary, error) {
	if a.archive == nil {
		return []Summary{}, nil
	}
	list, err := a.archive.ListRecent(ctx, mapName, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(list))
	for _, m := range list {
		out = append(out, Summary{
			ID:        m.ID,
			Digest:    m.Digest,
			Map:       m.Map,
			Server:    m.Server,
			Duration:  m.Duration,
			Players:   m.Players,
			Rounds:    m.Rounds,
			Deaths:    m.Deaths,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

// Stats 并发解析与依赖熔断统计
func (a *Analyzer) Stats() Stats {
	return Stats{
		Parser:  a.limiter.Stats(),
		Cache:   a.cacheBreaker.Stats(),
		Archive: a.archiveBreaker.Stats(),
	}
}

func toModel(r *Report) (*models.Match, error) {
	header, err := json.Marshal(r.Header)
	if err != nil {
		return nil, err
	}
	summary, err := json.Marshal(r.Match)
	if err != nil {
		return nil, err
	}
	return &models.Match{
		ID:       r.ID,
		Digest:   r.Digest,
		Map:      r.Header.Map,
		Server:   r.Header.Server,
		Nick:     r.Header.Nick,
		Game:     r.Header.Game,
		Duration: r.Header.Duration,
		Ticks:    int32(r.Header.Ticks),
		Players:  int32(len(r.Match.Users)),
		Rounds:   int32(len(r.Match.Rounds)),
		Deaths:   int32(len(r.Match.Deaths)),
		Header:   header,
		Summary:  summary,
	}, nil
}

func fromModel(m *models.Match) (*Report, error) {
	r := &Report{ID: m.ID, Digest: m.Digest}
	if err := json.Unmarshal(m.Header, &r.Header); err != nil {
		return nil, fmt.Errorf("decode archived header: %w", err)
	}
	if err := json.Unmarshal(m.Summary, &r.Match); err != nil {
		return nil, fmt.Errorf("decode archived summary: %w", err)
	}
	return r, nil
}
