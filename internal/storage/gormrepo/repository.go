package gormrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/taoyao-code/demo-analyzer/internal/storage/models"
)

// ErrNotFound 归档中没有该录像
var ErrNotFound = errors.New("match not found")

// Open 在 pgx 连接池之上打开 GORM；SQL 日志由连接池的 tracer 负责
func Open(pool *pgxpool.Pool) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: stdlib.OpenDBFromPool(pool)}), &gorm.Config{
		Logger: logger.Discard,
	})
}

// Repository 基于 GORM 的比赛归档
type Repository struct {
	db *gorm.DB
}

// New 返回使用给定 *gorm.DB 的归档仓库
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate 建表与索引
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&models.Match{})
}

// SaveMatch 按摘要写入归档，已存在时刷新分析结果
func (r *Repository) SaveMatch(ctx context.Context, m *models.Match) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "digest"}},
			DoUpdates: clause.AssignmentColumns([]string{"players", "rounds", "deaths", "header", "summary"}),
		}).
		Create(m).Error
}

// GetByDigest 按摘要读取归档
func (r *Repository) GetByDigest(ctx context.Context, digest string) (*models.Match, error) {
	var m models.Match
	err := r.db.WithContext(ctx).Where("digest = ?", digest).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListRecent 按创建时间倒序分页列出归档，可按地图过滤
func (r *Repository) ListRecent(ctx context.Context, mapName string, limit, offset int) ([]models.Match, error) {
	var out []models.Match
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset)
	if mapName != "" {
		q = q.Where("map = ?", mapName)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Stats 归档概况
type Stats struct {
	Matches      int64
	LastArchived time.Time
}

// Stats 统计归档条数与最近写入时间；表不存在时返回错误
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := r.db.WithContext(ctx).Model(&models.Match{}).Count(&st.Matches).Error; err != nil {
		return Stats{}, err
	}
	if st.Matches == 0 {
		return st, nil
	}
	var last models.Match
	if err := r.db.WithContext(ctx).Select("created_at").Order("created_at DESC").First(&last).Error; err != nil {
		return Stats{}, err
	}
	st.LastArchived = last.CreatedAt
	return st, nil
}
