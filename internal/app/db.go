package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
	"github.com/taoyao-code/demo-analyzer/internal/health"
	"github.com/taoyao-code/demo-analyzer/internal/storage/gormrepo"
	pgstorage "github.com/taoyao-code/demo-analyzer/internal/storage/pg"
)

// ConnectArchive 建立归档库连接并按需迁移；未启用时返回 nil
func ConnectArchive(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, *gormrepo.Repository, error) {
	if !cfg.Enabled {
		log.Info("database is disabled, matches will not be archived")
		return nil, nil, nil
	}

	dbpool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, nil, err
	}
	db, err := gormrepo.Open(dbpool)
	if err != nil {
		dbpool.Close()
		return nil, nil, err
	}
	repo := gormrepo.New(db)
	if cfg.AutoMigrate {
		if err = repo.Migrate(ctx); err != nil {
			log.Error("db migrate error", zap.Error(err))
			dbpool.Close()
			return nil, nil, err
		}
		log.Info("db migrations applied")
	}
	return dbpool, repo, nil
}

// AddArchiveChecker 添加归档检查器到聚合器
func AddArchiveChecker(aggregator *health.Aggregator, dbpool *pgxpool.Pool, repo *gormrepo.Repository) {
	if dbpool == nil || repo == nil {
		return
	}
	aggregator.AddChecker(health.NewArchiveChecker(repo, func() (int32, int32) {
		st := dbpool.Stat()
		return st.AcquiredConns(), st.MaxConns()
	}))
}
