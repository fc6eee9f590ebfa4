package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
)

const (
	defaultMaxConns    = 20
	defaultMinConns    = 2
	defaultMaxLifetime = time.Hour
)

// NewPool 创建 pgx 连接池并探活
func NewPool(ctx context.Context, dbCfg cfgpkg.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(dbCfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return pool, nil
}

func poolConfig(dbCfg cfgpkg.DatabaseConfig, logger *zap.Logger) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dbCfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	// 添加 SQL 日志追踪器
	if logger != nil {
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   &pgxZapLogger{logger: logger},
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	cfg.MaxConns = defaultMaxConns
	if dbCfg.MaxOpenConns > 0 {
		cfg.MaxConns = int32(dbCfg.MaxOpenConns)
	}
	cfg.MinConns = defaultMinConns
	if dbCfg.MaxIdleConns > 0 {
		cfg.MinConns = int32(dbCfg.MaxIdleConns)
	}
	cfg.MaxConnLifetime = defaultMaxLifetime
	if dbCfg.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = dbCfg.ConnMaxLifetime
	}
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute
	return cfg, nil
}

// pgxZapLogger 将 pgx 追踪日志写入 zap
type pgxZapLogger struct {
	logger *zap.Logger
}

func (l *pgxZapLogger) Log(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}

	switch level {
	case tracelog.LogLevelTrace, tracelog.LogLevelDebug:
		l.logger.Debug(msg, fields...)
	case tracelog.LogLevelInfo:
		l.logger.Info(msg, fields...)
	case tracelog.LogLevelWarn:
		l.logger.Warn(msg, fields...)
	case tracelog.LogLevelError:
		l.logger.Error(msg, fields...)
	default:
		l.logger.Info(msg, fields...)
	}
}
