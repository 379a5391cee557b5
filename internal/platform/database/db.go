package database

import (
	"context"
	"fmt"
	"time"

	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

// Open 创建PostgreSQL连接池。连接池是进程内唯一的共享资源，
// 由main持有并注入到每个仓库，关闭由shutdown协调器负责。
func Open(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	dialector := postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	})

	db, err := gorm.Open(dialector, NewGormConfig(log))
	if err != nil {
		return nil, fmt.Errorf("无法连接PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("无法获取底层连接池: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("PostgreSQL无响应: %w", err)
	}

	return db, nil
}

// NewGormConfig 返回项目统一的gorm配置，测试里的sqlmock连接也使用它
func NewGormConfig(log *zap.Logger) *gorm.Config {
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm").WithOptions(zap.IncreaseLevel(zapcore.WarnLevel))),
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		Logger: gormLogger,
		// 所有写操作都是单条语句或显式事务，不需要gorm的默认事务
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}
}

// Ping 检查连接池是否可用
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭连接池
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
