package health

import (
	"context"
	"time"

	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/database"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	checkInterval = 15 * time.Second
	pingTimeout   = 2 * time.Second
)

// Checker 在后台定期探测数据库和Redis，并把结果写入 database.Status
type Checker struct {
	db       *gorm.DB
	rdb      *redis.Client
	status   *database.Status
	log      *zap.Logger
	interval time.Duration
}

// NewChecker 创建检查器；rdb为nil表示未启用Redis
func NewChecker(db *gorm.DB, rdb *redis.Client, status *database.Status, log *zap.Logger) *Checker {
	return &Checker{
		db:       db,
		rdb:      rdb,
		status:   status,
		log:      log.Named("health"),
		interval: checkInterval,
	}
}

// PerformCheck 执行一次检查
func (c *Checker) PerformCheck(ctx context.Context) {
	dbErr := c.ping(ctx, func(ctx context.Context) error { return database.Ping(ctx, c.db) })

	var redisErr error
	if c.rdb != nil {
		redisErr = c.ping(ctx, func(ctx context.Context) error { return c.rdb.Ping(ctx).Err() })
	}

	dbChanged, redisChanged := c.status.Update(dbErr, redisErr, time.Now())
	if dbChanged {
		if dbErr != nil {
			c.log.Error("PostgreSQL连接丢失", zap.Error(dbErr))
		} else {
			c.log.Info("PostgreSQL连接已恢复")
		}
	}
	if redisChanged {
		if redisErr != nil {
			c.log.Warn("Redis连接丢失", zap.Error(redisErr))
		} else {
			c.log.Info("Redis连接已恢复")
		}
	}
}

func (c *Checker) ping(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return fn(ctx)
}

// Run 阻塞式地循环检查，直到句柄收到停机信号
func (c *Checker) Run(h *lifecycle.Handle) {
	defer h.Close()
	c.log.Info("健康检查器已启动", zap.String("service", h.Name()), zap.Duration("interval", c.interval))

	timer := time.NewTimer(c.interval)
	defer timer.Stop()

	for {
		select {
		case <-h.Done():
			c.log.Info("健康检查器已停止", zap.String("service", h.Name()))
			return
		case <-timer.C:
			c.PerformCheck(h.Ctx())
			timer.Reset(c.interval)
		}
	}
}
