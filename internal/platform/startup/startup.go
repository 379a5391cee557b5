package startup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/database"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/health"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const bootstrapTimeout = 30 * time.Second

// ErrDatabaseUnhealthy 表示初始化后首次健康检查时数据库不可用
var ErrDatabaseUnhealthy = errors.New("数据库在初始化后不可用")

// InitializeApplication 是进程启动时执行的总入口：
// 执行启动SQL脚本，然后阻塞式地做一次健康检查，让 /api/health 从第一个请求起就有结果。
func InitializeApplication(ctx context.Context, db *gorm.DB, scriptPath string, checker *health.Checker, status *database.Status, log *zap.Logger) error {
	log = log.Named("startup")
	log.Info("开始应用初始化", zap.String("script", scriptPath))

	bootCtx, cancel := context.WithTimeout(ctx, bootstrapTimeout)
	defer cancel()
	if err := database.RunBootstrapScript(bootCtx, db, scriptPath); err != nil {
		return err
	}
	log.Info("启动SQL脚本执行完成")

	checker.PerformCheck(ctx)
	snap := status.Snapshot()
	if !snap.DBHealthy {
		return fmt.Errorf("%w: %s", ErrDatabaseUnhealthy, snap.LastDBError)
	}
	if snap.RedisEnabled && !snap.RedisHealthy {
		// Redis只影响限流，降级为不可用状态继续启动
		log.Warn("Redis不可用，限流器将放行所有请求直到恢复")
	}

	log.Info("应用初始化完成")
	return nil
}
