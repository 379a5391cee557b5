package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/database"
)

// 健康状态
const (
	StatusOK       = "OK"
	StatusDegraded = "DEGRADED"
)

// Response 是 GET /api/health 的响应体。LastCheck 是最近一次后台检查的时间，尚未检查过时省略。
type Response struct {
	Status      string     `json:"status"`
	Timestamp   time.Time  `json:"timestamp"`
	Environment string     `json:"environment"`
	Database    string     `json:"database"`
	Redis       string     `json:"redis"`
	LastCheck   *time.Time `json:"lastCheck,omitempty"`
}

// Handler 返回最近一次检查的结果。数据库不可用时仍返回200，状态为DEGRADED。
func Handler(status *database.Status, environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := status.Snapshot()

		resp := Response{
			Status:      StatusOK,
			Timestamp:   time.Now().UTC(),
			Environment: environment,
			Database:    "up",
			Redis:       "disabled",
		}
		if !snap.LastCheckedAt.IsZero() {
			at := snap.LastCheckedAt.UTC()
			resp.LastCheck = &at
		}
		if !snap.DBHealthy {
			resp.Status = StatusDegraded
			resp.Database = "down"
		}
		if snap.RedisEnabled {
			resp.Redis = "up"
			if !snap.RedisHealthy {
				resp.Redis = "down"
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}
