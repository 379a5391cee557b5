package database

import (
	"sync"
	"time"
)

// Status 线程安全地记录最近一次健康检查的结果。
// 由health检查器写入，由/api/health和Redis限流器读取。
type Status struct {
	mu             sync.RWMutex
	dbHealthy      bool
	redisHealthy   bool
	redisEnabled   bool
	lastCheckedAt  time.Time
	lastDBErrorMsg string
}

// NewStatus 创建状态记录，默认启动时是健康的
func NewStatus(redisEnabled bool) *Status {
	return &Status{
		dbHealthy:    true,
		redisHealthy: redisEnabled,
		redisEnabled: redisEnabled,
	}
}

// Update 写入一次检查结果
func (s *Status) Update(dbErr, redisErr error, at time.Time) (dbChanged, redisChanged bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dbHealthy := dbErr == nil
	dbChanged = dbHealthy != s.dbHealthy
	s.dbHealthy = dbHealthy
	if dbErr != nil {
		s.lastDBErrorMsg = dbErr.Error()
	} else {
		s.lastDBErrorMsg = ""
	}

	if s.redisEnabled {
		redisHealthy := redisErr == nil
		redisChanged = redisHealthy != s.redisHealthy
		s.redisHealthy = redisHealthy
	}
	s.lastCheckedAt = at
	return dbChanged, redisChanged
}

// Snapshot 是状态的只读副本
type Snapshot struct {
	DBHealthy     bool
	RedisEnabled  bool
	RedisHealthy  bool
	LastCheckedAt time.Time
	LastDBError   string
}

func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		DBHealthy:     s.dbHealthy,
		RedisEnabled:  s.redisEnabled,
		RedisHealthy:  s.redisHealthy,
		LastCheckedAt: s.lastCheckedAt,
		LastDBError:   s.lastDBErrorMsg,
	}
}

// IsRedisHealthy 返回Redis当前是否可用；未启用Redis时返回false
func (s *Status) IsRedisHealthy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.redisEnabled && s.redisHealthy
}
