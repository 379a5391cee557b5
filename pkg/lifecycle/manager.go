package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Manager 向后台服务分发Handle，并在停机时广播信号、等待它们退出。
type Manager struct {
	wg       sync.WaitGroup
	mu       sync.Mutex
	services map[string]struct{}
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager 创建一个生命周期管理器
func NewManager(log *zap.Logger) *Manager {
	m := &Manager{
		services: make(map[string]struct{}),
		log:      log.Named("lifecycle"),
	}
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// NewServiceHandle 注册一个服务并返回它的句柄。同名服务不能重复注册。
func (m *Manager) NewServiceHandle(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.services[name]; exists {
		return nil, fmt.Errorf("生命周期管理器: 服务 '%s' 已被注册", name)
	}
	if m.ctx.Err() != nil {
		return nil, fmt.Errorf("生命周期管理器: 已停机，拒绝注册服务 '%s'", name)
	}
	m.services[name] = struct{}{}
	m.wg.Add(1)
	m.log.Debug("服务已注册", zap.String("service", name))

	return &Handle{
		name: name,
		ctx:  m.ctx,
		close: func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if _, exists := m.services[name]; !exists {
				return
			}
			delete(m.services, name)
			m.wg.Done()
		},
	}, nil
}

// Shutdown 广播停机信号
func (m *Manager) Shutdown() {
	m.log.Info("广播停机信号")
	m.cancel()
}

// WaitWithTimeout 等待所有服务退出。超时时返回仍未退出的服务名（已排序）。
func (m *Manager) WaitWithTimeout(timeout time.Duration) []string {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		m.mu.Lock()
		defer m.mu.Unlock()
		remaining := make([]string, 0, len(m.services))
		for name := range m.services {
			remaining = append(remaining, name)
		}
		sort.Strings(remaining)
		return remaining
	}
}
