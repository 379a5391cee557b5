package shutdown

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mundo-dos-mangues/mangues-backend/pkg/lifecycle"
	"go.uber.org/zap"
)

const (
	httpTimeout       = 15 * time.Second
	backgroundTimeout = 10 * time.Second
)

// Resource 是停机最后阶段需要关闭的资源（连接池、Redis客户端）
type Resource struct {
	Name  string
	Close func() error
}

// Coordinator 负责编排优雅停机：HTTP服务器 -> 后台服务 -> 资源
type Coordinator struct {
	manager   *lifecycle.Manager
	resources []Resource
	log       *zap.Logger
}

// NewCoordinator 创建停机协调器。资源按注册的逆序关闭。
func NewCoordinator(manager *lifecycle.Manager, log *zap.Logger, resources ...Resource) *Coordinator {
	return &Coordinator{
		manager:   manager,
		resources: resources,
		log:       log.Named("shutdown"),
	}
}

// ListenForSignalsAndShutdown 阻塞直到收到SIGINT/SIGTERM或serverErr有值，然后执行停机
func (c *Coordinator) ListenForSignalsAndShutdown(server *http.Server, serverErr <-chan error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		c.log.Info("收到关闭信号，开始优雅停机", zap.String("signal", sig.String()))
	case err := <-serverErr:
		c.log.Error("HTTP服务器异常退出，开始停机", zap.Error(err))
	}

	c.Shutdown(server)
}

// Shutdown 执行完整的停机流程
func (c *Coordinator) Shutdown(server *http.Server) {
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			c.log.Error("HTTP服务器关闭错误", zap.Error(err))
		} else {
			c.log.Info("HTTP服务器已关闭")
		}
	}

	c.manager.Shutdown()
	if remaining := c.manager.WaitWithTimeout(backgroundTimeout); len(remaining) > 0 {
		c.log.Warn("部分后台服务未能按时退出", zap.Strings("services", remaining))
	}

	for i := len(c.resources) - 1; i >= 0; i-- {
		res := c.resources[i]
		if err := res.Close(); err != nil {
			c.log.Error("资源关闭失败", zap.String("resource", res.Name), zap.Error(err))
			continue
		}
		c.log.Info("资源已关闭", zap.String("resource", res.Name))
	}

	c.log.Info("优雅停机完成")
}
