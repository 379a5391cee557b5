package lifecycle

import (
	"context"
	"time"
)

// Handle 是分发给每个后台服务的生命周期句柄。
// 服务在自己的goroutine退出前必须 defer Close()。
type Handle struct {
	name  string
	ctx   context.Context
	close func()
}

// Name 返回注册时使用的服务名
func (h *Handle) Name() string {
	return h.name
}

// Ctx 返回随停机信号取消的上下文，可直接传给数据库或Redis调用
func (h *Handle) Ctx() context.Context {
	return h.ctx
}

// Done 在管理器广播停机信号后关闭
func (h *Handle) Done() <-chan struct{} {
	return h.ctx.Done()
}

// Close 通知管理器服务已经退出，可以重复调用
func (h *Handle) Close() {
	h.close()
}

// Sleep 暂停指定时长；停机信号到来时提前返回上下文的错误。
func (h *Handle) Sleep(d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-h.ctx.Done():
		return h.ctx.Err()
	case <-timer.C:
		return nil
	}
}
