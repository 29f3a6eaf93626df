package monitor

import (
	"context"
	"runtime"
	"time"

	"mahjong-lite/internal/logx"
)

// LoadSource 负载数据来源（大厅给房间数，网关给连接数）。
type LoadSource interface {
	RoomCount() int
}

type ConnSource interface {
	OnlineCount() int
}

// Monitor 周期性打运行时负载日志。
type Monitor struct {
	rooms    LoadSource
	conns    ConnSource
	interval time.Duration
	stopCh   chan struct{}
}

func New(rooms LoadSource, conns ConnSource, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Monitor{rooms: rooms, conns: conns, interval: interval, stopCh: make(chan struct{})}
}

// Start blocks until ctx is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.report()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.report()
		}
	}
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) report() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	logx.Info("[Monitor] rooms=%d conns=%d goroutines=%d heap=%dMB",
		m.rooms.RoomCount(), m.conns.OnlineCount(), runtime.NumGoroutine(), ms.HeapAlloc/1024/1024)
}
