package progress

import (
	"compressed-indexer-sol/pkg/logger"
	"context"
	"sync/atomic"
	"time"
)

// ProgressManager 在内存中记录已处理的最大 slot，由后台循环定时写入 Store。
// 处理路径只做原子操作，不阻塞在 Redis 上。
type ProgressManager struct {
	store     Store
	processed atomic.Uint64 // 已处理的最大 slot
	saved     atomic.Uint64 // 已写入 Store 的 slot
	interval  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewProgressManager(store Store, interval time.Duration) *ProgressManager {
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ProgressManager{
		store:    store,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 阻塞运行 flush 循环，实现 go-zero service.Service
func (pm *ProgressManager) Start() {
	defer close(pm.done)
	pm.StartFlushLoop(pm.ctx)
}

// Stop 结束 flush 循环并等待最后一次写入完成
func (pm *ProgressManager) Stop() {
	pm.cancel()
	select {
	case <-pm.done:
	case <-time.After(5 * time.Second):
	}
}

// MarkProcessed 记录某 slot 的交易已处理完成，只会前进
func (pm *ProgressManager) MarkProcessed(slot uint64) {
	for {
		cur := pm.processed.Load()
		if slot <= cur || pm.processed.CompareAndSwap(cur, slot) {
			return
		}
	}
}

// ResumeFrom 返回续订起点（最近处理过的 slot），无记录时返回 nil
func (pm *ProgressManager) ResumeFrom(ctx context.Context) (*uint64, error) {
	last, ok, err := pm.store.LastSlot(ctx)
	if err != nil {
		return nil, err
	}
	if mem := pm.processed.Load(); mem > 0 && (!ok || mem > last) {
		last, ok = mem, true
	}
	return ResumeSlot(last, ok), nil
}

// Flush 把内存中的进度写入 Store，无变化时跳过
func (pm *ProgressManager) Flush(ctx context.Context) error {
	slot := pm.processed.Load()
	if slot == 0 || slot == pm.saved.Load() {
		return nil
	}
	if err := pm.store.SaveSlot(ctx, slot); err != nil {
		return err
	}
	pm.saved.Store(slot)
	return nil
}

// StartFlushLoop 启动后台定时 flush，ctx 结束时最后再写一次
func (pm *ProgressManager) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			if err := pm.Flush(final); err != nil {
				logger.Warnf("[Progress] final flush failed: %v", err)
			}
			cancel()
			return
		case <-ticker.C:
			if err := pm.Flush(ctx); err != nil {
				// 打日志即可，下个周期会再次写入
				logger.Warnf("[Progress] flush failed: %v", err)
			}
		}
	}
}
