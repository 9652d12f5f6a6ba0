package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"accessory-sync/internal/service"
)

// minInterval 定时同步的最小间隔，避免频繁调用工单系统接口
const minInterval = time.Minute

// FieldSyncWorker 定时同步自定义字段选项
type FieldSyncWorker struct {
	fieldSyncSvc service.FieldSyncService
	interval     time.Duration
	logger       *zap.Logger
}

// NewFieldSyncWorker 创建 FieldSyncWorker；interval 小于 1 分钟时按 1 分钟处理
func NewFieldSyncWorker(fieldSyncSvc service.FieldSyncService, interval time.Duration, logger *zap.Logger) *FieldSyncWorker {
	if interval < minInterval {
		interval = minInterval
	}
	return &FieldSyncWorker{fieldSyncSvc: fieldSyncSvc, interval: interval, logger: logger}
}

// Start 阻塞运行直到 ctx 取消；每个周期独立 recover，单次 panic 不影响后续周期
func (w *FieldSyncWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("字段同步任务已启动", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("字段同步任务已停止")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *FieldSyncWorker) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("字段同步 panic，等待下一周期", zap.Any("panic", r))
		}
	}()

	results := w.fieldSyncSvc.SyncAll(ctx)

	for _, r := range results {
		if r.Error != "" {
			w.logger.Warn("字段同步存在失败",
				zap.String("field", r.FieldID),
				zap.String("category", r.Category),
				zap.String("error", r.Error),
			)
		}
	}
}
