package cloudmetrics

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/notifybiz/console/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pushInterval = 30 * time.Minute

var Module = fx.Module("cloud.metrics",
	fx.Provide(func() *prometheus.Registry {
		return prometheus.NewRegistry()
	}),
	fx.Provide(NewPusher),
	fx.Invoke(registerWorker),
)

func registerWorker(lc fx.Lifecycle, cfg config.Config, registry *prometheus.Registry, pusher Pusher, logger *zap.Logger, db *gorm.DB) {
	if pusher == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	setRecorder(&recorder{
		metrics:    newMetrics(registry),
		instanceID: cfg.Platform.InstanceID,
	})

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting platform metrics background worker")
			go func() {
				ticker := time.NewTicker(pushInterval)
				defer ticker.Stop()

				refresh(ctx, db)
				if err := pusher.Push(ctx, registry); err != nil {
					logger.Error("initial platform metrics push failed", zap.Error(err))
				}

				for {
					select {
					case <-ticker.C:
						refresh(ctx, db)
						if err := pusher.Push(ctx, registry); err != nil {
							logger.Error("periodic platform metrics push failed", zap.Error(err))
						}
					case <-ctx.Done():
						logger.Info("stopping platform metrics background worker")
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func refresh(ctx context.Context, db *gorm.DB) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	SetMemoryUsage(m.Sys)

	if db == nil {
		return
	}
	var vendors int64
	if err := db.WithContext(ctx).Table("vendors").Count(&vendors).Error; err == nil {
		SetVendorsTotal(vendors)
	}
	var wabas int64
	if err := db.WithContext(ctx).Table("waba_accounts").Where("status = ?", "CONNECTED").Count(&wabas).Error; err == nil {
		SetConnectedWabas(wabas)
	}
}
