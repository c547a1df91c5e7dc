package alert

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler 以固定間隔驅動評估引擎。SingletonMode 確保前一輪
// 未結束時不會疊加下一輪。
type Scheduler struct {
	scheduler *gocron.Scheduler
	engine    *Engine
	interval  time.Duration
}

// NewScheduler 建立排程器；interval 預設 30 秒。
func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		engine:    engine,
		interval:  interval,
	}
}

// Start 註冊任務並在背景啟動。
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		if err := s.engine.Run(ctx); err != nil {
			log.Printf("[AlertScheduler] evaluation run failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	log.Printf("[AlertScheduler] started, interval %v", s.interval)
	return nil
}

// Stop 停止排程，等待進行中的任務結束。
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	log.Println("[AlertScheduler] stopped")
}
