package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper периодически удаляет просроченные и исчерпанные ссылки.
// Без него очистка только ленивая, при следующем обращении к slug.
type Sweeper struct {
	service  LinkService
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewSweeper создаёт фоновую очистку с заданным интервалом
func NewSweeper(service LinkService, interval, timeout time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Start запускает фоновый цикл очистки
func (s *Sweeper) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("Starting link sweeper", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.loop()
}

// Stop останавливает цикл и дожидается завершения текущего прохода
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.logger.Info("Stopping link sweeper...")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Link sweeper stopped")
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(s.ctx)
		}
	}
}

// RunOnce выполняет один проход очистки
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	removed, err := s.service.Sweep(ctx)
	if err != nil {
		s.logger.Warn("Link sweep failed", zap.Int("removed", removed), zap.Error(err))
		return removed
	}
	if removed > 0 {
		s.logger.Info("Dead links removed", zap.Int("count", removed))
	}
	return removed
}
