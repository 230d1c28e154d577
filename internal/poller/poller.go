package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jurkash/ha-loe-outages/internal/service"
)

// Poller drives the refresh cycle. One loop owns all refreshes, so the
// store never sees two reconciliations at once.
type Poller struct {
	service   *service.Service
	interval  time.Duration
	refreshCh chan struct{}
	logger    *slog.Logger
}

func New(svc *service.Service, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Poller{service: svc, interval: interval, refreshCh: make(chan struct{}, 1), logger: logger}
}

// TriggerRefresh nudges the loop to run ahead of schedule. Non-blocking; a
// pending nudge coalesces.
func (p *Poller) TriggerRefresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-p.refreshCh:
			timer.Stop()
		case <-timer.C:
		}
		if err := p.service.RefreshOnce(ctx); err != nil {
			p.logger.Error("schedule refresh failed", "err", err)
		}
	}
}
