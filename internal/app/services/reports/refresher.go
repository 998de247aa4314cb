package reports

import (
	"context"
	"time"

	"github.com/harborline/claimstack/pkg/logger"
)

// Refresher periodically republishes the overview gauges. It implements
// system.Service.
type Refresher struct {
	service  *Service
	interval time.Duration
	log      *logger.Logger
	stop     chan struct{}
	done     chan struct{}
}

// NewRefresher builds a refresher around the report service.
func NewRefresher(service *Service, interval time.Duration, log *logger.Logger) *Refresher {
	if log == nil {
		log = logger.NewDefault("reports-refresher")
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Refresher{service: service, interval: interval, log: log}
}

func (r *Refresher) Name() string { return "reports-refresher" }

// Start launches the refresh loop. The first publish happens immediately.
func (r *Refresher) Start(ctx context.Context) error {
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	if err := r.service.Publish(ctx); err != nil {
		r.log.WithError(err).Warn("initial report publish failed")
	}

	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				if err := r.service.Publish(context.Background()); err != nil {
					r.log.WithError(err).Warn("report publish failed")
				}
			}
		}
	}()
	return nil
}

// Stop halts the refresh loop and waits for it to exit.
func (r *Refresher) Stop(ctx context.Context) error {
	if r.stop == nil {
		return nil
	}
	close(r.stop)
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
