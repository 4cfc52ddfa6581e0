package storage

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically removes generation directories older than maxAge.
type Sweeper struct {
	cron    *cron.Cron
	storage *LocalStorage
	maxAge  time.Duration
	now     func() time.Time
}

func NewSweeper(s *LocalStorage, schedule string, maxAge time.Duration) (*Sweeper, error) {
	sw := &Sweeper{
		cron:    cron.New(),
		storage: s,
		maxAge:  maxAge,
		now:     time.Now,
	}
	if _, err := sw.cron.AddFunc(schedule, sw.Run); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}
	return sw, nil
}

func (sw *Sweeper) Start() {
	sw.cron.Start()
	slog.Info("Output sweeper started", "max_age", sw.maxAge)
}

// Stop waits for a running sweep to finish.
func (sw *Sweeper) Stop() {
	<-sw.cron.Stop().Done()
}

func (sw *Sweeper) Run() {
	removed, err := sw.storage.Sweep(sw.maxAge, sw.now())
	if err != nil {
		slog.Warn("Output sweep incomplete", "error", err)
	}
	if removed > 0 {
		slog.Info("Expired outputs removed", "count", removed)
	}
}
