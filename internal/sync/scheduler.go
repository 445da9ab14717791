package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Scheduler triggers reconciliation cycles: once at startup, on a periodic
// ticker, whenever connectivity is restored, and on demand (the UI's "sync
// now" button). All triggers funnel into Engine.Sync, whose TryLock already
// guarantees at most one in-flight cycle, so a burst of triggers collapses
// into one run.
type Scheduler struct {
	engine    *Engine
	intervalo time.Duration
	restored  <-chan struct{}
	kick      chan struct{}
}

func NewScheduler(engine *Engine, intervalo time.Duration, restored <-chan struct{}) *Scheduler {
	if intervalo <= 0 {
		intervalo = 30 * time.Second
	}
	return &Scheduler{
		engine:    engine,
		intervalo: intervalo,
		restored:  restored,
		kick:      make(chan struct{}, 1),
	}
}

// Kick requests an immediate cycle. Never blocks; if a kick is already
// queued the extra request is dropped.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run drives the trigger loop until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.engine.Sync(ctx)

	ticker := time.NewTicker(s.intervalo)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sync: scheduler detenido")
			return
		case <-ticker.C:
			s.engine.Sync(ctx)
		case <-s.restored:
			log.Info().Msg("sync: conexion restablecida, ciclo inmediato")
			s.engine.Sync(ctx)
		case <-s.kick:
			s.engine.Sync(ctx)
		}
	}
}
