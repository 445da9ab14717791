package worker

// The retry cron is the durable half of the fiscal queue: the in-process
// channel loses jobs on restart, but pending ventas are re-discovered from
// the local store on every tick and re-enqueued.

import (
	"context"
	"time"

	"almapos/internal/repository"

	"github.com/rs/zerolog/log"
)

const retryBatchSize = 20

type RetryCron struct {
	dispatcher *Dispatcher
	ventaRepo  repository.VentaRepository
	intervalo  time.Duration
}

func NewRetryCron(dispatcher *Dispatcher, ventaRepo repository.VentaRepository, intervalo time.Duration) *RetryCron {
	if intervalo <= 0 {
		intervalo = 2 * time.Minute
	}
	return &RetryCron{dispatcher: dispatcher, ventaRepo: ventaRepo, intervalo: intervalo}
}

// Run blocks until ctx is cancelled.
func (c *RetryCron) Run(ctx context.Context) {
	ticker := time.NewTicker(c.intervalo)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *RetryCron) tick(ctx context.Context) {
	ventas, err := c.ventaRepo.FindFiscalPendientes(ctx, MaxIntentosFiscales, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: consulta de pendientes fallo")
		return
	}
	for _, v := range ventas {
		if err := c.dispatcher.EnqueueFacturacion(ctx, FacturacionJobPayload{VentaID: v.ID.String()}); err != nil {
			return
		}
	}
	if len(ventas) > 0 {
		log.Debug().Int("ventas", len(ventas)).Msg("retry_cron: pendientes fiscales re-encolados")
	}
}
