package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"
)

const (
	JobFacturacion = "facturacion"
	JobEmail       = "email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one job payload.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage)
}

// ErrQueueLlena is returned when the job buffer is full. Jobs carrying
// durable state (fiscal authorization) survive anyway: the retry cron
// re-discovers them from the ventas table.
var ErrQueueLlena = errors.New("cola de trabajos llena")

// Dispatcher feeds an in-process job queue. The agent runs on a single
// device, so jobs never need to leave the process; durable retry state
// lives in the local store, not in the queue.
type Dispatcher struct {
	jobs     chan Job
	handlers map[string]Handler
}

func NewDispatcher(buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 128
	}
	return &Dispatcher{
		jobs:     make(chan Job, buffer),
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a job type. Call before StartWorkerPool.
func (d *Dispatcher) Register(jobType string, h Handler) {
	d.handlers[jobType] = h
}

// EnqueueFacturacion queues a billing job.
func (d *Dispatcher) EnqueueFacturacion(ctx context.Context, payload any) error {
	return d.enqueue(ctx, JobFacturacion, payload)
}

// EnqueueEmail queues an email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload any) error {
	return d.enqueue(ctx, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	select {
	case d.jobs <- Job{Type: jobType, Payload: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		log.Warn().Str("type", jobType).Msg("worker: cola llena, trabajo descartado")
		return ErrQueueLlena
	}
}

// StartWorkerPool launches numWorkers goroutines consuming the queue.
func (d *Dispatcher) StartWorkerPool(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	for i := 0; i < numWorkers; i++ {
		go d.runWorker(ctx, i)
	}
	log.Info().Int("workers", numWorkers).Msg("worker pool iniciado")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker detenido")
			return
		case job := <-d.jobs:
			h, ok := d.handlers[job.Type]
			if !ok {
				log.Error().Str("type", job.Type).Msg("worker: tipo de trabajo sin handler")
				continue
			}
			h.Process(ctx, job.Payload)
		}
	}
}
