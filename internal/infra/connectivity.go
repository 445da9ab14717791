package infra

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Connectivity polls a probe URL and tracks whether the agent can reach the
// network. Absence of connectivity is never an error anywhere in the agent —
// consumers poll Online() and degrade to no-ops — but the offline→online
// transition is interesting: it wakes the sync scheduler immediately instead
// of waiting for the next tick.
type Connectivity struct {
	probeURL  string
	intervalo time.Duration
	client    *http.Client
	online    atomic.Bool
	restored  chan struct{}
}

func NewConnectivity(probeURL string, intervalo time.Duration) *Connectivity {
	if intervalo <= 0 {
		intervalo = 10 * time.Second
	}
	return &Connectivity{
		probeURL:  probeURL,
		intervalo: intervalo,
		client:    &http.Client{Timeout: 3 * time.Second},
		restored:  make(chan struct{}, 1),
	}
}

// Online reports the last observed connectivity state.
func (c *Connectivity) Online() bool { return c.online.Load() }

// Restored delivers one signal per offline→online transition.
func (c *Connectivity) Restored() <-chan struct{} { return c.restored }

// Run probes until ctx is cancelled. The first probe happens immediately so
// the agent knows its state before the first sync attempt.
func (c *Connectivity) Run(ctx context.Context) {
	c.probe(ctx)
	ticker := time.NewTicker(c.intervalo)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.probe(ctx)
		}
	}
}

func (c *Connectivity) probe(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.probeURL, nil)
	if err != nil {
		return
	}
	resp, err := c.client.Do(req)
	ahora := err == nil
	if ahora {
		resp.Body.Close()
	}

	antes := c.online.Swap(ahora)
	switch {
	case !antes && ahora:
		log.Info().Msg("conectividad: en linea")
		select {
		case c.restored <- struct{}{}:
		default:
		}
	case antes && !ahora:
		log.Warn().Msg("conectividad: sin conexion, operando offline")
	}
}
