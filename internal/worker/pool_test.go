package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturaHandler struct {
	recibidos chan json.RawMessage
}

func (h *capturaHandler) Process(_ context.Context, payload json.RawMessage) {
	h.recibidos <- payload
}

func TestDispatcherEntregaAlHandlerRegistrado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &capturaHandler{recibidos: make(chan json.RawMessage, 1)}
	d := NewDispatcher(8)
	d.Register(JobFacturacion, h)
	d.StartWorkerPool(ctx, 1)

	require.NoError(t, d.EnqueueFacturacion(ctx, FacturacionJobPayload{VentaID: "abc"}))

	select {
	case raw := <-h.recibidos:
		var payload FacturacionJobPayload
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, "abc", payload.VentaID)
	case <-time.After(2 * time.Second):
		t.Fatal("el trabajo nunca llego al handler")
	}
}

func TestDispatcherColaLlenaDescarta(t *testing.T) {
	// Sin workers consumiendo, el segundo trabajo no entra.
	d := NewDispatcher(1)
	ctx := context.Background()

	require.NoError(t, d.EnqueueFacturacion(ctx, FacturacionJobPayload{VentaID: "1"}))
	assert.ErrorIs(t, d.EnqueueFacturacion(ctx, FacturacionJobPayload{VentaID: "2"}), ErrQueueLlena)
}

func TestRetryCronReencolaPendientes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	venta := ventaPendiente()
	repo := newFakeVentaRepo(venta)

	h := &capturaHandler{recibidos: make(chan json.RawMessage, 1)}
	d := NewDispatcher(8)
	d.Register(JobFacturacion, h)
	d.StartWorkerPool(ctx, 1)

	cron := NewRetryCron(d, repo, time.Minute)
	cron.tick(ctx)

	select {
	case raw := <-h.recibidos:
		var payload FacturacionJobPayload
		require.NoError(t, json.Unmarshal(raw, &payload))
		assert.Equal(t, venta.ID.String(), payload.VentaID)
	case <-time.After(2 * time.Second):
		t.Fatal("la venta pendiente no fue re-encolada")
	}
}

func TestRetryCronIgnoraVentasAgotadas(t *testing.T) {
	venta := ventaPendiente()
	venta.FiscalIntentos = MaxIntentosFiscales
	repo := newFakeVentaRepo(venta)

	d := NewDispatcher(1)
	cron := NewRetryCron(d, repo, time.Minute)
	cron.tick(context.Background())

	assert.Empty(t, d.jobs)
}
