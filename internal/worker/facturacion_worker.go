package worker

// Processes fiscal billing jobs: POST to the AFIP sidecar through the
// circuit breaker, store the CAE on success. Retries are bounded; a venta
// that exhausts them is flagged estado_fiscal=error for manual review.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"almapos/internal/infra"
	"almapos/internal/model"
	"almapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxIntentosFiscales bounds how many times one venta is presented to the
// sidecar before it is parked as error.
const MaxIntentosFiscales = 3

// Factura B is the default comprobante for consumidor final.
const tipoCbteFacturaB = 6

type FacturacionJobPayload struct {
	VentaID string `json:"venta_id"`
}

type FacturacionWorker struct {
	afipClient *infra.AFIPClient
	ventaRepo  repository.VentaRepository
}

func NewFacturacionWorker(afipClient *infra.AFIPClient, ventaRepo repository.VentaRepository) *FacturacionWorker {
	return &FacturacionWorker{afipClient: afipClient, ventaRepo: ventaRepo}
}

func (w *FacturacionWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload FacturacionJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("facturacion_worker: payload invalido")
		return
	}
	ventaID, err := uuid.Parse(payload.VentaID)
	if err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("facturacion_worker: venta_id invalido")
		return
	}

	venta, err := w.ventaRepo.FindByID(ctx, ventaID)
	if err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("facturacion_worker: venta no encontrada")
		return
	}
	if venta.EstadoFiscal != model.FiscalPendiente {
		return
	}

	total, _ := venta.Total.Float64()
	resultado, err := w.afipClient.Facturar(ctx, venta.ID.String(), tipoCbteFacturaB, total)
	if err != nil {
		w.registrarFallo(ctx, venta, err)
		return
	}

	venta.EstadoFiscal = model.FiscalAprobado
	venta.CAE = &resultado.CAE
	if vto, perr := time.Parse(time.RFC3339, resultado.CAEVencimiento); perr == nil {
		venta.CAEVencimiento = &vto
	}
	venta.NumeroCbte = &resultado.Numero
	venta.TipoCbte = &resultado.TipoCbte
	venta.QRData = &resultado.QRData
	venta.FiscalError = nil

	if err := w.ventaRepo.UpdateFiscal(ctx, venta); err != nil {
		log.Error().Err(err).Str("venta_id", payload.VentaID).Msg("facturacion_worker: no se pudo guardar el CAE")
		return
	}
	log.Info().Str("venta_id", payload.VentaID).Str("cae", resultado.CAE).Msg("comprobante fiscal aprobado")
}

func (w *FacturacionWorker) registrarFallo(ctx context.Context, venta *model.Venta, cause error) {
	venta.FiscalIntentos++
	msg := cause.Error()
	venta.FiscalError = &msg

	if errors.Is(cause, infra.ErrCircuitOpen) {
		// Breaker open: do not burn an attempt, the retry cron re-enqueues
		// once the sidecar recovers.
		venta.FiscalIntentos--
	} else if venta.FiscalIntentos >= MaxIntentosFiscales {
		venta.EstadoFiscal = model.FiscalError
		log.Error().
			Str("venta_id", venta.ID.String()).
			Int("intentos", venta.FiscalIntentos).
			Msg("facturacion_worker: reintentos agotados")
	}

	if err := w.ventaRepo.UpdateFiscal(ctx, venta); err != nil {
		log.Error().Err(err).Str("venta_id", venta.ID.String()).Msg("facturacion_worker: no se pudo registrar el fallo")
	}
}
