package worker

import (
	"context"
	"encoding/json"

	"almapos/internal/infra"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload carries the closing report for the back office.
type EmailJobPayload struct {
	Cierre infra.CierreCaja `json:"cierre"`
}

type EmailWorker struct {
	mailer *infra.Mailer
}

func NewEmailWorker(mailer *infra.Mailer) *EmailWorker {
	return &EmailWorker{mailer: mailer}
}

func (w *EmailWorker) Process(_ context.Context, raw json.RawMessage) {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: payload invalido")
		return
	}
	if !w.mailer.Configurado() {
		log.Debug().Msg("email_worker: SMTP no configurado, se omite el envio")
		return
	}
	if err := w.mailer.EnviarCierre(payload.Cierre); err != nil {
		log.Error().Err(err).Str("sesion", payload.Cierre.SesionID).Msg("email_worker: fallo el envio")
		return
	}
	log.Info().Str("sesion", payload.Cierre.SesionID).Msg("reporte de cierre enviado")
}
