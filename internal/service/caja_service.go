package service

import (
	"context"
	"errors"
	"time"

	"almapos/internal/dto"
	"almapos/internal/infra"
	"almapos/internal/model"
	"almapos/internal/repository"
	"almapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrMontoInvalido        = errors.New("el monto debe ser mayor a cero")
	ErrObservacionRequerida = errors.New("desvio critico: se requieren observaciones del supervisor")
)

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error)
	SesionActual(ctx context.Context) (*dto.SesionCajaResponse, error)
	RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) error
	PreCierre(ctx context.Context, sesionID uuid.UUID) (*dto.PreCierreCajaResponse, error)
	Balance(ctx context.Context, sesionID uuid.UUID) (*dto.BalanceCajaResponse, error)
	Auditoria(ctx context.Context, sesionID uuid.UUID) (*dto.AuditoriaCajaResponse, error)
	Cerrar(ctx context.Context, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error)
	ListMovimientos(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoCajaResponse, error)
}

type cajaService struct {
	repo       repository.CajaRepository
	ventaRepo  repository.VentaRepository
	dispatcher *worker.Dispatcher
}

func NewCajaService(repo repository.CajaRepository, ventaRepo repository.VentaRepository, dispatcher *worker.Dispatcher) CajaService {
	return &cajaService{repo: repo, ventaRepo: ventaRepo, dispatcher: dispatcher}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

// Abrir opens a shift and seeds the ledger with the synthetic opening deposit.
// Session and deposit land in one transaction together with the
// no-other-open-session check, so a double tap cannot open two drawers.
func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, ErrMontoInvalido
	}

	now := time.Now().UTC()
	sesion := &model.SesionCaja{
		UsuarioID:    usuarioID,
		Estado:       model.SesionAbierta,
		MontoInicial: req.MontoInicial,
		OpenedAt:     now,
	}
	apertura := &model.MovimientoCaja{
		Tipo:        model.MovIngreso,
		MetodoPago:  "efectivo",
		Monto:       req.MontoInicial,
		Descripcion: "Apertura de caja",
		Apertura:    true,
		Fecha:       now,
	}
	if err := s.repo.AbrirSesion(ctx, sesion, apertura); err != nil {
		return nil, err
	}
	return sesionToResponse(sesion), nil
}

func (s *cajaService) SesionActual(ctx context.Context) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSesionNoAbierta
		}
		return nil, err
	}
	return sesionToResponse(sesion), nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────

// Ingreso / egreso / gasto manual. Movements are immutable: no update, no
// delete — a mistake is corrected with an offsetting movement.
func (s *cajaService) RegistrarMovimiento(ctx context.Context, req dto.MovimientoManualRequest) error {
	if !req.Monto.IsPositive() {
		return ErrMontoInvalido
	}
	sesion, err := s.repo.FindSesionAbierta(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrSesionNoAbierta
		}
		return err
	}
	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         req.Tipo,
		MetodoPago:   req.MetodoPago,
		Monto:        req.Monto,
		Descripcion:  req.Descripcion,
		Fecha:        time.Now().UTC(),
	}
	return s.repo.CreateMovimiento(ctx, mov)
}

// ── Balance ───────────────────────────────────────────────────────────────────

// foldBalance folds the movement ledger into the running drawer report:
//
//	total efectivo = inicial + ingresos extra + ventas en efectivo
//	               - egresos - gastos
//
// Sales paid through a digital method never enter the drawer total. The
// opening deposit is excluded from ingresos extra so it is not counted twice.
// Anulaciones subtract from the sales bucket of their payment method, so a
// voided sale nets to zero without ever mutating the original entry.
func foldBalance(sesion *model.SesionCaja, movs []model.MovimientoCaja) *dto.BalanceCajaResponse {
	resp := &dto.BalanceCajaResponse{
		SesionCajaID: sesion.ID.String(),
		MontoInicial: sesion.MontoInicial,
		CantidadMovs: len(movs),
	}
	for _, m := range movs {
		switch m.Tipo {
		case model.MovIngreso:
			if m.Apertura {
				continue
			}
			resp.IngresosExtra = resp.IngresosExtra.Add(m.Monto)
		case model.MovVenta:
			if model.MetodoEsDigital(m.MetodoPago) {
				resp.VentasDigitales = resp.VentasDigitales.Add(m.Monto)
			} else {
				resp.VentasEfectivo = resp.VentasEfectivo.Add(m.Monto)
			}
			resp.CantidadVentas++
		case model.MovAnulacion:
			if model.MetodoEsDigital(m.MetodoPago) {
				resp.VentasDigitales = resp.VentasDigitales.Sub(m.Monto)
			} else {
				resp.VentasEfectivo = resp.VentasEfectivo.Sub(m.Monto)
			}
		case model.MovEgreso:
			resp.Egresos = resp.Egresos.Add(m.Monto)
		case model.MovGasto:
			resp.Gastos = resp.Gastos.Add(m.Monto)
		}
	}
	resp.TotalEfectivo = sesion.MontoInicial.
		Add(resp.IngresosExtra).
		Add(resp.VentasEfectivo).
		Sub(resp.Egresos).
		Sub(resp.Gastos).
		Round(2)
	return resp
}

// Balance is the supervisor's live drawer report. It carries the expected
// cash total, so routing never serves it to the operator role that will
// declare the blind count.
func (s *cajaService) Balance(ctx context.Context, sesionID uuid.UUID) (*dto.BalanceCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	return foldBalance(sesion, movs), nil
}

// PreCierre is the operator-facing view before closing: movement counts
// only, never amounts. The count declaration stays blind.
func (s *cajaService) PreCierre(ctx context.Context, sesionID uuid.UUID) (*dto.PreCierreCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	resp := &dto.PreCierreCajaResponse{
		SesionCajaID: sesion.ID.String(),
		Estado:       sesion.Estado,
		CantidadMovs: len(movs),
	}
	for _, m := range movs {
		if m.Tipo == model.MovVenta {
			resp.CantidadVentas++
		}
	}
	return resp, nil
}

// ── Auditoria ─────────────────────────────────────────────────────────────────

// Auditoria cross-checks the two ledgers over the session window
// [opened_at, closed_at) — closed_at falls back to now while the session is
// still open. The sales table and the movement log record the same money
// independently; any difference signals a write that half-happened.
func (s *cajaService) Auditoria(ctx context.Context, sesionID uuid.UUID) (*dto.AuditoriaCajaResponse, error) {
	sesion, err := s.repo.FindSesionByID(ctx, sesionID)
	if err != nil {
		return nil, err
	}

	hasta := time.Now().UTC()
	if sesion.ClosedAt != nil {
		hasta = *sesion.ClosedAt
	}
	ventas, err := s.ventaRepo.ListPorRango(ctx, sesionID, sesion.OpenedAt, hasta)
	if err != nil {
		return nil, err
	}
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, err
	}

	resp := &dto.AuditoriaCajaResponse{
		SesionCajaID:   sesion.ID.String(),
		CantidadVentas: len(ventas),
	}
	for _, v := range ventas {
		for _, p := range v.Pagos {
			if model.MetodoEsDigital(p.Metodo) {
				resp.VentasDigitales = resp.VentasDigitales.Add(p.Pagado)
			} else {
				resp.VentasEfectivo = resp.VentasEfectivo.Add(p.Pagado)
			}
		}
		switch v.EstadoFiscal {
		case model.FiscalAprobado:
			resp.FiscalAprobado = resp.FiscalAprobado.Add(v.Total)
		case model.FiscalPendiente:
			resp.FiscalPendiente = resp.FiscalPendiente.Add(v.Total)
			resp.CantidadFiscalPendiente++
		}
	}
	for _, m := range movs {
		if model.MetodoEsDigital(m.MetodoPago) {
			continue
		}
		switch m.Tipo {
		case model.MovVenta:
			resp.MovimientosEfectivo = resp.MovimientosEfectivo.Add(m.Monto)
		case model.MovAnulacion:
			resp.MovimientosEfectivo = resp.MovimientosEfectivo.Sub(m.Monto)
		}
	}
	resp.VentasEfectivo = resp.VentasEfectivo.Round(2)
	resp.VentasDigitales = resp.VentasDigitales.Round(2)
	resp.MovimientosEfectivo = resp.MovimientosEfectivo.Round(2)
	resp.FiscalAprobado = resp.FiscalAprobado.Round(2)
	resp.FiscalPendiente = resp.FiscalPendiente.Round(2)
	resp.Diferencia = resp.VentasEfectivo.Sub(resp.MovimientosEfectivo)
	resp.Consistente = resp.Diferencia.IsZero()

	// Expected cash refolded from the movement log, independent of whatever
	// the close stored; actual is the declared count once closed, or the
	// live expected total while the session is still open.
	resp.MontoEsperado = foldBalance(sesion, movs).TotalEfectivo
	if sesion.Estado == model.SesionCerrada && sesion.MontoDeclarado != nil {
		resp.MontoActual = sesion.MontoDeclarado.Round(2)
	} else {
		resp.MontoActual = resp.MontoEsperado
	}
	resp.Desvio = resp.MontoActual.Sub(resp.MontoEsperado)

	if !resp.Consistente {
		log.Warn().
			Str("sesion", sesion.ID.String()).
			Str("diferencia", resp.Diferencia.String()).
			Msg("auditoria de caja inconsistente")
	}
	return resp, nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────

// Cerrar performs the blind reconciliation. The expected total is computed
// only after the declared count arrives in the request; it is never exposed
// to the closing form beforehand. A closed session is terminal. The balance
// snapshot and the estado flip commit in one transaction with a guarded
// update, so a movement racing the close either lands before the snapshot or
// is refused, and of two concurrent closes exactly one wins.
func (s *cajaService) Cerrar(ctx context.Context, sesionID uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error) {
	if req.MontoDeclarado.IsNegative() {
		return nil, ErrMontoInvalido
	}

	var (
		sesion                      *model.SesionCaja
		esperado, declarado, desvio decimal.Decimal
		pct                         decimal.Decimal
		clasificacion               string
		now                         time.Time
	)
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		sesion, err = s.repo.FindSesionTx(tx, sesionID)
		if err != nil {
			return err
		}
		if sesion.Estado != model.SesionAbierta {
			return repository.ErrSesionNoAbierta
		}
		movs, err := s.repo.ListMovimientosTx(tx, sesionID)
		if err != nil {
			return err
		}

		esperado = foldBalance(sesion, movs).TotalEfectivo
		declarado = req.MontoDeclarado.Round(2)
		desvio = declarado.Sub(esperado)

		if !esperado.IsZero() {
			pct = desvio.Div(esperado).Mul(decimal.NewFromInt(100)).Round(2)
		} else if !desvio.IsZero() {
			pct = decimal.NewFromInt(100)
		}
		clasificacion = ClasificarDesvio(pct)

		if clasificacion == model.DesvioCritico && (req.Observaciones == nil || *req.Observaciones == "") {
			return ErrObservacionRequerida
		}

		now = time.Now().UTC()
		sesion.Estado = model.SesionCerrada
		sesion.MontoEsperado = &esperado
		sesion.MontoDeclarado = &declarado
		sesion.Desvio = &desvio
		sesion.Clasificacion = &clasificacion
		sesion.Observaciones = req.Observaciones
		sesion.ClosedAt = &now
		sesion.SyncStatus = model.SyncPendiente

		return s.repo.CerrarSesionTx(tx, sesion)
	})
	if err != nil {
		return nil, err
	}

	// Cross-check runs after the close so its window is final. Best effort:
	// an audit failure never undoes a committed close.
	if _, err := s.Auditoria(ctx, sesionID); err != nil {
		log.Error().Err(err).Str("sesion", sesionID.String()).Msg("auditoria post-cierre fallo")
	}

	log.Info().
		Str("sesion", sesionID.String()).
		Str("esperado", esperado.String()).
		Str("declarado", declarado.String()).
		Str("desvio", desvio.String()).
		Str("clasificacion", clasificacion).
		Msg("caja cerrada")

	if s.dispatcher != nil {
		obs := ""
		if req.Observaciones != nil {
			obs = *req.Observaciones
		}
		_ = s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{Cierre: infra.CierreCaja{
			SesionID:       sesion.ID.String(),
			Usuario:        sesion.UsuarioID.String(),
			Apertura:       sesion.OpenedAt.UTC().Format(time.RFC3339),
			Cierre:         now.Format(time.RFC3339),
			MontoInicial:   sesion.MontoInicial.String(),
			MontoEsperado:  esperado.String(),
			MontoDeclarado: declarado.String(),
			Desvio:         desvio.String(),
			Clasificacion:  clasificacion,
			Observaciones:  obs,
		}})
	}

	return &dto.CierreCajaResponse{
		SesionCajaID:   sesion.ID.String(),
		MontoEsperado:  esperado,
		MontoDeclarado: declarado,
		Desvio: dto.DesvioResponse{
			Monto:         desvio,
			Porcentaje:    pct,
			Clasificacion: clasificacion,
		},
		Estado: model.SesionCerrada,
	}, nil
}

func (s *cajaService) ListMovimientos(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoCajaResponse, error) {
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MovimientoCajaResponse, 0, len(movs))
	for _, m := range movs {
		resp = append(resp, dto.MovimientoCajaResponse{
			ID:          m.ID.String(),
			Tipo:        m.Tipo,
			MetodoPago:  m.MetodoPago,
			Monto:       m.Monto,
			Descripcion: m.Descripcion,
			Apertura:    m.Apertura,
			Fecha:       m.Fecha.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// ClasificarDesvio buckets a deviation percentage:
// normal: |pct| <= 1, advertencia: <= 5, critico: > 5.
func ClasificarDesvio(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return model.DesvioNormal
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return model.DesvioAdvertencia
	default:
		return model.DesvioCritico
	}
}

func sesionToResponse(s *model.SesionCaja) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:           s.ID.String(),
		UsuarioID:    s.UsuarioID.String(),
		Estado:       s.Estado,
		MontoInicial: s.MontoInicial,
		OpenedAt:     s.OpenedAt.UTC().Format(time.RFC3339),
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.UTC().Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}
