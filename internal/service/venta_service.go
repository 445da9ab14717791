package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"almapos/internal/dto"
	"almapos/internal/model"
	"almapos/internal/repository"
	"almapos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPagoInsuficiente  = errors.New("el monto total de pagos es insuficiente")
	ErrDebeSinCliente    = errors.New("una venta con saldo a deber requiere cliente")
	ErrVentaYaAnulada    = errors.New("la venta ya esta anulada")
	ErrStockInsuficiente = errors.New("stock insuficiente")
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID, motivo string) error
	ListVentas(ctx context.Context, sesionID uuid.UUID) ([]dto.VentaResponse, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	cajaRepo     repository.CajaRepository
	productoRepo repository.ProductoRepository
	clienteRepo  repository.ClienteRepository
	stockRepo    repository.MovimientoStockRepository
	dispatcher   *worker.Dispatcher
}

func NewVentaService(
	repo repository.VentaRepository,
	cajaRepo repository.CajaRepository,
	productoRepo repository.ProductoRepository,
	clienteRepo repository.ClienteRepository,
	stockRepo repository.MovimientoStockRepository,
	dispatcher *worker.Dispatcher,
) VentaService {
	return &ventaService{
		repo:         repo,
		cajaRepo:     cajaRepo,
		productoRepo: productoRepo,
		clienteRepo:  clienteRepo,
		stockRepo:    stockRepo,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────

// One ACID transaction covers the sale, its items and payments, the stock
// decrement with its kardex entry, one cash movement per payment leg, and the
// client-account debit when part of the total is left owing. Everything
// created here starts pending, so the next sync cycle uploads the whole sale
// or none of it was ever visible.
func (s *ventaService) RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	sesion, err := s.cajaRepo.FindSesionAbierta(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSesionNoAbierta
		}
		return nil, err
	}

	var clienteID *uuid.UUID
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("cliente_id invalido: %w", err)
		}
		clienteID = &cid
	}

	// Pre-flight: resolve products and amounts outside the transaction.
	type resolvedItem struct {
		producto *model.Producto
		cantidad int
		subtotal decimal.Decimal
	}
	var resolved []resolvedItem
	total := decimal.Zero
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id invalido: %w", err)
		}
		p, err := s.productoRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("producto %s no encontrado", item.ProductoID)
		}
		if !p.Activo {
			return nil, fmt.Errorf("producto %s esta inactivo", p.Nombre)
		}
		if p.Stock < item.Cantidad {
			return nil, fmt.Errorf("%w: %s", ErrStockInsuficiente, p.Nombre)
		}
		subtotal := p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad))).Round(2)
		total = total.Add(subtotal)
		resolved = append(resolved, resolvedItem{producto: p, cantidad: item.Cantidad, subtotal: subtotal})
	}
	total = total.Round(2)

	totalPagado := decimal.Zero
	totalDebe := decimal.Zero
	for _, pago := range req.Pagos {
		totalPagado = totalPagado.Add(pago.Pagado)
		totalDebe = totalDebe.Add(pago.Debe)
	}
	if totalPagado.Add(totalDebe).LessThan(total) {
		return nil, ErrPagoInsuficiente
	}
	if totalDebe.IsPositive() && clienteID == nil {
		return nil, ErrDebeSinCliente
	}

	estadoFiscal := model.FiscalOmitido
	if req.Facturar {
		estadoFiscal = model.FiscalPendiente
	}

	now := time.Now().UTC()
	venta := model.Venta{
		SesionCajaID: sesion.ID,
		UsuarioID:    usuarioID,
		ClienteID:    clienteID,
		Total:        total,
		Estado:       model.VentaCompletada,
		EstadoFiscal: estadoFiscal,
		Fecha:        now,
	}
	for _, r := range resolved {
		venta.Items = append(venta.Items, model.VentaItem{
			ProductoID:     r.producto.ID,
			Nombre:         r.producto.Nombre,
			Cantidad:       r.cantidad,
			PrecioUnitario: r.producto.PrecioVenta,
			Subtotal:       r.subtotal,
		})
	}
	for _, pago := range req.Pagos {
		venta.Pagos = append(venta.Pagos, model.VentaPago{
			Metodo: pago.Metodo,
			Pagado: pago.Pagado,
			Debe:   pago.Debe,
		})
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, &venta); err != nil {
			return err
		}

		for _, r := range resolved {
			if err := s.productoRepo.UpdateStockTx(tx, r.producto.ID, -r.cantidad); err != nil {
				return fmt.Errorf("descontando stock de %s: %w", r.producto.Nombre, err)
			}
			ref := venta.ID
			mov := &model.MovimientoStock{
				ProductoID:    r.producto.ID,
				Tipo:          "venta",
				Cantidad:      -r.cantidad,
				StockAnterior: r.producto.Stock,
				StockNuevo:    r.producto.Stock - r.cantidad,
				Motivo:        "Venta",
				ReferenciaID:  &ref,
				Fecha:         now,
			}
			if err := s.stockRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		for _, pago := range req.Pagos {
			if !pago.Pagado.IsPositive() {
				continue
			}
			ref := venta.ID
			mov := &model.MovimientoCaja{
				SesionCajaID: sesion.ID,
				Tipo:         model.MovVenta,
				MetodoPago:   pago.Metodo,
				Monto:        pago.Pagado,
				Descripcion:  "Venta",
				ReferenciaID: &ref,
				Fecha:        now,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
		}

		if totalDebe.IsPositive() {
			ref := venta.ID
			return s.clienteRepo.RegistrarMovimientoTx(tx, &model.MovimientoCliente{
				ClienteID:   *clienteID,
				Tipo:        model.CtaVentaDebito,
				Monto:       totalDebe,
				VentaID:     &ref,
				Descripcion: "Venta en cuenta corriente",
				Fecha:       now,
			})
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if req.Facturar && s.dispatcher != nil {
		_ = s.dispatcher.EnqueueFacturacion(ctx, worker.FacturacionJobPayload{VentaID: venta.ID.String()})
	}
	return ventaToResponse(&venta), nil
}

// ── AnularVenta ───────────────────────────────────────────────────────────────

// AnularVenta voids a sale of the still-open session: stock is restored with
// its own kardex entry, each payment leg gets an offsetting anulacion
// movement carrying a positive amount, and any client debit is credited
// back. The original rows are never touched beyond the estado flip — both
// ledgers stay append-only.
func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID, motivo string) error {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return errors.New("venta no encontrada")
	}
	if venta.Estado == model.VentaAnulada {
		return ErrVentaYaAnulada
	}

	now := time.Now().UTC()
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, item := range venta.Items {
			before, err := s.productoRepo.FindByIDTx(tx, item.ProductoID)
			if err != nil {
				return err
			}
			if err := s.productoRepo.UpdateStockTx(tx, item.ProductoID, item.Cantidad); err != nil {
				return err
			}
			ref := venta.ID
			mov := &model.MovimientoStock{
				ProductoID:    item.ProductoID,
				Tipo:          "anulacion",
				Cantidad:      item.Cantidad,
				StockAnterior: before.Stock,
				StockNuevo:    before.Stock + item.Cantidad,
				Motivo:        fmt.Sprintf("Anulacion: %s", motivo),
				ReferenciaID:  &ref,
				Fecha:         now,
			}
			if err := s.stockRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		for _, pago := range venta.Pagos {
			if !pago.Pagado.IsPositive() {
				continue
			}
			ref := venta.ID
			mov := &model.MovimientoCaja{
				SesionCajaID: venta.SesionCajaID,
				Tipo:         model.MovAnulacion,
				MetodoPago:   pago.Metodo,
				Monto:        pago.Pagado,
				Descripcion:  fmt.Sprintf("Anulacion: %s", motivo),
				ReferenciaID: &ref,
				Fecha:        now,
			}
			if err := s.cajaRepo.CreateMovimientoTx(tx, mov); err != nil {
				return err
			}
		}

		if venta.ClienteID != nil {
			debe := decimal.Zero
			for _, pago := range venta.Pagos {
				debe = debe.Add(pago.Debe)
			}
			if debe.IsPositive() {
				ref := venta.ID
				if err := s.clienteRepo.RegistrarMovimientoTx(tx, &model.MovimientoCliente{
					ClienteID:   *venta.ClienteID,
					Tipo:        model.CtaPago,
					Monto:       debe,
					VentaID:     &ref,
					Descripcion: fmt.Sprintf("Anulacion: %s", motivo),
					Fecha:       now,
				}); err != nil {
					return err
				}
			}
		}

		return s.repo.UpdateEstadoTx(tx, id, model.VentaAnulada)
	})
}

func (s *ventaService) ListVentas(ctx context.Context, sesionID uuid.UUID) ([]dto.VentaResponse, error) {
	ventas, err := s.repo.ListBySesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.VentaResponse, 0, len(ventas))
	for _, v := range ventas {
		resp = append(resp, *ventaToResponse(&v))
	}
	return resp, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     item.ProductoID.String(),
			Nombre:         item.Nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	pagos := make([]dto.PagoRequest, 0, len(v.Pagos))
	for _, p := range v.Pagos {
		pagos = append(pagos, dto.PagoRequest{Metodo: p.Metodo, Pagado: p.Pagado, Debe: p.Debe})
	}
	resp := &dto.VentaResponse{
		ID:           v.ID.String(),
		SesionCajaID: v.SesionCajaID.String(),
		Total:        v.Total,
		Estado:       v.Estado,
		EstadoFiscal: v.EstadoFiscal,
		CAE:          v.CAE,
		Items:        items,
		Pagos:        pagos,
		Fecha:        v.Fecha.UTC().Format(time.RFC3339),
	}
	if v.ClienteID != nil {
		cid := v.ClienteID.String()
		resp.ClienteID = &cid
	}
	return resp
}
