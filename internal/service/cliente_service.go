package service

import (
	"context"
	"errors"
	"time"

	"almapos/internal/dto"
	"almapos/internal/model"
	"almapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, search string) ([]dto.ClienteResponse, error)
	// RegistrarPago settles part of the client's debt. The money enters the
	// open session's drawer and the client ledger in one transaction.
	RegistrarPago(ctx context.Context, clienteID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.ClienteResponse, error)
	Movimientos(ctx context.Context, clienteID uuid.UUID) ([]dto.MovimientoClienteResponse, error)
}

type clienteService struct {
	repo     repository.ClienteRepository
	cajaRepo repository.CajaRepository
}

func NewClienteService(repo repository.ClienteRepository, cajaRepo repository.CajaRepository) ClienteService {
	return &clienteService{repo: repo, cajaRepo: cajaRepo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	cliente := &model.Cliente{
		Nombre:    req.Nombre,
		Documento: req.Documento,
		Telefono:  req.Telefono,
		Email:     req.Email,
		Activo:    true,
	}
	if err := s.repo.Create(ctx, cliente); err != nil {
		return nil, err
	}
	return clienteToResponse(cliente), nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	cliente, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}
	return clienteToResponse(cliente), nil
}

func (s *clienteService) Listar(ctx context.Context, search string) ([]dto.ClienteResponse, error) {
	clientes, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		resp = append(resp, *clienteToResponse(&clientes[i]))
	}
	return resp, nil
}

func (s *clienteService) RegistrarPago(ctx context.Context, clienteID uuid.UUID, req dto.RegistrarPagoRequest) (*dto.ClienteResponse, error) {
	if !req.Monto.IsPositive() {
		return nil, ErrMontoInvalido
	}
	sesion, err := s.cajaRepo.FindSesionAbierta(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrSesionNoAbierta
		}
		return nil, err
	}
	cliente, err := s.repo.FindByID(ctx, clienteID)
	if err != nil {
		return nil, errors.New("cliente no encontrado")
	}

	now := time.Now().UTC()
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.RegistrarMovimientoTx(tx, &model.MovimientoCliente{
			ClienteID:   cliente.ID,
			Tipo:        model.CtaPago,
			Monto:       req.Monto,
			Descripcion: "Pago en cuenta corriente",
			Fecha:       now,
		}); err != nil {
			return err
		}
		return s.cajaRepo.CreateMovimientoTx(tx, &model.MovimientoCaja{
			SesionCajaID: sesion.ID,
			Tipo:         model.MovIngreso,
			MetodoPago:   req.MetodoPago,
			Monto:        req.Monto,
			Descripcion:  "Pago de cliente: " + cliente.Nombre,
			Fecha:        now,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, clienteID)
}

func (s *clienteService) Movimientos(ctx context.Context, clienteID uuid.UUID) ([]dto.MovimientoClienteResponse, error) {
	movs, err := s.repo.ListMovimientos(ctx, clienteID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MovimientoClienteResponse, 0, len(movs))
	for _, m := range movs {
		item := dto.MovimientoClienteResponse{
			ID:          m.ID.String(),
			Tipo:        m.Tipo,
			Monto:       m.Monto,
			Descripcion: m.Descripcion,
			Fecha:       m.Fecha.UTC().Format(time.RFC3339),
		}
		if m.VentaID != nil {
			vid := m.VentaID.String()
			item.VentaID = &vid
		}
		resp = append(resp, item)
	}
	return resp, nil
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:        c.ID.String(),
		Nombre:    c.Nombre,
		Documento: c.Documento,
		Telefono:  c.Telefono,
		Email:     c.Email,
		Saldo:     c.Saldo,
	}
}
