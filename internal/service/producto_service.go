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

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	PorCodigoBarras(ctx context.Context, codigo string) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, search string) ([]dto.ProductoResponse, error)
	AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo      repository.ProductoRepository
	stockRepo repository.MovimientoStockRepository
}

func NewProductoService(repo repository.ProductoRepository, stockRepo repository.MovimientoStockRepository) ProductoService {
	return &productoService{repo: repo, stockRepo: stockRepo}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		Nombre:       req.Nombre,
		CodigoBarras: req.CodigoBarras,
		PrecioCosto:  req.PrecioCosto,
		PrecioVenta:  req.PrecioVenta,
		Stock:        req.Stock,
		StockMinimo:  req.StockMinimo,
		Activo:       true,
	}
	var err error
	if p.CategoriaID, err = parseOptionalUUID(req.CategoriaID); err != nil {
		return nil, err
	}
	if p.MarcaID, err = parseOptionalUUID(req.MarcaID); err != nil {
		return nil, err
	}
	if p.ProveedorID, err = parseOptionalUUID(req.ProveedorID); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	return productoToResponse(p), nil
}

func (s *productoService) PorCodigoBarras(ctx context.Context, codigo string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, codigo)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, search string) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.List(ctx, search, true)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		resp = append(resp, *productoToResponse(&productos[i]))
	}
	return resp, nil
}

// AjustarStock writes the adjustment and its kardex entry in one transaction.
func (s *productoService) AjustarStock(ctx context.Context, id uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	tipo := "reposicion"
	if req.Delta < 0 {
		tipo = "ajuste"
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateStockTx(tx, id, req.Delta); err != nil {
			return err
		}
		return s.stockRepo.CreateTx(tx, &model.MovimientoStock{
			ProductoID:    id,
			Tipo:          tipo,
			Cantidad:      req.Delta,
			StockAnterior: p.Stock,
			StockNuevo:    p.Stock + req.Delta,
			Motivo:        req.Motivo,
			Fecha:         time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.Obtener(ctx, id)
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func parseOptionalUUID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	resp := &dto.ProductoResponse{
		ID:           p.ID.String(),
		Nombre:       p.Nombre,
		CodigoBarras: p.CodigoBarras,
		PrecioCosto:  p.PrecioCosto,
		PrecioVenta:  p.PrecioVenta,
		Stock:        p.Stock,
		StockMinimo:  p.StockMinimo,
		Activo:       p.Activo,
	}
	if p.CategoriaID != nil {
		s := p.CategoriaID.String()
		resp.CategoriaID = &s
	}
	if p.MarcaID != nil {
		s := p.MarcaID.String()
		resp.MarcaID = &s
	}
	if p.ProveedorID != nil {
		s := p.ProveedorID.String()
		resp.ProveedorID = &s
	}
	return resp
}
