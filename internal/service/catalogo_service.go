package service

import (
	"context"

	"almapos/internal/dto"
	"almapos/internal/model"
	"almapos/internal/repository"

	"github.com/google/uuid"
)

// CatalogoService covers the three name-keyed reference collections. They
// share the same shape, so one service front-ends the three repositories.
type CatalogoService interface {
	CrearCategoria(ctx context.Context, req dto.CrearNombreRequest) (*dto.NombreResponse, error)
	ListarCategorias(ctx context.Context) ([]dto.NombreResponse, error)
	DesactivarCategoria(ctx context.Context, id uuid.UUID) error

	CrearMarca(ctx context.Context, req dto.CrearNombreRequest) (*dto.NombreResponse, error)
	ListarMarcas(ctx context.Context) ([]dto.NombreResponse, error)
	DesactivarMarca(ctx context.Context, id uuid.UUID) error

	CrearProveedor(ctx context.Context, req dto.CrearNombreRequest) (*dto.NombreResponse, error)
	ListarProveedores(ctx context.Context) ([]dto.NombreResponse, error)
	DesactivarProveedor(ctx context.Context, id uuid.UUID) error
}

type catalogoService struct {
	categorias  repository.CategoriaRepository
	marcas      repository.MarcaRepository
	proveedores repository.ProveedorRepository
}

func NewCatalogoService(
	categorias repository.CategoriaRepository,
	marcas repository.MarcaRepository,
	proveedores repository.ProveedorRepository,
) CatalogoService {
	return &catalogoService{categorias: categorias, marcas: marcas, proveedores: proveedores}
}

func (s *catalogoService) CrearCategoria(ctx context.Context, req dto.CrearNombreRequest) (*dto.NombreResponse, error) {
	c := &model.Categoria{Nombre: req.Nombre, Activo: true}
	if err := s.categorias.Create(ctx, c); err != nil {
		return nil, err
	}
	return &dto.NombreResponse{ID: c.ID.String(), Nombre: c.Nombre, Activo: c.Activo}, nil
}

func (s *catalogoService) ListarCategorias(ctx context.Context) ([]dto.NombreResponse, error) {
	cats, err := s.categorias.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.NombreResponse, len(cats))
	for i, c := range cats {
		resp[i] = dto.NombreResponse{ID: c.ID.String(), Nombre: c.Nombre, Activo: c.Activo}
	}
	return resp, nil
}

func (s *catalogoService) DesactivarCategoria(ctx context.Context, id uuid.UUID) error {
	return s.categorias.SoftDelete(ctx, id)
}

func (s *catalogoService) CrearMarca(ctx context.Context, req dto.CrearNombreRequest) (*dto.NombreResponse, error) {
	m := &model.Marca{Nombre: req.Nombre, Activo: true}
	if err := s.marcas.Create(ctx, m); err != nil {
		return nil, err
	}
	return &dto.NombreResponse{ID: m.ID.String(), Nombre: m.Nombre, Activo: m.Activo}, nil
}

func (s *catalogoService) ListarMarcas(ctx context.Context) ([]dto.NombreResponse, error) {
	marcas, err := s.marcas.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.NombreResponse, len(marcas))
	for i, m := range marcas {
		resp[i] = dto.NombreResponse{ID: m.ID.String(), Nombre: m.Nombre, Activo: m.Activo}
	}
	return resp, nil
}

func (s *catalogoService) DesactivarMarca(ctx context.Context, id uuid.UUID) error {
	return s.marcas.SoftDelete(ctx, id)
}

func (s *catalogoService) CrearProveedor(ctx context.Context, req dto.CrearNombreRequest) (*dto.NombreResponse, error) {
	p := &model.Proveedor{Nombre: req.Nombre, Activo: true}
	if err := s.proveedores.Create(ctx, p); err != nil {
		return nil, err
	}
	return &dto.NombreResponse{ID: p.ID.String(), Nombre: p.Nombre, Activo: p.Activo}, nil
}

func (s *catalogoService) ListarProveedores(ctx context.Context) ([]dto.NombreResponse, error) {
	provs, err := s.proveedores.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.NombreResponse, len(provs))
	for i, p := range provs {
		resp[i] = dto.NombreResponse{ID: p.ID.String(), Nombre: p.Nombre, Activo: p.Activo}
	}
	return resp, nil
}

func (s *catalogoService) DesactivarProveedor(ctx context.Context, id uuid.UUID) error {
	return s.proveedores.SoftDelete(ctx, id)
}
