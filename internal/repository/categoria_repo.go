package repository

import (
	"context"

	"almapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CategoriaRepository interface {
	Create(ctx context.Context, c *model.Categoria) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Categoria, error)
	List(ctx context.Context) ([]model.Categoria, error)
	Update(ctx context.Context, c *model.Categoria) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type categoriaRepo struct{ db *gorm.DB }

func NewCategoriaRepository(db *gorm.DB) CategoriaRepository { return &categoriaRepo{db: db} }

func (r *categoriaRepo) Create(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoriaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByNombre matches on the normalized name, the same key fusion uses.
func (r *categoriaRepo) FindByNombre(ctx context.Context, nombre string) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).Where("nombre_normalizado = ?", model.NormalizarNombre(nombre)).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepo) List(ctx context.Context) ([]model.Categoria, error) {
	var cats []model.Categoria
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("nombre ASC").Find(&cats).Error
	return cats, err
}

func (r *categoriaRepo) Update(ctx context.Context, c *model.Categoria) error {
	c.SyncStatus = model.SyncPendiente
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoriaRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Categoria{}).Where("id = ?", id).
		Updates(map[string]any{"activo": false, "sync_status": model.SyncPendiente}).Error
}
