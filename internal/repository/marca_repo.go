package repository

import (
	"context"

	"almapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MarcaRepository interface {
	Create(ctx context.Context, m *model.Marca) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Marca, error)
	List(ctx context.Context) ([]model.Marca, error)
	Update(ctx context.Context, m *model.Marca) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type marcaRepo struct{ db *gorm.DB }

func NewMarcaRepository(db *gorm.DB) MarcaRepository { return &marcaRepo{db: db} }

func (r *marcaRepo) Create(ctx context.Context, m *model.Marca) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *marcaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Marca, error) {
	var m model.Marca
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *marcaRepo) List(ctx context.Context) ([]model.Marca, error) {
	var marcas []model.Marca
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("nombre ASC").Find(&marcas).Error
	return marcas, err
}

func (r *marcaRepo) Update(ctx context.Context, m *model.Marca) error {
	m.SyncStatus = model.SyncPendiente
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *marcaRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Marca{}).Where("id = ?", id).
		Updates(map[string]any{"activo": false, "sync_status": model.SyncPendiente}).Error
}
