package repository

import (
	"context"
	"time"

	"almapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockRepository is the kardex: append-only, like the cash ledger.
type MovimientoStockRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoStock) error
	ListByProducto(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error)
	ListPorRango(ctx context.Context, desde, hasta time.Time) ([]model.MovimientoStock, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}

func (r *movimientoStockRepo) ListByProducto(ctx context.Context, productoID uuid.UUID, limit int) ([]model.MovimientoStock, error) {
	var movs []model.MovimientoStock
	q := r.db.WithContext(ctx).Where("producto_id = ?", productoID).Order("fecha DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movs).Error
	return movs, err
}

func (r *movimientoStockRepo) ListPorRango(ctx context.Context, desde, hasta time.Time) ([]model.MovimientoStock, error) {
	var movs []model.MovimientoStock
	err := r.db.WithContext(ctx).
		Where("fecha >= ? AND fecha < ?", desde, hasta).
		Order("fecha ASC").Find(&movs).Error
	return movs, err
}
