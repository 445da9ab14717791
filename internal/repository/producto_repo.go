package repository

import (
	"context"
	"fmt"

	"almapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error)
	List(ctx context.Context, search string, soloActivos bool) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// UpdateStockTx adjusts stock by delta inside an open transaction and
	// leaves the row pending re-upload.
	UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error

	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("codigo_barras = ? AND activo = ?", barcode, true).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context, search string, soloActivos bool) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx).Model(&model.Producto{})
	if soloActivos {
		q = q.Where("activo = ?", true)
	}
	if search != "" {
		like := "%" + model.NormalizarNombre(search) + "%"
		q = q.Where("nombre_normalizado LIKE ? OR codigo_barras = ?", like, search)
	}
	err := q.Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	p.SyncStatus = model.SyncPendiente
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).
		Updates(map[string]any{"activo": false, "sync_status": model.SyncPendiente})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	res := tx.Model(&model.Producto{}).Where("id = ?", id).
		Updates(map[string]any{
			"stock":       gorm.Expr("stock + ?", delta),
			"sync_status": model.SyncPendiente,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("producto %s no encontrado", id)
	}
	return nil
}
