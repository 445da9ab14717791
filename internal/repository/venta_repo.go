package repository

import (
	"context"
	"time"

	"almapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// ListPorRango returns non-voided sales of a session dated inside
	// [desde, hasta). The audit cross-check reads this window.
	ListPorRango(ctx context.Context, sesionCajaID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error)
	ListBySesion(ctx context.Context, sesionCajaID uuid.UUID) ([]model.Venta, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error
	// Fiscal queue accessors used by the billing worker.
	FindFiscalPendientes(ctx context.Context, maxIntentos, limit int) ([]model.Venta, error)
	UpdateFiscal(ctx context.Context, v *model.Venta) error
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return tx.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items").Preload("Pagos").First(&v, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) ListPorRango(ctx context.Context, sesionCajaID uuid.UUID, desde, hasta time.Time) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Preload("Pagos").
		Where("sesion_caja_id = ? AND estado <> ? AND fecha >= ? AND fecha < ?",
			sesionCajaID, model.VentaAnulada, desde, hasta).
		Order("fecha ASC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) ListBySesion(ctx context.Context, sesionCajaID uuid.UUID) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).Preload("Items").Preload("Pagos").
		Where("sesion_caja_id = ?", sesionCajaID).
		Order("fecha DESC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).
		Updates(map[string]any{"estado": estado, "sync_status": model.SyncPendiente}).Error
}

func (r *ventaRepo) FindFiscalPendientes(ctx context.Context, maxIntentos, limit int) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).Preload("Items").Preload("Pagos").
		Where("estado_fiscal = ? AND fiscal_intentos < ?", model.FiscalPendiente, maxIntentos).
		Order("fecha ASC").
		Limit(limit).
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) UpdateFiscal(ctx context.Context, v *model.Venta) error {
	return r.db.WithContext(ctx).Model(v).Updates(map[string]any{
		"estado_fiscal":   v.EstadoFiscal,
		"cae":             v.CAE,
		"cae_vencimiento": v.CAEVencimiento,
		"numero_cbte":     v.NumeroCbte,
		"tipo_cbte":       v.TipoCbte,
		"qr_data":         v.QRData,
		"fiscal_intentos": v.FiscalIntentos,
		"fiscal_error":    v.FiscalError,
		"sync_status":     model.SyncPendiente,
	}).Error
}
