package repository

import (
	"context"
	"errors"

	"almapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrSesionYaAbierta is returned by AbrirSesion when a shift is already
	// open on this device.
	ErrSesionYaAbierta = errors.New("ya existe una sesion de caja abierta")
	// ErrSesionNoAbierta is returned when an operation requires an open shift.
	ErrSesionNoAbierta = errors.New("la sesion de caja no esta abierta")
)

type CajaRepository interface {
	// AbrirSesion creates the session and its opening deposit atomically.
	// The no-open-session check runs inside the same transaction, so two
	// concurrent open requests cannot both succeed.
	AbrirSesion(ctx context.Context, s *model.SesionCaja, apertura *model.MovimientoCaja) error
	FindSesionAbierta(ctx context.Context) (*model.SesionCaja, error)
	FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	FindSesionTx(tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error)
	// CerrarSesionTx commits the closing snapshot with a guarded update: only
	// a session still abierta is touched, so of two concurrent closes exactly
	// one wins and the loser gets ErrSesionNoAbierta.
	CerrarSesionTx(tx *gorm.DB, s *model.SesionCaja) error
	// CreateMovimiento verifies the target session is abierta inside the
	// insert transaction. Closed sessions never grow new movements.
	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
	ListMovimientosTx(tx *gorm.DB, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error)
	DB() *gorm.DB
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) AbrirSesion(ctx context.Context, s *model.SesionCaja, apertura *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var abiertas int64
		if err := tx.Model(&model.SesionCaja{}).Where("estado = ?", model.SesionAbierta).Count(&abiertas).Error; err != nil {
			return err
		}
		if abiertas > 0 {
			return ErrSesionYaAbierta
		}
		if err := tx.Create(s).Error; err != nil {
			return err
		}
		apertura.SesionCajaID = s.ID
		return tx.Create(apertura).Error
	})
}

func (r *cajaRepo) FindSesionAbierta(ctx context.Context) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Where("estado = ?", model.SesionAbierta).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionTx(tx *gorm.DB, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	if err := tx.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) CerrarSesionTx(tx *gorm.DB, s *model.SesionCaja) error {
	res := tx.Model(&model.SesionCaja{}).
		Where("id = ? AND estado = ?", s.ID, model.SesionAbierta).
		Updates(map[string]any{
			"estado":          s.Estado,
			"monto_esperado":  s.MontoEsperado,
			"monto_declarado": s.MontoDeclarado,
			"desvio":          s.Desvio,
			"clasificacion":   s.Clasificacion,
			"observaciones":   s.Observaciones,
			"closed_at":       s.ClosedAt,
			"sync_status":     s.SyncStatus,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSesionNoAbierta
	}
	return nil
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.CreateMovimientoTx(tx, m)
	})
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	var s model.SesionCaja
	if err := tx.Select("estado").First(&s, "id = ?", m.SesionCajaID).Error; err != nil {
		return err
	}
	if s.Estado != model.SesionAbierta {
		return ErrSesionNoAbierta
	}
	return tx.Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	return r.ListMovimientosTx(r.db.WithContext(ctx), sesionCajaID)
}

func (r *cajaRepo) ListMovimientosTx(tx *gorm.DB, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := tx.Where("sesion_caja_id = ?", sesionCajaID).Order("fecha ASC").Find(&movs).Error
	return movs, err
}
