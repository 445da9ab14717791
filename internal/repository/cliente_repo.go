package repository

import (
	"context"

	"almapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	List(ctx context.Context, search string) ([]model.Cliente, error)
	Update(ctx context.Context, c *model.Cliente) error

	// RegistrarMovimiento appends a ledger entry and applies its delta to the
	// cached Saldo in one transaction. Saldo is derived state and must never
	// drift from the ledger.
	RegistrarMovimiento(ctx context.Context, m *model.MovimientoCliente) error
	RegistrarMovimientoTx(tx *gorm.DB, m *model.MovimientoCliente) error
	ListMovimientos(ctx context.Context, clienteID uuid.UUID) ([]model.MovimientoCliente, error)
	DB() *gorm.DB
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) DB() *gorm.DB { return r.db }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clienteRepo) List(ctx context.Context, search string) ([]model.Cliente, error) {
	var clientes []model.Cliente
	q := r.db.WithContext(ctx).Where("activo = ?", true)
	if search != "" {
		q = q.Where("nombre_normalizado LIKE ?", "%"+model.NormalizarNombre(search)+"%")
	}
	err := q.Order("nombre ASC").Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	c.SyncStatus = model.SyncPendiente
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clienteRepo) RegistrarMovimiento(ctx context.Context, m *model.MovimientoCliente) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.RegistrarMovimientoTx(tx, m)
	})
}

func (r *clienteRepo) RegistrarMovimientoTx(tx *gorm.DB, m *model.MovimientoCliente) error {
	if err := tx.Create(m).Error; err != nil {
		return err
	}
	return tx.Model(&model.Cliente{}).Where("id = ?", m.ClienteID).
		Updates(map[string]any{
			"saldo":       gorm.Expr("saldo + ?", m.Delta()),
			"sync_status": model.SyncPendiente,
		}).Error
}

func (r *clienteRepo) ListMovimientos(ctx context.Context, clienteID uuid.UUID) ([]model.MovimientoCliente, error) {
	var movs []model.MovimientoCliente
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).Order("fecha ASC").Find(&movs).Error
	return movs, err
}
