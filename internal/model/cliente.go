package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Client account ledger entry types. "venta_debito" increases the balance
// owed, "pago" decreases it.
const (
	CtaVentaDebito = "venta_debito"
	CtaPago        = "pago"
)

// Cliente carries a cached running account balance. Saldo is derived state:
// it must always equal the sum of the client's ledger entries to date, so
// every write pairs a MovimientoCliente insert with the Saldo update inside
// one store transaction.
type Cliente struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre            string          `gorm:"index;not null" json:"nombre"`
	NombreNormalizado string          `gorm:"index;not null" json:"-"`
	Documento         *string         `gorm:"type:varchar(20)" json:"documento,omitempty"`
	Telefono          *string         `json:"telefono,omitempty"`
	Email             *string         `json:"email,omitempty"`
	Saldo             decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"saldo"`
	Activo            bool            `gorm:"not null;default:true" json:"activo"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	SyncMeta

	Movimientos []MovimientoCliente `gorm:"foreignKey:ClienteID" json:"-"`
}

func (c *Cliente) BeforeSave(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.NombreNormalizado = NormalizarNombre(c.Nombre)
	return nil
}

func (Cliente) TableName() string { return "clientes" }

func (c *Cliente) DocID() string { return c.ID.String() }

func (c *Cliente) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	c.ID = parsed
	return nil
}

// MovimientoCliente is one signed entry in a client's account ledger.
type MovimientoCliente struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClienteID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"cliente_id"`
	Tipo        string          `gorm:"type:varchar(15);not null" json:"tipo"`
	Monto       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto"`
	VentaID     *uuid.UUID      `gorm:"type:uuid" json:"venta_id,omitempty"`
	Descripcion string          `json:"descripcion"`
	Fecha       time.Time       `gorm:"index" json:"fecha"`
}

func (m *MovimientoCliente) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (MovimientoCliente) TableName() string { return "movimientos_cliente" }

// Delta returns the signed effect of this entry on the client's balance.
func (m *MovimientoCliente) Delta() decimal.Decimal {
	if m.Tipo == CtaPago {
		return m.Monto.Neg()
	}
	return m.Monto
}
