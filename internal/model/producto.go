package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Producto is part of the mirrored reference catalog. Products are never
// hard-deleted: deactivation flips Activo so that historic ventas keep a
// resolvable reference, and the upload pass propagates Activo=false instead
// of removing the cloud document.
type Producto struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CodigoBarras      *string         `gorm:"index" json:"codigo_barras,omitempty"`
	Nombre            string          `gorm:"index;not null" json:"nombre"`
	NombreNormalizado string          `gorm:"index;not null" json:"-"`
	CategoriaID       *uuid.UUID      `gorm:"type:uuid;index" json:"categoria_id,omitempty"`
	MarcaID           *uuid.UUID      `gorm:"type:uuid;index" json:"marca_id,omitempty"`
	ProveedorID       *uuid.UUID      `gorm:"type:uuid;index" json:"proveedor_id,omitempty"`
	PrecioCosto       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"precio_costo"`
	PrecioVenta       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"precio_venta"`
	Stock             int             `gorm:"not null;default:0" json:"stock"`
	StockMinimo       int             `gorm:"not null;default:0" json:"stock_minimo"`
	Activo            bool            `gorm:"not null;default:true" json:"activo"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	SyncMeta
}

func (p *Producto) BeforeSave(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.NombreNormalizado = NormalizarNombre(p.Nombre)
	return nil
}

func (Producto) TableName() string { return "productos" }

func (p *Producto) DocID() string { return p.ID.String() }

func (p *Producto) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	p.ID = parsed
	return nil
}
