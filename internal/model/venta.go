package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Venta lifecycle states.
const (
	VentaCompletada = "completada"
	VentaAnulada    = "anulada"
)

// Fiscal states. "omitido" means the operator chose not to issue a fiscal
// receipt; "pendiente" ventas are queued for the AFIP worker and promoted to
// "aprobado" when the sidecar returns a CAE.
const (
	FiscalOmitido   = "omitido"
	FiscalPendiente = "pendiente"
	FiscalAprobado  = "aprobado"
	FiscalError     = "error"
)

// Venta is a completed sale. Its local id doubles as the cloud document key,
// so re-uploading after a partial failure re-sends the same document instead
// of duplicating it.
type Venta struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sesion_caja_id"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null" json:"usuario_id"`
	ClienteID    *uuid.UUID      `gorm:"type:uuid;index" json:"cliente_id,omitempty"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Estado       string          `gorm:"type:varchar(12);not null;default:'completada'" json:"estado"`
	Fecha        time.Time       `gorm:"index;not null" json:"fecha"`

	// Fiscal result, populated by the AFIP worker from the sidecar response.
	EstadoFiscal   string     `gorm:"type:varchar(10);not null;default:'omitido'" json:"estado_fiscal"`
	CAE            *string    `gorm:"type:varchar(20);column:cae" json:"cae,omitempty"`
	CAEVencimiento *time.Time `gorm:"column:cae_vencimiento" json:"cae_vencimiento,omitempty"`
	NumeroCbte     *int64     `json:"numero_cbte,omitempty"`
	TipoCbte       *int       `json:"tipo_cbte,omitempty"`
	QRData         *string    `gorm:"column:qr_data" json:"qr_data,omitempty"`
	FiscalIntentos int        `gorm:"not null;default:0" json:"-"`
	FiscalError    *string    `json:"-"`

	SyncMeta

	Items []VentaItem `gorm:"foreignKey:VentaID" json:"items"`
	Pagos []VentaPago `gorm:"foreignKey:VentaID" json:"pagos"`
}

func (v *Venta) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

func (Venta) TableName() string { return "ventas" }

func (v *Venta) DocID() string { return v.ID.String() }

func (v *Venta) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	v.ID = parsed
	return nil
}

type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null" json:"producto_id"`
	Nombre         string          `gorm:"not null" json:"nombre"`
	Cantidad       int             `gorm:"not null" json:"cantidad"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"precio_unitario"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
}

func (i *VentaItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// VentaPago is one leg of a sale's payment breakdown. Debe > 0 puts the
// remainder on the client's running account.
type VentaPago struct {
	ID      uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	VentaID uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Metodo  string          `gorm:"type:varchar(30);not null" json:"metodo"`
	Pagado  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"pagado"`
	Debe    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"debe"`
}

func (p *VentaPago) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
