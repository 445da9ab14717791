package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SesionCaja states. A session is opened once, closed once, and a closed
// session is terminal — it is never reopened or mutated further.
const (
	SesionAbierta = "abierta"
	SesionCerrada = "cerrada"
)

// MovimientoCaja types. "ingreso" and "egreso" are manual drawer operations,
// "venta" entries are appended by the sales flow, "gasto" records an expense
// paid from the drawer, and "anulacion" offsets the venta entries of a voided
// sale. Amounts are always positive; direction is carried by the type.
const (
	MovIngreso   = "ingreso"
	MovEgreso    = "egreso"
	MovVenta     = "venta"
	MovGasto     = "gasto"
	MovAnulacion = "anulacion"
)

// Deviation classification thresholds applied on close, as a percentage of
// the expected total.
const (
	DesvioNormal      = "normal"      // |desvio| <= 1%
	DesvioAdvertencia = "advertencia" // |desvio| <= 5%
	DesvioCritico     = "critico"     // > 5%, requires supervisor observations
)

// SesionCaja is one cash-register shift: the unit of cash accountability.
// At most one session is abierta on a device at any time (enforced inside a
// single store transaction by CajaRepository).
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Estado       string          `gorm:"type:varchar(10);not null;index" json:"estado"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto_inicial"`
	// Closing fields, nil while the session is abierta. MontoEsperado is
	// computed from the movement ledger only after the operator has declared
	// a blind count — it is never sent to the closing form beforehand.
	MontoEsperado  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"monto_esperado,omitempty"`
	MontoDeclarado *decimal.Decimal `gorm:"type:decimal(12,2)" json:"monto_declarado,omitempty"`
	Desvio         *decimal.Decimal `gorm:"type:decimal(12,2)" json:"desvio,omitempty"`
	Clasificacion  *string          `gorm:"type:varchar(20)" json:"clasificacion,omitempty"`
	Observaciones  *string          `json:"observaciones,omitempty"`
	OpenedAt       time.Time        `gorm:"index" json:"opened_at"`
	ClosedAt       *time.Time       `json:"closed_at,omitempty"`
	SyncMeta

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID" json:"-"`
}

func (s *SesionCaja) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

func (s *SesionCaja) DocID() string { return s.ID.String() }

func (s *SesionCaja) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	s.ID = parsed
	return nil
}

// MovimientoCaja is an immutable entry in the append-only cash ledger of one
// session. Movements are never updated or deleted; a mistake is corrected by
// inserting an offsetting movement.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;not null;index" json:"sesion_caja_id"`
	Tipo         string          `gorm:"type:varchar(10);not null" json:"tipo"`
	MetodoPago   string          `gorm:"type:varchar(30);not null" json:"metodo_pago"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto"`
	Descripcion  string          `json:"descripcion"`
	// Apertura marks the synthetic opening deposit created together with the
	// session. It seeds the drawer but is excluded from the additional-deposit
	// tallies of the balance report.
	Apertura     bool       `gorm:"not null;default:false" json:"apertura"`
	ReferenciaID *uuid.UUID `gorm:"type:uuid" json:"referencia_id,omitempty"`
	Fecha        time.Time  `gorm:"index" json:"fecha"`
	SyncMeta
}

func (m *MovimientoCaja) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }

func (m *MovimientoCaja) DocID() string { return m.ID.String() }

func (m *MovimientoCaja) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	m.ID = parsed
	return nil
}

// MetodoEsDigital classifies a payment method string. Card readers and wallet
// providers count as digital; everything else — including methods this code
// has never heard of — defaults to cash-in-drawer, so an unrecognized method
// can only make the expected drawer count too high, never hide money.
func MetodoEsDigital(metodo string) bool {
	m := strings.ToLower(strings.TrimSpace(metodo))
	if m == "point" {
		return true
	}
	for _, frag := range []string{"mercado", "clover", "card"} {
		if strings.Contains(m, frag) {
			return true
		}
	}
	return false
}
