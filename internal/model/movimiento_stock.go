package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStock is the kardex: one row per stock change, appended on every
// sale, manual adjustment, or restock. High-volume and time-indexed, so the
// sync engine downloads it with the time-windowed strategy instead of a full
// mirror.
type MovimientoStock struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductoID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"producto_id"`
	Tipo          string     `gorm:"type:varchar(20);not null" json:"tipo"` // "venta" | "ajuste" | "reposicion" | "anulacion"
	Cantidad      int        `gorm:"not null" json:"cantidad"`              // positive = entrada, negative = salida
	StockAnterior int        `gorm:"not null" json:"stock_anterior"`
	StockNuevo    int        `gorm:"not null" json:"stock_nuevo"`
	Motivo        string     `json:"motivo"`
	ReferenciaID  *uuid.UUID `gorm:"type:uuid" json:"referencia_id,omitempty"`
	Fecha         time.Time  `gorm:"index;not null" json:"fecha"`
	SyncMeta
}

// TableName overrides GORM's default pluralization.
func (MovimientoStock) TableName() string { return "movimientos_stock" }

func (m *MovimientoStock) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *MovimientoStock) DocID() string { return m.ID.String() }

func (m *MovimientoStock) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	m.ID = parsed
	return nil
}
