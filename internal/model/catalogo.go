package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reference catalog collections: small, low-churn, fully mirrored from the
// cloud on every sync cycle. They are also the collections most exposed to
// duplicate creation (two offline registers inventing the same "Bebidas"
// category), so each carries a normalized-name index used by fusion.

type Categoria struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre            string    `gorm:"not null" json:"nombre"`
	NombreNormalizado string    `gorm:"index;not null" json:"-"`
	Activo            bool      `gorm:"not null;default:true" json:"activo"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	SyncMeta
}

// TableName pins the Spanish plural: GORM's English inflector mangles several
// of these model names (it would produce "proveedors"), so every model is
// explicit.
func (Categoria) TableName() string { return "categorias" }

func (c *Categoria) BeforeSave(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.NombreNormalizado = NormalizarNombre(c.Nombre)
	return nil
}

func (c *Categoria) DocID() string { return c.ID.String() }

func (c *Categoria) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	c.ID = parsed
	return nil
}

type Marca struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre            string    `gorm:"not null" json:"nombre"`
	NombreNormalizado string    `gorm:"index;not null" json:"-"`
	Activo            bool      `gorm:"not null;default:true" json:"activo"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	SyncMeta
}

func (Marca) TableName() string { return "marcas" }

func (m *Marca) BeforeSave(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.NombreNormalizado = NormalizarNombre(m.Nombre)
	return nil
}

func (m *Marca) DocID() string { return m.ID.String() }

func (m *Marca) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	m.ID = parsed
	return nil
}

type Proveedor struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre            string    `gorm:"not null" json:"nombre"`
	NombreNormalizado string    `gorm:"index;not null" json:"-"`
	CUIT              *string   `gorm:"type:varchar(20)" json:"cuit,omitempty"`
	Telefono          *string   `json:"telefono,omitempty"`
	Email             *string   `json:"email,omitempty"`
	Activo            bool      `gorm:"not null;default:true" json:"activo"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	SyncMeta
}

func (Proveedor) TableName() string { return "proveedores" }

func (p *Proveedor) BeforeSave(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.NombreNormalizado = NormalizarNombre(p.Nombre)
	return nil
}

func (p *Proveedor) DocID() string { return p.ID.String() }

func (p *Proveedor) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	p.ID = parsed
	return nil
}
