package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Usuario is an operator account. Operators authenticate against the agent
// with a short numeric PIN; only the bcrypt hash is stored and replicated.
// Rol: "cajero" | "supervisor" | "administrador"
type Usuario struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Nombre    string    `gorm:"not null" json:"nombre"`
	PINHash   string    `gorm:"not null;column:pin_hash" json:"-"`
	Rol       string    `gorm:"type:varchar(20);not null" json:"rol"`
	Activo    bool      `gorm:"not null;default:true" json:"activo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SyncMeta
}

func (u *Usuario) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (Usuario) TableName() string { return "usuarios" }

func (u *Usuario) DocID() string { return u.ID.String() }

func (u *Usuario) SetDocID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	u.ID = parsed
	return nil
}
