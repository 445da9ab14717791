package model

import "time"

// Well-known config keys.
const (
	ConfigMasterPIN = "master_pin"
)

// ConfigEntry is a key/value pair replicated through the same sync machinery
// as any other collection, keyed by Clave instead of a generated id. The
// master PIN travels here as a bcrypt hash.
type ConfigEntry struct {
	Clave     string    `gorm:"primaryKey" json:"clave"`
	Valor     string    `gorm:"not null" json:"valor"`
	UpdatedAt time.Time `json:"updated_at"`
	SyncMeta
}

func (ConfigEntry) TableName() string { return "config" }

func (c *ConfigEntry) DocID() string { return c.Clave }

func (c *ConfigEntry) SetDocID(id string) error {
	c.Clave = id
	return nil
}
