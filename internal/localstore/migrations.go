package localstore

import (
	"fmt"

	"almapos/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// schemaInfo holds the single row recording the current schema version.
type schemaInfo struct {
	ID      int `gorm:"primaryKey"`
	Version int `gorm:"not null"`
}

func (schemaInfo) TableName() string { return "schema_info" }

// migration is one ordered schema step. Migrations are additive-only: they
// create collections, columns and indexes but never destructively alter
// existing data, so re-running any of them is harmless.
type migration struct {
	Version int
	Name    string
	Run     func(tx *gorm.DB) error
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "esquema inicial",
		Run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&model.Categoria{},
				&model.Marca{},
				&model.Proveedor{},
				&model.Producto{},
				&model.Cliente{},
				&model.Usuario{},
				&model.ConfigEntry{},
				&model.SesionCaja{},
				&model.MovimientoCaja{},
				&model.Venta{},
				&model.VentaItem{},
				&model.VentaPago{},
			)
		},
	},
	{
		Version: 2,
		Name:    "kardex y cuenta corriente",
		Run: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&model.MovimientoStock{},
				&model.MovimientoCliente{},
			)
		},
	},
	{
		Version: 3,
		Name:    "estado de sync explicito",
		// Legacy rows predating the sync_status column relied on "absent
		// means pending". Backfill once here so no query ever has to treat
		// absence as a third state again.
		Run: func(tx *gorm.DB) error {
			tables := []string{
				"categorias", "marcas", "proveedores", "productos", "clientes",
				"usuarios", "config", "sesiones_caja", "movimientos_caja",
				"ventas", "movimientos_stock",
			}
			for _, t := range tables {
				stmt := fmt.Sprintf(
					"UPDATE %s SET sync_status = 'pending' WHERE sync_status IS NULL OR sync_status = ''", t)
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("backfill %s: %w", t, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies every migration whose version exceeds the stored schema
// version, in ascending order, each inside its own transaction. The version
// row is updated in the same transaction as the migration body, so a crash
// mid-migration re-runs that step on next open.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schemaInfo{}); err != nil {
		return fmt.Errorf("schema_info: %w", err)
	}

	var info schemaInfo
	if err := db.FirstOrCreate(&info, schemaInfo{ID: 1}).Error; err != nil {
		return fmt.Errorf("leer version de esquema: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= info.Version {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Run(tx); err != nil {
				return err
			}
			return tx.Model(&schemaInfo{}).Where("id = ?", 1).
				Update("version", m.Version).Error
		})
		if err != nil {
			return fmt.Errorf("migracion %d (%s): %w", m.Version, m.Name, err)
		}
		info.Version = m.Version
		log.Info().Int("version", m.Version).Str("nombre", m.Name).Msg("migracion aplicada")
	}
	return nil
}

// SchemaVersion returns the currently applied schema version (for /health).
func SchemaVersion(db *gorm.DB) int {
	var info schemaInfo
	if err := db.First(&info, 1).Error; err != nil {
		return 0
	}
	return info.Version
}
