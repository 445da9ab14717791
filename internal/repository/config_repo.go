package repository

import (
	"context"

	"almapos/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ConfigRepository interface {
	Get(ctx context.Context, clave string) (*model.ConfigEntry, error)
	Set(ctx context.Context, clave, valor string) error
}

type configRepo struct{ db *gorm.DB }

func NewConfigRepository(db *gorm.DB) ConfigRepository { return &configRepo{db: db} }

func (r *configRepo) Get(ctx context.Context, clave string) (*model.ConfigEntry, error) {
	var e model.ConfigEntry
	err := r.db.WithContext(ctx).First(&e, "clave = ?", clave).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *configRepo) Set(ctx context.Context, clave, valor string) error {
	entry := model.ConfigEntry{
		Clave: clave,
		Valor: valor,
		SyncMeta: model.SyncMeta{
			SyncStatus: model.SyncPendiente,
		},
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "clave"}},
		DoUpdates: clause.AssignmentColumns([]string{"valor", "sync_status", "updated_at"}),
	}).Create(&entry).Error
}
