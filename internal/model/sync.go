package model

import (
	"strings"
	"time"
)

// Sync status values. Every replicated record carries exactly one of these —
// there is no implicit third state: legacy rows with an empty status are
// backfilled to "pending" at schema-upgrade time (see localstore migrations).
const (
	SyncPendiente    = "pending"
	SyncSincronizado = "synced"
)

// SyncMeta is embedded in every record that replicates to the cloud store.
// The local store is the sole authority on unsynced state; presence of a
// document in the cloud implies synced-by-definition, so these fields never
// travel on the wire.
type SyncMeta struct {
	SyncStatus string     `gorm:"type:varchar(10);not null;default:'pending';index" json:"sync_status"`
	SyncedAt   *time.Time `json:"synced_at,omitempty"`
	// CloudID is the cloud document key. It equals the record's own id except
	// after a duplicate fusion, where the record is re-keyed under the
	// canonical cloud identifier.
	CloudID *string `gorm:"type:varchar(40)" json:"cloud_id,omitempty"`
}

// MarkSynced stamps the record as durably mirrored. Only the sync engine
// calls this, after the corresponding cloud batch has committed.
func (m *SyncMeta) MarkSynced(docID string, at time.Time) {
	m.SyncStatus = SyncSincronizado
	m.SyncedAt = &at
	m.CloudID = &docID
}

// Pendiente reports whether the record still needs upload. An empty status
// (pre-migration data) counts as pending.
func (m *SyncMeta) Pendiente() bool {
	return m.SyncStatus != SyncSincronizado
}

// NormalizarNombre canonicalizes a display name for duplicate detection:
// two records represent the same real-world entity when their trimmed,
// case-folded names match.
func NormalizarNombre(nombre string) string {
	return strings.ToLower(strings.TrimSpace(nombre))
}
