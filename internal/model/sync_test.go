package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizarNombre(t *testing.T) {
	cases := map[string]string{
		"Bebidas":    "bebidas",
		"bebidas ":   "bebidas",
		"  BEBIDAS ": "bebidas",
		"Coca-Cola":  "coca-cola",
		"":           "",
		"   ":        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizarNombre(in), "entrada %q", in)
	}
}

func TestSyncMetaPendiente(t *testing.T) {
	var m SyncMeta
	assert.True(t, m.Pendiente(), "el estado vacio cuenta como pendiente")

	m.SyncStatus = SyncPendiente
	assert.True(t, m.Pendiente())

	at := time.Now().UTC()
	m.MarkSynced("doc-123", at)
	assert.False(t, m.Pendiente())
	assert.Equal(t, SyncSincronizado, m.SyncStatus)
	require.NotNil(t, m.CloudID)
	assert.Equal(t, "doc-123", *m.CloudID)
	require.NotNil(t, m.SyncedAt)
	assert.Equal(t, at, *m.SyncedAt)
}
