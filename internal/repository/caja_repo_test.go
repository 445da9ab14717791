package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"almapos/internal/localstore"
	"almapos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := localstore.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	return db
}

func abrirSesion(t *testing.T, repo CajaRepository, monto int64) *model.SesionCaja {
	t.Helper()
	now := time.Now().UTC()
	sesion := &model.SesionCaja{
		UsuarioID:    uuid.New(),
		Estado:       model.SesionAbierta,
		MontoInicial: decimal.NewFromInt(monto),
		OpenedAt:     now,
	}
	apertura := &model.MovimientoCaja{
		Tipo: model.MovIngreso, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(monto), Apertura: true, Fecha: now,
	}
	require.NoError(t, repo.AbrirSesion(context.Background(), sesion, apertura))
	return sesion
}

func cierreDe(sesion *model.SesionCaja, declarado int64) *model.SesionCaja {
	monto := decimal.NewFromInt(declarado)
	desvio := decimal.Zero
	clasificacion := model.DesvioNormal
	now := time.Now().UTC()

	cerrada := *sesion
	cerrada.Estado = model.SesionCerrada
	cerrada.MontoEsperado = &monto
	cerrada.MontoDeclarado = &monto
	cerrada.Desvio = &desvio
	cerrada.Clasificacion = &clasificacion
	cerrada.ClosedAt = &now
	cerrada.SyncStatus = model.SyncPendiente
	return &cerrada
}

func TestCerrarSesionSoloGanaElPrimero(t *testing.T) {
	db := testDB(t)
	repo := NewCajaRepository(db)
	sesion := abrirSesion(t, repo, 1000)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CerrarSesionTx(tx, cierreDe(sesion, 1000))
	})
	require.NoError(t, err)

	// El update condicionado no encuentra una sesion abierta: el segundo
	// cierre pierde en vez de pisar lo que declaro el primero.
	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.CerrarSesionTx(tx, cierreDe(sesion, 555))
	})
	assert.ErrorIs(t, err, ErrSesionNoAbierta)

	guardada, err := repo.FindSesionByID(context.Background(), sesion.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SesionCerrada, guardada.Estado)
	require.NotNil(t, guardada.MontoDeclarado)
	assert.True(t, guardada.MontoDeclarado.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, model.SyncPendiente, guardada.SyncStatus)
}

func TestCerrarSesionTxRechazaMovimientosPosteriores(t *testing.T) {
	db := testDB(t)
	repo := NewCajaRepository(db)
	sesion := abrirSesion(t, repo, 1000)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.CerrarSesionTx(tx, cierreDe(sesion, 1000))
	}))

	err := repo.CreateMovimiento(context.Background(), &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         model.MovIngreso,
		MetodoPago:   "efectivo",
		Monto:        decimal.NewFromInt(50),
		Descripcion:  "tarde",
		Fecha:        time.Now().UTC(),
	})
	assert.ErrorIs(t, err, ErrSesionNoAbierta)
}

func TestAbrirSesionConOtraAbiertaFalla(t *testing.T) {
	db := testDB(t)
	repo := NewCajaRepository(db)
	abrirSesion(t, repo, 1000)

	sesion := &model.SesionCaja{
		UsuarioID:    uuid.New(),
		Estado:       model.SesionAbierta,
		MontoInicial: decimal.NewFromInt(200),
		OpenedAt:     time.Now().UTC(),
	}
	apertura := &model.MovimientoCaja{
		Tipo: model.MovIngreso, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(200), Apertura: true, Fecha: time.Now().UTC(),
	}
	err := repo.AbrirSesion(context.Background(), sesion, apertura)
	assert.ErrorIs(t, err, ErrSesionYaAbierta)
}
