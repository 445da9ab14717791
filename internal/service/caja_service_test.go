package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"almapos/internal/dto"
	"almapos/internal/model"
	"almapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCajaFixture() (CajaService, *fakeCajaRepo, *fakeVentaRepo) {
	cajaRepo := newFakeCajaRepo()
	ventaRepo := &fakeVentaRepo{}
	return NewCajaService(cajaRepo, ventaRepo, nil), cajaRepo, ventaRepo
}

func abrirCaja(t *testing.T, svc CajaService, monto int64) uuid.UUID {
	t.Helper()
	resp, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		MontoInicial: decimal.NewFromInt(monto),
	})
	require.NoError(t, err)
	id, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	return id
}

func TestAbrirCreaDepositoDeApertura(t *testing.T) {
	svc, repo, _ := newCajaFixture()

	sesionID := abrirCaja(t, svc, 1000)

	movs, err := repo.ListMovimientos(context.Background(), sesionID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Apertura)
	assert.Equal(t, model.MovIngreso, movs[0].Tipo)
	assert.Equal(t, "efectivo", movs[0].MetodoPago)
	assert.True(t, movs[0].Monto.Equal(decimal.NewFromInt(1000)))
}

func TestAbrirConSesionAbiertaFalla(t *testing.T) {
	svc, _, _ := newCajaFixture()

	abrirCaja(t, svc, 1000)

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		MontoInicial: decimal.NewFromInt(500),
	})
	assert.ErrorIs(t, err, repository.ErrSesionYaAbierta)
}

func TestAbrirMontoNegativoFalla(t *testing.T) {
	svc, _, _ := newCajaFixture()

	_, err := svc.Abrir(context.Background(), uuid.New(), dto.AbrirCajaRequest{
		MontoInicial: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, ErrMontoInvalido)
}

func TestRegistrarMovimientoSinSesionFalla(t *testing.T) {
	svc, _, _ := newCajaFixture()

	err := svc.RegistrarMovimiento(context.Background(), dto.MovimientoManualRequest{
		Tipo:        model.MovIngreso,
		MetodoPago:  "efectivo",
		Monto:       decimal.NewFromInt(100),
		Descripcion: "deposito",
	})
	assert.ErrorIs(t, err, repository.ErrSesionNoAbierta)
}

func TestBalanceVentaEnEfectivoSumaAlTotal(t *testing.T) {
	svc, repo, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	require.NoError(t, repo.CreateMovimiento(context.Background(), &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         model.MovVenta,
		MetodoPago:   "efectivo",
		Monto:        decimal.NewFromInt(500),
		Fecha:        time.Now().UTC(),
	}))

	balance, err := svc.Balance(context.Background(), sesionID)
	require.NoError(t, err)
	assert.True(t, balance.VentasEfectivo.Equal(decimal.NewFromInt(500)))
	assert.True(t, balance.VentasDigitales.IsZero())
	assert.True(t, balance.IngresosExtra.IsZero(), "el deposito de apertura no cuenta como ingreso extra")
	assert.True(t, balance.TotalEfectivo.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 1, balance.CantidadVentas)
}

func TestBalanceVentaDigitalNoTocaElEfectivo(t *testing.T) {
	svc, repo, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	require.NoError(t, repo.CreateMovimiento(context.Background(), &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         model.MovVenta,
		MetodoPago:   "mercado pago",
		Monto:        decimal.NewFromInt(300),
		Fecha:        time.Now().UTC(),
	}))

	balance, err := svc.Balance(context.Background(), sesionID)
	require.NoError(t, err)
	assert.True(t, balance.VentasDigitales.Equal(decimal.NewFromInt(300)))
	assert.True(t, balance.VentasEfectivo.IsZero())
	assert.True(t, balance.TotalEfectivo.Equal(decimal.NewFromInt(1000)))
}

func TestBalanceDescuentaEgresosYGastos(t *testing.T) {
	svc, _, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	require.NoError(t, svc.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.MovIngreso, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(200), Descripcion: "cambio extra",
	}))
	require.NoError(t, svc.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.MovEgreso, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(150), Descripcion: "retiro a tesoreria",
	}))
	require.NoError(t, svc.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.MovGasto, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(50), Descripcion: "compra de bolsas",
	}))

	balance, err := svc.Balance(ctx, sesionID)
	require.NoError(t, err)
	assert.True(t, balance.IngresosExtra.Equal(decimal.NewFromInt(200)))
	assert.True(t, balance.Egresos.Equal(decimal.NewFromInt(150)))
	assert.True(t, balance.Gastos.Equal(decimal.NewFromInt(50)))
	// 1000 + 200 - 150 - 50
	assert.True(t, balance.TotalEfectivo.Equal(decimal.NewFromInt(1000)))
}

func TestCerrarClasificaElDesvio(t *testing.T) {
	svc, repo, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	require.NoError(t, repo.CreateMovimiento(ctx, &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         model.MovVenta,
		MetodoPago:   "efectivo",
		Monto:        decimal.NewFromInt(500),
		Fecha:        time.Now().UTC(),
	}))

	// Esperado 1500, declarado 1480: desvio -20 = -1.33%.
	cierre, err := svc.Cerrar(ctx, sesionID, dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(1480),
	})
	require.NoError(t, err)
	assert.True(t, cierre.MontoEsperado.Equal(decimal.NewFromInt(1500)))
	assert.True(t, cierre.Desvio.Monto.Equal(decimal.NewFromInt(-20)))
	assert.Equal(t, model.DesvioAdvertencia, cierre.Desvio.Clasificacion)
	assert.Equal(t, model.SesionCerrada, cierre.Estado)

	sesion, err := repo.FindSesionByID(ctx, sesionID)
	require.NoError(t, err)
	assert.Equal(t, model.SesionCerrada, sesion.Estado)
	require.NotNil(t, sesion.MontoDeclarado)
	assert.True(t, sesion.MontoDeclarado.Equal(decimal.NewFromInt(1480)))
	assert.Equal(t, model.SyncPendiente, sesion.SyncStatus)
}

func TestCerrarSinDesvioEsNormal(t *testing.T) {
	svc, _, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	cierre, err := svc.Cerrar(context.Background(), sesionID, dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, model.DesvioNormal, cierre.Desvio.Clasificacion)
	assert.True(t, cierre.Desvio.Monto.IsZero())
}

func TestCerrarDesvioCriticoExigeObservaciones(t *testing.T) {
	svc, _, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	_, err := svc.Cerrar(ctx, sesionID, dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(800),
	})
	assert.ErrorIs(t, err, ErrObservacionRequerida)

	obs := "faltante reportado al encargado"
	cierre, err := svc.Cerrar(ctx, sesionID, dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(800),
		Observaciones:  &obs,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DesvioCritico, cierre.Desvio.Clasificacion)
}

func TestCerrarSesionCerradaEsTerminal(t *testing.T) {
	svc, _, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	_, err := svc.Cerrar(ctx, sesionID, dto.CerrarCajaRequest{MontoDeclarado: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	_, err = svc.Cerrar(ctx, sesionID, dto.CerrarCajaRequest{MontoDeclarado: decimal.NewFromInt(1000)})
	assert.ErrorIs(t, err, repository.ErrSesionNoAbierta)

	// Tampoco acepta movimientos nuevos.
	err = svc.RegistrarMovimiento(ctx, dto.MovimientoManualRequest{
		Tipo: model.MovIngreso, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(10), Descripcion: "tarde",
	})
	assert.ErrorIs(t, err, repository.ErrSesionNoAbierta)
}

func TestCerrarEsperadoCeroConDeclaradoPositivo(t *testing.T) {
	svc, _, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 0)

	obs := "sobrante sin explicar"
	cierre, err := svc.Cerrar(context.Background(), sesionID, dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(50),
		Observaciones:  &obs,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DesvioCritico, cierre.Desvio.Clasificacion)
	assert.True(t, cierre.Desvio.Porcentaje.Equal(decimal.NewFromInt(100)))
}

func TestAuditoriaDetectaLedgerInconsistente(t *testing.T) {
	svc, repo, ventaRepo := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	now := time.Now().UTC()
	ventaRepo.ventas = append(ventaRepo.ventas, model.Venta{
		ID:           uuid.New(),
		SesionCajaID: sesionID,
		UsuarioID:    uuid.New(),
		Total:        decimal.NewFromInt(500),
		Estado:       model.VentaCompletada,
		Fecha:        now,
		Pagos: []model.VentaPago{
			{Metodo: "efectivo", Pagado: decimal.NewFromInt(500)},
		},
	})

	// Sin el movimiento espejo, los dos libros difieren en 500.
	audit, err := svc.Auditoria(ctx, sesionID)
	require.NoError(t, err)
	assert.False(t, audit.Consistente)
	assert.True(t, audit.Diferencia.Equal(decimal.NewFromInt(500)))

	require.NoError(t, repo.CreateMovimiento(ctx, &model.MovimientoCaja{
		SesionCajaID: sesionID,
		Tipo:         model.MovVenta,
		MetodoPago:   "efectivo",
		Monto:        decimal.NewFromInt(500),
		Fecha:        now,
	}))

	audit, err = svc.Auditoria(ctx, sesionID)
	require.NoError(t, err)
	assert.True(t, audit.Consistente)
	assert.True(t, audit.Diferencia.IsZero())
	assert.Equal(t, 1, audit.CantidadVentas)
}

func TestAuditoriaIgnoraVentasAnuladasYDigitales(t *testing.T) {
	svc, _, ventaRepo := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	now := time.Now().UTC()
	ventaRepo.ventas = append(ventaRepo.ventas,
		model.Venta{
			ID: uuid.New(), SesionCajaID: sesionID, UsuarioID: uuid.New(),
			Total: decimal.NewFromInt(200), Estado: model.VentaAnulada, Fecha: now,
			Pagos: []model.VentaPago{{Metodo: "efectivo", Pagado: decimal.NewFromInt(200)}},
		},
		model.Venta{
			ID: uuid.New(), SesionCajaID: sesionID, UsuarioID: uuid.New(),
			Total: decimal.NewFromInt(300), Estado: model.VentaCompletada, Fecha: now,
			Pagos: []model.VentaPago{{Metodo: "clover", Pagado: decimal.NewFromInt(300)}},
		},
	)

	audit, err := svc.Auditoria(context.Background(), sesionID)
	require.NoError(t, err)
	assert.True(t, audit.VentasEfectivo.IsZero())
	assert.True(t, audit.VentasDigitales.Equal(decimal.NewFromInt(300)))
	assert.True(t, audit.Consistente)
}

func TestClasificarDesvio(t *testing.T) {
	cases := []struct {
		pct  string
		want string
	}{
		{"0", model.DesvioNormal},
		{"1", model.DesvioNormal},
		{"-1", model.DesvioNormal},
		{"1.01", model.DesvioAdvertencia},
		{"-3.2", model.DesvioAdvertencia},
		{"5", model.DesvioAdvertencia},
		{"5.01", model.DesvioCritico},
		{"-12", model.DesvioCritico},
		{"100", model.DesvioCritico},
	}
	for _, tc := range cases {
		pct, err := decimal.NewFromString(tc.pct)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ClasificarDesvio(pct), "pct=%s", tc.pct)
	}
}

func TestBalanceAnulacionRevierteLaVenta(t *testing.T) {
	svc, repo, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	require.NoError(t, repo.CreateMovimiento(ctx, &model.MovimientoCaja{
		SesionCajaID: sesionID, Tipo: model.MovVenta, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(500), Fecha: time.Now().UTC(),
	}))
	require.NoError(t, repo.CreateMovimiento(ctx, &model.MovimientoCaja{
		SesionCajaID: sesionID, Tipo: model.MovAnulacion, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(500), Fecha: time.Now().UTC(),
	}))

	balance, err := svc.Balance(ctx, sesionID)
	require.NoError(t, err)
	assert.True(t, balance.VentasEfectivo.IsZero())
	assert.True(t, balance.TotalEfectivo.Equal(decimal.NewFromInt(1000)))
}

func TestPreCierreSoloDevuelveConteos(t *testing.T) {
	svc, repo, _ := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	require.NoError(t, repo.CreateMovimiento(ctx, &model.MovimientoCaja{
		SesionCajaID: sesionID, Tipo: model.MovVenta, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(500), Fecha: time.Now().UTC(),
	}))

	pre, err := svc.PreCierre(ctx, sesionID)
	require.NoError(t, err)
	assert.Equal(t, model.SesionAbierta, pre.Estado)
	assert.Equal(t, 1, pre.CantidadVentas)
	assert.Equal(t, 2, pre.CantidadMovs)

	// El formulario de cierre nunca recibe montos: ni esperado, ni parciales.
	payload, err := json.Marshal(pre)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "total")
	assert.NotContains(t, string(payload), "monto")
}

func TestAuditoriaCalculaEsperadoActualYDesvio(t *testing.T) {
	svc, repo, ventaRepo := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	ctx := context.Background()
	now := time.Now().UTC()
	ventaRepo.ventas = append(ventaRepo.ventas, model.Venta{
		ID: uuid.New(), SesionCajaID: sesionID, UsuarioID: uuid.New(),
		Total: decimal.NewFromInt(500), Estado: model.VentaCompletada, Fecha: now,
		Pagos: []model.VentaPago{{Metodo: "efectivo", Pagado: decimal.NewFromInt(500)}},
	})
	require.NoError(t, repo.CreateMovimiento(ctx, &model.MovimientoCaja{
		SesionCajaID: sesionID, Tipo: model.MovVenta, MetodoPago: "efectivo",
		Monto: decimal.NewFromInt(500), Fecha: now,
	}))

	// Sesion abierta: lo actual es lo esperado en vivo, sin desvio.
	audit, err := svc.Auditoria(ctx, sesionID)
	require.NoError(t, err)
	assert.True(t, audit.MontoEsperado.Equal(decimal.NewFromInt(1500)))
	assert.True(t, audit.MontoActual.Equal(decimal.NewFromInt(1500)))
	assert.True(t, audit.Desvio.IsZero())

	obs := "faltante en conteo"
	_, err = svc.Cerrar(ctx, sesionID, dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(900),
		Observaciones:  &obs,
	})
	require.NoError(t, err)

	// Sesion cerrada: lo actual es lo declarado y el desvio sale de ahi.
	audit, err = svc.Auditoria(ctx, sesionID)
	require.NoError(t, err)
	assert.True(t, audit.MontoEsperado.Equal(decimal.NewFromInt(1500)))
	assert.True(t, audit.MontoActual.Equal(decimal.NewFromInt(900)))
	assert.True(t, audit.Desvio.Equal(decimal.NewFromInt(-600)))
}

func TestAuditoriaSumaTotalesFiscales(t *testing.T) {
	svc, _, ventaRepo := newCajaFixture()
	sesionID := abrirCaja(t, svc, 1000)

	now := time.Now().UTC()
	ventaRepo.ventas = append(ventaRepo.ventas,
		model.Venta{
			ID: uuid.New(), SesionCajaID: sesionID, UsuarioID: uuid.New(),
			Total: decimal.NewFromInt(800), Estado: model.VentaCompletada, Fecha: now,
			EstadoFiscal: model.FiscalAprobado,
			Pagos:        []model.VentaPago{{Metodo: "clover", Pagado: decimal.NewFromInt(800)}},
		},
		model.Venta{
			ID: uuid.New(), SesionCajaID: sesionID, UsuarioID: uuid.New(),
			Total: decimal.NewFromInt(300), Estado: model.VentaCompletada, Fecha: now,
			EstadoFiscal: model.FiscalPendiente,
			Pagos:        []model.VentaPago{{Metodo: "mercado pago", Pagado: decimal.NewFromInt(300)}},
		},
		model.Venta{
			ID: uuid.New(), SesionCajaID: sesionID, UsuarioID: uuid.New(),
			Total: decimal.NewFromInt(200), Estado: model.VentaCompletada, Fecha: now,
			EstadoFiscal: model.FiscalOmitido,
			Pagos:        []model.VentaPago{{Metodo: "mercado pago", Pagado: decimal.NewFromInt(200)}},
		},
	)

	audit, err := svc.Auditoria(context.Background(), sesionID)
	require.NoError(t, err)
	assert.True(t, audit.FiscalAprobado.Equal(decimal.NewFromInt(800)))
	assert.True(t, audit.FiscalPendiente.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 1, audit.CantidadFiscalPendiente)
}
