package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"almapos/internal/dto"
	"almapos/internal/middleware"
	"almapos/internal/model"
	"almapos/internal/repository"
	"almapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCajaService stubs the service layer so these tests cover only HTTP
// concerns: routing, binding, validation, and status mapping.
type fakeCajaService struct {
	abrirErr  error
	cerrarErr error
	sesion    *dto.SesionCajaResponse
}

func (f *fakeCajaService) Abrir(_ context.Context, _ uuid.UUID, _ dto.AbrirCajaRequest) (*dto.SesionCajaResponse, error) {
	if f.abrirErr != nil {
		return nil, f.abrirErr
	}
	return f.sesion, nil
}

func (f *fakeCajaService) SesionActual(context.Context) (*dto.SesionCajaResponse, error) {
	if f.sesion == nil {
		return nil, repository.ErrSesionNoAbierta
	}
	return f.sesion, nil
}

func (f *fakeCajaService) RegistrarMovimiento(context.Context, dto.MovimientoManualRequest) error {
	return nil
}

func (f *fakeCajaService) PreCierre(context.Context, uuid.UUID) (*dto.PreCierreCajaResponse, error) {
	return &dto.PreCierreCajaResponse{Estado: model.SesionAbierta, CantidadVentas: 3, CantidadMovs: 5}, nil
}

func (f *fakeCajaService) Balance(context.Context, uuid.UUID) (*dto.BalanceCajaResponse, error) {
	return &dto.BalanceCajaResponse{}, nil
}

func (f *fakeCajaService) Auditoria(context.Context, uuid.UUID) (*dto.AuditoriaCajaResponse, error) {
	return &dto.AuditoriaCajaResponse{}, nil
}

func (f *fakeCajaService) Cerrar(_ context.Context, _ uuid.UUID, _ dto.CerrarCajaRequest) (*dto.CierreCajaResponse, error) {
	if f.cerrarErr != nil {
		return nil, f.cerrarErr
	}
	return &dto.CierreCajaResponse{Estado: model.SesionCerrada}, nil
}

func (f *fakeCajaService) ListMovimientos(context.Context, uuid.UUID) ([]dto.MovimientoCajaResponse, error) {
	return nil, nil
}

func cajaRouterComoRol(svc service.CajaService, rol string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
			UserID: uuid.NewString(), Username: "ana", Rol: rol,
		})
	})
	h := NewCajaHandler(svc)
	operadores := middleware.RequireRole("cajero", "supervisor", "administrador")
	supervisores := middleware.RequireRole("supervisor", "administrador")
	r.POST("/caja/abrir", operadores, h.Abrir)
	r.GET("/caja/actual", operadores, h.Actual)
	r.POST("/caja/movimiento", operadores, h.RegistrarMovimiento)
	r.GET("/caja/:id/pre-cierre", operadores, h.PreCierre)
	r.GET("/caja/:id/balance", supervisores, h.Balance)
	r.POST("/caja/:id/cerrar", operadores, h.Cerrar)
	return r
}

func cajaRouter(svc service.CajaService) *gin.Engine {
	return cajaRouterComoRol(svc, "cajero")
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAbrirCaja(t *testing.T) {
	svc := &fakeCajaService{sesion: &dto.SesionCajaResponse{ID: uuid.NewString(), Estado: model.SesionAbierta}}
	r := cajaRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/caja/abrir", dto.AbrirCajaRequest{MontoInicial: decimal.NewFromInt(1000)})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAbrirCajaConflictoDeSesion(t *testing.T) {
	svc := &fakeCajaService{abrirErr: repository.ErrSesionYaAbierta}
	r := cajaRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/caja/abrir", dto.AbrirCajaRequest{MontoInicial: decimal.NewFromInt(1000)})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestActualSinSesionEs404(t *testing.T) {
	r := cajaRouter(&fakeCajaService{})

	w := doJSON(t, r, http.MethodGet, "/caja/actual", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMovimientoManualValidaElBody(t *testing.T) {
	r := cajaRouter(&fakeCajaService{})

	// Tipo fuera del enum permitido.
	w := doJSON(t, r, http.MethodPost, "/caja/movimiento", map[string]any{
		"tipo": "transferencia", "metodo_pago": "efectivo", "monto": 100, "descripcion": "retiro",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, r, http.MethodPost, "/caja/movimiento", map[string]any{
		"tipo": "egreso", "metodo_pago": "efectivo", "monto": 100, "descripcion": "retiro a tesoreria",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCerrarConDesvioCriticoSinObservaciones(t *testing.T) {
	svc := &fakeCajaService{cerrarErr: service.ErrObservacionRequerida}
	r := cajaRouter(svc)

	w := doJSON(t, r, http.MethodPost, "/caja/"+uuid.NewString()+"/cerrar", dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(500),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCerrarConIDInvalido(t *testing.T) {
	r := cajaRouter(&fakeCajaService{})

	w := doJSON(t, r, http.MethodPost, "/caja/no-uuid/cerrar", dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(500),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBalanceEsVistaDeSupervisor(t *testing.T) {
	id := uuid.NewString()

	// El cajero que va a declarar el conteo a ciegas no puede ver el total
	// esperado; el supervisor si.
	w := doJSON(t, cajaRouter(&fakeCajaService{}), http.MethodGet, "/caja/"+id+"/balance", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, cajaRouterComoRol(&fakeCajaService{}, "supervisor"), http.MethodGet, "/caja/"+id+"/balance", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPreCierreDevuelveSoloConteos(t *testing.T) {
	id := uuid.NewString()
	w := doJSON(t, cajaRouter(&fakeCajaService{}), http.MethodGet, "/caja/"+id+"/pre-cierre", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 3, resp["cantidad_ventas"])
	assert.EqualValues(t, 5, resp["cantidad_movimientos"])
	for clave := range resp {
		assert.NotContains(t, clave, "total")
		assert.NotContains(t, clave, "monto")
	}
}
