package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
}

type MovimientoManualRequest struct {
	Tipo        string          `json:"tipo"        validate:"required,oneof=ingreso egreso gasto"`
	MetodoPago  string          `json:"metodo_pago" validate:"required"`
	Monto       decimal.Decimal `json:"monto"       validate:"required"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
}

// CerrarCajaRequest carries the blind declaration. The expected total is
// never part of this request; the operator counts first, the agent compares
// afterwards.
type CerrarCajaRequest struct {
	MontoDeclarado decimal.Decimal `json:"monto_declarado" validate:"min=0"`
	Observaciones  *string         `json:"observaciones"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SesionCajaResponse struct {
	ID           string          `json:"id"`
	UsuarioID    string          `json:"usuario_id"`
	Estado       string          `json:"estado"`
	MontoInicial decimal.Decimal `json:"monto_inicial"`
	OpenedAt     string          `json:"opened_at"`
	ClosedAt     *string         `json:"closed_at,omitempty"`
}

// PreCierreCajaResponse is what the closing form is allowed to see before
// the operator declares a count: movement counts only. Expected totals are
// deliberately absent — the reconciliation is blind.
type PreCierreCajaResponse struct {
	SesionCajaID   string `json:"sesion_caja_id"`
	Estado         string `json:"estado"`
	CantidadVentas int    `json:"cantidad_ventas"`
	CantidadMovs   int    `json:"cantidad_movimientos"`
}

// BalanceCajaResponse is the running drawer report. Supervisor view only:
// it carries the expected cash total, which must stay invisible to the
// operator who will declare the blind count.
type BalanceCajaResponse struct {
	SesionCajaID    string          `json:"sesion_caja_id"`
	MontoInicial    decimal.Decimal `json:"monto_inicial"`
	IngresosExtra   decimal.Decimal `json:"ingresos_extra"`
	VentasEfectivo  decimal.Decimal `json:"ventas_efectivo"`
	VentasDigitales decimal.Decimal `json:"ventas_digitales"`
	Egresos         decimal.Decimal `json:"egresos"`
	Gastos          decimal.Decimal `json:"gastos"`
	TotalEfectivo   decimal.Decimal `json:"total_efectivo"`
	CantidadVentas  int             `json:"cantidad_ventas"`
	CantidadMovs    int             `json:"cantidad_movimientos"`
}

type DesvioResponse struct {
	Monto         decimal.Decimal `json:"monto"`
	Porcentaje    decimal.Decimal `json:"porcentaje"`
	Clasificacion string          `json:"clasificacion"` // normal | advertencia | critico
}

type CierreCajaResponse struct {
	SesionCajaID   string          `json:"sesion_caja_id"`
	MontoEsperado  decimal.Decimal `json:"monto_esperado"`
	MontoDeclarado decimal.Decimal `json:"monto_declarado"`
	Desvio         DesvioResponse  `json:"desvio"`
	Estado         string          `json:"estado"`
}

// AuditoriaCajaResponse cross-checks the sales table against the movement
// ledger over the session window. Consistente is false when the two ledgers
// disagree on cash taken. MontoEsperado is refolded from the movement log
// independently of whatever the close stored; MontoActual is the declared
// count once closed, or the live expected total while open.
type AuditoriaCajaResponse struct {
	SesionCajaID        string          `json:"sesion_caja_id"`
	VentasEfectivo      decimal.Decimal `json:"ventas_efectivo"`
	VentasDigitales     decimal.Decimal `json:"ventas_digitales"`
	MovimientosEfectivo decimal.Decimal `json:"movimientos_efectivo"`
	Diferencia          decimal.Decimal `json:"diferencia"`
	Consistente         bool            `json:"consistente"`
	CantidadVentas      int             `json:"cantidad_ventas"`

	MontoEsperado decimal.Decimal `json:"monto_esperado"`
	MontoActual   decimal.Decimal `json:"monto_actual"`
	Desvio        decimal.Decimal `json:"desvio"`

	// Fiscal standing of the sales in range.
	FiscalAprobado          decimal.Decimal `json:"fiscal_aprobado"`
	FiscalPendiente         decimal.Decimal `json:"fiscal_pendiente"`
	CantidadFiscalPendiente int             `json:"cantidad_fiscal_pendiente"`
}

type MovimientoCajaResponse struct {
	ID          string          `json:"id"`
	Tipo        string          `json:"tipo"`
	MetodoPago  string          `json:"metodo_pago"`
	Monto       decimal.Decimal `json:"monto"`
	Descripcion string          `json:"descripcion"`
	Apertura    bool            `json:"apertura"`
	Fecha       string          `json:"fecha"`
}
