package dto

import "github.com/shopspring/decimal"

type CrearClienteRequest struct {
	Nombre    string  `json:"nombre" validate:"required,min=2"`
	Documento *string `json:"documento"`
	Telefono  *string `json:"telefono"`
	Email     *string `json:"email" validate:"omitempty,email"`
}

// RegistrarPagoRequest applies a payment against the client's running
// account. The money enters the drawer of the open session.
type RegistrarPagoRequest struct {
	Monto      decimal.Decimal `json:"monto"       validate:"required"`
	MetodoPago string          `json:"metodo_pago" validate:"required"`
}

type ClienteResponse struct {
	ID        string          `json:"id"`
	Nombre    string          `json:"nombre"`
	Documento *string         `json:"documento,omitempty"`
	Telefono  *string         `json:"telefono,omitempty"`
	Email     *string         `json:"email,omitempty"`
	Saldo     decimal.Decimal `json:"saldo"`
}

type MovimientoClienteResponse struct {
	ID          string          `json:"id"`
	Tipo        string          `json:"tipo"`
	Monto       decimal.Decimal `json:"monto"`
	VentaID     *string         `json:"venta_id,omitempty"`
	Descripcion string          `json:"descripcion"`
	Fecha       string          `json:"fecha"`
}
