package dto

import "github.com/shopspring/decimal"

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,gt=0"`
}

type PagoRequest struct {
	Metodo string          `json:"metodo" validate:"required"`
	Pagado decimal.Decimal `json:"pagado" validate:"min=0"`
	Debe   decimal.Decimal `json:"debe"`
}

type RegistrarVentaRequest struct {
	ClienteID *string            `json:"cliente_id" validate:"omitempty,uuid"`
	Items     []ItemVentaRequest `json:"items"      validate:"required,min=1,dive"`
	Pagos     []PagoRequest      `json:"pagos"      validate:"required,min=1,dive"`
	// Facturar=true queues the sale for fiscal authorization.
	Facturar bool `json:"facturar"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3"`
}

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID           string              `json:"id"`
	SesionCajaID string              `json:"sesion_caja_id"`
	ClienteID    *string             `json:"cliente_id,omitempty"`
	Total        decimal.Decimal     `json:"total"`
	Estado       string              `json:"estado"`
	EstadoFiscal string              `json:"estado_fiscal"`
	CAE          *string             `json:"cae,omitempty"`
	Items        []ItemVentaResponse `json:"items"`
	Pagos        []PagoRequest       `json:"pagos"`
	Fecha        string              `json:"fecha"`
}
