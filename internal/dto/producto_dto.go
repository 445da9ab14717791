package dto

import "github.com/shopspring/decimal"

type CrearProductoRequest struct {
	Nombre       string          `json:"nombre" validate:"required,min=2"`
	CodigoBarras *string         `json:"codigo_barras"`
	CategoriaID  *string         `json:"categoria_id" validate:"omitempty,uuid"`
	MarcaID      *string         `json:"marca_id"     validate:"omitempty,uuid"`
	ProveedorID  *string         `json:"proveedor_id" validate:"omitempty,uuid"`
	PrecioCosto  decimal.Decimal `json:"precio_costo" validate:"min=0"`
	PrecioVenta  decimal.Decimal `json:"precio_venta" validate:"min=0"`
	Stock        int             `json:"stock"        validate:"min=0"`
	StockMinimo  int             `json:"stock_minimo" validate:"min=0"`
}

type AjustarStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"required,min=3"`
}

type ProductoResponse struct {
	ID           string          `json:"id"`
	Nombre       string          `json:"nombre"`
	CodigoBarras *string         `json:"codigo_barras,omitempty"`
	CategoriaID  *string         `json:"categoria_id,omitempty"`
	MarcaID      *string         `json:"marca_id,omitempty"`
	ProveedorID  *string         `json:"proveedor_id,omitempty"`
	PrecioCosto  decimal.Decimal `json:"precio_costo"`
	PrecioVenta  decimal.Decimal `json:"precio_venta"`
	Stock        int             `json:"stock"`
	StockMinimo  int             `json:"stock_minimo"`
	Activo       bool            `json:"activo"`
}

type CrearNombreRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2"`
}

type NombreResponse struct {
	ID     string `json:"id"`
	Nombre string `json:"nombre"`
	Activo bool   `json:"activo"`
}
