package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// AFIPPayload is sent to the AFIP sidecar, which handles WSAA + WSFEV1 and
// returns the CAE. The agent performs no part of the tax protocol itself —
// it only consumes the returned shape.
type AFIPPayload struct {
	TipoCbte   int     `json:"tipo_cbte"` // 6=Factura B, 1=Factura A, 11=Factura C
	PuntoVenta int     `json:"punto_vta"`
	CUIT       string  `json:"cuit"`
	MontoTotal float64 `json:"monto_total"`
	VentaID    string  `json:"venta_id"`
}

// AFIPResultado is the sidecar's response for an approved (or rejected)
// comprobante.
type AFIPResultado struct {
	CAE            string `json:"cae"`
	CAEVencimiento string `json:"cae_vencimiento"` // ISO-8601
	Numero         int64  `json:"numero"`
	TipoCbte       int    `json:"tipo_cbte"`
	QRData         string `json:"qr_data"`
	Resultado      string `json:"resultado"` // "A" (aprobado) | "R" (rechazado)
}

// AFIPClient talks to the sidecar over HTTP, shielded by a circuit breaker
// so a dead sidecar fast-fails instead of stalling the fiscal worker.
type AFIPClient struct {
	sidecarURL string
	cuitEmisor string
	puntoVenta int
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewAFIPClient(sidecarURL, cuitEmisor string, puntoVenta int) *AFIPClient {
	return &AFIPClient{
		sidecarURL: sidecarURL,
		cuitEmisor: cuitEmisor,
		puntoVenta: puntoVenta,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		breaker:    NewCircuitBreaker(DefaultCBConfig()),
	}
}

// BreakerState exposes the circuit state for /health.
func (c *AFIPClient) BreakerState() string { return c.breaker.State().String() }

// Facturar requests a CAE for the sale identified by ventaID.
func (c *AFIPClient) Facturar(ctx context.Context, ventaID string, tipoCbte int, total float64) (*AFIPResultado, error) {
	return c.emitir(ctx, "/facturar", ventaID, tipoCbte, total)
}

// NotaCredito requests a credit note against a previously approved sale.
func (c *AFIPClient) NotaCredito(ctx context.Context, ventaID string, tipoCbte int, total float64) (*AFIPResultado, error) {
	return c.emitir(ctx, "/nota-credito", ventaID, tipoCbte, total)
}

func (c *AFIPClient) emitir(ctx context.Context, path, ventaID string, tipoCbte int, total float64) (*AFIPResultado, error) {
	payload := AFIPPayload{
		TipoCbte:   tipoCbte,
		PuntoVenta: c.puntoVenta,
		CUIT:       c.cuitEmisor,
		MontoTotal: total,
		VentaID:    ventaID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("afip: marshal payload: %w", err)
	}

	var result AFIPResultado
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("afip: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("afip: sidecar unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("afip: sidecar returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, err
	}
	if result.Resultado != "A" {
		return nil, fmt.Errorf("afip: comprobante rechazado (venta %s)", ventaID)
	}
	return &result, nil
}
