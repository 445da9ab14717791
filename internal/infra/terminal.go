package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Payment terminal collaborator (card readers, wallet QR providers). The
// agent only initiates a charge and polls for its terminal state; once a
// transaction reports approved, the confirmed amount and method flow into
// the sale and from there into the cash ledger. Polling cadence and timeout
// UX belong to the UI.

// Terminal transaction states as reported by CheckStatus.
const (
	TxAprobada  = "approved"
	TxEsperando = "waiting"
	TxRechazada = "rejected"
	TxCancelada = "canceled"
	TxError     = "error"
)

type TerminalTx struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type TerminalClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewTerminalClient(baseURL, apiKey string) *TerminalClient {
	return &TerminalClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// InitTransaction starts a charge on the device associated with deviceID and
// returns the provider reference used for polling.
func (c *TerminalClient) InitTransaction(ctx context.Context, metodo string, monto float64, deviceID string) (*TerminalTx, error) {
	body, err := json.Marshal(map[string]any{
		"method":    metodo,
		"amount":    monto,
		"device_id": deviceID,
	})
	if err != nil {
		return nil, fmt.Errorf("terminal: marshal: %w", err)
	}

	var tx TerminalTx
	if err := c.post(ctx, "/transactions", body, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// CheckStatus returns the current state of a transaction.
func (c *TerminalClient) CheckStatus(ctx context.Context, reference, metodo string) (*TerminalTx, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/transactions/%s?method=%s", c.baseURL, reference, metodo), nil)
	if err != nil {
		return nil, fmt.Errorf("terminal: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("terminal: proveedor inalcanzable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("terminal: proveedor devolvio %d", resp.StatusCode)
	}
	var tx TerminalTx
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("terminal: decode: %w", err)
	}
	return &tx, nil
}

func (c *TerminalClient) post(ctx context.Context, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("terminal: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("terminal: proveedor inalcanzable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("terminal: proveedor devolvio %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
