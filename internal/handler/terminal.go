package handler

import (
	"net/http"

	"almapos/internal/apierror"
	"almapos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TerminalHandler proxies the payment terminal provider for the UI. The
// confirmed amount flows into the sale as a regular digital pago; the
// handler itself never touches the ledgers.
type TerminalHandler struct {
	client   *infra.TerminalClient
	deviceID string
}

func NewTerminalHandler(client *infra.TerminalClient, deviceID string) *TerminalHandler {
	return &TerminalHandler{client: client, deviceID: deviceID}
}

type iniciarPagoRequest struct {
	Metodo string          `json:"metodo" validate:"required"`
	Monto  decimal.Decimal `json:"monto"  validate:"required"`
}

func (h *TerminalHandler) Iniciar(c *gin.Context) {
	var req iniciarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if !req.Monto.IsPositive() {
		c.JSON(http.StatusBadRequest, apierror.New("el monto debe ser mayor a cero"))
		return
	}
	monto, _ := req.Monto.Float64()
	tx, err := h.client.InitTransaction(c.Request.Context(), req.Metodo, monto, h.deviceID)
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("terminal de pago no disponible"))
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *TerminalHandler) Estado(c *gin.Context) {
	tx, err := h.client.CheckStatus(c.Request.Context(), c.Param("ref"), c.Query("metodo"))
	if err != nil {
		c.JSON(http.StatusBadGateway, apierror.New("terminal de pago no disponible"))
		return
	}
	c.JSON(http.StatusOK, tx)
}
