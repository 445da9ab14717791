package handler

import (
	"net/http"
	"time"

	"almapos/internal/dto"
	"almapos/internal/sync"

	"github.com/gin-gonic/gin"
)

type SyncHandler struct {
	engine    *sync.Engine
	scheduler *sync.Scheduler
	online    func() bool
}

func NewSyncHandler(engine *sync.Engine, scheduler *sync.Scheduler, online func() bool) *SyncHandler {
	return &SyncHandler{engine: engine, scheduler: scheduler, online: online}
}

// Estado reports the last cycle to the UI's sync indicator.
func (h *SyncHandler) Estado(c *gin.Context) {
	est := h.engine.Estado()
	resp := dto.SyncEstadoResponse{
		Online:  h.online(),
		EnCurso: est.EnCurso,
		Errores: est.Errores,
	}
	if !est.UltimoCiclo.IsZero() {
		t := est.UltimoCiclo.UTC().Format(time.RFC3339)
		resp.UltimoCiclo = &t
		if d, err := time.ParseDuration(est.Duracion); err == nil {
			resp.DuracionMs = d.Milliseconds()
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Forzar kicks the scheduler. The engine still enforces at most one cycle
// in flight, so hammering this endpoint cannot overlap cycles.
func (h *SyncHandler) Forzar(c *gin.Context) {
	h.scheduler.Kick()
	c.Status(http.StatusAccepted)
}
