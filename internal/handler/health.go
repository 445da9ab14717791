package handler

import (
	"context"
	"net/http"
	"time"

	"almapos/internal/dto"
	"almapos/internal/infra"
	"almapos/internal/localstore"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health reports store reachability, schema version, connectivity, and the
// AFIP breaker state. Never exposes credentials or internals.
func Health(db *gorm.DB, conn *infra.Connectivity, afip *infra.AFIPClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		resp := dto.HealthResponse{
			Status:        "ok",
			SchemaVersion: localstore.SchemaVersion(db),
			Online:        conn.Online(),
			AFIPBreaker:   afip.BreakerState(),
		}

		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			resp.Status = "error"
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, resp)
	}
}
