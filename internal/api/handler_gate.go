package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-gate-backend/internal/gate"
)

// GateOpen handles GET /api/open: sends the open command and replies with the
// gate state once the hardware acknowledges (or immediately on the fast path).
func (h *Handler) GateOpen(c *gin.Context) {
	h.gateCommand(c, h.gate.Open)
}

// GateClose handles GET /api/close; mirrors GateOpen.
func (h *Handler) GateClose(c *gin.Context) {
	h.gateCommand(c, h.gate.Close)
}

func (h *Handler) gateCommand(c *gin.Context, cmd func(ctx context.Context) (gate.State, error)) {
	st, err := cmd(c.Request.Context())
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"message":   messageFor(err),
			"direction": st.Direction,
			"running":   st.Running,
		})
		return
	}
	c.JSON(http.StatusOK, st)
}
