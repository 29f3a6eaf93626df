package stats

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type HTTPHandler struct {
	service Service
}

func NewHTTPHandler(service Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/stats")
	grp.GET("/top", h.handleTop)
	grp.GET("/players/:username", h.handlePlayer)
}

func (h *HTTPHandler) handlePlayer(c *gin.Context) {
	ps, err := h.service.Get(c.Request.Context(), c.Param("username"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no stats for player"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats lookup failed"})
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (h *HTTPHandler) handleTop(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	players, err := h.service.Top(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats lookup failed"})
		return
	}
	if players == nil {
		players = []PlayerStats{}
	}
	c.JSON(http.StatusOK, gin.H{"players": players})
}
