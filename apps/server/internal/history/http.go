package history

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxListLimit = 100

type HTTPHandler struct {
	service Service
}

func NewHTTPHandler(service Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	grp := r.Group("/api/history")
	grp.GET("/recent", h.handleRecent)
	grp.GET("/rooms/:roomId", h.handleRoom)
}

func (h *HTTPHandler) handleRecent(c *gin.Context) {
	h.list(c, "")
}

func (h *HTTPHandler) handleRoom(c *gin.Context) {
	h.list(c, c.Param("roomId"))
}

func (h *HTTPHandler) list(c *gin.Context, roomID string) {
	limit := parseLimit(c.Query("limit"))
	records, err := h.service.ListRecent(c.Request.Context(), roomID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	if records == nil {
		records = []Record{}
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
