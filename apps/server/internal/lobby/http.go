package lobby

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPHandler 大厅的只读 HTTP 视图，客户端不开 WebSocket 也能看房。
type HTTPHandler struct {
	lobby *Lobby
}

func NewHTTPHandler(l *Lobby) *HTTPHandler {
	return &HTTPHandler{lobby: l}
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/api/rooms", h.handleList)
	r.GET("/api/rooms/:roomId", h.handleRoom)
}

func (h *HTTPHandler) handleList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.lobby.List()})
}

func (h *HTTPHandler) handleRoom(c *gin.Context) {
	r, err := h.lobby.Room(c.Param("roomId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, r.Summary())
}
