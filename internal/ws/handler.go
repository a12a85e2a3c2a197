package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ridehail/internal/auth"
	"ridehail/internal/repository"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades authenticated requests to websocket connections.
type Handler struct {
	hub    *Hub
	tokens *auth.TokenIssuer
	store  repository.Store
}

// NewHandler creates a new websocket Handler.
func NewHandler(hub *Hub, tokens *auth.TokenIssuer, store repository.Store) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		store:  store,
	}
}

// Handle authenticates the token path parameter and upgrades the connection.
func (h *Handler) Handle(c *gin.Context) {
	claims, err := h.tokens.Validate(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	user, err := h.store.Users().GetByID(c.Request.Context(), claims.Subject)
	if err != nil || !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.WithError(err).Error("websocket upgrade failed")
		return
	}

	NewClient(h.hub, conn, user.ID, string(user.Role)).Start()
}
