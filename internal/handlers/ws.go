package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients (field devices, CLIs) send no Origin.
			if origin == "" {
				return true
			}
			for _, allowed := range h.origins {
				if origin == allowed {
					return true
				}
			}
			return false
		},
	}
}

// WebSocket upgrades an authenticated request and subscribes the connection
// to the caller's user and role topics.
func (h *Handler) WebSocket(ctx *gin.Context) {
	user, ok := currentUser(ctx)
	if !ok {
		return
	}

	upgrader := h.upgrader()

	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := h.hub.NewClient(user.ID, user.Role)
	log.Printf("WebSocket connection opened for user %d (%s)", user.ID, user.Role)

	h.hub.Serve(conn, client)
}
