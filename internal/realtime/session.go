package realtime

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/readyresponse/dispatch/internal/rbac"
	"github.com/readyresponse/dispatch/internal/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type joinPayload struct {
	UserID     uint   `json:"userId"`
	Role       string `json:"role"`
	IncidentID *uint  `json:"incidentId"`
}

type leavePayload struct {
	IncidentID uint `json:"incidentId"`
}

// RelayLocation forwards a location frame to the incident's subscribers.
// Nothing is stored.
func (h *Hub) RelayLocation(update types.LocationUpdate) error {
	if update.ResourceID == 0 || update.IncidentID == 0 {
		return errors.New("resourceId and incidentId are required")
	}
	if update.Location.Lat < -90 || update.Location.Lat > 90 || update.Location.Lng < -180 || update.Location.Lng > 180 {
		return errors.New("location is out of range")
	}

	h.Publish(IncidentTopic(update.IncidentID), types.EventResourceLocationUpdated, update)
	return nil
}

// HandleClientEvent applies one inbound frame from c.
func (h *Hub) HandleClientEvent(c *Client, ev Event) error {
	switch ev.Event {
	case types.EventJoin:
		var p joinPayload
		if len(ev.Data) > 0 {
			if err := json.Unmarshal(ev.Data, &p); err != nil {
				return errors.New("invalid join payload")
			}
		}
		// user and role topics come from the token, never from the frame
		if p.UserID != 0 && p.UserID != c.UserID {
			log.Printf("realtime: client %s claimed user %d but is user %d", c.ID, p.UserID, c.UserID)
		}
		if p.IncidentID != nil && *p.IncidentID != 0 {
			h.Join(c, IncidentTopic(*p.IncidentID))
		}
		return nil

	case types.EventLeave:
		var p leavePayload
		if err := json.Unmarshal(ev.Data, &p); err != nil || p.IncidentID == 0 {
			return errors.New("invalid leave payload")
		}
		h.Leave(c, IncidentTopic(p.IncidentID))
		return nil

	case types.EventResourceUpdateLocation:
		if !h.policy.Allowed(c.Role, rbac.PermLocationWrite) {
			return errors.New("not allowed to publish resource locations")
		}
		var update types.LocationUpdate
		if err := json.Unmarshal(ev.Data, &update); err != nil {
			return errors.New("invalid location payload")
		}
		return h.RelayLocation(update)

	default:
		return errors.New("unknown event: " + ev.Event)
	}
}

// Serve pumps frames between conn and the hub until either side closes.
// It blocks and unregisters the client on return.
func (h *Hub) Serve(conn *websocket.Conn, c *Client) {
	h.Register(c)

	go h.writePump(conn, c)

	defer func() {
		h.Unregister(c)
		log.Printf("WebSocket connection closed for user %d", c.UserID)
	}()

	h.SendTo(c, types.EventConnected, payload{
		"clientId": c.ID,
		"userId":   c.UserID,
		"role":     c.Role,
	})

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("Failed to set initial read deadline: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for user %d: %v", c.UserID, err)
			}
			return
		}

		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil {
			h.SendTo(c, types.EventError, payload{"message": "invalid frame"})
			continue
		}

		if err := h.HandleClientEvent(c, ev); err != nil {
			h.SendTo(c, types.EventError, payload{"event": ev.Event, "message": err.Error()})
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for user %d: %v", c.UserID, err)
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("Failed to write to user %d: %v", c.UserID, err)
				h.Unregister(c)
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("Failed to set write deadline for user %d: %v", c.UserID, err)
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Ping failed for user %d: %v", c.UserID, err)
				h.Unregister(c)
				return
			}
		}
	}
}

type payload = map[string]any
