package handler

import (
	"net/http"
	"time"

	"stock-intel/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsMessage is the envelope pushed to websocket clients.
type wsMessage struct {
	Type    string              `json:"type"`
	Payload domain.SessionState `json:"payload"`
}

// SessionSocket godoc
// @Summary      Session state stream
// @Description  Upgrades to a websocket that pushes the session state on connect and after every change
// @Tags         session
// @Success      101
// @Failure      401  {object}  map[string]string
// @Router       /api/session/ws [get]
func (h *Handler) SessionSocket(c *gin.Context) {
	// The upgrade response cannot set a cookie, so the socket only attaches
	// to a session the client already holds.
	id, _ := c.Cookie(sessionCookie)
	st, ok := h.sessions.Get(id)
	if id == "" || !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	changes, unsubscribe := st.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debug().Err(err).Msg("websocket closed")
				}
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	if err := h.pushState(conn, st.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-closed:
			return
		case _, ok := <-changes:
			if !ok {
				return
			}
			if err := h.pushState(conn, st.Snapshot()); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) pushState(conn *websocket.Conn, st domain.SessionState) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(wsMessage{Type: "state", Payload: st}); err != nil {
		h.log.Debug().Err(err).Msg("websocket write failed")
		return err
	}
	return nil
}

