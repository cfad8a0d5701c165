package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"shoplist-backend/internal/application"
	"shoplist-backend/internal/domain/entity"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	scopeSession = "session"
	scopeLists   = "lists"
	scopeItems   = "items"
	scopeUsers   = "users"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Cookie auth already gates the handshake; origins are enforced by CORS
	// at the HTTP layer for browsers that send them.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type clientMessage struct {
	Action string `json:"action"`
	ListID string `json:"listId,omitempty"`
}

type serverMessage struct {
	Type   string `json:"type"`
	ListID string `json:"listId,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// SyncHandler upgrades authenticated clients to a websocket and streams
// full-replacement snapshots for the scopes they subscribe to.
type SyncHandler struct {
	Sync   *application.SyncService
	Logger *logrus.Logger
}

func NewSyncHandler(sync *application.SyncService, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{Sync: sync, Logger: logger}
}

// Serve runs one sync connection. The session scope is always subscribed;
// when the session's profile disappears or is deactivated the client gets a
// signed_out event and the connection closes.
func (h *SyncHandler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	uid := c.GetString("userID")
	sess := newSyncSession(conn, h.Sync, h.Logger, uid)
	sess.run(c.Request.Context())
}

// syncSession owns one websocket connection. All writes funnel through the
// out channel into a single writer goroutine.
type syncSession struct {
	conn   *websocket.Conn
	sync   *application.SyncService
	logger *logrus.Logger
	uid    string

	subs *application.SubscriptionManager
	out  chan serverMessage
	done chan struct{}
}

func newSyncSession(conn *websocket.Conn, sync *application.SyncService, logger *logrus.Logger, uid string) *syncSession {
	return &syncSession{
		conn:   conn,
		sync:   sync,
		logger: logger,
		uid:    uid,
		subs:   application.NewSubscriptionManager(),
		out:    make(chan serverMessage, 32),
		done:   make(chan struct{}),
	}
}

func (s *syncSession) run(ctx context.Context) {
	defer func() {
		s.subs.CancelAll()
		_ = s.conn.Close()
	}()

	go s.writeLoop()

	s.subs.Replace(scopeSession, func() func() {
		return s.sync.SubscribeSession(ctx, s.uid, func(state application.SessionState) {
			if state.UserID == "" {
				s.send(serverMessage{Type: "signed_out"})
				s.close()
				return
			}
			s.send(serverMessage{Type: scopeSession, Data: state.Profile})
		})
	})

	s.readLoop(ctx)
}

func (s *syncSession) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(4096)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WithError(err).Debug("sync socket closed")
			}
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.send(serverMessage{Type: "error", Data: "invalid message"})
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *syncSession) handle(ctx context.Context, msg clientMessage) {
	switch msg.Action {
	case "subscribe_lists":
		s.subs.Replace(scopeLists, func() func() {
			return s.sync.SubscribeLists(ctx, func(lists []entity.ShoppingList) {
				s.send(serverMessage{Type: scopeLists, Data: lists})
			})
		})
	case "subscribe_items":
		listID := msg.ListID
		if listID == "" {
			// deselecting a list clears the items scope and the view
			s.subs.Cancel(scopeItems)
			s.send(serverMessage{Type: scopeItems, Data: []entity.ShoppingListItem{}})
			return
		}
		s.subs.Replace(scopeItems, func() func() {
			return s.sync.SubscribeItems(ctx, listID, func(items []entity.ShoppingListItem) {
				s.send(serverMessage{Type: scopeItems, ListID: listID, Data: items})
			})
		})
	case "unsubscribe_items":
		s.subs.Cancel(scopeItems)
	case "subscribe_users":
		s.subs.Replace(scopeUsers, func() func() {
			return s.sync.SubscribeUsers(ctx, func(users []entity.UserProfile) {
				s.send(serverMessage{Type: scopeUsers, Data: users})
			})
		})
	case "unsubscribe_users":
		s.subs.Cancel(scopeUsers)
	case "unsubscribe_lists":
		s.subs.Cancel(scopeLists)
	default:
		s.send(serverMessage{Type: "error", Data: "unknown action"})
	}
}

func (s *syncSession) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-s.done:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = s.conn.Close()
			return
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// send enqueues a message without ever blocking a snapshot callback. A full
// buffer drops the frame; the next change signal re-emits complete state
// anyway.
func (s *syncSession) send(msg serverMessage) {
	select {
	case s.out <- msg:
	default:
		s.logger.WithField("type", msg.Type).Warn("sync socket buffer full, dropping frame")
	}
}

func (s *syncSession) close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}
