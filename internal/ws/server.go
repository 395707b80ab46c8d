package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const dispatchTimeout = 1900 * time.Millisecond

// TokenVerifier is the identity collaborator: it resolves a bearer token to
// a user ID before any connection state is created.
type TokenVerifier interface {
	VerifyToken(token string) (userID string, err error)
}

// RoomDirectory is the persistence collaborator consulted at join time.
type RoomDirectory interface {
	RoomExists(ctx context.Context, code string) (bool, error)
}

// ChatArchiver receives accepted chat messages for write-behind persistence.
// Implementations must never surface failures to the sender.
type ChatArchiver interface {
	Archive(ctx context.Context, rec ChatRecord)
}

// WsServer is the gateway: it accepts connections, runs one reader per
// connection, dispatches inbound envelopes through the router and tears the
// connection state down exactly once on disconnect.
type WsServer struct {
	registry *Registry
	router   *Router
	verifier TokenVerifier
	rooms    RoomDirectory
	archive  ChatArchiver

	mu      sync.Mutex
	clients map[string]*Client // connection ID → client, gateway-owned
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true }, // dev-only
}

func NewWsServer(verifier TokenVerifier, rooms RoomDirectory, archive ChatArchiver) *WsServer {
	srv := &WsServer{
		registry: NewRegistry(),
		router:   NewRouter(),
		verifier: verifier,
		rooms:    rooms,
		archive:  archive,
		clients:  make(map[string]*Client),
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle upgrades GET /ws?token=... to a websocket connection. The token is
// verified before the upgrade; nothing is registered for a rejected caller.
// The assigned connection ID is echoed in the handshake response so the
// client can tell itself apart in room-users snapshots.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	userID, err := s.verifier.VerifyToken(ginCtx.Query("token"))
	if err != nil {
		ginCtx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	connID := uuid.NewString()
	respHeader := http.Header{"X-Connection-Id": []string{connID}}
	rawConn, err := upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, respHeader)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxMessageSize)

	c := newClient(connID, userID, rawConn)
	s.mu.Lock()
	s.clients[c.ID] = c
	s.mu.Unlock()

	go c.writePump()
	go s.reader(c)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

// reader processes all inbound envelopes for one connection strictly in
// arrival order, so a join and the disconnect cleanup for the same
// connection can never interleave.
func (s *WsServer) reader(c *Client) {
	defer s.teardown(c)

	_ = c.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	c.rawConn.SetPongHandler(func(string) error {
		return c.rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	cc := &ConnContext{Client: c, Server: s}
	for {
		var env Envelope
		if err := c.rawConn.ReadJSON(&env); err != nil {
			return // client closed or errored
		}

		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		err := s.router.dispatch(ctx, cc, env)
		cancel()

		if err != nil {
			c.enqueue(EvtError, ErrorBody{Error: err.Error()})
		}
	}
}

// teardown runs exactly once per connection no matter how many paths race
// into it. It unregisters the client, leaves its room and notifies the
// remaining members.
func (s *WsServer) teardown(c *Client) {
	c.closeOnce.Do(func() {
		s.mu.Lock()
		delete(s.clients, c.ID)
		s.mu.Unlock()

		if roomID, remaining, ok := s.registry.Leave(c.ID); ok {
			left := MemberInfo{ConnectionID: c.ID, DisplayName: c.name()}
			s.registry.Broadcast(roomID, "", func(peer *Client) {
				peer.enqueue(EvtUserLeft, left)
				peer.enqueue(EvtRoomUsers, remaining)
			})
			zap.L().Debug("ws.left", zap.String("conn", c.ID), zap.String("room", roomID))
		}

		close(c.done)
	})
}

// client looks a connection up by ID.
func (s *WsServer) client(connID string) (*Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[connID]
	return c, ok
}
