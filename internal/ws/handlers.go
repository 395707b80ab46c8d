package ws

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var (
	errJoinFields   = errors.New("roomId and displayName are required")
	errRoomNotFound = errors.New("room_not_found")
	errRoomLookup   = errors.New("room_lookup_failed")
	errNotInRoom    = errors.New("not_in_room")
	errEmptyText    = errors.New("text is required")
	errMissingTo    = errors.New("missing_target")
)

func (s *WsServer) registerHandlers() {
	// 🔹 join-room -----------------------------------------------------------
	Register(s.router, EvtJoinRoom, s.handleJoin)

	// 🔹 chat ----------------------------------------------------------------
	Register(s.router, EvtSendMessage, s.handleSendMessage)
	Register(s.router, EvtTyping, s.handleTyping)

	// 🔹 negotiation relay ---------------------------------------------------
	Register(s.router, EvtOffer, s.relay(EvtOffer))
	Register(s.router, EvtAnswer, s.relay(EvtAnswer))
	Register(s.router, EvtICECandidate, s.relay(EvtICECandidate))
}

// handleJoin puts the connection into a room. Joining the room it is already
// in only refreshes the caller's snapshot; joining a different room leaves
// the old one first, with the usual departure broadcasts.
func (s *WsServer) handleJoin(ctx context.Context, cc *ConnContext, req JoinRoomBody) error {
	c := cc.Client
	if req.RoomID == "" || req.DisplayName == "" {
		return errJoinFields
	}

	// Socket-level joins are only accepted for room codes the persistence
	// collaborator knows about.
	exists, err := s.rooms.RoomExists(ctx, req.RoomID)
	if err != nil {
		zap.L().Warn("ws.room_lookup", zap.String("room", req.RoomID), zap.Error(err))
		return errRoomLookup
	}
	if !exists {
		return errRoomNotFound
	}

	if c.room() == req.RoomID {
		c.enqueue(EvtRoomUsers, s.registry.Members(req.RoomID))
		return nil
	}

	if old, remaining, left := s.registry.Leave(c.ID); left {
		gone := MemberInfo{ConnectionID: c.ID, DisplayName: c.name()}
		s.registry.Broadcast(old, "", func(peer *Client) {
			peer.enqueue(EvtUserLeft, gone)
			peer.enqueue(EvtRoomUsers, remaining)
		})
	}

	c.setJoined(req.RoomID, req.DisplayName)
	members := s.registry.Join(req.RoomID, c, req.DisplayName)

	joined := MemberInfo{ConnectionID: c.ID, DisplayName: req.DisplayName}
	s.registry.Broadcast(req.RoomID, c.ID, func(peer *Client) {
		peer.enqueue(EvtUserJoined, joined)
	})
	s.registry.Broadcast(req.RoomID, "", func(peer *Client) {
		peer.enqueue(EvtRoomUsers, members)
	})

	zap.L().Debug("ws.joined",
		zap.String("conn", c.ID),
		zap.String("room", req.RoomID),
		zap.Int("members", len(members)),
	)
	return nil
}

// handleSendMessage fans chat out to every member of the sender's room,
// sender included, with a server-assigned timestamp. The room comes from the
// connection record, never from the payload.
func (s *WsServer) handleSendMessage(ctx context.Context, cc *ConnContext, req SendMessageBody) error {
	c := cc.Client
	roomID := c.room()
	if roomID == "" {
		return errNotInRoom
	}
	if req.Text == "" {
		return errEmptyText
	}

	now := time.Now().UTC()
	body := ReceiveMessageBody{
		ConnectionID: c.ID,
		DisplayName:  c.name(),
		Text:         req.Text,
		Timestamp:    now.Format(time.RFC3339),
	}
	s.registry.Broadcast(roomID, "", func(peer *Client) {
		peer.enqueue(EvtReceiveMessage, body)
	})

	s.archive.Archive(ctx, ChatRecord{
		Room:       roomID,
		SenderID:   c.ID,
		SenderName: c.name(),
		Text:       req.Text,
		At:         now.Unix(),
	})
	return nil
}

// handleTyping forwards typing state to everyone except the sender. Every
// event is forwarded as received; coalescing is the sender's business.
func (s *WsServer) handleTyping(_ context.Context, cc *ConnContext, req TypingBody) error {
	c := cc.Client
	roomID := c.room()
	if roomID == "" {
		return errNotInRoom
	}

	body := UserTypingBody{
		ConnectionID: c.ID,
		DisplayName:  c.name(),
		IsTyping:     req.IsTyping,
	}
	s.registry.Broadcast(roomID, c.ID, func(peer *Client) {
		peer.enqueue(EvtUserTyping, body)
	})
	return nil
}

// relay builds the handler for one negotiation event. The payload is passed
// through untouched with "from" stamped server-side; a target that is gone
// (or never existed) drops the envelope silently — the sender cannot tell
// "left a moment ago" from "never existed", and renegotiation is its job.
func (s *WsServer) relay(event string) func(context.Context, *ConnContext, SignalBody) error {
	return func(_ context.Context, cc *ConnContext, req SignalBody) error {
		if req.To == "" {
			return errMissingTo
		}
		target, ok := s.client(req.To)
		if !ok {
			return nil
		}
		req.From = cc.Client.ID
		req.To = ""
		target.enqueue(event, req)
		return nil
	}
}
