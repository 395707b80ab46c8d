package ws

import "encoding/json"

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "join-room"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// Event names on the wire. Client-originated events are dispatched through
// the router; server-originated ones are emitted by the gateway.
const (
	EvtJoinRoom       = "join-room"
	EvtUserJoined     = "user-joined"
	EvtRoomUsers      = "room-users"
	EvtUserLeft       = "user-left"
	EvtSendMessage    = "send-message"
	EvtReceiveMessage = "receive-message"
	EvtTyping         = "typing"
	EvtUserTyping     = "user-typing"
	EvtOffer          = "webrtc-offer"
	EvtAnswer         = "webrtc-answer"
	EvtICECandidate   = "webrtc-ice-candidate"
	EvtError          = "error"
)

// ──────────────────────── client → server bodies ─────────────────────────

type JoinRoomBody struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type SendMessageBody struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

type TypingBody struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

// SignalBody carries one opaque negotiation payload between two connections.
// Exactly one of Offer/Answer/Candidate is populated depending on the event.
// The payload schema belongs to the browser peer-connection API and is never
// inspected here; json.RawMessage keeps it byte-for-byte intact.
type SignalBody struct {
	To        string          `json:"to,omitempty"`   // client-supplied target
	From      string          `json:"from,omitempty"` // stamped by the gateway
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// ──────────────────────── server → client bodies ─────────────────────────

// MemberInfo identifies one room member. room-users carries a list of these
// in join order; user-joined and user-left carry a single one.
type MemberInfo struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
}

type ReceiveMessageBody struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp"` // RFC 3339, assigned server-side
}

type UserTypingBody struct {
	ConnectionID string `json:"connectionId"`
	DisplayName  string `json:"displayName"`
	IsTyping     bool   `json:"isTyping"`
}

// ErrorBody is returned for rejected client events.
type ErrorBody struct {
	Error string `json:"error"`
}

// ChatRecord is handed to the archive collaborator after a chat message has
// been fanned out. Persistence is write-behind; the core never reads it back.
type ChatRecord struct {
	Room       string
	SenderID   string
	SenderName string
	Text       string
	At         int64 // unix seconds
}
