package ws

import "encoding/json"

// Inbound event types.
const (
	evtAuthenticate    = "authenticate"
	evtJoinChat        = "join_chat"
	evtTyping          = "typing"
	evtSendMessage     = "send_message"
	evtEditMessage     = "edit_message"
	evtDeleteMessage   = "delete_message"
	evtMarkRead        = "mark_read"
	evtCheckUserOnline = "check_user_online"
	evtGetOnlineUsers  = "get_online_users"

	// call signaling kinds, relayed as-is
	evtCallOffer    = "call-offer"
	evtCallAnswer   = "call-answer"
	evtCallReject   = "call-reject"
	evtCallEnd      = "call-end"
	evtIceCandidate = "ice-candidate"
)

// Outbound event types.
const (
	evtAuthenticated  = "authenticated"
	evtUserOnline     = "user_online"
	evtUserOffline    = "user_offline"
	evtUserTyping     = "user_typing"
	evtNewMessage     = "new_message"
	evtChatUpdated    = "chat_updated"
	evtMessageEdited  = "message_edited"
	evtMessageDeleted = "message_deleted"
	evtMessagesRead   = "messages_read"
	evtOnlineUsers    = "online_users"
)

// Envelope is the wire format in both directions: a type tag plus an opaque
// payload the dispatcher decodes per type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func event(typ string, payload any) []byte {
	b, _ := json.Marshal(outbound{Type: typ, Payload: payload})
	return b
}
