package models

import "time"

const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
	MessageTypeVoice = "voice"
)

type Message struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	ChatID      string    `bson:"chat_id" json:"chatId"`
	SenderID    string    `bson:"sender_id" json:"senderId"`
	Body        string    `bson:"body" json:"message"`
	Type        string    `bson:"type" json:"messageType"`
	FileURL     string    `bson:"file_url,omitempty" json:"fileUrl,omitempty"`
	FileName    string    `bson:"file_name,omitempty" json:"fileName,omitempty"`
	Read        bool      `bson:"read" json:"read"`
	ReadAt      time.Time `bson:"read_at,omitempty" json:"readAt,omitempty"`
	DeliveredAt time.Time `bson:"delivered_at" json:"deliveredAt"`
	Edited      bool      `bson:"edited" json:"edited"`
	EditedAt    time.Time `bson:"edited_at,omitempty" json:"editedAt,omitempty"`
	Deleted     bool      `bson:"deleted" json:"deleted"`
	DeletedAt   time.Time `bson:"deleted_at,omitempty" json:"deletedAt,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeFile, MessageTypeVoice:
		return true
	}
	return false
}

// SummaryLabel is the text shown in the chat list for the latest message.
// Non-text kinds get a fixed placeholder instead of the body.
func SummaryLabel(msgType, body string) string {
	switch msgType {
	case MessageTypeImage:
		return "📷 Image"
	case MessageTypeVoice:
		return "🎤 Voice message"
	case MessageTypeFile:
		return "📎 File"
	default:
		return body
	}
}
