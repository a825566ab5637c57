package models

import "time"

// Chat is a support conversation between two or more users. The last-message
// fields are a denormalized summary cache; unread_count maps participant id
// to the number of messages that participant has not read yet.
type Chat struct {
	ID              string         `bson:"_id,omitempty" json:"id"`
	Participants    []string       `bson:"participants" json:"participants"`
	ParticipantsKey string         `bson:"participants_key" json:"-"`
	LastMessage     string         `bson:"last_message,omitempty" json:"lastMessage,omitempty"`
	LastMessageTime time.Time      `bson:"last_message_time,omitempty" json:"lastMessageTime,omitempty"`
	UnreadCount     map[string]int `bson:"unread_count" json:"unreadCount"`
	AssignedTo      string         `bson:"assigned_to,omitempty" json:"assignedTo,omitempty"`
	CreatedAt       time.Time      `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `bson:"updated_at" json:"updatedAt"`
}

func (c *Chat) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
