package entity

import "time"

// Conversation is a two-party chat. Its id is derived from the sorted
// participant uids, so both sides always address the same document.
type Conversation struct {
	ID              string    `json:"id" firestore:"id"`
	Participants    []string  `json:"participants" firestore:"participants"`
	LastMessage     string    `json:"last_message" firestore:"lastMessage"`
	LastMessageTime time.Time `json:"last_message_time" firestore:"lastMessageTime"`
	CreatedAt       time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt       time.Time `json:"updated_at" firestore:"updatedAt"`
}
