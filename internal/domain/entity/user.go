package entity

import "time"

type User struct {
	UID         string            `json:"uid" firestore:"uid"`
	UserID      string            `json:"user_id" firestore:"userId"` // public handle, "#VX-1234"
	DisplayName string            `json:"display_name" firestore:"displayName"`
	Email       string            `json:"email,omitempty" firestore:"email,omitempty"`
	PhotoURL    string            `json:"photo_url,omitempty" firestore:"photoURL,omitempty"`
	IsGuest     bool              `json:"is_guest" firestore:"isGuest"`
	Online      bool              `json:"online" firestore:"online"`
	LastSeen    time.Time         `json:"last_seen" firestore:"lastSeen"`
	SocialLinks map[string]string `json:"social_links,omitempty" firestore:"socialLinks,omitempty"`
	CreatedAt   time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time         `json:"updated_at" firestore:"updatedAt"`
}
