package domain

import "time"

// UserStatus is the durable online/offline presence state.
type UserStatus string

const (
	UserStatusOnline  UserStatus = "ONLINE"
	UserStatusOffline UserStatus = "OFFLINE"
)

// User is the durable user record. Credential issuance lives elsewhere;
// this core only reads identity and writes presence status.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name,omitempty"`
	Status      UserStatus `json:"status"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
