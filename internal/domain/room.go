package domain

import "time"

// GeneralRoomName is the always-present public room. Every user may read
// and join it regardless of membership.
const GeneralRoomName = "General"

// ChatRoom is a named room with a membership set. Private rooms carry an
// auto-generated secret join code; public rooms never do.
type ChatRoom struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	MemberIDs     []string   `json:"member_ids"`
	IsPublic      bool       `json:"is_public"`
	SecretCode    string     `json:"secret_code,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	LastMessageID string     `json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// HasMember reports whether the user id is in the membership set.
func (r *ChatRoom) HasMember(userID string) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AddMember inserts the user id if absent. Idempotent.
func (r *ChatRoom) AddMember(userID string) {
	if !r.HasMember(userID) {
		r.MemberIDs = append(r.MemberIDs, userID)
	}
}

// RemoveMember removes the user id if present. Idempotent.
func (r *ChatRoom) RemoveMember(userID string) {
	for i, id := range r.MemberIDs {
		if id == userID {
			r.MemberIDs = append(r.MemberIDs[:i], r.MemberIDs[i+1:]...)
			return
		}
	}
}

// CreateRoomRequest is the create-room API payload.
type CreateRoomRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// JoinByCodeRequest is the join-by-code API payload.
type JoinByCodeRequest struct {
	SecretCode string `json:"secret_code" binding:"required,len=8"`
}

// ChatRoomResponse represents a room in API responses. The secret code is
// only included for rooms the requesting user is a member of.
type ChatRoomResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	MemberIDs     []string   `json:"member_ids"`
	IsPublic      bool       `json:"is_public"`
	SecretCode    string     `json:"secret_code,omitempty"`
	CreatedBy     string     `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	LastMessageID string     `json:"last_message_id,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// ToResponse converts a room to its API representation, hiding the secret
// code unless the requesting user is a member.
func (r *ChatRoom) ToResponse(forUserID string) ChatRoomResponse {
	resp := ChatRoomResponse{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		MemberIDs:     r.MemberIDs,
		IsPublic:      r.IsPublic,
		CreatedBy:     r.CreatedBy,
		CreatedAt:     r.CreatedAt,
		LastMessageID: r.LastMessageID,
		LastMessageAt: r.LastMessageAt,
	}
	if forUserID != "" && r.HasMember(forUserID) {
		resp.SecretCode = r.SecretCode
	}
	return resp
}
