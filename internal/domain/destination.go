package domain

import "strings"

// GlobalNotifications is the broadcast destination every connected session
// may subscribe to. Presence and typing events land here.
const GlobalNotifications = "global-notifications"

const (
	roomDestinationPrefix = "room-broadcast:"
	userDestinationPrefix = "user-queue:"
)

// RoomDestination returns the broadcast destination for a room.
func RoomDestination(roomID string) string {
	return roomDestinationPrefix + roomID
}

// UserDestination returns the point-to-point destination for a username.
func UserDestination(username string) string {
	return userDestinationPrefix + username
}

// ParseRoomDestination extracts the room id from a room broadcast
// destination, or returns false if the destination is not room-scoped.
func ParseRoomDestination(destination string) (string, bool) {
	if !strings.HasPrefix(destination, roomDestinationPrefix) {
		return "", false
	}
	return strings.TrimPrefix(destination, roomDestinationPrefix), true
}

// ParseUserDestination extracts the username from a user queue destination,
// or returns false if the destination is not user-scoped.
func ParseUserDestination(destination string) (string, bool) {
	if !strings.HasPrefix(destination, userDestinationPrefix) {
		return "", false
	}
	return strings.TrimPrefix(destination, userDestinationPrefix), true
}
