package domain

import "errors"

var (
	ErrRoomNotFound      = errors.New("chat room not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateRoomName = errors.New("chat room name already exists")
	ErrInvalidSecretCode = errors.New("invalid secret code, no room found")
	ErrUnauthorized      = errors.New("not authenticated")
	ErrEmptyMessage      = errors.New("message content is empty")
)
