package domain

// WebSocket frame types from client.
const (
	FrameTypeConnect     = "connect"
	FrameTypeSubscribe   = "subscribe"
	FrameTypeUnsubscribe = "unsubscribe"
	FrameTypeSendPublic  = "send_public"
	FrameTypeSendPrivate = "send_private"
	FrameTypeTyping      = "typing"
	FrameTypePing        = "ping"
)

// WebSocket frame types to client.
const (
	FrameTypeConnected  = "connected"
	FrameTypeSubscribed = "subscribed"
	FrameTypeMessage    = "message"
	FrameTypeError      = "error"
	FrameTypePong       = "pong"
)

// Error codes
const (
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// BaseFrame is the base structure for all WebSocket frames.
type BaseFrame struct {
	Type string `json:"type"`
}

// Client -> Server frames

// ConnectFrame opens the logical session. Headers carry the bearer token;
// either "Authorization: Bearer <token>" or a bare "token" header.
type ConnectFrame struct {
	Type    string            `json:"type"`
	Headers map[string]string `json:"headers"`
}

type SubscribeFrame struct {
	Type        string `json:"type"`
	Destination string `json:"destination"`
}

type SendPublicFrame struct {
	Type        string      `json:"type"`
	RoomID      string      `json:"room_id"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type,omitempty"`
}

type SendPrivateFrame struct {
	Type        string      `json:"type"`
	RecipientID string      `json:"recipient_id"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type,omitempty"`
}

type TypingFrame struct {
	Type    string `json:"type"`
	RoomID  string `json:"room_id"`
	Content string `json:"content,omitempty"`
}

// Server -> Client frames

type ConnectedFrame struct {
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	Username      string `json:"username,omitempty"`
	Authenticated bool   `json:"authenticated"`
}

type SubscribedFrame struct {
	Type        string `json:"type"`
	Destination string `json:"destination"`
}

// MessageFrame delivers a fanned-out message to a subscribed session.
type MessageFrame struct {
	Type        string     `json:"type"`
	Destination string     `json:"destination"`
	Message     MessageDTO `json:"message"`
}

type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorFrame(code, message string) *ErrorFrame {
	return &ErrorFrame{
		Type:    FrameTypeError,
		Code:    code,
		Message: message,
	}
}
