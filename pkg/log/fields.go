package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Chat
	FieldRoomID      = "room_id"
	FieldSessionID   = "session_id"
	FieldMessageID   = "message_id"
	FieldRecipientID = "recipient_id"
	FieldDestination = "destination"
	FieldTopic       = "topic"

	// Service
	FieldService = "service"
)
