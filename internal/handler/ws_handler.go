package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chattyapp/chatty-server/internal/config"
	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/gate"
	"github.com/chattyapp/chatty-server/internal/hub"
	"github.com/chattyapp/chatty-server/internal/presence"
	"github.com/chattyapp/chatty-server/internal/repository"
	"github.com/chattyapp/chatty-server/internal/router"
	"github.com/chattyapp/chatty-server/internal/service"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// WSHandler terminates the duplex channel: it upgrades HTTP requests,
// runs the per-session frame loop, and bridges frames into the gate,
// router, hub, and presence tracker.
type WSHandler struct {
	hub      *hub.Hub
	gate     *gate.Gate
	presence *presence.Tracker
	router   *router.Router
	rooms    *service.RoomService
	users    repository.UserRepository
	upgrader websocket.Upgrader
	config   config.WebSocketConfig
}

func NewWSHandler(
	h *hub.Hub,
	g *gate.Gate,
	tracker *presence.Tracker,
	r *router.Router,
	rooms *service.RoomService,
	users repository.UserRepository,
	cfg config.WebSocketConfig,
) *WSHandler {
	return &WSHandler{
		hub:      h,
		gate:     g,
		presence: tracker,
		router:   r,
		rooms:    rooms,
		users:    users,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		config: cfg,
	}
}

// HandleWebSocket upgrades the request and runs the session until the
// client disconnects.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.config)
	h.hub.Register(client)

	go client.WritePump()
	client.ReadPump(h.handleFrame)

	// ReadPump returned: the socket is gone.
	h.presence.Disconnected(client.ID)
}

func (h *WSHandler) handleFrame(client *hub.Client, raw []byte) {
	var base domain.BaseFrame
	if err := json.Unmarshal(raw, &base); err != nil {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "malformed frame"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.FrameTypeConnect:
		h.handleConnect(client, raw)
	case domain.FrameTypeSubscribe:
		h.handleSubscribe(ctx, client, raw)
	case domain.FrameTypeUnsubscribe:
		h.handleUnsubscribe(client, raw)
	case domain.FrameTypeSendPublic:
		h.handleSendPublic(ctx, client, raw)
	case domain.FrameTypeSendPrivate:
		h.handleSendPrivate(ctx, client, raw)
	case domain.FrameTypeTyping:
		h.handleTyping(ctx, client, raw)
	case domain.FrameTypePing:
		client.SendFrame(domain.BaseFrame{Type: domain.FrameTypePong})
	default:
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "unknown frame type"))
	}
}

func (h *WSHandler) handleConnect(client *hub.Client, raw []byte) {
	var frame domain.ConnectFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "malformed connect frame"))
		return
	}

	username, authenticated := h.gate.Authenticate(frame.Headers)
	if authenticated {
		client.Session.Authenticate(username)
		h.presence.Connected(client.ID, username)
	}

	client.SendFrame(domain.ConnectedFrame{
		Type:          domain.FrameTypeConnected,
		SessionID:     client.ID,
		Username:      username,
		Authenticated: authenticated,
	})
}

func (h *WSHandler) handleSubscribe(ctx context.Context, client *hub.Client, raw []byte) {
	var frame domain.SubscribeFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Destination == "" {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "malformed subscribe frame"))
		return
	}

	if err := h.authorizeSubscription(ctx, client, frame.Destination); err != nil {
		client.SendFrame(domain.NewErrorFrame(errorCode(err), err.Error()))
		return
	}

	h.hub.Subscribe(client, frame.Destination)
	client.SendFrame(domain.SubscribedFrame{
		Type:        domain.FrameTypeSubscribed,
		Destination: frame.Destination,
	})
}

// authorizeSubscription enforces destination access. Room broadcasts
// require membership (General excepted), user queues are owner-only, and
// the global notifications destination is open to every session.
func (h *WSHandler) authorizeSubscription(ctx context.Context, client *hub.Client, destination string) error {
	if destination == domain.GlobalNotifications {
		return nil
	}

	if roomID, ok := domain.ParseRoomDestination(destination); ok {
		if !client.Session.IsAuthenticated() {
			return domain.ErrUnauthorized
		}
		user, err := h.users.GetByUsername(ctx, client.Session.GetUsername())
		if err != nil {
			return err
		}
		allowed, err := h.rooms.IsUserInRoom(ctx, roomID, user.ID)
		if err != nil {
			return err
		}
		if !allowed {
			return errForbidden
		}
		return nil
	}

	if username, ok := domain.ParseUserDestination(destination); ok {
		if !client.Session.IsAuthenticated() {
			return domain.ErrUnauthorized
		}
		if username != client.Session.GetUsername() {
			return errForbidden
		}
		return nil
	}

	return errUnknownDestination
}

func (h *WSHandler) handleUnsubscribe(client *hub.Client, raw []byte) {
	var frame domain.SubscribeFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Destination == "" {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "malformed unsubscribe frame"))
		return
	}
	h.hub.Unsubscribe(client, frame.Destination)
}

func (h *WSHandler) handleSendPublic(ctx context.Context, client *hub.Client, raw []byte) {
	if !client.Session.IsAuthenticated() {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeUnauthorized, domain.ErrUnauthorized.Error()))
		return
	}

	var frame domain.SendPublicFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.RoomID == "" {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "malformed send frame"))
		return
	}

	username := client.Session.GetUsername()
	user, err := h.users.GetByUsername(ctx, username)
	if err != nil {
		client.SendFrame(domain.NewErrorFrame(errorCode(err), err.Error()))
		return
	}
	allowed, err := h.rooms.IsUserInRoom(ctx, frame.RoomID, user.ID)
	if err != nil {
		client.SendFrame(domain.NewErrorFrame(errorCode(err), err.Error()))
		return
	}
	if !allowed {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeForbidden, "not a member of this room"))
		return
	}

	draft := router.Draft{Content: frame.Content, MessageType: frame.MessageType}
	if _, err := h.router.RoutePublic(ctx, frame.RoomID, draft, username); err != nil {
		client.SendFrame(domain.NewErrorFrame(errorCode(err), err.Error()))
	}
}

func (h *WSHandler) handleSendPrivate(ctx context.Context, client *hub.Client, raw []byte) {
	if !client.Session.IsAuthenticated() {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeUnauthorized, domain.ErrUnauthorized.Error()))
		return
	}

	var frame domain.SendPrivateFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.RecipientID == "" {
		client.SendFrame(domain.NewErrorFrame(domain.ErrCodeBadRequest, "malformed send frame"))
		return
	}

	draft := router.Draft{Content: frame.Content, MessageType: frame.MessageType}
	if _, err := h.router.RoutePrivate(ctx, frame.RecipientID, draft, client.Session.GetUsername()); err != nil {
		client.SendFrame(domain.NewErrorFrame(errorCode(err), err.Error()))
	}
}

func (h *WSHandler) handleTyping(ctx context.Context, client *hub.Client, raw []byte) {
	if !client.Session.IsAuthenticated() {
		return
	}

	var frame domain.TypingFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return
	}
	if err := h.router.RouteTyping(ctx, frame.RoomID, client.Session.GetUsername()); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldSessionID, client.ID).Msg("failed to publish typing signal")
	}
}

var (
	errForbidden          = errors.New("access to destination denied")
	errUnknownDestination = errors.New("unknown destination")
)

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return domain.ErrCodeUnauthorized
	case errors.Is(err, errForbidden):
		return domain.ErrCodeForbidden
	case errors.Is(err, domain.ErrRoomNotFound), errors.Is(err, domain.ErrUserNotFound):
		return domain.ErrCodeNotFound
	case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, errUnknownDestination):
		return domain.ErrCodeBadRequest
	default:
		return domain.ErrCodeInternalError
	}
}
