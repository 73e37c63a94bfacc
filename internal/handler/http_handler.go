package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/gate"
	"github.com/chattyapp/chatty-server/internal/presence"
	"github.com/chattyapp/chatty-server/internal/repository"
	"github.com/chattyapp/chatty-server/internal/service"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// HTTPHandler serves the REST surface: room management, chat history,
// unread tracking, and online user listing.
type HTTPHandler struct {
	rooms    *service.RoomService
	messages *service.MessageService
	users    repository.UserRepository
	presence *presence.Tracker
	verifier gate.TokenVerifier
}

func NewHTTPHandler(
	rooms *service.RoomService,
	messages *service.MessageService,
	users repository.UserRepository,
	tracker *presence.Tracker,
	verifier gate.TokenVerifier,
) *HTTPHandler {
	return &HTTPHandler{
		rooms:    rooms,
		messages: messages,
		users:    users,
		presence: tracker,
		verifier: verifier,
	}
}

// RegisterRoutes mounts the REST API under /api. Everything except the
// health check requires a valid bearer token.
func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		api.GET("/rooms", h.ListRooms)
		api.GET("/rooms/public", h.ListPublicRooms)
		api.POST("/rooms", h.CreateRoom)
		api.POST("/rooms/join-by-code", h.JoinByCode)
		api.GET("/rooms/:id", h.GetRoom)
		api.POST("/rooms/:id/join", h.JoinRoom)
		api.POST("/rooms/:id/leave", h.LeaveRoom)
		api.GET("/rooms/:id/messages", h.GetRoomMessages)

		api.GET("/messages/private/:userId", h.GetPrivateMessages)
		api.POST("/messages/read/:senderId", h.MarkRead)
		api.GET("/messages/unread", h.GetUnread)
		api.GET("/messages/unread/count", h.CountUnread)

		api.GET("/users/online", h.ListOnlineUsers)
	}
}

// AuthMiddleware verifies the bearer token and resolves the caller into
// the request context.
func (h *HTTPHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		username, err := h.verifier.ExtractSubject(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		user, err := h.users.GetByUsername(c.Request.Context(), username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}

		c.Set(log.FieldUsername, user.Username)
		c.Set(log.FieldUserID, user.ID)
		c.Next()
	}
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) ListRooms(c *gin.Context) {
	userID := c.GetString(log.FieldUserID)
	rooms, err := h.rooms.GetUserAccessibleRooms(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponses(rooms, userID))
}

func (h *HTTPHandler) ListPublicRooms(c *gin.Context) {
	rooms, err := h.rooms.GetPublicRooms(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomResponses(rooms, c.GetString(log.FieldUserID)))
}

func (h *HTTPHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoomByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room.ToResponse(c.GetString(log.FieldUserID)))
}

func (h *HTTPHandler) CreateRoom(c *gin.Context) {
	var req domain.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString(log.FieldUserID)
	room, err := h.rooms.CreateRoom(c.Request.Context(), userID, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room.ToResponse(userID))
}

func (h *HTTPHandler) JoinRoom(c *gin.Context) {
	userID := c.GetString(log.FieldUserID)
	room, err := h.rooms.JoinRoom(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room.ToResponse(userID))
}

func (h *HTTPHandler) LeaveRoom(c *gin.Context) {
	if err := h.rooms.LeaveRoom(c.Request.Context(), c.Param("id"), c.GetString(log.FieldUserID)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) JoinByCode(c *gin.Context) {
	var req domain.JoinByCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString(log.FieldUserID)
	room, err := h.rooms.JoinByCode(c.Request.Context(), req.SecretCode, userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room.ToResponse(userID))
}

func (h *HTTPHandler) GetRoomMessages(c *gin.Context) {
	page, size := pagination(c)
	msgs, err := h.messages.GetRoomMessages(c.Request.Context(), c.Param("id"), page, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *HTTPHandler) GetPrivateMessages(c *gin.Context) {
	page, size := pagination(c)
	msgs, err := h.messages.GetPrivateMessages(c.Request.Context(), c.GetString(log.FieldUserID), c.Param("userId"), page, size)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *HTTPHandler) MarkRead(c *gin.Context) {
	err := h.messages.MarkMessagesRead(c.Request.Context(), c.GetString(log.FieldUserID), c.Param("senderId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) GetUnread(c *gin.Context) {
	msgs, err := h.messages.GetUnreadMessages(c.Request.Context(), c.GetString(log.FieldUserID))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *HTTPHandler) CountUnread(c *gin.Context) {
	count, err := h.messages.CountUnread(c.Request.Context(), c.GetString(log.FieldUserID))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ListOnlineUsers returns users with live sessions. The durable status
// column is authoritative; the tracker filters out users whose status
// write lagged behind a disconnect.
func (h *HTTPHandler) ListOnlineUsers(c *gin.Context) {
	users, err := h.users.FindByStatus(c.Request.Context(), domain.UserStatusOnline)
	if err != nil {
		h.writeError(c, err)
		return
	}

	online := make([]domain.User, 0, len(users))
	for _, u := range users {
		if h.presence.IsUserOnline(u.Username) {
			online = append(online, u)
		}
	}
	c.JSON(http.StatusOK, online)
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	switch {
	// An unknown secret code means no room was found for it.
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrInvalidSecretCode):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrDuplicateRoomName):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func pagination(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(service.DefaultPageSize)))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = service.DefaultPageSize
	}
	return page, size
}

func toRoomResponses(rooms []domain.ChatRoom, forUserID string) []domain.ChatRoomResponse {
	resps := make([]domain.ChatRoomResponse, len(rooms))
	for i := range rooms {
		resps[i] = rooms[i].ToResponse(forUserID)
	}
	return resps
}
