package presence

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/internal/hub"
	"github.com/chattyapp/chatty-server/pkg/log"
)

// StatusStore persists the durable online/offline state of a user.
type StatusStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen time.Time) error
}

type eventKind int

const (
	eventConnect eventKind = iota
	eventDisconnect
)

type sessionEvent struct {
	kind      eventKind
	sessionID string
	username  string // only set on connect, empty for anonymous sessions
}

// Tracker owns the session-to-username map. It is the only component that
// mutates it; everyone else observes presence through the query methods.
// Lifecycle events are consumed by a single Run task so connect/disconnect
// handling is never scattered across connection callbacks.
//
// One entry is kept per session. A user connected from several sessions is
// marked fully offline when the first of them disconnects; the remaining
// sessions keep receiving messages but no longer count toward presence.
type Tracker struct {
	sessions  map[string]string // sessionID -> username
	mu        sync.RWMutex
	events    chan sessionEvent
	users     StatusStore
	publisher hub.Publisher
}

func NewTracker(users StatusStore, publisher hub.Publisher) *Tracker {
	return &Tracker{
		sessions:  make(map[string]string),
		events:    make(chan sessionEvent, 256),
		users:     users,
		publisher: publisher,
	}
}

// Connected records a new live session. Anonymous sessions (no principal)
// are ignored for presence purposes.
func (t *Tracker) Connected(sessionID, username string) {
	t.events <- sessionEvent{kind: eventConnect, sessionID: sessionID, username: username}
}

// Disconnected removes a live session. Safe to call for unknown session
// ids; the second disconnect of a session is a no-op.
func (t *Tracker) Disconnected(sessionID string) {
	t.events <- sessionEvent{kind: eventDisconnect, sessionID: sessionID}
}

// Run consumes lifecycle events until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-t.events:
			switch ev.kind {
			case eventConnect:
				t.handleConnect(ctx, ev.sessionID, ev.username)
			case eventDisconnect:
				t.handleDisconnect(ctx, ev.sessionID)
			}
		}
	}
}

func (t *Tracker) handleConnect(ctx context.Context, sessionID, username string) {
	if username == "" {
		return
	}

	t.mu.Lock()
	t.sessions[sessionID] = username
	t.mu.Unlock()

	l := log.L()
	l.Info().
		Str(log.FieldUsername, username).
		Str(log.FieldSessionID, sessionID).
		Msg("user connected")

	// Side effects must not affect the session map, which is already
	// updated at this point.
	t.updateStatus(ctx, username, domain.UserStatusOnline)
	t.broadcast(username, domain.MessageTypeJoin, username+" is now online")
}

func (t *Tracker) handleDisconnect(ctx context.Context, sessionID string) {
	t.mu.Lock()
	username, known := t.sessions[sessionID]
	delete(t.sessions, sessionID)
	t.mu.Unlock()

	if !known {
		return
	}

	l := log.L()
	l.Info().
		Str(log.FieldUsername, username).
		Str(log.FieldSessionID, sessionID).
		Msg("user disconnected")

	t.updateStatus(ctx, username, domain.UserStatusOffline)
	t.broadcast(username, domain.MessageTypeLeave, username+" went offline")
}

func (t *Tracker) updateStatus(ctx context.Context, username string, status domain.UserStatus) {
	user, err := t.users.GetByUsername(ctx, username)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldUsername, username).Msg("failed to resolve user for status update")
		return
	}
	if err := t.users.UpdateStatus(ctx, user.ID, status, time.Now()); err != nil {
		l := log.L()
		l.Warn().Err(err).Str(log.FieldUsername, username).Msg("failed to update user status")
	}
}

func (t *Tracker) broadcast(username string, msgType domain.MessageType, content string) {
	frame := domain.MessageFrame{
		Type:        domain.FrameTypeMessage,
		Destination: domain.GlobalNotifications,
		Message: domain.MessageDTO{
			SenderUsername: username,
			MessageType:    msgType,
			Content:        content,
			Timestamp:      time.Now(),
		},
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		l := log.L()
		l.Warn().Err(err).Msg("failed to marshal presence notification")
		return
	}
	t.publisher.Publish(domain.GlobalNotifications, payload)
}

// IsUserOnline reports whether any live session belongs to the username.
func (t *Tracker) IsUserOnline(username string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, u := range t.sessions {
		if u == username {
			return true
		}
	}
	return false
}

// Username returns the principal attached to a session, if any.
func (t *Tracker) Username(sessionID string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	username, ok := t.sessions[sessionID]
	return username, ok
}

// SessionCount returns the number of tracked authenticated sessions.
func (t *Tracker) SessionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}
