package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chattyapp/chatty-server/internal/domain"
	"github.com/chattyapp/chatty-server/pkg/log"
)

type fakeVerifier struct {
	subjects map[string]string
}

func (f *fakeVerifier) ExtractSubject(token string) (string, error) {
	if subject, ok := f.subjects[token]; ok {
		return subject, nil
	}
	return "", errors.New("invalid token")
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus, lastSeen time.Time) error {
	return nil
}

func (f *fakeUserRepo) FindByStatus(ctx context.Context, status domain.UserStatus) ([]domain.User, error) {
	return nil, nil
}

func newAuthTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &HTTPHandler{
		users: &fakeUserRepo{users: map[string]*domain.User{
			"alice": {ID: "uid-alice", Username: "alice"},
		}},
		verifier: &fakeVerifier{subjects: map[string]string{
			"valid-token": "alice",
			"ghost-token": "ghost",
		}},
	}

	r := gin.New()
	r.GET("/protected", h.AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username": c.GetString(log.FieldUsername),
			"user_id":  c.GetString(log.FieldUserID),
		})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthTestRouter(t)

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer valid-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", "valid-token", http.StatusUnauthorized},
		{"invalid token", "Bearer nonsense", http.StatusUnauthorized},
		{"token for unknown user", "Bearer ghost-token", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestWriteErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &HTTPHandler{}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"room not found", domain.ErrRoomNotFound, http.StatusNotFound},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound},
		{"unknown secret code", domain.ErrInvalidSecretCode, http.StatusNotFound},
		{"duplicate room name", domain.ErrDuplicateRoomName, http.StatusConflict},
		{"empty message", domain.ErrEmptyMessage, http.StatusBadRequest},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized},
		{"anything else", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.writeError(c, tt.err)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query    string
		wantPage int
		wantSize int
	}{
		{"", 0, 50},
		{"?page=2&size=20", 2, 20},
		{"?page=-1", 0, 50},
		{"?size=0", 0, 50},
		{"?size=500", 0, 50},
		{"?page=abc&size=xyz", 0, 50},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/messages"+tt.query, nil)

			page, size := pagination(c)
			if page != tt.wantPage || size != tt.wantSize {
				t.Errorf("pagination(%q) = (%d, %d), want (%d, %d)", tt.query, page, size, tt.wantPage, tt.wantSize)
			}
		})
	}
}
