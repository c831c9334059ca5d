package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/swipejobs/internal/model"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(_ context.Context, token string) (*model.Session, error) {
	if id, ok := f[token]; ok {
		return &model.Session{UserID: id}, nil
	}
	return nil, errors.New("no session")
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	id, _ := UserIDFromContext(r.Context())
	tok, _ := TokenFromContext(r.Context())
	w.Write([]byte(id + "|" + tok))
}

func TestRequireSession(t *testing.T) {
	h := RequireSession(fakeResolver{"good": "user-1"})(http.HandlerFunc(echoUser))

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "bearer header",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") },
			wantCode: http.StatusOK,
			wantBody: "user-1|good",
		},
		{
			name:     "lowercase scheme",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "bearer good") },
			wantCode: http.StatusOK,
			wantBody: "user-1|good",
		},
		{
			name:     "cookie",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"}) },
			wantCode: http.StatusOK,
			wantBody: "user-1|good",
		},
		{
			name:     "missing token",
			setup:    func(r *http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "unknown token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") },
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "basic scheme ignored",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Basic good") },
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), "unauthorized")
			}
		})
	}
}

func TestUserIDFromContext_Anonymous(t *testing.T) {
	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := UserIDFromContext(WithUserID(context.Background(), "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}
