package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_IssueAndParse(t *testing.T) {
	ti := NewTokenIssuer([]byte("secret"), time.Hour)

	token, err := ti.Issue("game-1")
	require.NoError(t, err)

	gameID, err := ti.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "game-1", gameID)

	gameID, err = ti.Parse("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "game-1", gameID)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ti := NewTokenIssuer([]byte("secret"), time.Hour)
	token, err := ti.Issue("game-1")
	require.NoError(t, err)

	other := NewTokenIssuer([]byte("other-secret"), time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = ti.Parse("")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ti.Parse("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer([]byte("secret"), time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, err := expired.Issue("game-1")
	require.NoError(t, err)
	_, err = ti.Parse(old)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")

	noneToken := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "game-1"})
	unsigned, err := noneToken.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ti.Parse(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken, "alg none")

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	signed, err := noSubject.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ti.Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken, "missing subject")
}

func TestAuthMiddleware(t *testing.T) {
	ti := NewTokenIssuer([]byte("secret"), time.Hour)
	token, err := ti.Issue("game-1")
	require.NoError(t, err)

	var seenGameID string
	handler := ti.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenGameID, _ = GetGameIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		pathID     string
		wantStatus int
	}{
		{"missing header", "", "game-1", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", "game-1", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "game-1", http.StatusUnauthorized},
		{"other game", "Bearer " + token, "game-2", http.StatusForbidden},
		{"ok", "Bearer " + token, "game-1", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seenGameID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/games/"+tt.pathID, nil)
			req = mux.SetURLVars(req, map[string]string{"gameID": tt.pathID})
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Equal(t, "game-1", seenGameID)
			} else {
				assert.Empty(t, seenGameID)
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestCORSHandler(t *testing.T) {
	handler := CORSHandler([]string{"https://allowed.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/public", nil)
	req.Header.Set("Origin", "https://allowed.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/public", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		req = httptest.NewRequest(http.MethodOptions, "/api/games/abc", nil)
		req.Header.Set("Origin", "https://allowed.example")
		req.Header.Set("Access-Control-Request-Method", method)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"), "preflight for %s", method)
	}
}
