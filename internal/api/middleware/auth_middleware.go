package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

// ErrInvalidToken はゲームトークンの検証に失敗した場合に返されます。
var ErrInvalidToken = errors.New("invalid game token")

type GameIDKey struct{}

// GetGameIDFromContext はコンテキストから認証済みのゲームIDを取り出します。
func GetGameIDFromContext(ctx context.Context) (string, bool) {
	gameID, ok := ctx.Value(GameIDKey{}).(string)
	return gameID, ok
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// TokenIssuer はゲームごとのアクセストークン (HMAC署名のJWT) を発行・検証します。
// トークンの 'sub' クレームにゲームIDを格納します。
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer は新しい TokenIssuer を作成します。
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue はゲームIDに紐づくトークンを発行します。
func (ti *TokenIssuer) Issue(gameID string) (string, error) {
	now := ti.now()
	claims := jwt.RegisteredClaims{
		Subject:   gameID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign game token: %w", err)
	}
	return signed, nil
}

// Parse はトークンを検証し、格納されているゲームIDを返します。
// "Bearer " プレフィックスが付いていても受け付けます。
func (ti *TokenIssuer) Parse(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing game ID", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// AuthMiddleware はAuthorizationヘッダーのゲームトークンを検証するミドルウェアです。
// パスに {gameID} が含まれる場合は、トークンのゲームIDと一致することも確認します。
func (ti *TokenIssuer) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. authorizationヘッダーからトークンを取得
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
			return
		}

		// 2. トークンの検証
		gameID, err := ti.Parse(authHeader)
		if err != nil {
			log.Printf("AuthMiddleware Error: %v", err)
			writeJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		// 3. パスのゲームIDとの照合
		if pathID, ok := mux.Vars(r)["gameID"]; ok && pathID != gameID {
			writeJSONError(w, http.StatusForbidden, "Token does not grant access to this game")
			return
		}

		// ゲームIDをContextに設定して次のハンドラに渡す
		ctx := context.WithValue(r.Context(), GameIDKey{}, gameID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
