package handlers

import (
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api/middleware"
)

// NewRouter はAPIのルーティングを組み立てます。
//
// Parameters:
//
//	gh             : ゲーム関連のハンドラー
//	ph             : 公開エンドポイントのハンドラー
//	tokens         : 保護されたルートで使う TokenIssuer
//	allowedOrigins : CORSで許可するオリジン
func NewRouter(gh *GameHandler, ph *PublicHandler, tokens *middleware.TokenIssuer, allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Recoverer)

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/public", ph.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/games", gh.CreateGame).Methods(http.MethodPost)
	// WebSocketは接続後の最初のメッセージで認証する
	r.HandleFunc("/api/games/{gameID}/ws", gh.HandleWebSocketConnection).Methods(http.MethodGet)

	// ゲームトークンが必要なエンドポイント
	protectedRouter := r.PathPrefix("/api/games/{gameID}").Subrouter()
	protectedRouter.Use(tokens.AuthMiddleware)
	protectedRouter.HandleFunc("", gh.GetGame).Methods(http.MethodGet)
	protectedRouter.HandleFunc("", gh.EndGame).Methods(http.MethodDelete)

	return middleware.CORSHandler(allowedOrigins)(r)
}
