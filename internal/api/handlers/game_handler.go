package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/services/tetris" // SessionManager をインポート
)

// authTimeout はWebSocket接続後、認証メッセージを待つ時間です。
const authTimeout = 10 * time.Second

// authMessage はWebSocket接続直後にクライアントが送る認証メッセージです。
type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// GameHandler はゲーム関連のHTTPリクエスト（ゲーム作成、状態取得、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager // ゲームセッションの管理サービス
	tokens         *middleware.TokenIssuer
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//
//	sm             : セッションマネージャーへのポインタ
//	tokens         : ゲームトークンの発行・検証を行う TokenIssuer
//	allowedOrigins : WebSocket接続を許可するオリジン (空ならすべて許可)
//
// Returns:
//
//	*GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, tokens *middleware.TokenIssuer, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		tokens:         tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker は許可リストに基づいてOriginを検査する関数を返します。
// Originヘッダーのないリクエスト (ブラウザ以外のクライアント) は許可します。
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 || allowed["*"] {
			return true
		}
		return allowed[origin]
	}
}

// WriteErrorResponse はエラーレスポンスをJSON形式で書き込みます。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, map[string]string{"error": message})
}

// WriteJSONResponse はJSONレスポンスを書き込みます。
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[GameHandler] JSONエンコードエラー: %v", err)
	}
}

// CreateGame は新しいゲームセッションを作成し、そのゲーム専用のトークンを返します。
// POST /api/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessionManager.CreateSession()
	if err != nil {
		log.Printf("[GameHandler] Failed to create game: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲームの作成に失敗しました")
		return
	}

	token, err := h.tokens.Issue(session.ID)
	if err != nil {
		log.Printf("[GameHandler] Failed to issue token for game %s: %v", session.ID, err)
		h.sessionManager.EndSession(session.ID)
		WriteErrorResponse(w, http.StatusInternalServerError, "トークンの発行に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, models.CreateGameResponse{GameID: session.ID, Token: token})
}

// authorizedGameID は AuthMiddleware が検証したゲームIDをコンテキストから取り出します。
func authorizedGameID(w http.ResponseWriter, r *http.Request) (string, bool) {
	gameID, ok := middleware.GetGameIDFromContext(r.Context())
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "認証されていません")
	}
	return gameID, ok
}

// GetGame はゲームの現在の状態を返します。AuthMiddleware の内側で使います。
// GET /api/games/{gameID}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := authorizedGameID(w, r)
	if !ok {
		return
	}
	session, ok := h.sessionManager.GetSession(gameID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは見つかりませんでした")
		return
	}

	snap, err := session.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, tetris.ErrSessionClosed) {
			WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは終了しています")
			return
		}
		log.Printf("[GameHandler] Failed to read snapshot for game %s: %v", gameID, err)
		WriteErrorResponse(w, http.StatusServiceUnavailable, "ゲーム状態の取得に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, snap)
}

// EndGame はゲームセッションを終了します。AuthMiddleware の内側で使います。
// DELETE /api/games/{gameID}
func (h *GameHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := authorizedGameID(w, r)
	if !ok {
		return
	}
	if !h.sessionManager.EndSession(gameID) {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは見つかりませんでした")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証メッセージを確認した後、コネクションをセッションマネージャーに引き渡します。
// GET /api/games/{gameID}/ws
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameID"]
	if _, ok := h.sessionManager.GetSession(gameID); !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたゲームは見つかりませんでした")
		return
	}

	// HTTP接続をWebSocket接続にアップグレード
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for game %s: %v", gameID, err)
		return // Upgrade がエラーレスポンスを書き込み済み
	}
	log.Printf("[GameHandler] WebSocket upgraded for game %s.", gameID)

	if err := h.authenticate(conn, gameID); err != nil {
		log.Printf("[GameHandler] WebSocket auth failed for game %s: %v", gameID, err)
		conn.WriteJSON(map[string]string{"error": err.Error()})
		conn.Close()
		return
	}

	// SessionManager に新しいWebSocket接続を登録
	if err := h.sessionManager.RegisterClient(gameID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client to game %s: %v", gameID, err)
		conn.WriteJSON(map[string]string{"error": "ゲームに接続できませんでした"})
		conn.Close()
		return
	}
	// 以降の送受信は readPump と writePump が担当します。
}

// authenticate は最初のメッセージとして認証メッセージを読み込み、
// トークンがこのゲームのものであることを確認します。
func (h *GameHandler) authenticate(conn *websocket.Conn, gameID string) error {
	conn.SetReadDeadline(time.Now().Add(authTimeout))

	var msg authMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return errors.New("failed to read auth message")
	}
	if msg.Type != "auth" {
		return errors.New("expected auth message")
	}

	tokenGameID, err := h.tokens.Parse(msg.Token)
	if err != nil {
		return errors.New("invalid token")
	}
	if tokenGameID != gameID {
		return errors.New("token does not grant access to this game")
	}

	// タイムアウトを解除
	conn.SetReadDeadline(time.Time{})
	return conn.WriteJSON(map[string]string{"type": "auth_success", "message": "Authentication successful"})
}
