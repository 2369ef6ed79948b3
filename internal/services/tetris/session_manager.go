package tetris

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrSessionNotFound は指定されたIDのセッションが存在しない場合に返されます。
var ErrSessionNotFound = errors.New("session not found")

// SessionManager はゲームセッション全体を管理します。
// これはアプリケーション内でシングルトンとして動作することが想定されます。
// 各セッションのゲーム状態はセッション自身のゴルーチンだけが変更し、マネージャーはIDとの対応だけを保持します。
type SessionManager struct {
	sessions map[string]*Session // sessionID -> Session のマップ
	mu       sync.RWMutex        // sessions マップへのアクセスを保護するためのRWMutex
	options  GameOptions         // 新しいセッションに使うゲーム設定
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewSessionManager は新しい SessionManager インスタンスを作成します。
//
// Parameters:
//
//	options : 新しいセッションのゲーム設定 (Rand と Listener はセッションごとに設定されるため無視されます)
//
// Returns:
//
//	*SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(options GameOptions) *SessionManager {
	options.Rand = nil
	options.Listener = nil
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		sessions: make(map[string]*Session),
		options:  options,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// CreateSession は新しいゲームセッションを作成し、そのループをバックグラウンドで開始します。
// ゲームは Idle 状態で作られ、クライアントの start 操作で開始されます。
func (sm *SessionManager) CreateSession() (*Session, error) {
	id := uuid.New().String() // 新しいセッションIDを生成
	session := NewSession(id, sm.options)

	// 停止確認と wg.Add は Shutdown と同じロックの下で行う
	sm.mu.Lock()
	if sm.ctx.Err() != nil {
		sm.mu.Unlock()
		return nil, fmt.Errorf("create session: %w", ErrSessionClosed)
	}
	ctx, cancel := context.WithCancel(sm.ctx)
	session.cancel = cancel
	sm.sessions[id] = session
	sm.wg.Add(1)
	sm.mu.Unlock()

	go func() {
		defer sm.wg.Done()
		session.Run(ctx)
		sm.remove(id)
	}()

	log.Printf("[SessionManager] Created new game session: %s", id)
	return session, nil
}

// GetSession は指定されたIDのセッションを取得します。
func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, ok := sm.sessions[id]
	return session, ok
}

// EndSession はセッションのループを停止します。ループの終了後にマップから削除されます。
func (sm *SessionManager) EndSession(id string) bool {
	session, ok := sm.GetSession(id)
	if !ok {
		return false
	}
	session.Close()
	log.Printf("[SessionManager] Game session %s ended.", id)
	return true
}

// SessionCount は現在アクティブなセッション数を返します。
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// RegisterClient はWebSocket接続をセッションに登録し、送受信のゴルーチンを開始します。
// 接続が切れるとセッションも終了します。
//
// Parameters:
//
//	sessionID : クライアントが接続するセッションのID
//	conn      : 認証済みのWebSocketコネクション
//
// Returns:
//
//	error: セッションが存在しないか既に終了している場合
func (sm *SessionManager) RegisterClient(sessionID string, conn *websocket.Conn) error {
	session, ok := sm.GetSession(sessionID)
	if !ok {
		return fmt.Errorf("register client for %s: %w", sessionID, ErrSessionNotFound)
	}

	client := NewClient(sessionID, conn)
	if err := session.Attach(client); err != nil {
		return fmt.Errorf("register client for %s: %w", sessionID, err)
	}

	go client.writePump()
	go client.readPump(session, func() {
		log.Printf("[SessionManager] Client disconnected from session %s", sessionID)
		sm.EndSession(sessionID)
	})

	log.Printf("[SessionManager] Client registered for session %s", sessionID)
	return nil
}

// Shutdown は全セッションを停止し、ループの終了を待ちます。
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] シャットダウン開始...")
	sm.mu.Lock()
	sm.cancel()
	sm.mu.Unlock()
	sm.wg.Wait()
	log.Printf("[SessionManager] シャットダウン完了")
}

func (sm *SessionManager) remove(id string) {
	sm.mu.Lock()
	delete(sm.sessions, id)
	sm.mu.Unlock()
	log.Printf("[SessionManager] Removed session %s from sessions map", id)
}
