package tetris

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
)

const (
	writeWait      = 10 * time.Second    // 1メッセージの書き込みに許す時間
	pongWait       = 60 * time.Second    // Pongを待つ時間
	pingPeriod     = (pongWait * 9) / 10 // Pingの送信間隔 (pongWaitより短くする)
	maxMessageSize = 1024                // 受信メッセージの最大サイズ
	sendBufferSize = 256                 // 送信バッファ
)

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	SessionID string          // このクライアントが接続しているセッションのID
	Conn      *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send      chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed    bool            // チャネルが閉じられたかどうかのフラグ
	mu        sync.Mutex      // closedフラグ保護用
}

// NewClient は新しいクライアントを作成します。
func NewClient(sessionID string, conn *websocket.Conn) *Client {
	return &Client{
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
	}
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false // 既に閉じられている
	}

	select {
	case c.Send <- message:
		return true // 送信成功
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// readPump はクライアントからのWebSocketメッセージを読み込み、セッションの入力キューに送ります。
// 接続が切れたら onClose を呼びます。
func (c *Client) readPump(session *Session, onClose func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Client] Panic in readPump for session %s: %v", c.SessionID, r)
		}
		session.Detach(c)
		if err := c.Conn.Close(); err != nil {
			log.Printf("[Client] Error closing WebSocket connection for session %s: %v", c.SessionID, err)
		}
		onClose()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[Client] WebSocket unexpected close error for session %s: %v", c.SessionID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var input models.PlayerInput
		if err := json.Unmarshal(message, &input); err != nil {
			log.Printf("[Client] Failed to unmarshal input message for session %s: %v", c.SessionID, err)
			continue
		}
		if err := session.Submit(input); err != nil {
			log.Printf("[Client] Dropping input %q for session %s: %v", input.Action, c.SessionID, err)
			if errors.Is(err, ErrSessionClosed) {
				return
			}
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
// クライアントごとにこのゴルーチンが動作します。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// セッションがチャネルを閉じた場合 (登録解除やセッション終了時)
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for session %s: %v", c.SessionID, err)
				return
			}

		case <-ticker.C:
			// ピングメッセージを定期的に送信してコネクションの生存確認
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
