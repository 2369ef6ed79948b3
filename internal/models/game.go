package models

import (
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// Action はクライアントから送られてくる操作の種類です。
type Action string

const (
	ActionMoveLeft    Action = "move_left"
	ActionMoveRight   Action = "move_right"
	ActionMoveDown    Action = "move_down"
	ActionRotate      Action = "rotate"
	ActionHardDrop    Action = "hard_drop"
	ActionHold        Action = "hold"
	ActionStart       Action = "start"
	ActionPause       Action = "pause"
	ActionResume      Action = "resume"
	ActionTogglePause Action = "toggle_pause"
	ActionRestart     Action = "restart"
	ActionStop        Action = "stop"
)

// PlayerInput はクライアントからの操作入力を表す構造体です。
// WebSocketを通じてサーバーに送信されます。
type PlayerInput struct {
	Action Action `json:"action"`
}

// GameStats はスコア関連の数値をまとめたものです。
type GameStats struct {
	Score        int `json:"score"`
	LinesCleared int `json:"lines_cleared"`
	Level        int `json:"level"`
}

// GameSnapshot はゲームの読み取り専用ビューです。
// 途中から接続したクライアントが盤面を描画し直すために使います。
type GameSnapshot struct {
	GameID         string             `json:"game_id,omitempty"`
	State          string             `json:"state"`            // "idle", "running", "paused", "game_over"
	Board          tetris.Board       `json:"board"`            // ロック済みブロック
	CurrentPiece   *tetris.Piece      `json:"current_piece"`    // 操作中のテトリミノ (なければnull)
	CurrentCells   []tetris.Cell      `json:"current_cells"`    // 操作中のテトリミノが占めるセル
	HeldPiece      *tetris.PieceType  `json:"held_piece"`       // ホールド中のテトリミノの種類 (なければnull)
	CanHold        bool               `json:"can_hold"`         // 現在のピースでホールドできるか
	NextPieces     []tetris.PieceType `json:"next_pieces"`      // 次に出現するテトリミノ
	FallIntervalMs int64              `json:"fall_interval_ms"` // 現在の自動落下間隔
	GameStats
}

// CreateGameResponse はゲーム作成APIのレスポンスです。
type CreateGameResponse struct {
	GameID string `json:"game_id"`
	Token  string `json:"token"`
}
