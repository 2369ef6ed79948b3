package models

import (
	"time"
)

// Result はゲームオーバー時の最終結果です。
// ハイスコアの保存は行わず、game_over イベントでクライアントに通知するだけです。
type Result struct {
	GameID       string    `json:"game_id,omitempty"`
	Score        int       `json:"score"`
	LinesCleared int       `json:"lines_cleared"`
	Level        int       `json:"level"`
	EndedAt      time.Time `json:"ended_at"`
}
