package models

import (
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

// EventType はサーバーからクライアントへ送るイベントの種類です。
type EventType string

const (
	EventPieceSpawned EventType = "piece_spawned"
	EventPieceMoved   EventType = "piece_moved"
	EventPieceLocked  EventType = "piece_locked"
	EventLinesCleared EventType = "lines_cleared"
	EventGameOver     EventType = "game_over"
	EventStateChanged EventType = "state_changed"
	EventSnapshot     EventType = "snapshot"
	EventError        EventType = "error"
)

// Event はWebSocketで描画側に送信されるゲームイベントです。
// 種類ごとに使うフィールドだけが埋められます。
type Event struct {
	Type     EventType          `json:"type"`
	Piece    *tetris.Piece      `json:"piece,omitempty"`    // piece_spawned, piece_moved
	Cells    []tetris.Cell      `json:"cells,omitempty"`    // piece_spawned, piece_moved, piece_locked
	Next     []tetris.PieceType `json:"next,omitempty"`     // piece_spawned
	Rows     []int              `json:"rows,omitempty"`     // lines_cleared
	Stats    *GameStats         `json:"stats,omitempty"`    // lines_cleared
	State    string             `json:"state,omitempty"`    // state_changed
	Result   *Result            `json:"result,omitempty"`   // game_over
	Snapshot *GameSnapshot      `json:"snapshot,omitempty"` // snapshot
	Message  string             `json:"message,omitempty"`  // error
}
