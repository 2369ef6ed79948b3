package tetris

import (
	"time"
)

// ゲームループの速度設定など、ゲーム全体に影響する定数を定義します。
const (
	InitialFallInterval  = 600 * time.Millisecond // 最初の自動落下間隔
	MinFallInterval      = 100 * time.Millisecond // 自動落下間隔の下限
	FallIntervalStep     = 40 * time.Millisecond  // レベルが1上がるごとに短くなる量
	DefaultLinesPerLevel = 10                     // レベルアップに必要なライン数
	DefaultPreviewCount  = 4                      // ネクスト表示の個数
	MaxPreviewCount      = bagSize                // ネクスト表示の上限
	lineClearBaseScore   = 100                    // 1ラインあたりの基本スコア
)

// Gravity は自動落下間隔のスケジュールです。
type Gravity struct {
	Initial time.Duration // レベル1の落下間隔
	Min     time.Duration // 落下間隔の下限
	Step    time.Duration // レベルごとの短縮量
}

// DefaultGravity は標準の落下スケジュールです。
var DefaultGravity = Gravity{
	Initial: InitialFallInterval,
	Min:     MinFallInterval,
	Step:    FallIntervalStep,
}

// Interval は指定レベルでの自動落下間隔を返します。
func (g Gravity) Interval(level int) time.Duration {
	if level < 1 {
		level = 1
	}
	// レベルが上がるごとに落下間隔が短くなる
	interval := g.Initial - time.Duration(level-1)*g.Step
	if interval < g.Min {
		interval = g.Min
	}
	return interval
}

// CalculateScore は同時に消したライン数とレベルから加算スコアを計算します。
// スコアは消したライン数の2乗に比例します。
//
// Parameters:
//
//	clearedLines : クリアされたライン数 (1-4)
//	level        : 現在のレベル
//
// Returns:
//
//	int: 加算するスコア
func CalculateScore(clearedLines int, level int) int {
	if clearedLines <= 0 {
		return 0
	}
	if level < 1 {
		level = 1
	}
	return lineClearBaseScore * clearedLines * clearedLines * level
}

// LevelForLines は累計ライン数からレベルを求めます。
func LevelForLines(lines, linesPerLevel int) int {
	if linesPerLevel <= 0 {
		linesPerLevel = DefaultLinesPerLevel
	}
	return lines/linesPerLevel + 1
}
