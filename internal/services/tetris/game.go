package tetris

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

var (
	// ErrNotReady はゲーム開始前にピースやボードを操作しようとした場合に返されます。
	ErrNotReady = errors.New("game not started")
	// ErrPaused は一時停止中に操作入力を受けた場合に返されます。
	ErrPaused = errors.New("game is paused")
	// ErrGameOver はゲームオーバー後に操作しようとした場合に返されます。
	ErrGameOver = errors.New("game is over")
	// ErrInvalidTransition は現在の状態から遷移できない操作が要求された場合に返されます。
	ErrInvalidTransition = errors.New("invalid state transition")
)

// State はゲームループの状態です。
type State int

const (
	StateIdle     State = iota // 開始前
	StateRunning               // プレイ中
	StatePaused                // 一時停止中 (入力無効、自動落下停止)
	StateGameOver              // 終了 (それ以上ティックしない)
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateGameOver:
		return "game_over"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Direction はピースの移動方向です。
type Direction int

const (
	DirectionLeft Direction = iota
	DirectionRight
	DirectionDown
)

// GameOptions はゲームの設定です。ゼロ値のフィールドには既定値が使われます。
type GameOptions struct {
	Gravity       Gravity    // 自動落下スケジュール
	LinesPerLevel int        // レベルアップに必要なライン数
	PreviewCount  int        // ネクスト表示の個数 (1-7)
	Rand          *rand.Rand // ピース生成用の乱数ジェネレータ
	Listener      Listener   // イベント通知先
}

func (o GameOptions) withDefaults() GameOptions {
	if o.Gravity == (Gravity{}) {
		o.Gravity = DefaultGravity
	}
	if o.Gravity.Initial <= 0 {
		o.Gravity.Initial = InitialFallInterval
	}
	if o.Gravity.Min <= 0 {
		o.Gravity.Min = MinFallInterval
	}
	if o.Gravity.Step < 0 {
		o.Gravity.Step = 0
	}
	if o.LinesPerLevel <= 0 {
		o.LinesPerLevel = DefaultLinesPerLevel
	}
	if o.PreviewCount <= 0 {
		o.PreviewCount = DefaultPreviewCount
	}
	if o.PreviewCount > MaxPreviewCount {
		o.PreviewCount = MaxPreviewCount
	}
	if o.Rand == nil {
		// 乱数生成器のシードを現在時刻で初期化
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.Listener == nil {
		o.Listener = NopListener{}
	}
	return o
}

// Game は1人用のテトリスのゲーム状態とゲームループの遷移を管理します。
// Game自体はロックを持たず、1つのゴルーチンからのみ操作されることを前提とします。
// ボードを変更するのはロック処理 (Tick, HardDrop) だけです。
type Game struct {
	board    tetris.Board
	current  *tetris.Piece    // 操作中のテトリミノ
	held     tetris.PieceType // ホールド中のテトリミノの種類
	hasHeld  bool             // ホールド枠が埋まっているか
	canHold  bool             // 現在のピースでホールドできるか
	queue    *PieceQueue
	score    int
	lines    int
	level    int
	state    State
	endedAt  time.Time
	opts     GameOptions
	listener Listener
}

// NewGame は開始前 (Idle) のゲームを作成します。
func NewGame(opts GameOptions) *Game {
	opts = opts.withDefaults()
	return &Game{
		board:    tetris.NewBoard(),
		queue:    NewPieceQueue(opts.Rand),
		level:    1,
		canHold:  true,
		state:    StateIdle,
		opts:     opts,
		listener: opts.Listener,
	}
}

// Start はIdleからRunningへ遷移し、最初のピースを出現させます。
func (g *Game) Start() error {
	switch g.state {
	case StateIdle:
	case StateGameOver:
		return fmt.Errorf("start: %w", ErrGameOver)
	default:
		return fmt.Errorf("start from %s: %w", g.state, ErrInvalidTransition)
	}
	g.setState(StateRunning)
	g.spawn(g.queue.Next())
	return nil
}

// Pause はRunningからPausedへ遷移します。一時停止中は入力と自動落下が止まります。
func (g *Game) Pause() error {
	if err := g.requireStarted("pause"); err != nil {
		return err
	}
	if g.state != StateRunning {
		return fmt.Errorf("pause from %s: %w", g.state, ErrInvalidTransition)
	}
	g.setState(StatePaused)
	return nil
}

// Resume はPausedからRunningへ遷移します。
func (g *Game) Resume() error {
	if err := g.requireStarted("resume"); err != nil {
		return err
	}
	if g.state != StatePaused {
		return fmt.Errorf("resume from %s: %w", g.state, ErrInvalidTransition)
	}
	g.setState(StateRunning)
	return nil
}

// TogglePause はRunningとPausedを切り替えます。
func (g *Game) TogglePause() error {
	if g.state == StatePaused {
		return g.Resume()
	}
	return g.Pause()
}

// Stop はプレイ中または一時停止中のゲームを終了させます。
func (g *Game) Stop() error {
	if err := g.requireStarted("stop"); err != nil {
		return err
	}
	g.gameOver()
	return nil
}

// Restart はボード、スコア、ホールド、キューを初期化して新しいゲームを開始します。
// どの状態からでも呼び出せます。
func (g *Game) Restart() {
	g.board = tetris.NewBoard()
	g.current = nil
	g.hasHeld = false
	g.canHold = true
	g.score = 0
	g.lines = 0
	g.level = 1
	g.endedAt = time.Time{}
	g.queue.Reset()
	if g.state != StateRunning {
		g.setState(StateRunning)
	}
	g.spawn(g.queue.Next())
}

// Tick は自動落下を1回分進めます。
// 下に動けた場合はピースを1行下げ、動けなかった場合はその位置でロックします。
func (g *Game) Tick() error {
	if err := g.requireRunning("tick"); err != nil {
		return err
	}
	if rows, _ := g.current.MoveDown(&g.board, false); rows > 0 {
		g.listener.OnPieceMoved(*g.current)
		return nil
	}
	g.lockPiece()
	return nil
}

// Move はピースを1マス動かします。
// 置けない位置への移動は何もせず false を返します。下方向で着地していてもロックはしません。
func (g *Game) Move(dir Direction) (bool, error) {
	if err := g.requireRunning("move"); err != nil {
		return false, err
	}
	var moved bool
	switch dir {
	case DirectionLeft:
		moved = g.current.MoveLeft(&g.board)
	case DirectionRight:
		moved = g.current.MoveRight(&g.board)
	case DirectionDown:
		rows, _ := g.current.MoveDown(&g.board, false)
		moved = rows > 0
	default:
		return false, fmt.Errorf("move: unknown direction %d", int(dir))
	}
	if moved {
		g.listener.OnPieceMoved(*g.current)
	}
	return moved, nil
}

// Rotate はピースを時計回りに回転させます。回転できない場合は false を返します。
func (g *Game) Rotate() (bool, error) {
	if err := g.requireRunning("rotate"); err != nil {
		return false, err
	}
	if !g.current.RotateClockwise(&g.board) {
		return false, nil
	}
	g.listener.OnPieceMoved(*g.current)
	return true, nil
}

// HardDrop はピースを置けなくなるまで落下させてロックし、落下した行数を返します。
func (g *Game) HardDrop() (int, error) {
	if err := g.requireRunning("hard_drop"); err != nil {
		return 0, err
	}
	rows, _ := g.current.MoveDown(&g.board, true)
	if rows > 0 {
		g.listener.OnPieceMoved(*g.current)
	}
	g.lockPiece()
	return rows, nil
}

// Hold は現在のピースをホールド枠と入れ替えます。
// ホールド枠が空ならキューから次のピースを出現させます。1回の出現につき1度だけ使えます。
func (g *Game) Hold() (bool, error) {
	if err := g.requireRunning("hold"); err != nil {
		return false, err
	}
	if !g.canHold {
		return false, nil
	}

	next := g.held
	if !g.hasHeld {
		next = g.queue.Next()
	}
	g.held = g.current.Type
	g.hasHeld = true
	g.canHold = false // ロックされるまで再ホールド不可
	g.spawn(next)
	return true, nil
}

// State は現在の状態を返します。
func (g *Game) State() State { return g.state }

// Score は現在のスコアを返します。
func (g *Game) Score() int { return g.score }

// Lines は累計のクリアライン数を返します。
func (g *Game) Lines() int { return g.lines }

// Level は現在のレベルを返します。
func (g *Game) Level() int { return g.level }

// Board はボードのコピーを返します。
func (g *Game) Board() tetris.Board { return g.board }

// CurrentPiece は操作中のピースのコピーを返します。ピースがない場合は nil です。
func (g *Game) CurrentPiece() *tetris.Piece {
	if g.current == nil {
		return nil
	}
	return g.current.Clone()
}

// HeldPiece はホールド中のピースの種類を返します。
func (g *Game) HeldPiece() (tetris.PieceType, bool) {
	return g.held, g.hasHeld
}

// CanHold は現在のピースでホールドできるかを返します。
func (g *Game) CanHold() bool { return g.canHold }

// Preview は次に出現するピースの種類を返します。
func (g *Game) Preview() []tetris.PieceType {
	return g.queue.Peek(g.opts.PreviewCount)
}

// FallInterval は現在のレベルでの自動落下間隔を返します。
func (g *Game) FallInterval() time.Duration {
	return g.opts.Gravity.Interval(g.level)
}

// Stats はスコア、ライン数、レベルを返します。
func (g *Game) Stats() models.GameStats {
	return models.GameStats{Score: g.score, LinesCleared: g.lines, Level: g.level}
}

// Result は最終結果を返します。
func (g *Game) Result() models.Result {
	return models.Result{
		Score:        g.score,
		LinesCleared: g.lines,
		Level:        g.level,
		EndedAt:      g.endedAt,
	}
}

// Snapshot は描画側がボード全体を描き直すための読み取り専用ビューを返します。
func (g *Game) Snapshot() models.GameSnapshot {
	snap := models.GameSnapshot{
		State:          g.state.String(),
		Board:          g.board,
		CanHold:        g.canHold,
		NextPieces:     g.Preview(),
		FallIntervalMs: g.FallInterval().Milliseconds(),
		GameStats:      g.Stats(),
	}
	if g.current != nil {
		snap.CurrentPiece = g.current.Clone()
		snap.CurrentCells = g.current.Cells()
	}
	if g.hasHeld {
		held := g.held
		snap.HeldPiece = &held
	}
	return snap
}

// lockPiece は現在のピースをボードに固定し、ライン消去、スコア加算、次のピースの出現までを行います。
func (g *Game) lockPiece() {
	cells := g.current.Cells()
	if err := g.board.MergePiece(g.current); err != nil {
		// 衝突判定を通過したピースでは起こらない
		log.Printf("[Game] ピースの固定に失敗しました (%s at %d,%d): %v", g.current.Type, g.current.X, g.current.Y, err)
		g.gameOver()
		return
	}
	g.current = nil
	g.listener.OnPieceLocked(cells)

	if rows := g.board.ClearLines(); len(rows) > 0 {
		g.score += CalculateScore(len(rows), g.level)
		g.lines += len(rows)
		g.level = LevelForLines(g.lines, g.opts.LinesPerLevel)
		g.listener.OnLinesCleared(rows)
	}

	g.canHold = true
	g.spawn(g.queue.Next())
}

// spawn は指定された種類の新しいピースを出現位置に置きます。
// 出現位置が既に塞がっている場合はゲームオーバーになります。
func (g *Game) spawn(t tetris.PieceType) {
	piece, err := tetris.NewPiece(t)
	if err != nil {
		panic(fmt.Errorf("spawn: %w", err))
	}
	g.current = piece
	if !tetris.CanPlace(&g.board, piece.Type, piece.Rotation, piece.Y, piece.X) {
		g.gameOver()
		return
	}
	g.listener.OnPieceSpawned(*piece)
}

func (g *Game) gameOver() {
	g.endedAt = time.Now()
	g.setState(StateGameOver)
	log.Printf("[Game] Game Over! Final Score: %d, Lines Cleared: %d, Level: %d", g.score, g.lines, g.level)
	g.listener.OnGameOver()
}

func (g *Game) setState(to State) {
	from := g.state
	g.state = to
	g.listener.OnStateChanged(from, to)
}

// requireStarted は開始前と終了後の操作を拒否します。
func (g *Game) requireStarted(op string) error {
	switch g.state {
	case StateIdle:
		return fmt.Errorf("%s: %w", op, ErrNotReady)
	case StateGameOver:
		return fmt.Errorf("%s: %w", op, ErrGameOver)
	}
	return nil
}

// requireRunning はピースを操作できる状態かを確認します。
func (g *Game) requireRunning(op string) error {
	if err := g.requireStarted(op); err != nil {
		return err
	}
	if g.state == StatePaused {
		return fmt.Errorf("%s: %w", op, ErrPaused)
	}
	if g.current == nil {
		return fmt.Errorf("%s: %w", op, ErrNotReady)
	}
	return nil
}
