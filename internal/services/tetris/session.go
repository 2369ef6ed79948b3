package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-engine/internal/models/tetris"
)

var (
	// ErrSessionClosed は終了済みのセッションに対して操作した場合に返されます。
	ErrSessionClosed = errors.New("session closed")
	// ErrInputQueueFull は入力キューが溢れて操作を破棄した場合に返されます。
	ErrInputQueueFull = errors.New("input queue full")
)

const inputBufferSize = 64

// Subscriber はセッションのイベントを受け取る送信先です。WebSocketクライアントが実装します。
type Subscriber interface {
	SafeSend(message []byte) bool
	SafeClose()
}

// Session は1つのゲームと、それを操作する唯一のゴルーチンをまとめたものです。
// 入力、自動落下、購読者の登録、スナップショット要求はすべて Run のselectループで直列に処理されます。
type Session struct {
	ID        string
	CreatedAt time.Time

	game        *Game
	recorder    *eventRecorder
	inputs      chan models.PlayerInput
	register    chan Subscriber
	unregister  chan detachRequest
	snapshots   chan chan models.GameSnapshot
	subscribers map[Subscriber]bool
	done        chan struct{}
	cancel      context.CancelFunc
}

// NewSession は新しいセッションを作成します。Run を呼ぶまでは何も処理されません。
func NewSession(id string, opts GameOptions) *Session {
	s := &Session{
		ID:          id,
		CreatedAt:   time.Now(),
		inputs:      make(chan models.PlayerInput, inputBufferSize),
		register:    make(chan Subscriber),
		unregister:  make(chan detachRequest),
		snapshots:   make(chan chan models.GameSnapshot),
		subscribers: make(map[Subscriber]bool),
		done:        make(chan struct{}),
		cancel:      func() {},
	}
	s.recorder = &eventRecorder{}
	opts.Listener = s.recorder
	s.game = NewGame(opts)
	s.recorder.game = s.game
	return s
}

// Run はセッションのメインイベントループです。ctx がキャンセルされるまでブロックします。
// ゲームの状態を変更するのはこのゴルーチンだけです。
func (s *Session) Run(ctx context.Context) {
	defer close(s.done)

	gravity := newGravityTimer()
	defer gravity.stop()

	log.Printf("[Session] セッション %s のループを開始します", s.ID)
	for {
		select {
		case <-ctx.Done():
			for sub := range s.subscribers {
				sub.SafeClose()
			}
			s.subscribers = nil
			log.Printf("[Session] セッション %s のループを終了します", s.ID)
			return

		case input := <-s.inputs:
			s.apply(input)

		case sub := <-s.register:
			s.subscribers[sub] = true
			s.sendTo(sub, s.snapshotEvent())

		case req := <-s.unregister:
			if s.subscribers[req.sub] {
				delete(s.subscribers, req.sub)
				req.sub.SafeClose()
			}
			close(req.done)

		case reply := <-s.snapshots:
			reply <- s.snapshot()

		case <-gravity.C():
			if err := s.game.Tick(); err != nil {
				log.Printf("[Session] セッション %s の自動落下に失敗しました: %v", s.ID, err)
			}
		}

		s.flush()
		gravity.sync(s.game.State() == StateRunning, s.game.FallInterval())
	}
}

// Submit はプレイヤーの入力をキューに積みます。ブロックはしません。
func (s *Session) Submit(input models.PlayerInput) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.inputs <- input:
		return nil
	default:
		return ErrInputQueueFull
	}
}

// Attach は購読者を登録します。登録直後に現在のスナップショットが送られます。
func (s *Session) Attach(sub Subscriber) error {
	select {
	case s.register <- sub:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// detachRequest は購読解除の要求です。ループは SafeClose の後に done を閉じます。
type detachRequest struct {
	sub  Subscriber
	done chan struct{}
}

// Detach は購読者の登録を解除し、送信チャネルを閉じます。
// 戻った時点で購読者は閉じられています。
func (s *Session) Detach(sub Subscriber) {
	req := detachRequest{sub: sub, done: make(chan struct{})}
	select {
	case s.unregister <- req:
	case <-s.done:
		return
	}
	select {
	case <-req.done:
	case <-s.done:
	}
}

// Snapshot はセッションのゴルーチンから現在の状態を取得します。
func (s *Session) Snapshot(ctx context.Context) (models.GameSnapshot, error) {
	reply := make(chan models.GameSnapshot, 1)
	select {
	case s.snapshots <- reply:
	case <-s.done:
		return models.GameSnapshot{}, ErrSessionClosed
	case <-ctx.Done():
		return models.GameSnapshot{}, ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return models.GameSnapshot{}, ctx.Err()
	}
}

// Close はセッションのループを停止します。
func (s *Session) Close() {
	s.cancel()
}

// Done はループが終了すると閉じられるチャネルを返します。
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// apply は1件の入力をゲームに適用します。
// 置けない移動は黙って無視し、状態遷移の失敗だけを error イベントとして返します。
func (s *Session) apply(input models.PlayerInput) {
	var err error
	switch input.Action {
	case models.ActionMoveLeft:
		_, err = s.game.Move(DirectionLeft)
	case models.ActionMoveRight:
		_, err = s.game.Move(DirectionRight)
	case models.ActionMoveDown:
		_, err = s.game.Move(DirectionDown)
	case models.ActionRotate:
		_, err = s.game.Rotate()
	case models.ActionHardDrop:
		_, err = s.game.HardDrop()
	case models.ActionHold:
		_, err = s.game.Hold()
	case models.ActionStart:
		err = s.game.Start()
	case models.ActionPause:
		err = s.game.Pause()
	case models.ActionResume:
		err = s.game.Resume()
	case models.ActionTogglePause:
		err = s.game.TogglePause()
	case models.ActionStop:
		err = s.game.Stop()
	case models.ActionRestart:
		s.game.Restart()
		s.recorder.record(s.snapshotEvent())
	default:
		err = fmt.Errorf("unknown action %q", input.Action)
	}
	if err != nil {
		s.recorder.record(models.Event{Type: models.EventError, Message: err.Error()})
	}
}

func (s *Session) snapshot() models.GameSnapshot {
	snap := s.game.Snapshot()
	snap.GameID = s.ID
	return snap
}

func (s *Session) snapshotEvent() models.Event {
	snap := s.snapshot()
	return models.Event{Type: models.EventSnapshot, Snapshot: &snap}
}

// flush は記録されたイベントを全購読者に送信します。
func (s *Session) flush() {
	events := s.recorder.drain()
	if len(events) == 0 {
		return
	}
	for _, event := range events {
		if event.Type == models.EventGameOver && event.Result != nil {
			event.Result.GameID = s.ID
		}
		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("[Session] イベント %s のシリアライズに失敗しました: %v", event.Type, err)
			continue
		}
		for sub := range s.subscribers {
			if !sub.SafeSend(payload) {
				log.Printf("[Session] セッション %s の購読者への送信に失敗しました (channel closed or full)", s.ID)
			}
		}
	}
}

func (s *Session) sendTo(sub Subscriber, event models.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Session] イベント %s のシリアライズに失敗しました: %v", event.Type, err)
		return
	}
	if !sub.SafeSend(payload) {
		log.Printf("[Session] セッション %s の購読者への送信に失敗しました (channel closed or full)", s.ID)
	}
}

// eventRecorder はゲームからの通知をイベントとして溜めておくListenerです。
// 溜めたイベントはループの各ケースの最後にまとめて送信されます。
type eventRecorder struct {
	game   *Game
	events []models.Event
}

func (r *eventRecorder) record(e models.Event) {
	r.events = append(r.events, e)
}

func (r *eventRecorder) drain() []models.Event {
	events := r.events
	r.events = nil
	return events
}

func (r *eventRecorder) OnPieceSpawned(piece tetris.Piece) {
	r.record(models.Event{
		Type:  models.EventPieceSpawned,
		Piece: &piece,
		Cells: piece.Cells(),
		Next:  r.game.Preview(),
	})
}

func (r *eventRecorder) OnPieceMoved(piece tetris.Piece) {
	r.record(models.Event{Type: models.EventPieceMoved, Piece: &piece, Cells: piece.Cells()})
}

func (r *eventRecorder) OnPieceLocked(cells []tetris.Cell) {
	r.record(models.Event{Type: models.EventPieceLocked, Cells: cells})
}

func (r *eventRecorder) OnLinesCleared(rows []int) {
	stats := r.game.Stats()
	r.record(models.Event{Type: models.EventLinesCleared, Rows: rows, Stats: &stats})
}

func (r *eventRecorder) OnGameOver() {
	result := r.game.Result()
	r.record(models.Event{Type: models.EventGameOver, Result: &result})
}

func (r *eventRecorder) OnStateChanged(_, to State) {
	r.record(models.Event{Type: models.EventStateChanged, State: to.String()})
}

// gravityTimer は自動落下用のタイマーです。
// プレイ中でなければ止め、落下間隔が変わったら張り直します。
type gravityTimer struct {
	ticker   *time.Ticker
	interval time.Duration
}

func newGravityTimer() *gravityTimer {
	return &gravityTimer{}
}

// C はティックを受け取るチャネルを返します。止まっている間は nil (受信しても永遠に来ない) です。
func (t *gravityTimer) C() <-chan time.Time {
	if t.ticker == nil {
		return nil
	}
	return t.ticker.C
}

func (t *gravityTimer) sync(running bool, interval time.Duration) {
	switch {
	case !running:
		t.stop()
	case t.ticker == nil:
		t.ticker = time.NewTicker(interval)
		t.interval = interval
	case t.interval != interval:
		t.ticker.Reset(interval)
		t.interval = interval
	}
}

func (t *gravityTimer) stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}
