package tetris

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket" // WebSocketライブラリのインポート

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/database"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFinished  = errors.New("session already finished")
	ErrSessionForbidden = errors.New("session belongs to another user")
)

// セッションの状態
const (
	StatusWaiting  = "waiting"  // 作成済みでクライアント未接続
	StatusPlaying  = "playing"  // ゲーム進行中
	StatusFinished = "finished" // トップアウトまたは終了済み
)

// WebSocket接続の設定値
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 256
	inputQueueSize = 64

	// DefaultIdleTimeout の間クライアントが接続していないセッションは破棄します。
	DefaultIdleTimeout = 2 * time.Minute
	// DefaultFinishedRetention の間は終了したセッションの最終状態を参照できます。
	DefaultFinishedRetention = 5 * time.Minute
)

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	UserID    string          // このクライアントに紐づくユーザーのID
	SessionID string          // 接続先のセッションID
	Conn      *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send      chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed    bool            // チャネルが閉じられたかどうかのフラグ
	mu        sync.Mutex      // closedフラグ保護用
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます。残っているメッセージは writePump が送り切ってから接続を閉じます。
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// ServerMessage はサーバーからクライアントへ送るWebSocketメッセージです。
type ServerMessage struct {
	Type   string      `json:"type"` // "state", "game_over", "error"
	State  *Snapshot   `json:"state,omitempty"`
	Events *TickResult `json:"events,omitempty"`
	Score  *Score      `json:"score,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// GameSession は1人のプレイヤーと1つの Game の組です。
// Game は run ゴルーチンだけが触り、他のゴルーチンは mu で保護された最新スナップショットを読みます。
type GameSession struct {
	ID        string
	UserID    string
	Status    string
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time

	game   *Game
	inputs chan InputEvent
	done   chan struct{}
	client *Client
	last   Snapshot
	mu     sync.RWMutex
}

// SessionView はAPIで返すセッションの状態です。
type SessionView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Connected bool      `json:"connected"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
	State     Snapshot  `json:"state"`
}

// View は現在のセッション状態のコピーを返します。
func (s *GameSession) View() SessionView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionView{
		ID:        s.ID,
		UserID:    s.UserID,
		Status:    s.Status,
		Connected: s.client != nil,
		CreatedAt: s.CreatedAt,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		State:     s.last,
	}
}

func (s *GameSession) currentClient() *Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// send はメッセージをJSONにしてクライアントに送ります。未接続なら何もしません。
func (s *GameSession) send(msg ServerMessage) {
	client := s.currentClient()
	if client == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[SessionManager] Failed to marshal %s message for session %s: %v", msg.Type, s.ID, err)
		return
	}
	if !client.SafeSend(data) {
		log.Printf("[SessionManager] Failed to send %s to client %s (channel closed or full)", msg.Type, client.UserID)
	}
}

// SessionManager はゲームセッションとWebSocketクライアント接続の全体を管理します。
// これはアプリケーション内でシングルトンとして動作することが想定されます。
type SessionManager struct {
	sessions      map[string]*GameSession
	mu            sync.RWMutex
	resultRepo    database.ResultRepository // nil の場合は結果を保存しない
	gameConfig    Config
	frameInterval time.Duration
	newRand       func() *rand.Rand

	idleTimeout       time.Duration
	finishedRetention time.Duration

	quit chan struct{}
	wg   sync.WaitGroup
}

// NewSessionManager は新しい SessionManager インスタンスを作成します。
//
// Parameters:
//   resultRepo    : 最終スコアの保存先（nil可）
//   gameConfig    : 各セッションのゲーム設定
//   frameInterval : ゲームを進める間隔
// Returns:
//   *SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(resultRepo database.ResultRepository, gameConfig Config, frameInterval time.Duration) *SessionManager {
	if frameInterval <= 0 {
		frameInterval = 16 * time.Millisecond
	}
	return &SessionManager{
		sessions:      make(map[string]*GameSession),
		resultRepo:    resultRepo,
		gameConfig:    gameConfig,
		frameInterval: frameInterval,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		idleTimeout:       DefaultIdleTimeout,
		finishedRetention: DefaultFinishedRetention,
		quit:              make(chan struct{}),
	}
}

// CreateSession は userID のための新しいゲームセッションを作成し、フレームループを開始します。
// ゲームはクライアントが接続するまで進みません。
//
// Returns:
//   string: 作成されたセッションのID
func (sm *SessionManager) CreateSession(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}

	game := NewGame(sm.gameConfig, sm.newRand())
	session := &GameSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
		game:      game,
		inputs:    make(chan InputEvent, inputQueueSize),
		done:      make(chan struct{}),
		last:      game.Snapshot(),
	}

	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()

	sm.wg.Add(1)
	go sm.run(session)

	log.Printf("[SessionManager] Created new game session: %s for user %s", session.ID, userID)
	return session.ID, nil
}

// GetGameSession は指定されたIDのゲームセッションを取得します。
func (sm *SessionManager) GetGameSession(sessionID string) (*GameSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	session, ok := sm.sessions[sessionID]
	return session, ok
}

// SessionCount は管理しているセッションの数を返します。
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// RegisterClient はWebSocketクライアントをセッションに接続します。
// 既に接続がある場合は古い接続を閉じて置き換えます（再接続対応）。
//
// Parameters:
//   sessionID : 接続先のセッションID
//   userID    : 認証済みのユーザーID
//   conn      : WebSocketコネクション
// Returns:
//   error: セッションが存在しない・終了済み・他人のセッションの場合
func (sm *SessionManager) RegisterClient(sessionID, userID string, conn *websocket.Conn) error {
	session, ok := sm.GetGameSession(sessionID)
	if !ok {
		return ErrSessionNotFound
	}

	client := &Client{
		UserID:    userID,
		SessionID: sessionID,
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
	}

	session.mu.Lock()
	if session.UserID != userID {
		session.mu.Unlock()
		return ErrSessionForbidden
	}
	if session.Status == StatusFinished {
		session.mu.Unlock()
		return ErrSessionFinished
	}
	previous := session.client
	session.client = client
	if session.Status == StatusWaiting {
		session.Status = StatusPlaying
		session.StartedAt = time.Now()
	}
	snapshot := session.last
	session.mu.Unlock()

	if previous != nil {
		log.Printf("[SessionManager] Replacing existing connection for user %s", userID)
		previous.SafeClose()
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go sm.readPump(session, client)
	go client.writePump()

	// 接続直後に現在の状態を送る
	session.send(ServerMessage{Type: "state", State: &snapshot})
	log.Printf("[SessionManager] Client %s registered for session %s", userID, sessionID)
	return nil
}

// detach はクライアントが現在の接続であれば切り離します。
func (s *GameSession) detach(client *Client) {
	s.mu.Lock()
	if s.client == client {
		s.client = nil
	}
	s.mu.Unlock()
	client.SafeClose()
}

// readPump はクライアントからの操作を読み込み、セッションの入力キューに送ります。
func (sm *SessionManager) readPump(session *GameSession, client *Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SessionManager] Panic in readPump for user %s: %v", client.UserID, r)
		}
		log.Printf("[SessionManager] Client %s disconnecting from session %s", client.UserID, session.ID)
		session.detach(client)
		client.Conn.Close()
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for user %s: %v", client.UserID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var inputEvent PlayerInputEvent
		if err := json.Unmarshal(message, &inputEvent); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message from %s: %v", client.UserID, err)
			session.send(ServerMessage{Type: "error", Error: "invalid message"})
			continue
		}
		inputEvent.UserID = client.UserID

		event, err := ParseInputEvent(inputEvent.Action)
		if err != nil {
			session.send(ServerMessage{Type: "error", Error: err.Error()})
			continue
		}

		select {
		case session.inputs <- event:
		case <-session.done:
			return
		default:
			log.Printf("[SessionManager] Input queue is full, dropping %s from user %s", event, client.UserID)
		}
	}
}

// writePump は Client の Send チャネルからのメッセージをWebSocketコネクションに書き込みます。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Client] Panic in writePump for user %s: %v", c.UserID, r)
		}
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[Client] Error writing message for user %s: %v", c.UserID, err)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drainInputs はキューに溜まっている入力を到着順にすべて取り出します。
func drainInputs(ch <-chan InputEvent) []InputEvent {
	var inputs []InputEvent
	for {
		select {
		case in := <-ch:
			inputs = append(inputs, in)
		default:
			return inputs
		}
	}
}

// sameFrame は描画に影響する部分が前回のスナップショットと同じかどうかを返します。
// 盤面とプレビューはピースの固定時にしか変わらないので PiecesPlaced とスコアで代用します。
func sameFrame(a, b Snapshot) bool {
	if (a.Active == nil) != (b.Active == nil) {
		return false
	}
	if a.Active != nil && *a.Active != *b.Active {
		return false
	}
	return a.Score == b.Score &&
		a.PiecesPlaced == b.PiecesPlaced &&
		a.Locking == b.Locking &&
		a.SoftDrop == b.SoftDrop &&
		a.IsGameOver == b.IsGameOver
}

// run はセッションのフレームループです。Game を所有し、フレームごとに入力をまとめて Tick します。
// クライアントが接続していない間はゲームを止め、idleTimeout を超えたらセッションを破棄します。
func (sm *SessionManager) run(session *GameSession) {
	defer sm.wg.Done()
	ticker := time.NewTicker(sm.frameInterval)
	defer ticker.Stop()

	last := time.Now()
	idleSince := last

	for {
		select {
		case <-sm.quit:
			return
		case <-session.done:
			return
		case now := <-ticker.C:
			if session.currentClient() == nil {
				last = now
				if now.Sub(idleSince) > sm.idleTimeout {
					log.Printf("[SessionManager] Session %s idle for %s, removing", session.ID, sm.idleTimeout)
					sm.EndGameSession(session.ID)
					return
				}
				continue
			}
			idleSince = now

			dt := now.Sub(last)
			last = now
			inputs := drainInputs(session.inputs)
			res := session.game.Tick(inputs, dt)
			snapshot := session.game.Snapshot()

			session.mu.Lock()
			changed := !sameFrame(session.last, snapshot) || !res.Empty()
			session.last = snapshot
			session.mu.Unlock()

			if changed {
				session.send(ServerMessage{Type: "state", State: &snapshot, Events: &res})
			}
			if res.GameOver {
				sm.finish(session)
				return
			}
		}
	}
}

// finish はトップアウトしたセッションを終了し、結果を保存してクライアントに通知します。
func (sm *SessionManager) finish(session *GameSession) {
	score := session.game.Score()

	session.mu.Lock()
	session.Status = StatusFinished
	session.EndedAt = time.Now()
	session.mu.Unlock()

	log.Printf("[SessionManager] Game session %s ended. Final Score: %d, Lines Cleared: %d", session.ID, score.Points, score.LinesCleared)

	if sm.resultRepo != nil {
		if _, err := sm.resultRepo.CreateResult(nil, session.UserID, session.ID, score.Points, score.LinesCleared); err != nil {
			log.Printf("[SessionManager] Failed to save result for session %s: %v", session.ID, err)
		}
	}
	session.send(ServerMessage{Type: "game_over", Score: &score})

	if client := session.currentClient(); client != nil {
		client.SafeClose()
	}

	// 最終状態をしばらく参照できるようにしてから破棄する
	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		select {
		case <-time.After(sm.finishedRetention):
			sm.EndGameSession(session.ID)
		case <-sm.quit:
		}
	}()
}

// EndGameSession はゲームセッションを終了させ、クライアントを切断してセッションを削除します。
// トップアウトせずに終了したゲームの結果は保存しません。
func (sm *SessionManager) EndGameSession(sessionID string) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	if ok {
		delete(sm.sessions, sessionID)
	}
	sm.mu.Unlock()
	if !ok {
		log.Printf("[SessionManager] EndGameSession called for non-existent session: %s", sessionID)
		return
	}

	session.mu.Lock()
	if session.Status != StatusFinished {
		session.Status = StatusFinished
		session.EndedAt = time.Now()
	}
	client := session.client
	session.client = nil
	session.mu.Unlock()

	close(session.done)
	if client != nil {
		client.SafeClose()
	}
	log.Printf("[SessionManager] Removed session %s", sessionID)
}

// Shutdown はSessionManagerを安全にシャットダウンします
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] Shutting down...")
	close(sm.quit)

	sm.mu.Lock()
	for id, session := range sm.sessions {
		if client := session.currentClient(); client != nil {
			client.SafeClose()
		}
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	sm.wg.Wait()
	log.Printf("[SessionManager] Shutdown complete")
}
