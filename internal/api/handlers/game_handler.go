package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket" // WebSocketライブラリ

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

// authTimeout の間に認証メッセージが届かなければ接続を閉じます。
const authTimeout = 10 * time.Second

// GameHandler はゲーム関連のHTTPリクエスト（セッション作成、状態取得、WebSocket接続）を処理します。
type GameHandler struct {
	sessionManager *tetris.SessionManager
	auth           *middleware.Authenticator
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//   sm             : セッションマネージャーへのポインタ
//   auth           : WebSocketの認証メッセージを検証する Authenticator
//   allowedOrigins : WebSocket接続を許可するオリジン
// Returns:
//   *GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *tetris.SessionManager, auth *middleware.Authenticator, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		auth:           auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     middleware.OriginAllowed(allowedOrigins),
		},
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
		log.Printf("[Handler] JSONエンコードエラー: %v", err)
	}
}

// CreateGame は認証済みユーザーのために新しいゲームセッションを作成します。
// POST /api/games
func (h *GameHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	sessionID, err := h.sessionManager.CreateSession(userID)
	if err != nil {
		log.Printf("[GameHandler] Failed to create session for user %s: %v", userID, err)
		WriteErrorResponse(w, http.StatusInternalServerError, "セッションの作成に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, map[string]string{"session_id": sessionID, "message": "セッションを作成しました"})
}

// GetGame はセッションの現在の状態（最新のスナップショットを含む）を返します。
// GET /api/games/{sessionID}
func (h *GameHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessionManager.GetGameSession(mux.Vars(r)["sessionID"])
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}
	WriteJSONResponse(w, http.StatusOK, session.View())
}

// EndGame はセッションの所有者がゲームを途中で終了します。結果は保存されません。
// DELETE /api/games/{sessionID}
func (h *GameHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	sessionID := mux.Vars(r)["sessionID"]
	session, ok := h.sessionManager.GetGameSession(sessionID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}
	if session.UserID != userID && !h.auth.BypassEnabled() {
		WriteErrorResponse(w, http.StatusForbidden, "他のユーザーのセッションは終了できません")
		return
	}

	h.sessionManager.EndGameSession(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// authMessage はWebSocket接続後に最初に送られる認証メッセージです。
type authMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// authenticate は最初のメッセージでクライアントを認証し、ユーザーIDを返します。
// BYPASS_AUTH が有効な場合は固定トークンでセッションの所有者として扱います。
func (h *GameHandler) authenticate(conn *websocket.Conn, owner string) (string, error) {
	conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var msg authMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return "", err
	}
	if msg.Type != "auth" {
		return "", errors.New("expected auth message")
	}
	if msg.Token == middleware.BypassToken && h.auth.BypassEnabled() {
		log.Printf("[GameHandler] Using BYPASS_AUTH for session owner: %s", owner)
		return owner, nil
	}
	return h.auth.ParseToken(msg.Token)
}

// HandleWebSocketConnection はHTTP接続をWebSocketプロトコルにアップグレードし、
// 認証後にセッションマネージャーへ引き渡します。
// GET /api/games/{sessionID}/ws
func (h *GameHandler) HandleWebSocketConnection(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]
	session, ok := h.sessionManager.GetGameSession(sessionID)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, "指定されたセッションは見つかりませんでした")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for session %s: %v", sessionID, err)
		return
	}

	userID, err := h.authenticate(conn, session.UserID)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth failed for session %s: %v", sessionID, err)
		conn.WriteJSON(tetris.ServerMessage{Type: "error", Error: "authentication failed"})
		conn.Close()
		return
	}
	conn.WriteJSON(map[string]string{"type": "auth_success", "message": "Authentication successful"})

	// 以降の読み書きは SessionManager の readPump / writePump が行う
	if err := h.sessionManager.RegisterClient(sessionID, userID, conn); err != nil {
		log.Printf("[GameHandler] Failed to register client %s to session %s: %v", userID, sessionID, err)
		conn.WriteJSON(tetris.ServerMessage{Type: "error", Error: err.Error()})
		conn.Close()
	}
}
