package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

const testSecret = "router-test-secret"

type stubResultRepo struct {
	top  []models.ResultResponse
	best map[string]*models.Result
}

func (r *stubResultRepo) CreateResult(tx *sql.Tx, userID, sessionID string, score, linesCleared int) (*models.Result, error) {
	return &models.Result{UserID: userID, SessionID: sessionID, Score: score, LinesCleared: linesCleared}, nil
}

func (r *stubResultRepo) GetTopResults(limit int) ([]models.ResultResponse, error) {
	if limit < len(r.top) {
		return r.top[:limit], nil
	}
	return r.top, nil
}

func (r *stubResultRepo) GetUserBestScore(userID string) (*models.Result, error) {
	return r.best[userID], nil
}

func (r *stubResultRepo) GetUserRanking(userID string) (*models.ResultResponse, error) {
	best := r.best[userID]
	if best == nil {
		return nil, nil
	}
	return &models.ResultResponse{ID: best.ID, UserID: userID, Score: best.Score, Rank: 1}, nil
}

type testEnv struct {
	srv  *httptest.Server
	sm   *tetris.SessionManager
	repo *stubResultRepo
}

func newTestEnv(t *testing.T, bypass bool) *testEnv {
	t.Helper()
	cfg := tetris.DefaultConfig()
	cfg.GravityPeriod = time.Hour
	sm := tetris.NewSessionManager(nil, cfg, time.Millisecond)
	repo := &stubResultRepo{
		top: []models.ResultResponse{
			{ID: 1, UserID: "alice", Score: 900, Rank: 1},
			{ID: 2, UserID: "bob", Score: 300, Rank: 2},
		},
		best: map[string]*models.Result{"alice": {ID: 1, UserID: "alice", Score: 900}},
	}
	router := NewRouter(Dependencies{
		SessionManager: sm,
		ResultRepo:     repo,
		Auth:           middleware.NewAuthenticator(testSecret, bypass),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		sm.Shutdown()
		srv.Close()
	})
	return &testEnv{srv: srv, sm: sm, repo: repo}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, userID string) (*http.Response, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, nil)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func (e *testEnv) createGame(t *testing.T, userID string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/games", userID)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)
	return sessionID
}

func (e *testEnv) dialWS(t *testing.T, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/api/games/" + sessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)
	resp, body := env.do(t, http.MethodGet, "/api/public/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestCreateGameRequiresAuth(t *testing.T) {
	env := newTestEnv(t, false)
	resp, _ := env.do(t, http.MethodPost, "/api/games", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCreateAndGetGame(t *testing.T) {
	env := newTestEnv(t, false)
	sessionID := env.createGame(t, "alice")

	resp, body := env.do(t, http.MethodGet, "/api/games/"+sessionID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sessionID, body["id"])
	assert.Equal(t, "alice", body["user_id"])
	assert.Equal(t, tetris.StatusWaiting, body["status"])
	state, ok := body["state"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(10), state["width"])

	resp, _ = env.do(t, http.MethodGet, "/api/games/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEndGame(t *testing.T) {
	env := newTestEnv(t, false)
	sessionID := env.createGame(t, "alice")

	resp, _ := env.do(t, http.MethodDelete, "/api/games/"+sessionID, "mallory")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, "/api/games/"+sessionID, "alice")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/api/games/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketPlay(t *testing.T) {
	env := newTestEnv(t, false)
	sessionID := env.createGame(t, "alice")
	conn := env.dialWS(t, sessionID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": "Bearer " + tokenFor(t, "alice")}))
	assert.Equal(t, "auth_success", readJSON(t, conn)["type"])
	assert.Equal(t, "state", readJSON(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(tetris.PlayerInputEvent{Action: "hard_drop"}))
	for {
		msg := readJSON(t, conn)
		events, ok := msg["events"].(map[string]interface{})
		if ok && events["points_gained"].(float64) > 0 {
			break
		}
	}

	_, body := env.do(t, http.MethodGet, "/api/games/"+sessionID, "")
	assert.Equal(t, tetris.StatusPlaying, body["status"])
	assert.Equal(t, true, body["connected"])
}

func TestWebSocketRejectsOtherUser(t *testing.T) {
	env := newTestEnv(t, false)
	sessionID := env.createGame(t, "alice")
	conn := env.dialWS(t, sessionID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": tokenFor(t, "mallory")}))
	assert.Equal(t, "auth_success", readJSON(t, conn)["type"])
	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, tetris.ErrSessionForbidden.Error(), msg["error"])
}

func TestWebSocketRejectsBadToken(t *testing.T) {
	env := newTestEnv(t, false)
	sessionID := env.createGame(t, "alice")
	conn := env.dialWS(t, sessionID)

	// バイパスが無効なら固定トークンは通らない
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": middleware.BypassToken}))
	msg := readJSON(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "authentication failed", msg["error"])
}

func TestWebSocketBypassAuth(t *testing.T) {
	env := newTestEnv(t, true)
	// バイパス時はリクエストごとにランダムなユーザーになる
	sessionID := env.createGame(t, "")
	conn := env.dialWS(t, sessionID)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "token": middleware.BypassToken}))
	assert.Equal(t, "auth_success", readJSON(t, conn)["type"])
	assert.Equal(t, "state", readJSON(t, conn)["type"])
}

func TestWebSocketUnknownSession(t *testing.T) {
	env := newTestEnv(t, false)
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/api/games/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestResults(t *testing.T) {
	env := newTestEnv(t, false)

	resp, body := env.do(t, http.MethodGet, "/api/results?limit=1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	assert.Len(t, results, 1)

	resp, body = env.do(t, http.MethodGet, "/api/results/user/alice", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, float64(900), result["score"])
	assert.Equal(t, float64(1), result["rank"])

	_, body = env.do(t, http.MethodGet, "/api/results/user/nobody", "")
	assert.Nil(t, body["result"])

	resp, _ = env.do(t, http.MethodGet, "/api/results/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = env.do(t, http.MethodGet, "/api/results/me", "alice")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(900), body["result"].(map[string]interface{})["score"])
}
