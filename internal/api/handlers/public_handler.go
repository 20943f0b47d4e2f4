package handlers

import (
	"net/http"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

// HealthHandler はロードバランサー向けの公開エンドポイントを提供します。
type HealthHandler struct {
	sessionManager *tetris.SessionManager
}

// NewHealthHandler creates a new instance of HealthHandler
func NewHealthHandler(sm *tetris.SessionManager) *HealthHandler {
	return &HealthHandler{sessionManager: sm}
}

// Health は稼働状況と進行中のセッション数を返します。
// GET /api/public/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": h.sessionManager.SessionCount(),
	})
}
