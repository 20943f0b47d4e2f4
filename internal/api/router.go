package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

// Dependencies はルーターが必要とするサービスです。ResultRepo が nil の場合はランキングAPIを登録しません。
type Dependencies struct {
	SessionManager *tetris.SessionManager
	ResultRepo     database.ResultRepository
	Auth           *middleware.Authenticator
	AllowedOrigins []string
}

// NewRouter はAPIのルーティングを組み立てます。
func NewRouter(deps Dependencies) http.Handler {
	gameHandler := handlers.NewGameHandler(deps.SessionManager, deps.Auth, deps.AllowedOrigins)
	healthHandler := handlers.NewHealthHandler(deps.SessionManager)

	r := mux.NewRouter()

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/public/health", healthHandler.Health).Methods("GET")
	r.HandleFunc("/api/games/{sessionID}", gameHandler.GetGame).Methods("GET")
	// ブラウザはWebSocketにヘッダーを付けられないので、接続後の最初のメッセージで認証する
	r.HandleFunc("/api/games/{sessionID}/ws", gameHandler.HandleWebSocketConnection).Methods("GET")

	// 認証が必要なエンドポイント
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(deps.Auth.Middleware)
	protected.HandleFunc("/games", gameHandler.CreateGame).Methods("POST")
	protected.HandleFunc("/games/{sessionID}", gameHandler.EndGame).Methods("DELETE")

	if deps.ResultRepo != nil {
		resultHandler := handlers.NewResultHandler(deps.ResultRepo)
		r.HandleFunc("/api/results", resultHandler.GetTopResults).Methods("GET")
		protected.HandleFunc("/results/me", resultHandler.GetMyBestScore).Methods("GET")
		r.HandleFunc("/api/results/user/{userID}", resultHandler.GetUserResult).Methods("GET")
	}

	return middleware.CORSHandler(deps.AllowedOrigins)(r)
}
