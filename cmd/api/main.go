package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Main] 設定の読み込みに失敗しました: %v", err)
	}

	if !cfg.BypassAuth && cfg.JWTSecret == "" {
		log.Println("[Main] warning: SUPABASE_JWT_SECRET is not set; authenticated endpoints will reject every request")
	}

	// DATABASE_URL が無い場合は結果を保存せずに起動する
	var resultRepo database.ResultRepository
	if cfg.DatabaseURL != "" {
		dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("[Main] データベースに接続できません: %v", err)
		}
		defer dbService.Close()
		if err := dbService.EnsureSchema(); err != nil {
			log.Fatalf("[Main] %v", err)
		}
		resultRepo = database.NewResultRepository(dbService.DB)
	} else {
		log.Println("[Main] DATABASE_URL is not set; results will not be saved")
	}

	sessionManager := tetris.NewSessionManager(resultRepo, cfg.Game, cfg.FrameInterval)
	router := api.NewRouter(api.Dependencies{
		SessionManager: sessionManager,
		ResultRepo:     resultRepo,
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret, cfg.BypassAuth),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("[Main] Server starting on :%s (frame interval %s)", cfg.Port, cfg.FrameInterval)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Println("[Main] Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		sessionManager.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Printf("[Main] server error: %v", err)
		os.Exit(1)
	}
}
