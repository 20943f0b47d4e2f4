package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// BypassToken は BYPASS_AUTH が有効なときに WebSocket の認証メッセージで使える固定トークンです。
const BypassToken = "BYPASS_AUTH"

var (
	ErrMissingToken = errors.New("token is required")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoJWTSecret  = errors.New("server configuration error: JWT secret missing")
)

type UserIDKey struct{}

// GetUserIDFromContext retrieves the user ID from the context.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey{}).(string)
	return userID, ok
}

// WithUserID はユーザーIDをコンテキストに設定します。
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey{}, userID)
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Authenticator はSupabaseが発行したJWTを検証します。
type Authenticator struct {
	jwtSecret  string
	bypassAuth bool
}

// NewAuthenticator は新しい Authenticator を作成します。
//
// Parameters:
//   jwtSecret  : SUPABASE_JWT_SECRET の値
//   bypassAuth : trueならテスト用に認証を省略する
func NewAuthenticator(jwtSecret string, bypassAuth bool) *Authenticator {
	return &Authenticator{jwtSecret: jwtSecret, bypassAuth: bypassAuth}
}

// BypassEnabled は認証バイパスが有効かどうかを返します。
func (a *Authenticator) BypassEnabled() bool { return a.bypassAuth }

// ParseToken はトークン（"Bearer " 付きでも可）を検証し、sub クレームのユーザーIDを返します。
func (a *Authenticator) ParseToken(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	if tokenString == "" {
		return "", ErrMissingToken
	}
	if a.jwtSecret == "" {
		return "", ErrNoJWTSecret
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	// SupabaseのJWTはユーザーIDを 'sub' クレームにUUIDとして格納する
	userID, ok := claims["sub"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user ID", ErrInvalidToken)
	}
	return userID, nil
}

// Middleware is a middleware function that checks for a valid JWT token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.bypassAuth {
			// テスト用のランダムなユーザーIDを生成（毎回異なるユーザーとして扱う）
			testUserID := uuid.New().String()
			log.Printf("[AuthMiddleware] BYPASS_AUTH enabled, generated test user ID: %s", testUserID)
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), testUserID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
			return
		}

		userID, err := a.ParseToken(authHeader)
		if errors.Is(err, ErrNoJWTSecret) {
			log.Println("[AuthMiddleware] Error: SUPABASE_JWT_SECRET is not set.")
			writeJSONError(w, http.StatusInternalServerError, "Server configuration error: JWT secret missing")
			return
		}
		if err != nil {
			log.Printf("[AuthMiddleware] JWT error: %v", err)
			writeJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
