package models

import (
	"time"
)

// Result はresultsテーブルのレコードに対応する構造体です。
// 1ゲーム（セッション）が終了した時点の最終スコアを表します。
type Result struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`    // UUID
	SessionID    string    `json:"session_id"` // ゲームセッションのUUID
	Score        int       `json:"score"`
	LinesCleared int       `json:"lines_cleared"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultResponse はAPI レスポンス用の構造体です。
type ResultResponse struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Score        int       `json:"score"`
	LinesCleared int       `json:"lines_cleared"`
	CreatedAt    time.Time `json:"created_at"`
	Rank         int       `json:"rank"` // ランキング順位
}
