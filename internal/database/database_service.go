package database

import (
	"database/sql"
	"fmt"
	"log"
	"net/url"

	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// ResultsSchema は results テーブルの定義です。dbcheck とサーバー起動時に使います。
const ResultsSchema = `
CREATE TABLE IF NOT EXISTS results (
	id            BIGSERIAL PRIMARY KEY,
	user_id       TEXT        NOT NULL,
	session_id    TEXT        NOT NULL,
	score         INTEGER     NOT NULL CHECK (score >= 0),
	lines_cleared INTEGER     NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS results_score_idx ON results (score DESC, created_at ASC);
CREATE INDEX IF NOT EXISTS results_user_idx ON results (user_id);
`

// DatabaseService provides methods for interacting with the database.
type DatabaseService struct {
	DB *sql.DB
}

// NewDatabaseService creates a new instance of DatabaseService and establishes a database connection.
func NewDatabaseService(databaseURL string) (*DatabaseService, error) {
	log.Printf("[Database] データベース接続を試行中: host=%s", databaseHost(databaseURL))
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Println("[Database] データベースに正常に接続しました。")
	return &DatabaseService{DB: db}, nil
}

// databaseHost はログ用に接続先のホストだけを取り出します。ユーザー名とパスワードは含めません。
func databaseHost(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Host == "" {
		return "(unknown)"
	}
	return u.Host
}

// EnsureSchema は results テーブルが無ければ作成します。
func (s *DatabaseService) EnsureSchema() error {
	if _, err := s.DB.Exec(ResultsSchema); err != nil {
		return fmt.Errorf("resultsテーブルの作成に失敗しました: %w", err)
	}
	return nil
}

// ServerVersion は接続先の PostgreSQL のバージョン文字列を返します。
func (s *DatabaseService) ServerVersion() (string, error) {
	var version string
	if err := s.DB.QueryRow("SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("SELECT version() の実行に失敗しました: %w", err)
	}
	return version, nil
}

// Close はコネクションプールを閉じます。
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}
