package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models/tetris"
	gametetris "github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/services/tetris"
)

// DefaultFrameInterval はサーバー上のゲームを進めるフレーム間隔です（約60fps）。
const DefaultFrameInterval = 16 * time.Millisecond

var defaultAllowedOrigins = []string{"http://localhost:3000", "https://gitris-frontend-deploy.vercel.app"}

// AppConfig はサーバー全体の設定です。
type AppConfig struct {
	Port           string
	DatabaseURL    string // 空の場合は結果の保存を行わない
	JWTSecret      string
	BypassAuth     bool
	FrameInterval  time.Duration
	AllowedOrigins []string
	Game           gametetris.Config
}

// LoadDotEnv は本番環境以外で .env を読み込みます。ファイルが無くてもエラーにはしません。
func LoadDotEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("[Config] warning: Error loading .env file (this is fine in production): %v", err)
	}
}

// Load は環境変数から設定を読み込みます。
// 未設定の値は既定値を使い、解釈できない値はエラーとして返します。
//
// Returns:
//   *AppConfig: 読み込んだ設定
//   error     : 値の形式が不正な場合
func Load() (*AppConfig, error) {
	LoadDotEnv()
	return FromEnv(os.Getenv)
}

// FromEnv は getenv を通して設定を組み立てます。テストでは map を渡せます。
func FromEnv(getenv func(string) string) (*AppConfig, error) {
	p := parser{getenv: getenv}

	cfg := &AppConfig{
		Port:           p.str("PORT", "8080"),
		DatabaseURL:    getenv("DATABASE_URL"),
		JWTSecret:      getenv("SUPABASE_JWT_SECRET"),
		BypassAuth:     getenv("BYPASS_AUTH") == "true",
		FrameInterval:  p.duration("FRAME_INTERVAL", DefaultFrameInterval),
		AllowedOrigins: p.list("ALLOWED_ORIGINS", defaultAllowedOrigins),
	}

	game := gametetris.DefaultConfig()
	game.BoardWidth = p.positiveInt("BOARD_WIDTH", tetris.DefaultBoardWidth)
	game.BoardHeight = p.positiveInt("BOARD_HEIGHT", tetris.DefaultBoardHeight)
	game.SpawnAnchor = tetris.Cell{
		X: p.int("SPAWN_X", gametetris.DefaultSpawnX),
		Y: p.int("SPAWN_Y", gametetris.DefaultSpawnY),
	}
	game.GravityPeriod = p.duration("GRAVITY_PERIOD", gametetris.DefaultGravityPeriod)
	game.SoftDropMultiplier = p.positiveInt("SOFT_DROP_MULTIPLIER", gametetris.DefaultSoftDropMultiplier)
	game.LockdownDelay = p.duration("LOCKDOWN_DELAY", gametetris.DefaultLockdownDelay)
	cfg.Game = game

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	g := c.Game
	// (0,0) はゲーム側で未設定扱いになり (4,18) に置き換わってしまう
	if g.SpawnAnchor == (tetris.Cell{}) {
		return fmt.Errorf("SPAWN_X=0 SPAWN_Y=0 is not a supported spawn anchor")
	}
	// 出現位置の4x2の範囲が盤面に収まっていること
	if g.SpawnAnchor.X < 0 || g.SpawnAnchor.X+3 >= g.BoardWidth {
		return fmt.Errorf("SPAWN_X %d does not fit a board of width %d", g.SpawnAnchor.X, g.BoardWidth)
	}
	if g.SpawnAnchor.Y < 0 || g.SpawnAnchor.Y+1 >= g.BoardHeight {
		return fmt.Errorf("SPAWN_Y %d does not fit a board of height %d", g.SpawnAnchor.Y, g.BoardHeight)
	}
	return nil
}

// parser は最初に見つかったエラーだけを保持します。
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}

func (p *parser) str(key, def string) string {
	if v := p.getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) int(key string, def int) int {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	return n
}

func (p *parser) positiveInt(key string, def int) int {
	n := p.int(key, def)
	if n <= 0 {
		p.fail(key, p.getenv(key), fmt.Errorf("must be positive"))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return def
	}
	if d <= 0 {
		p.fail(key, v, fmt.Errorf("must be positive"))
		return def
	}
	return d
}

func (p *parser) list(key string, def []string) []string {
	v := p.getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
