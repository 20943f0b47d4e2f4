package tetris

import (
	"log"
	"math/rand"
	"time"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-core/internal/models/tetris"
)

// Score は現在のスコアです。ゲーム中は単調非減少で、リセット時に0に戻ります。
type Score struct {
	Points       int `json:"points"`        // 現在の得点
	LinesCleared int `json:"lines_cleared"` // クリアしたライン数
}

// TickResult は1ティックで発生した出来事です。
type TickResult struct {
	FigurePlaced bool `json:"figure_placed"` // ピースがボードに固定された（固定1回につき1度だけ）
	GameOver     bool `json:"game_over"`     // トップアウトした（ゲーム中1度だけ）
	LinesCleared int  `json:"lines_cleared"` // このティックで消えたライン数
	PointsGained int  `json:"points_gained"` // このティックで増えた得点
}

// Empty は何も起きなかったティックかどうかを返します。
func (r TickResult) Empty() bool {
	return !r.FigurePlaced && !r.GameOver && r.LinesCleared == 0 && r.PointsGained == 0
}

// Snapshot はレンダリング側に渡す読み取り専用のゲーム状態です。
type Snapshot struct {
	Width        int                `json:"width"`
	Height       int                `json:"height"`
	Board        [][]bool           `json:"board"`  // [y][x]、y=0 が最下段
	Active       *ActivePiece       `json:"active"` // ゲームオーバー後は nil
	Next         []tetris.PieceType `json:"next"`
	Score        Score              `json:"score"`
	SoftDrop     bool               `json:"soft_drop"`
	Locking      bool               `json:"locking"` // ロックダウンのカウント中
	PiecesPlaced int                `json:"pieces_placed"`
	IsGameOver   bool               `json:"is_game_over"`
}

// Game は落ち物パズルのシミュレーション本体です。
// ボード・アクティブピース・バッグ・スコア・2つのタイマーをすべて所有し、Tick の中でのみ更新します。
// 並行アクセスは想定していないため、1つのゴルーチンから操作してください。
type Game struct {
	cfg      Config
	board    *tetris.Board
	bag      *Bag
	active   *ActivePiece
	score    Score
	softDrop bool
	gravity  *Timer
	lockdown *Timer
	gameOver bool
	reported bool // GameOver を TickResult で通知済み
	placed   int
}

// NewGame は新しいゲームを初期化し、最初のピースを出現させて返します。
//
// Parameters:
//   cfg : ゲーム設定（ゼロ値のフィールドは既定値で補完）
//   rng : バッグのシャッフルに使う乱数源
// Returns:
//   *Game: 初期化されたゲーム
func NewGame(cfg Config, rng *rand.Rand) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	cfg = cfg.withDefaults()
	g := &Game{
		cfg:   cfg,
		board: tetris.NewBoard(cfg.BoardWidth, cfg.BoardHeight),
		bag:   NewBag(rng),
	}
	g.Reset()
	return g
}

// Reset はボード・スコア・バッグ・タイマーを初期状態に戻し、新しいピースを出現させます。
func (g *Game) Reset() {
	g.board.Reset()
	g.bag.Reset()
	g.score = Score{}
	g.softDrop = false
	g.gameOver = false
	g.reported = false
	g.placed = 0
	g.gravity = NewTimer(g.cfg.GravityPeriod, TimerRepeating)
	g.lockdown = NewTimer(g.cfg.LockdownDelay, TimerOnce)
	// ロックダウンは着地するまで止めておく
	g.lockdown.Cancel()
	g.spawn()
}

// spawn はバッグから次のピースを取り出して出現位置に置きます。
// 出現位置が既に埋まっていればトップアウトとしてゲームオーバーにします。
//
// Returns:
//   bool: 出現に成功した場合はtrue
func (g *Game) spawn() bool {
	piece := newActivePiece(g.cfg.Catalog, g.bag.Draw(), g.cfg.SpawnAnchor)
	for _, c := range piece.Cells {
		if !g.board.Check(c.X, c.Y) {
			g.active = nil
			g.gameOver = true
			log.Printf("[Game] Top-out on spawn of %s. Final Score: %d, Lines Cleared: %d", piece.Type, g.score.Points, g.score.LinesCleared)
			return false
		}
	}
	g.active = piece
	return true
}

// Tick はシミュレーションを1フレーム進めます。
// 処理順: 入力（移動・回転・ハードドロップ）→ 重力 → ロックダウンと固定 → ラインクリアと得点。
// ゲームオーバー後は何もせず空の結果を返します。NewGame や Reset の時点でトップアウトしていた場合は、
// 最初の Tick が GameOver を1度だけ返します。
//
// Parameters:
//   inputs : このフレームで集めた入力（順番に処理されます）
//   dt     : 前フレームからの経過時間（負の値は0として扱います）
// Returns:
//   TickResult: このフレームで発生した出来事
func (g *Game) Tick(inputs []InputEvent, dt time.Duration) TickResult {
	var res TickResult
	if g.gameOver {
		if !g.reported {
			g.reported = true
			res.GameOver = true
		}
		return res
	}
	if dt < 0 {
		dt = 0
	}
	before := g.score.Points

	for _, in := range inputs {
		g.applyInput(in)
	}
	g.applyGravity(dt)
	g.applyLockdown(dt, &res)

	// ロックダウンが止まっている間だけラインを判定する（落下中のピースを巻き込まない）
	if !g.gameOver && g.lockdown.Finished() {
		if cleared := g.board.ClearLines(); cleared > 0 {
			g.score.Points += LineClearScore(cleared)
			g.score.LinesCleared += cleared
			res.LinesCleared = cleared
		}
	}

	res.PointsGained = g.score.Points - before
	return res
}

func (g *Game) mustActive() *ActivePiece {
	if g.active == nil {
		panic("game: no active piece")
	}
	return g.active
}

// applyInput は1つの入力をアクティブピースに適用します。
func (g *Game) applyInput(in InputEvent) {
	switch in {
	case SoftDropOn:
		g.softDrop = true
	case SoftDropOff:
		g.softDrop = false
	case MoveLeft, MoveRight:
		g.mustActive().MoveHorizontally(g.board, in == MoveRight)
	case RotateClockwise, RotateCounterClockwise:
		if g.mustActive().Rotate(g.cfg.Catalog, g.board, in == RotateClockwise) && !g.lockdown.Finished() {
			// まだ動けることが分かったのでロックダウンをやり直す
			g.lockdown.Reset()
		}
	case HardDrop:
		distance := g.mustActive().HardDrop(g.board)
		g.score.Points += HardDropScore(distance)
	}
}

// applyGravity は落下タイマーを進め、満了していればピースを1行落とします。
// 落とせない場合はロックダウンを開始し、落とせた場合はカウント中のロックダウンを取り消します。
func (g *Game) applyGravity(dt time.Duration) {
	multiplier := 1
	if g.softDrop {
		multiplier = g.cfg.SoftDropMultiplier
	}
	if !g.gravity.Tick(dt * time.Duration(multiplier)).JustFinished() {
		return
	}
	piece := g.mustActive()
	if !piece.CanMoveDown(g.board) {
		if g.lockdown.Finished() {
			g.lockdown.Reset()
		}
		return
	}
	if g.softDrop {
		g.score.Points += SoftDropPoints
	}
	if !g.lockdown.Finished() {
		g.lockdown.Cancel()
	}
	piece.shift(0, -1)
}

// applyLockdown はロックダウンタイマーを進め、満了した瞬間にまだ下に動けなければピースを固定します。
func (g *Game) applyLockdown(dt time.Duration, res *TickResult) {
	if !g.lockdown.Tick(dt).JustFinished() {
		return
	}
	// カウント開始時ではなく満了時点で改めて確認する
	if g.mustActive().CanMoveDown(g.board) {
		return
	}
	g.lock(res)
}

// lock はアクティブピースをボードに固定し、次のピースを出現させます。
func (g *Game) lock(res *TickResult) {
	for _, c := range g.active.Cells {
		g.board.Occupy(c.X, c.Y)
	}
	g.placed++
	res.FigurePlaced = true
	if !g.spawn() {
		g.reported = true
		res.GameOver = true
	}
}

// IsGameOver はトップアウトしたかどうかを返します。
func (g *Game) IsGameOver() bool { return g.gameOver }

// Score は現在のスコアを返します。
func (g *Game) Score() Score { return g.score }

// Locking はロックダウンのカウント中かどうかを返します。
func (g *Game) Locking() bool { return !g.lockdown.Finished() }

// ActivePiece は現在のピースのコピーを返します。ゲームオーバー後は nil です。
func (g *Game) ActivePiece() *ActivePiece {
	if g.active == nil {
		return nil
	}
	cp := *g.active
	return &cp
}

// Config は補完済みの設定を返します。
func (g *Game) Config() Config { return g.cfg }

// Snapshot は現在の状態のコピーを返します。
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Width:        g.board.Width(),
		Height:       g.board.Height(),
		Board:        g.board.Snapshot(),
		Active:       g.ActivePiece(),
		Next:         g.bag.Peek(g.cfg.PreviewCount),
		Score:        g.score,
		SoftDrop:     g.softDrop,
		Locking:      g.Locking(),
		PiecesPlaced: g.placed,
		IsGameOver:   g.gameOver,
	}
}
