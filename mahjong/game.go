package mahjong

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"mahjong-lite/tile"
)

// DiscardEntry 弃牌堆条目，头部是最新的一张。
type DiscardEntry struct {
	Tile tile.Tile
	Seat int
}

// Game 单房间牌局引擎。所有方法在内部互斥锁下执行；
// 定时器、AI 调度、广播都由房间层驱动，引擎只做状态机。
type Game struct {
	cfg    Config
	rng    *rand.Rand
	scorer Scorer

	mu sync.Mutex

	players []*Player // 按座位索引，空座位为 nil

	// match state
	roundIndex  int
	totalRounds int
	matchOver   bool

	// round state
	phase         Phase
	deck          tile.List
	discards      []DiscardEntry
	lastDrawn     *tile.Tile
	lastDiscard   *tile.Tile
	lastDiscarder int
	current       int
	dealer        int
	turn          int

	winners  []int
	winType  WinType
	payer    int
	drawGame bool

	lastResult *RoundResult
}

func NewGame(cfg Config) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	totalRounds := cfg.TotalRounds
	if totalRounds == 0 {
		totalRounds = cfg.Players
	}
	scorer := cfg.Scorer
	if scorer == nil {
		scorer = baselineScorer{}
	}
	return &Game{
		cfg:           cfg,
		rng:           rand.New(rand.NewSource(seed)),
		scorer:        scorer,
		players:       make([]*Player, cfg.Players),
		totalRounds:   totalRounds,
		phase:         PhaseTypeWaitingForPlayers,
		current:       InvalidSeat,
		dealer:        InvalidSeat,
		lastDiscarder: InvalidSeat,
		payer:         InvalidSeat,
	}, nil
}

// Seat 安排一个座位。记录跨局保留，断线不调用 Unseat。
func (g *Game) Seat(seat int, name string, robot bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= g.cfg.Players {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if g.players[seat] != nil {
		return ErrSeatOccupied
	}
	g.players[seat] = &Player{Seat: seat, Name: name, Robot: robot}
	return nil
}

// Unseat 只在非对局阶段移除座位记录。
func (g *Game) Unseat(seat int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat < 0 || seat >= g.cfg.Players {
		return fmt.Errorf("invalid seat %d", seat)
	}
	if g.players[seat] == nil {
		return ErrSeatEmpty
	}
	switch g.phase {
	case PhaseTypeWaitingForPlayers, PhaseTypeRoundOver, PhaseTypeAwaitingRematchVote, PhaseTypeGameOver:
	default:
		return ErrInvalidState("cannot unseat during an active round")
	}
	g.players[seat] = nil
	return nil
}

func (g *Game) Rename(seat int, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seat >= 0 && seat < g.cfg.Players && g.players[seat] != nil {
		g.players[seat].Name = name
	}
}

// StartMatch 开始一场新比赛：随机选庄、局数归零。
// preserved 非空时在初始化后恢复各座位分数（再战保分），否则清零。
func (g *Game) StartMatch(preserved map[int]int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for seat, p := range g.players {
		if p == nil {
			return fmt.Errorf("seat %d is empty", seat)
		}
	}

	g.roundIndex = 0
	g.matchOver = false
	g.lastResult = nil
	g.winners = nil
	g.winType = WinTypeNone
	g.payer = InvalidSeat
	g.drawGame = false
	// 再战从投票阶段进来，拉回可开局状态。
	g.phase = PhaseTypeWaitingForPlayers
	g.current = InvalidSeat

	if g.cfg.ForcedDealerSeat != InvalidSeat {
		g.dealer = g.cfg.ForcedDealerSeat
	} else {
		g.dealer = g.rng.Intn(g.cfg.Players)
	}

	for _, p := range g.players {
		if score, ok := preserved[p.Seat]; ok {
			p.setScore(score)
		} else {
			p.setScore(0)
		}
	}
	return nil
}

// StartRound 发牌开局。第 2 局起按上一局结果轮庄：
// 流局或非庄家胡则庄位顺移，庄家胡连庄。
func (g *Game) StartRound() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseTypeWaitingForPlayers, PhaseTypeRoundOver:
	default:
		return ErrInvalidState("cannot start round in phase " + g.phase.String())
	}
	if g.matchOver {
		return ErrInvalidState("match is over")
	}

	if g.roundIndex > 0 {
		dealerWon := false
		for _, w := range g.winners {
			if w == g.dealer {
				dealerWon = true
				break
			}
		}
		if !dealerWon {
			g.dealer = g.nextSeat(g.dealer)
		}
	}
	g.roundIndex++

	// reset round state
	for _, p := range g.players {
		p.resetForNewRound()
		p.setDealer(p.Seat == g.dealer)
	}
	g.discards = nil
	g.lastDrawn = nil
	g.lastDiscard = nil
	g.lastDiscarder = InvalidSeat
	g.winners = nil
	g.winType = WinTypeNone
	g.payer = InvalidSeat
	g.drawGame = false
	g.turn = 1

	g.phase = PhaseTypeDealing
	g.buildDeckLocked()

	if err := g.verifyDeckLocked(); err != nil {
		// 牌墙自检失败：记流局结束本局，房间层负责记日志。
		g.drawGame = true
		g.endRoundLocked()
		return err
	}

	// 每家 7 张，庄家多摸的第 8 张悬在 lastDrawn 上等着打。
	for _, p := range g.players {
		tiles, ok := g.deck.PopTiles(baseHandSize)
		if !ok {
			g.drawGame = true
			g.endRoundLocked()
			return ErrInvalidState("deck underflow during deal")
		}
		p.addHandTiles(tiles...)
	}
	extra, ok := g.deck.PopTile()
	if !ok {
		g.drawGame = true
		g.endRoundLocked()
		return ErrInvalidState("deck underflow during deal")
	}
	g.lastDrawn = &extra

	g.current = g.dealer
	g.phase = PhaseTypeAwaitingDiscard
	return nil
}

func (g *Game) buildDeckLocked() {
	if len(g.cfg.DeckOverride) > 0 {
		g.deck.Init(g.cfg.DeckOverride)
		return
	}
	set := tile.NewSet(g.cfg.CopiesPerKind)
	g.rng.Shuffle(len(set), func(i, j int) { set[i], set[j] = set[j], set[i] })
	g.deck.Init(set)
}

// verifyDeckLocked 局首自检：总数与 ID 唯一性。
func (g *Game) verifyDeckLocked() error {
	want := len(tile.AllKinds) * g.cfg.CopiesPerKind
	if g.deck.Count() != want {
		return fmt.Errorf("deck holds %d tiles, want %d", g.deck.Count(), want)
	}
	seen := make(map[int]bool, want)
	for _, t := range g.deck {
		if seen[t.ID] {
			return fmt.Errorf("duplicate tile id %d in deck", t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

// Draw 起牌。牌墙摸空直接流局。
func (g *Game) Draw(seat int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseTypePlayerTurnStart {
		return ErrInvalidState("cannot draw in phase " + g.phase.String())
	}
	if seat != g.current {
		return ErrOutOfTurn
	}

	t, ok := g.deck.PopTile()
	if !ok {
		g.drawGame = true
		g.endRoundLocked()
		return nil
	}
	g.lastDrawn = &t
	g.turn++
	g.phase = PhaseTypePlayerDrawn
	return nil
}

// Discard 打牌。tileID 等于悬牌时直接打出；否则从手里拿，悬牌并入手牌。
// 返回值表示是否进入鸣牌收集（房间层据此起鸣牌全局倒计时）。
func (g *Game) Discard(seat int, tileID int) (claimsPending bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseTypePlayerDrawn && g.phase != PhaseTypeAwaitingDiscard {
		return false, ErrInvalidState("cannot discard in phase " + g.phase.String())
	}
	if seat != g.current {
		return false, ErrOutOfTurn
	}
	p := g.players[seat]

	var out tile.Tile
	if g.lastDrawn != nil && g.lastDrawn.ID == tileID {
		out = *g.lastDrawn
		g.lastDrawn = nil
	} else {
		removed, ok := p.hand.RemoveByID(tileID)
		if !ok {
			return false, ErrTileNotInHand
		}
		out = removed
		if g.lastDrawn != nil {
			p.addHandTiles(*g.lastDrawn)
			g.lastDrawn = nil
		}
	}

	g.discards = append([]DiscardEntry{{Tile: out, Seat: seat}}, g.discards...)
	g.lastDiscard = &out
	g.lastDiscarder = seat
	g.phase = PhaseTypeTileDiscarded

	if g.computePotentialClaimsLocked() == 0 {
		g.lastDiscard = nil
		g.current = g.nextSeat(seat)
		g.phase = PhaseTypePlayerTurnStart
		return false, nil
	}
	g.phase = PhaseTypeAwaitingClaims
	return true, nil
}

// DeclareSelfHu 自摸（含庄家起手的天胡）。假胡不改状态，
// 房间层收到 ErrFalseHu 后重置本阶段的行动倒计时。
func (g *Game) DeclareSelfHu(seat int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	heavenly := g.phase == PhaseTypeAwaitingDiscard && seat == g.dealer && g.turn == 1
	if g.phase != PhaseTypePlayerDrawn && !heavenly {
		return ErrInvalidState("cannot declare hu in phase " + g.phase.String())
	}
	if seat != g.current {
		return ErrOutOfTurn
	}
	p := g.players[seat]
	if g.lastDrawn == nil {
		return ErrInvalidState("no drawn tile held")
	}

	if !CheckWin(p.hand, p.melds, g.lastDrawn) {
		return ErrFalseHu
	}

	p.addHandTiles(*g.lastDrawn)
	g.lastDrawn = nil
	g.winners = []int{seat}
	g.winType = WinTypeSelfDrawn
	g.payer = InvalidSeat
	g.endRoundLocked()
	return nil
}

// DeclareAnGang 暗杠：手牌(+悬牌)凑满 4 张，杠完补牌。
func (g *Game) DeclareAnGang(seat int, kind tile.Kind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseTypePlayerTurnStart, PhaseTypePlayerDrawn, PhaseTypeAwaitingDiscard:
	default:
		return ErrInvalidState("cannot declare an-gang in phase " + g.phase.String())
	}
	if seat != g.current {
		return ErrOutOfTurn
	}
	p := g.players[seat]

	inHand := p.hand.CountKind(kind)
	usesDrawn := g.lastDrawn != nil && g.lastDrawn.Kind == kind
	total := inHand
	if usesDrawn {
		total++
	}
	if total < 4 {
		return ErrNotEligible
	}

	fromHand := 4
	if usesDrawn {
		fromHand = 3
	}
	removed, ok := p.hand.RemoveKind(kind, fromHand)
	if !ok {
		return ErrNotEligible
	}
	tiles := removed
	if usesDrawn {
		tiles = append(tiles, *g.lastDrawn)
		g.lastDrawn = nil
	} else if g.lastDrawn != nil {
		// 悬牌没参与暗杠就并回手里。
		p.addHandTiles(*g.lastDrawn)
		g.lastDrawn = nil
	}
	p.melds = append(p.melds, newGangzi(tiles, false, InvalidSeat, 0))
	g.phase = PhaseTypePlayerTurnStart
	return nil
}

// DeclareAddGang 补杠：悬牌对上自己已碰的刻子。
func (g *Game) DeclareAddGang(seat int, kind tile.Kind) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseTypePlayerDrawn {
		return ErrInvalidState("cannot declare add-gang in phase " + g.phase.String())
	}
	if seat != g.current {
		return ErrOutOfTurn
	}
	p := g.players[seat]
	if g.lastDrawn == nil || g.lastDrawn.Kind != kind {
		return ErrNotEligible
	}
	idx := p.openKeziIndex(kind)
	if idx < 0 {
		return ErrMeldNotFound
	}

	p.melds[idx].upgradeToGangzi(*g.lastDrawn)
	g.lastDrawn = nil
	g.phase = PhaseTypePlayerTurnStart
	return nil
}

// ForceDrawGame 硬性流局（单局时长封顶、不变量损坏时用）。
func (g *Game) ForceDrawGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseTypeRoundOver, PhaseTypeAwaitingRematchVote, PhaseTypeGameOver, PhaseTypeWaitingForPlayers:
		return ErrRoundEnded
	}
	g.clearClaimStateLocked()
	if g.lastDrawn != nil {
		g.players[g.current].addHandTiles(*g.lastDrawn)
		g.lastDrawn = nil
	}
	g.drawGame = true
	g.endRoundLocked()
	return nil
}

// AutoDiscardTileID 超时托管的出牌选择：有悬牌打悬牌，否则打手牌最右一张。
func (g *Game) AutoDiscardTileID(seat int) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seat != g.current {
		return 0, false
	}
	if g.lastDrawn != nil {
		return g.lastDrawn.ID, true
	}
	p := g.players[seat]
	if p == nil || p.hand.Count() == 0 {
		return 0, false
	}
	return p.hand[p.hand.Count()-1].ID, true
}

// BeginRematchVote 终局后进入再战投票阶段。
func (g *Game) BeginRematchVote() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseTypeRoundOver || !g.matchOver {
		return ErrInvalidState("match not over")
	}
	g.phase = PhaseTypeAwaitingRematchVote
	return nil
}

// SetGameOver 房间解散前的收尾阶段。
func (g *Game) SetGameOver() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.phase = PhaseTypeGameOver
}

// endRoundLocked 结算并落到 ROUND_OVER。阶段转换集中在这一个出口。
func (g *Game) endRoundLocked() {
	winType := g.winType
	if g.drawGame {
		winType = WinTypeNone
	}

	var deltas []ScoreDelta
	if !g.drawGame && len(g.winners) > 0 {
		deltas = g.scorer.Score(g.winners, g.payer, winType, g.cfg.Players)
		for _, d := range deltas {
			if d.Seat >= 0 && d.Seat < g.cfg.Players && g.players[d.Seat] != nil {
				g.players[d.Seat].addScore(d.Delta)
			}
		}
	}

	g.lastResult = &RoundResult{
		Round:    g.roundIndex,
		WinType:  winType,
		Winners:  append([]int(nil), g.winners...),
		Payer:    g.payer,
		DrawGame: g.drawGame,
		Deltas:   deltas,
	}
	if g.roundIndex >= g.totalRounds {
		g.matchOver = true
	}
	g.phase = PhaseTypeRoundOver
}

func (g *Game) nextSeat(seat int) int {
	return (seat + 1) % g.cfg.Players
}
