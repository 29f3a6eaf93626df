package mahjong

import "mahjong-lite/tile"

type MeldSnapshot struct {
	Type          MeldType
	Tiles         []tile.Tile
	Open          bool
	ClaimedFrom   int
	ClaimedTileID int
}

type PlayerSnapshot struct {
	Seat   int
	Name   string
	Robot  bool
	Dealer bool
	Score  int

	Hand  tile.List
	Melds []MeldSnapshot

	PendingClaims []ClaimType
	ChiOptions    [][2]tile.Tile
	HasResponded  bool
}

// Snapshot 引擎状态的全量深拷贝。不做任何视角遮蔽——
// 哪些手牌对哪个连接可见是投影层（codec）的事。
type Snapshot struct {
	Phase Phase

	RoundIndex  int
	TotalRounds int
	MatchOver   bool

	Turn          int
	Current       int
	Dealer        int
	DeckCount     int
	Discards      []DiscardEntry
	LastDrawn     *tile.Tile
	LastDiscard   *tile.Tile
	LastDiscarder int

	Winners  []int
	WinType  WinType
	Payer    int
	DrawGame bool

	Players []PlayerSnapshot

	LastResult *RoundResult
}

func (g *Game) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Snapshot{
		Phase:         g.phase,
		RoundIndex:    g.roundIndex,
		TotalRounds:   g.totalRounds,
		MatchOver:     g.matchOver,
		Turn:          g.turn,
		Current:       g.current,
		Dealer:        g.dealer,
		DeckCount:     g.deck.Count(),
		Discards:      append([]DiscardEntry(nil), g.discards...),
		LastDiscarder: g.lastDiscarder,
		WinType:       g.winType,
		Payer:         g.payer,
		DrawGame:      g.drawGame,
		Winners:       append([]int(nil), g.winners...),
	}
	if g.lastDrawn != nil {
		t := *g.lastDrawn
		s.LastDrawn = &t
	}
	if g.lastDiscard != nil {
		t := *g.lastDiscard
		s.LastDiscard = &t
	}
	if g.lastResult != nil {
		r := *g.lastResult
		r.Winners = append([]int(nil), g.lastResult.Winners...)
		r.Deltas = append([]ScoreDelta(nil), g.lastResult.Deltas...)
		s.LastResult = &r
	}

	for _, p := range g.players {
		if p == nil {
			continue
		}
		ps := PlayerSnapshot{
			Seat:         p.Seat,
			Name:         p.Name,
			Robot:        p.Robot,
			Dealer:       p.dealer,
			Score:        p.score,
			Hand:         p.hand.Clone(),
			HasResponded: p.hasResponded,
		}
		for _, m := range p.melds {
			ps.Melds = append(ps.Melds, MeldSnapshot{
				Type:          m.Type,
				Tiles:         append([]tile.Tile(nil), m.Tiles...),
				Open:          m.Open,
				ClaimedFrom:   m.ClaimedFrom,
				ClaimedTileID: m.ClaimedTileID,
			})
		}
		ps.PendingClaims = append([]ClaimType(nil), p.pendingClaims...)
		for _, opt := range p.chiOptions {
			ps.ChiOptions = append(ps.ChiOptions, opt)
		}
		s.Players = append(s.Players, ps)
	}
	return s
}

// Player 取座位记录（房间层做座位管理时用）。
func (g *Game) Player(seat int) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seat < 0 || seat >= g.cfg.Players {
		return nil
	}
	return g.players[seat]
}

// VerifyConservation 牌张守恒检查：手牌+面子+牌墙+弃牌 == 全套。
// 测试和房间层的自检用。
func (g *Game) VerifyConservation() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.phase {
	case PhaseTypeWaitingForPlayers, PhaseTypeGameOver:
		return nil
	}

	total := g.deck.Count() + len(g.discards)
	for _, p := range g.players {
		if p == nil {
			continue
		}
		total += p.hand.Count() + p.meldTileCount()
	}
	if g.lastDrawn != nil {
		total++
	}
	want := len(tile.AllKinds) * g.cfg.CopiesPerKind
	if total != want {
		return ErrInvalidState("tile conservation violated")
	}
	return nil
}
