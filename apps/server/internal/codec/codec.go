package codec

import (
	"sort"

	"mahjong-lite/apps/server/internal/wire"
	"mahjong-lite/mahjong"
	"mahjong-lite/tile"
)

// SeatMeta 引擎快照之外、房间层才知道的座位信息。
type SeatMeta struct {
	Host   bool
	Online bool
}

// revealAll 这些阶段手牌全亮（结算画面）。
func revealAll(phase mahjong.Phase) bool {
	switch phase {
	case mahjong.PhaseTypeRoundOver, mahjong.PhaseTypeAwaitingRematchVote, mahjong.PhaseTypeGameOver:
		return true
	}
	return false
}

// TileToWire converts one tile.
func TileToWire(t tile.Tile) wire.Tile {
	return wire.Tile{ID: t.ID, Kind: byte(t.Kind), Label: t.Kind.String()}
}

func tilesToWire(tiles []tile.Tile) []wire.Tile {
	out := make([]wire.Tile, len(tiles))
	for i, t := range tiles {
		out[i] = TileToWire(t)
	}
	return out
}

func meldToWire(m mahjong.MeldSnapshot) wire.Meld {
	return wire.Meld{
		Type:        m.Type.String(),
		Tiles:       tilesToWire(m.Tiles),
		Open:        m.Open,
		ClaimedFrom: m.ClaimedFrom,
	}
}

func claimsToWire(claims []mahjong.ClaimType) []string {
	out := make([]string, len(claims))
	for i, c := range claims {
		out[i] = c.String()
	}
	return out
}

func chiOptionsToWire(opts [][2]tile.Tile) [][]wire.Tile {
	out := make([][]wire.Tile, len(opts))
	for i, opt := range opts {
		out[i] = []wire.Tile{TileToWire(opt[0]), TileToWire(opt[1])}
	}
	return out
}

// RoomStateFor projects a snapshot for one viewer seat.
// 遮蔽规则：手牌只有本人可见（结算阶段全亮）；悬牌只有当前行动者
// 本人可见；可鸣集合与吃牌选项只发给那个座位自己。
// viewerSeat 传 mahjong.InvalidSeat 表示旁观视角，全部按他人处理。
func RoomStateFor(roomID string, snap mahjong.Snapshot, meta map[int]SeatMeta, viewerSeat int) wire.RoomState {
	state := wire.RoomState{
		RoomID:        roomID,
		Phase:         snap.Phase.String(),
		RoundIndex:    snap.RoundIndex,
		TotalRounds:   snap.TotalRounds,
		MatchOver:     snap.MatchOver,
		Turn:          snap.Turn,
		Current:       snap.Current,
		Dealer:        snap.Dealer,
		DeckCount:     snap.DeckCount,
		LastDiscarder: snap.LastDiscarder,
		ViewerSeat:    viewerSeat,
	}

	for _, d := range snap.Discards {
		state.Discards = append(state.Discards, wire.DiscardEntry{
			Tile: TileToWire(d.Tile),
			Seat: d.Seat,
		})
	}
	if snap.LastDiscard != nil {
		t := TileToWire(*snap.LastDiscard)
		state.LastDiscard = &t
	}
	if snap.LastDrawn != nil && snap.Current == viewerSeat {
		t := TileToWire(*snap.LastDrawn)
		state.LastDrawn = &t
	}

	reveal := revealAll(snap.Phase)
	for _, p := range snap.Players {
		ps := wire.PlayerState{
			Seat:      p.Seat,
			Name:      p.Name,
			Robot:     p.Robot,
			Dealer:    p.Dealer,
			Score:     p.Score,
			HandCount: p.Hand.Count(),
		}
		if m, ok := meta[p.Seat]; ok {
			ps.Host = m.Host
			ps.Online = m.Online
		}
		if reveal || p.Seat == viewerSeat {
			ps.Hand = tilesToWire(p.Hand)
		}
		for _, m := range p.Melds {
			ps.Melds = append(ps.Melds, meldToWire(m))
		}
		if p.Seat == viewerSeat {
			ps.PendingClaims = claimsToWire(p.PendingClaims)
			ps.ChiOptions = chiOptionsToWire(p.ChiOptions)
		}
		state.Players = append(state.Players, ps)
	}
	return state
}

// ClaimPrompt builds the per-seat claim prompt payload.
func ClaimPrompt(snap mahjong.Snapshot, seat int, deadlineMs int64) *wire.ClaimPromptBody {
	if snap.LastDiscard == nil {
		return nil
	}
	for _, p := range snap.Players {
		if p.Seat != seat || len(p.PendingClaims) == 0 {
			continue
		}
		return &wire.ClaimPromptBody{
			Claims:     claimsToWire(p.PendingClaims),
			Discard:    TileToWire(*snap.LastDiscard),
			Discarder:  snap.LastDiscarder,
			ChiOptions: chiOptionsToWire(p.ChiOptions),
			DeadlineMs: deadlineMs,
		}
	}
	return nil
}

// RoundEnd builds the settlement payload from the engine's round result.
func RoundEnd(snap mahjong.Snapshot) *wire.RoundEnd {
	r := snap.LastResult
	if r == nil {
		return nil
	}
	out := &wire.RoundEnd{
		Round:    r.Round,
		WinType:  r.WinType.String(),
		Winners:  r.Winners,
		Payer:    r.Payer,
		DrawGame: r.DrawGame,
		Scores:   make(map[int]int, len(snap.Players)),
	}
	for _, d := range r.Deltas {
		out.Deltas = append(out.Deltas, wire.ScoreDelta{Seat: d.Seat, Delta: d.Delta})
	}
	for _, p := range snap.Players {
		out.Scores[p.Seat] = p.Score
	}
	return out
}

// MatchEnd builds the final standings. 同分按座位号排前。
func MatchEnd(snap mahjong.Snapshot) *wire.MatchEnd {
	out := &wire.MatchEnd{Scores: make(map[int]int, len(snap.Players))}
	for _, p := range snap.Players {
		out.Scores[p.Seat] = p.Score
		out.Ranking = append(out.Ranking, p.Seat)
	}
	sort.SliceStable(out.Ranking, func(i, j int) bool {
		return out.Scores[out.Ranking[i]] > out.Scores[out.Ranking[j]]
	})
	return out
}

// ParseClaim maps a wire claim string to the engine enum.
func ParseClaim(s string) (mahjong.ClaimType, bool) {
	for c, name := range mahjong.ClaimTypeDictionary {
		if name == s {
			return c, true
		}
	}
	return mahjong.ClaimTypePass, false
}
