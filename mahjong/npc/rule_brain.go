package npc

import (
	"mahjong-lite/mahjong"
	"mahjong-lite/tile"
)

// RuleBrain 确定性启发式，不做搜索。同一视图永远给同一答案，
// 方便录像回放和仲裁测试。
type RuleBrain struct {
	Persona *Persona
}

// NewRuleBrain creates a RuleBrain from a persona definition.
func NewRuleBrain(persona *Persona) *RuleBrain {
	return &RuleBrain{Persona: persona}
}

func (b *RuleBrain) Name() string { return b.Persona.Name }

// PreDraw implements BrainDecider: concealed kong if the hand already
// holds four of a kind, otherwise draw.
func (b *RuleBrain) PreDraw(view GameView) TurnAction {
	if kinds := mahjong.AnGangKinds(view.Hand, nil); len(kinds) > 0 {
		return TurnAction{Kind: ActionAnGang, MeldKind: kinds[0]}
	}
	return TurnAction{Kind: ActionDraw}
}

// OnDrawn implements BrainDecider. 优先级：自摸 > 暗杠 > 补杠 > 打牌。
func (b *RuleBrain) OnDrawn(view GameView) TurnAction {
	if view.LastDrawn == nil {
		return TurnAction{Kind: ActionDiscard, TileID: b.ChooseDiscard(view)}
	}
	if mahjong.CanWinWith(view.Hand, len(view.Melds), view.LastDrawn) {
		return TurnAction{Kind: ActionSelfHu}
	}
	if kinds := mahjong.AnGangKinds(view.Hand, view.LastDrawn); len(kinds) > 0 {
		return TurnAction{Kind: ActionAnGang, MeldKind: kinds[0]}
	}
	for _, m := range view.Melds {
		if m.Type == mahjong.MeldTypeKezi && m.Open && len(m.Tiles) > 0 &&
			m.Tiles[0].Kind == view.LastDrawn.Kind {
			return TurnAction{Kind: ActionAddGang, MeldKind: view.LastDrawn.Kind}
		}
	}
	return TurnAction{Kind: ActionDiscard, TileID: b.ChooseDiscard(view)}
}

// OnClaim implements BrainDecider: take the highest-priority eligible
// claim, chi uses the first offered combination.
func (b *RuleBrain) OnClaim(view GameView) mahjong.ClaimSubmission {
	best := mahjong.ClaimTypePass
	for _, c := range view.PendingClaims {
		if c > best {
			best = c
		}
	}
	sub := mahjong.ClaimSubmission{Seat: view.Seat, Type: best}
	switch best {
	case mahjong.ClaimTypePeng, mahjong.ClaimTypeGang:
		if view.LastDiscard != nil {
			sub.Kind = view.LastDiscard.Kind
		}
	case mahjong.ClaimTypeChi:
		if len(view.ChiOptions) == 0 {
			sub.Type = mahjong.ClaimTypePass
			break
		}
		opt := view.ChiOptions[0]
		sub.ChiTileIDs = [2]int{opt[0].ID, opt[1].ID}
	}
	return sub
}

// ChooseDiscard scores every throwable tile and throws the cheapest.
func (b *RuleBrain) ChooseDiscard(view GameView) int {
	pool := view.Hand.Clone()
	if view.LastDrawn != nil {
		pool.Add(*view.LastDrawn)
	}
	if pool.Count() == 0 {
		return 0
	}

	bestID := pool[0].ID
	bestKind := pool[0].Kind
	bestScore := b.scoreTile(pool[0].Kind, pool, view.Discards)
	for _, t := range pool[1:] {
		score := b.scoreTile(t.Kind, pool, view.Discards)
		if score < bestScore || (score == bestScore && preferDiscard(t.Kind, bestKind)) {
			bestID, bestKind, bestScore = t.ID, t.Kind, score
		}
	}
	return bestID
}

// scoreTile 打牌打分，越低越该打：
// 成对成刻加分留着，能进顺子加分，点数大加分，
// 危险牌（对手可能要的）加分，弃牌堆里已见过的减分。
func (b *RuleBrain) scoreTile(k tile.Kind, pool tile.List, discards []mahjong.DiscardEntry) int {
	score := 0

	switch pool.CountKind(k) {
	case 1:
	case 2:
		score += 5
	case 3:
		score += 15
	default:
		score += 25
	}

	for _, mate := range mahjong.RunMates(k) {
		if pool.CountKind(mate) > 0 {
			score += 8
			break
		}
	}

	score += 2 * k.Order()

	seen := 0
	for _, d := range discards {
		if d.Tile.Kind == k {
			seen++
		}
	}
	danger := centrality(k) - seen
	if danger < 0 {
		danger = 0
	}
	score += 2 * danger
	score -= 3 * seen

	return score
}

// centrality 牌种的结构权重：顺子中位最抢手，卒谁都不要。
func centrality(k tile.Kind) int {
	mates := mahjong.RunMates(k)
	if len(mates) == 0 {
		return 0
	}
	if k.Piece() == tile.PieceShi || k.Piece() == tile.PieceMa {
		return 3
	}
	return 2
}

// preferDiscard 同分时先打点数小的，再先打不进顺子的（卒）。
func preferDiscard(a, b tile.Kind) bool {
	if a.Order() != b.Order() {
		return a.Order() < b.Order()
	}
	return len(mahjong.RunMates(a)) < len(mahjong.RunMates(b))
}
