package mahjong

import (
	"errors"
	"fmt"
	"testing"

	"mahjong-lite/tile"
)

// scriptDeck 铺一副定序牌墙：先各家起手、再庄家第 8 张、再指定的
// 摸牌序列，剩余配额按牌种顺序垫在后面。ID 按牌墙位置从 1 递增。
func scriptDeck(t *testing.T, hands [][]tile.Kind, extra tile.Kind, rest ...tile.Kind) []tile.Tile {
	t.Helper()
	const copies = 4
	budget := make(map[tile.Kind]int, len(tile.AllKinds))
	for _, k := range tile.AllKinds {
		budget[k] = copies
	}
	var kinds []tile.Kind
	take := func(k tile.Kind) {
		if budget[k] == 0 {
			t.Fatalf("deck script over-uses kind %v", k)
		}
		budget[k]--
		kinds = append(kinds, k)
	}
	for _, hand := range hands {
		if len(hand) != baseHandSize {
			t.Fatalf("scripted hand must hold %d tiles, got %d", baseHandSize, len(hand))
		}
		for _, k := range hand {
			take(k)
		}
	}
	take(extra)
	for _, k := range rest {
		take(k)
	}
	for _, k := range tile.AllKinds {
		for budget[k] > 0 {
			take(k)
		}
	}
	deck := make([]tile.Tile, len(kinds))
	for i, k := range kinds {
		deck[i] = tile.Tile{ID: i + 1, Kind: k}
	}
	return deck
}

func newScriptedGame(t *testing.T, deck []tile.Tile, totalRounds int) *Game {
	t.Helper()
	return newScriptedGameWithScorer(t, deck, totalRounds, nil)
}

func newScriptedGameWithScorer(t *testing.T, deck []tile.Tile, totalRounds int, scorer Scorer) *Game {
	t.Helper()
	g, err := NewGame(Config{
		Players:          4,
		CopiesPerKind:    4,
		TotalRounds:      totalRounds,
		Seed:             1,
		DeckOverride:     deck,
		ForcedDealerSeat: 0,
		Scorer:           scorer,
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	for seat := 0; seat < 4; seat++ {
		if err := g.Seat(seat, fmt.Sprintf("p%d", seat), false); err != nil {
			t.Fatalf("Seat %d: %v", seat, err)
		}
	}
	if err := g.StartMatch(nil); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if err := g.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}
	return g
}

// quietDeck 庄家打出的那张没人能鸣（卒不成顺、各家都没有成对的它）。
func quietDeck(t *testing.T) []tile.Tile {
	t.Helper()
	return scriptDeck(t, [][]tile.Kind{
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackPao},
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackPao},
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackPao},
		{tile.KindRedJu, tile.KindRedMa, tile.KindRedPao, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao, tile.KindBlackZu},
	}, tile.KindRedZu)
}

func TestOpeningDealArithmetic(t *testing.T) {
	g, err := NewGame(Config{Players: 4, CopiesPerKind: 4, Seed: 42, ForcedDealerSeat: 2})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	for seat := 0; seat < 4; seat++ {
		if err := g.Seat(seat, fmt.Sprintf("p%d", seat), false); err != nil {
			t.Fatalf("Seat %d: %v", seat, err)
		}
	}
	if err := g.StartMatch(nil); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	if err := g.StartRound(); err != nil {
		t.Fatalf("StartRound: %v", err)
	}

	s := g.Snapshot()
	if s.Phase != PhaseTypeAwaitingDiscard {
		t.Fatalf("phase = %s, want AWAITING_DISCARD", s.Phase)
	}
	if s.Current != 2 || s.Dealer != 2 {
		t.Fatalf("current/dealer = %d/%d, want 2/2", s.Current, s.Dealer)
	}
	if s.Turn != 1 {
		t.Fatalf("turn = %d, want 1", s.Turn)
	}
	for _, p := range s.Players {
		if p.Hand.Count() != baseHandSize {
			t.Fatalf("seat %d holds %d tiles, want %d", p.Seat, p.Hand.Count(), baseHandSize)
		}
	}
	if s.LastDrawn == nil {
		t.Fatalf("dealer extra tile missing")
	}
	wantDeck := len(tile.AllKinds)*4 - 4*baseHandSize - 1
	if s.DeckCount != wantDeck {
		t.Fatalf("deck = %d, want %d", s.DeckCount, wantDeck)
	}
	if err := g.VerifyConservation(); err != nil {
		t.Fatalf("conservation: %v", err)
	}
}

func TestDiscardAllPassAdvancesTurn(t *testing.T) {
	g := newScriptedGame(t, quietDeck(t), 4)

	s := g.Snapshot()
	pending, err := g.Discard(0, s.LastDrawn.ID)
	if err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if pending {
		t.Fatalf("quiet discard must not open claim collection")
	}

	s = g.Snapshot()
	if s.Phase != PhaseTypePlayerTurnStart || s.Current != 1 {
		t.Fatalf("phase/current = %s/%d, want TURN_START/1", s.Phase, s.Current)
	}
	if s.LastDiscard != nil {
		t.Fatalf("lastDiscard must be cleared after all-pass")
	}
	if len(s.Discards) != 1 || s.Discards[0].Seat != 0 {
		t.Fatalf("discard pile wrong: %+v", s.Discards)
	}

	if err := g.Draw(1); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	s = g.Snapshot()
	if s.Phase != PhaseTypePlayerDrawn || s.Turn != 2 {
		t.Fatalf("phase/turn = %s/%d, want PLAYER_DRAWN/2", s.Phase, s.Turn)
	}
	if err := g.VerifyConservation(); err != nil {
		t.Fatalf("conservation: %v", err)
	}
}

func TestOutOfTurnRejected(t *testing.T) {
	g := newScriptedGame(t, quietDeck(t), 4)

	s := g.Snapshot()
	if _, err := g.Discard(1, s.LastDrawn.ID); !errors.Is(err, ErrOutOfTurn) {
		t.Fatalf("discard from wrong seat: %v, want ErrOutOfTurn", err)
	}
	if err := g.Draw(2); err == nil {
		t.Fatalf("draw outside TURN_START must fail")
	}
}

func TestDeckEmptyEndsInDraw(t *testing.T) {
	g := newScriptedGame(t, quietDeck(t), 4)

	s := g.Snapshot()
	if _, err := g.Discard(0, s.LastDrawn.ID); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	// 直接抽干牌墙，下一摸即荒庄。
	g.mu.Lock()
	g.deck = nil
	g.mu.Unlock()

	if err := g.Draw(1); err != nil {
		t.Fatalf("Draw on empty deck: %v", err)
	}
	s = g.Snapshot()
	if s.Phase != PhaseTypeRoundOver || !s.DrawGame {
		t.Fatalf("phase/drawGame = %s/%v, want ROUND_OVER/true", s.Phase, s.DrawGame)
	}
	if s.LastResult == nil || !s.LastResult.DrawGame || len(s.LastResult.Deltas) != 0 {
		t.Fatalf("draw game must settle without deltas: %+v", s.LastResult)
	}
}

func heavenlyDeck(t *testing.T) []tile.Tile {
	t.Helper()
	return scriptDeck(t, [][]tile.Kind{
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao, tile.KindRedZu},
		{tile.KindBlackJiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackXiang, tile.KindBlackZu},
		{tile.KindRedJu, tile.KindRedJu, tile.KindRedMa, tile.KindRedMa, tile.KindRedPao, tile.KindRedPao, tile.KindBlackZu},
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao, tile.KindRedZu},
	}, tile.KindRedZu)
}

func TestHeavenlyHand(t *testing.T) {
	g := newScriptedGame(t, heavenlyDeck(t), 1)

	if err := g.DeclareSelfHu(0); err != nil {
		t.Fatalf("DeclareSelfHu: %v", err)
	}
	s := g.Snapshot()
	if s.Phase != PhaseTypeRoundOver {
		t.Fatalf("phase = %s, want ROUND_OVER", s.Phase)
	}
	if len(s.Winners) != 1 || s.Winners[0] != 0 || s.WinType != WinTypeSelfDrawn {
		t.Fatalf("winners/winType = %v/%s", s.Winners, s.WinType)
	}
	if s.Players[0].Score != 600 {
		t.Fatalf("winner score = %d, want 600", s.Players[0].Score)
	}
	for seat := 1; seat < 4; seat++ {
		if s.Players[seat].Score != -200 {
			t.Fatalf("seat %d score = %d, want -200", seat, s.Players[seat].Score)
		}
	}
	if !s.MatchOver {
		t.Fatalf("single-round match must be over")
	}
	if err := g.VerifyConservation(); err != nil {
		t.Fatalf("conservation: %v", err)
	}
}

func TestFalseSelfHuKeepsState(t *testing.T) {
	g := newScriptedGame(t, quietDeck(t), 4)

	if err := g.DeclareSelfHu(0); !errors.Is(err, ErrFalseHu) {
		t.Fatalf("junk hand self-hu: %v, want ErrFalseHu", err)
	}
	s := g.Snapshot()
	if s.Phase != PhaseTypeAwaitingDiscard || s.LastDrawn == nil {
		t.Fatalf("false hu must leave the turn intact, phase=%s", s.Phase)
	}
	// 假胡后照样能打牌。
	if _, err := g.Discard(0, s.LastDrawn.ID); err != nil {
		t.Fatalf("Discard after false hu: %v", err)
	}
}

func TestAnGangFromOpeningHand(t *testing.T) {
	deck := scriptDeck(t, [][]tile.Kind{
		{tile.KindRedZu, tile.KindRedZu, tile.KindRedZu, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackXiang, tile.KindBlackShi},
		{tile.KindBlackJiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackZu, tile.KindBlackZu, tile.KindRedJiang},
		{tile.KindRedJu, tile.KindRedJu, tile.KindRedMa, tile.KindRedMa, tile.KindRedPao, tile.KindRedPao, tile.KindBlackZu},
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao, tile.KindRedShi},
	}, tile.KindRedZu)
	g := newScriptedGame(t, deck, 4)

	if err := g.DeclareAnGang(0, tile.KindRedZu); err != nil {
		t.Fatalf("DeclareAnGang: %v", err)
	}
	s := g.Snapshot()
	if s.Phase != PhaseTypePlayerTurnStart || s.Current != 0 {
		t.Fatalf("an-gang must hand the turn back for a replacement draw, phase=%s", s.Phase)
	}
	p := s.Players[0]
	if len(p.Melds) != 1 || p.Melds[0].Type != MeldTypeGangzi || p.Melds[0].Open {
		t.Fatalf("an-gang meld wrong: %+v", p.Melds)
	}
	if p.Hand.Count() != 4 {
		t.Fatalf("hand = %d tiles after an-gang, want 4", p.Hand.Count())
	}
	if err := g.VerifyConservation(); err != nil {
		t.Fatalf("conservation: %v", err)
	}
	if err := g.Draw(0); err != nil {
		t.Fatalf("replacement draw: %v", err)
	}
}

func TestDealerRotation(t *testing.T) {
	g := newScriptedGame(t, heavenlyDeck(t), 3)

	// 第 1 局庄家胡，连庄。
	if err := g.DeclareSelfHu(0); err != nil {
		t.Fatalf("DeclareSelfHu: %v", err)
	}
	if err := g.StartRound(); err != nil {
		t.Fatalf("StartRound 2: %v", err)
	}
	if s := g.Snapshot(); s.Dealer != 0 || s.RoundIndex != 2 {
		t.Fatalf("dealer/round = %d/%d, want 0/2 after dealer win", s.Dealer, s.RoundIndex)
	}

	// 第 2 局流局，庄位顺移。
	if err := g.ForceDrawGame(); err != nil {
		t.Fatalf("ForceDrawGame: %v", err)
	}
	if err := g.StartRound(); err != nil {
		t.Fatalf("StartRound 3: %v", err)
	}
	if s := g.Snapshot(); s.Dealer != 1 || s.RoundIndex != 3 {
		t.Fatalf("dealer/round = %d/%d, want 1/3 after draw game", s.Dealer, s.RoundIndex)
	}
}

func TestRematchPreservesScores(t *testing.T) {
	g := newScriptedGame(t, heavenlyDeck(t), 1)

	if err := g.DeclareSelfHu(0); err != nil {
		t.Fatalf("DeclareSelfHu: %v", err)
	}
	if err := g.BeginRematchVote(); err != nil {
		t.Fatalf("BeginRematchVote: %v", err)
	}

	preserved := make(map[int]int)
	for _, p := range g.Snapshot().Players {
		preserved[p.Seat] = p.Score
	}
	if err := g.StartMatch(preserved); err != nil {
		t.Fatalf("StartMatch: %v", err)
	}
	s := g.Snapshot()
	if s.Players[0].Score != 600 || s.Players[1].Score != -200 {
		t.Fatalf("rematch must carry scores forward, got %d/%d",
			s.Players[0].Score, s.Players[1].Score)
	}
	if s.RoundIndex != 0 || s.MatchOver {
		t.Fatalf("rematch must reset round progress")
	}

	// 投票阶段进来的 StartMatch 必须能直接开下一场。
	if err := g.StartRound(); err != nil {
		t.Fatalf("StartRound after rematch: %v", err)
	}
	s = g.Snapshot()
	if s.Phase != PhaseTypeAwaitingDiscard || s.RoundIndex != 1 {
		t.Fatalf("phase/round = %s/%d, want AWAITING_DISCARD/1", s.Phase, s.RoundIndex)
	}
}

func TestUnseatDuringRoundRejected(t *testing.T) {
	g := newScriptedGame(t, quietDeck(t), 4)

	if err := g.Unseat(2); err == nil {
		t.Fatalf("unseat mid-round must fail")
	}
	if err := g.ForceDrawGame(); err != nil {
		t.Fatalf("ForceDrawGame: %v", err)
	}
	if err := g.Unseat(2); err != nil {
		t.Fatalf("unseat after round: %v", err)
	}
	if err := g.Seat(2, "again", true); err != nil {
		t.Fatalf("reseat: %v", err)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	g := newScriptedGame(t, quietDeck(t), 4)

	s := g.Snapshot()
	s.Players[0].Hand[0].Kind = tile.KindBlackZu
	s.Discards = append(s.Discards, DiscardEntry{})

	// 庄家起手没有黑卒，改动要是漏回引擎就会在这儿现形。
	again := g.Snapshot()
	if again.Players[0].Hand[0].Kind == tile.KindBlackZu {
		t.Fatalf("snapshot mutation leaked into engine state")
	}
	if len(again.Discards) != 0 {
		t.Fatalf("snapshot discard mutation leaked into engine state")
	}
}
