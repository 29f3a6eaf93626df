package mahjong

import "testing"

func deltaFor(deltas []ScoreDelta, seat int) (int, bool) {
	for _, d := range deltas {
		if d.Seat == seat {
			return d.Delta, true
		}
	}
	return 0, false
}

func TestBaselineScorerDiscard(t *testing.T) {
	var s baselineScorer

	deltas := s.Score([]int{2}, 0, WinTypeDiscard, 4)
	if d, _ := deltaFor(deltas, 2); d != 100 {
		t.Fatalf("winner delta = %d, want 100", d)
	}
	if d, _ := deltaFor(deltas, 0); d != -100 {
		t.Fatalf("payer delta = %d, want -100", d)
	}

	// 一炮多响：放铳者对每家各付一份。
	deltas = s.Score([]int{1, 3}, 2, WinTypeDiscard, 4)
	if d, _ := deltaFor(deltas, 2); d != -200 {
		t.Fatalf("multi-ron payer delta = %d, want -200", d)
	}
}

func TestBaselineScorerSelfDrawn(t *testing.T) {
	var s baselineScorer

	deltas := s.Score([]int{1}, InvalidSeat, WinTypeSelfDrawn, 4)
	if d, _ := deltaFor(deltas, 1); d != 600 {
		t.Fatalf("self-drawn winner delta = %d, want 600", d)
	}
	for _, seat := range []int{0, 2, 3} {
		if d, _ := deltaFor(deltas, seat); d != -200 {
			t.Fatalf("seat %d delta = %d, want -200", seat, d)
		}
	}

	// 三人局均摊向上取整：600/2 = 300。
	deltas = s.Score([]int{0}, InvalidSeat, WinTypeSelfDrawn, 3)
	if d, _ := deltaFor(deltas, 1); d != -300 {
		t.Fatalf("three-player share = %d, want -300", d)
	}
}

func TestScorerHookOverride(t *testing.T) {
	fixed := scorerFunc(func(winners []int, payer int, winType WinType, players int) []ScoreDelta {
		return []ScoreDelta{{Seat: winners[0], Delta: 7}}
	})
	g := newScriptedGameWithScorer(t, heavenlyDeck(t), 1, fixed)

	if err := g.DeclareSelfHu(0); err != nil {
		t.Fatalf("DeclareSelfHu: %v", err)
	}
	if s := g.Snapshot(); s.Players[0].Score != 7 {
		t.Fatalf("custom scorer ignored, score = %d", s.Players[0].Score)
	}
}

type scorerFunc func(winners []int, payer int, winType WinType, players int) []ScoreDelta

func (f scorerFunc) Score(winners []int, payer int, winType WinType, players int) []ScoreDelta {
	return f(winners, payer, winType, players)
}
