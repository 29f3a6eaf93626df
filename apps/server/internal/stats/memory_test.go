package stats

import (
	"context"
	"testing"
)

func TestRecordRoundAccumulates(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	rounds := [][]RoundOutcome{
		{
			{Username: "ann", Win: true, SelfDrawn: true, Delta: 600},
			{Username: "bob", Delta: -200},
		},
		{
			{Username: "ann", Win: true, Delta: 300},
			{Username: "bob", Payout: true, Delta: -300},
		},
		{
			{Username: "ann", DrawGame: true},
			{Username: "bob", DrawGame: true},
		},
	}
	for _, outcomes := range rounds {
		if err := svc.RecordRound(ctx, outcomes); err != nil {
			t.Fatalf("RecordRound: %v", err)
		}
	}

	ann, err := svc.Get(ctx, "ann")
	if err != nil {
		t.Fatalf("Get ann: %v", err)
	}
	if ann.Rounds != 3 || ann.Wins != 2 || ann.SelfDrawnWins != 1 || ann.DiscardWins != 1 {
		t.Fatalf("ann = %+v", ann)
	}
	if ann.Draws != 1 || ann.ScoreDelta != 900 {
		t.Fatalf("ann draws/delta = %d/%d", ann.Draws, ann.ScoreDelta)
	}

	bob, err := svc.Get(ctx, "BOB") // 大小写不敏感
	if err != nil {
		t.Fatalf("Get bob: %v", err)
	}
	if bob.Payouts != 1 || bob.ScoreDelta != -500 {
		t.Fatalf("bob = %+v", bob)
	}
}

func TestGetUnknownPlayer(t *testing.T) {
	svc := newMemoryService()
	if _, err := svc.Get(context.Background(), "nobody"); err != ErrNotFound {
		t.Fatalf("Get = %v, want ErrNotFound", err)
	}
}

func TestTopOrdersByScore(t *testing.T) {
	svc := newMemoryService()
	ctx := context.Background()

	if err := svc.RecordRound(ctx, []RoundOutcome{
		{Username: "ann", Win: true, Delta: 300},
		{Username: "bob", Delta: -100},
		{Username: "cat", Payout: true, Delta: -200},
	}); err != nil {
		t.Fatalf("RecordRound: %v", err)
	}

	top, err := svc.Top(ctx, 2)
	if err != nil {
		t.Fatalf("Top: %v", err)
	}
	if len(top) != 2 || top[0].Username != "ann" || top[1].Username != "bob" {
		t.Fatalf("top = %+v", top)
	}
}
