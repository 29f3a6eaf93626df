package mahjong

import (
	"fmt"

	"mahjong-lite/tile"
)

type Config struct {
	// Seats
	Players int

	// Tile set
	CopiesPerKind int

	// Rounds per match (0 => Players, 每人坐一次庄)
	TotalRounds int

	// RNG seed (0 => time-based)
	Seed int64

	// Scripted deal for tests/replays: the deck is used in the given
	// order instead of shuffling. Must contain the full tile set.
	DeckOverride []tile.Tile

	// ForcedDealerSeat pins the opening dealer (InvalidSeat => random).
	ForcedDealerSeat int

	// Scoring hook (nil => baseline schedule)
	Scorer Scorer
}

func (c Config) validate() error {
	if c.Players <= 1 || c.Players > 4 {
		return fmt.Errorf("Players must be in 2..4, got %d", c.Players)
	}
	if c.CopiesPerKind <= 0 {
		return fmt.Errorf("CopiesPerKind must be > 0")
	}
	if c.TotalRounds < 0 {
		return fmt.Errorf("TotalRounds must be >= 0")
	}
	if c.ForcedDealerSeat != InvalidSeat && (c.ForcedDealerSeat < 0 || c.ForcedDealerSeat >= c.Players) {
		return fmt.Errorf("ForcedDealerSeat %d out of range", c.ForcedDealerSeat)
	}
	if len(c.DeckOverride) > 0 && len(c.DeckOverride) != len(tile.AllKinds)*c.CopiesPerKind {
		return fmt.Errorf("DeckOverride must hold the full set (%d tiles), got %d",
			len(tile.AllKinds)*c.CopiesPerKind, len(c.DeckOverride))
	}
	return nil
}
