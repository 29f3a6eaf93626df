package npc

import (
	"mahjong-lite/mahjong"
	"mahjong-lite/tile"
)

// GameView is a read-only projection of the game state visible to the NPC.
// 只含本座位能看到的信息，和发给人类客户端的视图同权限。
type GameView struct {
	Phase mahjong.Phase
	Seat  int
	Turn  int

	Hand      tile.List
	Melds     []mahjong.MeldSnapshot
	LastDrawn *tile.Tile // our floating drawn tile, nil otherwise

	LastDiscard *tile.Tile
	Discards    []mahjong.DiscardEntry

	PendingClaims []mahjong.ClaimType
	ChiOptions    [][2]tile.Tile
}

// ActionKind is what an NPC does with its own turn.
type ActionKind byte

const (
	ActionDraw ActionKind = iota
	ActionDiscard
	ActionSelfHu
	ActionAnGang
	ActionAddGang
)

// TurnAction is a turn decision: which action, and its argument
// (TileID for discards, MeldKind for gangs).
type TurnAction struct {
	Kind     ActionKind
	TileID   int
	MeldKind tile.Kind
}

// BrainDecider is the core interface all NPC types implement.
type BrainDecider interface {
	// PreDraw is called on PLAYER_TURN_START: concealed kong or draw.
	PreDraw(view GameView) TurnAction
	// OnDrawn is called with the drawn tile held: hu, gang or discard.
	OnDrawn(view GameView) TurnAction
	// OnClaim is called when the seat has pending claim eligibility.
	OnClaim(view GameView) mahjong.ClaimSubmission
	// ChooseDiscard picks a tile ID to throw.
	ChooseDiscard(view GameView) int
	// Name returns a human-readable identifier for debugging.
	Name() string
}
