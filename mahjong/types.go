package mahjong

const InvalidSeat int = -1

// 基础手牌 7 张，庄家开局多摸 1 张；胡牌型 = 2 副面子 + 1 对。
const (
	baseHandSize = 7
	setsPerHand  = (baseHandSize + 1 - 2) / 3
)

// Phase 游戏阶段
type Phase byte

const (
	PhaseTypeLoading             Phase = 0
	PhaseTypeWaitingForPlayers   Phase = 1
	PhaseTypeDealing             Phase = 2
	PhaseTypeAwaitingDiscard     Phase = 3
	PhaseTypePlayerTurnStart     Phase = 4
	PhaseTypePlayerDrawn         Phase = 5
	PhaseTypeTileDiscarded       Phase = 6
	PhaseTypeAwaitingClaims      Phase = 7
	PhaseTypeResolvingClaims     Phase = 8
	PhaseTypeRoundOver           Phase = 9
	PhaseTypeAwaitingRematchVote Phase = 10
	PhaseTypeGameOver            Phase = 11
)

var PhaseTypeDictionary = map[Phase]string{
	PhaseTypeLoading:             "loading",
	PhaseTypeWaitingForPlayers:   "waiting_for_players",
	PhaseTypeDealing:             "dealing",
	PhaseTypeAwaitingDiscard:     "awaiting_discard",
	PhaseTypePlayerTurnStart:     "player_turn_start",
	PhaseTypePlayerDrawn:         "player_drawn",
	PhaseTypeTileDiscarded:       "tile_discarded",
	PhaseTypeAwaitingClaims:      "awaiting_claims",
	PhaseTypeResolvingClaims:     "resolving_claims",
	PhaseTypeRoundOver:           "round_over",
	PhaseTypeAwaitingRematchVote: "awaiting_rematch_votes",
	PhaseTypeGameOver:            "game_over",
}

func (p Phase) String() string {
	if s, ok := PhaseTypeDictionary[p]; ok {
		return s
	}
	return "unknown"
}

// ClaimType 鸣牌类型，数值即仲裁优先级：胡 > 杠 > 碰 > 吃 > 过。
type ClaimType byte

const (
	ClaimTypePass ClaimType = 0
	ClaimTypeChi  ClaimType = 1
	ClaimTypePeng ClaimType = 2
	ClaimTypeGang ClaimType = 3
	ClaimTypeHu   ClaimType = 4
)

var ClaimTypeDictionary = map[ClaimType]string{
	ClaimTypePass: "PASS",
	ClaimTypeChi:  "CHI",
	ClaimTypePeng: "PENG",
	ClaimTypeGang: "GANG",
	ClaimTypeHu:   "HU",
}

func (c ClaimType) String() string {
	if s, ok := ClaimTypeDictionary[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// MeldType 面子类型
type MeldType byte

const (
	MeldTypeShunzi MeldType = 1 // 顺子
	MeldTypeKezi   MeldType = 2 // 刻子
	MeldTypeGangzi MeldType = 3 // 杠子
)

var MeldTypeDictionary = map[MeldType]string{
	MeldTypeShunzi: "shunzi",
	MeldTypeKezi:   "kezi",
	MeldTypeGangzi: "gangzi",
}

func (m MeldType) String() string {
	if s, ok := MeldTypeDictionary[m]; ok {
		return s
	}
	return "unknown"
}

// WinType 胡牌方式
type WinType byte

const (
	WinTypeNone      WinType = 0
	WinTypeSelfDrawn WinType = 1 // 自摸
	WinTypeDiscard   WinType = 2 // 点炮
)

var WinTypeDictionary = map[WinType]string{
	WinTypeNone:      "none",
	WinTypeSelfDrawn: "self_drawn",
	WinTypeDiscard:   "discard",
}

func (w WinType) String() string {
	if s, ok := WinTypeDictionary[w]; ok {
		return s
	}
	return "unknown"
}
