package wire

import "time"

// 客户端到服务端统一走一种 JSON 帧，type 区分动作。
const (
	ClientHello       = "hello"
	ClientCreateRoom  = "create_room"
	ClientJoinRoom    = "join_room"
	ClientLeaveRoom   = "leave_room"
	ClientListRooms   = "list_rooms"
	ClientReady       = "ready"
	ClientDiscard     = "discard"
	ClientSelfHu      = "self_hu"
	ClientAnGang      = "an_gang"
	ClientAddGang     = "add_gang"
	ClientClaim       = "claim"
	ClientRematchVote = "rematch_vote"
	ClientChat        = "chat"
	ClientVoice       = "voice"
	ClientPing        = "ping"
)

// ClientMessage is the single frame clients send. 字段按 type 取用，
// 没用到的留零值即可。
type ClientMessage struct {
	Type     string `json:"type"`
	Seq      uint64 `json:"seq,omitempty"`
	RoomID   string `json:"roomId,omitempty"`
	Token    string `json:"token,omitempty"`
	Name     string `json:"name,omitempty"`
	RoomName string `json:"roomName,omitempty"`
	Password string `json:"password,omitempty"`

	TileID   int    `json:"tileId,omitempty"`
	Kind     byte   `json:"kind,omitempty"`
	Claim    string `json:"claim,omitempty"`
	ChiTiles []int  `json:"chiTiles,omitempty"`

	Accept *bool       `json:"accept,omitempty"`
	Text   string      `json:"text,omitempty"`
	Rounds int         `json:"rounds,omitempty"`
	Voice  *VoiceState `json:"voice,omitempty"`
}

// VoiceState 语音在场标记，只做投影，不中转媒体流。
type VoiceState struct {
	Joined   bool `json:"joined"`
	Muted    bool `json:"muted"`
	Speaking bool `json:"speaking"`
}

// 服务端下行帧类型。
const (
	ServerHello        = "hello"
	ServerError        = "error"
	ServerRoomState    = "room_state"
	ServerRoomList     = "room_list"
	ServerRoundStart   = "round_start"
	ServerTurnPrompt   = "turn_prompt"
	ServerClaimPrompt  = "claim_prompt"
	ServerClaimResult  = "claim_result"
	ServerRoundEnd     = "round_end"
	ServerMatchEnd     = "match_end"
	ServerRematchState = "rematch_state"
	ServerChat         = "chat"
	ServerAnnounce     = "announce"
	ServerPong         = "pong"
)

// ServerEnvelope wraps every server→client frame. ServerSeq 单房间内
// 严格递增，客户端据此丢弃乱序重放。
type ServerEnvelope struct {
	Type       string     `json:"type"`
	RoomID     string     `json:"roomId,omitempty"`
	ServerSeq  uint64     `json:"serverSeq"`
	ServerTsMs int64      `json:"serverTsMs"`
	Payload    any        `json:"payload,omitempty"`
	Error      *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEnvelope stamps the frame with the wall clock.
func NewEnvelope(typ, roomID string, seq uint64, payload any) *ServerEnvelope {
	return &ServerEnvelope{
		Type:       typ,
		RoomID:     roomID,
		ServerSeq:  seq,
		ServerTsMs: time.Now().UnixMilli(),
		Payload:    payload,
	}
}

// NewErrorEnvelope builds an error frame.
func NewErrorEnvelope(roomID string, seq uint64, code, message string) *ServerEnvelope {
	return &ServerEnvelope{
		Type:       ServerError,
		RoomID:     roomID,
		ServerSeq:  seq,
		ServerTsMs: time.Now().UnixMilli(),
		Error:      &ErrorBody{Code: code, Message: message},
	}
}

// Tile 牌的下行形态：id 用于回传操作，label 给客户端直接显示。
type Tile struct {
	ID    int    `json:"id"`
	Kind  byte   `json:"kind"`
	Label string `json:"label"`
}

type Meld struct {
	Type        string `json:"type"`
	Tiles       []Tile `json:"tiles"`
	Open        bool   `json:"open"`
	ClaimedFrom int    `json:"claimedFrom"`
}

// PlayerState 单个座位的可见状态。Hand 在遮蔽后可能只有 HandCount。
type PlayerState struct {
	Seat      int    `json:"seat"`
	Name      string `json:"name"`
	Robot     bool   `json:"robot"`
	Dealer    bool   `json:"dealer"`
	Host      bool   `json:"host"`
	Online    bool   `json:"online"`
	Score     int    `json:"score"`
	HandCount int    `json:"handCount"`
	Hand      []Tile `json:"hand,omitempty"`
	Melds     []Meld `json:"melds"`

	Voice *VoiceState `json:"voice,omitempty"`

	PendingClaims []string `json:"pendingClaims,omitempty"`
	ChiOptions    [][]Tile `json:"chiOptions,omitempty"`
}

type DiscardEntry struct {
	Tile Tile `json:"tile"`
	Seat int  `json:"seat"`
}

// RoomState is the per-viewer projection broadcast after every transition.
type RoomState struct {
	RoomID      string `json:"roomId"`
	Phase       string `json:"phase"`
	RoundIndex  int    `json:"roundIndex"`
	TotalRounds int    `json:"totalRounds"`
	MatchOver   bool   `json:"matchOver"`

	Turn          int            `json:"turn"`
	Current       int            `json:"current"`
	Dealer        int            `json:"dealer"`
	DeckCount     int            `json:"deckCount"`
	Discards      []DiscardEntry `json:"discards"`
	LastDiscard   *Tile          `json:"lastDiscard,omitempty"`
	LastDiscarder int            `json:"lastDiscarder"`
	LastDrawn     *Tile          `json:"lastDrawn,omitempty"`

	ViewerSeat int           `json:"viewerSeat"`
	Players    []PlayerState `json:"players"`

	DeadlineMs int64  `json:"deadlineMs,omitempty"` // 当前活跃倒计时的剩余毫秒
	Timer      string `json:"timer,omitempty"`      // 倒计时名字
}

type ScoreDelta struct {
	Seat  int `json:"seat"`
	Delta int `json:"delta"`
}

// RoundEnd 一局结算推送。
type RoundEnd struct {
	Round    int          `json:"round"`
	WinType  string       `json:"winType"`
	Winners  []int        `json:"winners"`
	Payer    int          `json:"payer"`
	DrawGame bool         `json:"drawGame"`
	Deltas   []ScoreDelta `json:"deltas"`
	Scores   map[int]int  `json:"scores"`
}

// MatchEnd 终局推送，附带最终排名。
type MatchEnd struct {
	Scores  map[int]int `json:"scores"`
	Ranking []int       `json:"ranking"`
}

// ClaimResultBody 仲裁结果：荣胡报赢家，鸣牌报拿到的面子，
// 全过 outcome 为 pass。
type ClaimResultBody struct {
	Outcome string `json:"outcome"` // hu / meld / pass
	Seats   []int  `json:"seats,omitempty"`
	Meld    string `json:"meld,omitempty"`
}

// ClaimPromptBody 发给有鸣牌资格的座位。
type ClaimPromptBody struct {
	Claims     []string `json:"claims"`
	Discard    Tile     `json:"discard"`
	Discarder  int      `json:"discarder"`
	ChiOptions [][]Tile `json:"chiOptions,omitempty"`
	DeadlineMs int64    `json:"deadlineMs"`
}

// TurnPromptBody 轮到某座位行动时的提示。
type TurnPromptBody struct {
	Seat       int    `json:"seat"`
	Phase      string `json:"phase"`
	DeadlineMs int64  `json:"deadlineMs"`
}

// RematchStateBody 再战投票进度。
type RematchStateBody struct {
	Votes      map[int]bool `json:"votes"`
	DeadlineMs int64        `json:"deadlineMs"`
}

// RoomSummary 大厅列表里的一行。
type RoomSummary struct {
	RoomID     string `json:"roomId"`
	Name       string `json:"name,omitempty"`
	Phase      string `json:"phase"`
	Players    int    `json:"players"`
	Humans     int    `json:"humans"`
	MaxPlayers int    `json:"maxPlayers"`
	RoundIndex int    `json:"roundIndex"`
	Private    bool   `json:"private"`
	Joinable   bool   `json:"joinable"`
}

type ChatBody struct {
	Seat int    `json:"seat"`
	Name string `json:"name"`
	Text string `json:"text"`
	TsMs int64  `json:"tsMs"`
}

type AnnounceBody struct {
	Seat int    `json:"seat,omitempty"`
	Text string `json:"text"`
}

// HelloBody 握手成功后的回执。
type HelloBody struct {
	ConnID   string `json:"connId"`
	Username string `json:"username"`
}
