package room

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"mahjong-lite/apps/server/internal/config"
	"mahjong-lite/apps/server/internal/wire"
	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong"
	"mahjong-lite/mahjong/npc"
	"mahjong-lite/tile"
)

func init() {
	logx.SetLevel("error")
}

// sendLog 捕获下行帧，按收件人分桶。
type sendLog struct {
	byUser map[uint64][]*wire.ServerEnvelope
}

func newSendLog() *sendLog {
	return &sendLog{byUser: make(map[uint64][]*wire.ServerEnvelope)}
}

func (l *sendLog) capture(userID uint64, env *wire.ServerEnvelope) {
	l.byUser[userID] = append(l.byUser[userID], env)
}

func (l *sendLog) lastOfType(userID uint64, typ string) *wire.ServerEnvelope {
	frames := l.byUser[userID]
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Type == typ {
			return frames[i]
		}
	}
	return nil
}

// roomDeck 定序牌墙：各家起手、庄家第 8 张、剩余按牌种垫后。
func roomDeck(t *testing.T, hands [][]tile.Kind, extra tile.Kind) []tile.Tile {
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
		for _, k := range hand {
			take(k)
		}
	}
	take(extra)
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

// quietRoomDeck 庄家的第 8 张（红卒）打出去没人能鸣。
func quietRoomDeck(t *testing.T) []tile.Tile {
	t.Helper()
	return roomDeck(t, [][]tile.Kind{
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackPao},
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackPao},
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackPao},
		{tile.KindRedJu, tile.KindRedMa, tile.KindRedPao, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao, tile.KindBlackZu},
	}, tile.KindRedZu)
}

// dealerWinDeck 庄家开局即听，第 8 张自摸。
func dealerWinDeck(t *testing.T) []tile.Tile {
	t.Helper()
	return roomDeck(t, [][]tile.Kind{
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao, tile.KindRedZu},
		{tile.KindBlackJiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackXiang, tile.KindBlackZu},
		{tile.KindRedJu, tile.KindRedJu, tile.KindRedMa, tile.KindRedMa, tile.KindRedPao, tile.KindRedPao, tile.KindBlackZu},
		{tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang, tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao, tile.KindRedZu},
	}, tile.KindRedZu)
}

// pengRoomDeck 庄家打出红士：座位 1 能吃，座位 2 能碰。
func pengRoomDeck(t *testing.T) []tile.Tile {
	t.Helper()
	return roomDeck(t, [][]tile.Kind{
		{tile.KindBlackJiang, tile.KindBlackJiang, tile.KindBlackShi, tile.KindBlackShi, tile.KindBlackXiang, tile.KindBlackXiang, tile.KindRedZu},
		{tile.KindRedJiang, tile.KindRedXiang, tile.KindBlackZu, tile.KindBlackZu, tile.KindRedPao, tile.KindRedMa, tile.KindBlackJu},
		{tile.KindRedShi, tile.KindRedShi, tile.KindBlackMa, tile.KindBlackMa, tile.KindBlackPao, tile.KindRedJu, tile.KindBlackJu},
		{tile.KindRedJiang, tile.KindRedJu, tile.KindBlackZu, tile.KindRedZu, tile.KindRedZu, tile.KindBlackShi, tile.KindBlackPao},
	}, tile.KindRedShi)
}

// newTestRoom 不跑 actor 协程，测试里直接同步调 handleEvent / tick。
func newTestRoom(t *testing.T, deck []tile.Tile, totalRounds int) (*Room, *sendLog) {
	t.Helper()

	log := newSendLog()
	cfg := Config{
		Players:       4,
		CopiesPerKind: 4,
		TotalRounds:   totalRounds,
		Seed:          1,
		DeckOverride:  deck,
		Timers: config.TimerConf{
			TurnSeconds:            20,
			ClaimSeconds:           10,
			NextRoundSeconds:       8,
			RematchSeconds:         30,
			RoundCapSeconds:        600,
			EmptyRoomActiveSeconds: 60,
			EmptyRoomEndedSeconds:  15,
		},
		MaxMessageLog: 10,
	}

	r := &Room{
		ID:         "room_test",
		Config:     cfg,
		players:    make(map[uint64]*PlayerConn),
		seats:      make(map[int]uint64),
		events:     make(chan Event, 16),
		done:       make(chan struct{}),
		votes:      make(map[int]bool),
		voice:      make(map[int]wire.VoiceState),
		activeSeat: mahjong.InvalidSeat,
		send:       log.capture,
		npcManager: npc.NewManager(npc.NewRegistry(), time.Millisecond, 2*time.Millisecond),
	}

	game, err := mahjong.NewGame(mahjong.Config{
		Players:          cfg.Players,
		CopiesPerKind:    cfg.CopiesPerKind,
		TotalRounds:      cfg.TotalRounds,
		Seed:             cfg.Seed,
		DeckOverride:     cfg.DeckOverride,
		ForcedDealerSeat: 0,
	})
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	r.game = game
	return r, log
}

func join(t *testing.T, r *Room, userID uint64, name string) {
	t.Helper()
	if err := r.handleEvent(Event{Type: EventJoin, UserID: userID, Name: name}); err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
}

// seatFourHumans 四个真人入座并由房主发车。
func seatFourHumans(t *testing.T, r *Room) {
	t.Helper()
	for i := uint64(1); i <= 4; i++ {
		join(t, r, i, fmt.Sprintf("player%d", i))
	}
	if err := r.handleEvent(Event{Type: EventReady, UserID: 1}); err != nil {
		t.Fatalf("ready: %v", err)
	}
}

// expireActiveTimer 把互斥计时器拨到过期再手动打一次心跳。
func expireActiveTimer(t *testing.T, r *Room, want TimerKind) {
	t.Helper()
	r.mu.Lock()
	if r.activeTimer != want {
		r.mu.Unlock()
		t.Fatalf("active timer = %v, want %v", r.activeTimer, want)
	}
	r.activeDeadline = time.Now().Add(-time.Second)
	r.mu.Unlock()
	r.tick()
}

func TestReadyFillsEmptySeatsWithNPCs(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")

	if err := r.handleEvent(Event{Type: EventReady, UserID: 1}); err != nil {
		t.Fatalf("ready: %v", err)
	}

	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingDiscard {
		t.Fatalf("phase = %s, want AWAITING_DISCARD", s.Phase)
	}
	robots := 0
	for _, p := range s.Players {
		if p.Robot {
			robots++
		}
	}
	if robots != 3 {
		t.Fatalf("robots = %d, want 3", robots)
	}
	names := make(map[string]bool)
	for _, p := range s.Players {
		if names[p.Name] {
			t.Fatalf("duplicate seat name %q", p.Name)
		}
		names[p.Name] = true
	}
	if r.activeTimer != TimerTurn || r.activeSeat != 0 {
		t.Fatalf("turn timer not armed for dealer: %v seat=%d", r.activeTimer, r.activeSeat)
	}
}

func TestOnlyHostCanStart(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")
	join(t, r, 2, "bob")

	if err := r.handleEvent(Event{Type: EventReady, UserID: 2}); err == nil {
		t.Fatalf("non-host ready must fail")
	}
	if err := r.handleEvent(Event{Type: EventReady, UserID: 1}); err != nil {
		t.Fatalf("host ready: %v", err)
	}
}

func TestDuplicateSeqRejected(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")

	if err := r.handleEvent(Event{Type: EventChat, UserID: 1, Seq: 5, Text: "hi"}); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	if err := r.handleEvent(Event{Type: EventChat, UserID: 1, Seq: 5, Text: "hi"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("replayed frame: %v, want ErrDuplicate", err)
	}
	if err := r.handleEvent(Event{Type: EventChat, UserID: 1, Seq: 6, Text: "again"}); err != nil {
		t.Fatalf("next frame: %v", err)
	}
}

func TestTurnPromptCarriesDeadline(t *testing.T) {
	r, log := newTestRoom(t, quietRoomDeck(t), 4)
	seatFourHumans(t, r)

	env := log.lastOfType(1, wire.ServerTurnPrompt)
	if env == nil {
		t.Fatalf("dealer got no turn prompt")
	}
	body, ok := env.Payload.(wire.TurnPromptBody)
	if !ok {
		t.Fatalf("turn prompt payload type %T", env.Payload)
	}
	if body.Seat != 0 || body.DeadlineMs <= 0 {
		t.Fatalf("turn prompt = %+v", body)
	}
	if log.lastOfType(2, wire.ServerTurnPrompt) != nil {
		t.Fatalf("non-actor must not receive a turn prompt")
	}
}

func TestTurnTimeoutAutoDiscards(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	seatFourHumans(t, r)

	expireActiveTimer(t, r, TimerTurn)

	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypePlayerTurnStart || s.Current != 1 {
		t.Fatalf("phase/current = %s/%d, want PLAYER_TURN_START/1", s.Phase, s.Current)
	}
	if len(s.Discards) != 1 || s.Discards[0].Seat != 0 {
		t.Fatalf("discards = %+v", s.Discards)
	}
	if r.activeTimer != TimerTurn || r.activeSeat != 1 {
		t.Fatalf("timer must rearm for the next actor, got %v seat=%d", r.activeTimer, r.activeSeat)
	}
}

func TestClaimTimeoutResolvesToHighestSubmitted(t *testing.T) {
	r, log := newTestRoom(t, pengRoomDeck(t), 4)
	seatFourHumans(t, r)

	s := r.Snapshot()
	if err := r.handleEvent(Event{Type: EventDiscard, UserID: 1, TileID: s.LastDrawn.ID}); err != nil {
		t.Fatalf("dealer discard: %v", err)
	}
	s = r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingClaims {
		t.Fatalf("phase = %s, want AWAITING_CLAIMS", s.Phase)
	}
	if env := log.lastOfType(3, wire.ServerClaimPrompt); env == nil {
		t.Fatalf("peng-eligible seat got no claim prompt")
	}

	// 只有碰家表态，吃家拖着不回；超时把未表态的按过处理。
	if err := r.handleEvent(Event{
		Type: EventClaim, UserID: 3,
		Claim: mahjong.ClaimTypePeng, Kind: byte(tile.KindRedShi),
	}); err != nil {
		t.Fatalf("peng claim: %v", err)
	}
	expireActiveTimer(t, r, TimerClaim)

	s = r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingDiscard || s.Current != 2 {
		t.Fatalf("phase/current = %s/%d, want AWAITING_DISCARD/2", s.Phase, s.Current)
	}
	if len(s.Players[2].Melds) != 1 || s.Players[2].Melds[0].Type != mahjong.MeldTypeKezi {
		t.Fatalf("melds = %+v", s.Players[2].Melds)
	}
}

func TestStateMaskingPerViewer(t *testing.T) {
	r, log := newTestRoom(t, quietRoomDeck(t), 4)
	seatFourHumans(t, r)

	own := log.lastOfType(1, wire.ServerRoomState)
	other := log.lastOfType(2, wire.ServerRoomState)
	if own == nil || other == nil {
		t.Fatalf("missing room_state frames")
	}
	ownState := own.Payload.(wire.RoomState)
	otherState := other.Payload.(wire.RoomState)

	if len(ownState.Players[0].Hand) == 0 {
		t.Fatalf("viewer must see own hand")
	}
	if len(otherState.Players[0].Hand) != 0 {
		t.Fatalf("opponent hand must be masked")
	}
	if otherState.Players[0].HandCount == 0 {
		t.Fatalf("masked hand still reports its count")
	}
	if ownState.LastDrawn == nil {
		t.Fatalf("dealer must see the hanging tile")
	}
	if otherState.LastDrawn != nil {
		t.Fatalf("hanging tile must be hidden from others")
	}
}

func TestReconnectRetakesSeatByName(t *testing.T) {
	r, log := newTestRoom(t, quietRoomDeck(t), 4)
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventConnLost, UserID: 2}); err != nil {
		t.Fatalf("conn lost: %v", err)
	}
	if r.players[2].Online {
		t.Fatalf("seat must be marked offline")
	}

	// 新连接、同名字：顶回原座位。
	join(t, r, 99, "player2")
	p := r.players[99]
	if p == nil || p.Seat != 1 || !p.Online {
		t.Fatalf("retake failed: %+v", p)
	}
	if _, stale := r.players[2]; stale {
		t.Fatalf("old connection entry must be dropped")
	}
	if env := log.lastOfType(99, wire.ServerRoomState); env == nil {
		t.Fatalf("reconnect must get a state replay")
	}
}

func TestAllHumansOfflineEndsRound(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")
	if err := r.handleEvent(Event{Type: EventReady, UserID: 1}); err != nil {
		t.Fatalf("ready: %v", err)
	}

	if err := r.handleEvent(Event{Type: EventConnLost, UserID: 1}); err != nil {
		t.Fatalf("conn lost: %v", err)
	}

	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeGameOver {
		t.Fatalf("phase = %s, want GAME_OVER", s.Phase)
	}
	if r.activeTimer != TimerNone {
		t.Fatalf("timers must be cleared, got %v", r.activeTimer)
	}
	if r.emptySince.IsZero() {
		t.Fatalf("empty-room clock must be running")
	}
}

func TestRematchVoteUnanimousRestartsMatch(t *testing.T) {
	r, _ := newTestRoom(t, dealerWinDeck(t), 1)
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventSelfHu, UserID: 1}); err != nil {
		t.Fatalf("self hu: %v", err)
	}
	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingRematchVote {
		t.Fatalf("phase = %s, want AWAITING_REMATCH_VOTE", s.Phase)
	}
	if r.activeTimer != TimerRematch {
		t.Fatalf("rematch timer not armed: %v", r.activeTimer)
	}

	for i := uint64(1); i <= 4; i++ {
		if err := r.handleEvent(Event{Type: EventRematchVote, UserID: i, Accept: true}); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
	}

	s = r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingDiscard {
		t.Fatalf("phase = %s, want new round AWAITING_DISCARD", s.Phase)
	}
	// 再战续分。
	if s.Players[0].Score != 600 || s.Players[1].Score != -200 {
		t.Fatalf("scores not preserved: %d/%d", s.Players[0].Score, s.Players[1].Score)
	}
}

func TestRematchDeclineClosesRoom(t *testing.T) {
	r, _ := newTestRoom(t, dealerWinDeck(t), 1)
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventSelfHu, UserID: 1}); err != nil {
		t.Fatalf("self hu: %v", err)
	}
	if err := r.handleEvent(Event{Type: EventRematchVote, UserID: 2, Accept: false}); err != nil {
		t.Fatalf("decline vote: %v", err)
	}

	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeGameOver {
		t.Fatalf("phase = %s, want GAME_OVER", s.Phase)
	}
	if r.activeTimer != TimerNone {
		t.Fatalf("timers must be cleared, got %v", r.activeTimer)
	}
}

func TestRematchTimeoutCountsAsDecline(t *testing.T) {
	r, _ := newTestRoom(t, dealerWinDeck(t), 1)
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventSelfHu, UserID: 1}); err != nil {
		t.Fatalf("self hu: %v", err)
	}
	if err := r.handleEvent(Event{Type: EventRematchVote, UserID: 1, Accept: true}); err != nil {
		t.Fatalf("yes vote: %v", err)
	}
	expireActiveTimer(t, r, TimerRematch)

	if s := r.Snapshot(); s.Phase != mahjong.PhaseTypeGameOver {
		t.Fatalf("phase = %s, want GAME_OVER", s.Phase)
	}
}

func TestNextRoundTimerDealsAgain(t *testing.T) {
	r, _ := newTestRoom(t, dealerWinDeck(t), 4)
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventSelfHu, UserID: 1}); err != nil {
		t.Fatalf("self hu: %v", err)
	}
	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeRoundOver || s.MatchOver {
		t.Fatalf("phase/matchOver = %s/%v", s.Phase, s.MatchOver)
	}
	expireActiveTimer(t, r, TimerNextRound)

	s = r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingDiscard || s.RoundIndex != 2 {
		t.Fatalf("phase/round = %s/%d, want AWAITING_DISCARD/2", s.Phase, s.RoundIndex)
	}
}

func TestReadyConfirmsNextRoundEarly(t *testing.T) {
	r, _ := newTestRoom(t, dealerWinDeck(t), 4)
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventSelfHu, UserID: 1}); err != nil {
		t.Fatalf("self hu: %v", err)
	}
	if r.activeTimer != TimerNextRound {
		t.Fatalf("active timer = %v, want TimerNextRound", r.activeTimer)
	}

	// 单独一个人的确认不够，倒计时继续走。
	if err := r.handleEvent(Event{Type: EventReady, UserID: 3}); err != nil {
		t.Fatalf("confirm next round: %v", err)
	}
	if s := r.Snapshot(); s.Phase != mahjong.PhaseTypeRoundOver {
		t.Fatalf("phase = %s, one confirmation must not start the round", s.Phase)
	}
	if err := r.handleEvent(Event{Type: EventReady, UserID: 3}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("repeat confirm: %v, want ErrDuplicate", err)
	}

	// 在线人类全员确认才跳过倒计时。
	for _, id := range []uint64{1, 2, 4} {
		if err := r.handleEvent(Event{Type: EventReady, UserID: id}); err != nil {
			t.Fatalf("confirm %d: %v", id, err)
		}
	}
	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingDiscard || s.RoundIndex != 2 {
		t.Fatalf("phase/round = %s/%d, want AWAITING_DISCARD/2", s.Phase, s.RoundIndex)
	}
}

func TestRematchStartsWhenLastUnvotedHumanDrops(t *testing.T) {
	r, _ := newTestRoom(t, dealerWinDeck(t), 1)
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventSelfHu, UserID: 1}); err != nil {
		t.Fatalf("self hu: %v", err)
	}
	for _, id := range []uint64{1, 2} {
		if err := r.handleEvent(Event{Type: EventRematchVote, UserID: id, Accept: true}); err != nil {
			t.Fatalf("vote %d: %v", id, err)
		}
	}

	// 还有个没表态的在线人类掉线：票面未满，继续等。
	if err := r.handleEvent(Event{Type: EventConnLost, UserID: 3}); err != nil {
		t.Fatalf("conn lost 3: %v", err)
	}
	if s := r.Snapshot(); s.Phase != mahjong.PhaseTypeAwaitingRematchVote {
		t.Fatalf("phase = %s, want AWAITING_REMATCH_VOTE", s.Phase)
	}

	// 最后一个没表态的人也掉线：剩下的在线人类已全票同意，直接再战。
	if err := r.handleEvent(Event{Type: EventConnLost, UserID: 4}); err != nil {
		t.Fatalf("conn lost 4: %v", err)
	}
	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeAwaitingDiscard || s.RoundIndex != 1 {
		t.Fatalf("phase/round = %s/%d, want AWAITING_DISCARD/1", s.Phase, s.RoundIndex)
	}
	if s.Players[0].Score != 600 {
		t.Fatalf("score not preserved: %d", s.Players[0].Score)
	}
}

func TestDisconnectBeforeStartMarksRoomIdle(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")

	if err := r.handleEvent(Event{Type: EventConnLost, UserID: 1}); err != nil {
		t.Fatalf("conn lost: %v", err)
	}
	if r.emptySince.IsZero() {
		t.Fatalf("empty-room clock must start when the last human drops")
	}

	// 回来之后回收时钟归零。
	if err := r.handleEvent(Event{Type: EventConnResume, UserID: 1}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !r.emptySince.IsZero() {
		t.Fatalf("empty-room clock must reset on reconnect")
	}
}

func TestRoundCapForcesDraw(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	seatFourHumans(t, r)

	r.mu.Lock()
	r.roundCapDeadline = time.Now().Add(-time.Second)
	r.mu.Unlock()
	r.tick()

	s := r.Snapshot()
	if s.Phase != mahjong.PhaseTypeRoundOver {
		t.Fatalf("phase = %s, want ROUND_OVER", s.Phase)
	}
	if s.LastResult == nil || !s.LastResult.DrawGame {
		t.Fatalf("round cap must settle as a draw: %+v", s.LastResult)
	}
}

func TestLeaveBeforeStartFreesSeat(t *testing.T) {
	r, _ := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")
	join(t, r, 2, "bob")

	if err := r.handleEvent(Event{Type: EventLeave, UserID: 1}); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, ok := r.seats[0]; ok {
		t.Fatalf("seat 0 must be free again")
	}
	// 房主让贤给剩下的人。
	if r.host != 2 {
		t.Fatalf("host = %d, want 2", r.host)
	}
}

func TestChatLogTrimsToLimit(t *testing.T) {
	r, log := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")

	for i := 0; i < 15; i++ {
		if err := r.handleEvent(Event{Type: EventChat, UserID: 1, Text: fmt.Sprintf("msg %d", i)}); err != nil {
			t.Fatalf("chat %d: %v", i, err)
		}
	}
	if len(r.chatLog) != r.Config.MaxMessageLog {
		t.Fatalf("chat log = %d entries, want %d", len(r.chatLog), r.Config.MaxMessageLog)
	}
	if env := log.lastOfType(1, wire.ServerChat); env == nil {
		t.Fatalf("chat frame missing")
	}
}

func TestVoiceFlagsProjectedPerSeat(t *testing.T) {
	r, log := newTestRoom(t, quietRoomDeck(t), 4)
	join(t, r, 1, "ann")
	join(t, r, 2, "bob")

	err := r.handleEvent(Event{
		Type: EventVoice, UserID: 2,
		Voice: &wire.VoiceState{Joined: true, Muted: true},
	})
	if err != nil {
		t.Fatalf("voice join: %v", err)
	}

	env := log.lastOfType(1, wire.ServerRoomState)
	if env == nil {
		t.Fatalf("no room_state after voice update")
	}
	state := env.Payload.(wire.RoomState)
	for _, p := range state.Players {
		switch p.Seat {
		case 0:
			if p.Voice != nil {
				t.Fatalf("seat 0 has voice flags without joining")
			}
		case 1:
			if p.Voice == nil || !p.Voice.Joined || !p.Voice.Muted || p.Voice.Speaking {
				t.Fatalf("seat 1 voice = %+v", p.Voice)
			}
		}
	}

	if err := r.handleEvent(Event{Type: EventVoice, UserID: 2, Voice: &wire.VoiceState{Joined: false}}); err != nil {
		t.Fatalf("voice leave: %v", err)
	}
	state = log.lastOfType(1, wire.ServerRoomState).Payload.(wire.RoomState)
	for _, p := range state.Players {
		if p.Voice != nil {
			t.Fatalf("seat %d kept voice flags after leaving", p.Seat)
		}
	}
}

func TestClaimResolutionAnnouncesPeng(t *testing.T) {
	r, log := newTestRoom(t, pengRoomDeck(t), 4)
	seatFourHumans(t, r)

	s := r.Snapshot()
	if err := r.handleEvent(Event{Type: EventDiscard, UserID: 1, TileID: s.LastDrawn.ID}); err != nil {
		t.Fatalf("dealer discard: %v", err)
	}
	if err := r.handleEvent(Event{
		Type: EventClaim, UserID: 3,
		Claim: mahjong.ClaimTypePeng, Kind: byte(tile.KindRedShi),
	}); err != nil {
		t.Fatalf("peng claim: %v", err)
	}
	expireActiveTimer(t, r, TimerClaim)

	env := log.lastOfType(2, wire.ServerAnnounce)
	if env == nil {
		t.Fatalf("no announce after claim resolution")
	}
	body := env.Payload.(wire.AnnounceBody)
	if body.Seat != 2 || body.Text != "碰" {
		t.Fatalf("announce = %+v, want seat 2 碰", body)
	}
}

func TestRoundEndHookReceivesEventStream(t *testing.T) {
	r, _ := newTestRoom(t, dealerWinDeck(t), 4)
	got := make(chan RoundEndInfo, 1)
	r.AddRoundEndHook(func(info RoundEndInfo) { got <- info })
	seatFourHumans(t, r)

	if err := r.handleEvent(Event{Type: EventSelfHu, UserID: 1}); err != nil {
		t.Fatalf("self hu: %v", err)
	}

	var info RoundEndInfo
	select {
	case info = <-got:
	case <-time.After(time.Second):
		t.Fatalf("round end hook never fired")
	}

	if len(info.Events) == 0 {
		t.Fatalf("event stream empty")
	}
	if info.Events[0].Type != wire.ServerRoundStart {
		t.Fatalf("first event = %s, want round_start", info.Events[0].Type)
	}
	if last := info.Events[len(info.Events)-1]; last.Type != wire.ServerRoundEnd {
		t.Fatalf("last event = %s, want round_end", last.Type)
	}
	for i := 1; i < len(info.Events); i++ {
		if info.Events[i].ServerSeq <= info.Events[i-1].ServerSeq {
			t.Fatalf("event seqs not increasing at %d", i)
		}
	}
	sawHu := false
	for _, ev := range info.Events {
		if ev.Type == wire.ServerAnnounce {
			if body, ok := ev.Payload.(wire.AnnounceBody); ok && body.Seat == 0 && body.Text == "胡" {
				sawHu = true
			}
		}
	}
	if !sawHu {
		t.Fatalf("winning announce missing from event stream")
	}
}
