package room

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"mahjong-lite/apps/server/internal/config"
	"mahjong-lite/apps/server/internal/wire"
	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong"
	"mahjong-lite/mahjong/npc"
	"mahjong-lite/tile"
)

// Room 单个牌桌：actor 模型。所有外部动作（玩家操作、定时器触发、
// AI 决策、断线通知）都排进 events 队列，由 run 协程串行处理，
// 处理完一个动作立刻广播投影状态。
type Room struct {
	ID     string
	Config Config

	mu       sync.RWMutex
	game     *mahjong.Game
	players  map[uint64]*PlayerConn // userID -> connection
	seats    map[int]uint64         // seat -> userID
	closed   bool
	stopOnce sync.Once

	events chan Event
	done   chan struct{}

	serverSeq uint64

	// 互斥计时器族：turn/claim/next-round/rematch 同一时刻至多一个。
	activeTimer    TimerKind
	activeDeadline time.Time
	activeSeat     int

	// 独立计时器。
	roundCapDeadline time.Time
	emptySince       time.Time

	// AI 调度代号：人类抢先行动或阶段变化都会换代，
	// 旧代的 think 延迟醒来后发现代号不符就作废。
	aiGeneration uint64

	host  uint64       // userID of the host seat
	votes map[int]bool // rematch votes by seat

	chatLog []wire.ChatBody
	// 语音在场标记，纯投影状态，引擎不感知。
	voice map[int]wire.VoiceState
	// 本局广播过的公共帧，结算时交给钩子落档。
	roundLog []wire.ServerEnvelope

	send       func(userID uint64, env *wire.ServerEnvelope)
	npcManager *npc.Manager

	roundEndHooks []RoundEndHook
}

// Config 房间参数，来自服务配置。
type Config struct {
	Players       int
	CopiesPerKind int
	TotalRounds   int
	Seed          int64 // 0 => time-based; tests pin it
	DeckOverride  []tile.Tile

	Timers config.TimerConf
	AI     config.AIConf

	MaxMessageLog int
	NameMaxLen    int
	// 展示用房名，空则用房间号。
	Name string
	// 非空则为私房，入座前由网关校验口令。
	Password string
}

// PlayerConn represents a connected player in the room.
type PlayerConn struct {
	UserID   uint64
	Name     string
	Seat     int
	Online   bool
	LastSeen time.Time
	LastSeq  uint64 // 去重窗口：客户端帧序号
}

// TimerKind 互斥计时器族的成员。
type TimerKind int

const (
	TimerNone TimerKind = iota
	TimerTurn
	TimerClaim
	TimerNextRound
	TimerRematch
)

var timerNames = map[TimerKind]string{
	TimerNone:      "",
	TimerTurn:      "turn",
	TimerClaim:     "claim",
	TimerNextRound: "next_round",
	TimerRematch:   "rematch",
}

// Event types for the actor message queue.
type EventType int

const (
	EventJoin EventType = iota
	EventLeave
	EventReady
	EventDiscard
	EventSelfHu
	EventAnGang
	EventAddGang
	EventClaim
	EventRematchVote
	EventChat
	EventVoice
	EventConnLost
	EventConnResume
	EventAITurn
	EventClose
)

// Event represents a message to the room actor.
type Event struct {
	Type   EventType
	UserID uint64
	Name   string
	Seq    uint64

	TileID   int
	Kind     byte
	Claim    mahjong.ClaimType
	ChiTiles [2]int
	Accept   bool
	Text     string
	Voice    *wire.VoiceState

	AIGeneration uint64
	Timestamp    time.Time
	Response     chan error
}

// RoundEndInfo is emitted after every settlement. Events 是本局
// 广播过的公共帧（round_start、announce、chat、round_end……），
// 按 serverSeq 有序。
type RoundEndInfo struct {
	RoomID   string
	Snapshot mahjong.Snapshot
	Result   mahjong.RoundResult
	Events   []wire.ServerEnvelope
}

// RoundEndHook is a post-settlement callback (history, stats).
type RoundEndHook func(info RoundEndInfo)

var (
	ErrRoomClosed = errors.New("room closed")
	ErrRoomFull   = errors.New("room full")
	ErrNotSeated  = errors.New("not seated in this room")
	ErrDuplicate  = errors.New("duplicate message")
)

// New creates a room and starts its actor goroutine.
func New(
	id string,
	cfg Config,
	sendFn func(userID uint64, env *wire.ServerEnvelope),
	npcMgr *npc.Manager,
) (*Room, error) {
	r := &Room{
		ID:         id,
		Config:     cfg,
		players:    make(map[uint64]*PlayerConn),
		seats:      make(map[int]uint64),
		events:     make(chan Event, 256),
		done:       make(chan struct{}),
		send:       sendFn,
		npcManager: npcMgr,
		votes:      make(map[int]bool),
		voice:      make(map[int]wire.VoiceState),
		activeSeat: mahjong.InvalidSeat,
		emptySince: time.Now(),
	}

	game, err := mahjong.NewGame(mahjong.Config{
		Players:          cfg.Players,
		CopiesPerKind:    cfg.CopiesPerKind,
		TotalRounds:      cfg.TotalRounds,
		Seed:             cfg.Seed,
		DeckOverride:     cfg.DeckOverride,
		ForcedDealerSeat: mahjong.InvalidSeat,
	})
	if err != nil {
		return nil, fmt.Errorf("create game for room %s: %w", id, err)
	}
	r.game = game

	go r.run()

	logx.Info("[Room %s] created (players=%d rounds=%d)", id, cfg.Players, cfg.TotalRounds)
	return r, nil
}

// run is the main actor loop. 次秒级心跳驱动所有截止时间。
func (r *Room) run() {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case event := <-r.events:
			err := r.handleEvent(event)
			if event.Response != nil {
				event.Response <- err
			}
		case <-ticker.C:
			r.tick()
		case <-r.done:
			logx.Info("[Room %s] actor stopped", r.ID)
			return
		}
	}
}

func (r *Room) handleEvent(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed && e.Type != EventClose {
		return ErrRoomClosed
	}

	// 帧去重：同一连接重复的 seq 直接拒绝（超时重发、双击）。
	if e.Seq != 0 {
		if p := r.players[e.UserID]; p != nil {
			if e.Seq <= p.LastSeq {
				return ErrDuplicate
			}
			p.LastSeq = e.Seq
		}
	}

	switch e.Type {
	case EventJoin:
		return r.handleJoin(e.UserID, e.Name)
	case EventLeave:
		return r.handleLeave(e.UserID)
	case EventReady:
		return r.handleReady(e.UserID)
	case EventDiscard:
		return r.handleDiscard(e.UserID, e.TileID)
	case EventSelfHu:
		return r.handleSelfHu(e.UserID)
	case EventAnGang:
		return r.handleAnGang(e.UserID, e.Kind)
	case EventAddGang:
		return r.handleAddGang(e.UserID, e.Kind)
	case EventClaim:
		return r.handleClaim(e.UserID, e.Claim, e.Kind, e.ChiTiles)
	case EventRematchVote:
		return r.handleRematchVote(e.UserID, e.Accept)
	case EventChat:
		return r.handleChat(e.UserID, e.Text)
	case EventVoice:
		return r.handleVoice(e.UserID, e.Voice)
	case EventConnLost:
		return r.handleConnLost(e.UserID, e.Timestamp)
	case EventConnResume:
		return r.handleConnResume(e.UserID, e.Name, e.Timestamp)
	case EventAITurn:
		return r.handleAITurn(e.AIGeneration)
	case EventClose:
		r.stopLocked()
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

// handleJoin 入座或重连。重名的离线人类座位视为断线重连顶回来。
func (r *Room) handleJoin(userID uint64, name string) error {
	name = normalizeName(name, userID, r.Config.NameMaxLen)
	now := time.Now()

	// 已在房里：当重连处理。
	if p := r.players[userID]; p != nil {
		return r.handleConnResume(userID, name, now)
	}

	// 同名离线人类：断线后换了连接回来，顶替原座位。
	for oldID, p := range r.players {
		if p.Online || p.Name != name || r.isNPC(oldID) {
			continue
		}
		seat := p.Seat
		delete(r.players, oldID)
		r.players[userID] = &PlayerConn{
			UserID: userID, Name: name, Seat: seat, Online: true, LastSeen: now,
		}
		r.seats[seat] = userID
		if r.host == oldID {
			r.host = userID
		}
		r.updateEmptySinceLocked(now)
		logx.Info("[Room %s] %s retook seat %d (conn %d -> %d)", r.ID, name, seat, oldID, userID)
		r.sendStateTo(userID)
		r.sendPromptsTo(userID)
		return nil
	}

	// 找空座。
	seat := r.freeSeatLocked()
	if seat == mahjong.InvalidSeat {
		return ErrRoomFull
	}
	if err := r.game.Seat(seat, name, false); err != nil {
		return err
	}
	r.players[userID] = &PlayerConn{
		UserID: userID, Name: name, Seat: seat, Online: true, LastSeen: now,
	}
	r.seats[seat] = userID
	if r.host == 0 {
		r.host = userID
	}
	r.updateEmptySinceLocked(now)

	logx.Info("[Room %s] %s joined at seat %d", r.ID, name, seat)
	r.broadcastState()
	return nil
}

// handleLeave 对局外退出拆座位；对局中退出按断线处理。
func (r *Room) handleLeave(userID uint64) error {
	p := r.players[userID]
	if p == nil {
		return ErrNotSeated
	}

	if r.inActiveRoundLocked() {
		return r.handleConnLost(userID, time.Now())
	}

	if err := r.game.Unseat(p.Seat); err != nil {
		return err
	}
	delete(r.players, userID)
	delete(r.seats, p.Seat)
	delete(r.votes, p.Seat)
	delete(r.voice, p.Seat)
	if r.host == userID {
		r.reassignHostLocked()
	}
	r.updateEmptySinceLocked(time.Now())

	logx.Info("[Room %s] %s left seat %d", r.ID, p.Name, p.Seat)
	r.broadcastState()
	return nil
}

// handleReady 房主发车：补满 AI、开赛、发牌。局间结算页上
// ready 视为提前确认，在线人类全员确认后跳过下一局倒计时。
func (r *Room) handleReady(userID uint64) error {
	snap := r.game.Snapshot()
	if snap.Phase == mahjong.PhaseTypeRoundOver && !snap.MatchOver {
		seat, err := r.seatOf(userID)
		if err != nil {
			return err
		}
		if r.votes[seat] {
			return ErrDuplicate
		}
		r.votes[seat] = true
		if r.onlineHumansLocked() > 0 && r.allHumansVotedYesLocked() {
			r.clearActiveTimerLocked()
			return r.startRoundLocked()
		}
		r.broadcastState()
		return nil
	}

	if userID != r.host {
		return errors.New("only the host can start the match")
	}
	if snap.Phase != mahjong.PhaseTypeWaitingForPlayers {
		return mahjong.ErrInvalidState("match already started")
	}

	if err := r.fillWithNPCsLocked(); err != nil {
		return err
	}
	if err := r.game.StartMatch(nil); err != nil {
		return err
	}
	if err := r.startRoundLocked(); err != nil {
		return err
	}
	return nil
}

func (r *Room) handleConnLost(userID uint64, ts time.Time) error {
	p := r.players[userID]
	if p == nil {
		return nil
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	p.Online = false
	p.LastSeen = ts
	delete(r.voice, p.Seat)
	if r.host == userID {
		r.reassignHostLocked()
	}
	logx.Info("[Room %s] %s (seat %d) connection lost", r.ID, p.Name, p.Seat)

	// 对局中人类全掉线：立即终局，房间走销毁流程。
	if r.inActiveRoundLocked() && r.onlineHumansLocked() == 0 {
		logx.Warn("[Room %s] no online humans left, ending match", r.ID)
		_ = r.game.ForceDrawGame()
		r.game.SetGameOver()
		r.clearActiveTimerLocked()
		r.emptySince = ts
		r.broadcastState()
		return nil
	}

	// 再战投票中掉的是最后一个没表态的人：剩下的在线人类
	// 已全员同意，直接开打。
	if r.game.Snapshot().Phase == mahjong.PhaseTypeAwaitingRematchVote &&
		r.onlineHumansLocked() > 0 && r.allHumansVotedYesLocked() {
		r.finishRematchLocked(true)
		return nil
	}

	r.updateEmptySinceLocked(ts)
	r.broadcastState()
	return nil
}

func (r *Room) handleConnResume(userID uint64, name string, ts time.Time) error {
	p := r.players[userID]
	if p == nil {
		return ErrNotSeated
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	if name != "" {
		p.Name = name
		r.game.Rename(p.Seat, name)
	}
	p.Online = true
	p.LastSeen = ts
	if r.host == 0 {
		r.reassignHostLocked()
	}
	r.updateEmptySinceLocked(ts)
	logx.Info("[Room %s] %s (seat %d) reconnected", r.ID, p.Name, p.Seat)
	r.sendStateTo(userID)
	r.sendPromptsTo(userID)
	r.broadcastState()
	return nil
}

func (r *Room) handleChat(userID uint64, text string) error {
	p := r.players[userID]
	if p == nil {
		return ErrNotSeated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	msg := wire.ChatBody{Seat: p.Seat, Name: p.Name, Text: text, TsMs: time.Now().UnixMilli()}
	r.chatLog = append(r.chatLog, msg)
	if max := r.Config.MaxMessageLog; max > 0 && len(r.chatLog) > max {
		r.chatLog = r.chatLog[len(r.chatLog)-max:]
	}
	r.broadcastEnvelope(wire.ServerChat, msg)
	return nil
}

// handleVoice 语音在场标记。服务端不碰媒体流，只把 joined/muted/
// speaking 挂到座位上随状态投影下发。
func (r *Room) handleVoice(userID uint64, state *wire.VoiceState) error {
	p := r.players[userID]
	if p == nil {
		return ErrNotSeated
	}
	if state == nil || !state.Joined {
		delete(r.voice, p.Seat)
	} else {
		r.voice[p.Seat] = *state
	}
	r.broadcastState()
	return nil
}

// SubmitEvent sends an event to the actor and waits for the result.
func (r *Room) SubmitEvent(e Event) error {
	e.Timestamp = time.Now()
	if e.Response == nil {
		e.Response = make(chan error, 1)
	}

	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return ErrRoomClosed
	}

	select {
	case r.events <- e:
	case <-r.done:
		return ErrRoomClosed
	}

	select {
	case err := <-e.Response:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// Stop shuts down the room actor.
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Room) stopLocked() {
	r.closed = true
	r.clearActiveTimerLocked()
	r.roundCapDeadline = time.Time{}
	if r.npcManager != nil {
		for id := range r.players {
			if r.npcManager.IsNPC(id) {
				r.npcManager.Despawn(id)
			}
		}
	}
	r.stopOnce.Do(func() { close(r.done) })
}

// --- seat / host helpers (caller holds r.mu) ---

func (r *Room) freeSeatLocked() int {
	for seat := 0; seat < r.Config.Players; seat++ {
		if _, taken := r.seats[seat]; !taken {
			return seat
		}
	}
	return mahjong.InvalidSeat
}

// reassignHostLocked 房主让贤：座位号最小的在线人类接任。
func (r *Room) reassignHostLocked() {
	r.host = 0
	bestSeat := int(^uint(0) >> 1)
	for id, p := range r.players {
		if !p.Online || r.isNPC(id) {
			continue
		}
		if p.Seat < bestSeat {
			bestSeat = p.Seat
			r.host = id
		}
	}
}

func (r *Room) onlineHumansLocked() int {
	n := 0
	for id, p := range r.players {
		if p.Online && !r.isNPC(id) {
			n++
		}
	}
	return n
}

func (r *Room) inActiveRoundLocked() bool {
	switch r.game.Snapshot().Phase {
	case mahjong.PhaseTypeWaitingForPlayers, mahjong.PhaseTypeRoundOver,
		mahjong.PhaseTypeAwaitingRematchVote, mahjong.PhaseTypeGameOver:
		return false
	}
	return true
}

func (r *Room) updateEmptySinceLocked(now time.Time) {
	if r.onlineHumansLocked() == 0 {
		if r.emptySince.IsZero() {
			r.emptySince = now
		}
		return
	}
	r.emptySince = time.Time{}
}

func (r *Room) isNPC(userID uint64) bool {
	return r.npcManager != nil && r.npcManager.IsNPC(userID)
}

// fillWithNPCsLocked 用不重样的角色补满空座。
func (r *Room) fillWithNPCsLocked() error {
	if r.npcManager == nil {
		if r.freeSeatLocked() != mahjong.InvalidSeat {
			return errors.New("room not full and no NPC roster available")
		}
		return nil
	}
	taken := make(map[string]bool, len(r.players))
	for _, p := range r.players {
		taken[p.Name] = true
	}
	for seat := r.freeSeatLocked(); seat != mahjong.InvalidSeat; seat = r.freeSeatLocked() {
		persona := r.npcManager.PickPersona(taken)
		taken[persona.Name] = true
		inst, err := r.npcManager.Spawn(r.game, seat, persona)
		if err != nil {
			return err
		}
		r.players[inst.PlayerID] = &PlayerConn{
			UserID: inst.PlayerID, Name: persona.Name, Seat: seat,
			Online: true, LastSeen: time.Now(),
		}
		r.seats[seat] = inst.PlayerID
	}
	return nil
}

// IsIdleFor 大厅清扫用：无在线人类持续超过 ttl。
func (r *Room) IsIdleFor(ttl time.Duration) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return true
	}
	if r.emptySince.IsZero() {
		return false
	}
	return time.Since(r.emptySince) >= ttl
}

// EmptyRoomTTL 对局中和终局后的空房超时不同。
func (r *Room) EmptyRoomTTL() time.Duration {
	if r.game.Snapshot().Phase == mahjong.PhaseTypeGameOver {
		return r.Config.Timers.EmptyRoomEnded()
	}
	return r.Config.Timers.EmptyRoomActive()
}

func (r *Room) IsClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}

// Snapshot returns the current engine state (thread-safe).
func (r *Room) Snapshot() mahjong.Snapshot {
	return r.game.Snapshot()
}

// Summary 大厅列表用的一行。
func (r *Room) Summary() wire.RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := r.game.Snapshot()
	humans := 0
	for id := range r.players {
		if !r.isNPC(id) {
			humans++
		}
	}
	return wire.RoomSummary{
		RoomID:     r.ID,
		Name:       r.Config.Name,
		Phase:      snap.Phase.String(),
		Players:    len(r.players),
		Humans:     humans,
		MaxPlayers: r.Config.Players,
		RoundIndex: snap.RoundIndex,
		Private:    r.Config.Password != "",
		Joinable:   snap.Phase == mahjong.PhaseTypeWaitingForPlayers && len(r.seats) < r.Config.Players,
	}
}

// CheckPassword 私房口令校验，公房恒真。
func (r *Room) CheckPassword(password string) bool {
	return r.Config.Password == "" || r.Config.Password == password
}

// AddRoundEndHook registers a post-settlement callback.
func (r *Room) AddRoundEndHook(hook RoundEndHook) {
	if hook == nil {
		return
	}
	r.mu.Lock()
	r.roundEndHooks = append(r.roundEndHooks, hook)
	r.mu.Unlock()
}

func (r *Room) dispatchRoundEndHooks(snap mahjong.Snapshot) {
	if snap.LastResult == nil {
		return
	}
	events := make([]wire.ServerEnvelope, len(r.roundLog))
	copy(events, r.roundLog)
	info := RoundEndInfo{RoomID: r.ID, Snapshot: snap, Result: *snap.LastResult, Events: events}
	for _, hook := range r.roundEndHooks {
		// 钩子不占房间事件循环，失败也不影响牌局。
		go func(h RoundEndHook) {
			defer func() {
				if rec := recover(); rec != nil {
					logx.Error("[Room %s] round end hook panicked: %v", r.ID, rec)
				}
			}()
			h(info)
		}(hook)
	}
}

func normalizeName(raw string, userID uint64, maxLen int) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return fmt.Sprintf("user_%d", userID)
	}
	if maxLen > 0 {
		if runes := []rune(name); len(runes) > maxLen {
			name = string(runes[:maxLen])
		}
	}
	return name
}
