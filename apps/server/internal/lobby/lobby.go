package lobby

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mahjong-lite/apps/server/internal/config"
	"mahjong-lite/apps/server/internal/room"
	"mahjong-lite/apps/server/internal/wire"
	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong/npc"
)

var ErrRoomNotFound = errors.New("room not found")

const maxRoundsPerMatch = 16

// Lobby 房间目录：建房、找房、列表、清扫。
type Lobby struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room

	send       func(userID uint64, env *wire.ServerEnvelope)
	npcManager *npc.Manager

	roundEndHooks []room.RoundEndHook
	onChange      func()

	stopOnce sync.Once
	done     chan struct{}
}

// New creates the lobby and starts the idle-room sweeper.
func New(sendFn func(userID uint64, env *wire.ServerEnvelope), npcMgr *npc.Manager) *Lobby {
	l := &Lobby{
		rooms:      make(map[string]*room.Room),
		send:       sendFn,
		npcManager: npcMgr,
		done:       make(chan struct{}),
	}
	go l.sweep()
	return l
}

// SetOnChange 房间集合变化（新建、清扫）时的回调，网关用它
// 给大厅里的连接推最新列表。
func (l *Lobby) SetOnChange(fn func()) {
	l.mu.Lock()
	l.onChange = fn
	l.mu.Unlock()
}

func (l *Lobby) notifyChange() {
	l.mu.RLock()
	fn := l.onChange
	l.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// AddRoundEndHook 之后新建的房间都会挂上这个结算回调。
func (l *Lobby) AddRoundEndHook(hook room.RoundEndHook) {
	if hook == nil {
		return
	}
	l.mu.Lock()
	l.roundEndHooks = append(l.roundEndHooks, hook)
	l.mu.Unlock()
}

// CreateOptions 建房时的可选项，零值全走服务配置。
type CreateOptions struct {
	Name     string
	Password string
	Rounds   int
}

// CreateRoom 新开一桌，房间号用短 uuid。Password 非空开私房。
func (l *Lobby) CreateRoom(opts CreateOptions) (*room.Room, error) {
	cfg := config.Get()
	if max := cfg.RoomConf.PasswordMaxLen; max > 0 && len(opts.Password) > max {
		opts.Password = opts.Password[:max]
	}
	if max := cfg.RoomConf.NameMaxLen; max > 0 {
		if runes := []rune(opts.Name); len(runes) > max {
			opts.Name = string(runes[:max])
		}
	}
	roomCfg := room.Config{
		Players:       cfg.GameConf.Players,
		CopiesPerKind: cfg.GameConf.CopiesPerKind,
		TotalRounds:   cfg.GameConf.TotalRounds,
		Timers:        cfg.TimerConf,
		AI:            cfg.AIConf,
		MaxMessageLog: cfg.RoomConf.MaxMessageLog,
		NameMaxLen:    cfg.RoomConf.NameMaxLen,
		Name:          opts.Name,
		Password:      opts.Password,
	}
	if opts.Rounds > 0 {
		if opts.Rounds > maxRoundsPerMatch {
			opts.Rounds = maxRoundsPerMatch
		}
		roomCfg.TotalRounds = opts.Rounds
	}
	if roomCfg.TotalRounds <= 0 {
		roomCfg.TotalRounds = roomCfg.Players
	}

	id := uuid.NewString()[:8]
	r, err := room.New(id, roomCfg, l.send, l.npcManager)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	for _, hook := range l.roundEndHooks {
		r.AddRoundEndHook(hook)
	}
	l.rooms[id] = r
	l.mu.Unlock()

	logx.Info("[Lobby] room %s created", id)
	l.notifyChange()
	return r, nil
}

// Room returns a room by ID.
func (l *Lobby) Room(id string) (*room.Room, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.rooms[id]
	if !ok || r.IsClosed() {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// List 大厅列表，按房间号稳定排序。
func (l *Lobby) List() []wire.RoomSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]wire.RoomSummary, 0, len(l.rooms))
	for _, r := range l.rooms {
		if r.IsClosed() {
			continue
		}
		out = append(out, r.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

// RoomCount 监控用。
func (l *Lobby) RoomCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, r := range l.rooms {
		if !r.IsClosed() {
			n++
		}
	}
	return n
}

// sweep 周期清扫：没有在线人类、超过各自 TTL 的房间直接销毁。
func (l *Lobby) sweep() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.reapIdleRooms()
		case <-l.done:
			return
		}
	}
}

func (l *Lobby) reapIdleRooms() {
	l.mu.Lock()
	reaped := 0
	for id, r := range l.rooms {
		if r.IsClosed() || r.IsIdleFor(r.EmptyRoomTTL()) {
			r.Stop()
			delete(l.rooms, id)
			reaped++
			logx.Info("[Lobby] room %s reaped", id)
		}
	}
	l.mu.Unlock()

	if reaped > 0 {
		l.notifyChange()
	}
}

// Stop shuts down the sweeper and every room.
func (l *Lobby) Stop() {
	l.stopOnce.Do(func() { close(l.done) })

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, r := range l.rooms {
		r.Stop()
		delete(l.rooms, id)
	}
}
