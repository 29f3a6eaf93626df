package npc

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong"
)

// Instance represents an active NPC seated in a room.
type Instance struct {
	PlayerID   uint64
	Seat       int
	Persona    *Persona
	Brain      BrainDecider
	ThinkDelay time.Duration
}

// Manager manages NPC lifecycle and decision-making across rooms.
type Manager struct {
	registry *PersonaRegistry

	mu        sync.RWMutex
	instances map[uint64]*Instance // keyed by PlayerID
	rng       *rand.Rand
	nextID    uint64

	thinkMin time.Duration
	thinkMax time.Duration

	// 掉线人类托管用的公共大脑，不占角色名额。
	fallback BrainDecider
}

// NewManager creates an NPC manager. Think delays land in [min,max],
// shifted by each persona's bias.
func NewManager(registry *PersonaRegistry, thinkMin, thinkMax time.Duration) *Manager {
	if thinkMax < thinkMin {
		thinkMax = thinkMin
	}
	return &Manager{
		registry:  registry,
		instances: make(map[uint64]*Instance),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		nextID:    9_000_000, // NPC IDs start from 9M to avoid collision with real users
		thinkMin:  thinkMin,
		thinkMax:  thinkMax,
		fallback:  NewRuleBrain(&Persona{Name: "托管"}),
	}
}

// Registry returns the underlying PersonaRegistry.
func (m *Manager) Registry() *PersonaRegistry {
	return m.registry
}

// PickPersona 选一个没在给定名单里用过的角色，全用过了就随机取。
func (m *Manager) PickPersona(taken map[string]bool) *Persona {
	all := m.registry.All()
	for _, p := range all {
		if !taken[p.Name] {
			return p
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return all[m.rng.Intn(len(all))]
}

// Spawn seats an NPC in the given game and starts tracking it.
func (m *Manager) Spawn(game *mahjong.Game, seat int, persona *Persona) (*Instance, error) {
	m.mu.Lock()
	m.nextID++
	playerID := m.nextID
	span := m.thinkMax - m.thinkMin
	delay := m.thinkMin + time.Duration(persona.ThinkBias*float64(span))
	if span > 0 {
		// 加一点抖动免得几个 AI 出手像节拍器。
		jitter := time.Duration(m.rng.Int63n(int64(span / 4)))
		if delay+jitter <= m.thinkMax {
			delay += jitter
		}
	}
	m.mu.Unlock()

	if err := game.Seat(seat, persona.Name, true); err != nil {
		return nil, fmt.Errorf("spawn NPC %s at seat %d: %w", persona.Name, seat, err)
	}

	inst := &Instance{
		PlayerID:   playerID,
		Seat:       seat,
		Persona:    persona,
		Brain:      NewRuleBrain(persona),
		ThinkDelay: delay,
	}

	m.mu.Lock()
	m.instances[playerID] = inst
	m.mu.Unlock()

	logx.Info("[NPC] spawned %s (ID=%d) at seat %d", persona.Name, playerID, seat)
	return inst, nil
}

// Despawn removes an NPC from tracking.
func (m *Manager) Despawn(playerID uint64) {
	m.mu.Lock()
	inst := m.instances[playerID]
	delete(m.instances, playerID)
	m.mu.Unlock()

	if inst != nil {
		logx.Info("[NPC] despawned %s (ID=%d)", inst.Persona.Name, playerID)
	}
}

// Get returns the NPC instance for a playerID, or nil.
func (m *Manager) Get(playerID uint64) *Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[playerID]
}

// IsNPC checks if a playerID belongs to an NPC.
func (m *Manager) IsNPC(playerID uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.instances[playerID] != nil
}

// ThinkDelay returns the simulated thinking delay for an NPC.
func (m *Manager) ThinkDelay(playerID uint64) time.Duration {
	m.mu.RLock()
	inst := m.instances[playerID]
	m.mu.RUnlock()
	if inst == nil {
		return time.Second
	}
	return inst.ThinkDelay
}

// OnTurn asks the brain what to do with its own turn.
func (m *Manager) OnTurn(playerID uint64, snap mahjong.Snapshot) TurnAction {
	inst := m.Get(playerID)
	if inst == nil {
		logx.Warn("[NPC] OnTurn called for unknown player %d", playerID)
		return TurnAction{Kind: ActionDraw}
	}
	view := buildGameView(inst.Seat, snap)
	var action TurnAction
	switch {
	case view.LastDrawn != nil:
		action = inst.Brain.OnDrawn(view)
	case view.Phase == mahjong.PhaseTypeAwaitingDiscard:
		// 碰完没有摸牌环节，只能直接出牌。
		action = TurnAction{Kind: ActionDiscard, TileID: inst.Brain.ChooseDiscard(view)}
	default:
		action = inst.Brain.PreDraw(view)
	}
	logx.Debug("[NPC] %s turn action=%d tile=%d", inst.Persona.Name, action.Kind, action.TileID)
	return action
}

// OnClaim asks the brain for its claim decision.
func (m *Manager) OnClaim(playerID uint64, snap mahjong.Snapshot) mahjong.ClaimSubmission {
	inst := m.Get(playerID)
	if inst == nil {
		logx.Warn("[NPC] OnClaim called for unknown player %d", playerID)
		return mahjong.ClaimSubmission{Type: mahjong.ClaimTypePass}
	}
	view := buildGameView(inst.Seat, snap)
	sub := inst.Brain.OnClaim(view)
	logx.Debug("[NPC] %s claims %s", inst.Persona.Name, sub.Type)
	return sub
}

// DiscardChoice 超时托管也走 AI 的打牌估值。
func (m *Manager) DiscardChoice(playerID uint64, snap mahjong.Snapshot) (int, bool) {
	inst := m.Get(playerID)
	if inst == nil {
		return 0, false
	}
	view := buildGameView(inst.Seat, snap)
	if view.Hand.Count() == 0 && view.LastDrawn == nil {
		return 0, false
	}
	return inst.Brain.ChooseDiscard(view), true
}

// FallbackDiscard 给掉线/超时的人类按同一套估值挑牌。
func (m *Manager) FallbackDiscard(seat int, snap mahjong.Snapshot) (int, bool) {
	view := buildGameView(seat, snap)
	if view.Hand.Count() == 0 && view.LastDrawn == nil {
		return 0, false
	}
	return m.fallback.ChooseDiscard(view), true
}

// buildGameView constructs a seat-limited view from a full snapshot.
func buildGameView(seat int, snap mahjong.Snapshot) GameView {
	view := GameView{
		Phase:       snap.Phase,
		Seat:        seat,
		Turn:        snap.Turn,
		LastDiscard: snap.LastDiscard,
		Discards:    snap.Discards,
	}
	// 悬牌只有轮到自己时才属于自己。
	if snap.Current == seat {
		view.LastDrawn = snap.LastDrawn
	}
	for _, p := range snap.Players {
		if p.Seat != seat {
			continue
		}
		view.Hand = p.Hand
		view.Melds = p.Melds
		view.PendingClaims = p.PendingClaims
		view.ChiOptions = p.ChiOptions
		break
	}
	return view
}
