package room

import (
	"time"

	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong"
)

// setActiveTimerLocked 布置互斥计时器族里的一个，顶掉之前的。
// seat 只对 turn 计时器有意义，其余传 InvalidSeat。
func (r *Room) setActiveTimerLocked(kind TimerKind, d time.Duration, seat int) {
	r.activeTimer = kind
	r.activeDeadline = time.Now().Add(d)
	r.activeSeat = seat
}

func (r *Room) clearActiveTimerLocked() {
	r.activeTimer = TimerNone
	r.activeDeadline = time.Time{}
	r.activeSeat = mahjong.InvalidSeat
}

// restartActiveTimerLocked 同一计时器从头再数（假胡惩罚性重开）。
func (r *Room) restartActiveTimerLocked() {
	switch r.activeTimer {
	case TimerTurn:
		r.activeDeadline = time.Now().Add(r.Config.Timers.Turn())
	case TimerClaim:
		r.activeDeadline = time.Now().Add(r.Config.Timers.Claim())
	case TimerNextRound:
		r.activeDeadline = time.Now().Add(r.Config.Timers.NextRound())
	case TimerRematch:
		r.activeDeadline = time.Now().Add(r.Config.Timers.Rematch())
	}
}

// activeDeadlineMsLocked 剩余毫秒，无活跃计时器时为 0。
func (r *Room) activeDeadlineMsLocked() int64 {
	if r.activeTimer == TimerNone || r.activeDeadline.IsZero() {
		return 0
	}
	ms := time.Until(r.activeDeadline).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// tick 心跳：先查局级硬顶，再查互斥计时器族。
func (r *Room) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	now := time.Now()

	if !r.roundCapDeadline.IsZero() && now.After(r.roundCapDeadline) {
		r.roundCapDeadline = time.Time{}
		if r.inActiveRoundLocked() {
			logx.Warn("[Room %s] round wall-clock cap hit, forcing draw", r.ID)
			if err := r.game.ForceDrawGame(); err != nil {
				logx.Error("[Room %s] force draw failed: %v", r.ID, err)
			}
			r.afterTransitionLocked()
			return
		}
	}

	if r.activeTimer == TimerNone || r.activeDeadline.IsZero() || now.Before(r.activeDeadline) {
		return
	}
	kind, seat := r.activeTimer, r.activeSeat
	r.clearActiveTimerLocked()

	switch kind {
	case TimerTurn:
		r.fireTurnTimeoutLocked(seat)
	case TimerClaim:
		r.fireClaimTimeoutLocked()
	case TimerNextRound:
		if err := r.startRoundLocked(); err != nil {
			logx.Error("[Room %s] scheduled round start failed: %v", r.ID, err)
		}
	case TimerRematch:
		// 窗口关闭时在线人类若已全员同意照样开打，否则散场。
		accepted := r.onlineHumansLocked() > 0 && r.allHumansVotedYesLocked()
		logx.Info("[Room %s] rematch window closed, accepted=%v", r.ID, accepted)
		r.finishRematchLocked(accepted)
	}
}

// fireTurnTimeoutLocked 行动超时托管。期间若行动者已变则作废。
func (r *Room) fireTurnTimeoutLocked(seat int) {
	snap := r.game.Snapshot()
	if snap.Current != seat {
		return
	}
	switch snap.Phase {
	case mahjong.PhaseTypePlayerTurnStart, mahjong.PhaseTypePlayerDrawn, mahjong.PhaseTypeAwaitingDiscard:
	default:
		return
	}
	logx.Info("[Room %s] seat %d turn timed out, auto-acting", r.ID, seat)
	r.autoActLocked(seat)
}

// fireClaimTimeoutLocked 鸣牌收集超时，未表态视为过。
func (r *Room) fireClaimTimeoutLocked() {
	if r.game.Snapshot().Phase != mahjong.PhaseTypeAwaitingClaims {
		return
	}
	logx.Info("[Room %s] claim window timed out", r.ID)
	if err := r.game.ForceResolveClaims(); err != nil {
		logx.Error("[Room %s] force resolve claims failed: %v", r.ID, err)
	}
	r.announceClaimOutcomeLocked()
	r.afterTransitionLocked()
}
