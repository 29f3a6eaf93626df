package room

import (
	"errors"
	"time"

	"mahjong-lite/apps/server/internal/codec"
	"mahjong-lite/apps/server/internal/wire"
	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong"
	"mahjong-lite/mahjong/npc"
	"mahjong-lite/tile"
)

// seatOf 动作入口的统一校验：必须坐在房里。
func (r *Room) seatOf(userID uint64) (int, error) {
	p := r.players[userID]
	if p == nil {
		return mahjong.InvalidSeat, ErrNotSeated
	}
	return p.Seat, nil
}

func (r *Room) handleDiscard(userID uint64, tileID int) error {
	seat, err := r.seatOf(userID)
	if err != nil {
		return err
	}
	if _, err := r.game.Discard(seat, tileID); err != nil {
		return err
	}
	r.afterTransitionLocked()
	return nil
}

func (r *Room) handleSelfHu(userID uint64) error {
	seat, err := r.seatOf(userID)
	if err != nil {
		return err
	}
	err = r.game.DeclareSelfHu(seat)
	if errors.Is(err, mahjong.ErrFalseHu) {
		// 假胡：状态不动，重开本阶段的行动倒计时，告知提交者。
		logx.Warn("[Room %s] false hu from seat %d", r.ID, seat)
		r.restartActiveTimerLocked()
		return err
	}
	if err != nil {
		return err
	}
	r.announceLocked(seat, "胡")
	r.afterTransitionLocked()
	return nil
}

func (r *Room) handleAnGang(userID uint64, kind byte) error {
	seat, err := r.seatOf(userID)
	if err != nil {
		return err
	}
	if err := r.game.DeclareAnGang(seat, tile.Kind(kind)); err != nil {
		return err
	}
	r.announceLocked(seat, "杠")
	r.afterTransitionLocked()
	return nil
}

func (r *Room) handleAddGang(userID uint64, kind byte) error {
	seat, err := r.seatOf(userID)
	if err != nil {
		return err
	}
	if err := r.game.DeclareAddGang(seat, tile.Kind(kind)); err != nil {
		return err
	}
	r.announceLocked(seat, "杠")
	r.afterTransitionLocked()
	return nil
}

func (r *Room) handleClaim(userID uint64, claim mahjong.ClaimType, kind byte, chiTiles [2]int) error {
	seat, err := r.seatOf(userID)
	if err != nil {
		return err
	}
	sub := mahjong.ClaimSubmission{
		Seat:       seat,
		Type:       claim,
		Kind:       tile.Kind(kind),
		ChiTileIDs: chiTiles,
	}
	if err := r.game.SubmitClaim(seat, sub); err != nil {
		return err
	}

	// 提交可能凑齐全员表态并当场仲裁。
	if r.game.Snapshot().Phase != mahjong.PhaseTypeAwaitingClaims {
		r.announceClaimOutcomeLocked()
		r.afterTransitionLocked()
	} else {
		r.broadcastState()
	}
	return nil
}

// announceClaimOutcomeLocked 仲裁落地后的播报：先发结构化的
// claim_result，再按结果出声（荣胡报胡，鸣牌报碰/杠/吃，
// 全过只发 pass 不出声）。
func (r *Room) announceClaimOutcomeLocked() {
	snap := r.game.Snapshot()
	switch snap.Phase {
	case mahjong.PhaseTypeRoundOver:
		if snap.LastResult == nil || snap.LastResult.DrawGame {
			return
		}
		r.broadcastEnvelope(wire.ServerClaimResult, wire.ClaimResultBody{
			Outcome: "hu", Seats: snap.LastResult.Winners,
		})
		for _, seat := range snap.LastResult.Winners {
			r.announceLocked(seat, "胡")
		}
	case mahjong.PhaseTypeAwaitingDiscard, mahjong.PhaseTypePlayerDrawn:
		for _, p := range snap.Players {
			if p.Seat != snap.Current || len(p.Melds) == 0 {
				continue
			}
			meldType := p.Melds[len(p.Melds)-1].Type
			r.broadcastEnvelope(wire.ServerClaimResult, wire.ClaimResultBody{
				Outcome: "meld", Seats: []int{p.Seat},
				Meld: mahjong.MeldTypeDictionary[meldType],
			})
			switch meldType {
			case mahjong.MeldTypeKezi:
				r.announceLocked(p.Seat, "碰")
			case mahjong.MeldTypeGangzi:
				r.announceLocked(p.Seat, "杠")
			case mahjong.MeldTypeShunzi:
				r.announceLocked(p.Seat, "吃")
			}
			return
		}
	default:
		r.broadcastEnvelope(wire.ServerClaimResult, wire.ClaimResultBody{Outcome: "pass"})
	}
}

func (r *Room) handleRematchVote(userID uint64, accept bool) error {
	seat, err := r.seatOf(userID)
	if err != nil {
		return err
	}
	snap := r.game.Snapshot()
	if snap.Phase != mahjong.PhaseTypeAwaitingRematchVote {
		return mahjong.ErrInvalidState("no rematch vote in progress")
	}
	if _, voted := r.votes[seat]; voted {
		return ErrDuplicate
	}

	if !accept {
		// 一票否决：拒战者回大厅，房间终局。
		logx.Info("[Room %s] seat %d declined the rematch", r.ID, seat)
		r.finishRematchLocked(false)
		return nil
	}

	r.votes[seat] = true
	r.broadcastEnvelope(wire.ServerRematchState, r.rematchStateLocked())

	if r.allHumansVotedYesLocked() {
		r.finishRematchLocked(true)
	}
	return nil
}

// allHumansVotedYesLocked AI 永远默认同意，只统计在线人类。
func (r *Room) allHumansVotedYesLocked() bool {
	for id, p := range r.players {
		if r.isNPC(id) || !p.Online {
			continue
		}
		if !r.votes[p.Seat] {
			return false
		}
	}
	return true
}

// finishRematchLocked 开新一场（保留分数）或散场。
func (r *Room) finishRematchLocked(accepted bool) {
	r.clearActiveTimerLocked()

	if !accepted {
		r.game.SetGameOver()
		r.broadcastEnvelope(wire.ServerAnnounce, wire.AnnounceBody{Text: "rematch declined, room closing"})
		r.broadcastState()
		r.emptySince = time.Now()
		return
	}

	preserved := make(map[int]int)
	for _, p := range r.game.Snapshot().Players {
		preserved[p.Seat] = p.Score
	}
	if err := r.game.StartMatch(preserved); err != nil {
		logx.Error("[Room %s] rematch start failed: %v", r.ID, err)
		r.game.SetGameOver()
		r.broadcastState()
		return
	}
	r.votes = make(map[int]bool)
	r.broadcastEnvelope(wire.ServerAnnounce, wire.AnnounceBody{Text: "rematch accepted"})
	if err := r.startRoundLocked(); err != nil {
		logx.Error("[Room %s] rematch round start failed: %v", r.ID, err)
	}
}

// startRoundLocked 发牌并布置局级计时器。
func (r *Room) startRoundLocked() error {
	if err := r.game.StartRound(); err != nil {
		// 牌墙自检失败等：引擎已记流局，走正常结算路径。
		logx.Error("[Room %s] round start failed: %v", r.ID, err)
		r.afterTransitionLocked()
		return err
	}
	r.votes = make(map[int]bool)
	r.roundLog = nil
	r.roundCapDeadline = time.Now().Add(r.Config.Timers.RoundCap())

	snap := r.game.Snapshot()
	logx.Info("[Room %s] round %d started, dealer=%d", r.ID, snap.RoundIndex, snap.Dealer)
	r.broadcastEnvelope(wire.ServerRoundStart, map[string]int{
		"round":  snap.RoundIndex,
		"dealer": snap.Dealer,
	})
	r.afterTransitionLocked()
	return nil
}

// afterTransitionLocked 每次引擎状态变更后的统一出口：换 AI 代号、
// 重排计时器、调度 AI、广播。鸣牌收集阶段 AI 同步表态，可能连环
// 触发下一次转移，这里用循环收敛而不是递归。
func (r *Room) afterTransitionLocked() {
	for {
		r.aiGeneration++
		snap := r.game.Snapshot()

		switch snap.Phase {
		case mahjong.PhaseTypePlayerTurnStart, mahjong.PhaseTypePlayerDrawn, mahjong.PhaseTypeAwaitingDiscard:
			r.setActiveTimerLocked(TimerTurn, r.Config.Timers.Turn(), snap.Current)
			r.scheduleAITurnLocked(snap)

		case mahjong.PhaseTypeAwaitingClaims:
			r.setActiveTimerLocked(TimerClaim, r.Config.Timers.Claim(), mahjong.InvalidSeat)
			if r.submitAIClaimsLocked(snap) {
				// AI 表态凑齐了全员，仲裁已经发生，重新布置。
				continue
			}

		case mahjong.PhaseTypeRoundOver:
			r.roundCapDeadline = time.Time{}
			if body := codec.RoundEnd(snap); body != nil {
				r.broadcastEnvelope(wire.ServerRoundEnd, body)
			}
			r.dispatchRoundEndHooks(snap)
			if snap.MatchOver {
				r.broadcastEnvelope(wire.ServerMatchEnd, codec.MatchEnd(snap))
				if err := r.game.BeginRematchVote(); err == nil {
					r.votes = make(map[int]bool)
					r.setActiveTimerLocked(TimerRematch, r.Config.Timers.Rematch(), mahjong.InvalidSeat)
					continue
				}
				r.clearActiveTimerLocked()
			} else {
				r.setActiveTimerLocked(TimerNextRound, r.Config.Timers.NextRound(), mahjong.InvalidSeat)
			}

		case mahjong.PhaseTypeAwaitingRematchVote:
			// 计时器在进入时已布置。

		case mahjong.PhaseTypeGameOver:
			r.clearActiveTimerLocked()
			r.roundCapDeadline = time.Time{}

		default:
			r.clearActiveTimerLocked()
		}
		break
	}

	r.broadcastState()
	r.sendActivePromptsLocked()
}

// --- AI scheduling ---

// scheduleAITurnLocked 当前行动者是 AI 时，挂一个 think 延迟后把
// 决策塞回事件队列。fire 时代号不符或已非其回合则作废。
func (r *Room) scheduleAITurnLocked(snap mahjong.Snapshot) {
	if r.npcManager == nil || snap.Current == mahjong.InvalidSeat {
		return
	}
	userID := r.seats[snap.Current]
	if !r.isNPC(userID) {
		return
	}
	generation := r.aiGeneration
	delay := r.npcManager.ThinkDelay(userID)

	go func() {
		time.Sleep(delay)
		_ = r.SubmitEvent(Event{Type: EventAITurn, UserID: userID, AIGeneration: generation})
	}()
}

// handleAITurn AI 回合决策落地。挂延迟期间若有人类抢先行动
//（代号已换）则静默作废。
func (r *Room) handleAITurn(generation uint64) error {
	if generation != r.aiGeneration {
		return nil
	}
	snap := r.game.Snapshot()
	seat := snap.Current
	if seat == mahjong.InvalidSeat {
		return nil
	}
	userID := r.seats[seat]
	if !r.isNPC(userID) {
		return nil
	}

	action := r.npcManager.OnTurn(userID, snap)
	var err error
	switch action.Kind {
	case npc.ActionDraw:
		err = r.game.Draw(seat)
	case npc.ActionSelfHu:
		err = r.game.DeclareSelfHu(seat)
	case npc.ActionAnGang:
		err = r.game.DeclareAnGang(seat, action.MeldKind)
	case npc.ActionAddGang:
		err = r.game.DeclareAddGang(seat, action.MeldKind)
	case npc.ActionDiscard:
		_, err = r.game.Discard(seat, action.TileID)
	}
	if err != nil {
		// 脑子想岔了就走托管路径兜底。
		logx.Warn("[Room %s] AI action failed seat=%d: %v", r.ID, seat, err)
		r.autoActLocked(seat)
		return nil
	}
	switch action.Kind {
	case npc.ActionSelfHu:
		r.announceLocked(seat, "胡")
	case npc.ActionAnGang, npc.ActionAddGang:
		r.announceLocked(seat, "杠")
	}
	r.afterTransitionLocked()
	return nil
}

// submitAIClaimsLocked AI 的鸣牌表态不挂延迟，直接提交。
// 返回 true 表示提交把仲裁触发了（阶段已离开收集）。
func (r *Room) submitAIClaimsLocked(snap mahjong.Snapshot) bool {
	if r.npcManager == nil {
		return false
	}
	for _, p := range snap.Players {
		if len(p.PendingClaims) == 0 || p.HasResponded {
			continue
		}
		userID := r.seats[p.Seat]
		if !r.isNPC(userID) {
			continue
		}
		sub := r.npcManager.OnClaim(userID, snap)
		if err := r.game.SubmitClaim(p.Seat, sub); err != nil {
			logx.Warn("[Room %s] AI claim failed seat=%d: %v", r.ID, p.Seat, err)
			_ = r.game.SubmitClaim(p.Seat, mahjong.ClaimSubmission{Seat: p.Seat, Type: mahjong.ClaimTypePass})
		}
		if r.game.Snapshot().Phase != mahjong.PhaseTypeAwaitingClaims {
			r.announceClaimOutcomeLocked()
			return true
		}
	}
	return false
}

// autoActLocked 托管：把当前座位的回合走完（超时或 AI 兜底共用）。
func (r *Room) autoActLocked(seat int) {
	snap := r.game.Snapshot()
	if snap.Current != seat {
		return
	}

	if snap.Phase == mahjong.PhaseTypePlayerTurnStart {
		if err := r.game.Draw(seat); err != nil {
			logx.Error("[Room %s] auto draw failed seat=%d: %v", r.ID, seat, err)
			r.afterTransitionLocked()
			return
		}
		snap = r.game.Snapshot()
		if snap.Phase != mahjong.PhaseTypePlayerDrawn {
			// 摸空流局。
			r.afterTransitionLocked()
			return
		}
	}

	tileID, ok := r.pickAutoDiscardLocked(seat, snap)
	if !ok {
		r.afterTransitionLocked()
		return
	}
	if _, err := r.game.Discard(seat, tileID); err != nil {
		logx.Error("[Room %s] auto discard failed seat=%d: %v", r.ID, seat, err)
	}
	r.afterTransitionLocked()
}

// pickAutoDiscardLocked AI 座位用估值挑牌，人类托管按悬牌/最右。
func (r *Room) pickAutoDiscardLocked(seat int, snap mahjong.Snapshot) (int, bool) {
	userID := r.seats[seat]
	if r.npcManager != nil {
		if r.isNPC(userID) {
			if id, ok := r.npcManager.DiscardChoice(userID, snap); ok {
				return id, true
			}
		} else if id, ok := r.npcManager.FallbackDiscard(seat, snap); ok {
			// 掉线/超时的人类同样吃 AI 的打牌估值。
			return id, true
		}
	}
	return r.game.AutoDiscardTileID(seat)
}
