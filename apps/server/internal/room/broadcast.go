package room

import (
	"mahjong-lite/apps/server/internal/codec"
	"mahjong-lite/apps/server/internal/wire"
	"mahjong-lite/mahjong"
)

func (r *Room) nextSeqLocked() uint64 {
	r.serverSeq++
	return r.serverSeq
}

func (r *Room) seatMetaLocked() map[int]codec.SeatMeta {
	meta := make(map[int]codec.SeatMeta, len(r.players))
	for id, p := range r.players {
		meta[p.Seat] = codec.SeatMeta{Host: id == r.host, Online: p.Online}
	}
	return meta
}

// sendToUser 只投给在线人类，AI 和离线座位直接略过。
func (r *Room) sendToUser(userID uint64, env *wire.ServerEnvelope) {
	if r.send == nil {
		return
	}
	p := r.players[userID]
	if p == nil || !p.Online || r.isNPC(userID) {
		return
	}
	r.send(userID, env)
}

// broadcastEnvelope 同一帧发给全房在线人类，共用一个序号。
// 公共帧顺带记进本局流水，结算时随钩子落档。
func (r *Room) broadcastEnvelope(typ string, payload any) {
	seq := r.nextSeqLocked()
	env := wire.NewEnvelope(typ, r.ID, seq, payload)
	r.roundLog = append(r.roundLog, *env)
	if len(r.roundLog) > maxRoundLog {
		r.roundLog = r.roundLog[len(r.roundLog)-maxRoundLog:]
	}
	for id := range r.players {
		r.sendToUser(id, env)
	}
}

const maxRoundLog = 512

// announceLocked 桌面动作播报（碰/杠/胡/吃），seat 为出声的座位。
func (r *Room) announceLocked(seat int, text string) {
	r.broadcastEnvelope(wire.ServerAnnounce, wire.AnnounceBody{Seat: seat, Text: text})
}

// broadcastState 每人一份各自视角的投影，同一波共用序号。
func (r *Room) broadcastState() {
	seq := r.nextSeqLocked()
	meta := r.seatMetaLocked()
	snap := r.game.Snapshot()
	deadlineMs := r.activeDeadlineMsLocked()
	timer := timerNames[r.activeTimer]

	for id, p := range r.players {
		if p == nil || !p.Online || r.isNPC(id) {
			continue
		}
		state := codec.RoomStateFor(r.ID, snap, meta, p.Seat)
		state.DeadlineMs = deadlineMs
		state.Timer = timer
		r.stampVoiceLocked(&state)
		r.sendToUser(id, wire.NewEnvelope(wire.ServerRoomState, r.ID, seq, state))
	}
}

// stampVoiceLocked 把语音在场标记贴到投影的对应座位上。
func (r *Room) stampVoiceLocked(state *wire.RoomState) {
	if len(r.voice) == 0 {
		return
	}
	for i := range state.Players {
		if v, ok := r.voice[state.Players[i].Seat]; ok {
			vc := v
			state.Players[i].Voice = &vc
		}
	}
}

// sendStateTo 单发一份投影（重连回执）。
func (r *Room) sendStateTo(userID uint64) {
	p := r.players[userID]
	if p == nil {
		return
	}
	state := codec.RoomStateFor(r.ID, r.game.Snapshot(), r.seatMetaLocked(), p.Seat)
	state.DeadlineMs = r.activeDeadlineMsLocked()
	state.Timer = timerNames[r.activeTimer]
	r.stampVoiceLocked(&state)
	r.sendToUser(userID, wire.NewEnvelope(wire.ServerRoomState, r.ID, r.nextSeqLocked(), state))

	// 重连顺带补最近的聊天记录。
	for _, msg := range r.chatLog {
		r.sendToUser(userID, wire.NewEnvelope(wire.ServerChat, r.ID, r.nextSeqLocked(), msg))
	}
}

// sendPromptsTo 重连后把当下悬着的提示补发给这一个座位。
func (r *Room) sendPromptsTo(userID uint64) {
	p := r.players[userID]
	if p == nil {
		return
	}
	snap := r.game.Snapshot()
	deadlineMs := r.activeDeadlineMsLocked()

	switch snap.Phase {
	case mahjong.PhaseTypePlayerTurnStart, mahjong.PhaseTypePlayerDrawn, mahjong.PhaseTypeAwaitingDiscard:
		if snap.Current == p.Seat {
			body := wire.TurnPromptBody{Seat: p.Seat, Phase: snap.Phase.String(), DeadlineMs: deadlineMs}
			r.sendToUser(userID, wire.NewEnvelope(wire.ServerTurnPrompt, r.ID, r.nextSeqLocked(), body))
		}
	case mahjong.PhaseTypeAwaitingClaims:
		if body := codec.ClaimPrompt(snap, p.Seat, deadlineMs); body != nil {
			r.sendToUser(userID, wire.NewEnvelope(wire.ServerClaimPrompt, r.ID, r.nextSeqLocked(), body))
		}
	case mahjong.PhaseTypeAwaitingRematchVote:
		r.sendToUser(userID, wire.NewEnvelope(wire.ServerRematchState, r.ID, r.nextSeqLocked(), r.rematchStateLocked()))
	}
}

// sendActivePromptsLocked 阶段转移后把提示推给相关在线人类：
// 行动者收 turn_prompt，有鸣牌资格的各收 claim_prompt，
// 再战阶段全员收投票进度。
func (r *Room) sendActivePromptsLocked() {
	snap := r.game.Snapshot()
	deadlineMs := r.activeDeadlineMsLocked()

	switch snap.Phase {
	case mahjong.PhaseTypePlayerTurnStart, mahjong.PhaseTypePlayerDrawn, mahjong.PhaseTypeAwaitingDiscard:
		if snap.Current == mahjong.InvalidSeat {
			return
		}
		userID := r.seats[snap.Current]
		body := wire.TurnPromptBody{Seat: snap.Current, Phase: snap.Phase.String(), DeadlineMs: deadlineMs}
		r.sendToUser(userID, wire.NewEnvelope(wire.ServerTurnPrompt, r.ID, r.nextSeqLocked(), body))

	case mahjong.PhaseTypeAwaitingClaims:
		for _, pl := range snap.Players {
			if len(pl.PendingClaims) == 0 || pl.HasResponded {
				continue
			}
			body := codec.ClaimPrompt(snap, pl.Seat, deadlineMs)
			if body == nil {
				continue
			}
			r.sendToUser(r.seats[pl.Seat], wire.NewEnvelope(wire.ServerClaimPrompt, r.ID, r.nextSeqLocked(), body))
		}

	case mahjong.PhaseTypeAwaitingRematchVote:
		r.broadcastEnvelope(wire.ServerRematchState, r.rematchStateLocked())
	}
}

func (r *Room) rematchStateLocked() wire.RematchStateBody {
	votes := make(map[int]bool, len(r.votes))
	for seat, v := range r.votes {
		votes[seat] = v
	}
	return wire.RematchStateBody{Votes: votes, DeadlineMs: r.activeDeadlineMsLocked()}
}
