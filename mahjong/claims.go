package mahjong

import "mahjong-lite/tile"

// ClaimSubmission 一个座位对一次弃牌的表态。
// Kind 在碰/杠时要求与弃牌一致；ChiTileIDs 是吃时选用的两张手牌。
type ClaimSubmission struct {
	Seat       int
	Type       ClaimType
	Kind       tile.Kind
	ChiTileIDs [2]int
}

// computePotentialClaimsLocked 对刚打出的牌计算每家的可鸣集合。
// 吃只开放给放铳者下家。返回有表态资格的座位数。
func (g *Game) computePotentialClaimsLocked() int {
	eligible := 0
	discard := *g.lastDiscard
	for seat, p := range g.players {
		if p == nil || seat == g.lastDiscarder {
			continue
		}
		p.resetClaimState()

		var claims []ClaimType
		if CheckWin(p.hand, p.melds, &discard) {
			claims = append(claims, ClaimTypeHu)
		}
		if CanMingGang(p.hand, discard) {
			claims = append(claims, ClaimTypeGang)
		}
		if CanPeng(p.hand, discard) {
			claims = append(claims, ClaimTypePeng)
		}
		if seat == g.nextSeat(g.lastDiscarder) {
			if opts := ChiOptions(p.hand, discard); len(opts) > 0 {
				claims = append(claims, ClaimTypeChi)
				p.chiOptions = opts
			}
		}
		if len(claims) > 0 {
			p.pendingClaims = claims
			eligible++
		}
	}
	return eligible
}

// SubmitClaim 记录一个座位的鸣牌表态。重复提交、无资格、时机不对都会被拒。
// 当所有有资格的座位都已表态时当场仲裁（阶段转换只发生在仲裁里）。
func (g *Game) SubmitClaim(seat int, sub ClaimSubmission) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseTypeAwaitingClaims {
		return ErrInvalidState("no claim collection in progress")
	}
	p := g.players[seat]
	if p == nil || len(p.pendingClaims) == 0 {
		return ErrNotEligible
	}
	if p.hasResponded {
		return ErrAlreadyResponded
	}

	if err := g.validateClaimLocked(p, &sub); err != nil {
		return err
	}

	sub.Seat = seat
	p.submitted = &sub
	p.hasResponded = true

	if g.allClaimsRespondedLocked() {
		g.resolveClaimsLocked()
	}
	return nil
}

// ForceResolveClaims 鸣牌截止：未表态的按过处理，然后仲裁。
func (g *Game) ForceResolveClaims() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseTypeAwaitingClaims {
		return ErrInvalidState("no claim collection in progress")
	}
	for _, p := range g.players {
		if p == nil || len(p.pendingClaims) == 0 || p.hasResponded {
			continue
		}
		p.submitted = &ClaimSubmission{Seat: p.Seat, Type: ClaimTypePass}
		p.hasResponded = true
	}
	g.resolveClaimsLocked()
	return nil
}

func (g *Game) validateClaimLocked(p *Player, sub *ClaimSubmission) error {
	switch sub.Type {
	case ClaimTypePass:
		return nil
	case ClaimTypeHu:
		if !p.hasClaim(ClaimTypeHu) {
			return ErrNotEligible
		}
	case ClaimTypeGang:
		if !p.hasClaim(ClaimTypeGang) || sub.Kind != g.lastDiscard.Kind {
			return ErrNotEligible
		}
	case ClaimTypePeng:
		if !p.hasClaim(ClaimTypePeng) || sub.Kind != g.lastDiscard.Kind {
			return ErrNotEligible
		}
	case ClaimTypeChi:
		if !p.hasClaim(ClaimTypeChi) {
			return ErrNotEligible
		}
		a, okA := p.hand.FindByID(sub.ChiTileIDs[0])
		b, okB := p.hand.FindByID(sub.ChiTileIDs[1])
		if !okA || !okB || sub.ChiTileIDs[0] == sub.ChiTileIDs[1] {
			return ErrTileNotInHand
		}
		if _, ok := orderAsRun([]tile.Tile{a, b, *g.lastDiscard}); !ok {
			return ErrInvalidState("tiles do not form a run with the discard")
		}
	default:
		return ErrInvalidState("unknown claim type")
	}
	return nil
}

func (g *Game) allClaimsRespondedLocked() bool {
	for _, p := range g.players {
		if p == nil {
			continue
		}
		if len(p.pendingClaims) > 0 && !p.hasResponded {
			return false
		}
	}
	return true
}

// resolveClaimsLocked 仲裁。只看提交集合的内容，不看到达顺序：
// 胡 > 杠 > 碰 > 吃 > 过，多家胡同时成立（一炮多响）。
func (g *Game) resolveClaimsLocked() {
	g.phase = PhaseTypeResolvingClaims

	var huSeats []int
	var gangSub, pengSub, chiSub *ClaimSubmission
	for _, p := range g.players {
		if p == nil || p.submitted == nil {
			continue
		}
		sub := p.submitted
		switch sub.Type {
		case ClaimTypeHu:
			// 仲裁时复验，假胡降级为过。
			if CheckWin(p.hand, p.melds, g.lastDiscard) {
				huSeats = append(huSeats, p.Seat)
			}
		case ClaimTypeGang:
			gangSub = sub
		case ClaimTypePeng:
			pengSub = sub
		case ClaimTypeChi:
			chiSub = sub
		}
	}

	switch {
	case len(huSeats) > 0:
		g.applyDiscardWinLocked(huSeats)
	case gangSub != nil:
		g.applyMeldClaimLocked(*gangSub)
	case pengSub != nil:
		g.applyMeldClaimLocked(*pengSub)
	case chiSub != nil:
		g.applyMeldClaimLocked(*chiSub)
	default:
		// 全过：下家起牌。
		g.clearClaimStateLocked()
		g.lastDiscard = nil
		g.current = g.nextSeat(g.lastDiscarder)
		g.phase = PhaseTypePlayerTurnStart
	}
}

func (g *Game) applyDiscardWinLocked(huSeats []int) {
	g.clearClaimStateLocked()
	g.winners = append([]int(nil), huSeats...)
	g.winType = WinTypeDiscard
	g.payer = g.lastDiscarder
	g.endRoundLocked()
}

func (g *Game) applyMeldClaimLocked(sub ClaimSubmission) {
	p := g.players[sub.Seat]
	claimed := *g.lastDiscard

	switch sub.Type {
	case ClaimTypeGang:
		removed, ok := p.hand.RemoveKind(claimed.Kind, 3)
		if !ok {
			// 内容校验已在提交时做过，走到这里按全过处理。
			g.clearClaimStateLocked()
			g.lastDiscard = nil
			g.current = g.nextSeat(g.lastDiscarder)
			g.phase = PhaseTypePlayerTurnStart
			return
		}
		tiles := append(removed, claimed)
		p.melds = append(p.melds, newGangzi(tiles, true, g.lastDiscarder, claimed.ID))
		g.popDiscardLocked()
		g.clearClaimStateLocked()
		g.lastDiscard = nil
		g.current = sub.Seat
		g.phase = PhaseTypePlayerTurnStart // 杠后补牌

	case ClaimTypePeng:
		removed, ok := p.hand.RemoveKind(claimed.Kind, 2)
		if !ok {
			g.clearClaimStateLocked()
			g.lastDiscard = nil
			g.current = g.nextSeat(g.lastDiscarder)
			g.phase = PhaseTypePlayerTurnStart
			return
		}
		tiles := append(removed, claimed)
		p.melds = append(p.melds, newKezi(tiles, g.lastDiscarder, claimed.ID))
		g.popDiscardLocked()
		g.clearClaimStateLocked()
		g.lastDiscard = nil
		g.current = sub.Seat
		g.phase = PhaseTypeAwaitingDiscard // 碰完直接打牌，不摸

	case ClaimTypeChi:
		a, _ := p.hand.RemoveByID(sub.ChiTileIDs[0])
		b, _ := p.hand.RemoveByID(sub.ChiTileIDs[1])
		meld, ok := newShunzi([2]tile.Tile{a, b}, claimed, g.lastDiscarder)
		if !ok {
			p.addHandTiles(a, b)
			g.clearClaimStateLocked()
			g.lastDiscard = nil
			g.current = g.nextSeat(g.lastDiscarder)
			g.phase = PhaseTypePlayerTurnStart
			return
		}
		p.melds = append(p.melds, meld)
		g.popDiscardLocked()
		g.clearClaimStateLocked()
		g.lastDiscard = nil
		g.current = sub.Seat
		g.phase = PhaseTypeAwaitingDiscard
	}
}

// popDiscardLocked 把刚被鸣走的那张从弃牌堆头上拿掉。
func (g *Game) popDiscardLocked() {
	if len(g.discards) > 0 {
		g.discards = g.discards[1:]
	}
}

func (g *Game) clearClaimStateLocked() {
	for _, p := range g.players {
		if p != nil {
			p.resetClaimState()
		}
	}
}
