package mahjong

import "mahjong-lite/tile"

// Player 一个座位上的牌局状态。连接、在线、房主这些房间层的事
// 不在这里，引擎只关心打牌。
type Player struct {
	Seat  int
	Name  string
	Robot bool

	hand   tile.List
	melds  []Meld
	score  int
	dealer bool

	// 鸣牌仲裁期间的临时状态
	pendingClaims []ClaimType
	chiOptions    [][2]tile.Tile
	hasResponded  bool
	submitted     *ClaimSubmission
}

func (p *Player) Hand() tile.List { return p.hand }
func (p *Player) Melds() []Meld   { return p.melds }
func (p *Player) Score() int      { return p.score }
func (p *Player) Dealer() bool    { return p.dealer }

func (p *Player) PendingClaims() []ClaimType  { return p.pendingClaims }
func (p *Player) ChiOptions() [][2]tile.Tile  { return p.chiOptions }
func (p *Player) HasResponded() bool          { return p.hasResponded }
func (p *Player) Submitted() *ClaimSubmission { return p.submitted }

// meldTileCount 已亮面子占用的牌数（守恒校验用）。
func (p *Player) meldTileCount() int {
	n := 0
	for _, m := range p.melds {
		n += m.TileCount()
	}
	return n
}

func (p *Player) addHandTiles(tiles ...tile.Tile) {
	p.hand.Add(tiles...)
	p.hand.Sort()
}

func (p *Player) resetForNewRound() {
	p.hand = nil
	p.melds = nil
	p.resetClaimState()
}

func (p *Player) resetClaimState() {
	p.pendingClaims = nil
	p.chiOptions = nil
	p.hasResponded = false
	p.submitted = nil
}

func (p *Player) setScore(v int)  { p.score = v }
func (p *Player) addScore(v int)  { p.score += v }
func (p *Player) setDealer(v bool) { p.dealer = v }

func (p *Player) hasClaim(c ClaimType) bool {
	for _, pc := range p.pendingClaims {
		if pc == c {
			return true
		}
	}
	return false
}

// openKeziIndex 找已碰出的指定牌种刻子（补杠用）。
func (p *Player) openKeziIndex(k tile.Kind) int {
	for i, m := range p.melds {
		if m.Type == MeldTypeKezi && m.Open && m.Kind() == k {
			return i
		}
	}
	return -1
}
