package mahjong

import "mahjong-lite/tile"

// 顺子牌型表：同色 (将,士,象) 和 (车,马,炮)。卒不成顺。
var runTable = [][3]tile.Piece{
	{tile.PieceJiang, tile.PieceShi, tile.PieceXiang},
	{tile.PieceJu, tile.PieceMa, tile.PiecePao},
}

// runFor 返回 piece 所属的顺子定义；卒返回 ok=false。
func runFor(p tile.Piece) ([3]tile.Piece, bool) {
	for _, run := range runTable {
		if run[0] == p || run[1] == p || run[2] == p {
			return run, true
		}
	}
	return [3]tile.Piece{}, false
}

// orderAsRun 把三张牌按牌型表顺序排列。要求同色且恰好覆盖一个顺子定义。
func orderAsRun(tiles []tile.Tile) ([]tile.Tile, bool) {
	if len(tiles) != 3 {
		return nil, false
	}
	suit := tiles[0].Kind.Suit()
	run, ok := runFor(tiles[0].Kind.Piece())
	if !ok {
		return nil, false
	}
	out := make([]tile.Tile, 3)
	used := [3]bool{}
	for slot, piece := range run {
		found := false
		for i, t := range tiles {
			if used[i] || t.Kind.Suit() != suit || t.Kind.Piece() != piece {
				continue
			}
			out[slot] = t
			used[i] = true
			found = true
			break
		}
		if !found {
			return nil, false
		}
	}
	return out, true
}

// RunMates 返回与 k 同属一个顺子定义的另外两个牌种；卒返回 nil。
func RunMates(k tile.Kind) []tile.Kind {
	run, ok := runFor(k.Piece())
	if !ok {
		return nil
	}
	out := make([]tile.Kind, 0, 2)
	for _, piece := range run {
		if piece == k.Piece() {
			continue
		}
		out = append(out, tile.MakeKind(k.Suit(), piece))
	}
	return out
}

// CanPeng 手里有两张同种牌即可碰。
func CanPeng(hand tile.List, t tile.Tile) bool {
	return hand.CountKind(t.Kind) >= 2
}

// CanMingGang 手里有三张同种牌即可明杠别人打出的第四张。
func CanMingGang(hand tile.List, t tile.Tile) bool {
	return hand.CountKind(t.Kind) >= 3
}

// AnGangKinds 返回 (手牌 ∪ {drawn}) 里凑满 4 张的牌种。
func AnGangKinds(hand tile.List, drawn *tile.Tile) []tile.Kind {
	counts := make(map[tile.Kind]int, len(hand))
	for _, t := range hand {
		counts[t.Kind]++
	}
	if drawn != nil {
		counts[drawn.Kind]++
	}
	var out []tile.Kind
	for _, k := range tile.AllKinds {
		if counts[k] >= 4 {
			out = append(out, k)
		}
	}
	return out
}

// AddGangKinds 补杠：摸到的牌正好对上自己已碰出的刻子。
func AddGangKinds(melds []Meld, drawn tile.Tile) []tile.Kind {
	var out []tile.Kind
	for _, m := range melds {
		if m.Type == MeldTypeKezi && m.Open && m.Kind() == drawn.Kind {
			out = append(out, m.Kind())
		}
	}
	return out
}

// ChiOptions 枚举手牌中所有能和 t 组成顺子的两张组合。
// 组合按牌种去重，每个组合用手里的实体牌（带 ID）。
func ChiOptions(hand tile.List, t tile.Tile) [][2]tile.Tile {
	run, ok := runFor(t.Kind.Piece())
	if !ok {
		return nil
	}
	suit := t.Kind.Suit()
	var needs [2]tile.Kind
	i := 0
	for _, piece := range run {
		if piece == t.Kind.Piece() {
			continue
		}
		needs[i] = tile.MakeKind(suit, piece)
		i++
	}
	// 象棋麻将里每个顺子定义只有一种补法（顺子表不重叠），
	// 所以最多返回一个组合。
	var a, b tile.Tile
	found0, found1 := false, false
	for _, ht := range hand {
		if !found0 && ht.Kind == needs[0] {
			a, found0 = ht, true
			continue
		}
		if !found1 && ht.Kind == needs[1] {
			b, found1 = ht, true
		}
	}
	if !found0 || !found1 {
		return nil
	}
	return [][2]tile.Tile{{a, b}}
}

// CheckWin 判断 手牌(+extra) 配合已亮面子是否成胡：k 副面子 + 1 对，
// k 由起手牌规模推出再扣掉已亮的面子数。
func CheckWin(hand tile.List, melds []Meld, extra *tile.Tile) bool {
	return CanWinWith(hand, len(melds), extra)
}

// CanWinWith 同 CheckWin，但只要已亮面子的数量（AI 拿快照时用）。
func CanWinWith(hand tile.List, declaredMelds int, extra *tile.Tile) bool {
	need := setsPerHand - declaredMelds
	if need < 0 {
		return false
	}

	counts := make(map[tile.Kind]int, len(hand)+1)
	total := len(hand)
	for _, t := range hand {
		counts[t.Kind]++
	}
	if extra != nil {
		counts[extra.Kind]++
		total++
	}
	if total != need*3+2 {
		return false
	}

	// 找雀头、组面子（刻子或顺子）。
	for _, k := range tile.AllKinds {
		if counts[k] < 2 {
			continue
		}
		counts[k] -= 2
		if canFormSets(counts, need) {
			counts[k] += 2
			return true
		}
		counts[k] += 2
	}
	return false
}

// canFormSets 递归拆解：取编号最小的剩余牌种，尝试刻子和它参与的顺子。
func canFormSets(counts map[tile.Kind]int, need int) bool {
	var first tile.Kind
	found := false
	for _, k := range tile.AllKinds {
		if counts[k] > 0 {
			first = k
			found = true
			break
		}
	}
	if !found {
		return need == 0
	}
	if need == 0 {
		return false
	}

	// 刻子
	if counts[first] >= 3 {
		counts[first] -= 3
		if canFormSets(counts, need-1) {
			counts[first] += 3
			return true
		}
		counts[first] += 3
	}

	// 顺子
	if run, ok := runFor(first.Piece()); ok {
		suit := first.Suit()
		k0 := tile.MakeKind(suit, run[0])
		k1 := tile.MakeKind(suit, run[1])
		k2 := tile.MakeKind(suit, run[2])
		if counts[k0] > 0 && counts[k1] > 0 && counts[k2] > 0 {
			counts[k0]--
			counts[k1]--
			counts[k2]--
			if canFormSets(counts, need-1) {
				counts[k0]++
				counts[k1]++
				counts[k2]++
				return true
			}
			counts[k0]++
			counts[k1]++
			counts[k2]++
		}
	}
	return false
}
