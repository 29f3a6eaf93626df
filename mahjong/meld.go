package mahjong

import (
	"sort"

	"mahjong-lite/tile"
)

// Meld 已亮出（或暗杠）的面子。
// 刻子/杠子内部按 ID 排序保持稳定；顺子按牌型表的固定顺序摆放，
// 被吃进来的那张牌落在它在顺子中的自然位置。
type Meld struct {
	Type  MeldType
	Tiles []tile.Tile
	Open  bool

	// claimed from another seat (InvalidSeat / 0 if self-made)
	ClaimedFrom   int
	ClaimedTileID int
}

func (m Meld) Kind() tile.Kind {
	if len(m.Tiles) == 0 {
		return tile.KindInvalid
	}
	if m.Type == MeldTypeShunzi {
		return m.Tiles[0].Kind
	}
	return m.Tiles[0].Kind
}

func (m Meld) TileCount() int { return len(m.Tiles) }

func sortMeldTiles(tiles []tile.Tile) {
	sort.Slice(tiles, func(i, j int) bool { return tiles[i].ID < tiles[j].ID })
}

func newKezi(tiles []tile.Tile, from int, claimedID int) Meld {
	sortMeldTiles(tiles)
	return Meld{
		Type:          MeldTypeKezi,
		Tiles:         tiles,
		Open:          true,
		ClaimedFrom:   from,
		ClaimedTileID: claimedID,
	}
}

func newGangzi(tiles []tile.Tile, open bool, from int, claimedID int) Meld {
	sortMeldTiles(tiles)
	return Meld{
		Type:          MeldTypeGangzi,
		Tiles:         tiles,
		Open:          open,
		ClaimedFrom:   from,
		ClaimedTileID: claimedID,
	}
}

// newShunzi 把手里的两张和吃进来的一张按牌型表顺序摆好。
// 返回 ok=false 表示这三张不构成合法顺子。
func newShunzi(handTiles [2]tile.Tile, claimed tile.Tile, from int) (Meld, bool) {
	all := []tile.Tile{handTiles[0], handTiles[1], claimed}
	ordered, ok := orderAsRun(all)
	if !ok {
		return Meld{}, false
	}
	return Meld{
		Type:          MeldTypeShunzi,
		Tiles:         ordered,
		Open:          true,
		ClaimedFrom:   from,
		ClaimedTileID: claimed.ID,
	}, true
}

// upgradeToGangzi 碰 -> 补杠。保留原刻子的来源信息。
func (m *Meld) upgradeToGangzi(t tile.Tile) {
	m.Type = MeldTypeGangzi
	m.Tiles = append(m.Tiles, t)
	sortMeldTiles(m.Tiles)
}
