package mahjong

import (
	"testing"

	"mahjong-lite/tile"
)

func tilesOf(kinds ...tile.Kind) tile.List {
	out := make(tile.List, 0, len(kinds))
	for i, k := range kinds {
		out = append(out, tile.Tile{ID: i + 1, Kind: k})
	}
	return out
}

func TestCanPengCanMingGang(t *testing.T) {
	hand := tilesOf(tile.KindRedMa, tile.KindRedMa, tile.KindRedMa, tile.KindBlackZu)
	discard := tile.Tile{ID: 99, Kind: tile.KindRedMa}

	if !CanPeng(hand, discard) {
		t.Fatalf("three in hand must allow peng")
	}
	if !CanMingGang(hand, discard) {
		t.Fatalf("three in hand must allow ming gang")
	}
	other := tile.Tile{ID: 98, Kind: tile.KindBlackZu}
	if CanPeng(hand, other) {
		t.Fatalf("single copy must not allow peng")
	}
	// 红马黑马不是一个牌种
	black := tile.Tile{ID: 97, Kind: tile.KindBlackMa}
	if CanPeng(hand, black) {
		t.Fatalf("suits must not mix for peng")
	}
}

func TestAnGangKinds(t *testing.T) {
	hand := tilesOf(tile.KindRedZu, tile.KindRedZu, tile.KindRedZu, tile.KindBlackJu)
	drawn := tile.Tile{ID: 50, Kind: tile.KindRedZu}

	if kinds := AnGangKinds(hand, nil); len(kinds) != 0 {
		t.Fatalf("three copies without drawn must not an-gang, got %v", kinds)
	}
	kinds := AnGangKinds(hand, &drawn)
	if len(kinds) != 1 || kinds[0] != tile.KindRedZu {
		t.Fatalf("hand+drawn with four copies must an-gang, got %v", kinds)
	}
}

func TestAddGangKinds(t *testing.T) {
	melds := []Meld{
		newKezi(tilesOf(tile.KindBlackPao, tile.KindBlackPao, tile.KindBlackPao), 1, 2),
	}
	drawn := tile.Tile{ID: 60, Kind: tile.KindBlackPao}
	kinds := AddGangKinds(melds, drawn)
	if len(kinds) != 1 || kinds[0] != tile.KindBlackPao {
		t.Fatalf("drawn matching open kezi must add-gang, got %v", kinds)
	}
	wrong := tile.Tile{ID: 61, Kind: tile.KindRedPao}
	if kinds := AddGangKinds(melds, wrong); len(kinds) != 0 {
		t.Fatalf("mismatched kind must not add-gang")
	}
}

func TestChiOptions(t *testing.T) {
	// 手里有红将、红象，吃红士
	hand := tilesOf(tile.KindRedJiang, tile.KindRedXiang, tile.KindBlackZu)
	discard := tile.Tile{ID: 77, Kind: tile.KindRedShi}

	opts := ChiOptions(hand, discard)
	if len(opts) != 1 {
		t.Fatalf("expected one chi option, got %d", len(opts))
	}
	// 返回的是手里的实体牌
	if opts[0][0].Kind != tile.KindRedJiang || opts[0][1].Kind != tile.KindRedXiang {
		t.Fatalf("chi option kinds wrong: %v", opts[0])
	}

	// 卒不成顺
	zu := tile.Tile{ID: 78, Kind: tile.KindRedZu}
	if opts := ChiOptions(hand, zu); len(opts) != 0 {
		t.Fatalf("zu must not form runs")
	}

	// 跨色不成顺
	mixed := tilesOf(tile.KindRedJiang, tile.KindBlackXiang)
	if opts := ChiOptions(mixed, discard); len(opts) != 0 {
		t.Fatalf("cross-suit run must be rejected")
	}
}

func TestOrderAsRunCanonicalSlots(t *testing.T) {
	jiang := tile.Tile{ID: 1, Kind: tile.KindRedJiang}
	shi := tile.Tile{ID: 2, Kind: tile.KindRedShi}
	xiang := tile.Tile{ID: 3, Kind: tile.KindRedXiang}

	ordered, ok := orderAsRun([]tile.Tile{xiang, jiang, shi})
	if !ok {
		t.Fatalf("jiang-shi-xiang must form a run")
	}
	if ordered[0].ID != 1 || ordered[1].ID != 2 || ordered[2].ID != 3 {
		t.Fatalf("run must be in canonical order, got %v", ordered)
	}

	if _, ok := orderAsRun([]tile.Tile{jiang, shi, {ID: 4, Kind: tile.KindRedJu}}); ok {
		t.Fatalf("jiang-shi-ju must not form a run")
	}
}

func TestCheckWinStandardForm(t *testing.T) {
	// 7 张：刻子 + 顺子缺一 + 对子，胡在顺子缺的那张上
	hand := tilesOf(
		tile.KindRedJiang, tile.KindRedJiang, tile.KindRedJiang,
		tile.KindBlackJu, tile.KindBlackPao,
		tile.KindRedZu, tile.KindRedZu,
	)
	winTile := tile.Tile{ID: 90, Kind: tile.KindBlackMa}
	if !CheckWin(hand, nil, &winTile) {
		t.Fatalf("kezi + shunzi + pair must win")
	}

	loseTile := tile.Tile{ID: 91, Kind: tile.KindBlackZu}
	if CheckWin(hand, nil, &loseTile) {
		t.Fatalf("unrelated tile must not win")
	}
}

func TestCheckWinWithDeclaredMelds(t *testing.T) {
	melds := []Meld{
		newKezi(tilesOf(tile.KindBlackShi, tile.KindBlackShi, tile.KindBlackShi), 0, 3),
	}
	// 已亮一副刻子，手里 4 张：顺子缺一 + 对子
	hand := tile.List{
		{ID: 10, Kind: tile.KindRedJu},
		{ID: 11, Kind: tile.KindRedMa},
		{ID: 12, Kind: tile.KindBlackZu},
		{ID: 13, Kind: tile.KindBlackZu},
	}
	winTile := tile.Tile{ID: 92, Kind: tile.KindRedPao}
	if !CheckWin(hand, melds, &winTile) {
		t.Fatalf("declared meld + hand must win")
	}
	if CheckWin(hand, melds, nil) {
		t.Fatalf("incomplete hand must not win")
	}
}

func TestCheckWinSelfDrawnPairWait(t *testing.T) {
	// 两副面子齐了，单吊对子
	hand := tilesOf(
		tile.KindRedJiang, tile.KindRedShi, tile.KindRedXiang,
		tile.KindBlackJu, tile.KindBlackMa, tile.KindBlackPao,
		tile.KindRedZu,
	)
	pair := tile.Tile{ID: 93, Kind: tile.KindRedZu}
	if !CheckWin(hand, nil, &pair) {
		t.Fatalf("pair wait must win")
	}
}
