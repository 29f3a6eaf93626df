package tile

import (
	"math/rand"
	"sort"
)

type List []Tile

func (ls *List) Init(tiles []Tile) {
	*ls = make([]Tile, len(tiles))
	copy(*ls, tiles)
}

// Count 获取总牌数
func (ls List) Count() int {
	return len(ls)
}

func (ls List) Shuffle() {
	rand.Shuffle(len(ls), func(i, j int) {
		ls[i], ls[j] = ls[j], ls[i]
	})
}

func (ls *List) Add(tiles ...Tile) {
	*ls = append(*ls, tiles...)
}

// PopTile 从牌堆顶取一张；空堆返回 ok=false。
func (ls *List) PopTile() (Tile, bool) {
	if ls.Count() == 0 {
		return Tile{}, false
	}
	t := (*ls)[0]
	*ls = (*ls)[1:]
	return t, true
}

func (ls *List) PopTiles(size int) ([]Tile, bool) {
	if size > ls.Count() {
		return nil, false
	}
	tiles := make([]Tile, size)
	copy(tiles, (*ls)[:size])
	*ls = (*ls)[size:]
	return tiles, true
}

// RemoveByID 按 ID 删除一张牌，返回删除的牌。
func (ls *List) RemoveByID(id int) (Tile, bool) {
	for i, t := range *ls {
		if t.ID == id {
			*ls = append((*ls)[:i], (*ls)[i+1:]...)
			return t, true
		}
	}
	return Tile{}, false
}

// RemoveKind 删除 n 张指定牌种，返回删除的牌；不足 n 张则不动返回 false。
func (ls *List) RemoveKind(k Kind, n int) ([]Tile, bool) {
	if ls.CountKind(k) < n {
		return nil, false
	}
	removed := make([]Tile, 0, n)
	kept := make(List, 0, len(*ls)-n)
	for _, t := range *ls {
		if t.Kind == k && len(removed) < n {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	*ls = kept
	return removed, true
}

func (ls List) FindByID(id int) (Tile, bool) {
	for _, t := range ls {
		if t.ID == id {
			return t, true
		}
	}
	return Tile{}, false
}

func (ls List) CountKind(k Kind) int {
	n := 0
	for _, t := range ls {
		if t.Kind == k {
			n++
		}
	}
	return n
}

// Sort 视觉排序：颜色优先、点数次之。
func (ls List) Sort() {
	sort.Slice(ls, func(i, j int) bool {
		return ls[i].SortKey() < ls[j].SortKey()
	})
}

func (ls List) Clone() List {
	out := make(List, len(ls))
	copy(out, ls)
	return out
}
