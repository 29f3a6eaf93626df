package tile

import "fmt"

// Tile 一张实体牌。ID 在一局内唯一；规则判定只比较 Kind。
type Tile struct {
	ID   int
	Kind Kind
}

func (t Tile) String() string {
	return fmt.Sprintf("%s#%d", t.Kind, t.ID)
}

// SortKey 视觉排序键：先颜色、再点数、最后 ID 保证稳定。
func (t Tile) SortKey() int {
	return int(t.Kind.Suit())<<16 | t.Kind.Order()<<8 | (t.ID & 0xFF)
}

// NewSet 构造一副完整的牌，每个牌种 copies 张，ID 从 1 起连续分配。
func NewSet(copies int) List {
	out := make(List, 0, len(AllKinds)*copies)
	id := 1
	for _, k := range AllKinds {
		for i := 0; i < copies; i++ {
			out = append(out, Tile{ID: id, Kind: k})
			id++
		}
	}
	return out
}
