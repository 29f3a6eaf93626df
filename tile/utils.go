package tile

// Kinds2bytes 压扁成字节串，日志里打得短一些。
func Kinds2bytes(ts []Tile) []byte {
	out := make([]byte, 0, len(ts))
	for _, t := range ts {
		out = append(out, byte(t.Kind))
	}
	return out
}

// ContainsID 工具：判断牌是否在切片里
func ContainsID(tiles []Tile, id int) bool {
	for _, t := range tiles {
		if t.ID == id {
			return true
		}
	}
	return false
}

// IDs 取出全部 ID，保持原顺序。
func IDs(tiles []Tile) []int {
	out := make([]int, 0, len(tiles))
	for _, t := range tiles {
		out = append(out, t.ID)
	}
	return out
}
