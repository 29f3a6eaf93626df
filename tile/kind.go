package tile

import "fmt"

// Piece 棋子点数 1-7 (将=1, 士=2, 象=3, 车=4, 马=5, 炮=6, 卒=7)
// 同时作为排序权值和 AI 估值的基础分。
type Piece byte

const (
	PieceJiang Piece = 1
	PieceShi   Piece = 2
	PieceXiang Piece = 3
	PieceJu    Piece = 4
	PieceMa    Piece = 5
	PiecePao   Piece = 6
	PieceZu    Piece = 7
)

// Kind 牌种枚举
//
// 编码规则:
// - 高位 (bit 3): 颜色 (0:红, 1:黑)
// - 低3位: 点数 (1:将 .. 7:卒)
//
// 规则比较只看 Kind：红将与黑将是两个不同的牌种。
type Kind byte

const KindInvalid Kind = 0

func MakeKind(s Suit, p Piece) Kind {
	return Kind(byte(s)<<3 | byte(p))
}

// Suit 颜色 (0:红, 1:黑)
func (k Kind) Suit() Suit {
	return Suit(k >> 3)
}

// Piece 点数 1-7
func (k Kind) Piece() Piece {
	return Piece(k & 0x07)
}

// Order 排序/估值用的整数权值 (即点数 1-7)
func (k Kind) Order() int {
	return int(k & 0x07)
}

func (k Kind) Valid() bool {
	p := k.Piece()
	return p >= PieceJiang && p <= PieceZu && k.Suit() <= Black
}

func (k Kind) String() string {
	if !k.Valid() {
		return "Invalid"
	}
	return fmt.Sprintf("%s%s", k.Suit(), pieceGlyph(k.Suit(), k.Piece()))
}

// pieceGlyph 红黑两色的牌面写法不同（帅/将、相/象、兵/卒）。
func pieceGlyph(s Suit, p Piece) string {
	red := [...]string{"帅", "仕", "相", "车", "马", "炮", "兵"}
	black := [...]string{"将", "士", "象", "車", "馬", "砲", "卒"}
	if p < PieceJiang || p > PieceZu {
		return "?"
	}
	if s == Red {
		return red[p-1]
	}
	return black[p-1]
}
