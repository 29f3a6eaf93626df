package tile

type Suit byte

const (
	Red   Suit = iota // 红方
	Black             // 黑方
)

func (s Suit) String() string {
	switch s {
	case Red:
		return "红"
	case Black:
		return "黑"
	}
	return "?"
}
