package tile

// 红方
const (
	KindRedJiang Kind = iota + 0x01
	KindRedShi
	KindRedXiang
	KindRedJu
	KindRedMa
	KindRedPao
	KindRedZu
)

// 黑方
const (
	KindBlackJiang Kind = iota + 0x09
	KindBlackShi
	KindBlackXiang
	KindBlackJu
	KindBlackMa
	KindBlackPao
	KindBlackZu
)

// AllKinds 全部 14 个牌种，按颜色、点数排列。
var AllKinds = []Kind{
	KindRedJiang, KindRedShi, KindRedXiang, KindRedJu, KindRedMa, KindRedPao, KindRedZu,
	KindBlackJiang, KindBlackShi, KindBlackXiang, KindBlackJu, KindBlackMa, KindBlackPao, KindBlackZu,
}
