package mahjong

const (
	baseWinScore      = 100
	selfDrawnMultiple = 6
)

type ScoreDelta struct {
	Seat  int
	Delta int
}

// RoundResult 一局的结算记录。
type RoundResult struct {
	Round    int
	WinType  WinType
	Winners  []int
	Payer    int // 点炮座位，自摸/流局时为 InvalidSeat
	DrawGame bool
	Deltas   []ScoreDelta
}

// Scorer 结算钩子。番型扩展从这里挂进来，引擎只应用返回的增量。
type Scorer interface {
	Score(winners []int, payer int, winType WinType, players int) []ScoreDelta
}

// baselineScorer 基础分表：
// 点炮：赢家 +100，放铳者 -100（多响时对每个赢家各付一份）。
// 自摸：赢家 +100x6，其余家均摊（向上取整）。
// 流局：不动分。
type baselineScorer struct{}

func (baselineScorer) Score(winners []int, payer int, winType WinType, players int) []ScoreDelta {
	switch winType {
	case WinTypeDiscard:
		deltas := make([]ScoreDelta, 0, len(winners)+1)
		for _, w := range winners {
			deltas = append(deltas, ScoreDelta{Seat: w, Delta: baseWinScore})
		}
		if payer != InvalidSeat {
			deltas = append(deltas, ScoreDelta{Seat: payer, Delta: -baseWinScore * len(winners)})
		}
		return deltas
	case WinTypeSelfDrawn:
		if len(winners) != 1 || players < 2 {
			return nil
		}
		total := baseWinScore * selfDrawnMultiple
		share := (total + players - 2) / (players - 1) // ceil
		deltas := []ScoreDelta{{Seat: winners[0], Delta: total}}
		for seat := 0; seat < players; seat++ {
			if seat == winners[0] {
				continue
			}
			deltas = append(deltas, ScoreDelta{Seat: seat, Delta: -share})
		}
		return deltas
	}
	return nil
}
