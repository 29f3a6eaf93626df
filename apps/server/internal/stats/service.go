package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mahjong-lite/apps/server/internal/config"
	"mahjong-lite/apps/server/internal/room"
	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong"
)

var ErrNotFound = errors.New("no stats for player")

// PlayerStats 按玩家名累计的战绩。AI 座位不计。
type PlayerStats struct {
	Username      string    `json:"username"`
	Rounds        int       `json:"rounds"`
	Wins          int       `json:"wins"`
	SelfDrawnWins int       `json:"selfDrawnWins"`
	DiscardWins   int       `json:"discardWins"`
	Payouts       int       `json:"payouts"` // 点炮次数
	Draws         int       `json:"draws"`
	ScoreDelta    int       `json:"scoreDelta"`
	LastPlayed    time.Time `json:"lastPlayed"`
}

// RoundOutcome 单人单局的增量。
type RoundOutcome struct {
	Username  string
	Win       bool
	SelfDrawn bool
	Payout    bool
	DrawGame  bool
	Delta     int
}

// Service 战绩存储契约。
type Service interface {
	RecordRound(ctx context.Context, outcomes []RoundOutcome) error
	Get(ctx context.Context, username string) (PlayerStats, error)
	Top(ctx context.Context, limit int) ([]PlayerStats, error)
	Close() error
}

// New 按配置挑后端。
func New(conf config.StatsConf) (Service, error) {
	mode := strings.ToLower(strings.TrimSpace(conf.Mode))
	switch mode {
	case "", "memory", "mem":
		return newMemoryService(), nil
	case "sqlite":
		return newSQLiteService(conf.SQLitePath)
	default:
		return nil, fmt.Errorf("invalid stats mode %q", mode)
	}
}

// Hook 把结算回调接到战绩累计上。
func Hook(svc Service) room.RoundEndHook {
	return func(info room.RoundEndInfo) {
		outcomes := fromRoundEnd(info)
		if len(outcomes) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svc.RecordRound(ctx, outcomes); err != nil {
			logx.Error("[Stats] record failed for room %s: %v", info.RoomID, err)
		}
	}
}

func fromRoundEnd(info room.RoundEndInfo) []RoundOutcome {
	winners := make(map[int]bool, len(info.Result.Winners))
	for _, seat := range info.Result.Winners {
		winners[seat] = true
	}
	deltas := make(map[int]int, len(info.Result.Deltas))
	for _, d := range info.Result.Deltas {
		deltas[d.Seat] = d.Delta
	}

	var out []RoundOutcome
	for _, p := range info.Snapshot.Players {
		if p.Robot || p.Name == "" {
			continue
		}
		out = append(out, RoundOutcome{
			Username:  p.Name,
			Win:       winners[p.Seat],
			SelfDrawn: winners[p.Seat] && info.Result.WinType == mahjong.WinTypeSelfDrawn,
			Payout:    p.Seat == info.Result.Payer && !winners[p.Seat],
			DrawGame:  info.Result.DrawGame,
			Delta:     deltas[p.Seat],
		})
	}
	return out
}
