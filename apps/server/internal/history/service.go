package history

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mahjong-lite/apps/server/internal/config"
	"mahjong-lite/apps/server/internal/room"
	"mahjong-lite/internal/logx"
	"mahjong-lite/mahjong"
)

const defaultListLimit = 20

// Record 一局的结算留痕。
type Record struct {
	ID       int64          `json:"id"`
	RoomID   string         `json:"roomId"`
	Round    int            `json:"round"`
	WinType  string         `json:"winType"`
	Winners  []int          `json:"winners"`
	Payer    int            `json:"payer"`
	DrawGame bool           `json:"drawGame"`
	Players  []PlayerResult `json:"players"`
	Events   []EventRow     `json:"events,omitempty"`
	PlayedAt time.Time      `json:"playedAt"`
}

// EventRow 本局广播过的一条公共帧，按 serverSeq 有序，
// 可以按顺序回放一局的牌桌事件。
type EventRow struct {
	Seq     uint64          `json:"seq"`
	Type    string          `json:"type"`
	TsMs    int64           `json:"tsMs"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PlayerResult 单座位在这一局里的进出和局后总分。
type PlayerResult struct {
	Seat  int    `json:"seat"`
	Name  string `json:"name"`
	Robot bool   `json:"robot"`
	Delta int    `json:"delta"`
	Score int    `json:"score"`
}

// Service 结算留痕的存储契约。
type Service interface {
	Append(ctx context.Context, rec Record) error
	// ListRecent roomID 为空表示不过滤。
	ListRecent(ctx context.Context, roomID string, limit int) ([]Record, error)
	Close() error
}

// New 按配置挑后端。
func New(conf config.HistoryConf) (Service, error) {
	mode := strings.ToLower(strings.TrimSpace(conf.Mode))
	switch mode {
	case "", "memory", "mem":
		return newMemoryService(conf.KeepRecent), nil
	case "sqlite":
		return newSQLiteService(conf.SQLitePath)
	case "postgres", "postgresql", "db":
		return newPostgresService(conf.PostgresDSN)
	default:
		return nil, fmt.Errorf("invalid history mode %q", mode)
	}
}

// Hook 把房间结算回调接到留痕存储上。写失败只记日志，不影响牌局。
func Hook(svc Service) room.RoundEndHook {
	return func(info room.RoundEndInfo) {
		rec := fromRoundEnd(info)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svc.Append(ctx, rec); err != nil {
			logx.Error("[History] append failed for room %s: %v", info.RoomID, err)
		}
	}
}

func fromRoundEnd(info room.RoundEndInfo) Record {
	rec := Record{
		RoomID:   info.RoomID,
		Round:    info.Result.Round,
		WinType:  info.Result.WinType.String(),
		Winners:  info.Result.Winners,
		Payer:    info.Result.Payer,
		DrawGame: info.Result.DrawGame,
		PlayedAt: time.Now(),
	}
	deltas := make(map[int]int, len(info.Result.Deltas))
	for _, d := range info.Result.Deltas {
		deltas[d.Seat] = d.Delta
	}
	for _, p := range info.Snapshot.Players {
		if p.Seat == mahjong.InvalidSeat {
			continue
		}
		rec.Players = append(rec.Players, PlayerResult{
			Seat:  p.Seat,
			Name:  p.Name,
			Robot: p.Robot,
			Delta: deltas[p.Seat],
			Score: p.Score,
		})
	}
	for _, env := range info.Events {
		row := EventRow{Seq: env.ServerSeq, Type: env.Type, TsMs: env.ServerTsMs}
		if env.Payload != nil {
			if raw, err := json.Marshal(env.Payload); err == nil {
				row.Payload = raw
			}
		}
		rec.Events = append(rec.Events, row)
	}
	return rec
}
