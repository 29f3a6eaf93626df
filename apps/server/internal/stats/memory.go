package stats

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryService struct {
	mu      sync.Mutex
	byKey   map[string]*PlayerStats
	display map[string]string // key -> 原始大小写
}

func newMemoryService() *memoryService {
	return &memoryService{
		byKey:   make(map[string]*PlayerStats),
		display: make(map[string]string),
	}
}

func statsKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *memoryService) RecordRound(_ context.Context, outcomes []RoundOutcome) error {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range outcomes {
		key := statsKey(o.Username)
		if key == "" {
			continue
		}
		ps, ok := s.byKey[key]
		if !ok {
			ps = &PlayerStats{Username: o.Username}
			s.byKey[key] = ps
			s.display[key] = o.Username
		}
		applyOutcome(ps, o, now)
	}
	return nil
}

func applyOutcome(ps *PlayerStats, o RoundOutcome, now time.Time) {
	ps.Rounds++
	ps.ScoreDelta += o.Delta
	ps.LastPlayed = now
	switch {
	case o.Win && o.SelfDrawn:
		ps.Wins++
		ps.SelfDrawnWins++
	case o.Win:
		ps.Wins++
		ps.DiscardWins++
	case o.Payout:
		ps.Payouts++
	case o.DrawGame:
		ps.Draws++
	}
}

func (s *memoryService) Get(_ context.Context, username string) (PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps, ok := s.byKey[statsKey(username)]
	if !ok {
		return PlayerStats{}, ErrNotFound
	}
	return *ps, nil
}

func (s *memoryService) Top(_ context.Context, limit int) ([]PlayerStats, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.Lock()
	out := make([]PlayerStats, 0, len(s.byKey))
	for _, ps := range s.byKey {
		out = append(out, *ps)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScoreDelta != out[j].ScoreDelta {
			return out[i].ScoreDelta > out[j].ScoreDelta
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memoryService) Close() error { return nil }
