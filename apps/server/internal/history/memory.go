package history

import (
	"context"
	"sync"
)

const defaultKeepRecent = 100

// memoryService 环形保留最近 N 局，进程重启即清零。
type memoryService struct {
	mu         sync.Mutex
	nextID     int64
	keepRecent int
	records    []Record
}

func newMemoryService(keepRecent int) *memoryService {
	if keepRecent <= 0 {
		keepRecent = defaultKeepRecent
	}
	return &memoryService{keepRecent: keepRecent}
}

func (s *memoryService) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	s.records = append(s.records, rec)
	if len(s.records) > s.keepRecent {
		s.records = s.records[len(s.records)-s.keepRecent:]
	}
	return nil
}

func (s *memoryService) ListRecent(_ context.Context, roomID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, limit)
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if roomID != "" && s.records[i].RoomID != roomID {
			continue
		}
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *memoryService) Close() error { return nil }
