package repository

import (
	"context"
	"sync"

	"github.com/dskvich/openrouter-telegram-bot/pkg/domain"
)

type memoryHistoryRepository struct {
	mu          sync.RWMutex
	transcripts map[int64][]domain.Turn
}

// NewMemoryHistoryRepository keeps transcripts in process memory; they are lost on restart.
func NewMemoryHistoryRepository() *memoryHistoryRepository {
	return &memoryHistoryRepository{
		transcripts: make(map[int64][]domain.Turn),
	}
}

func (m *memoryHistoryRepository) Load(ctx context.Context, userID int64) ([]domain.Turn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	turns := m.transcripts[userID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (m *memoryHistoryRepository) Save(ctx context.Context, userID int64, turns []domain.Turn) error {
	stored := make([]domain.Turn, len(turns))
	copy(stored, turns)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.transcripts[userID] = stored
	return nil
}

func (m *memoryHistoryRepository) Clear(ctx context.Context, userID int64) error {
	return m.Save(ctx, userID, nil)
}

func (m *memoryHistoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (m *memoryHistoryRepository) Close() error {
	return nil
}
