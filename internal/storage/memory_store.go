package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/palemoky/judgment/internal/game"
)

// MemoryStore 进程内存储，单机部署和测试使用
type MemoryStore struct {
	mu      sync.RWMutex
	states  map[string]*game.State
	actions map[string][]game.Action
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:  make(map[string]*game.State),
		actions: make(map[string][]game.Action),
	}
}

func (ms *MemoryStore) Get(_ context.Context, code string) (*game.State, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	s, ok := ms.states[code]
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (ms *MemoryStore) Set(_ context.Context, code string, state *game.State) error {
	if state == nil {
		return nil
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.states[code] = state.Clone()
	return nil
}

func (ms *MemoryStore) Delete(_ context.Context, code string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.states, code)
	delete(ms.actions, code)
	return nil
}

func (ms *MemoryStore) Codes(_ context.Context) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	codes := make([]string, 0, len(ms.states))
	for code := range ms.states {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes, nil
}

func (ms *MemoryStore) Append(_ context.Context, code string, action game.Action) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.actions[code] = append(ms.actions[code], action)
	return nil
}

func (ms *MemoryStore) Actions(_ context.Context, code string) ([]game.Action, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	return slices.Clone(ms.actions[code]), nil
}

func (ms *MemoryStore) Clear(_ context.Context, code string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.actions, code)
	return nil
}
