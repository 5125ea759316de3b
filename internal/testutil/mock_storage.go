//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/judgment/internal/game"
)

// MockRecorder 实现 types.MatchRecorder 的 mock
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordMatch(ctx context.Context, players []*game.Player) error {
	args := m.Called(ctx, players)
	return args.Error(0)
}
