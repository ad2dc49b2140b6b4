// Package mocks holds testify mocks of the gameclient interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bassista/go_sam/internal/repository"
)

// GameClient is a testify mock of gameclient.GameClient.
type GameClient struct {
	mock.Mock
}

func (m *GameClient) OwnedApps(ctx context.Context) ([]repository.AppID, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]repository.AppID)
	return ids, args.Error(1)
}

func (m *GameClient) AppSchema(ctx context.Context, app repository.AppID) ([]repository.Achievement, error) {
	args := m.Called(ctx, app)
	achs, _ := args.Get(0).([]repository.Achievement)
	return achs, args.Error(1)
}

func (m *GameClient) AchievementState(ctx context.Context, app repository.AppID, key string) (bool, error) {
	args := m.Called(ctx, app, key)
	return args.Bool(0), args.Error(1)
}

func (m *GameClient) SetAchievementState(ctx context.Context, app repository.AppID, key string, unlocked bool) error {
	args := m.Called(ctx, app, key, unlocked)
	return args.Error(0)
}

func (m *GameClient) AppIconURL(ctx context.Context, app repository.AppID) (string, error) {
	args := m.Called(ctx, app)
	return args.String(0), args.Error(1)
}

func (m *GameClient) AchievementIconURL(ctx context.Context, app repository.AppID, key string, unlocked bool) (string, error) {
	args := m.Called(ctx, app, key, unlocked)
	return args.String(0), args.Error(1)
}
