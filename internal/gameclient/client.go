// Package gameclient abstracts the game client the achievement manager talks to.
// Everything outside this package sees only the GameClient interface.
package gameclient

import (
	"context"
	"fmt"

	"github.com/bassista/go_sam/internal/repository"
)

// AppIconURLTemplate is the public CDN banner used when a client knows no better URL.
const AppIconURLTemplate = "https://cdn.cloudflare.steamstatic.com/steam/apps/%d/header_292x136.jpg"

// GameClient is the capability set the pipeline needs from the game client.
// All methods may block and must honour ctx.
type GameClient interface {
	OwnedApps(ctx context.Context) ([]repository.AppID, error)
	// AppSchema returns the achievement definitions of app with their current unlock state.
	AppSchema(ctx context.Context, app repository.AppID) ([]repository.Achievement, error)
	AchievementState(ctx context.Context, app repository.AppID, key string) (bool, error)
	SetAchievementState(ctx context.Context, app repository.AppID, key string, unlocked bool) error
	AppIconURL(ctx context.Context, app repository.AppID) (string, error)
	AchievementIconURL(ctx context.Context, app repository.AppID, key string, unlocked bool) (string, error)
}

func defaultAppIconURL(app repository.AppID) string {
	return fmt.Sprintf(AppIconURLTemplate, uint32(app))
}
