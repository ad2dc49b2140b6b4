package catalog

import (
	"context"

	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/view"
)

// RefreshOwnedApps rebuilds the games list. It returns false, doing nothing,
// when a refresh is already running or ctx is done. Otherwise the list is
// reset to the fetching placeholder at once and filled by a background task
// which then schedules the icon downloads.
func (c *Catalog) RefreshOwnedApps(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	release, ok := c.guard.TryAcquire()
	if !ok {
		logger.WithComponent("catalog").Debug("games refresh already running, request dropped")
		return false
	}

	c.ui.Post(func(v view.View) {
		v.ResetList(view.Games)
		v.ShowPlaceholder(view.Games, view.Fetching)
	})
	c.coord.Go("catalog", func(taskCtx context.Context) {
		defer release()
		c.refresh(taskCtx)
	})
	return true
}

func (c *Catalog) refresh(ctx context.Context) {
	log := logger.WithComponent("catalog")

	// a failed update keeps the cached names, which is good enough to list games
	_ = c.UpdateNameDatabase(ctx)

	owned, err := c.client.OwnedApps(ctx)
	if err != nil {
		log.Warnf("cannot list owned apps: %v", err)
		c.ui.Post(func(v view.View) {
			v.ConfirmList(view.Games)
			v.ShowPlaceholder(view.Games, view.Empty)
		})
		return
	}
	c.owned.Replace(owned)

	ids := c.owned.Slice()
	entries := make([]view.Entry, 0, len(ids))
	for _, id := range ids {
		name := c.names.Name(id)
		if name == "" {
			name = id.String()
		}
		entries = append(entries, view.GameEntry(id, name))
	}
	log.Infof("%d owned apps", len(entries))

	c.ui.Post(func(v view.View) {
		for _, e := range entries {
			v.AddEntry(view.Games, e)
		}
		v.ConfirmList(view.Games)
		if len(entries) == 0 {
			v.ShowPlaceholder(view.Games, view.Empty)
		}
	})

	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		c.DownloadAppIcon(id)
	}
}
