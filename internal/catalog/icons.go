package catalog

import (
	"context"

	"github.com/bassista/go_sam/internal/icons"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/view"
)

// DownloadAppIcon makes the icon of id available in the icon cache.
// While a download of id is in flight only its completion notifies, even if
// the file is already on disk. A cached icon notifies right away. Otherwise a
// de-duplicated download is issued and its completion, successful or not,
// notifies exactly once.
// A failed download writes nothing and is not retried until requested again.
func (c *Catalog) DownloadAppIcon(id repository.AppID) {
	key := repository.AppIconKey(id)
	if c.iconReg.InFlight(key.String()) {
		logger.WithComponent("catalog").Tracef("icon of app %s already downloading", id)
		return
	}
	if c.store.Has(key) {
		c.states.Set(key, icons.Succeeded)
		c.Update(id)
		return
	}

	c.states.Set(key, icons.Pending)
	issued := c.iconReg.Issue(key.String(), func(ctx context.Context) error {
		url, err := c.client.AppIconURL(ctx, id)
		if err != nil {
			return err
		}
		return c.fetcher.Download(ctx, c.store, key, url)
	}, func(err error) {
		if err != nil {
			logger.WithComponent("catalog").Debugf("icon of app %s not available: %v", id, err)
			c.states.Set(key, icons.Failed)
		} else {
			c.states.Set(key, icons.Succeeded)
		}
		c.Update(id)
	})
	if !issued {
		logger.WithComponent("catalog").Tracef("icon of app %s already downloading", id)
	}
}

// IconState returns the download state of the icon of id.
func (c *Catalog) IconState(id repository.AppID) icons.State {
	return c.states.Get(repository.AppIconKey(id))
}

// IconPath returns the cached icon file of id, or "".
func (c *Catalog) IconPath(id repository.AppID) string {
	return c.store.CachedPath(repository.AppIconKey(id))
}

// InvalidateIcon erases the cached icon of id; the next request downloads it again.
func (c *Catalog) InvalidateIcon(id repository.AppID) error {
	key := repository.AppIconKey(id)
	c.states.Set(key, icons.NotRequested)
	return c.store.Erase(key)
}

// Subscribe registers sink; it is called with the AppID of every icon that
// reached a final state. Sinks run on the completing goroutine and must not block.
func (c *Catalog) Subscribe(sink func(repository.AppID)) {
	if sink == nil {
		return
	}
	c.sinkMu.Lock()
	c.sinks = append(c.sinks, sink)
	c.sinkMu.Unlock()
}

// Update notifies every sink that the icon of id changed.
func (c *Catalog) Update(id repository.AppID) {
	c.sinkMu.RLock()
	sinks := c.sinks
	c.sinkMu.RUnlock()
	for _, s := range sinks {
		s(id)
	}
}

// paintIcon is the default sink: it repaints the game row on the UI goroutine.
func (c *Catalog) paintIcon(id repository.AppID) {
	key := repository.AppIconKey(id)
	path := ""
	if c.states.Get(key) == icons.Succeeded {
		path = c.store.CachedPath(key)
	}
	c.ui.Post(func(v view.View) {
		v.RefreshIcon(key, path)
	})
}
