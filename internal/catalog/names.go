package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/containerd/errdefs"

	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
)

// UpdateNameDatabase makes sure the name database is loaded and not older than
// the staleness window. Within the window it never touches the network; when
// the in-memory database is empty it is first loaded from the cache file.
// A failed download keeps the previous database and is returned after being logged.
func (c *Catalog) UpdateNameDatabase(ctx context.Context) error {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()
	log := logger.WithComponent("catalog")

	if c.names.Len() == 0 && c.repo.Exists() {
		if err := c.loadFromDisk(ctx); err != nil {
			log.Warnf("cannot load cached catalog: %v", err)
		}
	}

	if last := c.names.LastUpdate(); last > 0 {
		age := c.now().Sub(time.UnixMilli(last))
		if age >= 0 && age < c.staleness {
			log.Debugf("catalog is %v old, skipping download", age.Round(time.Second))
			return nil
		}
	}

	doc, err := c.download(ctx)
	if err != nil {
		log.Warnf("catalog download failed, keeping %d cached names: %v", c.names.Len(), err)
		return err
	}
	doc.Metadata.LastUpdate = c.now().UnixMilli()
	if err := c.repo.Save(ctx, doc); err != nil {
		log.Warnf("cannot persist catalog: %v", err)
	}
	c.names.Replace(*doc)
	c.downloads.Add(1)
	log.Infof("catalog updated: %d apps", len(doc.Apps))
	return nil
}

// Reload replaces the name database with the content of the cache file.
// It is the watcher callback for external changes of that file.
func (c *Catalog) Reload(ctx context.Context) error {
	c.updateMu.Lock()
	defer c.updateMu.Unlock()
	return c.loadFromDisk(ctx)
}

// caller holds updateMu
func (c *Catalog) loadFromDisk(ctx context.Context) error {
	doc, err := c.repo.Load(ctx)
	if err != nil {
		return err
	}
	if doc.Metadata.LastUpdate == c.names.LastUpdate() && c.names.Len() == len(doc.Apps) {
		return nil
	}
	c.names.Replace(*doc)
	logger.WithComponent("catalog").Debugf("loaded %d cached app names", len(doc.Apps))
	return nil
}

func (c *Catalog) download(ctx context.Context) (*repository.CatalogDocument, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get catalog: %v: %w", err, errdefs.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get catalog: %s: %w", resp.Status, errdefs.ErrUnavailable)
	}
	doc, err := repository.ParseAppList(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, errdefs.ErrDataLoss)
	}
	return doc, nil
}

// StartWatcher reloads the name database whenever the cache file changes on disk.
func (c *Catalog) StartWatcher(ctx context.Context) error {
	return c.repo.StartWatcher(ctx, func() {
		if !c.repo.Exists() {
			return
		}
		if err := c.Reload(ctx); err != nil {
			logger.WithComponent("catalog").Warnf("reload after file change failed: %v", err)
		}
	})
}
