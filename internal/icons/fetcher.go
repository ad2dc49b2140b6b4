package icons

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/containerd/errdefs"

	"github.com/bassista/go_sam/internal/repository"
)

const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxBytes = 2 << 20
)

// Fetcher downloads icon images over HTTP.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{client: &http.Client{}, timeout: timeout, maxBytes: maxBytes}
}

// Fetch returns the full body of url. Errors are classified as
// errdefs.ErrNotFound, errdefs.ErrUnavailable or errdefs.ErrInvalidArgument.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty icon url: %w", errdefs.ErrNotFound)
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build icon request: %v: %w", err, errdefs.ErrInvalidArgument)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("get %s: %v: %w", url, err, errdefs.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("get %s: %s: %w", url, resp.Status, errdefs.ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("get %s: %s: %w", url, resp.Status, errdefs.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("get %s: %s: %w", url, resp.Status, errdefs.ErrInvalidArgument)
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("icon %s is %d bytes: %w", url, resp.ContentLength, errdefs.ErrInvalidArgument)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", url, err, errdefs.ErrUnavailable)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("icon %s exceeds %d bytes: %w", url, f.maxBytes, errdefs.ErrInvalidArgument)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("icon %s is empty: %w", url, errdefs.ErrNotFound)
	}
	return data, nil
}

// Download fetches url into store under key. On any failure nothing is written.
func (f *Fetcher) Download(ctx context.Context, store *Store, key repository.IconKey, url string) error {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return err
	}
	if err := store.Write(key, data); err != nil {
		return fmt.Errorf("cache icon %s: %w", key, err)
	}
	return nil
}
