package gameclient

import (
	"context"
	"fmt"

	"github.com/bassista/go_sam/internal/config"
	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
)

// NewClientFromConfig creates the GameClient selected by cfg.Type.
// For "file" (the default) the library document is loaded from cfg.LibraryFile;
// a missing file yields an empty library. The returned repository is nil for
// clients that have nothing to persist.
func NewClientFromConfig(ctx context.Context, cfg config.ClientConfig) (GameClient, *repository.JSONFile[repository.LibraryDocument], error) {
	switch cfg.Type {
	case config.ClientTypeFile, "":
		repo, err := repository.NewJSONFile[repository.LibraryDocument](cfg.LibraryFile)
		if err != nil {
			return nil, nil, err
		}
		if !repo.Exists() {
			logger.WithComponent("gameclient").Warnf("library file %s not found, starting with an empty library", cfg.LibraryFile)
			return NewFileClient(), repo, nil
		}
		doc, err := repo.Load(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load library: %w", err)
		}
		return NewFileClientFromDocument(*doc), repo, nil
	case config.ClientTypeWebAPI:
		wc, err := NewWebClient(cfg.BaseURL, cfg.APIKey, cfg.SteamID)
		if err != nil {
			return nil, nil, err
		}
		return wc, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown client type: %s (supported: %s, %s)", cfg.Type, config.ClientTypeFile, config.ClientTypeWebAPI)
	}
}
