package repository

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
)

type appListPayload struct {
	AppList struct {
		Apps []struct {
			AppID AppID  `json:"appid"`
			Name  string `json:"name"`
		} `json:"apps"`
	} `json:"applist"`
}

// ParseAppList decodes the remote catalog payload
// ({"applist":{"apps":[{"appid":N,"name":"..."}]}}).
// Unnamed entries are skipped and a repeated id keeps its last name.
func ParseAppList(r io.Reader) (*CatalogDocument, error) {
	var payload appListPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode app list: %w", err)
	}

	index := make(map[AppID]int, len(payload.AppList.Apps))
	apps := make([]AppEntry, 0, len(payload.AppList.Apps))
	for _, a := range payload.AppList.Apps {
		name := strings.TrimSpace(a.Name)
		if a.AppID == 0 || name == "" {
			continue
		}
		if i, ok := index[a.AppID]; ok {
			apps[i].Name = name
			continue
		}
		index[a.AppID] = len(apps)
		apps = append(apps, AppEntry{AppID: a.AppID, Name: name})
	}
	return &CatalogDocument{Apps: apps}, nil
}
