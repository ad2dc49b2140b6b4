package repository

import (
	"sort"
	"strconv"
)

// AppID identifies a game or application in the game client's catalog.
type AppID uint32

func (id AppID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseAppID parses the decimal form produced by String.
func ParseAppID(s string) (AppID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return AppID(v), nil
}

// Metadata holds the timestamp of the last successful write of a document.
type Metadata struct {
	LastUpdate int64 `json:"lastUpdate"` // Unix timestamp in milliseconds
}

// AppEntry is one row of the remote app catalog.
type AppEntry struct {
	AppID AppID  `json:"appid" validate:"required"`
	Name  string `json:"name" validate:"required"`
}

// CatalogDocument is the on-disk copy of the remote AppID->name catalog.
type CatalogDocument struct {
	Metadata Metadata   `json:"metadata"`
	Apps     []AppEntry `json:"apps" validate:"dive"`
}

// Names returns the catalog as a lookup map.
func (d *CatalogDocument) Names() map[AppID]string {
	names := make(map[AppID]string, len(d.Apps))
	for _, a := range d.Apps {
		names[a.AppID] = a.Name
	}
	return names
}

// Achievement is one achievement definition of an app together with its unlock state.
type Achievement struct {
	AppID         AppID  `json:"appid" validate:"required"`
	Key           string `json:"key" validate:"required"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Hidden        bool   `json:"hidden"`
	Unlocked      bool   `json:"unlocked"`
	IconURL       string `json:"icon"`
	IconLockedURL string `json:"iconLocked"`
}

// LibraryGame is an owned game as stored by the offline game client.
type LibraryGame struct {
	AppID        AppID         `json:"appid" validate:"required"`
	Name         string        `json:"name"`
	IconURL      string        `json:"icon"`
	Achievements []Achievement `json:"achievements" validate:"dive"`
}

// LibraryDocument is the persisted state of the offline game client.
type LibraryDocument struct {
	Metadata Metadata      `json:"metadata"`
	Games    []LibraryGame `json:"games" validate:"dive"`
}

// ApplyDefaults fills nil slices and propagates the owning AppID to achievements.
func (d *LibraryDocument) ApplyDefaults() {
	if d.Games == nil {
		d.Games = []LibraryGame{}
	}
	for gi := range d.Games {
		g := &d.Games[gi]
		if g.Achievements == nil {
			g.Achievements = []Achievement{}
		}
		for ai := range g.Achievements {
			if g.Achievements[ai].AppID == 0 {
				g.Achievements[ai].AppID = g.AppID
			}
		}
	}
}

// SortAppIDs sorts ids in ascending order in place and returns them.
func SortAppIDs(ids []AppID) []AppID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IconKey identifies a cached icon: an app icon when Achievement is empty,
// otherwise the icon of one achievement of App.
type IconKey struct {
	App         AppID
	Achievement string
}

func AppIconKey(id AppID) IconKey {
	return IconKey{App: id}
}

func AchievementIconKey(id AppID, key string) IconKey {
	return IconKey{App: id, Achievement: key}
}

func (k IconKey) String() string {
	if k.Achievement == "" {
		return k.App.String()
	}
	return k.App.String() + "/" + k.Achievement
}
