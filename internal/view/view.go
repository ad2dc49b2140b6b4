// Package view defines what the pipeline needs from a list-based UI and the
// dispatcher that confines every View call to one goroutine.
package view

import (
	"fmt"
	"strings"

	"github.com/bassista/go_sam/internal/repository"
)

type ListKind int

const (
	Games ListKind = iota
	Achievements
)

func (k ListKind) String() string {
	if k == Achievements {
		return "achievements"
	}
	return "games"
}

// ParseListKind accepts "games" and "achievements" (case-insensitive).
func ParseListKind(s string) (ListKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "games", "":
		return Games, nil
	case "achievements":
		return Achievements, nil
	default:
		return Games, fmt.Errorf("unknown list kind %q", s)
	}
}

// PlaceholderState is what a list shows when it has no rows.
type PlaceholderState int

const (
	NoPlaceholder PlaceholderState = iota
	Fetching
	Empty
)

func (s PlaceholderState) String() string {
	switch s {
	case Fetching:
		return "fetching"
	case Empty:
		return "empty"
	default:
		return "none"
	}
}

// Entry is one row. ID is the decimal AppID for games and the achievement key
// for achievements. An empty IconPath means the missing-icon image.
type Entry struct {
	ID          string           `json:"id"`
	AppID       repository.AppID `json:"appid"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Hidden      bool             `json:"hidden,omitempty"`
	Unlocked    bool             `json:"unlocked"`
	IconPath    string           `json:"icon,omitempty"`
}

// GameEntry builds the row of an owned app.
func GameEntry(id repository.AppID, name string) Entry {
	return Entry{ID: id.String(), AppID: id, Title: name}
}

// AchievementEntry builds the row of one achievement.
func AchievementEntry(a repository.Achievement) Entry {
	title := a.Name
	if title == "" {
		title = a.Key
	}
	return Entry{
		ID:          a.Key,
		AppID:       a.AppID,
		Title:       title,
		Description: a.Description,
		Hidden:      a.Hidden,
		Unlocked:    a.Unlocked,
	}
}

// View is the UI side of the pipeline. Implementations are not required to be
// safe for concurrent use: the Dispatcher is the only caller.
type View interface {
	// ResetList removes every row and staged entry of kind.
	ResetList(kind ListKind)
	// AddEntry stages e; it is not shown until ConfirmList.
	AddEntry(kind ListKind, e Entry)
	// ConfirmList shows the staged entries and drops rows that were not staged.
	ConfirmList(kind ListKind)
	// RefreshEntry repaints the existing row with e.ID.
	RefreshEntry(kind ListKind, e Entry)
	// RefreshIcon sets the icon of the row identified by key. path == "" means missing.
	RefreshIcon(key repository.IconKey, path string)
	ShowPlaceholder(kind ListKind, state PlaceholderState)
	// Filter hides rows whose title does not contain text (case-insensitive).
	Filter(kind ListKind, text string)
}

// MatchesFilter is the filter rule shared by every View implementation.
func MatchesFilter(title, text string) bool {
	if text == "" {
		return true
	}
	return strings.Contains(strings.ToLower(title), strings.ToLower(text))
}
