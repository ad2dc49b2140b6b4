package view

import (
	"sync"

	"github.com/bassista/go_sam/internal/logger"
	"github.com/bassista/go_sam/internal/repository"
)

type list struct {
	staged      []Entry
	rows        []Entry
	index       map[string]int
	placeholder PlaceholderState
	filter      string
}

// MemoryView is a headless View. It mirrors what a widget tree would show
// and can be read concurrently while the Dispatcher mutates it.
type MemoryView struct {
	mu    sync.RWMutex
	lists [2]*list
	icons map[repository.IconKey]string

	iconRefreshes int
}

func NewMemoryView() *MemoryView {
	mv := &MemoryView{icons: map[repository.IconKey]string{}}
	for i := range mv.lists {
		mv.lists[i] = &list{index: map[string]int{}}
	}
	return mv
}

func (m *MemoryView) list(kind ListKind) *list {
	if kind == Achievements {
		return m.lists[Achievements]
	}
	return m.lists[Games]
}

func (m *MemoryView) ResetList(kind ListKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.list(kind)
	l.staged = nil
	l.rows = nil
	l.index = map[string]int{}
	if kind == Achievements {
		for k := range m.icons {
			if k.Achievement != "" {
				delete(m.icons, k)
			}
		}
	}
	logger.WithComponent("view").Debugf("reset %s list", kind)
}

func (m *MemoryView) AddEntry(kind ListKind, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.list(kind)
	l.staged = append(l.staged, e)
	logger.WithComponent("view").Tracef("staged %s entry %s", kind, e.ID)
}

func (m *MemoryView) ConfirmList(kind ListKind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.list(kind)
	rows := make([]Entry, 0, len(l.staged))
	index := make(map[string]int, len(l.staged))
	for _, e := range l.staged {
		if e.IconPath == "" {
			e.IconPath = m.icons[m.iconKey(kind, e)]
		}
		if i, dup := index[e.ID]; dup {
			rows[i] = e
			continue
		}
		index[e.ID] = len(rows)
		rows = append(rows, e)
	}
	l.rows, l.index, l.staged = rows, index, nil
	if len(rows) > 0 {
		l.placeholder = NoPlaceholder
	}
	logger.WithComponent("view").Debugf("confirmed %s list with %d rows", kind, len(rows))
}

func (m *MemoryView) RefreshEntry(kind ListKind, e Entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.list(kind)
	i, ok := l.index[e.ID]
	if !ok {
		return
	}
	if e.IconPath == "" {
		e.IconPath = l.rows[i].IconPath
	}
	l.rows[i] = e
}

func (m *MemoryView) RefreshIcon(key repository.IconKey, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.icons[key] = path
	m.iconRefreshes++

	kind, id := Games, key.App.String()
	if key.Achievement != "" {
		kind, id = Achievements, key.Achievement
	}
	l := m.list(kind)
	if i, ok := l.index[id]; ok && l.rows[i].AppID == key.App {
		l.rows[i].IconPath = path
	}
	if path == "" {
		logger.WithComponent("view").Debugf("icon %s missing", key)
	}
}

func (m *MemoryView) ShowPlaceholder(kind ListKind, state PlaceholderState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list(kind).placeholder = state
	logger.WithComponent("view").Debugf("%s placeholder: %s", kind, state)
}

func (m *MemoryView) Filter(kind ListKind, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list(kind).filter = text
}

// caller holds m.mu
func (m *MemoryView) iconKey(kind ListKind, e Entry) repository.IconKey {
	if kind == Achievements {
		return repository.AchievementIconKey(e.AppID, e.ID)
	}
	return repository.AppIconKey(e.AppID)
}

// Rows returns the confirmed rows of kind that pass the current filter.
func (m *MemoryView) Rows(kind ListKind) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l := m.list(kind)
	out := make([]Entry, 0, len(l.rows))
	for _, e := range l.rows {
		if MatchesFilter(e.Title, l.filter) {
			out = append(out, e)
		}
	}
	return out
}

// Row returns the confirmed row id of kind regardless of the filter.
func (m *MemoryView) Row(kind ListKind, id string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l := m.list(kind)
	i, ok := l.index[id]
	if !ok {
		return Entry{}, false
	}
	return l.rows[i], true
}

func (m *MemoryView) Staged(kind ListKind) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.list(kind).staged)
}

func (m *MemoryView) Placeholder(kind ListKind) PlaceholderState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(kind).placeholder
}

func (m *MemoryView) FilterText(kind ListKind) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.list(kind).filter
}

// Icon returns the last path painted for key and whether key was refreshed at all.
func (m *MemoryView) Icon(key repository.IconKey) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.icons[key]
	return p, ok
}

// IconRefreshes counts RefreshIcon calls.
func (m *MemoryView) IconRefreshes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.iconRefreshes
}
