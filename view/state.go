// Package view holds the transient client side state: the staging table,
// the checkbox selection and the few current view settings. The server stays
// the authority, everything here can be rebuilt from one staging fetch.
package view

import (
	"sort"
	"strings"
)

type Row struct {
	ID        string
	Title     string
	MediaType string
	Path      string
	Size      int64
	Year      int
	Watched   bool
	Monitored bool
	Dimmed    bool
}

// Table is the rendered staging list with client side sorting.
type Table struct {
	rows    []Row
	sortKey string
	sortAsc bool
}

func (t *Table) SetRows(rows []Row) {
	t.rows = rows
	if t.sortKey != "" {
		t.applySort()
	}
}

func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Find(id string) (Row, bool) {
	for idx := range t.rows {
		if t.rows[idx].ID == id {
			return t.rows[idx], true
		}
	}
	return Row{}, false
}

// SortBy sorts by title, year, size or type. Re-sorting on the same key
// flips the direction, like clicking a column header twice.
func (t *Table) SortBy(key string) {
	if t.sortKey == key {
		t.sortAsc = !t.sortAsc
	} else {
		t.sortKey = key
		t.sortAsc = true
	}
	t.applySort()
}

func (t *Table) applySort() {
	key := t.sortKey
	asc := t.sortAsc
	sort.SliceStable(t.rows, func(i, j int) bool {
		var less bool
		switch key {
		case "year":
			less = t.rows[i].Year < t.rows[j].Year
		case "size":
			less = t.rows[i].Size < t.rows[j].Size
		case "type":
			less = t.rows[i].MediaType < t.rows[j].MediaType
		default:
			less = strings.ToLower(t.rows[i].Title) < strings.ToLower(t.rows[j].Title)
		}
		if !asc {
			return !less
		}
		return less
	})
}

// DimRows marks rows as finished ahead of removal, the dimmed then removed
// rendering of a completed bulk move.
func (t *Table) DimRows(ids []string) {
	for idx := range t.rows {
		if containsID(ids, t.rows[idx].ID) {
			t.rows[idx].Dimmed = true
		}
	}
}

// RemoveRows drops exactly the given ids, other rows stay untouched.
func (t *Table) RemoveRows(ids []string) {
	kept := t.rows[:0]
	for idx := range t.rows {
		if !containsID(ids, t.rows[idx].ID) {
			kept = append(kept, t.rows[idx])
		}
	}
	t.rows = kept
}

// SetWatched updates the watched flag of one row in place.
func (t *Table) SetWatched(id string, v bool) {
	for idx := range t.rows {
		if t.rows[idx].ID == id {
			t.rows[idx].Watched = v
			return
		}
	}
}

// SetMonitored updates the monitored flag of one row in place.
func (t *Table) SetMonitored(id string, v bool) {
	for idx := range t.rows {
		if t.rows[idx].ID == id {
			t.rows[idx].Monitored = v
			return
		}
	}
}

func containsID(ids []string, id string) bool {
	for idx := range ids {
		if ids[idx] == id {
			return true
		}
	}
	return false
}

// Selection mirrors the checked checkboxes. Membership never survives the
// row it belongs to.
type Selection struct {
	ids map[string]struct{}
}

func (s *Selection) Toggle(id string, checked bool) {
	if s.ids == nil {
		s.ids = make(map[string]struct{}, 10)
	}
	if checked {
		s.ids[id] = struct{}{}
	} else {
		delete(s.ids, id)
	}
}

func (s *Selection) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Count() int { return len(s.ids) }

func (s *Selection) Clear() { s.ids = nil }

func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Prune drops selected ids that no longer have a row.
func (s *Selection) Prune(t *Table) {
	for id := range s.ids {
		if _, ok := t.Find(id); !ok {
			delete(s.ids, id)
		}
	}
}

// State is the one explicit view state object. It is owned by the
// controller and passed by reference, nothing hides in package globals.
type State struct {
	Table       Table
	Selection   Selection
	AppType     string // sonarr or radarr
	ActiveMedia string // media id shown in the detail view
	LastUser    string
	Filter      string
}
