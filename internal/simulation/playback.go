package simulation

import "sort"

// SortedTables returns the model's tables ordered by id. A positive capacity
// keeps only tables with that max capacity.
func (m *DerivedModel) SortedTables(capacity int) []*TableRecord {
	tables := make([]*TableRecord, 0, len(m.Tables))
	for _, t := range m.Tables {
		if capacity > 0 && t.MaxCapacity != capacity {
			continue
		}
		tables = append(tables, t)
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].TableID < tables[j].TableID
	})
	return tables
}

// Capacities lists the distinct max capacities in ascending order.
func (m *DerivedModel) Capacities() []int {
	seen := make(map[int]struct{})
	caps := []int{}
	for _, t := range m.Tables {
		if _, ok := seen[t.MaxCapacity]; ok {
			continue
		}
		seen[t.MaxCapacity] = struct{}{}
		caps = append(caps, t.MaxCapacity)
	}
	sort.Ints(caps)
	return caps
}

// VisibleGroups returns the groups on tableID already created at playback
// position at, in creation order.
func (m *DerivedModel) VisibleGroups(tableID int, at float64) []OccupancyGroup {
	groups := []OccupancyGroup{}
	for _, g := range m.OccupancyGroups {
		if g.CreationRel <= at && g.HasTable(tableID) {
			groups = append(groups, g)
		}
	}
	return groups
}

// NextStart returns the smallest group start strictly after the given
// position on the arrival-time axis.
func (m *DerivedModel) NextStart(after int) (int, bool) {
	next, found := 0, false
	for _, g := range m.OccupancyGroups {
		if g.Start > after && (!found || g.Start < next) {
			next, found = g.Start, true
		}
	}
	return next, found
}

// TableSnapshot is one table's state at a playback position.
type TableSnapshot struct {
	TableID     int              `json:"table_id"`
	MaxCapacity int              `json:"max_capacity"`
	MinCapacity int              `json:"min_capacity"`
	Groups      []OccupancyGroup `json:"groups"`
}

// Snapshot is the whole floor at a playback position.
type Snapshot struct {
	At      float64         `json:"at"`
	Created int             `json:"created"` // groups created at or before At
	Total   int             `json:"total"`
	Tables  []TableSnapshot `json:"tables"`
}

// Snapshot renders the tables matching capacity (0 for all) at position at.
func (m *DerivedModel) Snapshot(at float64, capacity int) Snapshot {
	snap := Snapshot{
		At:     at,
		Total:  len(m.OccupancyGroups),
		Tables: []TableSnapshot{},
	}
	for _, g := range m.OccupancyGroups {
		if g.CreationRel <= at {
			snap.Created++
		}
	}
	for _, t := range m.SortedTables(capacity) {
		snap.Tables = append(snap.Tables, TableSnapshot{
			TableID:     t.TableID,
			MaxCapacity: t.MaxCapacity,
			MinCapacity: t.MinCapacity,
			Groups:      m.VisibleGroups(t.TableID, at),
		})
	}
	return snap
}
