package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mercator-hq/ganymede/pkg/audit"
)

// Memory implements audit.Storage using an in-memory map. It is meant
// for tests and for running with auditing enabled but nothing durable.
type Memory struct {
	records map[string]*audit.Record
	mu      sync.RWMutex
}

// NewMemory creates an in-memory storage backend.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*audit.Record),
	}
}

// Store persists an audit record in memory.
func (s *Memory) Store(ctx context.Context, record *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = copyRecord(record)
	return nil
}

// Query retrieves audit records matching the query filters. Results are
// sorted and paginated the same way the SQLite backend sorts them.
func (s *Memory) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	s.mu.RLock()
	var results []*audit.Record
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, copyRecord(record))
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query.SortBy, query.SortOrder)

	start := query.Offset
	if start > len(results) {
		return []*audit.Record{}, nil
	}
	limit := audit.DefaultQueryLimit
	if query.Limit > 0 {
		limit = query.Limit
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}

	return results[start:end], nil
}

// Count returns the number of audit records matching the query filters.
func (s *Memory) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes audit records matching the query filters.
func (s *Memory) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toDelete []string
	for id, record := range s.records {
		if matchesQuery(record, query) {
			toDelete = append(toDelete, id)
		}
	}
	for _, id := range toDelete {
		delete(s.records, id)
	}
	return int64(len(toDelete)), nil
}

// Close releases the stored records.
func (s *Memory) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*audit.Record)
	return nil
}

// GetByID retrieves a single record by ID, or nil. Test helper.
func (s *Memory) GetByID(id string) *audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil
	}
	return copyRecord(record)
}

// Size returns the number of stored records. Test helper.
func (s *Memory) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}

// copyRecord clones a record so callers cannot mutate stored state.
func copyRecord(record *audit.Record) *audit.Record {
	clone := *record
	if record.ViolationTags != nil {
		clone.ViolationTags = make(map[string]int, len(record.ViolationTags))
		for tag, n := range record.ViolationTags {
			clone.ViolationTags[tag] = n
		}
	}
	return &clone
}

// matchesQuery checks whether a record matches the query filters.
func matchesQuery(record *audit.Record, query *audit.Query) bool {
	if query.StartTime != nil && record.StartedTime.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.StartedTime.After(*query.EndTime) {
		return false
	}

	if query.ModuleSetID != "" && record.ModuleSetID != query.ModuleSetID {
		return false
	}
	if query.Document != "" && record.Document != query.Document {
		return false
	}
	if query.Outcome != "" && record.Outcome != query.Outcome {
		return false
	}

	if query.Tag != "" && record.ViolationTags[query.Tag] == 0 {
		return false
	}

	if query.MinViolations != nil && record.Violations < *query.MinViolations {
		return false
	}
	if query.MaxViolations != nil && record.Violations > *query.MaxViolations {
		return false
	}

	return true
}

// sortRecords orders records the way the SQLite backend would for the
// same SortBy and SortOrder values.
func sortRecords(records []*audit.Record, sortBy, sortOrder string) {
	asc := strings.EqualFold(sortOrder, "asc")
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !asc {
			a, b = b, a
		}
		switch sortBy {
		case "violations":
			return a.Violations < b.Violations
		case "duration":
			return a.Duration < b.Duration
		default:
			return a.StartedTime.Before(b.StartedTime)
		}
	})
}
