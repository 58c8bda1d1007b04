package rms

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	id "casefile/pkg/domain"
	"casefile/pkg/platform/sentinel"
)

// MemoryReader is an in-memory Reader for tests and development.
// Safe for concurrent use.
type MemoryReader struct {
	mu        sync.RWMutex
	records   map[id.RecordID]Record
	incidents map[id.RecordID][]CrisisIncident
}

// NewMemoryReader creates an empty in-memory reader.
func NewMemoryReader() *MemoryReader {
	return &MemoryReader{
		records:   make(map[id.RecordID]Record),
		incidents: make(map[id.RecordID][]CrisisIncident),
	}
}

// AddRecord seeds a record, replacing any existing one with the same ID.
func (m *MemoryReader) AddRecord(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
}

// AddIncident seeds an incident against its record.
func (m *MemoryReader) AddIncident(inc CrisisIncident) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incidents[inc.RecordID] = append(m.incidents[inc.RecordID], inc)
}

func (m *MemoryReader) FindRecord(_ context.Context, recordID id.RecordID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[recordID]
	if !ok {
		return nil, fmt.Errorf("rms record %s: %w", recordID, sentinel.ErrNotFound)
	}
	copied := rec
	return &copied, nil
}

func (m *MemoryReader) IncidentsInRange(_ context.Context, recordID id.RecordID, from, to time.Time) ([]CrisisIncident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []CrisisIncident
	for _, inc := range m.incidents[recordID] {
		if inc.OccurredAt.Before(from) || inc.OccurredAt.After(to) {
			continue
		}
		out = append(out, inc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out, nil
}
