// Package memory provides the in-memory audit store used by unit tests and
// local runs. It enforces the same unique (chain, sequence) slot as the
// Postgres store so the service's retry discipline is exercised either way.
package memory

import (
	"context"
	"sync"

	"northstar/internal/audit"
	"northstar/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	chains map[string][]audit.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{chains: make(map[string][]audit.Record)}
}

// Clear drops all chains. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains = make(map[string][]audit.Record)
}

func (s *InMemoryStore) Append(_ context.Context, rec *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Chain.Key()
	records := s.chains[key]
	if rec.Sequence != uint64(len(records))+1 {
		return sentinel.ErrConflict
	}
	s.chains[key] = append(records, *rec)
	return nil
}

func (s *InMemoryStore) Head(_ context.Context, chain audit.Chain) (*audit.Head, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.chains[chain.Key()]
	if len(records) == 0 {
		return nil, nil
	}
	tip := records[len(records)-1]
	return &audit.Head{Sequence: tip.Sequence, Hash: tip.Hash}, nil
}

func (s *InMemoryStore) Range(_ context.Context, chain audit.Chain, fromSeq, toSeq uint64) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Record
	for _, rec := range s.chains[chain.Key()] {
		if rec.Sequence >= fromSeq && rec.Sequence <= toSeq {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Query(_ context.Context, chain audit.Chain, filter audit.Filter, page audit.Page) (*audit.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.chains[chain.Key()]
	var matched []audit.Record
	// Newest first.
	for i := len(records) - 1; i >= 0; i-- {
		if matches(&records[i], filter) {
			matched = append(matched, records[i])
		}
	}

	result := &audit.QueryResult{Total: len(matched)}
	start := page.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	result.Records = append([]audit.Record{}, matched[start:end]...)
	return result, nil
}

// Snapshot captures the current chain state for tx.MemoryRunner rollback.
// Record slices are append-only, so a shallow copy of the map is enough.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[string][]audit.Record, len(s.chains))
	for key, records := range s.chains {
		snap[key] = records
	}
	return snap
}

// Restore rolls the store back to a snapshot taken by Snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	chains, ok := snapshot.(map[string][]audit.Record)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains = chains
}

// Corrupt overwrites the stored record at the given sequence without
// recomputing its hash. Test helper for tamper scenarios; the production
// store has no counterpart on purpose.
func (s *InMemoryStore) Corrupt(chain audit.Chain, seq uint64, mutate func(*audit.Record)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.chains[chain.Key()]
	for i := range records {
		if records[i].Sequence == seq {
			mutate(&records[i])
			return
		}
	}
}

func matches(rec *audit.Record, f audit.Filter) bool {
	if f.EntityType != "" && rec.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != "" && rec.EntityID != f.EntityID {
		return false
	}
	if f.ActorID != "" && rec.ActorID != f.ActorID {
		return false
	}
	if !f.From.IsZero() && rec.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && rec.Timestamp.After(f.To) {
		return false
	}
	return true
}
