// Package store keeps recent district observations in memory for the
// scheduled analysis to snapshot.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// ErrNotFound is returned when a district has no observations.
var ErrNotFound = errors.New("no observations for district")

// MemoryStore is a concurrency-safe, per-district observation history.
// It implements pipeline.BatchLoader.
type MemoryStore struct {
	mu sync.RWMutex

	// key: district ID, value: observations sorted by Date
	data map[string][]domain.DistrictObservation

	maxAge time.Duration // observations older than now-maxAge are dropped; 0 keeps everything
}

// NewMemoryStore creates a MemoryStore retaining observations for maxAge.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string][]domain.DistrictObservation),
		maxAge: maxAge,
	}
}

// LoadBatch stores observations. A record with the same district and
// timestamp as a stored one replaces it.
func (s *MemoryStore) LoadBatch(_ context.Context, obs []domain.DistrictObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]bool)
	for _, o := range obs {
		history := s.data[o.DistrictID]
		i, found := slices.BinarySearchFunc(history, o.Date, func(e domain.DistrictObservation, t time.Time) int {
			return e.Date.Compare(t)
		})
		if found {
			history[i] = o
		} else {
			history = slices.Insert(history, i, o)
		}
		s.data[o.DistrictID] = history
		touched[o.DistrictID] = true
	}

	if s.maxAge > 0 {
		cutoff := domain.Clock().Now().Add(-s.maxAge)
		for id := range touched {
			s.data[id] = prune(s.data[id], cutoff)
		}
	}
	return nil
}

// Prune drops every observation older than the retention window.
func (s *MemoryStore) Prune() {
	if s.maxAge <= 0 {
		return
	}
	cutoff := domain.Clock().Now().Add(-s.maxAge)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, history := range s.data {
		if history = prune(history, cutoff); len(history) == 0 {
			delete(s.data, id)
			continue
		}
		s.data[id] = history
	}
}

func prune(history []domain.DistrictObservation, cutoff time.Time) []domain.DistrictObservation {
	i := 0
	for ; i < len(history); i++ {
		if !history[i].Date.Before(cutoff) {
			break
		}
	}
	return history[i:]
}

// Latest returns the most recent observation for a district.
func (s *MemoryStore) Latest(districtID string) (domain.DistrictObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[districtID]
	if len(history) == 0 {
		return domain.DistrictObservation{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// Window returns a copy of every observation between from and to
// (inclusive), ordered by district and then time.
func (s *MemoryStore) Window(from, to time.Time) []domain.DistrictObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DistrictObservation
	for _, id := range domain.SortedKeys(s.data) {
		for _, o := range s.data[id] {
			if o.Date.Before(from) || o.Date.After(to) {
				continue
			}
			out = append(out, o)
		}
	}
	return out
}

// Len returns the total number of stored observations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, history := range s.data {
		n += len(history)
	}
	return n
}
