package jobs

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"intern-match/internal/storage"
)

type memStore struct {
	replaced [][]storage.CityJobCollection
	err      error
}

func (m *memStore) ReplaceCityCollections(_ context.Context, groups []storage.CityJobCollection) error {
	if m.err != nil {
		return m.err
	}
	m.replaced = append(m.replaced, groups)
	return nil
}

func TestRefresherReplacesStore(t *testing.T) {
	harvester := NewHarvester(zap.NewNop(), &fakeStrategy{name: "fake", res: &Result{
		Jobs: []storage.JobPosting{
			{Title: "A", City: "Toronto"},
			{Title: "B", City: "toronto"},
			{Title: "C", City: "Berlin"},
		},
		Summary: Summary{Strategy: "fake", Succeeded: 3},
	}})
	store := &memStore{}

	r := NewRefresher(harvester, store, NewRefreshGuard(nil), zap.NewNop())
	stats, err := r.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.TotalJobs != 3 || stats.TotalCities != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(store.replaced) != 1 {
		t.Fatalf("expected exactly one replace, got %d", len(store.replaced))
	}
	if len(store.replaced[0]) != 2 {
		t.Fatalf("expected 2 city groups, got %d", len(store.replaced[0]))
	}
}

func TestRefresherLeavesStoreUntouchedOnEmptyHarvest(t *testing.T) {
	harvester := NewHarvester(zap.NewNop(), &fakeStrategy{name: "fake", err: errors.New("source unreachable")})
	store := &memStore{}

	r := NewRefresher(harvester, store, NewRefreshGuard(nil), zap.NewNop())
	_, err := r.Refresh(context.Background())
	if !errors.Is(err, ErrNoJobsFound) {
		t.Fatalf("expected ErrNoJobsFound, got %v", err)
	}

	// Replace only commits after a non-empty harvest.
	if len(store.replaced) != 0 {
		t.Fatal("store was written despite an empty harvest")
	}
}
