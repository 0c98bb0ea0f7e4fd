package search

import (
	"context"
	"sync"

	"spotfinder/models"
	"spotfinder/services/providers"
)

// fakeProvider records calls and serves canned responses.
type fakeProvider struct {
	name    string
	results []models.Candidate
	err     error
	details map[string]models.Candidate
	nearby  []models.Candidate
	panics  bool

	mu          sync.Mutex
	calls       int
	limits      []int
	tokens      []string
	detailCalls int
	nearbyCalls int
	nearbyQs    []providers.NearbyQuery
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Search(ctx context.Context, _ string, limit int, _ *models.LatLng) ([]models.Candidate, error) {
	f.mu.Lock()
	f.calls++
	f.limits = append(f.limits, limit)
	f.tokens = append(f.tokens, providers.SessionTokenFrom(ctx))
	f.mu.Unlock()

	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	out := f.results
	if len(out) > limit {
		out = out[:limit]
	}
	return cloneCandidates(out), nil
}

func (f *fakeProvider) Details(_ context.Context, id string) (*models.Candidate, error) {
	f.mu.Lock()
	f.detailCalls++
	f.mu.Unlock()
	c, ok := f.details[id]
	if !ok {
		return nil, providers.ErrNotFound
	}
	return &c, nil
}

func (f *fakeProvider) Nearby(_ context.Context, q providers.NearbyQuery) ([]models.Candidate, error) {
	f.mu.Lock()
	f.nearbyCalls++
	f.nearbyQs = append(f.nearbyQs, q)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return cloneCandidates(f.nearby), nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// recordingDispatcher collects dispatched candidates.
type recordingDispatcher struct {
	mu   sync.Mutex
	seen []models.Candidate
}

func (d *recordingDispatcher) Dispatch(_ context.Context, c models.Candidate) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = append(d.seen, c)
}

func (d *recordingDispatcher) Close() {}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func candidate(source, id, name string, lat, lon float64) models.Candidate {
	return models.Candidate{Name: name, Latitude: lat, Longitude: lon, Source: source, ProviderID: id}
}

// spread returns n distinct candidates about 1 km apart.
func spread(source, prefix string, n int) []models.Candidate {
	out := make([]models.Candidate, n)
	for i := range out {
		out[i] = candidate(source, prefix+string(rune('a'+i)), prefix+" place "+string(rune('a'+i)), 40+float64(i)*0.01, -74)
	}
	return out
}
