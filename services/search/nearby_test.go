package search

import (
	"context"
	"testing"

	"spotfinder/database/index"
	placeRepo "spotfinder/database/repository/place"
	"spotfinder/models"
	"spotfinder/services/identity"
	"spotfinder/services/providers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestNearby(t *testing.T, remote providers.NearbyProvider) (*NearbyResolver, *placeRepo.MemoryPlaceRepo, *index.Index) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	repo := placeRepo.NewMemoryPlaceRepo()
	ix := newMemoryIndex(t)
	resolver := identity.NewResolver(repo, identity.WithLogger(logger))
	persister := NewPlacePersister(resolver, ix, logger)
	return NewNearbyResolver(repo, remote, resolver, persister, 0, logger), repo, ix
}

func newMemoryIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, err := index.Open(":memory:", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestNearby_StoreHitSkipsRemote(t *testing.T) {
	ctx := context.Background()
	remote := &fakeProvider{name: models.SourceGoogle, nearby: spread(models.SourceGoogle, "ggl", 3)}
	n, repo, _ := newTestNearby(t, remote)

	// About 20 m north of the query point.
	require.NoError(t, repo.Upsert(ctx, &models.Place{ID: "P1", Name: "Corner Cafe", Latitude: 40.71298, Longitude: -74.0060}))

	got, err := n.Nearby(ctx, providers.NearbyQuery{
		Location:     models.LatLng{Latitude: 40.7128, Longitude: -74.0060},
		RadiusMeters: 5000,
		Limit:        10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P1", got[0].Place.ID)
	assert.Equal(t, NearbySourceStore, got[0].Source)
	assert.InDelta(t, 20, got[0].DistanceMeters, 1)
	assert.Zero(t, remote.nearbyCalls)
}

func TestNearby_MissResolvesAndPersists(t *testing.T) {
	ctx := context.Background()
	point := models.LatLng{Latitude: 40.7128, Longitude: -74.0060}
	remote := &fakeProvider{name: models.SourceGoogle, nearby: []models.Candidate{
		candidate(models.SourceGoogle, "ChIJ-near", "Joe's Pizza", 40.71285, -74.0060),
		candidate(models.SourceGoogle, "ChIJ-far", "Katz's", 40.7222, -73.9874),
	}}
	n, repo, ix := newTestNearby(t, remote)

	q := providers.NearbyQuery{Location: point, RadiusMeters: 5000, Limit: 10}
	got, err := n.Nearby(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, NearbySourceRemote, got[0].Source)
	assert.Equal(t, "ChIJ-near", got[0].Place.ProviderIDs.Google)
	assert.Equal(t, 2, repo.Len())

	info, err := ix.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, info.DocCount)

	// The stored place now answers the same query.
	got, err = n.Nearby(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, NearbySourceStore, got[0].Source)
	assert.Equal(t, 1, remote.nearbyCalls)
}

func TestNearby_TypeFilterOnStoredPlaces(t *testing.T) {
	ctx := context.Background()
	remote := &fakeProvider{name: models.SourceGoogle}
	n, repo, _ := newTestNearby(t, remote)
	p := &models.Place{ID: "P1", Name: "Corner Cafe", Latitude: 40.7128, Longitude: -74.0060}
	p.Categories = []string{"cafe"}
	require.NoError(t, repo.Upsert(ctx, p))

	loc := models.LatLng{Latitude: 40.7128, Longitude: -74.0060}
	got, err := n.Nearby(ctx, providers.NearbyQuery{Location: loc, Type: "CAFE"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = n.Nearby(ctx, providers.NearbyQuery{Location: loc, Type: "bar"})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, remote.nearbyCalls)
}

func TestNearby_RemoteFailureDegrades(t *testing.T) {
	remote := &fakeProvider{name: models.SourceGoogle, err: assert.AnError}
	n, _, _ := newTestNearby(t, remote)

	got, err := n.Nearby(context.Background(), providers.NearbyQuery{Location: models.LatLng{Latitude: 1, Longitude: 1}})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNearby_InvalidLocation(t *testing.T) {
	n, _, _ := newTestNearby(t, nil)
	_, err := n.Nearby(context.Background(), providers.NearbyQuery{Location: models.LatLng{Latitude: 91}})
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestNearby_ClampsRemoteRadiusAndLimit(t *testing.T) {
	tests := []struct {
		name       string
		radius     float64
		limit      int
		wantRadius float64
		wantLimit  int
	}{
		{"radius above max", 90000, 10, MaxNearbyRadius, 10},
		{"zero radius", 0, 10, MinNearbyRadius, 10},
		{"limit above max", 5000, 100, 5000, MaxNearbyLimit},
		{"zero limit", 5000, 0, 5000, MinNearbyLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeProvider{name: models.SourceGoogle}
			n, _, _ := newTestNearby(t, remote)

			_, err := n.Nearby(context.Background(), providers.NearbyQuery{
				Location:     models.LatLng{Latitude: 40.7128, Longitude: -74.0060},
				RadiusMeters: tt.radius,
				Limit:        tt.limit,
			})
			require.NoError(t, err)
			require.Len(t, remote.nearbyQs, 1)
			assert.Equal(t, tt.wantRadius, remote.nearbyQs[0].RadiusMeters)
			assert.Equal(t, tt.wantLimit, remote.nearbyQs[0].Limit)
		})
	}
}
