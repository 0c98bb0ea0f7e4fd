package app

import (
	"context"
	"testing"

	"spotfinder/config"
	"spotfinder/models"
	"spotfinder/services/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() config.Config {
	return config.Config{
		PlacesStore:            "memory",
		LocalIndexPath:         ":memory:",
		CacheBackend:           "memory",
		PersistMode:            PersistPool,
		SearchFloor:            5,
		SearchDefaultLimit:     10,
		CacheTTLSeconds:        3600,
		SessionTokenTTLSeconds: 300,
		ProviderTimeoutSeconds: 1,
		MatchRadiusMeters:      30.48,
	}
}

func TestBuild_WithoutCredentialsServesLocally(t *testing.T) {
	ctx := context.Background()
	a, err := Build(ctx, testConfig(), PersistSync, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Service.Resolve(ctx, models.Candidate{Name: "Ferry Building", Latitude: 37.7955, Longitude: -122.3937}, false)
	require.NoError(t, err)

	got, err := a.Service.Search(ctx, search.Query{Text: "ferry"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, res.Place.ID, got[0].ProviderID)

	// Remote providers have no credentials and degrade to nothing.
	got, err = a.Service.Search(ctx, search.Query{Text: "ferry", Provider: "google"})
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Contains(t, a.HealthChecks, "store")
	assert.NoError(t, a.HealthChecks["store"](ctx))
	assert.Equal(t, []string{"local", "mapbox", "google"}, a.Service.Providers())
}

func TestBuild_RejectsUnknownSettings(t *testing.T) {
	cfg := testConfig()
	cfg.PlacesStore = "cassandra"
	_, err := Build(context.Background(), cfg, "", zaptest.NewLogger(t))
	assert.Error(t, err)

	cfg = testConfig()
	_, err = Build(context.Background(), cfg, "carrier-pigeon", zaptest.NewLogger(t))
	assert.Error(t, err)
}
