package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spotfinder/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMapboxServer(t *testing.T, handler http.HandlerFunc) *Mapbox {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMapbox("pk.test", WithBaseURL(srv.URL), WithRateLimit(0))
}

func retrieveBody(id, name string, lat, lon float64) map[string]any {
	return map[string]any{
		"type": "FeatureCollection",
		"features": []map[string]any{{
			"type":     "Feature",
			"geometry": map[string]any{"type": "Point", "coordinates": []float64{lon, lat}},
			"properties": map[string]any{
				"mapbox_id":    id,
				"name":         name,
				"full_address": "1 Ferry Building, San Francisco, CA 94111, United States",
				"poi_category": []string{"market"},
				"context":      map[string]any{"place": map[string]any{"name": "San Francisco"}},
				"metadata":     map[string]any{"phone": "+14159830030", "instagram": "ferrybuilding"},
			},
		}},
	}
}

func TestMapbox_SearchDedupsWithinResponse(t *testing.T) {
	var retrieved []string
	m := newMapboxServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/suggest":
			assert.Equal(t, "poi", r.URL.Query().Get("types"))
			assert.Equal(t, "-122.419400,37.774900", r.URL.Query().Get("proximity"))
			assert.Equal(t, "sess", r.URL.Query().Get("session_token"))
			writeJSON(t, w, map[string]any{"suggestions": []map[string]any{
				{"mapbox_id": "m1", "name": "Ferry Building", "full_address": "1 Ferry Bldg"},
				{"mapbox_id": "m1", "name": "Ferry Building", "full_address": "1 Ferry Bldg"},
				{"mapbox_id": "m2", "name": "ferry  building", "full_address": "1 Ferry Bldg, United States"},
				{"mapbox_id": "m3", "name": "Ferry Plaza", "full_address": "2 Ferry Plaza"},
			}})
		case strings.HasPrefix(r.URL.Path, "/retrieve/"):
			id := strings.TrimPrefix(r.URL.Path, "/retrieve/")
			retrieved = append(retrieved, id)
			writeJSON(t, w, retrieveBody(id, "Ferry "+id, 37.7955, -122.3937))
		}
	})

	ctx := WithSessionToken(context.Background(), "sess")
	got, err := m.Search(ctx, "ferry", 5, &models.LatLng{Latitude: 37.7749, Longitude: -122.4194})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ProviderID)
	assert.Equal(t, "m3", got[1].ProviderID)
	assert.Equal(t, []string{"m1", "m3"}, retrieved)

	c := got[0]
	assert.Equal(t, models.SourceMapbox, c.Source)
	assert.InDelta(t, 37.7955, c.Latitude, 1e-9)
	assert.InDelta(t, -122.3937, c.Longitude, 1e-9)
	assert.Equal(t, "San Francisco", c.Enrichment.City)
	require.NotNil(t, c.Enrichment.Social.Instagram)
	assert.Equal(t, "ferrybuilding", *c.Enrichment.Social.Instagram)
	assert.Nil(t, c.Enrichment.Social.Twitter)
}

func TestMapbox_RetrieveFailureKeepsSuggestion(t *testing.T) {
	m := newMapboxServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/suggest" {
			writeJSON(t, w, map[string]any{"suggestions": []map[string]any{
				{"mapbox_id": "m1", "name": "Ferry Building", "place_formatted": "San Francisco"},
			}})
			return
		}
		http.Error(w, "upstream", http.StatusBadGateway)
	})

	got, err := m.Search(context.Background(), "ferry", 5, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "San Francisco", got[0].Address)
	assert.False(t, got[0].HasCoordinates())
}

func TestMapbox_LimitIsCapped(t *testing.T) {
	m := newMapboxServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/suggest" {
			assert.Equal(t, "10", r.URL.Query().Get("limit"))
			writeJSON(t, w, map[string]any{"suggestions": []map[string]any{}})
		}
	})
	got, err := m.Search(context.Background(), "x", 25, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMapbox_DetailsNotFound(t *testing.T) {
	t.Run("http 404", func(t *testing.T) {
		m := newMapboxServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		})
		_, err := m.Details(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
	t.Run("empty features", func(t *testing.T) {
		m := newMapboxServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, map[string]any{"features": []any{}})
		})
		_, err := m.Details(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMapbox_MissingTokenIsUnavailable(t *testing.T) {
	m := NewMapbox("")
	_, err := m.Search(context.Background(), "x", 5, nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
