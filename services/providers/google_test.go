package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"spotfinder/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoogleServer(t *testing.T, handler http.HandlerFunc) (*GooglePlaces, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGooglePlaces("test-key", WithBaseURL(srv.URL), WithRateLimit(0)), srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGooglePlaces_SearchFetchesDetailsPerPrediction(t *testing.T) {
	var tokens []string
	g, _ := newGoogleServer(t, func(w http.ResponseWriter, r *http.Request) {
		tokens = append(tokens, r.URL.Query().Get("sessiontoken"))
		switch r.URL.Path {
		case "/place/autocomplete/json":
			assert.Equal(t, "blue bottle", r.URL.Query().Get("input"))
			assert.Equal(t, "establishment", r.URL.Query().Get("types"))
			assert.Equal(t, "37.774900,-122.419400", r.URL.Query().Get("location"))
			writeJSON(t, w, map[string]any{
				"status": "OK",
				"predictions": []map[string]any{
					{"place_id": "g1"}, {"place_id": "g2"}, {"place_id": "g3"},
				},
			})
		case "/place/details/json":
			id := r.URL.Query().Get("place_id")
			writeJSON(t, w, map[string]any{
				"status": "OK",
				"result": map[string]any{
					"place_id":          id,
					"name":              "Blue Bottle " + id,
					"formatted_address": "66 Mint St",
					"geometry":          map[string]any{"location": map[string]any{"lat": 37.78, "lng": -122.40}},
					"types":             []string{"cafe", "food"},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := WithSessionToken(context.Background(), "tok-1")
	got, err := g.Search(ctx, "blue bottle", 2, &models.LatLng{Latitude: 37.7749, Longitude: -122.4194})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "g1", got[0].ProviderID)
	assert.Equal(t, models.SourceGoogle, got[0].Source)
	assert.Equal(t, []string{"cafe", "food"}, got[0].Enrichment.Categories)
	assert.InDelta(t, 37.78, got[0].Latitude, 1e-9)
	for _, tok := range tokens {
		assert.Equal(t, "tok-1", tok)
	}
}

func TestGooglePlaces_DetailsEnrichment(t *testing.T) {
	g, _ := newGoogleServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"status": "OK",
			"result": map[string]any{
				"place_id":               "g1",
				"name":                   "Tartine",
				"formatted_address":      "600 Guerrero St",
				"geometry":               map[string]any{"location": map[string]any{"lat": 37.76, "lng": -122.42}},
				"rating":                 4.6,
				"formatted_phone_number": "(415) 487-2600",
				"price_level":            2,
				"opening_hours":          map[string]any{"weekday_text": []string{"Monday: 8AM-5PM"}},
				"address_components": []map[string]any{
					{"long_name": "San Francisco County", "types": []string{"administrative_area_level_2"}},
					{"long_name": "San Francisco", "types": []string{"locality", "political"}},
				},
				"reservable": false,
			},
		})
	})

	got, err := g.Details(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "San Francisco", got.Enrichment.City)
	require.NotNil(t, got.Enrichment.Rating)
	assert.Equal(t, 4.6, *got.Enrichment.Rating)
	require.NotNil(t, got.Enrichment.Contact.Phone)
	assert.Equal(t, "(415) 487-2600", *got.Enrichment.Contact.Phone)
	require.NotNil(t, got.Enrichment.Pricing.PriceLevel)
	assert.Equal(t, "2", *got.Enrichment.Pricing.PriceLevel)
	require.NotNil(t, got.Enrichment.Pricing.Reservable)
	assert.False(t, *got.Enrichment.Pricing.Reservable)
	assert.Nil(t, got.Enrichment.Pricing.ServesDinner)
	assert.Nil(t, got.Enrichment.Contact.Website)
	assert.Equal(t, []string{"Monday: 8AM-5PM"}, got.Enrichment.Hours.Weekday)
}

func TestGooglePlaces_CityFallsBackToAdminArea(t *testing.T) {
	p := googlePlace{}
	p.AddressComponents = append(p.AddressComponents, struct {
		LongName string   `json:"long_name"`
		Types    []string `json:"types"`
	}{LongName: "Kings County", Types: []string{"administrative_area_level_2"}})
	assert.Equal(t, "Kings County", p.city())
}

func TestGooglePlaces_DetailsNotFound(t *testing.T) {
	g, _ := newGoogleServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"status": "NOT_FOUND"})
	})
	_, err := g.Details(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))
}

func TestGooglePlaces_StatusFailureIsCallError(t *testing.T) {
	g, _ := newGoogleServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"status": "OVER_QUERY_LIMIT", "error_message": "quota"})
	})
	_, err := g.Search(context.Background(), "x", 5, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderCallFailed)

	var callErr *CallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, models.SourceGoogle, callErr.Provider)
}

func TestGooglePlaces_HTTPErrorIsCallError(t *testing.T) {
	g, _ := newGoogleServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	_, err := g.Search(context.Background(), "x", 5, nil)
	assert.ErrorIs(t, err, ErrProviderCallFailed)
}

func TestGooglePlaces_TimeoutIsCallError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	g := NewGooglePlaces("k", WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond), WithRateLimit(0))

	_, err := g.Search(context.Background(), "x", 5, nil)
	assert.ErrorIs(t, err, ErrProviderCallFailed)
}

func TestGooglePlaces_MissingKeyIsUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	t.Cleanup(srv.Close)
	g := NewGooglePlaces("", WithBaseURL(srv.URL))

	_, err := g.Search(context.Background(), "x", 5, nil)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	_, err = g.Details(context.Background(), "x")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGooglePlaces_Nearby(t *testing.T) {
	g, _ := newGoogleServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/place/nearbysearch/json", r.URL.Path)
		assert.Equal(t, "1500", r.URL.Query().Get("radius"))
		assert.Equal(t, "cafe", r.URL.Query().Get("type"))
		writeJSON(t, w, map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"place_id": "n1", "name": "One", "vicinity": "1 Main St", "geometry": map[string]any{"location": map[string]any{"lat": 1.0, "lng": 2.0}}},
				{"place_id": "n2", "name": "Two", "vicinity": "2 Main St"},
			},
		})
	})

	got, err := g.Nearby(context.Background(), NearbyQuery{
		Location:     models.LatLng{Latitude: 1, Longitude: 2},
		RadiusMeters: 1500,
		Limit:        1,
		Type:         "cafe",
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1 Main St", got[0].Address)
}
