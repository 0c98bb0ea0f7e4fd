package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"spotfinder/models"

	"go.uber.org/zap"
)

const (
	mapboxBaseURL  = "https://api.mapbox.com/search/searchbox/v1"
	mapboxMaxLimit = 10
)

// Mapbox adapts the Mapbox Search Box API (suggest + retrieve).
type Mapbox struct {
	remote
	accessToken string
}

// NewMapbox creates the Mapbox provider.
func NewMapbox(accessToken string, opts ...Option) *Mapbox {
	return &Mapbox{remote: newRemote(models.SourceMapbox, mapboxBaseURL, opts), accessToken: accessToken}
}

func (m *Mapbox) Name() string { return models.SourceMapbox }

type mapboxSuggestion struct {
	MapboxID       string `json:"mapbox_id"`
	Name           string `json:"name"`
	FullAddress    string `json:"full_address"`
	PlaceFormatted string `json:"place_formatted"`
}

type mapboxSuggestResponse struct {
	Suggestions []mapboxSuggestion `json:"suggestions"`
}

type mapboxFeature struct {
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"geometry"`
	Properties struct {
		MapboxID       string `json:"mapbox_id"`
		Name           string `json:"name"`
		FullAddress    string `json:"full_address"`
		PlaceFormatted string `json:"place_formatted"`
		Coordinates    *struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"coordinates"`
		POICategory []string `json:"poi_category"`
		Context     struct {
			Place *struct {
				Name string `json:"name"`
			} `json:"place"`
		} `json:"context"`
		Metadata struct {
			Phone     string `json:"phone"`
			Website   string `json:"website"`
			Instagram string `json:"instagram"`
			Twitter   string `json:"twitter"`
		} `json:"metadata"`
	} `json:"properties"`
}

type mapboxRetrieveResponse struct {
	Features []mapboxFeature `json:"features"`
}

// Search calls suggest, then retrieve for each suggestion in the same session.
// Duplicates within one response (same id, or same name and address) are dropped.
func (m *Mapbox) Search(ctx context.Context, query string, limit int, loc *models.LatLng) ([]models.Candidate, error) {
	if m.accessToken == "" {
		return nil, ErrProviderUnavailable
	}
	if limit > mapboxMaxLimit {
		limit = mapboxMaxLimit
	}
	params := url.Values{
		"q":            {query},
		"access_token": {m.accessToken},
		"limit":        {strconv.Itoa(limit)},
		"types":        {"poi"},
		"language":     {"en"},
	}
	token := SessionTokenFrom(ctx)
	if token != "" {
		params.Set("session_token", token)
	}
	if loc != nil {
		params.Set("proximity", fmt.Sprintf("%f,%f", loc.Longitude, loc.Latitude))
	}

	var resp mapboxSuggestResponse
	if err := m.getJSON(ctx, "suggest", "/suggest", params, &resp); err != nil {
		return nil, err
	}

	seenIDs := make(map[string]struct{})
	seenKeys := make(map[string]struct{})
	candidates := make([]models.Candidate, 0, limit)
	for _, s := range resp.Suggestions {
		if len(candidates) >= limit {
			break
		}
		if s.MapboxID == "" {
			continue
		}
		if _, dup := seenIDs[s.MapboxID]; dup {
			continue
		}
		address := s.FullAddress
		if address == "" {
			address = s.PlaceFormatted
		}
		key := models.NormalizeName(s.Name) + "|" + models.NormalizeAddress(address)
		if _, dup := seenKeys[key]; dup {
			continue
		}
		seenIDs[s.MapboxID] = struct{}{}
		seenKeys[key] = struct{}{}

		c, err := m.retrieve(ctx, s.MapboxID, token)
		if err != nil {
			// Keep the suggestion without coordinates rather than losing it.
			m.logger.Warn("retrieve failed, keeping suggestion without coordinates",
				zap.String("mapboxId", s.MapboxID), zap.Error(err))
			c = &models.Candidate{
				Name:       s.Name,
				Address:    address,
				Source:     models.SourceMapbox,
				ProviderID: s.MapboxID,
			}
		}
		candidates = append(candidates, *c)
	}
	return candidates, nil
}

// Details retrieves a Mapbox feature by id.
func (m *Mapbox) Details(ctx context.Context, id string) (*models.Candidate, error) {
	if m.accessToken == "" {
		return nil, ErrProviderUnavailable
	}
	return m.retrieve(ctx, id, SessionTokenFrom(ctx))
}

func (m *Mapbox) retrieve(ctx context.Context, id, token string) (*models.Candidate, error) {
	params := url.Values{"access_token": {m.accessToken}}
	if token != "" {
		params.Set("session_token", token)
	}
	var resp mapboxRetrieveResponse
	err := m.getJSON(ctx, "retrieve", "/retrieve/"+url.PathEscape(id), params, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Features) == 0 {
		return nil, ErrNotFound
	}
	c := resp.Features[0].toCandidate(id)
	return &c, nil
}

func (f mapboxFeature) toCandidate(fallbackID string) models.Candidate {
	p := f.Properties
	var lat, lon float64
	switch {
	case p.Coordinates != nil:
		lat, lon = p.Coordinates.Latitude, p.Coordinates.Longitude
	case len(f.Geometry.Coordinates) == 2:
		lon, lat = f.Geometry.Coordinates[0], f.Geometry.Coordinates[1]
	}

	address := p.FullAddress
	if address == "" {
		address = p.PlaceFormatted
	}
	id := p.MapboxID
	if id == "" {
		id = fallbackID
	}

	e := models.Enrichment{Categories: p.POICategory}
	if p.Context.Place != nil {
		e.City = p.Context.Place.Name
	}
	if v := strings.TrimSpace(p.Metadata.Phone); v != "" {
		e.Contact.Phone = stringPtr(v)
	}
	if v := strings.TrimSpace(p.Metadata.Website); v != "" {
		e.Contact.Website = stringPtr(v)
	}
	if v := strings.TrimSpace(p.Metadata.Instagram); v != "" {
		e.Social.Instagram = stringPtr(v)
	}
	if v := strings.TrimSpace(p.Metadata.Twitter); v != "" {
		e.Social.Twitter = stringPtr(v)
	}

	return models.Candidate{
		Name:       p.Name,
		Address:    address,
		Latitude:   lat,
		Longitude:  lon,
		Source:     models.SourceMapbox,
		ProviderID: id,
		Enrichment: e,
	}
}
