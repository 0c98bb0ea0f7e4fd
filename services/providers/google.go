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

const googleBaseURL = "https://maps.googleapis.com/maps/api"

const (
	googleSuggestFields = "name,formatted_address,geometry,place_id,types"
	googleDetailFields  = "name,formatted_address,geometry,place_id,types,rating," +
		"formatted_phone_number,opening_hours,price_level,website,address_components," +
		"reservable,serves_breakfast,serves_lunch,serves_dinner,editorial_summary"
	googleAutocompleteRadius = 50000
)

// GooglePlaces adapts the Google Places web service.
type GooglePlaces struct {
	remote
	apiKey string
}

// NewGooglePlaces creates the Google Places provider.
func NewGooglePlaces(apiKey string, opts ...Option) *GooglePlaces {
	return &GooglePlaces{remote: newRemote(models.SourceGoogle, googleBaseURL, opts), apiKey: apiKey}
}

func (g *GooglePlaces) Name() string { return models.SourceGoogle }

type googlePrediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type googleAutocompleteResponse struct {
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message"`
	Predictions  []googlePrediction `json:"predictions"`
}

type googlePlace struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Vicinity         string `json:"vicinity"`
	Geometry         struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Types                []string `json:"types"`
	Rating               *float64 `json:"rating"`
	FormattedPhoneNumber string   `json:"formatted_phone_number"`
	Website              string   `json:"website"`
	PriceLevel           *int     `json:"price_level"`
	OpeningHours         *struct {
		OpenNow     *bool    `json:"open_now"`
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
	AddressComponents []struct {
		LongName string   `json:"long_name"`
		Types    []string `json:"types"`
	} `json:"address_components"`
	Reservable       *bool `json:"reservable"`
	ServesBreakfast  *bool `json:"serves_breakfast"`
	ServesLunch      *bool `json:"serves_lunch"`
	ServesDinner     *bool `json:"serves_dinner"`
	EditorialSummary *struct {
		Overview string `json:"overview"`
	} `json:"editorial_summary"`
}

type googleDetailsResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Result       googlePlace `json:"result"`
}

type googleNearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []googlePlace `json:"results"`
}

// Search runs autocomplete and then fetches details for each prediction within
// the same billing session.
func (g *GooglePlaces) Search(ctx context.Context, query string, limit int, loc *models.LatLng) ([]models.Candidate, error) {
	if g.apiKey == "" {
		return nil, ErrProviderUnavailable
	}
	params := url.Values{
		"input":    {query},
		"key":      {g.apiKey},
		"types":    {"establishment"},
		"language": {"en"},
	}
	token := SessionTokenFrom(ctx)
	if token != "" {
		params.Set("sessiontoken", token)
	}
	if loc != nil {
		params.Set("location", fmt.Sprintf("%f,%f", loc.Latitude, loc.Longitude))
		params.Set("radius", strconv.Itoa(googleAutocompleteRadius))
	}

	var resp googleAutocompleteResponse
	if err := g.getJSON(ctx, "autocomplete", "/place/autocomplete/json", params, &resp); err != nil {
		return nil, err
	}
	if err := g.checkStatus("autocomplete", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, limit)
	for _, p := range resp.Predictions {
		if len(candidates) >= limit {
			break
		}
		place, err := g.fetch(ctx, p.PlaceID, googleSuggestFields, token)
		if err != nil {
			g.logger.Warn("skipping prediction without details",
				zap.String("placeId", p.PlaceID), zap.Error(err))
			continue
		}
		candidates = append(candidates, place.toCandidate())
	}
	return candidates, nil
}

// Details fetches the full enrichment field set for a Google place id.
func (g *GooglePlaces) Details(ctx context.Context, id string) (*models.Candidate, error) {
	if g.apiKey == "" {
		return nil, ErrProviderUnavailable
	}
	place, err := g.fetch(ctx, id, googleDetailFields, SessionTokenFrom(ctx))
	if err != nil {
		return nil, err
	}
	c := place.toCandidate()
	return &c, nil
}

// Nearby lists places around a point.
func (g *GooglePlaces) Nearby(ctx context.Context, q NearbyQuery) ([]models.Candidate, error) {
	if g.apiKey == "" {
		return nil, ErrProviderUnavailable
	}
	params := url.Values{
		"location": {fmt.Sprintf("%f,%f", q.Location.Latitude, q.Location.Longitude)},
		"radius":   {strconv.Itoa(int(q.RadiusMeters))},
		"key":      {g.apiKey},
	}
	if q.Type != "" {
		params.Set("type", q.Type)
	}

	var resp googleNearbyResponse
	if err := g.getJSON(ctx, "nearby", "/place/nearbysearch/json", params, &resp); err != nil {
		return nil, err
	}
	if err := g.checkStatus("nearby", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(resp.Results))
	for _, p := range resp.Results {
		if q.Limit > 0 && len(candidates) >= q.Limit {
			break
		}
		candidates = append(candidates, p.toCandidate())
	}
	return candidates, nil
}

func (g *GooglePlaces) fetch(ctx context.Context, id, fields, token string) (*googlePlace, error) {
	params := url.Values{
		"place_id": {id},
		"fields":   {fields},
		"key":      {g.apiKey},
	}
	if token != "" {
		params.Set("sessiontoken", token)
	}
	var resp googleDetailsResponse
	if err := g.getJSON(ctx, "details", "/place/details/json", params, &resp); err != nil {
		return nil, err
	}
	switch resp.Status {
	case "NOT_FOUND", "INVALID_REQUEST", "ZERO_RESULTS":
		return nil, ErrNotFound
	}
	if err := g.checkStatus("details", resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}
	return &resp.Result, nil
}

// checkStatus maps the Places API status field. ZERO_RESULTS is a success.
func (g *GooglePlaces) checkStatus(op, status, message string) error {
	switch status {
	case "OK", "ZERO_RESULTS":
		return nil
	}
	return callError(g.name, op, 0, fmt.Errorf("status %s: %s", status, message))
}

func (p googlePlace) toCandidate() models.Candidate {
	address := p.FormattedAddress
	if address == "" {
		address = p.Vicinity
	}
	e := models.Enrichment{
		City:       p.city(),
		Categories: p.Types,
		Rating:     p.Rating,
	}
	if p.FormattedPhoneNumber != "" {
		e.Contact.Phone = stringPtr(p.FormattedPhoneNumber)
	}
	if p.Website != "" {
		e.Contact.Website = stringPtr(p.Website)
	}
	if p.PriceLevel != nil {
		e.Pricing.PriceLevel = stringPtr(strconv.Itoa(*p.PriceLevel))
	}
	if p.OpeningHours != nil {
		e.Hours.Weekday = p.OpeningHours.WeekdayText
		e.Hours.OpenNow = p.OpeningHours.OpenNow
	}
	e.Pricing.Reservable = p.Reservable
	e.Pricing.ServesBreakfast = p.ServesBreakfast
	e.Pricing.ServesLunch = p.ServesLunch
	e.Pricing.ServesDinner = p.ServesDinner
	if p.EditorialSummary != nil && strings.TrimSpace(p.EditorialSummary.Overview) != "" {
		e.Description = stringPtr(p.EditorialSummary.Overview)
	}

	return models.Candidate{
		Name:       p.Name,
		Address:    address,
		Latitude:   p.Geometry.Location.Lat,
		Longitude:  p.Geometry.Location.Lng,
		Source:     models.SourceGoogle,
		ProviderID: p.PlaceID,
		Enrichment: e,
	}
}

// city prefers the locality component and falls back to the second-level admin area.
func (p googlePlace) city() string {
	var fallback string
	for _, c := range p.AddressComponents {
		for _, t := range c.Types {
			switch t {
			case "locality":
				return c.LongName
			case "administrative_area_level_2":
				if fallback == "" {
					fallback = c.LongName
				}
			}
		}
	}
	return fallback
}

func stringPtr(s string) *string { return &s }
