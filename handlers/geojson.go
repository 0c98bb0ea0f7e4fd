package handlers

import (
	"spotfinder/models"
)

// Geometry is a GeoJSON point; coordinates are [longitude, latitude].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Feature is one search result in GeoJSON form.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *Geometry         `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// FeatureProperties carries the candidate fields beside the geometry.
type FeatureProperties struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	PlaceID string `json:"place_id,omitempty"`
	Source  string `json:"source"`
	models.Enrichment
}

// FeatureCollection is the search response body.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// toFeatureCollection renders candidates; a candidate without coordinates gets a null geometry.
func toFeatureCollection(candidates []models.Candidate) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(candidates))}
	for _, c := range candidates {
		f := Feature{
			Type: "Feature",
			Properties: FeatureProperties{
				Name:       c.Name,
				Address:    c.Address,
				PlaceID:    c.ProviderID,
				Source:     c.Source,
				Enrichment: c.Enrichment,
			},
		}
		if c.HasCoordinates() {
			f.Geometry = &Geometry{Type: "Point", Coordinates: [2]float64{c.Longitude, c.Latitude}}
		}
		fc.Features = append(fc.Features, f)
	}
	return fc
}
