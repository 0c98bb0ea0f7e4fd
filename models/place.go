package models

import "time"

// Source tags carried on every Candidate.
const (
	SourceLocal  = "local"
	SourceMapbox = "mapbox"
	SourceGoogle = "google"
)

// GeoPoint represents a GeoJSON Point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewGeoPoint builds a GeoJSON point from latitude/longitude.
func NewGeoPoint(lat, lon float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lon, lat}}
}

// LatLng is a signed decimal degree coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair lies within WGS84 bounds.
func (l LatLng) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 && l.Longitude >= -180 && l.Longitude <= 180
}

// ProviderIDs holds one cross-reference slot per known provider.
type ProviderIDs struct {
	Mapbox string `bson:"mapboxId,omitempty" json:"mapboxId,omitempty" firestore:"mapboxId,omitempty"`
	Google string `bson:"googlePlacesId,omitempty" json:"googlePlacesId,omitempty" firestore:"googlePlacesId,omitempty"`
}

// Get returns the id stored for provider, or "".
func (p ProviderIDs) Get(provider string) string {
	switch provider {
	case SourceMapbox:
		return p.Mapbox
	case SourceGoogle:
		return p.Google
	}
	return ""
}

// Set stores id in provider's slot. Unknown providers are ignored.
func (p *ProviderIDs) Set(provider, id string) bool {
	switch provider {
	case SourceMapbox:
		p.Mapbox = id
	case SourceGoogle:
		p.Google = id
	default:
		return false
	}
	return true
}

// ProviderIDField maps a provider to the stored document field for its id.
func ProviderIDField(provider string) (string, bool) {
	switch provider {
	case SourceMapbox:
		return "providerIds.mapboxId", true
	case SourceGoogle:
		return "providerIds.googlePlacesId", true
	}
	return "", false
}

// Contact groups phone and web enrichment.
type Contact struct {
	Phone   *string `bson:"phone,omitempty" json:"phone,omitempty" firestore:"phone,omitempty"`
	Website *string `bson:"website,omitempty" json:"website,omitempty" firestore:"website,omitempty"`
}

// Hours groups opening hour enrichment.
type Hours struct {
	Weekday []string `bson:"weekday,omitempty" json:"weekday,omitempty" firestore:"weekday,omitempty"`
	OpenNow *bool    `bson:"openNow,omitempty" json:"openNow,omitempty" firestore:"openNow,omitempty"`
}

// Pricing groups price and service enrichment.
type Pricing struct {
	PriceLevel      *string `bson:"priceLevel,omitempty" json:"priceLevel,omitempty" firestore:"priceLevel,omitempty"`
	Reservable      *bool   `bson:"reservable,omitempty" json:"reservable,omitempty" firestore:"reservable,omitempty"`
	ServesBreakfast *bool   `bson:"servesBreakfast,omitempty" json:"servesBreakfast,omitempty" firestore:"servesBreakfast,omitempty"`
	ServesLunch     *bool   `bson:"servesLunch,omitempty" json:"servesLunch,omitempty" firestore:"servesLunch,omitempty"`
	ServesDinner    *bool   `bson:"servesDinner,omitempty" json:"servesDinner,omitempty" firestore:"servesDinner,omitempty"`
}

// Social groups social media handles.
type Social struct {
	Instagram *string `bson:"instagram,omitempty" json:"instagram,omitempty" firestore:"instagram,omitempty"`
	Twitter   *string `bson:"twitter,omitempty" json:"twitter,omitempty" firestore:"twitter,omitempty"`
}

// Enrichment is the typed replacement for a provider's free-form attribute bag.
// Absent values stay nil; nothing is filled with placeholders.
type Enrichment struct {
	City        string   `bson:"city,omitempty" json:"city,omitempty" firestore:"city,omitempty"`
	Description *string  `bson:"description,omitempty" json:"description,omitempty" firestore:"description,omitempty"`
	Categories  []string `bson:"categories,omitempty" json:"categories,omitempty" firestore:"categories,omitempty"`
	Rating      *float64 `bson:"rating,omitempty" json:"rating,omitempty" firestore:"rating,omitempty"`
	Contact     Contact  `bson:"contact" json:"contact" firestore:"contact"`
	Hours       Hours    `bson:"hours" json:"hours" firestore:"hours"`
	Pricing     Pricing  `bson:"pricing" json:"pricing" firestore:"pricing"`
	Social      Social   `bson:"social" json:"social" firestore:"social"`
}

// Candidate is an ephemeral result produced by one provider call.
type Candidate struct {
	Name       string     `json:"name"`
	Address    string     `json:"address"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Source     string     `json:"source"`
	ProviderID string     `json:"providerId,omitempty"`
	Enrichment Enrichment `json:"enrichment"`
}

// HasCoordinates reports whether the candidate carries a usable position.
// (0,0) is treated as unknown; providers use it when geometry is missing.
func (c Candidate) HasCoordinates() bool {
	return !(c.Latitude == 0 && c.Longitude == 0)
}

// Location returns the candidate's coordinates.
func (c Candidate) Location() LatLng {
	return LatLng{Latitude: c.Latitude, Longitude: c.Longitude}
}

// Place is the canonical, durable record for one real-world location.
type Place struct {
	ID          string      `bson:"id" json:"id" firestore:"id"`
	Name        string      `bson:"name" json:"name" firestore:"name"`
	NameKey     string      `bson:"nameKey" json:"-" firestore:"nameKey"`
	Address     string      `bson:"address" json:"address" firestore:"address"`
	Latitude    float64     `bson:"latitude" json:"latitude" firestore:"latitude"`
	Longitude   float64     `bson:"longitude" json:"longitude" firestore:"longitude"`
	LocationGeo GeoPoint    `bson:"locationGeo" json:"-" firestore:"-"`
	ProviderIDs ProviderIDs `bson:"providerIds" json:"providerIds" firestore:"providerIds"`
	Enrichment  `bson:",inline"`
	Media       []string  `bson:"media,omitempty" json:"media,omitempty" firestore:"media,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt" firestore:"updatedAt"`
}

// Location returns the place's coordinates.
func (p Place) Location() LatLng {
	return LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
}

// ToCandidate projects the place back into a result entry tagged with source.
func (p Place) ToCandidate(source string) Candidate {
	return Candidate{
		Name:       p.Name,
		Address:    p.Address,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		Source:     source,
		ProviderID: p.ID,
		Enrichment: p.Enrichment,
	}
}

// PlaceDistance pairs a place with its distance from a query point.
type PlaceDistance struct {
	Place    Place   `json:"place"`
	Distance float64 `json:"distanceMeters"`
}

// IndexInfo describes the local full-text index.
type IndexInfo struct {
	DocCount    int       `json:"docCount"`
	LastRefresh time.Time `json:"lastRefresh"`
	IsEmpty     bool      `json:"isEmpty"`
}
