package placeRepo

import (
	"context"
	"errors"

	"spotfinder/models"
)

var (
	// ErrPlaceNotFound indicates no place matched the lookup.
	ErrPlaceNotFound = errors.New("place not found")

	// ErrUnsupportedProvider indicates the provider has no cross-reference slot.
	ErrUnsupportedProvider = errors.New("provider has no id slot on places")

	// ErrDuplicateProviderID indicates another place already carries the provider id.
	ErrDuplicateProviderID = errors.New("provider id already assigned to another place")
)

// PlaceRepository defines methods for canonical place data access.
type PlaceRepository interface {
	// FindByID retrieves a place by its canonical id.
	FindByID(ctx context.Context, id string) (*models.Place, error)
	// FindByProviderID retrieves the place carrying the (provider, id) cross-reference.
	FindByProviderID(ctx context.Context, provider, id string) (*models.Place, error)
	// FindByExactName returns places whose normalized name equals the normalized input.
	FindByExactName(ctx context.Context, name string) ([]models.Place, error)
	// FindWithinRadius returns at most limit places within radiusMeters, nearest first.
	FindWithinRadius(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]models.PlaceDistance, error)
	// Upsert inserts or replaces a place keyed by its canonical id.
	Upsert(ctx context.Context, place *models.Place) error
	// AppendMedia adds a media reference to a place unless already present.
	AppendMedia(ctx context.Context, id, ref string) error
	// ForEach streams every stored place to fn, stopping at the first error.
	ForEach(ctx context.Context, fn func(models.Place) error) error
	// Ping checks the store is reachable.
	Ping(ctx context.Context) error
}

// prepare fills derived fields before a write.
func prepare(place *models.Place) {
	place.NameKey = models.NormalizeName(place.Name)
	place.LocationGeo = models.NewGeoPoint(place.Latitude, place.Longitude)
}
