// Package providers adapts each place data source to one uniform contract.
package providers

import (
	"context"

	"spotfinder/models"
)

// Provider is one searchable place source.
type Provider interface {
	// Name returns the source tag carried on every candidate this provider produces.
	Name() string
	// Search returns up to limit candidates for query, biased towards loc when given.
	Search(ctx context.Context, query string, limit int, loc *models.LatLng) ([]models.Candidate, error)
	// Details returns the enriched record for a provider-native id, or ErrNotFound.
	Details(ctx context.Context, id string) (*models.Candidate, error)
}

// NearbyQuery describes a proximity lookup.
type NearbyQuery struct {
	Location     models.LatLng
	RadiusMeters float64
	Limit        int
	Type         string
}

// NearbyProvider is a provider able to list places around a point.
type NearbyProvider interface {
	Provider
	Nearby(ctx context.Context, q NearbyQuery) ([]models.Candidate, error)
}

type sessionTokenKey struct{}

// WithSessionToken attaches a billing session token to ctx.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey{}, token)
}

// SessionTokenFrom returns the session token on ctx, or "".
func SessionTokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey{}).(string)
	return token
}
