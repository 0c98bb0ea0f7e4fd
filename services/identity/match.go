package identity

import (
	"spotfinder/models"
	"spotfinder/utils"
)

const (
	// DefaultMatchRadiusMeters is 100 feet, the general dedup threshold.
	DefaultMatchRadiusMeters = 100 * utils.FeetToMeters
	// DefaultCoarseRadiusMeters is used for candidates derived from free text or links.
	DefaultCoarseRadiusMeters = 500.0
)

// SamePlace reports whether two candidates describe one physical place.
// Candidates from the same provider are compared by provider id alone.
// Otherwise names must match after normalization, and then positions must lie
// within radiusMeters; when either side lacks coordinates the normalized
// addresses must match instead.
func SamePlace(a, b models.Candidate, radiusMeters float64) bool {
	if a.Source == b.Source && a.ProviderID != "" && b.ProviderID != "" {
		return a.ProviderID == b.ProviderID
	}
	if models.NormalizeName(a.Name) != models.NormalizeName(b.Name) {
		return false
	}
	if a.HasCoordinates() && b.HasCoordinates() {
		return utils.HaversineMeters(a.Latitude, a.Longitude, b.Latitude, b.Longitude) <= radiusMeters
	}
	return models.NormalizeAddress(a.Address) == models.NormalizeAddress(b.Address)
}

// placeMatches applies the same rule between a candidate and a stored place.
// A place already linked to a different id of the candidate's provider never matches.
func placeMatches(c models.Candidate, p models.Place, radiusMeters float64) bool {
	if c.ProviderID != "" {
		if existing := p.ProviderIDs.Get(c.Source); existing != "" && existing != c.ProviderID {
			return false
		}
	}
	stored := p.ToCandidate("")
	stored.ProviderID = ""
	return SamePlace(c, stored, radiusMeters)
}

func distance(c models.Candidate, p models.Place) float64 {
	return utils.HaversineMeters(c.Latitude, c.Longitude, p.Latitude, p.Longitude)
}
