package identity

import "spotfinder/models"

// newPlace builds a canonical place from a candidate. Enrichment fields the
// source did not supply stay absent.
func newPlace(id string, c models.Candidate) *models.Place {
	p := &models.Place{
		ID:         id,
		Name:       c.Name,
		Address:    c.Address,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
		Enrichment: c.Enrichment,
	}
	p.Categories = append([]string(nil), c.Enrichment.Categories...)
	p.Hours.Weekday = append([]string(nil), c.Enrichment.Hours.Weekday...)
	if c.ProviderID != "" {
		p.ProviderIDs.Set(c.Source, c.ProviderID)
	}
	return p
}

// merge folds newly observed data from c into p without overwriting what p
// already holds. It reports whether p changed.
func merge(p *models.Place, c models.Candidate) bool {
	changed := false
	if c.ProviderID != "" && p.ProviderIDs.Get(c.Source) == "" {
		changed = p.ProviderIDs.Set(c.Source, c.ProviderID) || changed
	}
	if p.Address == "" && c.Address != "" {
		p.Address = c.Address
		changed = true
	}
	if p.Latitude == 0 && p.Longitude == 0 && c.HasCoordinates() {
		p.Latitude, p.Longitude = c.Latitude, c.Longitude
		changed = true
	}

	e, src := &p.Enrichment, c.Enrichment
	if e.City == "" && src.City != "" {
		e.City = src.City
		changed = true
	}
	if len(e.Categories) == 0 && len(src.Categories) > 0 {
		e.Categories = append([]string(nil), src.Categories...)
		changed = true
	}
	if len(e.Hours.Weekday) == 0 && len(src.Hours.Weekday) > 0 {
		e.Hours.Weekday = append([]string(nil), src.Hours.Weekday...)
		changed = true
	}
	changed = fill(&e.Description, src.Description) || changed
	changed = fill(&e.Rating, src.Rating) || changed
	changed = fill(&e.Contact.Phone, src.Contact.Phone) || changed
	changed = fill(&e.Contact.Website, src.Contact.Website) || changed
	changed = fill(&e.Hours.OpenNow, src.Hours.OpenNow) || changed
	changed = fill(&e.Pricing.PriceLevel, src.Pricing.PriceLevel) || changed
	changed = fill(&e.Pricing.Reservable, src.Pricing.Reservable) || changed
	changed = fill(&e.Pricing.ServesBreakfast, src.Pricing.ServesBreakfast) || changed
	changed = fill(&e.Pricing.ServesLunch, src.Pricing.ServesLunch) || changed
	changed = fill(&e.Pricing.ServesDinner, src.Pricing.ServesDinner) || changed
	changed = fill(&e.Social.Instagram, src.Social.Instagram) || changed
	changed = fill(&e.Social.Twitter, src.Social.Twitter) || changed
	return changed
}

// fill copies src into an absent dst.
func fill[T any](dst **T, src *T) bool {
	if *dst == nil && src != nil {
		v := *src
		*dst = &v
		return true
	}
	return false
}
