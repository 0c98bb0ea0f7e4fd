package placeRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"spotfinder/models"
	"spotfinder/utils"
)

// MemoryPlaceRepo implements PlaceRepository in process memory.
// It enforces one place per provider id, like the unique indexes of the Mongo store.
type MemoryPlaceRepo struct {
	mu     sync.RWMutex
	places map[string]models.Place
	order  []string
}

// NewMemoryPlaceRepo creates an empty in-memory repository.
func NewMemoryPlaceRepo() *MemoryPlaceRepo {
	return &MemoryPlaceRepo{places: make(map[string]models.Place)}
}

func (r *MemoryPlaceRepo) FindByID(_ context.Context, id string) (*models.Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.places[id]
	if !ok {
		return nil, ErrPlaceNotFound
	}
	return clonePlace(p), nil
}

func (r *MemoryPlaceRepo) FindByProviderID(_ context.Context, provider, id string) (*models.Place, error) {
	if _, ok := models.ProviderIDField(provider); !ok {
		return nil, ErrUnsupportedProvider
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, pid := range r.order {
		p := r.places[pid]
		if p.ProviderIDs.Get(provider) == id {
			return clonePlace(p), nil
		}
	}
	return nil, ErrPlaceNotFound
}

func (r *MemoryPlaceRepo) FindByExactName(_ context.Context, name string) ([]models.Place, error) {
	key := models.NormalizeName(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Place
	for _, pid := range r.order {
		p := r.places[pid]
		if p.NameKey == key {
			out = append(out, *clonePlace(p))
		}
	}
	return out, nil
}

func (r *MemoryPlaceRepo) FindWithinRadius(_ context.Context, lat, lon, radiusMeters float64, limit int) ([]models.PlaceDistance, error) {
	r.mu.RLock()
	var out []models.PlaceDistance
	for _, pid := range r.order {
		p := r.places[pid]
		d := utils.HaversineMeters(lat, lon, p.Latitude, p.Longitude)
		if d <= radiusMeters {
			out = append(out, models.PlaceDistance{Place: *clonePlace(p), Distance: d})
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryPlaceRepo) Upsert(_ context.Context, place *models.Place) error {
	prepare(place)
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, provider := range []string{models.SourceMapbox, models.SourceGoogle} {
		id := place.ProviderIDs.Get(provider)
		if id == "" {
			continue
		}
		for pid, other := range r.places {
			if pid != place.ID && other.ProviderIDs.Get(provider) == id {
				return ErrDuplicateProviderID
			}
		}
	}

	now := time.Now()
	if existing, ok := r.places[place.ID]; ok {
		place.CreatedAt = existing.CreatedAt
	} else {
		if place.CreatedAt.IsZero() {
			place.CreatedAt = now
		}
		r.order = append(r.order, place.ID)
	}
	place.UpdatedAt = now
	r.places[place.ID] = *clonePlace(*place)
	return nil
}

func (r *MemoryPlaceRepo) AppendMedia(_ context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.places[id]
	if !ok {
		return ErrPlaceNotFound
	}
	for _, m := range p.Media {
		if m == ref {
			return nil
		}
	}
	p.Media = append(append([]string(nil), p.Media...), ref)
	p.UpdatedAt = time.Now()
	r.places[id] = p
	return nil
}

func (r *MemoryPlaceRepo) ForEach(ctx context.Context, fn func(models.Place) error) error {
	r.mu.RLock()
	snapshot := make([]models.Place, 0, len(r.order))
	for _, pid := range r.order {
		snapshot = append(snapshot, *clonePlace(r.places[pid]))
	}
	r.mu.RUnlock()

	for _, p := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryPlaceRepo) Ping(context.Context) error { return nil }

// Len returns the number of stored places.
func (r *MemoryPlaceRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.places)
}

func clonePlace(p models.Place) *models.Place {
	c := p
	c.Categories = append([]string(nil), p.Categories...)
	c.Hours.Weekday = append([]string(nil), p.Hours.Weekday...)
	c.Media = append([]string(nil), p.Media...)
	c.LocationGeo.Coordinates = append([]float64(nil), p.LocationGeo.Coordinates...)
	return &c
}
