package placeRepo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"spotfinder/models"
	"spotfinder/utils"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// metersPerDegreeLat is the length of one degree of latitude on the mean sphere.
const metersPerDegreeLat = utils.EarthRadiusMeters * math.Pi / 180

// FirestorePlaceRepo implements PlaceRepository over a Firestore "places" collection.
// Firestore has no server-side radius query, so FindWithinRadius narrows by a
// latitude band and filters by great-circle distance client-side. Provider id
// uniqueness is not enforced by the store.
type FirestorePlaceRepo struct {
	client *firestore.Client
	coll   *firestore.CollectionRef
}

// NewFirestorePlaceRepo creates a PlaceRepository over client.
func NewFirestorePlaceRepo(client *firestore.Client) PlaceRepository {
	return &FirestorePlaceRepo{client: client, coll: client.Collection("places")}
}

func (r *FirestorePlaceRepo) FindByID(parent context.Context, id string) (*models.Place, error) {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	snap, err := r.coll.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrPlaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch place %s: %w", id, err)
	}
	var place models.Place
	if err := snap.DataTo(&place); err != nil {
		return nil, fmt.Errorf("failed to decode place %s: %w", id, err)
	}
	return &place, nil
}

func (r *FirestorePlaceRepo) FindByProviderID(parent context.Context, provider, id string) (*models.Place, error) {
	field, ok := models.ProviderIDField(provider)
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	places, err := r.collect(ctx, r.coll.Where(field, "==", id).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, ErrPlaceNotFound
	}
	return &places[0], nil
}

func (r *FirestorePlaceRepo) FindByExactName(parent context.Context, name string) ([]models.Place, error) {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()
	return r.collect(ctx, r.coll.Where("nameKey", "==", models.NormalizeName(name)))
}

func (r *FirestorePlaceRepo) FindWithinRadius(parent context.Context, lat, lon, radiusMeters float64, limit int) ([]models.PlaceDistance, error) {
	ctx, cancel := newContext(parent, 10*time.Second)
	defer cancel()

	band := radiusMeters / metersPerDegreeLat
	query := r.coll.
		Where("latitude", ">=", lat-band).
		Where("latitude", "<=", lat+band)
	places, err := r.collect(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]models.PlaceDistance, 0, len(places))
	for _, p := range places {
		if d := utils.HaversineMeters(lat, lon, p.Latitude, p.Longitude); d <= radiusMeters {
			out = append(out, models.PlaceDistance{Place: p, Distance: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FirestorePlaceRepo) Upsert(parent context.Context, place *models.Place) error {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	prepare(place)
	now := time.Now()
	if place.CreatedAt.IsZero() {
		place.CreatedAt = now
	}
	place.UpdatedAt = now

	if _, err := r.coll.Doc(place.ID).Set(ctx, place); err != nil {
		return fmt.Errorf("failed to upsert place %s: %w", place.ID, err)
	}
	return nil
}

func (r *FirestorePlaceRepo) AppendMedia(parent context.Context, id, ref string) error {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	_, err := r.coll.Doc(id).Update(ctx, []firestore.Update{
		{Path: "media", Value: firestore.ArrayUnion(ref)},
		{Path: "updatedAt", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrPlaceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to append media to place %s: %w", id, err)
	}
	return nil
}

func (r *FirestorePlaceRepo) ForEach(ctx context.Context, fn func(models.Place) error) error {
	iter := r.coll.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to iterate places: %w", err)
		}
		var p models.Place
		if err := snap.DataTo(&p); err != nil {
			return fmt.Errorf("failed to decode place %s: %w", snap.Ref.ID, err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
}

// Ping reads a single document to confirm the project is reachable.
func (r *FirestorePlaceRepo) Ping(ctx context.Context) error {
	iter := r.coll.Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (r *FirestorePlaceRepo) collect(ctx context.Context, q firestore.Query) ([]models.Place, error) {
	snaps, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore query failed: %w", err)
	}
	places := make([]models.Place, 0, len(snaps))
	for _, snap := range snaps {
		var p models.Place
		if err := snap.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode place %s: %w", snap.Ref.ID, err)
		}
		places = append(places, p)
	}
	return places, nil
}
