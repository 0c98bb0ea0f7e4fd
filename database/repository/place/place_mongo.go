package placeRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spotfinder/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoPlaceRepo implements PlaceRepository using MongoDB.
type MongoPlaceRepo struct {
	coll *mongo.Collection
}

// NewMongoPlaceRepo creates a PlaceRepository over the "places" collection of db.
func NewMongoPlaceRepo(db *mongo.Database, logger *zap.Logger) PlaceRepository {
	repo := &MongoPlaceRepo{coll: db.Collection("places")}
	if err := repo.ensureIndexes(); err != nil {
		logger.Error("failed to create place indexes", zap.Error(err))
	}
	return repo
}

// newContext derives a bounded context from parent.
func newContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}

func (r *MongoPlaceRepo) FindByID(ctx context.Context, id string) (*models.Place, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoPlaceRepo) FindByProviderID(ctx context.Context, provider, id string) (*models.Place, error) {
	field, ok := models.ProviderIDField(provider)
	if !ok {
		return nil, ErrUnsupportedProvider
	}
	return r.findOne(ctx, bson.M{field: id})
}

func (r *MongoPlaceRepo) findOne(parent context.Context, filter bson.M) (*models.Place, error) {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	var place models.Place
	if err := r.coll.FindOne(ctx, filter).Decode(&place); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPlaceNotFound
		}
		return nil, fmt.Errorf("failed to fetch place: %w", err)
	}
	return &place, nil
}

func (r *MongoPlaceRepo) FindByExactName(parent context.Context, name string) ([]models.Place, error) {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{"nameKey": models.NormalizeName(name)})
	if err != nil {
		return nil, fmt.Errorf("failed to find places by name: %w", err)
	}
	defer cursor.Close(ctx)

	var places []models.Place
	if err := cursor.All(ctx, &places); err != nil {
		return nil, fmt.Errorf("failed to decode places: %w", err)
	}
	return places, nil
}

// FindWithinRadius runs a $geoNear aggregation against the 2dsphere index.
func (r *MongoPlaceRepo) FindWithinRadius(parent context.Context, lat, lon, radiusMeters float64, limit int) ([]models.PlaceDistance, error) {
	ctx, cancel := newContext(parent, 10*time.Second)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: "Point"},
				{Key: "coordinates", Value: []float64{lon, lat}},
			}},
			{Key: "distanceField", Value: "distance"},
			{Key: "spherical", Value: true},
			{Key: "maxDistance", Value: radiusMeters},
		}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("geoNear query failed: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		models.Place `bson:",inline"`
		Distance     float64 `bson:"distance"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode places: %w", err)
	}

	out := make([]models.PlaceDistance, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.PlaceDistance{Place: row.Place, Distance: row.Distance})
	}
	return out, nil
}

func (r *MongoPlaceRepo) Upsert(parent context.Context, place *models.Place) error {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	prepare(place)
	now := time.Now()
	if place.CreatedAt.IsZero() {
		place.CreatedAt = now
	}
	place.UpdatedAt = now

	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"id": place.ID}, place, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateProviderID
		}
		return fmt.Errorf("failed to upsert place %s: %w", place.ID, err)
	}
	return nil
}

func (r *MongoPlaceRepo) AppendMedia(parent context.Context, id, ref string) error {
	ctx, cancel := newContext(parent, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$addToSet": bson.M{"media": ref},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to append media to place %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return ErrPlaceNotFound
	}
	return nil
}

func (r *MongoPlaceRepo) ForEach(ctx context.Context, fn func(models.Place) error) error {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to retrieve places: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var p models.Place
		if err := cursor.Decode(&p); err != nil {
			return fmt.Errorf("failed to decode place: %w", err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (r *MongoPlaceRepo) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}
