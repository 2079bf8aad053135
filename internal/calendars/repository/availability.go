package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	calerrors "atsumaru/internal/calendars/errors"
	"atsumaru/pkg/config"
	mongotx "atsumaru/pkg/db/mongo"
	"atsumaru/pkg/model"
)

const (
	AvailabilityCollection = "Availabilities"
)

type mongoAvailabilityRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type AvailabilityRepository interface {
	Create(ctx context.Context, av *model.Availability) error
	FindByID(ctx context.Context, id string) (*model.Availability, error)
	FindByParticipant(ctx context.Context, participantID string) ([]*model.Availability, error)
	FindByParticipants(ctx context.Context, participantIDs []string) ([]*model.Availability, error)
	Update(ctx context.Context, id string, av *model.Availability) error
	Delete(ctx context.Context, id string) error
	DeleteByParticipant(ctx context.Context, participantID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoAvailabilityRepository(cfg *config.Config) AvailabilityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAvailabilityRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(AvailabilityCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// EnsureIndexes enforces at most one one-off row per (participant, date).
// Concurrent declarations for the same date resolve to exactly one winner and
// one duplicate-key error.
func (r *mongoAvailabilityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "participant_id", Value: 1},
			{Key: "date", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create availability index: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepository) Create(ctx context.Context, av *model.Availability) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	av.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, av)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: date %s", calerrors.ErrDuplicate, av.Date)
		}
		return fmt.Errorf("failed to create availability: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		av.ID = oid.Hex()
	}
	return nil
}

func (r *mongoAvailabilityRepository) FindByID(ctx context.Context, id string) (*model.Availability, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	var av model.Availability
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&av)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", calerrors.ErrAvailabilityNotFound, id)
		}
		return nil, fmt.Errorf("failed to find availability: %w", err)
	}

	return &av, nil
}

func (r *mongoAvailabilityRepository) FindByParticipant(ctx context.Context, participantID string) ([]*model.Availability, error) {
	return r.find(ctx, bson.M{"participant_id": participantID})
}

func (r *mongoAvailabilityRepository) FindByParticipants(ctx context.Context, participantIDs []string) ([]*model.Availability, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"participant_id": bson.M{"$in": participantIDs}})
}

func (r *mongoAvailabilityRepository) find(ctx context.Context, filter bson.M) ([]*model.Availability, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query availabilities: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.Availability
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode availabilities: %w", err)
	}
	return records, nil
}

func (r *mongoAvailabilityRepository) Update(ctx context.Context, id string, av *model.Availability) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"start_time": av.StartTime,
			"end_time":   av.EndTime,
			"note":       av.Note,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", calerrors.ErrAvailabilityNotFound, id)
	}
	return nil
}

func (r *mongoAvailabilityRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete availability: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", calerrors.ErrAvailabilityNotFound, id)
	}
	return nil
}

func (r *mongoAvailabilityRepository) DeleteByParticipant(ctx context.Context, participantID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"participant_id": participantID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete participant availabilities: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoAvailabilityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
