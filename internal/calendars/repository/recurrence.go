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
	RecurrenceCollection = "Recurrences"
	ExceptionCollection  = "RecurrenceExceptions"
)

type mongoRecurrenceRepository struct {
	cfg         *config.Config
	db          *mongo.Database
	recurrences *mongo.Collection
	exceptions  *mongo.Collection
	txManager   mongotx.TransactionManager
}

type RecurrenceRepository interface {
	Create(ctx context.Context, rec *model.Recurrence) error
	FindByID(ctx context.Context, id string) (*model.Recurrence, error)
	FindByParticipant(ctx context.Context, participantID string) ([]*model.Recurrence, error)
	FindByParticipants(ctx context.Context, participantIDs []string) ([]*model.Recurrence, error)
	Delete(ctx context.Context, id string) error
	DeleteByParticipant(ctx context.Context, participantID string) ([]string, error)

	CreateException(ctx context.Context, ex *model.RecurrenceException) error
	DeleteException(ctx context.Context, recurrenceID, excludedDate string) error
	FindExceptionsByRecurrences(ctx context.Context, recurrenceIDs []string) ([]*model.RecurrenceException, error)
	DeleteExceptionsByRecurrences(ctx context.Context, recurrenceIDs []string) (int64, error)

	EnsureIndexes(ctx context.Context) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoRecurrenceRepository(cfg *config.Config) RecurrenceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRecurrenceRepository{
		cfg:         cfg,
		db:          db,
		recurrences: db.Collection(RecurrenceCollection),
		exceptions:  db.Collection(ExceptionCollection),
		txManager:   mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// EnsureIndexes enforces exception idempotency: at most one exception row per
// (recurrence, excluded date).
func (r *mongoRecurrenceRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.exceptions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "recurrence_id", Value: 1},
			{Key: "excluded_date", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create exception index: %w", err)
	}

	_, err = r.recurrences.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "participant_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create recurrence index: %w", err)
	}
	return nil
}

func (r *mongoRecurrenceRepository) Create(ctx context.Context, rec *model.Recurrence) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	rec.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.recurrences.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to create recurrence: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRecurrenceRepository) FindByID(ctx context.Context, id string) (*model.Recurrence, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	var rec model.Recurrence
	err = r.recurrences.FindOne(ctx, bson.M{"_id": objectID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", calerrors.ErrRecurrenceNotFound, id)
		}
		return nil, fmt.Errorf("failed to find recurrence: %w", err)
	}

	return &rec, nil
}

func (r *mongoRecurrenceRepository) FindByParticipant(ctx context.Context, participantID string) ([]*model.Recurrence, error) {
	return r.find(ctx, bson.M{"participant_id": participantID})
}

func (r *mongoRecurrenceRepository) FindByParticipants(ctx context.Context, participantIDs []string) ([]*model.Recurrence, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"participant_id": bson.M{"$in": participantIDs}})
}

func (r *mongoRecurrenceRepository) find(ctx context.Context, filter bson.M) ([]*model.Recurrence, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}})
	cursor, err := r.recurrences.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurrences: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.Recurrence
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode recurrences: %w", err)
	}
	return records, nil
}

func (r *mongoRecurrenceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	result, err := r.recurrences.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete recurrence: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", calerrors.ErrRecurrenceNotFound, id)
	}
	return nil
}

// DeleteByParticipant removes all of a participant's recurrences and returns
// their ids so the caller can cascade to the exception rows.
func (r *mongoRecurrenceRepository) DeleteByParticipant(ctx context.Context, participantID string) ([]string, error) {
	records, err := r.FindByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.recurrences.DeleteMany(ctx, bson.M{"participant_id": participantID}); err != nil {
		return nil, fmt.Errorf("failed to delete participant recurrences: %w", err)
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func (r *mongoRecurrenceRepository) CreateException(ctx context.Context, ex *model.RecurrenceException) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ex.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.exceptions.InsertOne(ctx, ex)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: excluded date %s", calerrors.ErrDuplicate, ex.ExcludedDate)
		}
		return fmt.Errorf("failed to create exception: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		ex.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRecurrenceRepository) DeleteException(ctx context.Context, recurrenceID, excludedDate string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"recurrence_id": recurrenceID,
		"excluded_date": excludedDate,
	}
	result, err := r.exceptions.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete exception: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s on %s", calerrors.ErrExceptionNotFound, recurrenceID, excludedDate)
	}
	return nil
}

func (r *mongoRecurrenceRepository) FindExceptionsByRecurrences(ctx context.Context, recurrenceIDs []string) ([]*model.RecurrenceException, error) {
	if len(recurrenceIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.exceptions.Find(ctx, bson.M{"recurrence_id": bson.M{"$in": recurrenceIDs}})
	if err != nil {
		return nil, fmt.Errorf("failed to query exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.RecurrenceException
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode exceptions: %w", err)
	}
	return records, nil
}

func (r *mongoRecurrenceRepository) DeleteExceptionsByRecurrences(ctx context.Context, recurrenceIDs []string) (int64, error) {
	if len(recurrenceIDs) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.exceptions.DeleteMany(ctx, bson.M{"recurrence_id": bson.M{"$in": recurrenceIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete exceptions: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoRecurrenceRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
