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
	ParticipantCollection = "Participants"
)

type mongoParticipantRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type ParticipantRepository interface {
	Create(ctx context.Context, p *model.Participant) error
	FindByID(ctx context.Context, id string) (*model.Participant, error)
	FindByCalendar(ctx context.Context, calendarID string) ([]*model.Participant, error)
	Delete(ctx context.Context, id string) error
	DeleteByCalendar(ctx context.Context, calendarID string) (int64, error)
	CountByCalendar(ctx context.Context, calendarID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoParticipantRepository(cfg *config.Config) ParticipantRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoParticipantRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(ParticipantCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// EnsureIndexes enforces name uniqueness within a calendar at the storage
// layer, so concurrent joins with the same name race safely.
func (r *mongoParticipantRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "calendar_id", Value: 1},
			{Key: "name", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create participant name index: %w", err)
	}
	return nil
}

func (r *mongoParticipantRepository) Create(ctx context.Context, p *model.Participant) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	p.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, p)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: name %s", calerrors.ErrDuplicate, p.Name)
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		p.ID = oid.Hex()
	}
	return nil
}

func (r *mongoParticipantRepository) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	var p model.Participant
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", calerrors.ErrParticipantNotFound, id)
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}

	return &p, nil
}

func (r *mongoParticipantRepository) FindByCalendar(ctx context.Context, calendarID string) ([]*model.Participant, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"calendar_id": calendarID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer cursor.Close(ctx)

	var participants []*model.Participant
	if err = cursor.All(ctx, &participants); err != nil {
		return nil, fmt.Errorf("failed to decode participants: %w", err)
	}
	return participants, nil
}

func (r *mongoParticipantRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", calerrors.ErrParticipantNotFound, id)
	}
	return nil
}

func (r *mongoParticipantRepository) DeleteByCalendar(ctx context.Context, calendarID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"calendar_id": calendarID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete calendar participants: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoParticipantRepository) CountByCalendar(ctx context.Context, calendarID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"calendar_id": calendarID})
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

func (r *mongoParticipantRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
