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
	CalendarCollection = "Calendars"
)

type mongoCalendarRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

type CalendarRepository interface {
	Create(ctx context.Context, cal *model.Calendar) error
	FindByID(ctx context.Context, id string) (*model.Calendar, error)
	FindByToken(ctx context.Context, token string) (*model.Calendar, error)
	UpdateSettings(ctx context.Context, id string, cal *model.Calendar) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

func NewMongoCalendarRepository(cfg *config.Config) CalendarRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCalendarRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(CalendarCollection),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// EnsureIndexes creates the unique share-token index. Safe to call on every
// startup; Mongo treats an existing identical index as a no-op.
func (r *mongoCalendarRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "token", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create calendar token index: %w", err)
	}
	return nil
}

func (r *mongoCalendarRepository) Create(ctx context.Context, cal *model.Calendar) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	cal.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, cal)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: token %s", calerrors.ErrDuplicate, cal.Token)
		}
		return fmt.Errorf("failed to create calendar: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		cal.ID = oid.Hex()
	}
	return nil
}

func (r *mongoCalendarRepository) FindByID(ctx context.Context, id string) (*model.Calendar, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	var cal model.Calendar
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&cal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", calerrors.ErrCalendarNotFound, id)
		}
		return nil, fmt.Errorf("failed to find calendar: %w", err)
	}

	return &cal, nil
}

func (r *mongoCalendarRepository) FindByToken(ctx context.Context, token string) (*model.Calendar, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var cal model.Calendar
	err := r.collection.FindOne(ctx, bson.M{"token": token}).Decode(&cal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: token %s", calerrors.ErrCalendarNotFound, token)
		}
		return nil, fmt.Errorf("failed to find calendar by token: %w", err)
	}

	return &cal, nil
}

func (r *mongoCalendarRepository) UpdateSettings(ctx context.Context, id string, cal *model.Calendar) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	update := bson.M{
		"$set": bson.M{
			"title":              cal.Title,
			"time_zone":          cal.TimeZone,
			"holiday_country":    cal.HolidayCountry,
			"threshold":          cal.Threshold,
			"allowed_weekdays":   cal.AllowedWeekdays,
			"min_duration_hours": cal.MinDurationHours,
			"start_date":         cal.StartDate,
			"end_date":           cal.EndDate,
			"holidays_policy":    cal.HolidaysPolicy,
			"allow_holiday_eves": cal.AllowHolidayEves,
			"weekday_times":      cal.WeekdayTimes,
			"holiday_window":     cal.HolidayWindow,
			"holiday_eve_window": cal.HolidayEveWindow,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, update)
	if err != nil {
		return fmt.Errorf("failed to update calendar settings: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", calerrors.ErrCalendarNotFound, id)
	}
	return nil
}

func (r *mongoCalendarRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", calerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete calendar: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", calerrors.ErrCalendarNotFound, id)
	}
	return nil
}

func (r *mongoCalendarRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count calendars: %w", err)
	}
	return count, nil
}

func (r *mongoCalendarRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
