package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"atsumaru/internal/migrations/mongo/validators"
)

var (
	CalendarsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	ParticipantsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "calendar_id", Value: 1},
				{Key: "name", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	AvailabilitiesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "participant_id", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}

	RecurrencesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "participant_id", Value: 1}}},
	}

	RecurrenceExceptionsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "recurrence_id", Value: 1},
				{Key: "excluded_date", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
)

// RunMigration ensures every collection exists with its schema validator and
// indexes. The same unique indexes are also created by the repositories on
// startup; running the job first means a fresh database is fully prepared
// before the service takes traffic.
func RunMigration(ctx context.Context, client *mongo.Client, databaseName string) error {
	db := client.Database(databaseName)
	fmt.Printf("Running Mongo migrations on database: %s\n", databaseName)

	collections := map[string]struct {
		Indexes   []mongo.IndexModel
		Validator bson.M
	}{
		"Calendars": {
			Indexes:   CalendarsIndexes,
			Validator: validators.CalendarValidator,
		},
		"Participants": {
			Indexes:   ParticipantsIndexes,
			Validator: validators.ParticipantValidator,
		},
		"Availabilities": {
			Indexes:   AvailabilitiesIndexes,
			Validator: validators.AvailabilityValidator,
		},
		"Recurrences": {
			Indexes:   RecurrencesIndexes,
			Validator: validators.RecurrenceValidator,
		},
		"RecurrenceExceptions": {
			Indexes:   RecurrenceExceptionsIndexes,
			Validator: validators.RecurrenceExceptionValidator,
		},
	}

	for name, def := range collections {
		if err := ensureCollection(ctx, db, name, def.Validator); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	fmt.Println("All migrations applied successfully.")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		fmt.Printf("Creating collection: %s\n", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
	} else {
		fmt.Printf("Collection %s already exists, updating validator if needed\n", name)
		command := bson.D{
			{Key: "collMod", Value: name},
			{Key: "validator", Value: validator},
		}
		if err := db.RunCommand(ctx, command).Err(); err != nil {
			fmt.Printf("Warning: failed updating validator for %s: %v\n", name, err)
		}
	}

	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	coll := db.Collection(name)
	_, err := coll.Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	fmt.Printf("Ensured indexes for %s\n", name)
	return nil
}
