package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"participant_id",
			"date",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"participant_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"start_time": bson.M{
				"bsonType": "string",
			},

			"end_time": bson.M{
				"bsonType": "string",
			},

			"note": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var RecurrenceValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"participant_id",
			"day_of_week",
			"start_date",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"participant_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"day_of_week": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  6,
			},

			"start_date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"end_date": bson.M{
				"bsonType": "string",
			},

			"start_time": bson.M{
				"bsonType": "string",
			},

			"end_time": bson.M{
				"bsonType": "string",
			},

			"note": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var RecurrenceExceptionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"recurrence_id",
			"excluded_date",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"recurrence_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"excluded_date": bson.M{
				"bsonType": "string",
				"pattern":  "^\\d{4}-\\d{2}-\\d{2}$",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
