package validators

import "go.mongodb.org/mongo-driver/bson"

var timeWindowSchema = bson.M{
	"bsonType": "object",
	"required": []string{"min_time", "max_time"},
	"properties": bson.M{
		"min_time": bson.M{"bsonType": "string"},
		"max_time": bson.M{"bsonType": "string"},
	},
}

var CalendarValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"token",
			"title",
			"threshold",
			"allowed_weekdays",
			"holidays_policy",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"token": bson.M{
				"bsonType":  "string",
				"minLength": 8,
				"maxLength": 64,
			},

			"title": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"time_zone": bson.M{
				"bsonType": "string",
			},

			"holiday_country": bson.M{
				"bsonType":  "string",
				"maxLength": 2,
			},

			"threshold": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"allowed_weekdays": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"maxItems": 7,
				"items": bson.M{
					"bsonType": "int",
					"minimum":  0,
					"maximum":  6,
				},
			},

			"min_duration_hours": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  24,
			},

			"start_date": bson.M{
				"bsonType": "string",
			},

			"end_date": bson.M{
				"bsonType": "string",
			},

			"holidays_policy": bson.M{
				"enum": []string{"ignore", "allow", "block"},
			},

			"allow_holiday_eves": bson.M{
				"bsonType": "bool",
			},

			"weekday_times": bson.M{
				"bsonType": "object",
			},

			"holiday_window":     timeWindowSchema,
			"holiday_eve_window": timeWindowSchema,

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ParticipantValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"calendar_id",
			"name",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"calendar_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 50,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
