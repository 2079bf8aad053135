package client

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"atsumaru/pkg/logger"
)

type Client struct {
	Mongo *mongo.Client

	log *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB",
			"error", err,
			"uri", mongoURI,
		)
	}

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB", "error", err)
	}

	log.Info("Successfully connected to MongoDB")
	c.Mongo = client
	c.log = log
}

func (c *Client) GracefulShutdown() {
	if c.Mongo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.Mongo.Disconnect(ctx); err != nil {
		if c.log != nil {
			c.log.Error("Failed to disconnect from MongoDB", "error", err)
		}
		return
	}
	if c.log != nil {
		c.log.Info("Disconnected from MongoDB")
	}
}
