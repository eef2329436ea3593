package config

import (
	"context"
	"errors"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureMongoIndexes() error {
	if MongoClient == nil {
		return errors.New("MongoClient is nil; call InitMongo() first")
	}

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "cartpilot"
	}
	db := MongoClient.Database(dbName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	memories := db.Collection("user_memories")
	if _, err := memories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().
			SetName("uniq_user_id").
			SetUnique(true),
	}); err != nil {
		return err
	}

	carts := db.Collection("carts")
	if _, err := carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().
			SetName("uniq_user_id").
			SetUnique(true),
	}); err != nil {
		return err
	}

	products := db.Collection("products")
	if _, err := products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "product_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_product_id").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("by_created"),
		},
	}); err != nil {
		return err
	}

	promotions := db.Collection("promotions")
	if _, err := promotions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "code", Value: 1}},
			Options: options.Index().
				SetName("uniq_code").
				SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("by_active_created"),
		},
	}); err != nil {
		return err
	}

	orders := db.Collection("orders")
	_, err := orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("by_user_created"),
	})
	return err
}
