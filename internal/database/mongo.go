package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Compile-time check that MongoStore implements the Store interface
var _ Store = (*MongoStore)(nil)

// MongoStore implements Store on top of a MongoDB database. Documents are
// keyed by a string _id; merge writes map to $set with upsert and numeric
// increments to $inc.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a store backed by the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

// Connect establishes and verifies a MongoDB client connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// Get returns the fields of one document, or ErrNotFound.
func (s *MongoStore) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	delete(doc, "_id")
	return map[string]interface{}(doc), nil
}

// Set writes fields to a document, creating it if needed.
func (s *MongoStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	coll := s.db.Collection(collection)

	if merge {
		update := bson.M{"$set": bson.M(fields)}
		opts := options.Update().SetUpsert(true)
		if _, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update, opts); err != nil {
			return fmt.Errorf("failed to merge %s/%s: %w", collection, id, err)
		}
		return nil
	}

	replacement := bson.M{}
	for k, v := range fields {
		replacement[k] = v
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, replacement, opts); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

// Increment atomically adds delta to a numeric field.
func (s *MongoStore) Increment(ctx context.Context, collection, id, field string, delta int) error {
	update := bson.M{"$inc": bson.M{field: delta}}
	opts := options.Update().SetUpsert(true)
	if _, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update, opts); err != nil {
		return fmt.Errorf("failed to increment %s on %s/%s: %w", field, collection, id, err)
	}
	return nil
}

// All returns every document in a collection.
func (s *MongoStore) All(ctx context.Context, collection string) ([]Document, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, fmt.Errorf("failed to decode %s document: %w", collection, err)
		}
		id, _ := raw["_id"].(string)
		delete(raw, "_id")
		docs = append(docs, Document{ID: id, Fields: map[string]interface{}(raw)})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", collection, err)
	}
	return docs, nil
}
