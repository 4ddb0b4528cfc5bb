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
)

// MongoRecords implements Records on top of a single collection.
type MongoRecords[T any, PT DocumentPtr[T]] struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRecords[T any, PT DocumentPtr[T]](db *mongo.Database, collection string) *MongoRecords[T, PT] {
	return &MongoRecords[T, PT]{
		coll: db.Collection(collection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *MongoRecords[T, PT]) Create(ctx context.Context, doc *T) error {
	p := PT(doc)
	p.Init(primitive.NewObjectID(), r.now())

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return r.wrap("insert", err)
	}
	return nil
}

func (r *MongoRecords[T, PT]) Find(ctx context.Context, filter Filter) ([]T, error) {
	cursor, err := r.coll.Find(ctx, bson.M(filter), options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, r.wrap("find", err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, r.wrap("decode", err)
	}
	return out, nil
}

func (r *MongoRecords[T, PT]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	var doc T
	if err := r.coll.FindOne(ctx, bson.M(filter)).Decode(&doc); err != nil {
		return nil, r.wrap("find one", err)
	}
	return &doc, nil
}

func (r *MongoRecords[T, PT]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return r.FindOne(ctx, Filter{"_id": oid})
}

func (r *MongoRecords[T, PT]) Save(ctx context.Context, doc *T) error {
	p := PT(doc)
	p.Touch(r.now())

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": p.GetID()}, doc)
	if err != nil {
		return r.wrap("replace", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRecords[T, PT]) Delete(ctx context.Context, id string) (*T, error) {
	oid, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, r.wrap("delete", err)
	}
	return &doc, nil
}

func (r *MongoRecords[T, PT]) wrap(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%s %s: %w", r.coll.Name(), op, ErrDuplicate)
	default:
		return fmt.Errorf("%s %s: %w", r.coll.Name(), op, err)
	}
}
