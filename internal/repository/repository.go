// Package repository persists documents in MongoDB. Every entity collection is
// served by the same generic implementation.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
)

// Filter matches documents whose stored fields equal every given value.
type Filter map[string]interface{}

// Document is implemented by pointers to the model types.
type Document interface {
	GetID() primitive.ObjectID
	Init(id primitive.ObjectID, now time.Time)
	Touch(time.Time)
}

// DocumentPtr constrains PT to be *T implementing Document.
type DocumentPtr[T any] interface {
	*T
	Document
}

// Records is the store contract the services depend on.
type Records[T any] interface {
	Create(ctx context.Context, doc *T) error
	Find(ctx context.Context, filter Filter) ([]T, error)
	FindOne(ctx context.Context, filter Filter) (*T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	// Save replaces the stored document with doc, matching on its id.
	Save(ctx context.Context, doc *T) error
	// Delete removes the document and returns it as it was before removal.
	Delete(ctx context.Context, id string) (*T, error)
}

// ParseID converts a hex id; malformed ids are reported as ErrNotFound since
// no document can carry them.
func ParseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}
