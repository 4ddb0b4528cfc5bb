// Package memstore is an in-memory repository.Records used by tests. Documents
// go through the same bson codecs as the MongoDB implementation so filters and
// unique keys behave like the real collections.
package memstore

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/AnshRaj112/leadcrm-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Records[T any, PT repository.DocumentPtr[T]] struct {
	mu     sync.Mutex
	docs   []bson.Raw
	unique []string
	err    error
	now    func() time.Time
}

// New returns an empty store. unique lists top-level fields that behave like a
// sparse unique index.
func New[T any, PT repository.DocumentPtr[T]](unique ...string) *Records[T, PT] {
	return &Records[T, PT]{
		unique: unique,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (s *Records[T, PT]) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Len returns the number of stored documents.
func (s *Records[T, PT]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Records[T, PT]) Create(_ context.Context, doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	p := PT(doc)
	p.Init(primitive.NewObjectID(), s.now())

	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.checkUnique(raw, -1); err != nil {
		return err
	}
	s.docs = append(s.docs, raw)
	return nil
}

func (s *Records[T, PT]) Find(_ context.Context, filter repository.Filter) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	out := make([]T, 0)
	for _, raw := range s.docs {
		ok, err := matches(raw, filter)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var doc T
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *Records[T, PT]) FindOne(ctx context.Context, filter repository.Filter) (*T, error) {
	docs, err := s.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, repository.ErrNotFound
	}
	return &docs[0], nil
}

func (s *Records[T, PT]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, repository.Filter{"_id": oid})
}

func (s *Records[T, PT]) Save(_ context.Context, doc *T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}

	p := PT(doc)
	idx := s.indexOf(p.GetID())
	if idx < 0 {
		return repository.ErrNotFound
	}
	p.Touch(s.now())

	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.checkUnique(raw, idx); err != nil {
		return err
	}
	s.docs[idx] = raw
	return nil
}

func (s *Records[T, PT]) Delete(_ context.Context, id string) (*T, error) {
	oid, err := repository.ParseID(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}

	idx := s.indexOf(oid)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}
	var doc T
	if err := bson.Unmarshal(s.docs[idx], &doc); err != nil {
		return nil, err
	}
	s.docs = append(s.docs[:idx], s.docs[idx+1:]...)
	return &doc, nil
}

func (s *Records[T, PT]) indexOf(id primitive.ObjectID) int {
	for i, raw := range s.docs {
		v, err := raw.LookupErr("_id")
		if err != nil {
			continue
		}
		if oid, ok := v.ObjectIDOK(); ok && oid == id {
			return i
		}
	}
	return -1
}

func (s *Records[T, PT]) checkUnique(raw bson.Raw, self int) error {
	for _, field := range s.unique {
		v, err := raw.LookupErr(field)
		if err != nil {
			continue
		}
		for i, other := range s.docs {
			if i == self {
				continue
			}
			ov, err := other.LookupErr(field)
			if err != nil {
				continue
			}
			if ov.Type == v.Type && bytes.Equal(ov.Value, v.Value) {
				return repository.ErrDuplicate
			}
		}
	}
	return nil
}

func matches(raw bson.Raw, filter repository.Filter) (bool, error) {
	for key, want := range filter {
		t, data, err := bson.MarshalValue(want)
		if err != nil {
			return false, err
		}
		got, err := raw.LookupErr(key)
		if err != nil {
			return false, nil
		}
		if got.Type != t || !bytes.Equal(got.Value, data) {
			return false, nil
		}
	}
	return true, nil
}
