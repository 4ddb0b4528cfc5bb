package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/repository"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Allow-lists of the interaction records.
var (
	CallUpdates            = []string{"address", "date"}
	VisitUpdates           = []string{"store", "date"}
	LoanRequestUpdates     = []string{"amount", "installments", "status"}
	WhatsappMessageUpdates = []string{"message", "status"}
)

// RecordService is the CRUD shared by every interaction record collection.
type RecordService[T any] struct {
	records repository.Records[T]
	allowed allowList
}

func NewRecordService[T any](records repository.Records[T], allowedUpdates ...string) *RecordService[T] {
	return &RecordService[T]{records: records, allowed: newAllowList(allowedUpdates...)}
}

func NewCallService(records repository.Records[models.Call]) *RecordService[models.Call] {
	return NewRecordService(records, CallUpdates...)
}

func NewVisitService(records repository.Records[models.Visit]) *RecordService[models.Visit] {
	return NewRecordService(records, VisitUpdates...)
}

func NewLoanRequestService(records repository.Records[models.LoanRequest]) *RecordService[models.LoanRequest] {
	return NewRecordService(records, LoanRequestUpdates...)
}

func NewWhatsappMessageService(records repository.Records[models.WhatsappMessage]) *RecordService[models.WhatsappMessage] {
	return NewRecordService(records, WhatsappMessageUpdates...)
}

// Create validates rec and persists it with a generated id.
func (s *RecordService[T]) Create(ctx context.Context, rec *T) error {
	if err := utils.ValidateStruct(rec); err != nil {
		return err
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	return nil
}

// FindMany returns every record matching filter; an empty filter matches all.
func (s *RecordService[T]) FindMany(ctx context.Context, filter repository.Filter) ([]T, error) {
	recs, err := s.records.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	return recs, nil
}

// FindByCPF returns the records owned by the user with cpf.
func (s *RecordService[T]) FindByCPF(ctx context.Context, cpf string) ([]T, error) {
	return s.FindMany(ctx, repository.Filter{"cpf": strings.TrimSpace(cpf)})
}

// FindByUser returns the records linked to the user document id. A malformed
// id matches nothing.
func (s *RecordService[T]) FindByUser(ctx context.Context, userID string) ([]T, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return []T{}, nil
	}
	return s.FindMany(ctx, repository.Filter{"user": oid})
}

func (s *RecordService[T]) FindByID(ctx context.Context, id string) (*T, error) {
	rec, err := s.records.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find record: %w", err)
	}
	return rec, nil
}

// Patch applies fields to the record with id. Nothing is applied when any
// field is outside the allow-list.
func (s *RecordService[T]) Patch(ctx context.Context, id string, fields map[string]json.RawMessage) (*T, error) {
	if !s.allowed.permits(fields) {
		return nil, ErrInvalidUpdates
	}

	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := decodeFields(fields, rec); err != nil {
		return nil, err
	}
	if err := utils.ValidateStruct(rec); err != nil {
		return nil, err
	}

	if err := s.records.Save(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save record: %w", err)
	}
	return rec, nil
}

// Delete removes the record and returns it as it was.
func (s *RecordService[T]) Delete(ctx context.Context, id string) (*T, error) {
	rec, err := s.records.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete record: %w", err)
	}
	return rec, nil
}
