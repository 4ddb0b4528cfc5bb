package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names, one per entity type.
const (
	CollectionUsers            = "users"
	CollectionCalls            = "calls"
	CollectionVisits           = "visits"
	CollectionLoanRequests     = "loanrequests"
	CollectionWhatsappMessages = "whatsappmessages"
)

// Base carries the identity and timestamps every stored document has.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (b *Base) GetID() primitive.ObjectID { return b.ID }

// Init gives a new document its identity, discarding any client-sent values.
func (b *Base) Init(id primitive.ObjectID, now time.Time) {
	b.ID = id
	b.CreatedAt = now
	b.UpdatedAt = now
}

// Touch stamps UpdatedAt, and CreatedAt if it was never set.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Owner links an interaction record to a user, either by CPF or by the
// user's document id. Lookups by CPF and by user id are both supported.
type Owner struct {
	CPF  string              `bson:"cpf,omitempty" json:"cpf,omitempty" validate:"required_without=User"`
	User *primitive.ObjectID `bson:"user,omitempty" json:"user,omitempty" validate:"required_without=CPF"`
}
