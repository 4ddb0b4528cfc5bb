package models

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payload holds the free-form fields of records whose schema the backend does
// not own. Keys are persisted next to the managed fields of the document.
type Payload map[string]interface{}

// LoanRequest is a loan simulation submitted by a lead. Its fields are defined
// by the client and stored as-is.
type LoanRequest struct {
	Base    `bson:",inline"`
	Owner   `bson:",inline"`
	Payload Payload `bson:",inline"`
}

func (l LoanRequest) MarshalJSON() ([]byte, error) {
	return marshalPayload(l.Base, l.Owner, l.Payload)
}

func (l *LoanRequest) UnmarshalJSON(data []byte) error {
	return unmarshalPayload(data, &l.Owner, &l.Payload)
}

// WhatsappMessage is a message exchanged with a lead over WhatsApp. Its
// fields are defined by the client and stored as-is.
type WhatsappMessage struct {
	Base    `bson:",inline"`
	Owner   `bson:",inline"`
	Payload Payload `bson:",inline"`
}

func (m WhatsappMessage) MarshalJSON() ([]byte, error) {
	return marshalPayload(m.Base, m.Owner, m.Payload)
}

func (m *WhatsappMessage) UnmarshalJSON(data []byte) error {
	return unmarshalPayload(data, &m.Owner, &m.Payload)
}

func marshalPayload(base Base, owner Owner, payload Payload) ([]byte, error) {
	out := make(map[string]interface{}, len(payload)+5)
	for k, v := range payload {
		out[k] = v
	}
	out["_id"] = base.ID
	out["createdAt"] = base.CreatedAt
	out["updatedAt"] = base.UpdatedAt
	if owner.CPF != "" {
		out["cpf"] = owner.CPF
	}
	if owner.User != nil {
		out["user"] = owner.User
	}
	return json.Marshal(out)
}

// unmarshalPayload merges data into the record: owner fields are decoded into
// owner, managed fields are ignored and everything else lands in payload.
func unmarshalPayload(data []byte, owner *Owner, payload *Payload) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if *payload == nil {
		*payload = Payload{}
	}
	for k, v := range raw {
		switch k {
		case "_id", "createdAt", "updatedAt":
			continue
		case "cpf":
			if err := json.Unmarshal(v, &owner.CPF); err != nil {
				return err
			}
		case "user":
			var id primitive.ObjectID
			if err := json.Unmarshal(v, &id); err != nil {
				return err
			}
			owner.User = &id
		default:
			var value interface{}
			if err := json.Unmarshal(v, &value); err != nil {
				return err
			}
			(*payload)[k] = value
		}
	}
	return nil
}
