package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnableToLogin   = errors.New("unable to login")
	ErrUnauthenticated = errors.New("please authenticate")

	// ErrInvalidUpdates rejects a patch naming a field outside the allow-list.
	ErrInvalidUpdates = &utils.ValidationError{Message: "Invalid updates!"}
)

// allowList is the fixed set of field names a patch may modify.
type allowList map[string]struct{}

func newAllowList(fields ...string) allowList {
	out := make(allowList, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

// permits reports whether every key of fields is allowed.
func (a allowList) permits(fields map[string]json.RawMessage) bool {
	for k := range fields {
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}

// decodeFields applies a patch body onto dst. Fields absent from the body are
// left untouched.
func decodeFields(fields map[string]json.RawMessage, dst interface{}) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &utils.ValidationError{Field: typeErr.Field, Message: fmt.Sprintf("%s is invalid", typeErr.Field)}
		}
		return &utils.ValidationError{Message: err.Error()}
	}
	return nil
}
