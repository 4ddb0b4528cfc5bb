package handlers

import (
	"context"
	"errors"
	"log/slog"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AnshRaj112/leadcrm-backend/internal/services"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"validation", &utils.ValidationError{Field: "cpf", Message: "cpf is required"}, http.StatusBadRequest, `{"error":"cpf is required"}`},
		{"invalid updates", services.ErrInvalidUpdates, http.StatusBadRequest, `{"error":"Invalid updates!"}`},
		{"not found", fmt.Errorf("lookup: %w", services.ErrNotFound), http.StatusNotFound, ""},
		{"login", services.ErrUnableToLogin, http.StatusBadRequest, ""},
		{"unauthenticated", services.ErrUnauthenticated, http.StatusUnauthorized, `{"error":"Please authenticate."}`},
		{"internal", errors.New("connection refused"), http.StatusInternalServerError, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			if tc.body == "" {
				assert.Empty(t, rec.Body.String())
			} else {
				assert.JSONEq(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestDecodeFields(t *testing.T) {
	req := func(body string) *http.Request {
		return httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
	}

	fields, err := decodeFields(req(`{"date":"2024-01-01","extra":1}`))
	require.NoError(t, err)
	assert.Len(t, fields, 2)

	fields, err = decodeFields(req(``))
	require.NoError(t, err)
	assert.Empty(t, fields)

	for _, body := range []string{`null`, `[1,2]`, `{"date":`} {
		_, err = decodeFields(req(body))
		assert.Error(t, err, body)
	}
}

type ctxKey struct{}

// recordingHandler keeps the context and attributes of each log record.
type recordingHandler struct {
	ctxs  []context.Context
	attrs []map[string]string
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(ctx context.Context, rec slog.Record) error {
	attrs := map[string]string{"msg": rec.Message}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	h.ctxs = append(h.ctxs, ctx)
	h.attrs = append(h.attrs, attrs)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestWriteJSONEncodeFailureLogsRequest(t *testing.T) {
	logs := &recordingHandler{}
	prev := slog.Default()
	slog.SetDefault(slog.New(logs))
	t.Cleanup(func() { slog.SetDefault(prev) })

	req := httptest.NewRequest(http.MethodGet, "/calls", nil)
	req = req.WithContext(context.WithValue(req.Context(), ctxKey{}, "req-1"))
	rec := httptest.NewRecorder()

	writeJSON(rec, req, http.StatusOK, map[string]interface{}{"bad": make(chan int)})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, logs.ctxs, 1)
	assert.Equal(t, "req-1", logs.ctxs[0].Value(ctxKey{}))
	assert.Equal(t, "failed to encode response", logs.attrs[0]["msg"])
	assert.Equal(t, "/calls", logs.attrs[0]["path"])
	assert.Equal(t, http.MethodGet, logs.attrs[0]["method"])
}
