package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
	"github.com/shuddy05/compliancehub-backendd/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var envelope types.SuccessEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok || data["status"] != "ok" {
		t.Fatalf("unexpected data %v", envelope.Data)
	}
}

func TestWriteErrorCodedMessages(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation passes the message through",
			err:        pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cycle"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
			wantMsg:    "invalid billing cycle",
		},
		{
			name:       "forbidden passes the message through",
			err:        pkgerrors.New(pkgerrors.CodeForbidden, "only admins can initiate payments"),
			wantStatus: http.StatusForbidden,
			wantCode:   "FORBIDDEN",
			wantMsg:    "only admins can initiate payments",
		},
		{
			name:       "internal hides the message",
			err:        pkgerrors.New(pkgerrors.CodeInternal, "db exploded near line 42"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "internal server error",
		},
		{
			name:       "untyped errors become internal",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
			wantMsg:    "internal server error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			var envelope types.ErrorEnvelope
			if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if envelope.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", envelope.Error.Code, tc.wantCode)
			}
			if envelope.Error.Message != tc.wantMsg {
				t.Fatalf("message = %q, want %q", envelope.Error.Message, tc.wantMsg)
			}
		})
	}
}

func TestWriteErrorDetailsOnlyWhenAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
		WithDetails(map[string]string{"plan_name": "is required"})
	WriteError(context.Background(), nil, rec, err)

	var envelope types.ErrorEnvelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &envelope); decodeErr != nil {
		t.Fatalf("decode body: %v", decodeErr)
	}
	if envelope.Error.Details == nil {
		t.Fatalf("validation details should be exposed")
	}

	rec = httptest.NewRecorder()
	err = pkgerrors.New(pkgerrors.CodeInternal, "boom").WithDetails(map[string]string{"secret": "yes"})
	WriteError(context.Background(), nil, rec, err)

	var hidden types.ErrorEnvelope
	if decodeErr := json.Unmarshal(rec.Body.Bytes(), &hidden); decodeErr != nil {
		t.Fatalf("decode body: %v", decodeErr)
	}
	if hidden.Error.Details != nil {
		t.Fatalf("internal details must not leak")
	}
}
