package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NO_SUCH_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500 fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "calling gateway")
	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if As(err).Code() != CodeDependency {
		t.Fatalf("expected dependency code, got %s", As(err).Code())
	}
}

func TestAsReturnsNilForUntypedError(t *testing.T) {
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for plain error")
	}
}

func TestWithDetailsRoundTrip(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"field": "planName"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["field"] != "planName" {
		t.Fatalf("details not preserved: %#v", err.Details())
	}
}
