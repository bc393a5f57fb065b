package paystackwebhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"

	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
)

// SignatureHeader carries the gateway's HMAC of the request body.
const SignatureHeader = "x-paystack-signature"

// VerifySignature checks the HMAC-SHA512 of the exact raw body bytes against
// the provided hex signature. A missing secret rejects everything: an
// unverifiable endpoint must fail closed.
func VerifySignature(secret string, body []byte, signature string) error {
	if strings.TrimSpace(secret) == "" {
		return pkgerrors.New(pkgerrors.CodeInternal, "webhook secret not configured")
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	computed := hex.EncodeToString(mac.Sum(nil))

	provided := strings.ToLower(strings.TrimSpace(signature))
	if provided == "" || !hmac.Equal([]byte(computed), []byte(provided)) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature")
	}
	return nil
}

// Event is a parsed gateway notification. DataRaw keeps the original payload
// bytes for metadata merging; Data is the fields reconciliation reads.
type Event struct {
	Event   string          `json:"event"`
	Data    EventData       `json:"-"`
	DataRaw json.RawMessage `json:"data"`
}

// EventData is the subset of the gateway payload the reconciler uses.
type EventData struct {
	Status      string `json:"status"`
	Reference   string `json:"reference"`
	TrxRef      string `json:"trxref"`
	ReferenceNo string `json:"reference_no"`
	Amount      int64  `json:"amount"`
	PaidAt      string `json:"paid_at"`
	Channel     string `json:"channel"`
}

// ParseEvent decodes a verified webhook body. Callers must verify the
// signature first; parsing never touches unverified input.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook payload")
	}
	if len(event.DataRaw) > 0 {
		if err := json.Unmarshal(event.DataRaw, &event.Data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode webhook data")
		}
	}
	return &event, nil
}

// Reference returns the transaction reference, trying the aliases gateways
// have used across API versions.
func (e *Event) Reference() string {
	for _, candidate := range []string{e.Data.Reference, e.Data.TrxRef, e.Data.ReferenceNo} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// IsSuccess reports whether the event marks a completed charge.
func (e *Event) IsSuccess() bool {
	switch strings.ToLower(e.Event) {
	case "charge.success", "transaction.success":
		return true
	}
	return strings.EqualFold(e.Data.Status, "success")
}

// IsFailure reports whether the event marks a failed charge.
func (e *Event) IsFailure() bool {
	switch strings.ToLower(e.Event) {
	case "charge.failed", "transaction.failed", "invoice.payment_failed":
		return true
	}
	return strings.EqualFold(e.Data.Status, "failed")
}
