package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	paystackwebhook "github.com/shuddy05/compliancehub-backendd/internal/webhooks/paystack"
	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
	"github.com/shuddy05/compliancehub-backendd/pkg/logger"
)

type PaystackWebhookService interface {
	HandleEvent(ctx context.Context, event *paystackwebhook.Event) error
}

type webhookAck struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// PaystackWebhook receives gateway events. It always replies 200: the ack
// body's ok flag tells the gateway whether to redeliver, and an invalid
// signature is acked without mutation so forged deliveries learn nothing.
func PaystackWebhook(svc PaystackWebhookService, secretKey string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			writeAck(w, webhookAck{OK: false, Message: "webhook service unavailable"})
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			if logg != nil {
				logg.Error(ctx, "read webhook body", err)
			}
			writeAck(w, webhookAck{OK: false, Message: "unreadable payload"})
			return
		}

		signature := r.Header.Get(paystackwebhook.SignatureHeader)
		if err := paystackwebhook.VerifySignature(secretKey, body, signature); err != nil {
			if logg != nil {
				// a missing secret is our misconfiguration, not a forgery
				if coded := pkgerrors.As(err); coded != nil && coded.Code() == pkgerrors.CodeInternal {
					logg.Error(ctx, "webhook secret not configured", err)
				} else {
					logg.Warn(ctx, "webhook signature rejected")
				}
			}
			writeAck(w, webhookAck{OK: false, Message: "invalid signature"})
			return
		}

		event, err := paystackwebhook.ParseEvent(body)
		if err != nil {
			if logg != nil {
				logg.Warn(ctx, "webhook payload not parseable")
			}
			writeAck(w, webhookAck{OK: false, Message: "invalid payload"})
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			if logg != nil {
				logg.Error(ctx, "webhook reconciliation failed", err)
			}
			writeAck(w, webhookAck{OK: false, Message: "event not processed"})
			return
		}

		writeAck(w, webhookAck{OK: true})
	}
}

func writeAck(w http.ResponseWriter, ack webhookAck) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(ack)
}
