package subscriptions

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shuddy05/compliancehub-backendd/api/responses"
	"github.com/shuddy05/compliancehub-backendd/api/validators"
	subsvc "github.com/shuddy05/compliancehub-backendd/internal/subscriptions"
	"github.com/shuddy05/compliancehub-backendd/pkg/enums"
	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
	"github.com/shuddy05/compliancehub-backendd/pkg/logger"
)

type initiatePaymentRequest struct {
	CompanyID         string `json:"company_id" validate:"required,uuid"`
	PlanName          string `json:"plan_name" validate:"required"`
	BillingCycle      string `json:"billing_cycle" validate:"required,oneof=monthly annual"`
	CustomerEmail     string `json:"customer_email" validate:"omitempty,email"`
	CustomerFirstName string `json:"customer_first_name" validate:"omitempty,max=100"`
	CustomerLastName  string `json:"customer_last_name" validate:"omitempty,max=100"`
	CustomerPhone     string `json:"customer_phone" validate:"omitempty,max=32"`
}

// InitiatePayment starts a gateway checkout for a paid plan.
func InitiatePayment(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		userID, err := resolveUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := uuid.Parse(payload.CompanyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid company id"))
			return
		}

		cycle, err := enums.ParseBillingCycle(payload.BillingCycle)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid billing cycle"))
			return
		}

		result, err := svc.InitiatePayment(r.Context(), subsvc.InitiatePaymentInput{
			CompanyID:         companyID,
			UserID:            userID,
			PlanName:          payload.PlanName,
			BillingCycle:      cycle,
			CustomerEmail:     payload.CustomerEmail,
			CustomerFirstName: payload.CustomerFirstName,
			CustomerLastName:  payload.CustomerLastName,
			CustomerPhone:     payload.CustomerPhone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentStatus is the public polling endpoint the payment-success page hits
// after the gateway redirect. It is reference-keyed and needs no auth; an
// unknown reference is data (found=false), not an error.
func PaymentStatus(svc subsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		reference := r.URL.Query().Get("reference")
		result, err := svc.PaymentStatus(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
