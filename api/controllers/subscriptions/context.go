package subscriptions

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/shuddy05/compliancehub-backendd/api/middleware"
	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
)

// resolveUser reads the authenticated user from the request context seeded by
// the auth middleware.
func resolveUser(r *http.Request) (uuid.UUID, error) {
	rawUser := middleware.UserIDFromContext(r.Context())
	if rawUser == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, parseErr := uuid.Parse(rawUser)
	if parseErr != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, parseErr, "invalid user id")
	}
	return userID, nil
}

// resolveActor additionally requires the caller's active company claim.
func resolveActor(r *http.Request) (userID, companyID uuid.UUID, err error) {
	userID, err = resolveUser(r)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}

	rawCompany := middleware.CompanyIDFromContext(r.Context())
	if rawCompany == "" {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "company context missing")
	}
	companyID, parseErr := uuid.Parse(rawCompany)
	if parseErr != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, parseErr, "invalid company id")
	}

	return userID, companyID, nil
}
