package subscriptions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	pkgerrors "github.com/shuddy05/compliancehub-backendd/pkg/errors"
)

// maxReferenceAttempts bounds both the local-uniqueness loop and the gateway
// duplicate-reference loop.
const maxReferenceAttempts = 5

// NewReference returns a fresh unpredictable payment reference.
func NewReference() string {
	return "CH-PAY-" + uuid.NewString()
}

// RetryOnCollision runs fn up to attempts times, retrying only when
// isCollision classifies the failure as a reference collision. Any other
// error aborts immediately. Exhausting every attempt yields a CodeInternal
// error: references are drawn from a UUID space, so repeated collisions mean
// something is broken, not unlucky.
func RetryOnCollision(ctx context.Context, attempts int, isCollision func(error) bool, fn func(ctx context.Context) error) error {
	if attempts <= 0 {
		attempts = maxReferenceAttempts
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			if isCollision(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if isCollision(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "payment reference space exhausted")
	}
	return err
}

// UniqueReference generates references until taken reports one unused,
// bounded by maxReferenceAttempts. The check is advisory; the database
// unique constraint on provider_reference remains the real guarantee.
func UniqueReference(ctx context.Context, taken func(ctx context.Context, reference string) (bool, error)) (string, error) {
	var reference string
	collision := pkgerrors.New(pkgerrors.CodeConflict, "payment reference already in use")

	isCollision := func(err error) bool {
		coded := pkgerrors.As(err)
		return coded != nil && coded.Code() == pkgerrors.CodeConflict
	}

	err := RetryOnCollision(ctx, maxReferenceAttempts, isCollision, func(ctx context.Context) error {
		candidate := NewReference()
		inUse, err := taken(ctx, candidate)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check reference availability")
		}
		if inUse {
			return collision
		}
		reference = candidate
		return nil
	})
	if err != nil {
		return "", err
	}
	return reference, nil
}
