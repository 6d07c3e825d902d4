package application

import (
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var (
	// ErrReferenceMismatch means the gateway reported a transaction the order
	// never started, or an order other than the one the callback named.
	ErrReferenceMismatch = errors.New("gateway reference does not match the order")
	ErrMissingReference  = errors.New("callback carries no gateway reference")
	ErrUnknownCallback   = errors.New("unrecognized callback status")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var classified *apperrors.Error
	if errors.As(err, &classified) {
		return err
	}
	switch {
	case errors.Is(err, ErrReferenceMismatch):
		return apperrors.Wrap(apperrors.KindConflict, "payment verification failed", err)
	case errors.Is(err, ErrMissingReference), errors.Is(err, ErrUnknownCallback):
		return apperrors.Wrap(apperrors.KindValidation, "invalid payment callback", err)
	default:
		return err
	}
}

// redirectCode picks the checkout error code for a failed callback.
func redirectCode(err error) domain.RedirectCode {
	switch {
	case errors.Is(err, ErrReferenceMismatch):
		return domain.CodeVerificationFailed
	case errors.Is(err, ErrMissingReference), errors.Is(err, ErrUnknownCallback):
		return domain.CodeInvalidCallback
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return domain.CodeOrderNotFound
	case apperrors.KindConfiguration:
		return domain.CodeConfiguration
	case apperrors.KindUpstream:
		return domain.CodeVerificationFailed
	case apperrors.KindValidation:
		return domain.CodeInvalidCallback
	default:
		return domain.CodeInternal
	}
}
