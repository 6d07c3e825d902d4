package application

import (
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
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
	case errors.Is(err, ports.ErrNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, "order not found", err)
	case errors.Is(err, ports.ErrVersionConflict),
		errors.Is(err, ports.ErrDuplicateOrderID),
		errors.Is(err, domain.ErrStatusRegression),
		errors.Is(err, domain.ErrOrderClosed),
		errors.Is(err, domain.ErrRefundNotAllowed),
		errors.Is(err, domain.ErrAlreadyPaid):
		return apperrors.Wrap(apperrors.KindConflict, "order state conflict", err)
	case errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrInvalidItem),
		errors.Is(err, domain.ErrMissingShipping),
		errors.Is(err, domain.ErrInvalidLocation),
		errors.Is(err, domain.ErrInvalidPaymentMethod),
		errors.Is(err, domain.ErrNegativeAmount),
		errors.Is(err, domain.ErrDiscountExceedsTotal),
		errors.Is(err, domain.ErrInvalidStatus),
		errors.Is(err, domain.ErrInvalidOutcome),
		errors.Is(err, domain.ErrReferenceMismatch),
		errors.Is(err, domain.ErrNotOnlinePayment):
		return apperrors.Wrap(apperrors.KindValidation, "invalid order request", err)
	default:
		return err
	}
}
