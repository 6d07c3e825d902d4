package application

import (
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/promos/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return apperrors.Wrap(apperrors.KindNotFound, "promo code not found", err)
	case errors.Is(err, ports.ErrUsageExhausted):
		return apperrors.Wrap(apperrors.KindConflict, domain.ReasonUsageExhausted.Message(), err)
	case errors.Is(err, domain.ErrEmptyCode),
		errors.Is(err, domain.ErrInvalidType),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrInvalidWindow):
		return apperrors.Wrap(apperrors.KindValidation, "invalid promo code", err)
	default:
		return err
	}
}
