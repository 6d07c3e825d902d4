package application

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var errNoLines = errors.New("at least one line is required")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return &apperrors.Error{
			Kind:    apperrors.KindConflict,
			Message: fmt.Sprintf("insufficient stock for %s", stockErr.ProductName),
			Details: map[string]any{
				"productId":   stockErr.ProductID,
				"productName": stockErr.ProductName,
				"available":   stockErr.Available,
				"requested":   stockErr.Requested,
			},
			Status: http.StatusBadRequest,
			Err:    err,
		}
	}
	if errors.Is(err, ports.ErrNotFound) {
		return apperrors.Wrap(apperrors.KindNotFound, "product lookup failed", err)
	}
	if errors.Is(err, domain.ErrInvalidQuantity) || errors.Is(err, domain.ErrEmptyProductID) || errors.Is(err, errNoLines) {
		return apperrors.Wrap(apperrors.KindValidation, "invalid line item", err)
	}
	return err
}
