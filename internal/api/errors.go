package api

import (
	"errors"
	"net/http"

	"launchpad-ledger/internal/claims"
	"launchpad-ledger/internal/custody"
	"launchpad-ledger/internal/fault"
	"launchpad-ledger/internal/lifecycle"
	"launchpad-ledger/internal/storage"
	"launchpad-ledger/internal/swap"
)

var notFound = []error{
	storage.ErrNotFound,
	swap.ErrPoolNotFound,
	lifecycle.ErrTrackerNotFound,
	custody.ErrVaultNotFound,
	claims.ErrDistributionNotFound,
}

var errBadRequest = errors.New("malformed request body")

// statusFor maps an operation error to an HTTP status.
func statusFor(err error) int {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	if errors.Is(err, storage.ErrInvalidInput) || errors.Is(err, errBadRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, storage.ErrConflict) {
		return http.StatusServiceUnavailable
	}

	switch fault.KindOf(err) {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindState:
		return http.StatusConflict
	case fault.KindAuthorization:
		return http.StatusForbidden
	case fault.KindArithmetic, fault.KindEconomic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func buildGinErrorRespond(err error) *APIRespond {
	errStr := err.Error()
	return &APIRespond{Error: &errStr}
}
