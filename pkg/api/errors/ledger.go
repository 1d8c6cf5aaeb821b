package errors

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/tonclub/hypersonic/pkg/errs"
)

// LedgerError is a rejected ledger operation.
type LedgerError struct {
	genericError
	inner error
}

func (e *LedgerError) Unwrap() error {
	return e.inner
}

type ledgerKind struct {
	target error
	id     ErrorID
	code   int
}

var ledgerKinds = []ledgerKind{
	{errs.AlreadyRegistered{}, AlreadyRegisteredErrorID, http.StatusConflict},
	{errs.AlreadySubscribed{}, AlreadySubscribedErrorID, http.StatusConflict},
	{errs.SlotOccupied{}, SlotOccupiedErrorID, http.StatusConflict},
	{errs.InsufficientBalance{}, InsufficientBalanceErrorID, http.StatusPaymentRequired},
	{errs.Unauthorized{}, UnauthorizedErrorID, http.StatusForbidden},
	{errs.NotRegistered{}, NotRegisteredErrorID, http.StatusNotFound},
	{errs.PayoutSumMismatch{}, PayoutSumMismatchErrorID, http.StatusUnprocessableEntity},
	{errs.AncestorNotFound{}, AncestorNotFoundErrorID, http.StatusUnprocessableEntity},
	{errs.NotSubscribed{}, NotSubscribedErrorID, http.StatusUnprocessableEntity},
	{errs.PriceMismatch{}, PriceMismatchErrorID, http.StatusUnprocessableEntity},
	{errs.InvalidLevel{}, InvalidLevelErrorID, http.StatusUnprocessableEntity},
	{errs.Overflow{}, OverflowErrorID, http.StatusUnprocessableEntity},
	{errs.InvalidRequest{}, InvalidRequestErrorID, http.StatusUnprocessableEntity},
}

// FromLedger converts a typed ledger error into an API error, ok is false for other errors.
func FromLedger(err error) (*LedgerError, bool) {
	for _, k := range ledgerKinds {
		if errors.Is(err, k.target) {
			return &LedgerError{
				genericError: genericError{ID: k.id, HttpCode: k.code, Message: err.Error()},
				inner:        err,
			}, true
		}
	}
	return nil, false
}
