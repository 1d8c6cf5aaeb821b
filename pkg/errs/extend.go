package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// IExtend is implemented by the ledger error kinds.
type IExtend interface {
	Extend(message string) error
}

// Extend prefixes err with message keeping the error kind when err supports it.
func Extend(err error, message string) error {
	if ex, ok := err.(IExtend); ok {
		return ex.Extend(message)
	}
	return errors.Wrap(err, message)
}

func fmtExtend(self error, message string) string {
	return fmt.Sprintf("%s: %s", message, self)
}
