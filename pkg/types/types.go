package types

import (
	"time"
)

// Time is the clock operations are stamped with, see ntptime.NtpTime and ntptime.Stub.
type Time interface {
	Now() time.Time
}
