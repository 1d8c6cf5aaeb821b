package ntptime

import (
	"context"
	"sync"
	"time"

	"github.com/beevik/ntp"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type inner interface {
	Query(addr string) (*ntp.Response, error)
}

type ntpInner struct {
}

func (a ntpInner) Query(addr string) (*ntp.Response, error) {
	return ntp.Query(addr)
}

// NtpTime is a clock corrected by the offset reported by an NTP server.
type NtpTime struct {
	mu     sync.RWMutex
	err    error
	offset time.Duration
	addr   string
	inner  inner
}

func New(addr string) *NtpTime {
	return newNtpTime(addr, ntpInner{})
}

// TryNew queries the server up to tries times before giving up.
func TryNew(addr string, tries uint64) (*NtpTime, error) {
	return tryNew(addr, tries, ntpInner{}, backoff.NewExponentialBackOff())
}

func tryNew(addr string, tries uint64, inner inner, b backoff.BackOff) (*NtpTime, error) {
	var tm *NtpTime
	op := func() error {
		tm = newNtpTime(addr, inner)
		return tm.err
	}
	if err := backoff.Retry(op, backoff.WithMaxRetries(b, tries)); err != nil {
		return nil, errors.Wrapf(err, "failed to query ntp server %q", addr)
	}
	return tm, nil
}

func newNtpTime(addr string, inner inner) *NtpTime {
	a := &NtpTime{
		addr:  addr,
		inner: inner,
	}
	a.refresh()
	return a
}

func (a *NtpTime) refresh() {
	tm, err := a.inner.Query(a.addr)
	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.err = err
		return
	}
	a.offset = tm.ClockOffset
	a.err = nil
}

// Run refreshes the offset every duration until ctx is done.
func (a *NtpTime) Run(ctx context.Context, duration time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(duration):
			a.refresh()
			if err := a.Err(); err != nil {
				zap.S().Debugf("NTP query to %s failed: %v", a.addr, err)
			}
		}
	}
}

// Now returns the corrected time. The last known offset is used when the server is unreachable.
func (a *NtpTime) Now() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return time.Now().Add(a.offset)
}

func (a *NtpTime) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}
