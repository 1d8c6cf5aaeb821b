package ntptime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/beevik/ntp"
	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestNtpTimeOffset(t *testing.T) {
	tm := newNtpTime("stub", stub{resp: &ntp.Response{ClockOffset: time.Hour}})
	require.NoError(t, tm.Err())
	assert.WithinDuration(t, time.Now().Add(time.Hour), tm.Now(), time.Minute)
}

func TestNtpTimeRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	tm := newNtpTime("stub", stub{resp: &ntp.Response{}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		tm.Run(ctx, time.Millisecond)
		close(done)
	}()
	<-time.After(10 * time.Millisecond)
	cancel()
	<-done
}

func TestTryNewGivesUp(t *testing.T) {
	_, err := tryNew("stub", 2, stub{err: errors.New("unreachable")}, &backoff.ZeroBackOff{})
	assert.Error(t, err)

	tm, err := tryNew("stub", 2, stub{resp: &ntp.Response{}}, &backoff.ZeroBackOff{})
	require.NoError(t, err)
	assert.NoError(t, tm.Err())
}

func TestStub(t *testing.T) {
	at := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	s := NewStub(at)
	assert.Equal(t, at, s.Now())
	s.Advance(time.Hour)
	assert.Equal(t, at.Add(time.Hour), s.Now())
}
