package ntptime

import (
	"sync"
	"time"

	"github.com/beevik/ntp"
)

type stub struct {
	resp *ntp.Response
	err  error
}

func (a stub) Query(addr string) (*ntp.Response, error) {
	return a.resp, a.err
}

// Stub is a clock for tests and offline runs. A zero Stub follows the system time.
type Stub struct {
	mu sync.Mutex
	t  time.Time
}

func NewStub(t time.Time) *Stub {
	return &Stub{t: t}
}

func (s *Stub) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.t.IsZero() {
		return time.Now()
	}
	return s.t
}

func (s *Stub) Set(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = t
}

func (s *Stub) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.t = s.t.Add(d)
}
