package api

import (
	"net"
	"sync"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"go.uber.org/atomic"
)

const defaultQuotaWait = time.Second

type connID uint64

// cappedListener accepts at most cap(slots) simultaneous connections. When no slot frees up
// within quotaWait, the connection that has been idle the longest is closed to make room.
type cappedListener struct {
	net.Listener
	slots     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once
	quotaWait time.Duration

	nextID atomic.Uint64
	mu     sync.Mutex
	// ordered from the least to the most recently read connection
	idle *orderedmap.OrderedMap[connID, *cappedConn]
}

func newCappedListener(l net.Listener, n int, quotaWait time.Duration) *cappedListener {
	return &cappedListener{
		Listener:  l,
		slots:     make(chan struct{}, n),
		closed:    make(chan struct{}),
		quotaWait: quotaWait,
		idle:      orderedmap.NewOrderedMap[connID, *cappedConn](),
	}
}

func (l *cappedListener) acquire() bool {
	timer := time.NewTimer(l.quotaWait)
	defer timer.Stop()
	for {
		select {
		case <-l.closed:
			return false
		case l.slots <- struct{}{}:
			return true
		case <-timer.C:
			l.evictIdlest()
			timer.Reset(l.quotaWait)
		}
	}
}

func (l *cappedListener) evictIdlest() {
	l.mu.Lock()
	el := l.idle.Front()
	if el == nil {
		l.mu.Unlock()
		return
	}
	l.idle.Delete(el.Key)
	l.mu.Unlock()
	_ = el.Value.Close()
}

func (l *cappedListener) touch(c *cappedConn) {
	l.mu.Lock()
	defer l.mu.Unlock()
	// re-insert to move c to the back
	l.idle.Delete(c.id)
	l.idle.Set(c.id, c)
}

func (l *cappedListener) release(c *cappedConn) {
	l.mu.Lock()
	l.idle.Delete(c.id)
	l.mu.Unlock()
	<-l.slots
}

func (l *cappedListener) Accept() (net.Conn, error) {
	if !l.acquire() {
		// drain spurious connections until the closed listener reports an error
		for {
			c, err := l.Listener.Accept()
			if err != nil {
				return nil, err
			}
			_ = c.Close()
		}
	}
	c, err := l.Listener.Accept()
	if err != nil {
		<-l.slots
		return nil, err
	}
	conn := &cappedConn{Conn: c, id: connID(l.nextID.Inc()), l: l}
	l.touch(conn)
	return conn, nil
}

func (l *cappedListener) Close() error {
	err := l.Listener.Close()
	l.closeOnce.Do(func() { close(l.closed) })
	return err
}

type cappedConn struct {
	net.Conn
	id          connID
	l           *cappedListener
	releaseOnce sync.Once
}

func (c *cappedConn) Read(b []byte) (int, error) {
	c.l.touch(c)
	return c.Conn.Read(b)
}

func (c *cappedConn) Close() error {
	err := c.Conn.Close()
	c.releaseOnce.Do(func() { c.l.release(c) })
	return err
}
