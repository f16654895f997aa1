// Package monitor exposes transport counters over HTTP.
package monitor

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/signalarray/xmat/internal/version"
	"github.com/signalarray/xmat/pkg/xnet"
)

// ConnInfo is one registered connection.
type ConnInfo struct {
	ID          string `json:"id"`
	Remote      string `json:"remote"`
	BytesIn     uint64 `json:"bytes_in"`
	BytesOut    uint64 `json:"bytes_out"`
	MessagesIn  uint64 `json:"messages_in"`
	MessagesOut uint64 `json:"messages_out"`
}

// ListenerInfo is one registered listener.
type ListenerInfo struct {
	ID   string `json:"id"`
	Addr string `json:"addr"`
}

// Snapshot is the body of GET /v1/status.
type Snapshot struct {
	Version     string         `json:"version"`
	Uptime      string         `json:"uptime"`
	Listeners   []ListenerInfo `json:"listeners"`
	Connections []ConnInfo     `json:"connections"`
	Accepted    uint64         `json:"accepted"`
	Closed      uint64         `json:"closed"`
	BytesIn     uint64         `json:"bytes_in"`
	BytesOut    uint64         `json:"bytes_out"`
	MessagesIn  uint64         `json:"messages_in"`
	MessagesOut uint64         `json:"messages_out"`
}

// Stats holds the most recent view of a service. The service loop calls
// Update; HTTP handlers read concurrently through Snapshot.
type Stats struct {
	started time.Time

	mu        sync.Mutex
	listeners []ListenerInfo
	conns     []ConnInfo
	accepted  uint64
	closed    uint64
	// Totals of connections that are no longer registered.
	retired ConnInfo
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// Update records the sockets currently registered with svc. Counters of
// connections that disappeared since the previous call are kept in the
// totals.
func (s *Stats) Update(svc *xnet.Service) {
	var listeners []ListenerInfo
	for _, l := range svc.Listeners() {
		listeners = append(listeners, ListenerInfo{ID: l.ID(), Addr: l.Addr().String()})
	}
	var conns []ConnInfo
	for _, c := range svc.Connections() {
		in, out, msgsIn, msgsOut := c.Stats()
		conns = append(conns, ConnInfo{
			ID:          c.ID(),
			Remote:      c.RemoteAddr().String(),
			BytesIn:     in,
			BytesOut:    out,
			MessagesIn:  msgsIn,
			MessagesOut: msgsOut,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := make(map[string]struct{}, len(conns))
	for _, c := range conns {
		current[c.ID] = struct{}{}
	}
	known := make(map[string]struct{}, len(s.conns))
	for _, c := range s.conns {
		known[c.ID] = struct{}{}
		if _, ok := current[c.ID]; !ok {
			s.closed++
			s.retired.BytesIn += c.BytesIn
			s.retired.BytesOut += c.BytesOut
			s.retired.MessagesIn += c.MessagesIn
			s.retired.MessagesOut += c.MessagesOut
		}
	}
	for _, c := range conns {
		if _, ok := known[c.ID]; !ok {
			s.accepted++
		}
	}
	s.listeners = listeners
	s.conns = conns
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Version:     version.String(),
		Uptime:      time.Since(s.started).Round(time.Second).String(),
		Listeners:   append([]ListenerInfo{}, s.listeners...),
		Connections: append([]ConnInfo{}, s.conns...),
		Accepted:    s.accepted,
		Closed:      s.closed,
		BytesIn:     s.retired.BytesIn,
		BytesOut:    s.retired.BytesOut,
		MessagesIn:  s.retired.MessagesIn,
		MessagesOut: s.retired.MessagesOut,
	}
	for _, c := range s.conns {
		snap.BytesIn += c.BytesIn
		snap.BytesOut += c.BytesOut
		snap.MessagesIn += c.MessagesIn
		snap.MessagesOut += c.MessagesOut
	}
	return snap
}

// Register mounts the status routes on e.
func Register(e *echo.Echo, st *Stats) {
	e.GET("/v1/status", func(c *echo.Context) error {
		return c.JSON(http.StatusOK, st.Snapshot())
	})
	e.GET("/healthz", func(c *echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

// New returns an echo instance serving the status routes.
func New(st *Stats) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Recover())
	Register(e, st)
	return e
}

// Start serves the status routes on addr until ctx is done.
func Start(ctx context.Context, addr string, st *Stats) error {
	sc := echo.StartConfig{
		Address: addr,
		BeforeServeFunc: func(srv *http.Server) error {
			srv.ReadHeaderTimeout = 5 * time.Second
			return nil
		},
	}
	return sc.Start(ctx, New(st))
}
