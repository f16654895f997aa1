package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalarray/xmat/pkg/xmat"
	"github.com/signalarray/xmat/pkg/xnet"
)

func getStatus(t *testing.T, st *Stats) Snapshot {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	New(st).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var snap Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func TestStatusEmpty(t *testing.T) {
	t.Parallel()

	snap := getStatus(t, NewStats())
	assert.NotEmpty(t, snap.Version)
	assert.Empty(t, snap.Listeners)
	assert.Empty(t, snap.Connections)
}

func TestStatusTracksService(t *testing.T) {
	t.Parallel()

	svc := xnet.NewService()
	defer func() { _ = svc.Close() }()
	l, err := svc.Listen("127.0.0.1:0", 0)
	require.NoError(t, err)
	l.Handle(func(c *xnet.Connection) {
		c.Handle(func(*xnet.Connection, *xmat.Reader) error { return nil })
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := xnet.Dial(ctx, l.Addr().String())
	require.NoError(t, err)

	_, err = svc.Process(xnet.ScopeAll, 2*time.Second)
	require.NoError(t, err)

	w, err := xmat.NewMemWriter(xmat.NativeEndian())
	require.NoError(t, err)
	require.NoError(t, w.SetString("msg", "hello"))
	require.NoError(t, w.Close())
	require.NoError(t, client.Send(w))
	_, err = svc.Process(xnet.ScopeConnections, 2*time.Second)
	require.NoError(t, err)

	st := NewStats()
	st.Update(svc)
	snap := getStatus(t, st)
	require.Len(t, snap.Listeners, 1)
	assert.Equal(t, l.Addr().String(), snap.Listeners[0].Addr)
	require.Len(t, snap.Connections, 1)
	assert.EqualValues(t, 1, snap.MessagesIn)
	assert.EqualValues(t, 1, snap.Accepted)

	buf, err := w.Bytes()
	require.NoError(t, err)
	assert.EqualValues(t, len(buf), snap.BytesIn)

	require.NoError(t, client.Close())
	_, err = svc.Process(xnet.ScopeConnections, 2*time.Second)
	require.NoError(t, err)
	st.Update(svc)

	snap = getStatus(t, st)
	assert.Empty(t, snap.Connections)
	assert.EqualValues(t, 1, snap.Closed)
	assert.EqualValues(t, 1, snap.MessagesIn)
	assert.EqualValues(t, len(buf), snap.BytesIn)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	New(NewStats()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
