package transport

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	p9 "github.com/keaganluttrell/ninep/pkg/9p"
	"github.com/keaganluttrell/ninep/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveVersion answers every message on c with Rversion until c fails.
func serveVersion(c Conn) {
	ctx := context.Background()
	for {
		m, err := c.ReadMsg(ctx)
		if err != nil {
			return
		}
		tv, ok := m.Body.(*p9.Tversion)
		if !ok {
			c.WriteMsg(ctx, p9.NewMsg(m.Tag, &p9.Rerror{Ename: "expected Tversion"}))
			continue
		}
		c.WriteMsg(ctx, p9.NewMsg(m.Tag, &p9.Rversion{Msize: tv.Msize, Version: p9.Version}))
	}
}

func checkVersion(t *testing.T, c Conn) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.WriteMsg(ctx, p9.NewMsg(p9.NOTAG, &p9.Tversion{Msize: 8192, Version: p9.Version})))

	m, err := c.ReadMsg(ctx)
	require.NoError(t, err)
	assert.Equal(t, p9.NOTAG, m.Tag)
	assert.Equal(t, &p9.Rversion{Msize: 8192, Version: p9.Version}, m.Body)
}

func TestStream_Pipe(t *testing.T) {
	c1, c2 := net.Pipe()
	server := NewStream(c1, 0)
	client := NewStream(c2, 0)
	defer client.Close()
	defer server.Close()

	go serveVersion(server)
	checkVersion(t, client)
}

func TestStream_RejectsOversize(t *testing.T) {
	c1, c2 := net.Pipe()
	reader := NewStream(c1, 0)
	writer := NewStream(c2, 0)
	defer reader.Close()
	defer writer.Close()

	reader.SetMsize(64)
	go writer.WriteMsg(context.Background(), p9.NewMsg(1, &p9.Rread{Data: make(p9.Data, 100)}))

	_, err := reader.ReadMsg(context.Background())
	assert.ErrorIs(t, err, p9.ErrMalformed)
}

func TestStream_RejectsOversizeWrite(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	writer := NewStream(c2, 64)
	defer writer.Close()

	err := writer.WriteMsg(context.Background(), p9.NewMsg(1, &p9.Twrite{Fid: 1, Data: make(p9.Data, 100)}))
	assert.Error(t, err)

	writer.SetMsize(DefaultMsize)
	go c1.Read(make([]byte, 256))
	assert.NoError(t, writer.WriteMsg(context.Background(), p9.NewMsg(1, &p9.Rclunk{})))
}

func TestStream_ReadDeadline(t *testing.T) {
	c1, c2 := net.Pipe()
	defer c1.Close()
	defer c2.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewStream(c1, 0).ReadMsg(ctx)
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
}

func wsServer(t *testing.T, handle func(*Socket)) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := Upgrade(w, r, 0)
		if err != nil {
			return
		}
		defer s.Close()
		handle(s)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSocket_Version(t *testing.T) {
	srv := wsServer(t, func(s *Socket) { serveVersion(s) })

	ctx := context.Background()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	client := NewSocket(c, 0)
	defer client.Close()

	checkVersion(t, client)
}

func TestSocket_RejectsTextFrames(t *testing.T) {
	errs := make(chan error, 1)
	srv := wsServer(t, func(s *Socket) {
		_, err := s.ReadMsg(context.Background())
		errs <- err
	})

	ctx := context.Background()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer c.Close(websocket.StatusNormalClosure, "")

	require.NoError(t, c.Write(ctx, websocket.MessageText, []byte("Tversion")))
	assert.ErrorIs(t, <-errs, p9.ErrMalformed)
}

func TestSocket_RejectsOversizeWrite(t *testing.T) {
	srv := wsServer(t, func(s *Socket) { serveVersion(s) })

	ctx := context.Background()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	client := NewSocket(c, 64)
	defer client.Close()

	err = client.WriteMsg(ctx, p9.NewMsg(1, &p9.Twrite{Fid: 1, Data: make(p9.Data, 100)}))
	assert.Error(t, err)
}

func fastDialer() *Dialer {
	d := NewDialer()
	d.Retry = resilience.RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2,
	}
	return d
}

func TestDialer_TCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		s := NewStream(c, 0)
		defer s.Close()
		serveVersion(s)
	}()

	_, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)

	conn, err := fastDialer().Dial(context.Background(), "tcp!127.0.0.1!"+port)
	require.NoError(t, err)
	defer conn.Close()

	checkVersion(t, conn)
}

func TestDialer_WebSocket(t *testing.T) {
	srv := wsServer(t, func(s *Socket) { serveVersion(s) })
	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	conn, err := fastDialer().Dial(context.Background(), "ws!"+host+"!"+port)
	require.NoError(t, err)
	defer conn.Close()

	checkVersion(t, conn)
}

func closedPort(t *testing.T) string {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	ln.Close()
	return port
}

func TestDialer_Refused(t *testing.T) {
	_, err := fastDialer().Dial(context.Background(), "tcp!127.0.0.1!"+closedPort(t))
	assert.Error(t, err)
}

func TestDialer_BreakerOpens(t *testing.T) {
	d := fastDialer()
	d.Breaker = resilience.NewCircuitBreaker(1, 1, time.Minute)

	_, err := d.Dial(context.Background(), "tcp!127.0.0.1!"+closedPort(t))
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, resilience.StateOpen, d.Breaker.State())
}

func TestDialer_BadAddress(t *testing.T) {
	_, err := fastDialer().Dial(context.Background(), "tcp!nohost")
	assert.Error(t, err)
}
