package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/keaganluttrell/ninep/internal/logger"
	p9 "github.com/keaganluttrell/ninep/pkg/9p"
)

// Socket carries one 9P message per websocket binary frame. The frame
// still begins with the message's size[4], which must match its length.
type Socket struct {
	conn  *websocket.Conn
	msize uint32
	mu    sync.Mutex
}

// NewSocket wraps an established websocket. A zero msize means DefaultMsize.
func NewSocket(c *websocket.Conn, msize uint32) *Socket {
	if msize == 0 {
		msize = DefaultMsize
	}
	c.SetReadLimit(int64(msize))
	return &Socket{conn: c, msize: msize}
}

// Upgrade upgrades the HTTP request to a WebSocket connection.
func Upgrade(w http.ResponseWriter, r *http.Request, msize uint32) (*Socket, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow all origins
	})
	if err != nil {
		return nil, err
	}
	return NewSocket(c, msize), nil
}

// Close closes the connection.
func (s *Socket) Close() error {
	return s.conn.Close(websocket.StatusNormalClosure, "")
}

// ReadMsg reads a 9P message from a WebSocket binary frame.
func (s *Socket) ReadMsg(ctx context.Context) (p9.Msg, error) {
	typ, data, err := s.conn.Read(ctx)
	if err != nil {
		return p9.Msg{}, err
	}
	if typ != websocket.MessageBinary {
		logger.Warn("websocket: dropping connection after %v frame", typ)
		return p9.Msg{}, fmt.Errorf("%w: %v frame", p9.ErrMalformed, typ)
	}
	m, err := p9.Decode(data)
	if err != nil {
		return p9.Msg{}, err
	}
	logger.Debug("<- %v", m)
	return m, nil
}

// WriteMsg writes a 9P message to a WebSocket binary frame.
func (s *Socket) WriteMsg(ctx context.Context, m p9.Msg) error {
	buf, err := p9.Encode(m)
	if err != nil {
		return err
	}
	if uint64(len(buf)) > uint64(s.msize) {
		return fmt.Errorf("message size %d exceeds msize %d", len(buf), s.msize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, writeTimeout)
		defer cancel()
	}

	if err := s.conn.Write(ctx, websocket.MessageBinary, buf); err != nil {
		return err
	}
	logger.Debug("-> %v", m)
	return nil
}
