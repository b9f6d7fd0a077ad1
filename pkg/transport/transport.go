// Package transport moves 9P messages over byte streams and websockets.
package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/keaganluttrell/ninep/internal/logger"
	p9 "github.com/keaganluttrell/ninep/pkg/9p"
)

// DefaultMsize is the message size limit used before Tversion settles one.
const DefaultMsize = 8192 + p9.IOHDRSZ

// Conn carries whole messages. WriteMsg may be called concurrently; ReadMsg
// has a single consumer.
type Conn interface {
	ReadMsg(ctx context.Context) (p9.Msg, error)
	WriteMsg(ctx context.Context, m p9.Msg) error
	Close() error
}

// Stream frames messages over a byte stream by their size[4] prefix.
type Stream struct {
	rwc   io.ReadWriteCloser
	msize atomic.Uint32
	mu    sync.Mutex
}

// NewStream wraps rwc. A zero msize means DefaultMsize.
func NewStream(rwc io.ReadWriteCloser, msize uint32) *Stream {
	if msize == 0 {
		msize = DefaultMsize
	}
	s := &Stream{rwc: rwc}
	s.msize.Store(msize)
	return s
}

// SetMsize changes the size limit, typically after Rversion.
func (s *Stream) SetMsize(msize uint32) {
	s.msize.Store(msize)
}

// ReadMsg reads the next message. A deadline on ctx applies when the
// stream is a net.Conn.
func (s *Stream) ReadMsg(ctx context.Context) (p9.Msg, error) {
	if c, ok := s.rwc.(net.Conn); ok {
		deadline, _ := ctx.Deadline()
		c.SetReadDeadline(deadline)
	}
	m, err := p9.ReadMsg(s.rwc, s.msize.Load())
	if err != nil {
		return p9.Msg{}, err
	}
	logger.Debug("<- %v", m)
	return m, nil
}

// WriteMsg encodes and writes m as one frame.
func (s *Stream) WriteMsg(ctx context.Context, m p9.Msg) error {
	buf, err := p9.Encode(m)
	if err != nil {
		return err
	}
	if msize := s.msize.Load(); uint64(len(buf)) > uint64(msize) {
		return fmt.Errorf("message size %d exceeds msize %d", len(buf), msize)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.rwc.(net.Conn); ok {
		deadline, _ := ctx.Deadline()
		c.SetWriteDeadline(deadline)
	}
	if _, err := s.rwc.Write(buf); err != nil {
		return err
	}
	logger.Debug("-> %v", m)
	return nil
}

// Close closes the underlying stream.
func (s *Stream) Close() error {
	return s.rwc.Close()
}

// stdio joins standard input and output into one stream.
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

// writeTimeout bounds websocket writes whose context has no deadline.
const writeTimeout = 5 * time.Second
