package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/coder/websocket"
	"github.com/keaganluttrell/ninep/internal/logger"
	"github.com/keaganluttrell/ninep/pkg/dialstr"
	"github.com/keaganluttrell/ninep/pkg/resilience"
)

// Dialer opens Conns from dial strings.
type Dialer struct {
	Retry resilience.RetryConfig
	Msize uint32

	// Breaker, if set, fails fast once an address keeps refusing.
	Breaker *resilience.CircuitBreaker
}

// NewDialer creates a Dialer with default retry settings.
func NewDialer() *Dialer {
	return &Dialer{
		Retry: resilience.DefaultRetryConfig(),
		Msize: DefaultMsize,
	}
}

// Dial connects to addr, a dial string like "tcp!host!564", "ws!host!8080"
// or "io", retrying transient failures.
func (d *Dialer) Dial(ctx context.Context, addr string) (Conn, error) {
	a, err := dialstr.Parse(addr)
	if err != nil {
		return nil, err
	}

	var conn Conn
	err = resilience.Retry(ctx, d.Retry, func() error {
		dial := func() error {
			c, err := d.dialOnce(ctx, a)
			if err != nil {
				logger.Warn("dial %s: %v", a, err)
				return err
			}
			conn = c
			return nil
		}
		if d.Breaker == nil {
			return dial()
		}
		err := d.Breaker.Execute(dial)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return resilience.Permanent(err)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	logger.Debug("dialed %s", a)
	return conn, nil
}

func (d *Dialer) dialOnce(ctx context.Context, a dialstr.Addr) (Conn, error) {
	switch a.Proto {
	case "io":
		return NewStream(stdio{Reader: os.Stdin, Writer: os.Stdout}, d.Msize), nil
	case "ws", "wss":
		c, _, err := websocket.Dial(ctx, a.Address(), nil)
		if err != nil {
			return nil, err
		}
		return NewSocket(c, d.Msize), nil
	}

	var nd net.Dialer
	c, err := nd.DialContext(ctx, a.Network(), a.Address())
	if err != nil {
		return nil, err
	}
	return NewStream(c, d.Msize), nil
}
