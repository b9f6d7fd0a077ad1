// Package dialstr parses Plan 9 dial strings such as "tcp!host!port".
package dialstr

import (
	"fmt"
	"net"
	"strings"
)

// Addr is a parsed dial string.
type Addr struct {
	Proto string
	Host  string
	Port  string
}

// Parse splits s into its protocol, host and port. The bare string "io"
// names the process's standard input and output and carries no address.
func Parse(s string) (Addr, error) {
	if s == "io" {
		return Addr{Proto: "io"}, nil
	}

	parts := strings.SplitN(s, "!", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Addr{}, fmt.Errorf("dial string %q: want proto!host!port", s)
	}
	return Addr{Proto: parts[0], Host: parts[1], Port: parts[2]}, nil
}

// Network returns the net package network for a.
func (a Addr) Network() string {
	return a.Proto
}

// Address returns the address to dial: "host:port" for tcp (bracketing
// IPv6 hosts), a websocket URL
// for ws and wss, and "host_port" otherwise (unix socket paths).
func (a Addr) Address() string {
	switch a.Proto {
	case "io":
		return ""
	case "tcp":
		return net.JoinHostPort(a.Host, a.Port)
	case "ws", "wss":
		return a.Proto + "://" + net.JoinHostPort(a.Host, a.Port) + "/"
	}
	return a.Host + "_" + a.Port
}

// String returns a in dial string form.
func (a Addr) String() string {
	if a.Proto == "io" {
		return "io"
	}
	return a.Proto + "!" + a.Host + "!" + a.Port
}
