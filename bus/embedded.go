package bus

import (
	"fmt"
	"net"
	"strconv"
	"time"

	natsd "github.com/nats-io/nats-server/v2/server"
)

// Embedded runs a NATS server inside this process and talks to it like any
// other. Other nodes point their nats-url at its listen address.
type Embedded struct {
	Bus
	srv *natsd.Server
}

// NewEmbedded listens on addr, host:port. Port -1 picks a free one.
func NewEmbedded(addr string) (*Embedded, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("embedded nats address: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("embedded nats port: %w", err)
	}

	srv, err := natsd.NewServer(&natsd.Options{
		Host:   host,
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, err
	}

	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("embedded nats did not start on %s", addr)
	}

	b, err := NewNats(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		return nil, err
	}

	log.Info("embedded nats listening", "url", srv.ClientURL())
	return &Embedded{Bus: b, srv: srv}, nil
}

func (e *Embedded) ClientURL() string {
	return e.srv.ClientURL()
}

func (e *Embedded) Close() {
	e.Bus.Close()
	e.srv.Shutdown()
}
