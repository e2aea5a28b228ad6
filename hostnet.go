package main

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"gitlab.com/tinyland/lab/oasis/pkg/backend"
)

// hostNetwork implements the kernel's network trait on the host TCP
// stack, with crypto/tls as the TLS provider.
type hostNetwork struct{}

func newHostNetwork() *hostNetwork { return &hostNetwork{} }

func (hostNetwork) Listen(port int) (backend.Listener, error) {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	return hostListener{l}, nil
}

func (hostNetwork) Connect(host string, port int) (backend.Stream, error) {
	return net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), 10*time.Second)
}

func (hostNetwork) TLS() backend.TLSProvider { return hostTLS{} }

type hostListener struct{ l net.Listener }

func (h hostListener) Accept() (backend.Stream, error) { return h.l.Accept() }
func (h hostListener) Close() error                    { return h.l.Close() }

type hostTLS struct{}

func (hostTLS) ClientWrap(raw backend.Stream, serverName string) (backend.Stream, error) {
	conn, ok := raw.(net.Conn)
	if !ok {
		return nil, fmt.Errorf("hostnet: stream is not a net.Conn")
	}
	tc := tls.Client(conn, &tls.Config{ServerName: serverName})
	if err := tc.Handshake(); err != nil {
		return nil, err
	}
	return tc, nil
}
