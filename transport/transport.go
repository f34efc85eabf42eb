package transport

import (
	"net"

	"github.com/cobalt-web/cobalt/config"
)

// Transport accepts connections on a bound address and hands them over to the
// callback, each in its own goroutine.
type Transport interface {
	Bind(addr string) error
	Listen(cfg config.NET, cb func(conn net.Conn)) error
	Stop()
	Close()
	Wait()
}
