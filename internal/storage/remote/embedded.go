package remote

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Conn bundles a NATS connection with its JetStream context and, for the
// embedded mode, the in-process server.
type Conn struct {
	NC       *nats.Conn
	JS       jetstream.JetStream
	embedded *server.Server
}

// StartEmbedded runs a JetStream-enabled NATS server inside the process on
// a random port. storeDir holds the stream data; empty uses a temp dir.
func StartEmbedded(storeDir string) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		Port:      -1,
		JetStream: true,
		StoreDir:  storeDir,
		NoLog:     true,
		NoSigs:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("embedded NATS server failed to start")
	}
	return ns, nil
}

// Connect dials url, or starts an embedded server when embedded is set.
func Connect(url string, embedded bool, storeDir string) (*Conn, error) {
	c := &Conn{}
	if embedded {
		ns, err := StartEmbedded(storeDir)
		if err != nil {
			return nil, err
		}
		c.embedded = ns
		url = ns.ClientURL()
	}

	nc, err := nats.Connect(url, nats.Name("wardbudget"))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c.NC = nc

	js, err := jetstream.New(nc)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	c.JS = js
	return c, nil
}

// Close drains the connection and stops the embedded server, if any.
func (c *Conn) Close() {
	if c.NC != nil {
		_ = c.NC.Drain()
		c.NC.Close()
	}
	if c.embedded != nil {
		c.embedded.Shutdown()
		c.embedded.WaitForShutdown()
	}
}
