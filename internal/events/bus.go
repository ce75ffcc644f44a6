package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Sergeybob123/callboard/internal/config"
)

// Bus is a NATS connection, optionally backed by an in-process server
type Bus struct {
	Conn     *nats.Conn
	embedded *server.Server
}

// Connect dials the configured NATS server, or starts an embedded one.
// It returns nil when neither is configured.
func Connect(cfg config.NATSConfig, logger *zap.Logger) (*Bus, error) {
	if cfg.Embedded {
		ns, err := StartEmbedded()
		if err != nil {
			return nil, err
		}
		conn, err := nats.Connect(ns.ClientURL(), nats.Name("callboard"))
		if err != nil {
			ns.Shutdown()
			return nil, fmt.Errorf("connect to embedded NATS: %w", err)
		}
		logger.Info("embedded NATS server started", zap.String("url", ns.ClientURL()))
		return &Bus{Conn: conn, embedded: ns}, nil
	}

	if cfg.URL == "" {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("callboard"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	logger.Info("connected to NATS", zap.String("url", cfg.URL))
	return &Bus{Conn: conn}, nil
}

// StartEmbedded runs a NATS server on a random local port
func StartEmbedded() (*server.Server, error) {
	opts := &server.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := server.NewServer(opts)
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

// Close drains the connection and stops the embedded server, if any
func (b *Bus) Close() {
	if b == nil {
		return
	}
	if b.Conn != nil {
		_ = b.Conn.Drain()
	}
	if b.embedded != nil {
		b.embedded.Shutdown()
		b.embedded.WaitForShutdown()
	}
}
