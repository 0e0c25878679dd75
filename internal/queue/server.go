package queue

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/AthbiHC/mobasher/internal/config"
)

// EmbeddedServer wraps an in-process NATS JetStream server. Used when
// config.NATSConfig's EmbeddedServer is set, for single-node
// deployments that do not want to run a standalone NATS process.
type EmbeddedServer struct {
	server    *natsserver.Server
	clientURL string
}

// NewEmbeddedServer starts an embedded NATS server bound to the host
// and port parsed from cfg.URL, with JetStream storage at cfg.StoreDir.
func NewEmbeddedServer(cfg *config.NATSConfig) (*EmbeddedServer, error) {
	host, port, err := hostPort(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse nats url %q: %w", cfg.URL, err)
	}

	opts := &natsserver.Options{
		ServerName:         "mobasher-queue",
		Host:               host,
		Port:               port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: 1 << 30,  // 1GB
		JetStreamMaxStore:  10 << 30, // 10GB
		DontListen:         false,
		MaxPayload:         8 * 1024 * 1024,
	}

	ns, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create nats server: %w", err)
	}
	ns.ConfigureLogger()

	go ns.Start()
	if !ns.ReadyForConnections(30 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("nats server not ready within timeout")
	}

	return &EmbeddedServer{server: ns, clientURL: ns.ClientURL()}, nil
}

// ClientURL returns the URL clients should dial.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// Shutdown stops the server, waiting up to ctx's deadline.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.server.WaitForShutdown()
		return nil
	}
}

func hostPort(rawURL string) (string, int, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", 0, err
	}
	host := u.Hostname()
	if host == "" {
		host = "127.0.0.1"
	}
	port := 4222
	if p := u.Port(); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid port %q: %w", p, err)
		}
		port = parsed
	}
	return host, port, nil
}
