package protocol

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	metrics "github.com/hashicorp/go-metrics"
	"github.com/hashicorp/go-multierror"

	"github.com/CefBoud/minikafka/logging"
	"github.com/CefBoud/minikafka/serde"
	"github.com/CefBoud/minikafka/types"
	"github.com/CefBoud/minikafka/utils"
)

// Broker accepts client connections and serves each one on its own goroutine.
// Connections share no protocol state; the broker only tracks them to close them
// on shutdown.
type Broker struct {
	Config  *types.Configuration
	Metrics *Metrics
	logger  hclog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	shutdown bool
	wg       sync.WaitGroup
}

// NewBroker creates a new Broker instance with the provided configuration.
// Metrics are written to sink, which may be nil.
func NewBroker(config *types.Configuration, sink metrics.MetricSink) (*Broker, error) {
	m, err := NewMetrics(sink)
	if err != nil {
		return nil, err
	}
	return &Broker{
		Config:  config,
		Metrics: m,
		logger:  logging.Named("broker"),
		conns:   make(map[net.Conn]struct{}),
	}, nil
}

// Listen binds the TCP listener on the configured address.
func (b *Broker) Listen() error {
	listener, err := net.Listen("tcp", b.Config.Address())
	if err != nil {
		return fmt.Errorf("error starting server: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		listener.Close()
		return net.ErrClosed
	}
	b.listener = listener
	b.logger.Info("server is listening", "address", listener.Addr().String())
	return nil
}

// Addr returns the listener address, or nil before Listen.
func (b *Broker) Addr() net.Addr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return nil
	}
	return b.listener.Addr()
}

// ListenAndServe binds the listener and serves until ctx is cancelled or Shutdown is called.
func (b *Broker) ListenAndServe(ctx context.Context) error {
	if err := b.Listen(); err != nil {
		return err
	}
	return b.Serve(ctx)
}

// Serve accepts connections on the bound listener. Cancelling ctx shuts the broker down.
func (b *Broker) Serve(ctx context.Context) error {
	b.mu.Lock()
	listener := b.listener
	b.mu.Unlock()
	if listener == nil {
		return errors.New("broker is not listening")
	}

	stop := context.AfterFunc(ctx, func() {
		if err := b.Shutdown(); err != nil {
			b.logger.Warn("shutdown finished with errors", "error", err)
		}
	})
	defer stop()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if b.isShutdown() {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				b.logger.Error("error accepting connection", "error", err)
				continue
			}
			return fmt.Errorf("accept connection: %w", err)
		}
		if !b.track(conn) {
			conn.Close()
			return nil
		}
		go func() {
			defer b.untrack(conn)
			b.HandleConnection(conn)
		}()
	}
}

// HandleConnection processes requests from a client connection, one at a time and in
// order, until the peer disconnects or sends something that cannot be decoded.
// Malformed requests are never answered: the connection is closed instead.
func (b *Broker) HandleConnection(conn net.Conn) {
	defer conn.Close()
	logger := b.logger.With("remote", conn.RemoteAddr().String())
	logger.Debug("connection established")
	b.Metrics.connectionOpened()
	defer b.Metrics.connectionClosed()

	for {
		if err := b.serveRequest(conn, logger); err != nil {
			b.logConnectionError(logger, err)
			break
		}
	}
	logger.Debug("connection closed")
}

// serveRequest reads one frame, decodes it, and writes the encoded response.
func (b *Broker) serveRequest(conn net.Conn, logger hclog.Logger) error {
	frame, err := ReadFrame(conn, b.Config.MaxMessageSize)
	if err != nil {
		return err
	}
	start := time.Now()

	req, err := DecodeRequest(frame)
	if err != nil {
		return err
	}
	logger.Debug("received request",
		"api", req.Header.APIKey.Name,
		"version", req.Header.APIVersion,
		"correlation_id", req.Header.CorrelationID,
		"length", req.Size)

	resp, err := BuildResponse(req)
	if err != nil {
		return err
	}
	if _, err := conn.Write(resp.Encode()); err != nil {
		return fmt.Errorf("error writing response: %w", err)
	}
	b.Metrics.requestServed(req.Header.APIKey, start)
	return nil
}

func (b *Broker) logConnectionError(logger hclog.Logger, err error) {
	var decodeErr *serde.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		b.Metrics.decodeFailed(err)
		logger.Warn("closing connection after malformed request", "field", decodeErr.Field, "error", err)
	case utils.IsConnectionClosed(err):
		logger.Debug("connection closed by peer")
	default:
		logger.Error("connection error", "error", err)
	}
}

func (b *Broker) track(conn net.Conn) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.shutdown {
		return false
	}
	b.conns[conn] = struct{}{}
	b.wg.Add(1)
	return true
}

func (b *Broker) untrack(conn net.Conn) {
	b.mu.Lock()
	delete(b.conns, conn)
	b.mu.Unlock()
	b.wg.Done()
}

func (b *Broker) isShutdown() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shutdown
}

// Shutdown closes the listener and every live connection, then waits for the
// connection goroutines to return. It is safe to call more than once.
func (b *Broker) Shutdown() error {
	b.mu.Lock()
	if b.shutdown {
		b.mu.Unlock()
		return nil
	}
	b.shutdown = true

	var result *multierror.Error
	if b.listener != nil {
		if err := b.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, fmt.Errorf("close listener: %w", err))
		}
	}
	for conn := range b.conns {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			result = multierror.Append(result, fmt.Errorf("close connection %s: %w", conn.RemoteAddr(), err))
		}
	}
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("broker shut down")
	return result.ErrorOrNil()
}
