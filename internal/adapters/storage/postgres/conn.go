package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pet-registry/internal/platform/logger"

	"golang.org/x/sync/singleflight"
)

// State del único slot de conexión.
type State int32

const (
	Unconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unconnected"
	}
}

var (
	ErrUnavailable = errors.New("database connection unavailable")
	ErrClosed      = errors.New("connection manager closed")
)

const (
	DefaultCollection     = "pets"
	DefaultConnectTimeout = 5 * time.Second
)

// Dialer establece una conexión lista para usar (ping + colección creada).
type Dialer func(ctx context.Context) (*sql.DB, error)

type ConnOptions struct {
	DSN            string
	Collection     string
	ConnectTimeout time.Duration
	Retries        uint64

	Logger logger.Logger

	// Dial reemplaza Open+EnsureCollection (tests).
	Dial Dialer
}

// Conn administra la conexión compartida a la base documental:
//   - conecta lazy, en la primera llamada a DB;
//   - los callers concurrentes mientras se conecta comparten el mismo intento;
//   - si conecta, cachea el handle y no vuelve a intentar;
//   - si falla, vuelve a Unconnected y la próxima llamada reintenta.
type Conn struct {
	collection string
	timeout    time.Duration
	dial       Dialer
	log        logger.Logger

	group singleflight.Group

	mu     sync.RWMutex
	db     *sql.DB
	closed bool

	state    atomic.Int32
	waiting  atomic.Int32
	attempts atomic.Int64
}

func NewConn(opts ConnOptions) *Conn {
	c := &Conn{
		collection: opts.Collection,
		timeout:    opts.ConnectTimeout,
		dial:       opts.Dial,
		log:        opts.Logger,
	}
	if c.collection == "" {
		c.collection = DefaultCollection
	}
	if c.timeout <= 0 {
		c.timeout = DefaultConnectTimeout
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	c.log = c.log.With(map[string]any{"component": "postgres", "collection": c.collection})

	if c.dial == nil {
		dsn, retries, collection := opts.DSN, opts.Retries, c.collection
		c.dial = func(ctx context.Context) (*sql.DB, error) {
			db, err := Open(ctx, dsn, retries)
			if err != nil {
				return nil, err
			}
			if err := EnsureCollection(ctx, db, collection); err != nil {
				_ = db.Close()
				return nil, err
			}
			return db, nil
		}
	}
	return c
}

func (c *Conn) Collection() string { return c.collection }

func (c *Conn) State() State { return State(c.state.Load()) }

// Connected indica si hay un handle cacheado.
func (c *Conn) Connected() bool { return c.State() == Connected }

// DB devuelve el handle compartido, conectando si hace falta.
// Cualquier falla se reporta como ErrUnavailable (envuelto); el caller decide
// si degradar o abortar. ctx sólo limita cuánto espera este caller: el intento
// en curso sigue para los demás.
func (c *Conn) DB(ctx context.Context) (*sql.DB, error) {
	if db, err := c.cached(); db != nil || err != nil {
		return db, err
	}

	c.waiting.Add(1)
	defer c.waiting.Add(-1)

	ch := c.group.DoChan("connect", func() (any, error) {
		if db, err := c.cached(); db != nil || err != nil {
			return db, err
		}
		return c.connect()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sql.DB), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	}
}

// Require es DB para el arranque: mismo camino, pero pensado para que el caller
// aborte el proceso si falla.
func (c *Conn) Require(ctx context.Context) error {
	_, err := c.DB(ctx)
	return err
}

// Close libera la conexión. Se puede llamar aunque nunca se haya conectado.
// Después de Close, DB devuelve ErrClosed.
func (c *Conn) Close() error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.closed = true
	c.mu.Unlock()

	c.state.Store(int32(Unconnected))

	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		c.log.Error("failed to close database connection", map[string]any{"error": err.Error()})
		return err
	}
	c.log.Info("database connection closed", nil)
	return nil
}

func (c *Conn) cached() (*sql.DB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}
	return c.db, nil
}

func (c *Conn) connect() (*sql.DB, error) {
	c.state.Store(int32(Connecting))
	attempt := c.attempts.Add(1)

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	db, err := c.dial(ctx)
	if err != nil {
		c.state.Store(int32(Unconnected))
		if errors.Is(err, ErrNoEndpoint) {
			c.log.Warn("database is not configured; operations will be limited", map[string]any{"attempt": attempt})
		} else {
			c.log.Error("failed to connect to database", map[string]any{"attempt": attempt, "error": err.Error()})
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		_ = db.Close()
		c.state.Store(int32(Unconnected))
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ErrClosed)
	}

	c.db = db
	c.state.Store(int32(Connected))
	c.log.Info("connected to database", nil)
	return db, nil
}
