// Package pool manages the database connections used by every connector call.
//
// A Pool is created cheaply and dials nothing until the first Acquire. Each
// Acquire hands out a dedicated *sql.Conn that has passed a liveness probe;
// the caller must Release it on every exit path.
package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapconnect/pkg/adapter"
	"github.com/leapstack-labs/leapconnect/pkg/core"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("pool is closed")

// Opener dials the underlying database handle. Adapters satisfy it.
type Opener interface {
	Name() string
	Open(creds core.Credentials) (*sql.DB, error)
	Diagnose(err error) []slog.Attr
}

// Config bounds the pool.
type Config struct {
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	// HealthCheckTimeout bounds the liveness probe. Zero means no timeout.
	HealthCheckTimeout time.Duration `koanf:"health_check_timeout"`
}

// DefaultConfig returns the pool settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:       4,
		MaxIdleConns:       2,
		ConnMaxLifetime:    30 * time.Minute,
		ConnMaxIdleTime:    5 * time.Minute,
		HealthCheckTimeout: 5 * time.Second,
	}
}

// Pool is a bounded, lazily established set of connections.
// It is safe for concurrent use.
type Pool struct {
	opener Opener
	creds  core.Credentials
	driver string
	diag   adapter.Diagnoser
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	db     *sql.DB
	closed bool
}

// New creates a pool that opens its handle through opener on first use.
func New(opener Opener, creds core.Credentials, cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pool{
		opener: opener,
		creds:  creds,
		driver: opener.Name(),
		diag:   opener,
		cfg:    cfg,
		logger: logger,
	}
}

// NewFromDB wraps an already opened handle.
func NewFromDB(db *sql.DB, driverName string, cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Pool{
		driver: driverName,
		cfg:    cfg,
		logger: logger,
	}
	p.configure(db)
	p.db = db
	return p
}

// Driver returns the driver name used in errors and logs.
func (p *Pool) Driver() string {
	return p.driver
}

// Acquire checks out a validated connection. A connection that fails the
// liveness probe is discarded and one fresh connection is tried.
func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	db, err := p.handle()
	if err != nil {
		return nil, p.connectionError(ctx, err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if err := p.validate(ctx, conn); err != nil {
			p.logger.Debug("discarding connection that failed liveness probe",
				slog.String("driver", p.driver),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			discard(conn)
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		return &Lease{conn: conn}, nil
	}
	return nil, p.connectionError(ctx, lastErr)
}

// Close closes the underlying handle. Leases already handed out fail on next use.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Stats reports database/sql pool statistics; zero before the first Acquire.
func (p *Pool) Stats() sql.DBStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db == nil {
		return sql.DBStats{}
	}
	return p.db.Stats()
}

func (p *Pool) handle() (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.db != nil {
		return p.db, nil
	}

	db, err := p.opener.Open(p.creds)
	if err != nil {
		return nil, err
	}
	p.configure(db)
	p.db = db
	p.logger.Debug("connection pool established",
		slog.String("driver", p.driver),
		slog.Int("max_open_conns", p.cfg.MaxOpenConns))
	return db, nil
}

func (p *Pool) configure(db *sql.DB) {
	if p.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.cfg.MaxOpenConns)
	}
	if p.cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.cfg.MaxIdleConns)
	}
	if p.cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)
	}
	if p.cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.cfg.ConnMaxIdleTime)
	}
}

func (p *Pool) validate(ctx context.Context, conn *sql.Conn) error {
	if p.cfg.HealthCheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.HealthCheckTimeout)
		defer cancel()
	}
	return conn.PingContext(ctx)
}

func (p *Pool) connectionError(ctx context.Context, err error) error {
	if err == nil {
		err = errors.New("no connection available")
	}
	adapter.LogError(ctx, p.logger, p.diag, "connection failed", err)
	return &core.ConnectionError{Driver: p.driver, Err: err}
}

// discard removes conn from the pool instead of returning it to the idle set.
func discard(conn *sql.Conn) {
	_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	_ = conn.Close()
}

// Lease is a checked-out connection.
type Lease struct {
	conn *sql.Conn
	once sync.Once
}

// Conn returns the leased connection.
func (l *Lease) Conn() *sql.Conn {
	return l.conn
}

// Release checks the connection back in. Calling it more than once is a no-op.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		_ = l.conn.Close()
	})
}
