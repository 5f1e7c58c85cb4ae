package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapconnect/internal/testutil"
	"github.com/leapstack-labs/leapconnect/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConnector hands out connections whose pings fail in the order given.
type fakeConnector struct {
	mu       sync.Mutex
	pingErrs []error
	hang     bool

	connects atomic.Int32
	closes   atomic.Int32
}

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	c.connects.Add(1)
	return &fakeConn{c: c}, nil
}

func (c *fakeConnector) Driver() driver.Driver { return fakeDriver{} }

func (c *fakeConnector) nextPing(ctx context.Context) error {
	if c.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pingErrs) == 0 {
		return nil
	}
	err := c.pingErrs[0]
	c.pingErrs = c.pingErrs[1:]
	return err
}

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return nil, errors.New("use the connector") }

type fakeConn struct{ c *fakeConnector }

func (f *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (f *fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("not supported") }
func (f *fakeConn) Ping(ctx context.Context) error      { return f.c.nextPing(ctx) }
func (f *fakeConn) Close() error {
	f.c.closes.Add(1)
	return nil
}

type fakeOpener struct {
	connector *fakeConnector
	opens     atomic.Int32
	err       error
}

func (o *fakeOpener) Name() string { return "fake" }

func (o *fakeOpener) Open(core.Credentials) (*sql.DB, error) {
	o.opens.Add(1)
	if o.err != nil {
		return nil, o.err
	}
	return sql.OpenDB(o.connector), nil
}

func (o *fakeOpener) Diagnose(error) []slog.Attr { return nil }

func newTestPool(t *testing.T, o *fakeOpener, cfg Config) *Pool {
	t.Helper()
	p := New(o, core.Credentials{Driver: "fake"}, cfg, testutil.NewTestLogger(t))
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestAcquire_IsLazy(t *testing.T) {
	o := &fakeOpener{connector: &fakeConnector{}}
	p := newTestPool(t, o, DefaultConfig())

	assert.Equal(t, int32(0), o.opens.Load(), "nothing is dialled before the first Acquire")
	assert.Equal(t, sql.DBStats{}, p.Stats())

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lease.Conn())
	lease.Release()

	lease, err = p.Acquire(context.Background())
	require.NoError(t, err)
	lease.Release()

	assert.Equal(t, int32(1), o.opens.Load())
	assert.Equal(t, int32(1), o.connector.connects.Load(), "idle connection is reused")
}

func TestAcquire_ReplacesInvalidConnection(t *testing.T) {
	o := &fakeOpener{connector: &fakeConnector{pingErrs: []error{errors.New("server closed the connection")}}}
	p := newTestPool(t, o, DefaultConfig())

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer lease.Release()

	assert.Equal(t, int32(2), o.connector.connects.Load())
	assert.Equal(t, int32(1), o.connector.closes.Load(), "invalid connection is closed, not pooled")
}

func TestAcquire_Errors(t *testing.T) {
	tests := []struct {
		name   string
		opener *fakeOpener
		cfg    Config
		target error
	}{
		{
			name:   "open fails",
			opener: &fakeOpener{connector: &fakeConnector{}, err: errors.New("bad dsn")},
			cfg:    DefaultConfig(),
		},
		{
			name: "revalidation fails twice",
			opener: &fakeOpener{connector: &fakeConnector{pingErrs: []error{
				errors.New("reset by peer"),
				errors.New("reset by peer"),
			}}},
			cfg: DefaultConfig(),
		},
		{
			name:   "probe exceeds health check timeout",
			opener: &fakeOpener{connector: &fakeConnector{hang: true}},
			cfg:    Config{HealthCheckTimeout: 10 * time.Millisecond},
			target: context.DeadlineExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPool(t, tt.opener, tt.cfg)

			lease, err := p.Acquire(context.Background())
			require.Error(t, err)
			assert.Nil(t, lease)
			assert.ErrorIs(t, err, core.ErrConnection)

			var connErr *core.ConnectionError
			require.ErrorAs(t, err, &connErr)
			assert.Equal(t, "fake", connErr.Driver)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestAcquire_AfterClose(t *testing.T) {
	o := &fakeOpener{connector: &fakeConnector{}}
	p := newTestPool(t, o, DefaultConfig())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err := p.Acquire(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, core.ErrConnection)
	assert.Equal(t, int32(0), o.opens.Load())
}

func TestAcquire_Concurrent(t *testing.T) {
	o := &fakeOpener{connector: &fakeConnector{}}
	p := newTestPool(t, o, Config{MaxOpenConns: 2, MaxIdleConns: 2})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease, err := p.Acquire(context.Background())
			if err != nil {
				errs <- err
				return
			}
			defer lease.Release()
			time.Sleep(time.Millisecond)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected acquire error: %v", err)
	}
	assert.Equal(t, int32(1), o.opens.Load(), "handle is opened once")
	assert.LessOrEqual(t, o.connector.connects.Load(), int32(2), "bounded by MaxOpenConns")
}

func TestLease_ReleaseIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	p := NewFromDB(db, "sqlmock", Config{}, nil)
	assert.Equal(t, "sqlmock", p.Driver())

	lease, err := p.Acquire(context.Background())
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 3))
	res, err := lease.Conn().ExecContext(context.Background(), "DELETE FROM t")
	require.NoError(t, err)
	n, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	lease.Release()
	lease.Release()

	var nilLease *Lease
	nilLease.Release()

	assert.NoError(t, mock.ExpectationsWereMet())
}
