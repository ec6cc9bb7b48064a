package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leapstack-labs/leapplan/pkg/adapter"
	"github.com/leapstack-labs/leapplan/pkg/core"
	"golang.org/x/sync/singleflight"
)

// DefaultCreateTimeout bounds opening and pinging a new pool.
const DefaultCreateTimeout = 30 * time.Second

// Opener opens a database handle for creds through a. The default is
// adapter.Open, which also pings.
type Opener func(ctx context.Context, a adapter.Adapter, creds core.Credentials) (*sql.DB, error)

// Pool is a bounded set of connections bound to one identity and database.
type Pool struct {
	DB          *sql.DB
	Fingerprint core.Fingerprint
	Database    string
	Adapter     adapter.Adapter
	Size        int
}

// Dialect returns the guard profile name for statements on this pool.
func (p *Pool) Dialect() string {
	return p.Adapter.Dialect()
}

// ReadOnlyTx reports whether transactions on this pool can be read-only.
func (p *Pool) ReadOnlyTx() bool {
	return p.Adapter.SupportsReadOnlyTx()
}

// Acquire checks out one connection, blocking while the pool is exhausted
// until ctx is done. The caller must Close the connection.
func (p *Pool) Acquire(ctx context.Context) (*sql.Conn, error) {
	return p.DB.Conn(ctx)
}

// Registry maps fingerprints to pools. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	pools map[core.Fingerprint]*Pool
	group singleflight.Group

	opener      Opener
	logger      *slog.Logger
	defaultSize int
	idleTimeout time.Duration
	maxLifetime time.Duration

	createTimeout time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOpener replaces the function that opens database handles.
func WithOpener(o Opener) Option {
	return func(r *Registry) { r.opener = o }
}

// WithPoolSize sets the size used when CreatePool is given a size <= 0.
func WithPoolSize(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.defaultSize = n
		}
	}
}

// WithIdleTimeout closes connections idle for longer than d. Zero keeps them.
func WithIdleTimeout(d time.Duration) Option {
	return func(r *Registry) { r.idleTimeout = d }
}

// WithMaxLifetime recycles connections older than d. Zero keeps them.
func WithMaxLifetime(d time.Duration) Option {
	return func(r *Registry) { r.maxLifetime = d }
}

// WithCreateTimeout bounds opening and pinging a new pool, independent of
// the contexts of the callers waiting for it.
func WithCreateTimeout(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.createTimeout = d
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		pools:       make(map[core.Fingerprint]*Pool),
		opener:      adapter.Open,
		logger:      slog.New(slog.DiscardHandler),
		defaultSize: core.DefaultPoolSize,

		createTimeout: DefaultCreateTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect derives the fingerprint of creds and creates its pool with the
// default size.
func (r *Registry) Connect(ctx context.Context, creds core.Credentials) (core.Fingerprint, error) {
	return r.CreatePool(ctx, FingerprintOf(creds), creds, 0)
}

// CreatePool provisions a pool of size connections for fp unless one exists.
// An existing pool is kept as is and creds are not looked at again.
// Concurrent calls for the same fp create exactly one pool.
func (r *Registry) CreatePool(ctx context.Context, fp core.Fingerprint, creds core.Credentials, size int) (core.Fingerprint, error) {
	if r.lookup(fp) != nil {
		return fp, nil
	}

	// The shared creation must not inherit one caller's cancellation; each
	// caller stops waiting on its own context instead.
	ch := r.group.DoChan(string(fp), func() (any, error) {
		if p := r.lookup(fp); p != nil {
			return p, nil
		}
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.createTimeout)
		defer cancel()
		return r.create(cctx, fp, creds, size)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return fp, nil
	case <-ctx.Done():
		return "", fmt.Errorf("create pool %s: %w", fp.Short(), ctx.Err())
	}
}

func (r *Registry) create(ctx context.Context, fp core.Fingerprint, creds core.Credentials, size int) (*Pool, error) {
	if size <= 0 {
		size = r.defaultSize
	}

	a, err := adapter.NewAdapter(creds.Adapter)
	if err != nil {
		return nil, err
	}

	db, err := r.opener(ctx, a, creds)
	if err != nil {
		return nil, fmt.Errorf("create pool %s: %w", fp.Short(), err)
	}

	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	if r.idleTimeout > 0 {
		db.SetConnMaxIdleTime(r.idleTimeout)
	}
	if r.maxLifetime > 0 {
		db.SetConnMaxLifetime(r.maxLifetime)
	}

	p := &Pool{
		DB:          db,
		Fingerprint: fp,
		Database:    creds.Database,
		Adapter:     a,
		Size:        size,
	}

	r.mu.Lock()
	r.pools[fp] = p
	r.mu.Unlock()

	r.logger.Debug("pool created",
		slog.String("fingerprint", fp.Short()),
		slog.String("adapter", a.Name()),
		slog.String("database", creds.Database),
		slog.Int("size", size))

	return p, nil
}

func (r *Registry) lookup(fp core.Fingerprint) *Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pools[fp]
}

// Pool returns the pool for fp.
func (r *Registry) Pool(fp core.Fingerprint) (*Pool, error) {
	p := r.lookup(fp)
	if p == nil {
		return nil, core.ErrUnknownIdentity(fp)
	}
	return p, nil
}

// Database returns the database name fp was created with.
func (r *Registry) Database(fp core.Fingerprint) (string, error) {
	p, err := r.Pool(fp)
	if err != nil {
		return "", err
	}
	return p.Database, nil
}

// Len returns the number of live pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// Evict closes the pool for fp and forgets it. A later CreatePool for the
// same fingerprint provisions a fresh pool.
func (r *Registry) Evict(fp core.Fingerprint) error {
	r.mu.Lock()
	p, ok := r.pools[fp]
	delete(r.pools, fp)
	r.mu.Unlock()

	if !ok {
		return core.ErrUnknownIdentity(fp)
	}

	r.logger.Debug("pool evicted", slog.String("fingerprint", fp.Short()))
	return p.DB.Close()
}

// Close closes every pool.
func (r *Registry) Close() error {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[core.Fingerprint]*Pool)
	r.mu.Unlock()

	var errs []error
	for fp, p := range pools {
		if err := p.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pool %s: %w", fp.Short(), err))
		}
	}
	return errors.Join(errs...)
}
