package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrUnknownBranch is returned when a Neon-Branch header names a branch
// that cannot be routed.
var ErrUnknownBranch = errors.New("unknown database branch")

var branchNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,63}$`)

type txKey struct{}
type branchKey struct{}

// DB wraps the default connection pool plus lazily opened per-branch pools.
type DB struct {
	Pool *pgxpool.Pool

	branchTemplate string
	mu             sync.Mutex
	branches       map[string]*pgxpool.Pool
}

// New connects to the database at uri. branchTemplate, when non-empty, is a
// DSN containing "{branch}" used to reach Neon branches by name.
func New(ctx context.Context, uri, branchTemplate string) (*DB, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		Pool:           pool,
		branchTemplate: branchTemplate,
		branches:       make(map[string]*pgxpool.Pool),
	}, nil
}

func (db *DB) Close() {
	db.mu.Lock()
	for _, p := range db.branches {
		p.Close()
	}
	db.branches = nil
	db.mu.Unlock()

	db.Pool.Close()
}

// WithBranch records the requested database branch on ctx.
func WithBranch(ctx context.Context, branch string) context.Context {
	if branch == "" {
		return ctx
	}
	return context.WithValue(ctx, branchKey{}, branch)
}

func (db *DB) pool(ctx context.Context) (*pgxpool.Pool, error) {
	branch, _ := ctx.Value(branchKey{}).(string)
	if branch == "" {
		return db.Pool, nil
	}
	if db.branchTemplate == "" || !branchNameRe.MatchString(branch) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBranch, branch)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if p, ok := db.branches[branch]; ok {
		return p, nil
	}

	dsn := strings.ReplaceAll(db.branchTemplate, "{branch}", branch)
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open branch %q: %w", branch, err)
	}
	db.branches[branch] = p
	return p, nil
}

// Q returns the transaction bound to ctx, or the pool for ctx's branch.
func (db *DB) Q(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	p, err := db.pool(ctx)
	if err != nil {
		return failingQuerier{err: err}
	}
	return p
}

// WithUser runs fn inside a transaction whose row-level-security claims
// identify userID. If ctx already carries a transaction, fn joins it.
func (db *DB) WithUser(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	p, err := db.pool(ctx)
	if err != nil {
		return err
	}

	tx, err := p.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := SetClaims(ctx, tx, userID); err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Savepoint runs fn in a nested transaction so a failure inside it does not
// abort the enclosing one. Without an enclosing transaction fn runs directly.
func (db *DB) Savepoint(ctx context.Context, fn func(ctx context.Context) error) error {
	outer, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return fn(ctx)
	}

	nested, err := outer.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	defer func() { _ = nested.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey{}, nested)); err != nil {
		return err
	}
	return nested.Commit(ctx)
}

// SetClaims sets the PostgREST-style request.jwt.claims for the current
// transaction so row-level-security policies can read the user id.
func SetClaims(ctx context.Context, q Querier, userID string) error {
	claims, err := json.Marshal(map[string]string{"sub": userID, "role": "authenticated"})
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}
	if _, err := q.Exec(ctx, `SELECT set_config('request.jwt.claims', $1, true)`, string(claims)); err != nil {
		return fmt.Errorf("failed to set claims: %w", err)
	}
	return nil
}

type failingQuerier struct{ err error }

func (f failingQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, f.err
}

func (f failingQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, f.err
}

func (f failingQuerier) QueryRow(context.Context, string, ...any) pgx.Row {
	return failingRow{err: f.err}
}

type failingRow struct{ err error }

func (r failingRow) Scan(...any) error { return r.err }
