// Package cache is the durable local store surviving process restarts.
//
// It holds the auth credential, the pre-auth draft buffer, and small
// key-value entries, all last-write-wins. The schema is versioned with
// embedded goose migrations; the keys themselves stay fixed and
// versionless.
package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Fixed, versionless entry keys.
const (
	keyToken = "auth_token"
	keyDraft = "draft_buffer"
)

// Cache is a durable key-value store backed by a single SQLite file.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if needed) the cache at path and migrates its
// schema to the latest version. Use ":memory:" for an ephemeral cache.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	// The cache is written from one logical thread; a single connection
	// avoids SQLITE_BUSY on concurrent test access.
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Set stores value under key, replacing any previous value.
func (c *Cache) Set(ctx context.Context, key, value string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	return err
}

// Get returns the value for key, or "" when absent.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
	return err
}

// Token returns the stored credential, or "" when unauthenticated.
func (c *Cache) Token(ctx context.Context) (string, error) {
	return c.Get(ctx, keyToken)
}

// SetToken stores the credential.
func (c *Cache) SetToken(ctx context.Context, token string) error {
	return c.Set(ctx, keyToken, token)
}

// ClearToken removes the credential.
func (c *Cache) ClearToken(ctx context.Context) error {
	return c.Delete(ctx, keyToken)
}

// Draft returns the pre-auth draft buffer, or "" when empty.
func (c *Cache) Draft(ctx context.Context) (string, error) {
	return c.Get(ctx, keyDraft)
}

// SetDraft stores the pre-auth draft buffer.
func (c *Cache) SetDraft(ctx context.Context, text string) error {
	return c.Set(ctx, keyDraft, text)
}

// ClearDraft removes the pre-auth draft buffer.
func (c *Cache) ClearDraft(ctx context.Context) error {
	return c.Delete(ctx, keyDraft)
}
