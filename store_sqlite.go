package auth

import (
	"context"
	"database/sql"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// sessionEntry is one row of the local session table
type sessionEntry struct {
	bun.BaseModel `bun:"table:session_state,alias:ss"`
	Key           string `bun:"key,pk" json:"key"`
	Value         string `bun:"value,notnull" json:"value"`
}

// SQLiteStore persists the session in a local SQLite database so it survives
// process restarts, the way browser storage survives page reloads.
type SQLiteStore struct {
	db     *bun.DB
	logger Logger
}

var _ SessionStore = (*SQLiteStore)(nil)

type SQLiteStoreOption func(*SQLiteStore)

// WithStoreLogger overrides the logger used for decode warnings
func WithStoreLogger(l Logger) SQLiteStoreOption {
	return func(s *SQLiteStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSQLiteStore opens (or creates) the store at path. Use ":memory:" for a
// throwaway store.
func NewSQLiteStore(path string, opts ...SQLiteStoreOption) (*SQLiteStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to open session store")
	}

	// a single connection keeps :memory: stores coherent
	sqldb.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db:     bun.NewDB(sqldb, sqlitedialect.New()),
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	if _, err := store.db.NewCreateTable().
		Model((*sessionEntry)(nil)).
		IfNotExists().
		Exec(context.Background()); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to initialize session store")
	}

	return store, nil
}

// Save upserts the profile before the token so readers never observe a token
// without its profile.
func (s *SQLiteStore) Save(ctx context.Context, token string, user *User) error {
	raw, err := encodeStoredUser(user)
	if err != nil {
		return err
	}

	if err := s.put(ctx, StoreKeyUserData, raw); err != nil {
		return err
	}

	return s.put(ctx, StoreKeyToken, token)
}

// Load returns whatever is present; a corrupt profile yields an empty session
func (s *SQLiteStore) Load(ctx context.Context) (string, *User, error) {
	token, err := s.get(ctx, StoreKeyToken)
	if err != nil {
		return "", nil, err
	}

	raw, err := s.get(ctx, StoreKeyUserData)
	if err != nil {
		return "", nil, err
	}

	user, err := decodeStoredUser(raw)
	if err != nil {
		s.logger.Warn("discarding malformed persisted profile: %v", err)
		return "", nil, nil
	}

	return token, user, nil
}

// Clear removes both keys
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*sessionEntry)(nil)).
		Where("?TableAlias.key IN (?, ?)", StoreKeyToken, StoreKeyUserData).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear session store")
	}
	return nil
}

// Put writes a raw value, bypassing profile encoding; test seam
func (s *SQLiteStore) Put(ctx context.Context, key, value string) error {
	return s.put(ctx, key, value)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) put(ctx context.Context, key, value string) error {
	entry := &sessionEntry{Key: key, Value: value}
	_, err := s.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write session store").
			WithMetadata(map[string]any{"key": key})
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) (string, error) {
	entry := &sessionEntry{}
	err := s.db.NewSelect().
		Model(entry).
		Where("?TableAlias.key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read session store").
			WithMetadata(map[string]any{"key": key})
	}
	return entry.Value, nil
}
