// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// sessionPrefix namespaces session keys inside the badger keyspace.
const sessionPrefix = "session/"

// Session is the stored state behind a session token. Role is trusted for
// the life of the session; it is not re-read from the users table on each
// request.
type Session struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// SessionConfig configures the embedded session database.
type SessionConfig struct {
	// Path is the directory for badger files. Ignored when InMemory is set.
	Path string

	// InMemory keeps sessions in RAM only. Used by tests; in production a
	// restart would otherwise log everyone out.
	InMemory bool

	// TTL is how long a session lives after login. Defaults to 12h.
	TTL time.Duration

	// Logger receives badger's internal messages. Nil disables them.
	Logger *slog.Logger
}

// SessionStore issues, resolves and revokes session tokens, backed by
// badger with per-key TTL so expired sessions vanish without a sweeper.
type SessionStore struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLogger adapts slog to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenSessionStore opens the session database described by cfg.
// Callers must Close the store on shutdown.
func OpenSessionStore(cfg SessionConfig) (*SessionStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("session store: path is required")
		}
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create session directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{db: db, ttl: ttl}, nil
}

// Create issues a fresh opaque token for the given identity.
func (s *SessionStore) Create(userID uint, username string, role domain.Role) (string, error) {
	token := uuid.NewString()
	value, err := json.Marshal(Session{UserID: userID, Username: username, Role: role})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionPrefix+token), value).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return token, nil
}

// Get resolves a token to its session. Missing and expired tokens both
// return domain.ErrNotFound.
func (s *SessionStore) Get(token string) (Session, error) {
	var session Session
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionPrefix + token))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &session)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Session{}, domain.ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	return session, nil
}

// Delete revokes a token. Revoking an unknown token is a no-op.
func (s *SessionStore) Delete(token string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionPrefix + token))
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// RunGC reclaims badger value-log space on an interval until ctx ends.
// Run it in the service's errgroup; badger returns ErrNoRewrite when
// there is nothing to collect, which is not an error here.
func (s *SessionStore) RunGC(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				if err := s.db.RunValueLogGC(0.5); err != nil {
					break
				}
			}
		}
	}
}

// Close releases the underlying database.
func (s *SessionStore) Close() error {
	return s.db.Close()
}
