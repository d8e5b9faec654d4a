// Copyright (C) 2025 Tideline Mutual (engineering@tidelinemutual.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store opens and migrates the relational entity store.
//
// The five entity tables live in a single SQLite database reached through
// GORM. Services receive the *gorm.DB and perform their own reads and
// writes; this package only owns connection setup and schema migration.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/TidelineMutual/TidelineCore/services/portal/domain"
)

// Config holds connection settings for the entity store.
type Config struct {
	// Path is the SQLite database file. Required unless InMemory is set.
	Path string

	// InMemory opens a private in-memory database. Used by tests.
	InMemory bool

	// LogSQL enables GORM's statement logging (slow-query warnings).
	LogSQL bool
}

// Open connects to the store and configures the connection pool.
//
// SQLite allows a single writer; the pool is capped at one open
// connection so writes serialize in the driver instead of failing
// with SQLITE_BUSY under concurrent handlers.
func Open(cfg Config) (*gorm.DB, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	}
	if dsn == "" {
		return nil, errors.New("store: path is required for a persistent database")
	}

	logMode := gormlogger.Default.LogMode(gormlogger.Silent)
	if cfg.LogSQL {
		logMode = gormlogger.Default.LogMode(gormlogger.Warn)
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logMode})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates the five entity tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Policy{},
		&domain.Claim{},
		&domain.Payment{},
		&domain.SupportTicket{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// OpenForTest opens a migrated in-memory store. Fails the caller's test
// setup by returning the error rather than panicking.
func OpenForTest() (*gorm.DB, error) {
	db, err := Open(Config{InMemory: true})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
