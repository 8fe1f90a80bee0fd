/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"

	"github.com/tomoncle/acorn/metadata"
)

type txKey struct{}

// Transaction acquires one connection from db, binds it to the context passed
// into block, and runs block. On success the transaction is committed; on any
// failure a rollback is attempted and the original failure propagates, even
// when the rollback itself fails. The binding never survives the call on any
// exit path.
//
// Errors wrapped at the repository dispatch boundary are unwrapped back to
// their original kind here, before the rollback decision and before they
// reach the caller.
//
// A context that already carries a bound connection is rejected: nested
// transactions are a configuration mistake.
func Transaction(ctx context.Context, db *sql.DB, block func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return metadata.NewConfigurationError("nested transaction: a connection is already bound to this context")
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return NewDatabaseError("begin", "", err)
	}
	if err := unwrapQueryError(block(context.WithValue(ctx, txKey{}, tx))); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			GetLogger().Warn("rollback failed", "error", rollbackErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			GetLogger().Warn("rollback after failed commit failed", "error", rollbackErr)
		}
		return NewDatabaseError("commit", "", err)
	}
	return nil
}

// Conn returns the transaction bound to the calling context, or
// ErrNoActiveTransaction when the caller is outside a Transaction block.
func Conn(ctx context.Context) (*sql.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	if !ok {
		return nil, ErrNoActiveTransaction
	}
	return tx, nil
}
