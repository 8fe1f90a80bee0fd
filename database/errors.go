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
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/tomoncle/acorn/metadata"
)

// ConfigurationError reports a programming-time mistake in an entity or
// repository declaration. Declared in the metadata package, which owns the
// interpretation of declarations.
type ConfigurationError = metadata.ConfigurationError

var (
	// ErrNoActiveTransaction is returned when a data access operation runs
	// outside a Transaction block.
	ErrNoActiveTransaction = errors.New("no active transaction bound to the context")

	// ErrUnsupportedOperation is returned for identity, hash, and string
	// methods invoked on a synthesized repository.
	ErrUnsupportedOperation = errors.New("unsupported repository operation")
)

// SQLErrorKind classifies an underlying database failure.
type SQLErrorKind int

const (
	UnknownErr SQLErrorKind = iota
	NoRowsErr
	NoTableErr
	ExistTableErr
	NoColumnErr
	DuplicateKeyErr
	NotNullViolationErr
	DataTruncatedErr
	InvalidTypeCastErr
)

// DatabaseError wraps any failure from the underlying data access call:
// statement preparation, execution, commit, or rollback.
type DatabaseError struct {
	Op    string // "query", "exec", "commit", ...
	Query string
	Kind  SQLErrorKind
	Err   error
}

func (e *DatabaseError) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("database %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("database %s failed: %v (query: %s)", e.Op, e.Err, e.Query)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// NewDatabaseError wraps err with operation context and a classified kind.
// An error that is already a DatabaseError is returned unchanged.
func NewDatabaseError(op, query string, err error) error {
	if err == nil {
		return nil
	}
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}
	return &DatabaseError{Op: op, Query: query, Kind: ClassifySQLError(err), Err: err}
}

// ClassifySQLError derives a kind from driver error codes and SQLSTATE or
// driver message text. MySQL errors carry numeric codes; PostgreSQL and
// SQLite are matched on message content.
func ClassifySQLError(err error) SQLErrorKind {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1054:
			return NoColumnErr
		case 1050:
			return ExistTableErr
		case 1146:
			return NoTableErr
		case 1062:
			return DuplicateKeyErr
		case 1048:
			return NotNullViolationErr
		case 1265:
			return DataTruncatedErr
		default:
			return UnknownErr
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "sqlstate 42703") ||
		strings.Contains(s, "undefined column") ||
		strings.Contains(s, "no such column"):
		return NoColumnErr
	case strings.Contains(s, "sqlstate 42p01") ||
		strings.Contains(s, "undefined table") ||
		strings.Contains(s, "no such table"):
		return NoTableErr
	case strings.Contains(s, "already exists") &&
		(strings.Contains(s, "table") || strings.Contains(s, "relation")):
		return ExistTableErr
	case strings.Contains(s, "duplicate key value") ||
		strings.Contains(s, "unique constraint failed") ||
		strings.Contains(s, "sqlstate 23505"):
		return DuplicateKeyErr
	case strings.Contains(s, "not-null constraint") ||
		strings.Contains(s, "not null constraint failed") ||
		strings.Contains(s, "sqlstate 23502"):
		return NotNullViolationErr
	case strings.Contains(s, "string data right truncation") ||
		strings.Contains(s, "sqlstate 22001") ||
		strings.Contains(s, "data truncated"):
		return DataTruncatedErr
	case strings.Contains(s, "datatype mismatch") ||
		strings.Contains(s, "sqlstate 42804"):
		return InvalidTypeCastErr
	case strings.Contains(s, "no rows in result set"):
		return NoRowsErr
	default:
		return UnknownErr
	}
}

// queryError carries a failure across the synthesized repository dispatch
// boundary without losing its original kind. Transaction is the single place
// that strips it; errors.Is and errors.As traverse it transparently, so the
// wrapper never has to leak into caller code.
type queryError struct {
	err error
}

func (e *queryError) Error() string {
	return e.err.Error()
}

func (e *queryError) Unwrap() error {
	return e.err
}

// WrapQueryError marks err as raised inside a synthesized repository method.
func WrapQueryError(err error) error {
	if err == nil {
		return nil
	}
	var wrapped *queryError
	if errors.As(err, &wrapped) {
		return err
	}
	return &queryError{err: err}
}

// unwrapQueryError restores the original error kind at the transaction
// boundary.
func unwrapQueryError(err error) error {
	var wrapped *queryError
	if errors.As(err, &wrapped) {
		return wrapped.err
	}
	return err
}
