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
	"fmt"
	"strings"
	"sync"

	"github.com/tomoncle/acorn/metadata"
)

// Dialect renders the SQL fragments that differ between database engines:
// column definitions, the upsert statement, parameter placeholders, and the
// way generated keys are retrieved.
type Dialect interface {
	Name() string

	// ColumnDDL renders everything after the column name in a CREATE TABLE
	// statement, including the PRIMARY KEY clause for the identifier.
	ColumnDDL(p *metadata.Property) string

	// UpsertSQL renders the insert-if-absent, replace-if-present statement
	// listing all non-pseudo columns with positional placeholders.
	UpsertSQL(s *metadata.Schema) string

	// Placeholder renders the n-th positional parameter, 1-based.
	Placeholder(n int) string

	// UseReturning reports whether generated keys must be fetched with a
	// RETURNING clause instead of sql.Result.LastInsertId.
	UseReturning() bool
}

var (
	// Default is the ANSI MERGE dialect used by H2-compatible engines.
	Default  Dialect = defaultDialect{}
	MySQL    Dialect = mysqlDialect{}
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

var (
	activeDialect   Dialect = Default
	activeDialectMu sync.RWMutex
)

// SetDialect installs the process-wide dialect. Called once by
// ConnectionConfig.Open before any statement is derived; derived statements
// are memoized, so switching dialects mid-flight is not supported.
func SetDialect(d Dialect) {
	if d == nil {
		return
	}
	activeDialectMu.Lock()
	activeDialect = d
	activeDialectMu.Unlock()
}

// ActiveDialect returns the process-wide dialect.
func ActiveDialect() Dialect {
	activeDialectMu.RLock()
	defer activeDialectMu.RUnlock()
	return activeDialect
}

// DialectFor maps a connection type name to its dialect.
func DialectFor(dbType string) (Dialect, error) {
	switch dbType {
	case "h2", "":
		return Default, nil
	case "mysql":
		return MySQL, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}

type defaultDialect struct{}

func (defaultDialect) Name() string { return "h2" }

func (defaultDialect) ColumnDDL(p *metadata.Property) string {
	var b strings.Builder
	b.WriteString(p.SQLType)
	if p.Generated {
		b.WriteString(" AUTO_INCREMENT")
	}
	if p.NotNull {
		b.WriteString(" NOT NULL")
	}
	if p.ID {
		b.WriteString(",\nPRIMARY KEY (" + p.ColumnName + ")")
	}
	return b.String()
}

func (defaultDialect) UpsertSQL(s *metadata.Schema) string {
	columns, placeholders := columnList(s, questionPlaceholder)
	return "MERGE INTO " + s.TableName + " (" + columns + ") VALUES (" + placeholders + ")"
}

func (defaultDialect) Placeholder(int) string { return "?" }

func (defaultDialect) UseReturning() bool { return false }

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) ColumnDDL(p *metadata.Property) string {
	return defaultDialect{}.ColumnDDL(p)
}

func (mysqlDialect) UpsertSQL(s *metadata.Schema) string {
	columns, placeholders := columnList(s, questionPlaceholder)
	return "REPLACE INTO " + s.TableName + " (" + columns + ") VALUES (" + placeholders + ")"
}

func (mysqlDialect) Placeholder(int) string { return "?" }

func (mysqlDialect) UseReturning() bool { return false }

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) ColumnDDL(p *metadata.Property) string {
	var b strings.Builder
	switch {
	case p.Generated && p.SQLType == metadata.SQLBigint:
		b.WriteString("BIGSERIAL")
	case p.Generated:
		b.WriteString("SERIAL")
	default:
		b.WriteString(p.SQLType)
	}
	if p.NotNull {
		b.WriteString(" NOT NULL")
	}
	if p.ID {
		b.WriteString(",\nPRIMARY KEY (" + p.ColumnName + ")")
	}
	return b.String()
}

func (postgresDialect) UpsertSQL(s *metadata.Schema) string {
	columns, placeholders := columnList(s, postgresPlaceholder)
	query := "INSERT INTO " + s.TableName + " (" + columns + ") VALUES (" + placeholders + ")"
	id := s.ID()
	if id == nil {
		return query
	}
	assignments := make([]string, 0, len(s.Properties))
	for i := range s.Properties {
		p := &s.Properties[i]
		if p.ID {
			continue
		}
		assignments = append(assignments, p.ColumnName+" = EXCLUDED."+p.ColumnName)
	}
	query += " ON CONFLICT (" + id.ColumnName + ") DO UPDATE SET " + strings.Join(assignments, ", ")
	if id.Generated {
		query += " RETURNING " + id.ColumnName
	}
	return query
}

func (postgresDialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (postgresDialect) UseReturning() bool { return true }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) ColumnDDL(p *metadata.Property) string {
	// Only an INTEGER PRIMARY KEY column aliases the rowid in SQLite, so the
	// generated identifier is rendered inline regardless of declared width.
	if p.ID && p.Generated {
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	var b strings.Builder
	b.WriteString(p.SQLType)
	if p.NotNull {
		b.WriteString(" NOT NULL")
	}
	if p.ID {
		b.WriteString(",\nPRIMARY KEY (" + p.ColumnName + ")")
	}
	return b.String()
}

func (sqliteDialect) UpsertSQL(s *metadata.Schema) string {
	columns, placeholders := columnList(s, questionPlaceholder)
	return "INSERT OR REPLACE INTO " + s.TableName + " (" + columns + ") VALUES (" + placeholders + ")"
}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) UseReturning() bool { return false }

func questionPlaceholder(int) string { return "?" }

func postgresPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func columnList(s *metadata.Schema, placeholder func(int) string) (columns, placeholders string) {
	names := make([]string, 0, len(s.Properties))
	marks := make([]string, 0, len(s.Properties))
	for i := range s.Properties {
		names = append(names, s.Properties[i].ColumnName)
		marks = append(marks, placeholder(i+1))
	}
	return strings.Join(names, ", "), strings.Join(marks, ", ")
}
