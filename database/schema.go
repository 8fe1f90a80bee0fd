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
	"reflect"
	"strings"

	"github.com/tomoncle/acorn/metadata"
)

// CreateTableSQL builds the CREATE TABLE statement for a derived schema.
// Columns appear in property declaration order; the same order is used for
// positional binding and row scanning, so any statement issued against the
// table must preserve it.
func CreateTableSQL(d Dialect, s *metadata.Schema) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(s.TableName)
	b.WriteString(" (")
	for i := range s.Properties {
		if i > 0 {
			b.WriteString(", ")
		}
		p := &s.Properties[i]
		b.WriteString(p.ColumnName)
		b.WriteString(" ")
		b.WriteString(d.ColumnDDL(p))
	}
	b.WriteString(")")
	return b.String()
}

// CreateTable derives the schema of model and executes its CREATE TABLE
// statement on the connection bound to ctx.
func CreateTable(ctx context.Context, model any) error {
	schema, err := metadata.Describe(reflect.TypeOf(model))
	if err != nil {
		return err
	}
	return createTable(ctx, schema)
}

func createTable(ctx context.Context, schema *metadata.Schema) error {
	tx, err := Conn(ctx)
	if err != nil {
		return err
	}
	query := CreateTableSQL(ActiveDialect(), schema)
	GetLogger().Debug("create table", "query", query)
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return NewDatabaseError("exec", query, err)
	}
	return nil
}

// CreateTables creates tables for every registered entity schema in
// ascending priority order.
func CreateTables(ctx context.Context) error {
	for _, schema := range metadata.RegisteredSchemas() {
		if err := createTable(ctx, schema); err != nil {
			return err
		}
	}
	return nil
}
