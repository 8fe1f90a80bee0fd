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

package repository

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/tomoncle/acorn/database"
)

// queryMany executes query on the bound connection and maps every row to a
// new entity instance. Row columns are read positionally in property order;
// the schema generator emits columns in the same order, which is what makes
// SELECT * safe here.
func (r *baseRepositoryImpl[T]) queryMany(ctx context.Context, query string, args ...any) ([]*T, error) {
	tx, err := database.Conn(ctx)
	if err != nil {
		return nil, err
	}
	event := &QueryEvent{Query: query, Args: args, StartTime: time.Now()}
	ctx = r.beforeQuery(ctx, event)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.fail(ctx, event, "query", query, err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*T, 0)
	for rows.Next() {
		entity, err := r.scanRow(rows)
		if err != nil {
			return nil, r.fail(ctx, event, "scan", query, err)
		}
		out = append(out, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, r.fail(ctx, event, "rows", query, err)
	}
	r.afterQuery(ctx, event)
	return out, nil
}

// queryOne returns the first mapped row, or nil when the query matches
// nothing.
func (r *baseRepositoryImpl[T]) queryOne(ctx context.Context, query string, args ...any) (*T, error) {
	list, err := r.queryMany(ctx, query, args...)
	if err != nil {
		return (*T)(nil), err
	}
	if len(list) == 0 {
		return (*T)(nil), nil
	}
	return list[0], nil
}

// scanRow creates one new entity instance and writes each column into the
// matching property through its mutator, in stable property order.
func (r *baseRepositoryImpl[T]) scanRow(rows *sql.Rows) (*T, error) {
	ptr := reflect.New(r.schema.Type)
	entity := ptr.Elem()
	targets := make([]any, 0, len(r.schema.Properties))
	for i := range r.schema.Properties {
		targets = append(targets, r.schema.Properties[i].Addr(entity))
	}
	if err := rows.Scan(targets...); err != nil {
		return nil, err
	}
	return ptr.Interface().(*T), nil
}

// bindArgs reads every property through its accessor, in the same stable
// order used for schema generation.
func (r *baseRepositoryImpl[T]) bindArgs(entity *T) []any {
	value := reflect.ValueOf(entity).Elem()
	args := make([]any, 0, len(r.schema.Properties))
	for i := range r.schema.Properties {
		args = append(args, r.schema.Properties[i].Value(value))
	}
	return args
}

// save executes the upsert with all property values bound positionally.
// When the entity declares a generated identifier, the generated key is
// written back through the identifier's mutator, exactly once per call.
func (r *baseRepositoryImpl[T]) save(ctx context.Context, s *strategy, entity *T) (*T, error) {
	tx, err := database.Conn(ctx)
	if err != nil {
		return nil, err
	}
	args := r.bindArgs(entity)
	event := &QueryEvent{Query: s.query, Args: args, StartTime: time.Now()}
	ctx = r.beforeQuery(ctx, event)

	value := reflect.ValueOf(entity).Elem()
	id := r.schema.ID()

	if s.returning {
		var key int64
		if err := tx.QueryRowContext(ctx, s.query, args...).Scan(&key); err != nil {
			return nil, r.fail(ctx, event, "exec", s.query, err)
		}
		if err := id.SetValue(value, key); err != nil {
			return nil, r.fail(ctx, event, "generated keys", s.query, err)
		}
		r.afterQuery(ctx, event)
		return entity, nil
	}

	result, err := tx.ExecContext(ctx, s.query, args...)
	if err != nil {
		return nil, r.fail(ctx, event, "exec", s.query, err)
	}
	if id != nil && id.Generated {
		key, err := result.LastInsertId()
		if err != nil {
			return nil, r.fail(ctx, event, "generated keys", s.query, err)
		}
		if err := id.SetValue(value, key); err != nil {
			return nil, r.fail(ctx, event, "generated keys", s.query, err)
		}
	}
	r.afterQuery(ctx, event)
	return entity, nil
}

// fail records the error on the event, notifies the after hooks, and wraps
// the failure so it crosses the dispatch boundary with its kind intact.
func (r *baseRepositoryImpl[T]) fail(ctx context.Context, event *QueryEvent, op, query string, err error) error {
	event.Err = err
	r.afterQuery(ctx, event)
	return database.WrapQueryError(database.NewDatabaseError(op, query, err))
}
