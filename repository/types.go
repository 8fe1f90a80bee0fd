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

	"github.com/tomoncle/acorn/metadata"
)

// Repository is the base contract bound to one entity type. Its methods are
// resolved into query strategies by naming convention rather than
// hand-implemented; Invoke exposes the same resolution for method names
// outside the typed surface, e.g. "findByAge".
//
// All methods require a connection bound to ctx by database.Transaction.
type Repository[T any] interface {
	// FindAll returns every row of the entity's table.
	FindAll(ctx context.Context) ([]*T, error)

	// FindByID returns the entity with the given identifier, or nil when
	// absent.
	FindByID(ctx context.Context, id any) (*T, error)

	// FindBy returns the first entity whose property equals value, or nil
	// when absent. The property name uses the decapitalized form, e.g. "age".
	FindBy(ctx context.Context, property string, value any) (*T, error)

	// Save upserts the entity and returns it. When the entity declares a
	// generated identifier, the generated key is written back into the
	// identifier field, exactly once per call.
	Save(ctx context.Context, entity *T) (*T, error)

	// Invoke resolves method by naming convention and executes the resolved
	// strategy with args bound positionally. The result is []*T for
	// multi-result methods and *T (possibly nil) otherwise.
	Invoke(ctx context.Context, method string, args ...any) (any, error)

	// AddHook registers cross-cutting behavior around query execution and
	// clears the memoized strategies.
	AddHook(hook Hook)

	// Schema exposes the derived entity metadata.
	Schema() *metadata.Schema
}

type customQuery struct {
	sql  string
	many bool
}

type config struct {
	queries map[string]customQuery
	hooks   []Hook
}

// Option configures a synthesized repository.
type Option func(*config)

// WithQuery declares a literal-SQL method returning the first mapped row or
// nil. Placeholders are positional and bound from the Invoke arguments in
// declaration order.
func WithQuery(name, sql string) Option {
	return func(c *config) {
		c.queries[name] = customQuery{sql: sql}
	}
}

// WithQueryMany declares a literal-SQL method returning the full list of
// mapped rows.
func WithQueryMany(name, sql string) Option {
	return func(c *config) {
		c.queries[name] = customQuery{sql: sql, many: true}
	}
}

// WithHook registers a hook at construction time.
func WithHook(hook Hook) Option {
	return func(c *config) {
		c.hooks = append(c.hooks, hook)
	}
}
