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
	"reflect"
	"sync"

	"github.com/tomoncle/acorn/metadata"
)

type baseRepositoryImpl[T any] struct {
	schema  *metadata.Schema
	queries map[string]customQuery

	mu         sync.RWMutex
	strategies map[string]*strategy
	hooks      []Hook
}

// New synthesizes a repository for the entity type T. T must be a concrete
// struct type; anything else is a ConfigurationError before any method is
// invoked. Entity metadata is derived eagerly so declaration mistakes
// (duplicate identifier, unmappable property type) also surface here.
func New[T any](opts ...Option) (Repository[T], error) {
	entityType := reflect.TypeOf((*T)(nil)).Elem()
	if entityType.Kind() != reflect.Struct {
		return nil, metadata.NewConfigurationError(
			"repository must be bound to exactly one concrete entity struct type, got %s", entityType)
	}
	schema, err := metadata.Describe(entityType)
	if err != nil {
		return nil, err
	}
	cfg := config{queries: make(map[string]customQuery)}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &baseRepositoryImpl[T]{
		schema:     schema,
		queries:    cfg.queries,
		strategies: make(map[string]*strategy),
		hooks:      cfg.hooks,
	}, nil
}

func (r *baseRepositoryImpl[T]) Schema() *metadata.Schema {
	return r.schema
}

func (r *baseRepositoryImpl[T]) FindAll(ctx context.Context) ([]*T, error) {
	result, err := r.Invoke(ctx, "findAll")
	if err != nil {
		return nil, err
	}
	return result.([]*T), nil
}

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id any) (*T, error) {
	result, err := r.Invoke(ctx, "findById", id)
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

func (r *baseRepositoryImpl[T]) FindBy(ctx context.Context, property string, value any) (*T, error) {
	result, err := r.Invoke(ctx, "findBy"+metadata.Capitalize(property), value)
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

func (r *baseRepositoryImpl[T]) Save(ctx context.Context, entity *T) (*T, error) {
	result, err := r.Invoke(ctx, "save", entity)
	if err != nil {
		return nil, err
	}
	return result.(*T), nil
}

// Invoke resolves the method into its strategy (memoized per method name)
// and executes it with args bound positionally in declaration order.
func (r *baseRepositoryImpl[T]) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	s, err := r.resolve(method)
	if err != nil {
		return nil, err
	}
	switch s.kind {
	case strategyFindAll:
		return r.queryMany(ctx, s.query)
	case strategyFindByID, strategyFindByProperty:
		if len(args) != 1 {
			return nil, metadata.NewConfigurationError("method %q expects exactly one argument, got %d", method, len(args))
		}
		return r.queryOne(ctx, s.query, args...)
	case strategyCustomQuery:
		if s.many {
			return r.queryMany(ctx, s.query, args...)
		}
		return r.queryOne(ctx, s.query, args...)
	case strategySave:
		if len(args) != 1 {
			return nil, metadata.NewConfigurationError("method %q expects exactly one argument, got %d", method, len(args))
		}
		entity, ok := args[0].(*T)
		if !ok {
			return nil, metadata.NewConfigurationError("save expects a *%s argument, got %T", r.schema.Type.Name(), args[0])
		}
		return r.save(ctx, s, entity)
	default:
		return nil, metadata.NewConfigurationError("unresolved repository method %q", method)
	}
}
