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

// Package acorn is a minimal convention-driven ORM: table schemas are
// derived from entity struct metadata, one connection is bound to the
// calling context for the duration of a transaction, and repository
// behavior is resolved from method names.
//
//	type Person struct {
//		acorn.Model
//
//		ID   *int64 `acorn:",pk,autoincrement"`
//		Name string
//	}
//
//	repo, err := acorn.NewRepository[Person]()
//	...
//	err = acorn.Transaction(ctx, db, func(ctx context.Context) error {
//		if err := acorn.CreateTable(ctx, Person{}); err != nil {
//			return err
//		}
//		saved, err := repo.Save(ctx, &Person{Name: "Ada"})
//		return err
//	})
package acorn

import (
	"context"
	"database/sql"

	"github.com/tomoncle/acorn/database"
	"github.com/tomoncle/acorn/metadata"
	"github.com/tomoncle/acorn/repository"
)

// Model marks a struct as a persistable entity; see metadata.Model.
type Model = metadata.Model

// Transaction runs block with one connection bound to its context; see
// database.Transaction for the commit, rollback, and unbind contract.
func Transaction(ctx context.Context, db *sql.DB, block func(ctx context.Context) error) error {
	return database.Transaction(ctx, db, block)
}

// CreateTable derives the schema of model and creates its table on the
// connection bound to ctx.
func CreateTable(ctx context.Context, model any) error {
	return database.CreateTable(ctx, model)
}

// CreateTables creates tables for all registered models in priority order.
func CreateTables(ctx context.Context) error {
	return database.CreateTables(ctx)
}

// RegisterModel derives and validates the schema of instance and adds it to
// the default model registry used by CreateTables (lower priority values are
// created first). A broken entity declaration is reported here.
func RegisterModel(instance any, priority int) error {
	return metadata.RegisterModel(instance, priority)
}

// NewRepository synthesizes a repository for the entity type T.
func NewRepository[T any](opts ...repository.Option) (repository.Repository[T], error) {
	return repository.New[T](opts...)
}
