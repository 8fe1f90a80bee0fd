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
	"errors"
	"sync"
	"testing"

	"github.com/tomoncle/acorn/database"
	"github.com/tomoncle/acorn/metadata"
)

type Person struct {
	metadata.Model

	ID   *int64 `acorn:",pk,autoincrement"`
	Name string
	Age  int64
}

type note struct {
	metadata.Model

	Text string
}

func newPersonRepository(t *testing.T, opts ...Option) *baseRepositoryImpl[Person] {
	t.Helper()
	database.SetDialect(database.Default)
	repo, err := New[Person](opts...)
	if err != nil {
		t.Fatalf("failed to synthesize repository: %v", err)
	}
	return repo.(*baseRepositoryImpl[Person])
}

func TestResolveFindAll(t *testing.T) {
	repo := newPersonRepository(t)
	s, err := repo.resolveStrategy("findAll")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if s.kind != strategyFindAll || !s.many || s.query != "SELECT * FROM PERSON" {
		t.Fatalf("unexpected strategy: %+v", s)
	}
}

func TestResolveFindByID(t *testing.T) {
	repo := newPersonRepository(t)
	s, err := repo.resolveStrategy("findById")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if s.kind != strategyFindByID || s.query != "SELECT * FROM PERSON WHERE ID = ?" {
		t.Fatalf("unexpected strategy: %+v", s)
	}
}

func TestResolveFindByIDRequiresIdentifier(t *testing.T) {
	database.SetDialect(database.Default)
	repo, err := New[note]()
	if err != nil {
		t.Fatalf("failed to synthesize repository: %v", err)
	}
	_, err = repo.(*baseRepositoryImpl[note]).resolveStrategy("findById")
	var configErr *metadata.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestResolveFindByProperty(t *testing.T) {
	repo := newPersonRepository(t)
	s, err := repo.resolveStrategy("findByAge")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if s.kind != strategyFindByProperty || s.property != "age" {
		t.Fatalf("unexpected strategy: %+v", s)
	}
	if s.query != "SELECT * FROM PERSON WHERE age = ?" {
		t.Fatalf("unexpected query: %q", s.query)
	}
}

func TestResolveFindByUnknownProperty(t *testing.T) {
	repo := newPersonRepository(t)
	_, err := repo.resolveStrategy("findByShoeSize")
	var configErr *metadata.ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestResolveSave(t *testing.T) {
	repo := newPersonRepository(t)
	s, err := repo.resolveStrategy("save")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if s.kind != strategySave || s.query != "MERGE INTO PERSON (ID, NAME, AGE) VALUES (?, ?, ?)" {
		t.Fatalf("unexpected strategy: %+v", s)
	}
	if s.returning {
		t.Fatal("default dialect must use LastInsertId, not RETURNING")
	}
}

func TestResolveCustomQueryTakesPrecedence(t *testing.T) {
	repo := newPersonRepository(t, WithQueryMany("findAll", "SELECT * FROM PERSON WHERE AGE > 0"))
	s, err := repo.resolveStrategy("findAll")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if s.kind != strategyCustomQuery || !s.many {
		t.Fatalf("declared query must win over the naming convention: %+v", s)
	}
}

func TestResolveUnsupportedIdentityMethods(t *testing.T) {
	repo := newPersonRepository(t)
	for _, method := range []string{"equals", "hashCode", "toString"} {
		_, err := repo.resolveStrategy(method)
		if !errors.Is(err, database.ErrUnsupportedOperation) {
			t.Fatalf("resolve(%q) = %v, want ErrUnsupportedOperation", method, err)
		}
	}
}

func TestResolveUnknownMethod(t *testing.T) {
	repo := newPersonRepository(t)
	for _, method := range []string{"frobnicate", "findBy", "deleteAll"} {
		_, err := repo.resolveStrategy(method)
		var configErr *metadata.ConfigurationError
		if !errors.As(err, &configErr) {
			t.Fatalf("resolve(%q) = %v, want ConfigurationError", method, err)
		}
	}
}

func TestResolveMemoizesPerMethod(t *testing.T) {
	repo := newPersonRepository(t)
	first, err := repo.resolve("findAll")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	second, err := repo.resolve("findAll")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if first != second {
		t.Fatal("expected the memoized strategy on the second resolution")
	}
}

func TestResolveConcurrentResolutionsConverge(t *testing.T) {
	repo := newPersonRepository(t)

	const workers = 32
	results := make([]*strategy, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := repo.resolve("findByAge")
			if err != nil {
				t.Errorf("resolve failed: %v", err)
				return
			}
			results[i] = s
		}(i)
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent resolutions produced divergent strategies")
		}
	}
}

func TestAddHookClearsStrategyCache(t *testing.T) {
	repo := newPersonRepository(t)
	if _, err := repo.resolve("findAll"); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	repo.AddHook(NewLogQueryHook())

	repo.mu.RLock()
	size := len(repo.strategies)
	repo.mu.RUnlock()
	if size != 0 {
		t.Fatalf("strategy cache size = %d after AddHook, want 0", size)
	}
}

func TestNewRejectsNonStructTypes(t *testing.T) {
	if _, err := New[int](); err == nil {
		t.Fatal("expected ConfigurationError for a non-struct entity type")
	}
	if _, err := New[*Person](); err == nil {
		t.Fatal("expected ConfigurationError for a pointer entity type")
	}
	if _, err := New[any](); err == nil {
		t.Fatal("expected ConfigurationError for an interface entity type")
	}
}
