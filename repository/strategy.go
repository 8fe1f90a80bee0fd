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
	"fmt"
	"strings"

	"github.com/tomoncle/acorn/database"
	"github.com/tomoncle/acorn/metadata"
)

type strategyKind uint8

const (
	strategyCustomQuery strategyKind = iota
	strategyFindAll
	strategyFindByID
	strategyFindByProperty
	strategySave
)

// strategy is the resolved behavior of one repository method: an explicit,
// inspectable dispatch entry instead of a proxy.
type strategy struct {
	kind      strategyKind
	query     string
	many      bool
	property  string // set for strategyFindByProperty
	returning bool   // save fetches the generated key via RETURNING
}

// resolve returns the memoized strategy for method, deriving it on first
// use. Concurrent first resolutions converge on one agreed strategy.
func (r *baseRepositoryImpl[T]) resolve(method string) (*strategy, error) {
	r.mu.RLock()
	s, ok := r.strategies[method]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	s, err := r.resolveStrategy(method)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	if existing, ok := r.strategies[method]; ok {
		s = existing
	} else {
		r.strategies[method] = s
	}
	r.mu.Unlock()
	return s, nil
}

// resolveStrategy interprets a method name using the fixed naming
// convention. Precedence: declared literal-SQL queries, findAll, findById,
// findBy<Property>, save; identity methods are unsupported; anything else is
// a configuration mistake.
func (r *baseRepositoryImpl[T]) resolveStrategy(method string) (*strategy, error) {
	if q, ok := r.queries[method]; ok {
		return &strategy{kind: strategyCustomQuery, query: q.sql, many: q.many}, nil
	}
	dialect := database.ActiveDialect()
	switch method {
	case "findAll":
		return &strategy{
			kind:  strategyFindAll,
			query: "SELECT * FROM " + r.schema.TableName,
			many:  true,
		}, nil
	case "findById":
		id := r.schema.ID()
		if id == nil {
			return nil, metadata.NewConfigurationError("entity type %s declares no identifier property", r.schema.Type.Name())
		}
		return &strategy{
			kind:  strategyFindByID,
			query: "SELECT * FROM " + r.schema.TableName + " WHERE " + id.ColumnName + " = " + dialect.Placeholder(1),
		}, nil
	case "save":
		s := &strategy{kind: strategySave, query: dialect.UpsertSQL(r.schema)}
		if id := r.schema.ID(); id != nil && id.Generated {
			s.returning = dialect.UseReturning()
		}
		return s, nil
	case "equals", "hashCode", "toString":
		return nil, fmt.Errorf("%w: %s", database.ErrUnsupportedOperation, method)
	}
	if suffix, ok := strings.CutPrefix(method, "findBy"); ok && suffix != "" {
		name := metadata.Decapitalize(suffix)
		prop := r.schema.PropertyByName(name)
		if prop == nil {
			return nil, metadata.NewConfigurationError("entity type %s has no property %q for method %q", r.schema.Type.Name(), name, method)
		}
		return &strategy{
			kind:     strategyFindByProperty,
			property: prop.Name,
			query:    "SELECT * FROM " + r.schema.TableName + " WHERE " + prop.Name + " = " + dialect.Placeholder(1),
		}, nil
	}
	return nil, metadata.NewConfigurationError("unresolved repository method %q", method)
}
