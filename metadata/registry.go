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

package metadata

import (
	"reflect"
	"sort"
	"sync"
)

var defaultRegistry = NewModelRegistry()

// ModelRegistry stores derived entity schemas for table creation. Schemas
// come back in a deterministic order: ascending priority, registration
// order within equal priorities.
type ModelRegistry struct {
	mutex   sync.RWMutex
	entries []registeredModel
}

type registeredModel struct {
	schema   *Schema
	priority int
}

// NewModelRegistry returns an empty registry.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{}
}

// Register derives and validates the schema of instance immediately, so a
// broken entity declaration surfaces at registration rather than at the
// first table creation.
func (r *ModelRegistry) Register(instance any, priority int) error {
	schema, err := Describe(reflect.TypeOf(instance))
	if err != nil {
		return err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.entries = append(r.entries, registeredModel{schema: schema, priority: priority})
	return nil
}

// Schemas returns the registered schemas sorted by ascending priority.
func (r *ModelRegistry) Schemas() []*Schema {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entries := make([]registeredModel, len(r.entries))
	copy(entries, r.entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].priority < entries[j].priority
	})
	schemas := make([]*Schema, len(entries))
	for i := range entries {
		schemas[i] = entries[i].schema
	}
	return schemas
}

// RegisterModel adds an entity instance to the default registry.
func RegisterModel(instance any, priority int) error {
	return defaultRegistry.Register(instance, priority)
}

// RegisteredSchemas returns all schemas from the default registry sorted by
// ascending priority.
func RegisteredSchemas() []*Schema {
	return defaultRegistry.Schemas()
}
