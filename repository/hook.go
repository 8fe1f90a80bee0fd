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
	"time"

	"github.com/tomoncle/acorn/database"
)

// QueryEvent describes one statement execution observed by hooks.
type QueryEvent struct {
	Query     string
	Args      []any
	StartTime time.Time
	Err       error
}

// Hook is cross-cutting behavior wrapped around every query a synthesized
// repository executes.
type Hook interface {
	BeforeQuery(ctx context.Context, event *QueryEvent) context.Context
	AfterQuery(ctx context.Context, event *QueryEvent)
}

// AddHook registers a hook and clears the memoized strategies so subsequent
// calls resolve against the updated behavior chain.
func (r *baseRepositoryImpl[T]) AddHook(hook Hook) {
	if hook == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
	r.strategies = make(map[string]*strategy)
}

func (r *baseRepositoryImpl[T]) snapshotHooks() []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hooks := make([]Hook, len(r.hooks))
	copy(hooks, r.hooks)
	return hooks
}

func (r *baseRepositoryImpl[T]) beforeQuery(ctx context.Context, event *QueryEvent) context.Context {
	for _, hook := range r.snapshotHooks() {
		ctx = hook.BeforeQuery(ctx, event)
	}
	return ctx
}

func (r *baseRepositoryImpl[T]) afterQuery(ctx context.Context, event *QueryEvent) {
	for _, hook := range r.snapshotHooks() {
		hook.AfterQuery(ctx, event)
	}
}

// LogQueryHook logs every executed statement with its duration through the
// database logger: debug on success, warn on failure.
type LogQueryHook struct {
	logger database.Logger
}

// NewLogQueryHook returns a hook backed by the global database logger.
func NewLogQueryHook() *LogQueryHook {
	return &LogQueryHook{logger: database.GetLogger()}
}

func (h *LogQueryHook) BeforeQuery(ctx context.Context, event *QueryEvent) context.Context {
	return ctx
}

func (h *LogQueryHook) AfterQuery(ctx context.Context, event *QueryEvent) {
	duration := time.Since(event.StartTime)
	if event.Err != nil {
		h.logger.Warn("query failed", "query", event.Query, "duration", duration, "error", event.Err)
		return
	}
	h.logger.Debug("query executed", "query", event.Query, "duration", duration)
}
