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
	"errors"
	"reflect"
	"sync"
	"testing"
)

type user struct {
	Model `acorn:"table:account"`

	ID       *int64 `acorn:",pk,autoincrement"`
	Login    string `acorn:"login_name"`
	Age      int32
	internal string
	Skipped  string `acorn:"-"`
}

func describeT(t *testing.T, value any) *Schema {
	t.Helper()
	schema, err := Describe(reflect.TypeOf(value))
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	return schema
}

func TestDescribeProperties(t *testing.T) {
	schema := describeT(t, user{})

	if schema.TableName != "ACCOUNT" {
		t.Fatalf("table name = %q, want ACCOUNT", schema.TableName)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("got %d properties, want 3", len(schema.Properties))
	}

	id := schema.Properties[0]
	if id.Name != "id" || id.ColumnName != "ID" || id.SQLType != SQLBigint {
		t.Fatalf("unexpected id property: %+v", id)
	}
	if !id.ID || !id.Generated || id.NotNull {
		t.Fatalf("unexpected id markers: %+v", id)
	}

	login := schema.Properties[1]
	if login.ColumnName != "LOGIN_NAME" || login.SQLType != SQLVarchar || !login.NotNull {
		t.Fatalf("unexpected login property: %+v", login)
	}

	age := schema.Properties[2]
	if age.Name != "age" || age.ColumnName != "AGE" || age.SQLType != SQLInteger {
		t.Fatalf("unexpected age property: %+v", age)
	}

	if schema.ID() == nil || schema.ID().Name != "id" {
		t.Fatalf("identifier not resolved: %+v", schema.ID())
	}
	if schema.PropertyByName("internal") != nil || schema.PropertyByName("skipped") != nil {
		t.Fatal("unexported or skipped field leaked into the schema")
	}
}

func TestDescribeDefaultsAndPointerUnwrap(t *testing.T) {
	type device struct {
		Model

		Serial string
	}

	schema := describeT(t, &device{})
	if schema.TableName != "DEVICE" {
		t.Fatalf("table name = %q, want DEVICE", schema.TableName)
	}
	if schema.ID() != nil {
		t.Fatal("device should not declare an identifier")
	}
}

func TestDescribeCachesPerType(t *testing.T) {
	first := describeT(t, user{})
	second := describeT(t, user{})
	if first != second {
		t.Fatal("expected the cached schema instance on the second derivation")
	}
}

func TestDescribeConcurrentDerivationsConverge(t *testing.T) {
	type widget struct {
		Model

		Name string
	}

	const workers = 16
	results := make([]*Schema, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			schema, err := Describe(reflect.TypeOf(widget{}))
			if err != nil {
				t.Errorf("describe failed: %v", err)
				return
			}
			results[i] = schema
		}(i)
	}
	wg.Wait()
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent derivations produced divergent schemas")
		}
	}
}

func TestDescribeRejectsUnmappableType(t *testing.T) {
	type invalid struct {
		Model

		Ratio float64
	}

	_, err := Describe(reflect.TypeOf(invalid{}))
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestDescribeRejectsDuplicateIdentifier(t *testing.T) {
	type twice struct {
		Model

		A int64 `acorn:",pk"`
		B int64 `acorn:",pk"`
	}

	_, err := Describe(reflect.TypeOf(twice{}))
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestDescribeRejectsNonStruct(t *testing.T) {
	_, err := Describe(reflect.TypeOf(42))
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestDecapitalize(t *testing.T) {
	cases := map[string]string{
		"Name": "name",
		"Age":  "age",
		"URL":  "URL",
		"id":   "id",
		"":     "",
	}
	for in, want := range cases {
		if got := Decapitalize(in); got != want {
			t.Fatalf("Decapitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPropertyAccessorsAndMutator(t *testing.T) {
	schema := describeT(t, user{})
	entity := reflect.ValueOf(&user{Login: "ada"}).Elem()

	login := schema.PropertyByName("login")
	if got := login.Value(entity); got != "ada" {
		t.Fatalf("accessor returned %v, want ada", got)
	}

	id := schema.ID()
	if err := id.SetValue(entity, int64(7)); err != nil {
		t.Fatalf("mutator failed: %v", err)
	}
	got := entity.Field(id.Index).Interface().(*int64)
	if got == nil || *got != 7 {
		t.Fatalf("mutator wrote %v, want 7", got)
	}

	age := schema.PropertyByName("age")
	if err := age.SetValue(entity, int64(30)); err != nil {
		t.Fatalf("mutator failed for int32 narrowing: %v", err)
	}
	if entity.FieldByName("Age").Interface().(int32) != 30 {
		t.Fatal("int32 narrowing did not apply")
	}
}

func TestModelRegistryOrder(t *testing.T) {
	type city struct {
		Model

		Name string
	}
	type street struct {
		Model

		Name string
	}
	type house struct {
		Model

		Number int32
	}

	registry := NewModelRegistry()
	for _, entry := range []struct {
		instance any
		priority int
	}{
		{street{}, 10},
		{city{}, 1},
		{house{}, 10},
	} {
		if err := registry.Register(entry.instance, entry.priority); err != nil {
			t.Fatalf("register failed: %v", err)
		}
	}

	schemas := registry.Schemas()
	if len(schemas) != 3 {
		t.Fatalf("got %d schemas, want 3", len(schemas))
	}
	got := []string{schemas[0].TableName, schemas[1].TableName, schemas[2].TableName}
	want := []string{"CITY", "STREET", "HOUSE"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("schema order = %v, want %v", got, want)
		}
	}
}

func TestModelRegistryValidatesAtRegistration(t *testing.T) {
	type broken struct {
		Model

		Ratio float64
	}

	registry := NewModelRegistry()
	err := registry.Register(broken{}, 1)
	var configErr *ConfigurationError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigurationError at registration, got %v", err)
	}
	if len(registry.Schemas()) != 0 {
		t.Fatal("a rejected registration must not leave an entry behind")
	}
}
