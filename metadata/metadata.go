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
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Model is embedded into entity structs to mark them as persistable and to
// carry table-level options, e.g.
//
//	type Person struct {
//		acorn.Model `acorn:"table:person"`
//
//		ID   *int64 `acorn:"id,pk,autoincrement"`
//		Name string
//	}
//
// The embedded field itself is never mapped to a column.
type Model struct{}

// TagKey is the struct tag consumed by the metadata derivation.
const TagKey = "acorn"

// Property describes one persistable attribute of an entity type. The field
// index acts as both accessor and mutator: values are read and written through
// reflect using it.
type Property struct {
	Name       string // decapitalized field name, e.g. "age"
	ColumnName string // upper-cased name or tag override
	SQLType    string
	Index      int // struct field index
	ID         bool
	Generated  bool
	NotNull    bool
}

// Schema is the derived, immutable description of an entity type. Properties
// keep the struct declaration order; that order is shared by schema columns
// and positional statement binding.
type Schema struct {
	Type       reflect.Type
	TableName  string
	Properties []Property
	idIndex    int // index into Properties, -1 when no identifier is declared
}

// ID returns the identifier property, or nil when none is declared.
func (s *Schema) ID() *Property {
	if s.idIndex < 0 {
		return nil
	}
	return &s.Properties[s.idIndex]
}

// PropertyByName returns the property with the given decapitalized name.
func (s *Schema) PropertyByName(name string) *Property {
	for i := range s.Properties {
		if s.Properties[i].Name == name {
			return &s.Properties[i]
		}
	}
	return nil
}

var schemaCache sync.Map // map[reflect.Type]*Schema

// Describe derives the schema for an entity type. The result is computed once
// per type and cached for the process lifetime; concurrent first derivations
// converge on a single schema instance. Pointer types are unwrapped to their
// element type.
func Describe(t reflect.Type) (*Schema, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, NewConfigurationError("entity type %v is not a struct", t)
	}
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*Schema), nil
	}
	schema, err := derive(t)
	if err != nil {
		return nil, err
	}
	actual, _ := schemaCache.LoadOrStore(t, schema)
	return actual.(*Schema), nil
}

var modelType = reflect.TypeOf(Model{})

func derive(t reflect.Type) (*Schema, error) {
	schema := &Schema{
		Type:      t,
		TableName: strings.ToUpper(t.Name()),
		idIndex:   -1,
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get(TagKey)
		if field.Anonymous && field.Type == modelType {
			if table, ok := tagValue(tag, "table"); ok {
				schema.TableName = strings.ToUpper(table)
			}
			continue
		}
		if !field.IsExported() || tag == "-" {
			continue
		}
		prop := Property{
			Name:  Decapitalize(field.Name),
			Index: i,
		}
		column, options := splitTag(tag)
		if column == "" {
			column = prop.Name
		}
		prop.ColumnName = strings.ToUpper(column)
		sqlType, notNull, err := columnType(field.Type)
		if err != nil {
			return nil, NewConfigurationError("property %s.%s: %v", t.Name(), prop.Name, err)
		}
		prop.SQLType = sqlType
		prop.NotNull = notNull
		for _, option := range options {
			switch option {
			case "pk":
				prop.ID = true
			case "autoincrement":
				prop.Generated = true
			case "":
			default:
				return nil, NewConfigurationError("property %s.%s: unknown tag option %q", t.Name(), prop.Name, option)
			}
		}
		if prop.ID {
			if schema.idIndex >= 0 {
				return nil, NewConfigurationError("entity type %s declares more than one identifier property", t.Name())
			}
			schema.idIndex = len(schema.Properties)
		}
		schema.Properties = append(schema.Properties, prop)
	}
	return schema, nil
}

// splitTag separates the optional leading column name from flag options,
// e.g. "config_key,pk,autoincrement" or ",pk".
func splitTag(tag string) (column string, options []string) {
	if tag == "" {
		return "", nil
	}
	parts := strings.Split(tag, ",")
	return parts[0], parts[1:]
}

func tagValue(tag, key string) (string, bool) {
	for _, part := range strings.Split(tag, ",") {
		if value, ok := strings.CutPrefix(part, key+":"); ok {
			return value, true
		}
	}
	return "", false
}

// Decapitalize lowers the first rune of a field name to form the property
// name: "Name" becomes "name", but a leading acronym such as "URL" is left
// untouched.
func Decapitalize(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}
	if len(runes) > 1 && unicode.IsUpper(runes[0]) && unicode.IsUpper(runes[1]) {
		return name
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

// Capitalize is the inverse used when deriving method names from property
// names, e.g. "age" to "Age".
func Capitalize(name string) string {
	runes := []rune(name)
	if len(runes) == 0 {
		return name
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Value reads the property from an entity struct value (the accessor).
func (p *Property) Value(entity reflect.Value) any {
	return entity.Field(p.Index).Interface()
}

// Addr returns a pointer to the property's field, suitable as a positional
// sql.Rows.Scan destination.
func (p *Property) Addr(entity reflect.Value) any {
	return entity.Field(p.Index).Addr().Interface()
}

// SetValue writes v into the property's field (the mutator), converting
// integer widths and allocating a pointer when the field is nullable.
func (p *Property) SetValue(entity reflect.Value, v any) error {
	field := entity.Field(p.Index)
	target := field
	if field.Kind() == reflect.Pointer {
		if v == nil {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		target = reflect.New(field.Type().Elem())
		defer field.Set(target)
		target = target.Elem()
	}
	value := reflect.ValueOf(v)
	switch {
	case value.Type().AssignableTo(target.Type()):
		target.Set(value)
	case value.CanInt() && (target.Kind() == reflect.Int32 || target.Kind() == reflect.Int64):
		if target.OverflowInt(value.Int()) {
			return fmt.Errorf("value %d overflows property %s", value.Int(), p.Name)
		}
		target.SetInt(value.Int())
	default:
		return fmt.Errorf("cannot assign %T to property %s", v, p.Name)
	}
	return nil
}
