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
)

// SQL column types for the supported property types.
const (
	SQLInteger = "INTEGER"
	SQLBigint  = "BIGINT"
	SQLVarchar = "VARCHAR(255)"
)

// columnType maps a native field type to its SQL column type. Pointer fields
// can represent the absence of a value, so only non-pointer fields are
// NOT NULL. Any type outside the fixed supported set is a configuration
// mistake, not a runtime condition.
func columnType(t reflect.Type) (sqlType string, notNull bool, err error) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int32:
		return SQLInteger, !nullable, nil
	case reflect.Int64:
		return SQLBigint, !nullable, nil
	case reflect.String:
		return SQLVarchar, !nullable, nil
	default:
		return "", false, fmt.Errorf("cannot map %s to a SQL type", t)
	}
}
