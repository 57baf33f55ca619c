package querybuilder

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// InsertRows builds a multi-row insert from a slice of db-tagged structs.
// Column order follows the struct field order of the element type.
func InsertRows(table string, rows any) (*InsertBuilder, error) {
	value := reflect.ValueOf(rows)
	if value.Kind() != reflect.Slice {
		return nil, fmt.Errorf("rows must be a slice, got %s", value.Kind())
	}
	if value.Len() == 0 {
		return nil, fmt.Errorf("rows cannot be empty")
	}

	builder := InsertInto(table)
	for i := 0; i < value.Len(); i++ {
		cols, vals, err := columnsAndValuesFromModel(value.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if i == 0 {
			builder.Columns(cols...)
		}
		builder.Values(vals...)
	}
	return builder, nil
}

// ModelColumns lists the db columns of a model, minus the excluded ones.
func ModelColumns(model any, exclude ...string) []string {
	cols, _, err := columnsAndValuesFromModel(model)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		if slices.Contains(exclude, col) {
			continue
		}
		out = append(out, col)
	}
	return out
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		col := strings.TrimSpace(strings.Split(field.Tag.Get("db"), ",")[0])
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
