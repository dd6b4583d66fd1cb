package common

import (
	"fmt"
	"reflect"
	"strings"
)

// PrimaryKeyNameProvider is implemented by models that name their own
// primary key column.
type PrimaryKeyNameProvider interface {
	GetIDName() string
}

// PrimaryKeyName extracts the primary key column name from a model.
// It checks PrimaryKeyNameProvider first, then bun:",pk" and
// gorm:"primaryKey" tags, then falls back to an ID field.
func PrimaryKeyName(model any) string {
	if model == nil || reflect.TypeOf(model) == nil {
		return ""
	}

	if provider, ok := model.(PrimaryKeyNameProvider); ok {
		return provider.GetIDName()
	}

	modelType := reflect.TypeOf(model)
	for modelType.Kind() == reflect.Pointer || modelType.Kind() == reflect.Slice {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return ""
	}

	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if bunTag := field.Tag.Get("bun"); strings.Contains(bunTag, ",pk") {
			return columnNameFromField(field)
		}
		if gormTag := field.Tag.Get("gorm"); strings.Contains(gormTag, "primaryKey") {
			return columnNameFromField(field)
		}
	}

	for i := 0; i < modelType.NumField(); i++ {
		if strings.EqualFold(modelType.Field(i).Name, "id") {
			return columnNameFromField(modelType.Field(i))
		}
	}

	return ""
}

// PrimaryKeyValue extracts the primary key value from a model instance.
func PrimaryKeyValue(model any) any {
	if model == nil || reflect.TypeOf(model) == nil {
		return nil
	}

	val := reflect.ValueOf(model)
	for val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	pkName := PrimaryKeyName(val.Interface())
	if pkName == "" {
		return nil
	}

	modelType := val.Type()
	for i := 0; i < modelType.NumField(); i++ {
		if columnNameFromField(modelType.Field(i)) == pkName {
			return val.Field(i).Interface()
		}
	}
	return nil
}

// ModelColumns returns the column names of a model struct, following
// bun/gorm column tags where present and snake_case otherwise.
func ModelColumns(model any) []string {
	if model == nil || reflect.TypeOf(model) == nil {
		return nil
	}

	modelType := reflect.TypeOf(model)
	for modelType.Kind() == reflect.Pointer || modelType.Kind() == reflect.Slice {
		modelType = modelType.Elem()
	}
	if modelType.Kind() != reflect.Struct {
		return nil
	}

	columns := make([]string, 0, modelType.NumField())
	for i := 0; i < modelType.NumField(); i++ {
		field := modelType.Field(i)
		if field.Anonymous || !field.IsExported() {
			continue
		}
		// Skip relation fields, they are not columns
		kind := field.Type.Kind()
		if kind == reflect.Pointer {
			kind = field.Type.Elem().Kind()
		}
		if kind == reflect.Struct && field.Type.String() != "time.Time" {
			continue
		}
		if kind == reflect.Slice && field.Type.Elem().Kind() == reflect.Pointer {
			continue
		}
		columns = append(columns, columnNameFromField(field))
	}
	return columns
}

// NewSliceOf builds a pointer to a slice of pointers to the model's
// struct type, suitable for scanning query results into.
func NewSliceOf(model any) (interface{}, error) {
	modelType := reflect.TypeOf(model)
	for modelType != nil && (modelType.Kind() == reflect.Pointer || modelType.Kind() == reflect.Slice) {
		modelType = modelType.Elem()
	}
	if modelType == nil || modelType.Kind() != reflect.Struct {
		return nil, fmt.Errorf("model must be a struct type, got %v", reflect.TypeOf(model))
	}
	return reflect.New(reflect.SliceOf(reflect.PointerTo(modelType))).Interface(), nil
}

// SliceRows unwraps a scanned slice pointer into []interface{}.
func SliceRows(slicePtr interface{}) []interface{} {
	val := reflect.ValueOf(slicePtr)
	for val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	if val.Kind() != reflect.Slice {
		return nil
	}
	rows := make([]interface{}, val.Len())
	for i := 0; i < val.Len(); i++ {
		rows[i] = val.Index(i).Interface()
	}
	return rows
}

func columnNameFromField(field reflect.StructField) string {
	if bunTag := field.Tag.Get("bun"); bunTag != "" {
		name := strings.Split(bunTag, ",")[0]
		if name != "" {
			return name
		}
	}
	if gormTag := field.Tag.Get("gorm"); gormTag != "" {
		for _, part := range strings.Split(gormTag, ";") {
			if strings.HasPrefix(part, "column:") {
				return strings.TrimPrefix(part, "column:")
			}
		}
	}
	if jsonTag := field.Tag.Get("json"); jsonTag != "" && jsonTag != "-" {
		return strings.Split(jsonTag, ",")[0]
	}
	return ToSnakeCase(field.Name)
}

// ToSnakeCase converts CamelCase to snake_case. Acronym runs stay
// together, so "PublisherID" becomes "publisher_id" rather than
// "publisher_i_d".
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var result strings.Builder
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				result.WriteRune('_')
			}
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
